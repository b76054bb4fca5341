package graph

// StateSchema defines how node updates are merged into the graph state.
type StateSchema[S any] interface {
	// Init returns the initial state.
	Init() S

	// Update merges an update into the current state.
	Update(current, update S) (S, error)
}

// StructSchema is a StateSchema backed by a merge function.
type StructSchema[S any] struct {
	InitialValue S
	MergeFunc    func(current, update S) (S, error)
}

var _ StateSchema[struct{}] = (*StructSchema[struct{}])(nil)

// NewStructSchema creates a schema with the given initial value and merge function.
// A nil merge function replaces the current state with the update.
func NewStructSchema[S any](initial S, merge func(current, update S) (S, error)) *StructSchema[S] {
	return &StructSchema[S]{
		InitialValue: initial,
		MergeFunc:    merge,
	}
}

// Init returns the initial state.
func (s *StructSchema[S]) Init() S {
	return s.InitialValue
}

// Update merges the update into the current state.
func (s *StructSchema[S]) Update(current, update S) (S, error) {
	if s.MergeFunc == nil {
		return update, nil
	}
	return s.MergeFunc(current, update)
}
