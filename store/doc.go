// Package store defines checkpoint persistence for teamgraph runs.
//
// A Checkpoint records the merged state of one graph step together with the
// node that produced it. Checkpoints of one run share the run ID under the
// "execution_id" metadata key, which is how List finds them.
//
// Backends live in subpackages:
//   - memory: in-process map, the default for development
//   - redis: go-redis with an execution index set
//   - sqlite: mattn/go-sqlite3, one table
//   - postgres: pgx/v5 pool with a JSONB table
//
// Checkpoints are diagnostic. A run never resumes from one.
package store
