package tool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ErrOutsideWorkspace is returned for file names that resolve outside the
// workspace directory.
var ErrOutsideWorkspace = errors.New("path escapes the working directory")

// Workspace is the directory the document tools read and write.
type Workspace struct {
	root string
}

// NewWorkspace creates the directory if needed.
func NewWorkspace(dir string) (*Workspace, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create working directory: %w", err)
	}
	return &Workspace{root: root}, nil
}

// Root returns the absolute workspace directory.
func (w *Workspace) Root() string { return w.root }

// Path resolves a file name inside the workspace.
func (w *Workspace) Path(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("file name is required")
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %s", ErrOutsideWorkspace, name)
	}
	path := filepath.Join(w.root, name)
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideWorkspace, name)
	}
	return path, nil
}

// ReadFile returns the content of a workspace file.
func (w *Workspace) ReadFile(name string) ([]byte, error) {
	path, err := w.Path(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func (w *Workspace) writeFile(name, content string) error {
	path, err := w.Path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// readLines splits a file keeping line terminators, so joining the lines
// gives back the file.
func (w *Workspace) readLines(name string) ([]string, error) {
	data, err := w.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	lines := strings.SplitAfter(string(data), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}

// DocumentTools returns the document tools over w.
func DocumentTools(w *Workspace) (outline *CreateOutline, read *ReadDocument, write *WriteDocument, edit *EditDocument) {
	return &CreateOutline{w}, &ReadDocument{w}, &WriteDocument{w}, &EditDocument{w}
}

// CreateOutline writes a numbered outline.
type CreateOutline struct{ ws *Workspace }

func (t *CreateOutline) Name() string { return "create_outline" }

func (t *CreateOutline) Description() string {
	return "Create and save an outline."
}

func (t *CreateOutline) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"points": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "List of main points or sections.",
			},
			"file_name": map[string]any{
				"type":        "string",
				"description": "File path to save the outline.",
			},
		},
		"required": []string{"points", "file_name"},
	}
}

func (t *CreateOutline) Call(_ context.Context, input string) (string, error) {
	var args struct {
		Points   []string `json:"points"`
		FileName string   `json:"file_name"`
	}
	if err := decodeArgs(input, &args); err != nil {
		return "", err
	}

	var sb strings.Builder
	for i, point := range args.Points {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, point)
	}
	if err := t.ws.writeFile(args.FileName, sb.String()); err != nil {
		return "", err
	}
	return "Outline saved to " + args.FileName, nil
}

// ReadDocument returns a range of lines of a document.
type ReadDocument struct{ ws *Workspace }

func (t *ReadDocument) Name() string { return "read_document" }

func (t *ReadDocument) Description() string {
	return "Read the specified document."
}

func (t *ReadDocument) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"file_name": map[string]any{
				"type":        "string",
				"description": "File path to read the document from.",
			},
			"start": map[string]any{
				"type":        "integer",
				"description": "The start line. Default is 0",
			},
			"end": map[string]any{
				"type":        "integer",
				"description": "The end line. Default is None",
			},
		},
		"required": []string{"file_name"},
	}
}

func (t *ReadDocument) Call(_ context.Context, input string) (string, error) {
	var args struct {
		FileName string `json:"file_name"`
		Start    *int   `json:"start"`
		End      *int   `json:"end"`
	}
	if err := decodeArgs(input, &args); err != nil {
		return "", err
	}

	lines, err := t.ws.readLines(args.FileName)
	if err != nil {
		return "", err
	}

	start, end := 0, len(lines)
	if args.Start != nil {
		start = clamp(*args.Start, 0, len(lines))
	}
	if args.End != nil {
		end = clamp(*args.End, start, len(lines))
	}
	var sb strings.Builder
	for _, line := range lines[start:end] {
		sb.WriteString(line)
		if !strings.HasSuffix(line, "\n") {
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// WriteDocument writes a document.
type WriteDocument struct{ ws *Workspace }

func (t *WriteDocument) Name() string { return "write_document" }

func (t *WriteDocument) Description() string {
	return "Create and save a text document."
}

func (t *WriteDocument) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"content": map[string]any{
				"type":        "string",
				"description": "Text content to be written into the document.",
			},
			"file_name": map[string]any{
				"type":        "string",
				"description": "File path to save the document.",
			},
		},
		"required": []string{"content", "file_name"},
	}
}

func (t *WriteDocument) Call(_ context.Context, input string) (string, error) {
	var args struct {
		Content  string `json:"content"`
		FileName string `json:"file_name"`
	}
	if err := decodeArgs(input, &args); err != nil {
		return "", err
	}
	if err := t.ws.writeFile(args.FileName, args.Content); err != nil {
		return "", err
	}
	return "Document saved to " + args.FileName, nil
}

// EditDocument inserts lines into a document.
type EditDocument struct{ ws *Workspace }

func (t *EditDocument) Name() string { return "edit_document" }

func (t *EditDocument) Description() string {
	return "Edit a document by inserting text at specific line numbers."
}

func (t *EditDocument) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"file_name": map[string]any{
				"type":        "string",
				"description": "Path of the document to be edited.",
			},
			"inserts": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
				"description":          "Dictionary where key is the line number (1-indexed) and value is the text to be inserted at that line.",
			},
		},
		"required": []string{"file_name", "inserts"},
	}
}

// Call applies the inserts in ascending line order. Line numbers refer to
// the document as edited so far and may be one past its last line.
func (t *EditDocument) Call(_ context.Context, input string) (string, error) {
	var args struct {
		FileName string            `json:"file_name"`
		Inserts  map[string]string `json:"inserts"`
	}
	if err := decodeArgs(input, &args); err != nil {
		return "", err
	}

	type insert struct {
		line int
		text string
	}
	inserts := make([]insert, 0, len(args.Inserts))
	for key, text := range args.Inserts {
		n, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return "", fmt.Errorf("invalid line number %q", key)
		}
		inserts = append(inserts, insert{line: n, text: text})
	}
	sort.Slice(inserts, func(i, j int) bool { return inserts[i].line < inserts[j].line })

	lines, err := t.ws.readLines(args.FileName)
	if err != nil {
		return "", err
	}
	for _, in := range inserts {
		if in.line < 1 || in.line > len(lines)+1 {
			return fmt.Sprintf("Error: Line number %d is out of range.", in.line), nil
		}
		if prev := in.line - 2; prev >= 0 && !strings.HasSuffix(lines[prev], "\n") {
			lines[prev] += "\n"
		}
		lines = append(lines[:in.line-1], append([]string{in.text + "\n"}, lines[in.line-1:]...)...)
	}

	if err := t.ws.writeFile(args.FileName, strings.Join(lines, "")); err != nil {
		return "", err
	}
	return "Document edited and saved to " + args.FileName, nil
}
