package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// PythonREPL executes Python code in a subprocess. Output of print
// statements is returned to the model. Code runs in the workspace
// directory so generated charts land next to the documents.
type PythonREPL struct {
	Interpreter string
	Timeout     time.Duration
	Dir         string
}

type PythonOption func(*PythonREPL)

// WithPythonInterpreter sets the interpreter binary.
func WithPythonInterpreter(path string) PythonOption {
	return func(p *PythonREPL) {
		if path != "" {
			p.Interpreter = path
		}
	}
}

// WithPythonTimeout limits how long a snippet may run.
func WithPythonTimeout(d time.Duration) PythonOption {
	return func(p *PythonREPL) {
		if d > 0 {
			p.Timeout = d
		}
	}
}

// NewPythonREPL creates a python_repl_tool running in ws.
func NewPythonREPL(ws *Workspace, opts ...PythonOption) *PythonREPL {
	p := &PythonREPL{
		Interpreter: "python3",
		Timeout:     30 * time.Second,
		Dir:         ws.Root(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *PythonREPL) Name() string { return "python_repl_tool" }

func (p *PythonREPL) Description() string {
	return "Use this to execute python code. If you want to see the output of a value, " +
		"you should print it out with `print(...)`. This is visible to the user."
}

func (p *PythonREPL) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"code": map[string]any{
				"type":        "string",
				"description": "The python code to execute to generate your chart.",
			},
		},
		"required": []string{"code"},
	}
}

// Call runs the code. Failures of the code itself are reported in the
// result so the model can correct them.
func (p *PythonREPL) Call(ctx context.Context, input string) (string, error) {
	var args struct {
		Code string `json:"code"`
	}
	if err := decodeArgs(input, &args); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Interpreter, "-c", args.Code)
	cmd.Dir = p.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			msg = fmt.Sprintf("execution timed out after %s", p.Timeout)
		case msg == "":
			msg = err.Error()
		}
		return "Failed to execute. Error: " + msg, nil
	}

	return fmt.Sprintf("Successfully executed:\n```python\n%s\n```\nStdout: %s\n\nIf you have completed all tasks, respond with FINAL ANSWER.",
		args.Code, strings.TrimRight(stdout.String(), "\n")), nil
}
