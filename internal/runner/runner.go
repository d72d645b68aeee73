package runner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/oshokin/unipack/internal/logger"
)

// outputTailLimit bounds the captured diagnostic output kept in errors.
const outputTailLimit = 4096

// ToolInvocationError reports an external tool that is missing or exited
// with a nonzero status. It is fatal for the owning format job only.
type ToolInvocationError struct {
	// Tool is the invoked executable name.
	Tool string
	// Args are the arguments the tool was invoked with.
	Args []string
	// ExitCode is the tool's exit status, or -1 when it did not run.
	ExitCode int
	// Output is the tail of the tool's combined stdout/stderr.
	Output string
	// err is the underlying execution error.
	err error
}

// Error implements the error interface.
func (e *ToolInvocationError) Error() string {
	if e.ExitCode < 0 {
		return fmt.Sprintf("%s: %v", e.Tool, e.err)
	}

	msg := fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	if e.Output != "" {
		msg += ": " + e.Output
	}

	return msg
}

// Unwrap exposes the underlying execution error.
func (e *ToolInvocationError) Unwrap() error {
	return e.err
}

// Runner abstracts external tool invocation so packagers can be tested
// without the platform tools installed.
type Runner interface {
	// Run invokes the tool and returns its combined output.
	Run(ctx context.Context, tool string, args ...string) (string, error)
	// LookPath reports where the tool is installed, or an error when
	// it is not on PATH.
	LookPath(tool string) (string, error)
}

// ExecRunner runs tools as OS subprocesses.
type ExecRunner struct {
	// Dir is the working directory for invoked tools, empty for inherit.
	Dir string
}

// NewExecRunner creates a subprocess-backed runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run invokes the tool, blocking until it finishes or the context is
// cancelled, and returns its combined stdout/stderr.
func (r *ExecRunner) Run(ctx context.Context, tool string, args ...string) (string, error) {
	logger.DebugKV(ctx, "Invoking external tool", "tool", tool, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Dir = r.Dir

	output, err := cmd.CombinedOutput()
	text := string(output)

	if err == nil {
		return text, nil
	}

	invErr := &ToolInvocationError{
		Tool:     tool,
		Args:     args,
		ExitCode: -1,
		Output:   tail(text),
		err:      err,
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		invErr.ExitCode = exitErr.ExitCode()
	}

	return text, invErr
}

// LookPath reports where the tool is installed.
func (r *ExecRunner) LookPath(tool string) (string, error) {
	path, err := exec.LookPath(tool)
	if err != nil {
		return "", &ToolInvocationError{
			Tool:     tool,
			ExitCode: -1,
			err:      err,
		}
	}

	return path, nil
}

// tail returns the last portion of the captured output, trimmed.
func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= outputTailLimit {
		return s
	}

	return s[len(s)-outputTailLimit:]
}
