// Package process provides the os/exec implementation of domain.ProcessRunner.
package process

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"

	"github.com/MyCarrier-DevOps/icdump-build/internal/domain"
)

// ExecRunner runs commands with os/exec.
// Streamed commands also copy their output to the configured sinks as it is produced.
type ExecRunner struct {
	stdout io.Writer
	stderr io.Writer
}

// NewExecRunner creates a runner that streams to the process's stderr.
// Build tool output never goes to stdout, which carries only machine-readable results.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{stdout: os.Stderr, stderr: os.Stderr}
}

// NewExecRunnerWithOutput creates a runner with custom stream sinks.
// This is useful for testing.
func NewExecRunnerWithOutput(stdout, stderr io.Writer) *ExecRunner {
	return &ExecRunner{stdout: stdout, stderr: stderr}
}

// Run executes the command and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, cmd domain.Command) (*domain.ProcessResult, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env

	var stdout, stderr bytes.Buffer
	if cmd.Stream {
		c.Stdout = io.MultiWriter(&stdout, r.stdout)
		c.Stderr = io.MultiWriter(&stderr, r.stderr)
	} else {
		c.Stdout = &stdout
		c.Stderr = &stderr
	}

	err := c.Run()
	result := &domain.ProcessResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return result, nil
	case errors.As(err, &exitErr) && ctx.Err() == nil:
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		return nil, err
	}
}

// LookPath resolves name on PATH.
func (r *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
