// Package hooks runs component phase logic as shell commands. Each component
// declares at most one command per phase; the runner executes it through the
// shell in the component's directory with the run's context in the
// environment.
package hooks

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"github.com/bosun-deploy/bosun/pkg/engine"
)

// DefaultShell is used when no shell is configured.
const DefaultShell = "/bin/sh"

// Spec describes one command execution.
type Spec struct {
	// Command is the shell command line to run.
	Command string

	// Dir is the working directory, empty for the process working directory.
	Dir string

	// Env are extra KEY=value pairs appended to the process environment.
	Env []string
}

// Runner executes shell commands for component hooks.
type Runner struct {
	shell  string
	logger zerolog.Logger
	stdout io.Writer
	stderr io.Writer
}

// NewRunner creates a runner using the default shell with output forwarded to
// the process's stdout and stderr.
func NewRunner(logger zerolog.Logger) *Runner {
	return &Runner{
		shell:  DefaultShell,
		logger: logger,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// WithShell overrides the shell binary and returns the runner for chaining.
func (r *Runner) WithShell(shell string) *Runner {
	if shell != "" {
		r.shell = shell
	}
	return r
}

// WithOutput redirects command output and returns the runner for chaining.
func (r *Runner) WithOutput(stdout, stderr io.Writer) *Runner {
	r.stdout = stdout
	r.stderr = stderr
	return r
}

// Run executes the spec's command through the shell and waits for it to
// finish. A non-zero exit is returned as an execution-class error.
func (r *Runner) Run(ctx context.Context, spec Spec) error {
	if spec.Command == "" {
		return engine.NewConfigError("command is required", nil).
			WithCode(engine.ErrCodeValidation)
	}

	cmd := exec.CommandContext(ctx, r.shell, "-c", spec.Command)
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), spec.Env...)
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	r.logger.Debug().
		Str("command", spec.Command).
		Str("dir", spec.Dir).
		Msg("Running hook command")

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return engine.NewExecutionError("command cancelled", ctx.Err()).
				WithCode(engine.ErrCodeCancelled)
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return engine.NewExecutionError(
				fmt.Sprintf("command exited with status %d", exitErr.ExitCode()), err).
				WithCode(engine.ErrCodeHookFailed)
		}
		return engine.NewExecutionError("failed to start command", err).
			WithCode(engine.ErrCodeHookFailed)
	}

	r.logger.Debug().
		Str("command", spec.Command).
		Dur("duration", duration).
		Msg("Hook command completed")
	return nil
}
