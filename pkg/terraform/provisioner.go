// Package terraform adapts the terraform CLI as the engine's provisioner.
// Apply and destroy shell out to the binary in the deployment's root module
// directory; outputs are read with `terraform output -json`.
package terraform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bosun-deploy/bosun/pkg/engine"
)

// DefaultBinary is the terraform executable looked up on PATH.
const DefaultBinary = "terraform"

// Provisioner shells out to the terraform CLI. It implements
// engine.Provisioner.
type Provisioner struct {
	binary      string
	autoApprove bool
	logger      zerolog.Logger
	stdout      io.Writer
	stderr      io.Writer
}

// New creates a provisioner using the default binary with auto-approve
// enabled and output forwarded to the process's stdout and stderr.
func New(logger zerolog.Logger) *Provisioner {
	return &Provisioner{
		binary:      DefaultBinary,
		autoApprove: true,
		logger:      logger,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
	}
}

// WithBinary overrides the terraform executable and returns the provisioner
// for chaining.
func (p *Provisioner) WithBinary(binary string) *Provisioner {
	if binary != "" {
		p.binary = binary
	}
	return p
}

// WithAutoApprove toggles -auto-approve on apply and destroy and returns the
// provisioner for chaining. Disabling it makes terraform prompt
// interactively.
func (p *Provisioner) WithAutoApprove(autoApprove bool) *Provisioner {
	p.autoApprove = autoApprove
	return p
}

// WithOutput redirects terraform's output and returns the provisioner for
// chaining.
func (p *Provisioner) WithOutput(stdout, stderr io.Writer) *Provisioner {
	p.stdout = stdout
	p.stderr = stderr
	return p
}

// ApplyRoot runs terraform apply in the root module directory and returns
// the module's outputs.
func (p *Provisioner) ApplyRoot(ctx context.Context, rootModule string) (engine.Outputs, error) {
	if err := checkDir(rootModule); err != nil {
		return nil, err
	}

	args := []string{"apply"}
	if p.autoApprove {
		args = append(args, "-auto-approve")
	}
	p.logger.Info().Str("root_module", rootModule).Msg("Applying root module")
	if err := p.run(ctx, rootModule, args...); err != nil {
		return nil, err
	}
	return p.OutputsRoot(ctx, rootModule)
}

// DestroyRoot runs terraform destroy in the root module directory.
func (p *Provisioner) DestroyRoot(ctx context.Context, rootModule string) error {
	if err := checkDir(rootModule); err != nil {
		return err
	}

	args := []string{"destroy"}
	if p.autoApprove {
		args = append(args, "-auto-approve")
	}
	p.logger.Info().Str("root_module", rootModule).Msg("Destroying root module")
	return p.run(ctx, rootModule, args...)
}

// OutputsRoot reads the root module's outputs without touching
// infrastructure.
func (p *Provisioner) OutputsRoot(ctx context.Context, rootModule string) (engine.Outputs, error) {
	if err := checkDir(rootModule); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, p.binary, "output", "-json")
	cmd.Dir = rootModule
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, commandError(p.binary, "output", err, stderr.String())
	}

	var outputs engine.Outputs
	if err := json.Unmarshal(stdout.Bytes(), &outputs); err != nil {
		return nil, engine.NewExecutionError("failed to parse terraform outputs", err).
			WithCode(engine.ErrCodeProvisionerFailed)
	}
	p.logger.Debug().Int("outputs", len(outputs)).Str("root_module", rootModule).
		Msg("Read root module outputs")
	return outputs, nil
}

// run executes one terraform subcommand with output streaming.
func (p *Provisioner) run(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, p.binary, args...)
	cmd.Dir = dir
	cmd.Stdout = p.stdout
	cmd.Stderr = p.stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)
	if err != nil {
		return commandError(p.binary, args[0], err, "")
	}

	p.logger.Debug().
		Str("subcommand", args[0]).
		Str("dir", dir).
		Dur("duration", duration).
		Msg("Terraform command completed")
	return nil
}

// checkDir verifies the root module directory exists before any call.
func checkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return engine.NewConfigError(
			fmt.Sprintf("root module directory %q not found", dir), err).
			WithCode(engine.ErrCodeMissingPath)
	}
	if !info.IsDir() {
		return engine.NewConfigError(
			fmt.Sprintf("root module path %q is not a directory", dir), nil).
			WithCode(engine.ErrCodeMissingPath)
	}
	return nil
}

// commandError wraps a terraform invocation failure with the subcommand and
// any captured diagnostics.
func commandError(binary, subcommand string, err error, stderr string) error {
	msg := fmt.Sprintf("%s %s failed", binary, subcommand)
	if s := strings.TrimSpace(stderr); s != "" {
		msg = fmt.Sprintf("%s: %s", msg, s)
	}
	return engine.NewExecutionError(msg, err).
		WithCode(engine.ErrCodeProvisionerFailed)
}
