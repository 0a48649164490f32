package hooks

import (
	"context"

	"github.com/bosun-deploy/bosun/pkg/engine"
)

// Environment variables set for every hook command, alongside the upper-cased
// provisioner outputs.
const (
	// EnvDeployment carries the deployment name.
	EnvDeployment = "BOSUN_DEPLOYMENT"

	// EnvComponent carries the slash-separated component path.
	EnvComponent = "BOSUN_COMPONENT"

	// EnvPhase carries the phase being executed.
	EnvPhase = "BOSUN_PHASE"

	// EnvNoCache is set to 1 when the run requested a cache-less build.
	EnvNoCache = "BOSUN_NO_CACHE"
)

// Command adapts a shell command line into an engine hook. The command runs
// in the component's directory with the invocation context and any
// provisioner outputs exported as environment variables.
func Command(runner *Runner, command string) engine.HookFunc {
	return func(ctx context.Context, inv engine.Invocation) error {
		env := []string{
			EnvDeployment + "=" + inv.Deployment,
			EnvComponent + "=" + inv.Component,
			EnvPhase + "=" + string(inv.Phase),
		}
		if inv.NoCache {
			env = append(env, EnvNoCache+"=1")
		}
		env = append(env, inv.Outputs.Environ()...)

		return runner.Run(ctx, Spec{
			Command: command,
			Dir:     inv.Path,
			Env:     env,
		})
	}
}
