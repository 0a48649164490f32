package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bosun-deploy/bosun/pkg/engine"
	"github.com/bosun-deploy/bosun/pkg/policy"
	"github.com/bosun-deploy/bosun/pkg/telemetry"
)

func newDestroyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "destroy <deployment>",
		Short: "Destroy the deployment's root module",
		Long: `Destroy tears the root module down without touching components. Use
"undeploy --destroy-root" to run component undeploy hooks first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := newRuntime()
			if err != nil {
				return setupError(err)
			}
			d, err := rt.loadDeployment(args[0])
			if err != nil {
				return setupError(err)
			}

			if rt.policies != nil {
				input := policy.BuildInput(d, engine.PhaseUndeploy, engine.Options{DestroyRoot: true})
				decision, checkErr := rt.policies.Check(ctx, input)
				if decision != nil {
					zlog := rt.logger.Zerolog()
					for _, v := range decision.Violations {
						zlog.Warn().
							Str("policy", v.Policy).Str("severity", string(v.Severity)).
							Msg(v.Message)
					}
				}
				if checkErr != nil {
					return setupError(checkErr)
				}
			}

			spanCtx, span := rt.tracer.StartProvisionerSpan(ctx, "destroy", d.RootModule)
			start := time.Now()
			destroyErr := rt.provisioner.DestroyRoot(spanCtx, d.RootModule)
			elapsed := time.Since(start)

			status := "succeeded"
			if destroyErr != nil {
				status = "failed"
				telemetry.RecordError(span, destroyErr)
			} else {
				telemetry.RecordSuccess(span)
			}
			span.End()
			rt.metrics.RecordProvisionerCall("destroy", status, elapsed)

			if destroyErr != nil {
				ee := engine.NewExecutionError("root module destroy failed", destroyErr)
				rt.metrics.RecordError(string(ee.Class), ee.Code)
				fmt.Fprintf(cmd.OutOrStdout(), "destroy %s: failed: %v\n", d.RootModule, destroyErr)
				return &ExitError{Code: 1, Err: destroyErr}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "destroy %s: succeeded (%s)\n",
				d.RootModule, elapsed.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().BoolVar(&autoApprove, "auto-approve", true, "pass -auto-approve to the provisioner")

	return cmd
}
