package commands

import (
	"github.com/spf13/cobra"

	"github.com/bosun-deploy/bosun/pkg/engine"
)

func newUndeployCommand() *cobra.Command {
	var (
		component   string
		destroyRoot bool
	)

	cmd := &cobra.Command{
		Use:   "undeploy <deployment>",
		Short: "Tear component software down",
		Long: `Undeploy runs every component's undeploy hook in the exact reverse of
deploy order. With --destroy-root the root module is destroyed afterwards,
but only when every undeploy step completed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(cmd, engine.PhaseUndeploy, args[0], engine.Options{
				Component:   component,
				DestroyRoot: destroyRoot,
			})
		},
	}

	cmd.Flags().StringVarP(&component, "component", "c", "", "restrict the run to this component subtree (slash-separated path)")
	cmd.Flags().BoolVar(&destroyRoot, "destroy-root", false, "destroy the root module after undeploying")
	cmd.Flags().BoolVar(&autoApprove, "auto-approve", true, "pass -auto-approve to the provisioner")

	return cmd
}
