package commands

import (
	"github.com/spf13/cobra"

	"github.com/bosun-deploy/bosun/pkg/engine"
)

func newApplyCommand() *cobra.Command {
	var (
		component string
		skipWait  bool
	)

	cmd := &cobra.Command{
		Use:   "apply <deployment>",
		Short: "Provision infrastructure and configure components",
		Long: `Apply provisions the deployment's root module first, then runs every
component's apply hook in pre-order with the root module's outputs in the
environment. When the deployment declares an apply wait, the run pauses
between provisioning and the component hooks to let infrastructure settle.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(cmd, engine.PhaseApply, args[0], engine.Options{
				Component: component,
				SkipWait:  skipWait,
			})
		},
	}

	cmd.Flags().StringVarP(&component, "component", "c", "", "restrict the run to this component subtree (slash-separated path)")
	cmd.Flags().BoolVar(&skipWait, "skip-wait", false, "skip the declared post-provision wait")
	cmd.Flags().BoolVar(&autoApprove, "auto-approve", true, "pass -auto-approve to the provisioner")

	return cmd
}
