package commands

import (
	"github.com/spf13/cobra"

	"github.com/bosun-deploy/bosun/pkg/engine"
)

func newDeployCommand() *cobra.Command {
	var component string

	cmd := &cobra.Command{
		Use:   "deploy <deployment>",
		Short: "Deploy components onto existing infrastructure",
		Long: `Deploy runs every component's deploy hook in pre-order: parents are
deployed before their children so shared services come up first. Root
module outputs are read and exported into each hook's environment.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(cmd, engine.PhaseDeploy, args[0], engine.Options{
				Component: component,
			})
		},
	}

	cmd.Flags().StringVarP(&component, "component", "c", "", "restrict the run to this component subtree (slash-separated path)")

	return cmd
}
