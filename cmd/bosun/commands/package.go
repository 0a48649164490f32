package commands

import (
	"github.com/spf13/cobra"

	"github.com/bosun-deploy/bosun/pkg/engine"
)

func newPackageCommand() *cobra.Command {
	var (
		component string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "package <deployment>",
		Short: "Package built artifacts for deployment",
		Long: `Package runs every component's package hook in post-order, the same
order as build.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(cmd, engine.PhasePackage, args[0], engine.Options{
				Component: component,
				NoCache:   noCache,
			})
		},
	}

	cmd.Flags().StringVarP(&component, "component", "c", "", "restrict the run to this component subtree (slash-separated path)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "ask hooks to bypass packaging caches")

	return cmd
}
