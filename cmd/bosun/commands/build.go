package commands

import (
	"github.com/spf13/cobra"

	"github.com/bosun-deploy/bosun/pkg/engine"
)

func newBuildCommand() *cobra.Command {
	var (
		component string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "build <deployment>",
		Short: "Build component artifacts",
		Long: `Build runs every component's build hook in post-order: children are
built before their parents so parent artifacts can aggregate child output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(cmd, engine.PhaseBuild, args[0], engine.Options{
				Component: component,
				NoCache:   noCache,
			})
		},
	}

	cmd.Flags().StringVarP(&component, "component", "c", "", "restrict the run to this component subtree (slash-separated path)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "ask hooks to bypass build caches")

	return cmd
}
