package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bosun-deploy/bosun/pkg/declaration"
)

func newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List declared deployments and their component trees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return setupError(err)
			}
			f, err := rt.loader.Load(declFile)
			if err != nil {
				return setupError(err)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(f)
			}

			for _, d := range f.Deployments {
				fmt.Fprintf(out, "%s (root module: %s)\n", d.Name, d.RootModule)
				printComponents(out, d.Components, 1)
			}
			return nil
		},
	}

	return cmd
}

func printComponents(out io.Writer, components []*declaration.ComponentDecl, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, c := range components {
		phases := orderedPhases(c.Phases)
		fmt.Fprintf(out, "%s%s [%s] (%s)\n", indent, c.Name, strings.Join(phases, ","), c.Path)
		printComponents(out, c.Components, depth+1)
	}
}

// orderedPhases returns the declared phase names in canonical lifecycle
// order so listings are deterministic.
func orderedPhases(declared map[string]string) []string {
	var out []string
	for _, p := range []string{"build", "package", "apply", "deploy", "undeploy"} {
		if _, ok := declared[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
