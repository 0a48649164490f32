package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bosun-deploy/bosun/pkg/declaration"
)

func newValidateCommand() *cobra.Command {
	var (
		checkPaths bool
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the declaration file",
		Long: `Validate parses the declaration file and checks its structure: unique
names, known phases, and schema conformance. With --check-paths every
declared directory must exist under the target; with --watch the file is
revalidated on every change until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return setupError(err)
			}
			out := cmd.OutOrStdout()

			check := func() error {
				f, err := rt.loader.Load(declFile)
				if err != nil {
					return err
				}
				if checkPaths {
					for _, d := range f.Deployments {
						if err := rt.loader.CheckPaths(d); err != nil {
							return err
						}
					}
				}
				fmt.Fprintf(out, "%s: %d deployment(s) valid\n",
					rt.loader.Resolve(declFile), len(f.Deployments))
				return nil
			}

			if !watch {
				if err := check(); err != nil {
					return setupError(err)
				}
				return nil
			}

			if err := check(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "invalid: %v\n", err)
			}
			watchErr := rt.loader.Watch(cmd.Context(), declFile, declaration.DefaultDebounce,
				func(f *declaration.File, loadErr error) {
					if loadErr != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "invalid: %v\n", loadErr)
						return
					}
					if checkPaths {
						for _, d := range f.Deployments {
							if err := rt.loader.CheckPaths(d); err != nil {
								fmt.Fprintf(cmd.ErrOrStderr(), "invalid: %v\n", err)
								return
							}
						}
					}
					fmt.Fprintf(out, "%s: %d deployment(s) valid\n",
						rt.loader.Resolve(declFile), len(f.Deployments))
				})
			if watchErr != nil {
				return setupError(watchErr)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkPaths, "check-paths", false, "require every declared directory to exist")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "revalidate on every file change")

	return cmd
}
