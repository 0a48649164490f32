// Package commands implements the bosun CLI surface. Each lifecycle
// operation is a subcommand taking a deployment name; run outcomes map to
// process exit codes (success 0, failed or aborted run 1, setup error 2).
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	targetDir     string
	declFile      string
	verbose       bool
	logFormat     string
	jsonOutput    bool
	policyDir     string
	noPolicy      bool
	metricsListen string
	traceExporter string
	traceEndpoint string
)

// ExitError carries the process exit code for a completed command. The
// underlying condition has already been reported by the time it is returned.
type ExitError struct {
	Code int
	Err  error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// Execute runs the root command.
func Execute(ctx context.Context, version, commit, buildDate string) error {
	cliVersion = version
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bosun",
		Short: "Bosun - declarative deployment lifecycle orchestrator",
		Long: `Bosun drives the build, package, apply, deploy, and undeploy lifecycle of
hierarchical deployments declared in deployments.yml.

Each deployment binds one terraform root module to an ordered tree of
components; components implement phases as shell commands and inherit the
root module's outputs through the environment.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&targetDir, "target", "t", "", "target directory (defaults to $BOSUN_TARGET or .)")
	rootCmd.PersistentFlags().StringVarP(&declFile, "file", "f", "", "declaration file (defaults to deployments.yml in the target)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output reports in JSON format")
	rootCmd.PersistentFlags().StringVar(&policyDir, "policy-dir", "", "directory of additional .rego policies")
	rootCmd.PersistentFlags().BoolVar(&noPolicy, "no-policy", false, "skip policy evaluation")
	rootCmd.PersistentFlags().StringVar(&metricsListen, "metrics-listen", "", "expose Prometheus metrics on this address (e.g. :9090)")
	rootCmd.PersistentFlags().StringVar(&traceExporter, "trace-exporter", "", "trace exporter (otlp, stdout)")
	rootCmd.PersistentFlags().StringVar(&traceEndpoint, "trace-endpoint", "", "OTLP trace endpoint")

	// Add subcommands
	rootCmd.AddCommand(newBuildCommand())
	rootCmd.AddCommand(newPackageCommand())
	rootCmd.AddCommand(newApplyCommand())
	rootCmd.AddCommand(newDeployCommand())
	rootCmd.AddCommand(newUndeployCommand())
	rootCmd.AddCommand(newDestroyCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newPoliciesCommand())

	return rootCmd
}
