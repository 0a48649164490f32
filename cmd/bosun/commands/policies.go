package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newPoliciesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policies",
		Short: "List the policies that gate lifecycle runs",
		Long: `Policies lists every loaded policy: the builtins plus any .rego files
from --policy-dir. Violations of error-severity policies block runs;
lower severities are logged as warnings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return setupError(err)
			}
			if rt.policies == nil {
				return setupError(fmt.Errorf("policy evaluation is disabled (--no-policy)"))
			}

			policies := rt.policies.List()
			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(policies)
			}

			for _, p := range policies {
				state := "enabled"
				if !p.Enabled {
					state = "disabled"
				}
				fmt.Fprintf(out, "%-24s %-8s %-8s %s\n", p.Name, p.Severity, state, p.Description)
			}
			return nil
		},
	}

	return cmd
}
