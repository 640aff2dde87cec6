package policycmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/worstcase/pkg/export"
	"github.com/papercomputeco/worstcase/pkg/policy"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <key>",
		Short: "Dump a stored policy",
		Long: `Dump a stored policy.

Prints the policy kind, history bound and content digest, followed by the
history trie: one line per window with the choice counts seen after it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer driver.Close()

			pol, err := policy.Load(cmd.Context(), driver, args[0])
			if err != nil {
				return err
			}
			return export.WritePolicy(cmd.OutOrStdout(), pol)
		},
	}
}
