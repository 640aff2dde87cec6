package policycmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/worstcase/pkg/cliui"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a stored policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer driver.Close()

			if err := driver.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s Deleted %s\n", cliui.SuccessMark, cliui.KeyStyle.Render(args[0]))
			return nil
		},
	}
}
