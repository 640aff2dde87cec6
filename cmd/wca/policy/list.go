package policycmder

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/worstcase/pkg/cliui"
	"github.com/papercomputeco/worstcase/pkg/storage"
	"github.com/papercomputeco/worstcase/pkg/utils"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored policies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			driver, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer driver.Close()

			recs, err := driver.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing policies: %w", err)
			}
			printList(cmd.OutOrStdout(), recs)
			return nil
		},
	}
}

func printList(w io.Writer, recs []*storage.Record) {
	if len(recs) == 0 {
		fmt.Fprintf(w, "  %s No policies stored.\n", cliui.DimStyle.Render("●"))
		return
	}

	width := 0
	for _, r := range recs {
		width = max(width, len(r.Key))
	}

	fmt.Fprintln(w)
	for _, r := range recs {
		fmt.Fprintf(w, "  %s  %s  %s  %s  %s\n",
			cliui.KeyStyle.Render(fmt.Sprintf("%-*s", width, r.Key)),
			cliui.HashStyle.Render(utils.ShortDigest(r.Digest)),
			cliui.ValueStyle.Render(r.Kind),
			cliui.DimStyle.Render("k="+strconv.Itoa(r.MaxHistory)+" obs="+strconv.Itoa(r.Observations)),
			cliui.DimStyle.Render(r.UpdatedAt.Local().Format("2006-01-02 15:04")),
		)
	}
	fmt.Fprintln(w)
}
