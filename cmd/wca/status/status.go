// Package statuscmder provides the status command, which shows the summary
// of the last analysis run.
package statuscmder

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/worstcase/pkg/cliui"
	"github.com/papercomputeco/worstcase/pkg/dotdir"
	"github.com/papercomputeco/worstcase/pkg/utils"
)

const statusLongDesc string = `Show the last analysis run.

Reads last_run.json from the .wca/ directory (or ~/.wca/) and prints the
worst-case cost, the policy key and whether the policy was saved or
unified. Use --clear to forget the recorded run.

Examples:
  wca status
  wca status --clear`

const statusShortDesc string = "Show the last analysis run"

func NewStatusCmd() *cobra.Command {
	var clearRun bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			if clearRun {
				return dotdir.NewManager().ClearLastRun(configDir)
			}
			return runStatus(cmd.OutOrStdout(), configDir)
		},
	}

	cmd.Flags().BoolVar(&clearRun, "clear", false, "Forget the recorded run")

	return cmd
}

func runStatus(w io.Writer, configDir string) error {
	state, err := dotdir.NewManager().LoadLastRun(configDir)
	if err != nil {
		return fmt.Errorf("loading last run: %w", err)
	}

	if state == nil {
		fmt.Fprintf(w, "  %s No analysis recorded. Run wca analyze first.\n", cliui.DimStyle.Render("●"))
		return nil
	}

	const width = 11
	fmt.Fprintln(w)
	fmt.Fprintln(w, cliui.KeyValue("Run", width, cliui.HashStyle.Render(state.RunID)))
	fmt.Fprintln(w, cliui.KeyValue("Finished", width, state.FinishedAt.Local().Format("2006-01-02 15:04:05")))
	fmt.Fprintln(w, cliui.KeyValue("Worst case", width,
		cliui.CostStyle.Render(fmt.Sprintf("%s=%d", state.Model, state.Cost))+
			" ("+strconv.Itoa(state.Decisions)+" decisions)"))

	policy := state.PolicyKey
	switch {
	case state.Saved && state.Unified:
		policy += " (unified and saved)"
	case state.Saved:
		policy += " (saved)"
	default:
		policy += " (not saved)"
	}
	fmt.Fprintln(w, cliui.KeyValue("Policy", width, policy))

	if state.PathFile != "" {
		fmt.Fprintln(w, cliui.KeyValue("Path export", width, state.PathFile))
	}
	for _, f := range state.Failures {
		fmt.Fprintf(w, "  %s %s\n", cliui.WarnMark, utils.Truncate(f, 96))
	}
	fmt.Fprintln(w)

	return nil
}
