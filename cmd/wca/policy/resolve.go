package policycmder

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/worstcase/pkg/cliui"
	"github.com/papercomputeco/worstcase/pkg/path"
	"github.com/papercomputeco/worstcase/pkg/policy"
)

const resolveLongDesc string = `Ask a stored policy which choices it favors after a history.

Decisions are given oldest first as method@offset:choice. With no decisions
the empty history is resolved.

Examples:
  wca policy resolve sort
  wca policy resolve sort sort@12:0 sort@12:1`

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <key> [decision...]",
		Short: "Resolve a history against a stored policy",
		Long:  resolveLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			history := make(path.History, 0, len(args)-1)
			for _, arg := range args[1:] {
				d, err := path.ParseDecision(arg)
				if err != nil {
					return err
				}
				history = append(history, d)
			}

			driver, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer driver.Close()

			pol, err := policy.Load(cmd.Context(), driver, args[0])
			if err != nil {
				return err
			}
			printResolution(cmd.OutOrStdout(), pol, history)
			return nil
		},
	}
}

func printResolution(w io.Writer, pol policy.Policy, history path.History) {
	choices := pol.Resolve(history)
	if len(choices) == 0 {
		fmt.Fprintf(w, "%s: no choice observed\n", history)
		return
	}

	strs := make([]string, len(choices))
	for i, c := range choices {
		strs[i] = strconv.Itoa(c)
	}
	fmt.Fprintf(w, "%s: %s\n", history, cliui.ValueStyle.Render(strings.Join(strs, ",")))

	hp, ok := pol.(*policy.HistoryPolicy)
	if !ok {
		return
	}
	counts := hp.Counts(history)
	for _, c := range slices.Sorted(maps.Keys(counts)) {
		fmt.Fprintf(w, "  %s %d\n", cliui.KeyStyle.Render(fmt.Sprintf("choice %d:", c)), counts[c])
	}
}
