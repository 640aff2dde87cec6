package policycmder

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/worstcase/pkg/cliui"
	"github.com/papercomputeco/worstcase/pkg/policy"
	"github.com/papercomputeco/worstcase/pkg/storage"
)

const mergeLongDesc string = `Unify stored policies into one.

The observations of every source policy are pooled into dst. When dst
already exists it takes part in the unification. Sources are left
untouched. Every key takes part once, however often it is named. Only
policies of the same kind can be merged.

Examples:
  wca policy merge sort sort-small sort-medium`

func newMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <dst> <src>...",
		Short: "Unify stored policies",
		Long:  mergeLongDesc,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			driver, log, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer driver.Close()

			dst, srcs := args[0], uniqueSources(args[0], args[1:])
			if len(srcs) == 0 {
				return fmt.Errorf("nothing to merge into %s", dst)
			}

			var pols []policy.Policy
			existing, err := policy.Load(ctx, driver, dst)
			var notFound storage.NotFoundError
			switch {
			case errors.As(err, &notFound):
				log.Debug("merge destination does not exist yet", "key", dst)
			case err != nil:
				return err
			default:
				pols = append(pols, existing)
			}

			for _, key := range srcs {
				p, err := policy.Load(ctx, driver, key)
				if err != nil {
					return err
				}
				pols = append(pols, p)
			}

			unified, err := policy.Unify(pols...)
			var unifyErr policy.UnificationError
			if errors.As(err, &unifyErr) {
				return fmt.Errorf("merging into %s: %w", dst, err)
			}
			if err != nil {
				return err
			}

			if err := policy.Save(ctx, driver, dst, unified); err != nil {
				return fmt.Errorf("saving %s: %w", dst, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "  %s Merged %d policies into %s (history %d)\n",
				cliui.SuccessMark, len(pols), cliui.KeyStyle.Render(dst), unified.MaxHistorySize())
			return nil
		},
	}
}

// uniqueSources drops repeated keys and dst itself, keeping the first
// occurrence of each.
func uniqueSources(dst string, keys []string) []string {
	seen := map[string]bool{dst: true}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
