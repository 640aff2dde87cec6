// Package configcmder provides the config command, which reads and writes
// .wca/config.toml.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/worstcase/pkg/cliui"
	"github.com/papercomputeco/worstcase/pkg/config"
)

const configLongDesc string = `Manage persistent wca configuration.

config.toml in the .wca/ directory supplies defaults for the analyze and
policy commands. Flags and WCA_* environment variables take precedence.

Keys use dotted notation matching the TOML sections:
  analysis.measured_methods, analysis.symbolic_methods, analysis.cost_model,
  policy.generator, policy.history_size, policy.adaptive, policy.unify,
  policy.serialize, storage.sqlite_path,
  visualize.output_path, visualize.show_costs

Examples:
  wca config set analysis.measured_methods Sort.sort,Sort.merge
  wca config set policy.history_size 2
  wca config get policy.history_size
  wca config list`

const configShortDesc string = "Manage persistent wca configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func checkKey(key string) error {
	if config.IsValidConfigKey(key) {
		return nil
	}
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
		key, strings.Join(config.ValidConfigKeys(), ", "))
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printTarget(w io.Writer, cfger *config.Configer) {
	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n", cliui.KeyStyle.Render("Config file:"), cliui.DimStyle.Render(target))
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No .wca directory found. Using defaults."))
}
