// Package wcacmder
package wcacmder

import (
	"github.com/spf13/cobra"

	versioncmder "github.com/papercomputeco/worstcase/cmd/version"
	analyzecmder "github.com/papercomputeco/worstcase/cmd/wca/analyze"
	configcmder "github.com/papercomputeco/worstcase/cmd/wca/config"
	initcmder "github.com/papercomputeco/worstcase/cmd/wca/init"
	policycmder "github.com/papercomputeco/worstcase/cmd/wca/policy"
	statuscmder "github.com/papercomputeco/worstcase/cmd/wca/status"
)

const wcaLongDesc string = `wca finds worst-case inputs with symbolic execution guidance.

A search engine explores the measured methods and reports every execution
event. wca costs each explored path, keeps the most expensive one and learns
a branch policy from it: a history-indexed table of the choices the worst
case made, used to steer later, larger explorations straight to it.

Run an analysis and work with learned policies using:
  wca analyze --trace run.jsonl   Analyze a recorded event trace
  wca policy list                 List stored policies
  wca policy inspect <key>        Dump a stored policy
  wca policy merge <dst> <src>... Unify stored policies
  wca status                      Show the last analysis run`

const wcaShortDesc string = "wca - worst-case complexity analysis"

func NewWcaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "wca",
		Short:         wcaShortDesc,
		Long:          wcaLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .wca/ directory")

	// Add subcommands
	cmd.AddCommand(analyzecmder.NewAnalyzeCmd())
	cmd.AddCommand(policycmder.NewPolicyCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
