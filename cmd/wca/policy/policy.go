// Package policycmder provides the policy command and its subcommands for
// working with branch policies in the policy database.
package policycmder

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/worstcase/cmd/wca/sqlitepath"
	"github.com/papercomputeco/worstcase/pkg/config"
	"github.com/papercomputeco/worstcase/pkg/logger"
	"github.com/papercomputeco/worstcase/pkg/storage"
)

const policyLongDesc string = `Work with learned branch policies.

Policies are stored in the SQLite policy database, keyed by the measured
methods they were learned for. The database is located with --sqlite,
storage.sqlite_path in config.toml, or .wca/policies.db.

Examples:
  wca policy list
  wca policy inspect sort
  wca policy resolve sort sort@12:0 sort@12:1
  wca policy merge sort sort-small sort-medium
  wca policy delete sort-small`

const policyShortDesc string = "Work with learned branch policies"

func NewPolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: policyShortDesc,
		Long:  policyLongDesc,
	}

	for _, sub := range []*cobra.Command{
		newListCmd(),
		newInspectCmd(),
		newResolveCmd(),
		newMergeCmd(),
		newDeleteCmd(),
	} {
		var sqlitePath string
		config.AddStringFlag(sub, config.Flags, config.FlagSQLite, &sqlitePath)
		cmd.AddCommand(sub)
	}

	return cmd
}

// openStore opens the policy database configured for cmd. The database
// must exist; policy commands never fall back to memory.
func openStore(cmd *cobra.Command) (storage.Driver, *slog.Logger, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	configDir, _ := cmd.Flags().GetString("config-dir")

	log := logger.New(logger.WithDebug(debug), logger.WithPretty(true), logger.WithWriter(cmd.ErrOrStderr()))

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, nil, err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagSQLite})

	driver, err := sqlitepath.Open(v.GetString("storage.sqlite_path"), configDir, true, log)
	if err != nil {
		return nil, nil, err
	}
	return driver, log, nil
}
