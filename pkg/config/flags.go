package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline, so the same logical flag
// reads the same on "wca analyze" and "wca policy merge".
type Flag struct {
	// Name is the long flag name (e.g. "history-size").
	Name string

	// Shorthand is the one-letter short flag (e.g. "k"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "policy.history_size").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling the Add*Flag helpers and
// BindRegisteredFlags to avoid drift from one command to another.
const (
	FlagMeasured    = "measured"
	FlagSymbolic    = "symbolic"
	FlagCostModel   = "cost-model"
	FlagGenerator   = "generator"
	FlagHistorySize = "history-size"
	FlagAdaptive    = "adaptive"
	FlagUnify       = "unify"
	FlagSerialize   = "serialize"
	FlagSQLite      = "sqlite"
	FlagOutput      = "output"
	FlagShowCosts   = "show-costs"
)

// Flags is the registry shared by all wca commands.
var Flags = FlagSet{
	FlagMeasured: {
		Name:        "measured",
		Shorthand:   "m",
		ViperKey:    "analysis.measured_methods",
		Description: "Methods whose execution is costed (comma separated)",
	},
	FlagSymbolic: {
		Name:        "symbolic",
		ViperKey:    "analysis.symbolic_methods",
		Description: "Methods driven with symbolic input (comma separated)",
	},
	FlagCostModel: {
		Name:        "cost-model",
		Shorthand:   "c",
		ViperKey:    "analysis.cost_model",
		Description: "Cost model (depth, instructions, weighted)",
	},
	FlagGenerator: {
		Name:        "generator",
		ViperKey:    "policy.generator",
		Description: "Policy generator",
	},
	FlagHistorySize: {
		Name:        "history-size",
		Shorthand:   "k",
		ViperKey:    "policy.history_size",
		Description: "Branch history window of generated policies",
	},
	FlagAdaptive: {
		Name:        "adaptive",
		ViperKey:    "policy.adaptive",
		Description: "Fall back to shorter histories on lookup",
	},
	FlagUnify: {
		Name:        "unify",
		ViperKey:    "policy.unify",
		Description: "Unify the new policy with the stored one before saving",
	},
	FlagSerialize: {
		Name:        "serialize",
		ViperKey:    "policy.serialize",
		Description: "Save the generated policy",
	},
	FlagSQLite: {
		Name:        "sqlite",
		Shorthand:   "s",
		ViperKey:    "storage.sqlite_path",
		Description: "Path to the SQLite policy store (default: in-memory)",
	},
	FlagOutput: {
		Name:        "output",
		Shorthand:   "o",
		ViperKey:    "visualize.output_path",
		Description: "Directory receiving the worst-case path export",
	},
	FlagShowCosts: {
		Name:        "show-costs",
		ViperKey:    "visualize.show_costs",
		Description: "Annotate exported decisions with their accumulated cost",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaults().GetString(def.ViperKey), def.Description)
}

// AddStringSliceFlag registers a string slice flag on cmd from the given FlagSet.
func AddStringSliceFlag(cmd *cobra.Command, fs FlagSet, key string, target *[]string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	cmd.Flags().StringSliceVarP(target, def.Name, def.Shorthand, defaults().GetStringSlice(def.ViperKey), def.Description)
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, key string, target *uint) {
	def, ok := fs[key]
	if !ok {
		return
	}

	cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaults().GetUint(def.ViperKey), def.Description)
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, key string, target *bool) {
	def, ok := fs[key]
	if !ok {
		return
	}

	cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaults().GetBool(def.ViperKey), def.Description)
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaults returns a viper holding only NewDefaultConfig values.
func defaults() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}
