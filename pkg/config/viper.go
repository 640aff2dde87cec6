package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/worstcase/pkg/dotdir"
)

// EnvPrefix prefixes environment overrides, e.g. WCA_POLICY_HISTORY_SIZE.
const EnvPrefix = "WCA"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the WCA_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (WCA_POLICY_HISTORY_SIZE, WCA_STORAGE_SQLITE_PATH, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes the effective configuration.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Analysis: AnalysisConfig{
			MeasuredMethods: listValue(v, "analysis.measured_methods"),
			SymbolicMethods: listValue(v, "analysis.symbolic_methods"),
			CostModel:       v.GetString("analysis.cost_model"),
		},
		Policy: PolicyConfig{
			Generator:   v.GetString("policy.generator"),
			HistorySize: v.GetUint("policy.history_size"),
			Adaptive:    v.GetBool("policy.adaptive"),
			Unify:       v.GetBool("policy.unify"),
			Serialize:   v.GetBool("policy.serialize"),
		},
		Storage: StorageConfig{
			SQLitePath: v.GetString("storage.sqlite_path"),
		},
		Visualize: VisualizeConfig{
			OutputPath: v.GetString("visualize.output_path"),
			ShowCosts:  v.GetBool("visualize.show_costs"),
		},
	}
}

// listValue reads a list key that may come from TOML arrays, repeated
// flags or comma separated environment values.
func listValue(v *viper.Viper, key string) []string {
	var out []string
	for _, item := range v.GetStringSlice(key) {
		out = append(out, SplitList(item)...)
	}
	return out
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Analysis
	v.SetDefault("analysis.measured_methods", d.Analysis.MeasuredMethods)
	v.SetDefault("analysis.symbolic_methods", d.Analysis.SymbolicMethods)
	v.SetDefault("analysis.cost_model", d.Analysis.CostModel)

	// Policy
	v.SetDefault("policy.generator", d.Policy.Generator)
	v.SetDefault("policy.history_size", d.Policy.HistorySize)
	v.SetDefault("policy.adaptive", d.Policy.Adaptive)
	v.SetDefault("policy.unify", d.Policy.Unify)
	v.SetDefault("policy.serialize", d.Policy.Serialize)

	// Storage
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)

	// Visualize
	v.SetDefault("visualize.output_path", d.Visualize.OutputPath)
	v.SetDefault("visualize.show_costs", d.Visualize.ShowCosts)
}
