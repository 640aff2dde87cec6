package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent wca configuration stored as config.toml
// in the .wca/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	Analysis  AnalysisConfig  `toml:"analysis"`
	Policy    PolicyConfig    `toml:"policy"`
	Storage   StorageConfig   `toml:"storage"`
	Visualize VisualizeConfig `toml:"visualize"`
}

// AnalysisConfig selects what is measured and how it is costed.
type AnalysisConfig struct {
	MeasuredMethods []string `toml:"measured_methods,omitempty"`
	SymbolicMethods []string `toml:"symbolic_methods,omitempty"`
	CostModel       string   `toml:"cost_model,omitempty"`
}

// PolicyConfig holds policy generation and persistence settings.
type PolicyConfig struct {
	Generator   string `toml:"generator,omitempty"`
	HistorySize uint   `toml:"history_size"`
	Adaptive    bool   `toml:"adaptive"`
	Unify       bool   `toml:"unify"`
	Serialize   bool   `toml:"serialize"`
}

// StorageConfig holds policy storage settings.
type StorageConfig struct {
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// VisualizeConfig holds worst-case path export settings.
type VisualizeConfig struct {
	OutputPath string `toml:"output_path,omitempty"`
	ShowCosts  bool   `toml:"show_costs"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"analysis.measured_methods": {
		get: func(c *Config) string { return strings.Join(c.Analysis.MeasuredMethods, ",") },
		set: func(c *Config, v string) error { c.Analysis.MeasuredMethods = SplitList(v); return nil },
	},
	"analysis.symbolic_methods": {
		get: func(c *Config) string { return strings.Join(c.Analysis.SymbolicMethods, ",") },
		set: func(c *Config, v string) error { c.Analysis.SymbolicMethods = SplitList(v); return nil },
	},
	"analysis.cost_model": {
		get: func(c *Config) string { return c.Analysis.CostModel },
		set: func(c *Config, v string) error { c.Analysis.CostModel = v; return nil },
	},
	"policy.generator": {
		get: func(c *Config) string { return c.Policy.Generator },
		set: func(c *Config, v string) error { c.Policy.Generator = v; return nil },
	},
	"policy.history_size": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Policy.HistorySize), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return fmt.Errorf("invalid value for policy.history_size: %w", err)
			}
			c.Policy.HistorySize = uint(n)
			return nil
		},
	},
	"policy.adaptive": boolKey("policy.adaptive", func(c *Config) *bool { return &c.Policy.Adaptive }),
	"policy.unify":    boolKey("policy.unify", func(c *Config) *bool { return &c.Policy.Unify }),
	"policy.serialize": boolKey("policy.serialize", func(c *Config) *bool {
		return &c.Policy.Serialize
	}),
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"visualize.output_path": {
		get: func(c *Config) string { return c.Visualize.OutputPath },
		set: func(c *Config, v string) error { c.Visualize.OutputPath = v; return nil },
	},
	"visualize.show_costs": boolKey("visualize.show_costs", func(c *Config) *bool {
		return &c.Visualize.ShowCosts
	}),
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
