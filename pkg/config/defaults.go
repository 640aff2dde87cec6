package config

import (
	"github.com/papercomputeco/worstcase/pkg/cost"
	"github.com/papercomputeco/worstcase/pkg/policy"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Analysis: AnalysisConfig{
			CostModel: cost.DefaultModel,
		},
		Policy: PolicyConfig{
			Generator:   policy.DefaultGenerator,
			HistorySize: 0,
			Serialize:   true,
		},
	}
}
