package analysis

import (
	"errors"
	"log/slog"
	"slices"

	"github.com/papercomputeco/worstcase/pkg/path"
	"github.com/papercomputeco/worstcase/pkg/storage"
)

// ErrNoTargets is returned when neither measured nor symbolic methods are
// configured.
var ErrNoTargets = errors.New("must set either measured methods or symbolic methods")

// Config is the explicit configuration of a Listener.
type Config struct {
	// MeasuredMethods are the calls whose execution is costed. Defaults to
	// SymbolicMethods when empty.
	MeasuredMethods []string

	// SymbolicMethods are the calls driven with symbolic input. Defaults to
	// MeasuredMethods when empty.
	SymbolicMethods []string

	// CostModel names the accumulator strategy, see cost.Models.
	CostModel string

	// Generator names the policy generator, see policy.Generators.
	Generator string

	// HistorySize is the history window length of generated policies.
	HistorySize int

	// Adaptive enables suffix fallback in generated policies.
	Adaptive bool

	// Serialize saves the generated policy to Storage.
	Serialize bool

	// Unify merges the generated policy with the one already stored under
	// the same key before saving.
	Unify bool

	// OutputDir receives the worst-case path export. Empty disables it.
	OutputDir string

	// ShowCosts annotates each exported decision with its accumulated cost.
	ShowCosts bool

	// Storage persists policies. Defaults to an in-memory driver.
	Storage storage.Driver

	Logger *slog.Logger
}

// targets returns the simple, sorted and deduplicated names of the
// measured and symbolic methods.
func (c *Config) targets() (measured, symbolic []string, err error) {
	measured = simpleNames(c.MeasuredMethods)
	symbolic = simpleNames(c.SymbolicMethods)

	switch {
	case len(measured) == 0 && len(symbolic) == 0:
		return nil, nil, ErrNoTargets
	case len(measured) == 0:
		measured = symbolic
	case len(symbolic) == 0:
		symbolic = measured
	}
	return measured, symbolic, nil
}

func simpleNames(methods []string) []string {
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		if name := path.SimpleMethodName(m); name != "" {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
