package policy

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/papercomputeco/worstcase/pkg/path"
	"github.com/papercomputeco/worstcase/pkg/trie"
)

const (
	// GeneratorHistory learns a history trie from the worst-case path.
	GeneratorHistory = "history"

	// DefaultGenerator is used when no generator is configured.
	DefaultGenerator = GeneratorHistory
)

// Generator derives a policy from a finished worst-case path.
type Generator interface {
	// Generate learns a policy from the decisions of p taken inside the
	// target methods. An empty target set keeps every decision.
	Generate(targets []string, p *path.Path) (Policy, error)
}

// GeneratorOptions configures generators created by NewGenerator.
type GeneratorOptions struct {
	// HistorySize is the window length. Zero learns a single distribution.
	HistorySize int

	// Adaptive lets lookups fall back to shorter suffixes.
	Adaptive bool
}

var generators = map[string]func(GeneratorOptions) Generator{
	GeneratorHistory: func(o GeneratorOptions) Generator {
		return &HistoryGenerator{HistorySize: o.HistorySize, Adaptive: o.Adaptive}
	},
}

// NewGenerator returns the named generator. An empty name selects
// DefaultGenerator.
func NewGenerator(name string, opts GeneratorOptions) (Generator, error) {
	if name == "" {
		name = DefaultGenerator
	}
	if opts.HistorySize < 0 {
		return nil, fmt.Errorf("history size must be non-negative, got %d", opts.HistorySize)
	}

	f, ok := generators[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown policy generator %q (available: %s)", name, strings.Join(Generators(), ", "))
	}
	return f(opts), nil
}

// Generators returns the registered generator names in sorted order.
func Generators() []string {
	names := make([]string, 0, len(generators))
	for name := range generators {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// HistoryGenerator inserts every (window, choice) observation of a path into
// a fresh history trie.
type HistoryGenerator struct {
	HistorySize int
	Adaptive    bool
}

func (g *HistoryGenerator) Generate(targets []string, p *path.Path) (Policy, error) {
	if p == nil {
		return nil, errors.New("cannot generate a policy without a worst-case path")
	}

	b := trie.NewBuilder(g.HistorySize)
	b.PutPath(restrict(p, targets))
	return NewHistoryPolicy(b.Build(g.Adaptive)), nil
}

// restrict keeps the decisions whose branch lies in one of the targets,
// compared by simple method name.
func restrict(p *path.Path, targets []string) *path.Path {
	if len(targets) == 0 {
		return p
	}

	want := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		want[path.SimpleMethodName(t)] = struct{}{}
	}

	kept := make([]path.Decision, 0, p.Len())
	for _, d := range p.Decisions() {
		if _, ok := want[path.SimpleMethodName(d.Branch.Method)]; ok {
			kept = append(kept, d)
		}
	}
	if len(kept) == p.Len() {
		return p
	}
	return path.New(kept, p.State())
}
