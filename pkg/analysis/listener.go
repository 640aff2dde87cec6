// Package analysis connects an exploring search engine to the worst-case
// machinery. The engine pushes execution events into a Listener, which
// costs each path, keeps the worst one and turns it into a policy when the
// search finishes.
package analysis

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/papercomputeco/worstcase/pkg/choicepoint"
	"github.com/papercomputeco/worstcase/pkg/cost"
	"github.com/papercomputeco/worstcase/pkg/logger"
	"github.com/papercomputeco/worstcase/pkg/path"
	"github.com/papercomputeco/worstcase/pkg/policy"
	"github.com/papercomputeco/worstcase/pkg/storage/inmemory"
	"github.com/papercomputeco/worstcase/pkg/tracker"
)

// ChoicePoint is a branch the engine advanced, together with the choice it
// is about to explore.
type ChoicePoint struct {
	ID       choicepoint.ID    `json:"id"`
	Caller   choicepoint.Frame `json:"caller"`
	Decision path.Decision     `json:"decision"`
}

// Stats are counters collected over one search.
type Stats struct {
	NewChoices      int    `json:"new_choices"`
	Revisits        int    `json:"revisits"`
	Instructions    int    `json:"instructions"`
	SkippedEvents   int    `json:"skipped_events"`
	PathsFinished   int    `json:"paths_finished"`
	Replacements    int    `json:"replacements"`
	CacheHits       uint64 `json:"cache_hits"`
	CacheMisses     uint64 `json:"cache_misses"`
	CachedBaselines int    `json:"cached_baselines"`
}

// Listener receives the engine's callbacks. It is not safe for concurrent
// use: the engine drives it from its single exploration thread.
type Listener struct {
	cfg      Config
	logger   *slog.Logger
	measured []string
	symbolic []string
	inStack  map[string]struct{}

	generator policy.Generator
	cache     *choicepoint.Cache
	tracker   *tracker.Tracker

	acc     cost.Accumulator
	trail   []path.Decision
	lineage []choicepoint.ID

	// costs holds the accumulated cost at each decision of the champion
	costs []int64
	stats Stats
}

// NewListener validates cfg and returns a listener ready for a search.
func NewListener(cfg Config) (*Listener, error) {
	measured, symbolic, err := cfg.targets()
	if err != nil {
		return nil, err
	}

	acc, err := cost.New(cfg.CostModel)
	if err != nil {
		return nil, err
	}

	if cfg.HistorySize < 0 {
		return nil, fmt.Errorf("history size must not be negative: %d", cfg.HistorySize)
	}
	gen, err := policy.NewGenerator(cfg.Generator, policy.GeneratorOptions{
		HistorySize: cfg.HistorySize,
		Adaptive:    cfg.Adaptive,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.Storage == nil {
		cfg.Storage = inmemory.NewDriver()
	}

	inStack := make(map[string]struct{}, len(measured))
	for _, m := range measured {
		inStack[m] = struct{}{}
	}

	l := &Listener{
		cfg:       cfg,
		logger:    cfg.Logger,
		measured:  measured,
		symbolic:  symbolic,
		inStack:   inStack,
		generator: gen,
		cache:     choicepoint.NewCache(cfg.Logger),
		tracker:   tracker.New(),
		acc:       acc,
	}

	l.logger.Info("worst-case analysis configured",
		"measured", strings.Join(measured, ","),
		"symbolic", strings.Join(symbolic, ","),
		"cost_model", acc.Freeze(nil).Model,
		"history_size", cfg.HistorySize,
		"adaptive", cfg.Adaptive,
	)
	return l, nil
}

// InstructionExecuted costs ev when one of the frames in stack is a
// measured method. First-step re-executions of a choice instruction are
// skipped so that backtracking does not count them twice.
func (l *Listener) InstructionExecuted(stack []string, ev cost.Event) {
	if ev.FirstStep || !l.inMeasuredStack(stack) {
		l.stats.SkippedEvents++
		return
	}
	if ev.Kind == "" {
		ev.Kind = cost.EventInstruction
	}

	l.stats.Instructions++
	l.acc.Update(ev)
}

func (l *Listener) inMeasuredStack(stack []string) bool {
	for _, frame := range stack {
		if _, ok := l.inStack[path.SimpleMethodName(frame)]; ok {
			return true
		}
	}
	return false
}

// ChoiceAdvanced records that the engine takes cp.Decision at choice point
// cp.ID. On first visit the current cost and decision trail become the
// choice point's baseline. On any later visit (the engine backtracked to
// try another alternative) the baseline is restored first, so the live
// state reflects only the decisions leading to this choice.
func (l *Listener) ChoiceAdvanced(cp ChoicePoint) {
	if ctx, ok := l.cache.Get(cp.ID); ok {
		l.stats.Revisits++
		l.acc = ctx.Accumulator()
		l.trail = ctx.Trail()
		l.lineage = ctx.Lineage()
		l.logger.Debug("restored choice point baseline",
			"choice_point", uint64(cp.ID),
			"cost", l.acc.Value(),
			"decision", cp.Decision.String(),
		)
	} else {
		l.cache.Add(cp.ID, cp.Caller, l.acc, l.trail, l.lineage)
		l.stats.NewChoices++
	}

	l.acc.Update(cost.Event{
		Kind:   cost.EventChoice,
		Method: cp.Decision.Branch.Method,
	})
	l.trail = append(l.trail, cp.Decision)
	l.lineage = append(l.lineage, cp.ID)
}

// StateAdvanced finishes the current path when the engine reached an end
// state.
func (l *Listener) StateAdvanced(end bool, constraint cost.Constraint) {
	if end {
		l.PathFinished(constraint)
	}
}

// ExceptionThrown finishes the current path.
func (l *Listener) ExceptionThrown(constraint cost.Constraint) {
	l.PathFinished(constraint)
}

// SearchConstraintHit finishes the current path when the engine cut the
// search short, unless the state is already an end or error state (those
// are reported through StateAdvanced).
func (l *Listener) SearchConstraintHit(end, errorState bool, constraint cost.Constraint) {
	if !end && !errorState {
		l.PathFinished(constraint)
	}
}

// PathFinished freezes the current path and offers it to the tracker. It
// reports whether the path became the new champion.
func (l *Listener) PathFinished(constraint cost.Constraint) bool {
	p := path.New(l.trail, l.acc.Freeze(constraint))
	l.cache.Resolve(l.lineage...)
	l.stats.PathsFinished++

	if !l.tracker.Consider(p) {
		return false
	}

	l.stats.Replacements++
	l.costs = l.baselineCosts()
	l.logger.Debug("new worst-case path",
		"cost", p.Cost(),
		"decisions", p.Len(),
	)
	return true
}

func (l *Listener) baselineCosts() []int64 {
	costs := make([]int64, len(l.lineage))
	for i, id := range l.lineage {
		if ctx, ok := l.cache.Peek(id); ok {
			costs[i] = ctx.Value()
		}
	}
	return costs
}

// Champion returns the worst path seen so far, or nil.
func (l *Listener) Champion() *path.Path {
	return l.tracker.Current()
}

// Cache exposes the choice point baselines.
func (l *Listener) Cache() *choicepoint.Cache {
	return l.cache
}

// MeasuredMethods returns the simple names of the measured methods.
func (l *Listener) MeasuredMethods() []string {
	return slices.Clone(l.measured)
}

// SymbolicMethods returns the simple names of the symbolic methods.
func (l *Listener) SymbolicMethods() []string {
	return slices.Clone(l.symbolic)
}

// Stats returns the counters collected so far.
func (l *Listener) Stats() Stats {
	s := l.stats
	s.CacheHits = l.cache.Hits()
	s.CacheMisses = l.cache.Misses()
	s.CachedBaselines = l.cache.Len()
	return s
}

// PolicyKey returns the storage key for policies generated for methods.
func PolicyKey(methods []string) string {
	return strings.Join(simpleNames(methods), ",")
}
