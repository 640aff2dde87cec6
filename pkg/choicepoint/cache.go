// Package choicepoint caches, per choice point, the cost accumulator and
// decision trail as they stood when the choice point was first reached.
//
// A depth-first engine backtracks to earlier choice points and re-executes
// from there. Restoring the cached baseline on every revisit makes the final
// cost of a path depend only on the decisions taken, never on the order in
// which the engine visited them.
package choicepoint

import (
	"log/slog"
	"slices"

	"github.com/papercomputeco/worstcase/pkg/cost"
	"github.com/papercomputeco/worstcase/pkg/path"
)

// ID is the engine-assigned identity of a choice point. It is stable across
// revisits of the same search node.
type ID uint64

// Frame is the call context enclosing a choice point.
type Frame struct {
	Method string `json:"method"`
	Offset int    `json:"offset"`
}

// State is the lifecycle state of a choice point.
type State int

const (
	Unvisited State = iota
	Baseline
	Resolved
)

func (s State) String() string {
	switch s {
	case Baseline:
		return "baseline"
	case Resolved:
		return "resolved"
	default:
		return "unvisited"
	}
}

// Context is the baseline recorded for a choice point on first visit.
type Context struct {
	ID     ID
	Caller Frame

	snapshot cost.Accumulator
	trail    []path.Decision
	lineage  []ID
	state    State
}

// Accumulator returns a fresh copy of the cached baseline accumulator.
// Updates to the returned value never reach the cache.
func (c *Context) Accumulator() cost.Accumulator {
	return c.snapshot.Copy()
}

// Value returns the cached baseline cost.
func (c *Context) Value() int64 {
	return c.snapshot.Value()
}

// Trail returns a copy of the decisions taken before this choice point.
func (c *Context) Trail() []path.Decision {
	return slices.Clone(c.trail)
}

// Lineage returns a copy of the choice points passed before this one.
func (c *Context) Lineage() []ID {
	return slices.Clone(c.lineage)
}

// State returns the lifecycle state.
func (c *Context) State() State {
	return c.state
}

// Cache maps choice point identities to their baselines. Entries live for
// the whole run.
//
// Thread Safety: not safe for concurrent use. The exploration drives the
// cache from a single thread.
type Cache struct {
	entries map[ID]*Context
	logger  *slog.Logger

	hits   uint64
	misses uint64
}

// NewCache creates an empty cache.
func NewCache(logger *slog.Logger) *Cache {
	return &Cache{
		entries: make(map[ID]*Context),
		logger:  logger,
	}
}

// Get returns the context for id, if one was added.
func (c *Cache) Get(id ID) (*Context, bool) {
	ctx, ok := c.entries[id]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return ctx, ok
}

// Peek returns the context for id without touching the hit counters.
func (c *Cache) Peek(id ID) (*Context, bool) {
	ctx, ok := c.entries[id]
	return ctx, ok
}

// Add records the baseline for a newly reached choice point. The accumulator,
// trail and lineage are copied. Adding an id that is already cached is a
// no-op: the first baseline is kept and false is returned.
func (c *Cache) Add(id ID, caller Frame, acc cost.Accumulator, trail []path.Decision, lineage []ID) bool {
	if _, ok := c.entries[id]; ok {
		c.logger.Debug("choice point already cached, keeping first baseline",
			"choice_point", uint64(id),
		)
		return false
	}

	c.entries[id] = &Context{
		ID:       id,
		Caller:   caller,
		snapshot: acc.Copy(),
		trail:    slices.Clone(trail),
		lineage:  slices.Clone(lineage),
		state:    Baseline,
	}
	return true
}

// Resolve marks the given choice points as resolved. Resolved entries keep
// their baseline and are still restored on revisit.
func (c *Cache) Resolve(ids ...ID) {
	for _, id := range ids {
		if ctx, ok := c.entries[id]; ok {
			ctx.state = Resolved
		}
	}
}

// State returns the lifecycle state of id.
func (c *Cache) State(id ID) State {
	if ctx, ok := c.entries[id]; ok {
		return ctx.state
	}
	return Unvisited
}

// Len returns the number of cached choice points.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Hits returns how many lookups found a cached baseline.
func (c *Cache) Hits() uint64 {
	return c.hits
}

// Misses returns how many lookups found nothing.
func (c *Cache) Misses() uint64 {
	return c.misses
}
