package cost

import (
	"fmt"
	"slices"
	"strings"
)

const (
	// ModelDepth counts choice points advanced along the path.
	ModelDepth = "depth"

	// ModelInstructions counts instructions executed in measured calls.
	ModelInstructions = "instructions"

	// ModelWeighted sums per-instruction weights.
	ModelWeighted = "weighted"

	// DefaultModel is used when no model is configured.
	DefaultModel = ModelDepth
)

// Factory creates a zeroed Accumulator.
type Factory func() Accumulator

var models = map[string]Factory{
	ModelDepth:        func() Accumulator { return &counter{model: ModelDepth, kind: EventChoice} },
	ModelInstructions: func() Accumulator { return &counter{model: ModelInstructions, kind: EventInstruction} },
	ModelWeighted:     func() Accumulator { return &weighted{} },
}

// New returns a zeroed accumulator for the named model. An empty name
// selects DefaultModel.
func New(name string) (Accumulator, error) {
	if name == "" {
		name = DefaultModel
	}

	f, ok := models[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown cost model %q (available: %s)", name, strings.Join(Models(), ", "))
	}

	return f(), nil
}

// Models returns the registered model names in sorted order.
func Models() []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// counter counts events of a single kind.
type counter struct {
	model string
	kind  EventKind
	n     int64
}

func (c *counter) Update(ev Event) {
	if ev.Kind == c.kind {
		c.n++
	}
}

func (c *counter) Copy() Accumulator {
	cp := *c
	return &cp
}

func (c *counter) Freeze(constraint Constraint) State {
	return State{Model: c.model, Cost: c.n, Constraint: constraint}
}

func (c *counter) Value() int64 {
	return c.n
}

// weighted sums instruction weights.
type weighted struct {
	total int64
}

func (w *weighted) Update(ev Event) {
	if ev.Kind != EventInstruction {
		return
	}
	if ev.Weight <= 0 {
		w.total++
		return
	}
	w.total += ev.Weight
}

func (w *weighted) Copy() Accumulator {
	cp := *w
	return &cp
}

func (w *weighted) Freeze(constraint Constraint) State {
	return State{Model: ModelWeighted, Cost: w.total, Constraint: constraint}
}

func (w *weighted) Value() int64 {
	return w.total
}
