// Package path models a finished exploration path: the ordered branch
// decisions taken from the start state to a terminal state, together with the
// frozen cost of that path.
package path

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/papercomputeco/worstcase/pkg/cost"
)

// Branch identifies a choice instruction by the method it lives in and its
// instruction offset.
type Branch struct {
	Method string `json:"method"`
	Offset int    `json:"offset"`
}

func (b Branch) String() string {
	return fmt.Sprintf("%s@%d", b.Method, b.Offset)
}

// Compare orders branches by method, then offset.
func (b Branch) Compare(other Branch) int {
	if c := strings.Compare(b.Method, other.Method); c != 0 {
		return c
	}
	return cmp.Compare(b.Offset, other.Offset)
}

// Decision is a branch together with the alternative selected there.
type Decision struct {
	Branch Branch `json:"branch"`
	Choice int    `json:"choice"`
}

func (d Decision) String() string {
	return fmt.Sprintf("%s:%d", d.Branch, d.Choice)
}

// ParseDecision parses the String form of a decision, "method@offset:choice".
func ParseDecision(s string) (Decision, error) {
	colon := strings.LastIndexByte(s, ':')
	if colon < 0 {
		return Decision{}, fmt.Errorf("decision %q: missing choice", s)
	}
	at := strings.LastIndexByte(s[:colon], '@')
	if at <= 0 {
		return Decision{}, fmt.Errorf("decision %q: missing method@offset", s)
	}

	offset, err := strconv.Atoi(s[at+1 : colon])
	if err != nil {
		return Decision{}, fmt.Errorf("decision %q: bad offset: %w", s, err)
	}
	choice, err := strconv.Atoi(s[colon+1:])
	if err != nil {
		return Decision{}, fmt.Errorf("decision %q: bad choice: %w", s, err)
	}

	return Decision{
		Branch: Branch{Method: s[:at], Offset: offset},
		Choice: choice,
	}, nil
}

// Compare orders decisions by branch, then choice.
func (d Decision) Compare(other Decision) int {
	if c := d.Branch.Compare(other.Branch); c != 0 {
		return c
	}
	return cmp.Compare(d.Choice, other.Choice)
}

// History is a window of decisions, oldest first.
type History []Decision

// Last returns the most recent k decisions of h. A negative k returns h.
func (h History) Last(k int) History {
	if k < 0 || len(h) <= k {
		return h
	}
	return h[len(h)-k:]
}

func (h History) String() string {
	parts := make([]string, len(h))
	for i, d := range h {
		parts[i] = d.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Path is an immutable sequence of decisions terminated by a frozen cost.
type Path struct {
	decisions []Decision
	state     cost.State
}

// New creates a path. The decisions are copied.
func New(decisions []Decision, state cost.State) *Path {
	return &Path{
		decisions: slices.Clone(decisions),
		state:     state,
	}
}

// Len returns the number of decisions.
func (p *Path) Len() int {
	return len(p.decisions)
}

// At returns the i-th decision.
func (p *Path) At(i int) Decision {
	return p.decisions[i]
}

// Decisions returns a copy of the decision sequence.
func (p *Path) Decisions() []Decision {
	return slices.Clone(p.decisions)
}

// State returns the frozen cost.
func (p *Path) State() cost.State {
	return p.state
}

// Cost returns the frozen scalar cost.
func (p *Path) Cost() int64 {
	return p.state.Cost
}

// Constraint returns the path condition, which may be nil.
func (p *Path) Constraint() cost.Constraint {
	return p.state.Constraint
}

// History returns up to k decisions immediately preceding position i,
// oldest first. The returned slice must not be modified.
func (p *Path) History(i, k int) History {
	start := max(i-k, 0)
	return History(p.decisions[start:i])
}

// Compare imposes a total order on paths. A nil path is smaller than any
// path. Paths are ordered by cost; equal costs are ordered by length, then
// lexicographically by decision.
func (p *Path) Compare(other *Path) int {
	return Compare(p, other)
}

// Compare is the nil-safe form of (*Path).Compare.
func Compare(a, b *Path) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if c := a.state.Compare(b.state); c != 0 {
		return c
	}
	if c := cmp.Compare(len(a.decisions), len(b.decisions)); c != 0 {
		return c
	}
	return slices.CompareFunc(a.decisions, b.decisions, Decision.Compare)
}

func (p *Path) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "cost: %s\n", p.state)
	fmt.Fprintf(&sb, "decisions: %d\n", len(p.decisions))
	for i, d := range p.decisions {
		fmt.Fprintf(&sb, "  %3d  %s\n", i, d)
	}
	return sb.String()
}

// SimpleMethodName reduces a qualified method signature such as
// "pkg.Sorter.sort(I[I)V" to its simple name "sort".
func SimpleMethodName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
