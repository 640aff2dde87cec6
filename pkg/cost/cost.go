// Package cost builds the per-path cost of an exploration incrementally from
// low-level execution events.
//
// An Accumulator is path scoped: the exploration engine copies it at every
// choice point so that all branches leaving that point start counting from
// the same baseline. Costs only ever grow along a path.
package cost

import (
	"cmp"
	"fmt"
)

// EventKind identifies the kind of a low-level execution event.
type EventKind string

const (
	// EventInstruction is emitted for every instruction executed inside a
	// measured call.
	EventInstruction EventKind = "instruction"

	// EventChoice is emitted when the engine advances a choice point.
	EventChoice EventKind = "choice"
)

// Event is a single low-level execution event forwarded by the engine.
type Event struct {
	Kind EventKind `json:"kind"`

	// Method is the method that executed the instruction.
	Method string `json:"method,omitempty"`

	// Opcode is the mnemonic of the executed instruction.
	Opcode string `json:"opcode,omitempty"`

	// Weight is the cost of the instruction under the weighted model.
	// Non-positive weights count as a single unit.
	Weight int64 `json:"weight,omitempty"`

	// FirstStep marks the first execution of an instruction that created a
	// choice point; the engine re-executes it once per alternative.
	FirstStep bool `json:"first_step,omitempty"`
}

// Constraint is the symbolic path condition of a finished path.
type Constraint interface {
	String() string
}

// TextConstraint is a Constraint carried as its rendered form.
type TextConstraint string

func (t TextConstraint) String() string {
	return string(t)
}

// State is the immutable cost of a finished path.
type State struct {
	// Model names the accumulator that produced this state.
	Model string `json:"model"`

	// Cost is the accumulated, monotone cost.
	Cost int64 `json:"cost"`

	// Constraint is the path condition at termination. May be nil.
	Constraint Constraint `json:"-"`
}

// Compare orders states by cost.
func (s State) Compare(other State) int {
	return cmp.Compare(s.Cost, other.Cost)
}

func (s State) String() string {
	if s.Constraint == nil {
		return fmt.Sprintf("%s=%d", s.Model, s.Cost)
	}
	return fmt.Sprintf("%s=%d pc=%s", s.Model, s.Cost, s.Constraint.String())
}

// Accumulator incrementally builds the cost of the path currently being
// explored.
type Accumulator interface {
	// Update folds a single execution event into the accumulated cost.
	Update(ev Event)

	// Copy returns an independent accumulator holding the same value.
	Copy() Accumulator

	// Freeze snapshots the accumulated cost together with the path
	// condition. The accumulator remains usable afterwards.
	Freeze(constraint Constraint) State

	// Value returns the accumulated cost so far.
	Value() int64
}
