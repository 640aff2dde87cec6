// Package trace records and replays the callbacks an exploring engine
// makes into an analysis.Listener, one JSON object per line. A recorded
// trace lets an analysis run offline, without the engine.
package trace

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/papercomputeco/worstcase/pkg/analysis"
	"github.com/papercomputeco/worstcase/pkg/cost"
)

// RecordType identifies a trace line.
type RecordType string

const (
	TypeInstruction    RecordType = "instruction"
	TypeChoice         RecordType = "choice"
	TypeEnd            RecordType = "end"
	TypeException      RecordType = "exception"
	TypeConstraint     RecordType = "constraint"
	TypeSearchFinished RecordType = "search_finished"
)

// Record is one line of a trace.
type Record struct {
	Type RecordType `json:"type"`

	// Stack is the engine's call stack for instruction records.
	Stack []string    `json:"stack,omitempty"`
	Event *cost.Event `json:"event,omitempty"`

	Choice *analysis.ChoicePoint `json:"choice,omitempty"`

	// End and ErrorState qualify constraint records.
	End        bool `json:"end,omitempty"`
	ErrorState bool `json:"error_state,omitempty"`

	// Constraint is the path condition for path-ending records.
	Constraint string `json:"constraint,omitempty"`
}

// Sink receives replayed callbacks. *analysis.Listener implements it.
type Sink interface {
	InstructionExecuted(stack []string, ev cost.Event)
	ChoiceAdvanced(cp analysis.ChoicePoint)
	StateAdvanced(end bool, constraint cost.Constraint)
	ExceptionThrown(constraint cost.Constraint)
	SearchConstraintHit(end, errorState bool, constraint cost.Constraint)
}

var _ Sink = (*analysis.Listener)(nil)

// Tee returns a Sink that forwards every callback to each of sinks in order.
func Tee(sinks ...Sink) Sink {
	return tee(sinks)
}

type tee []Sink

func (t tee) InstructionExecuted(stack []string, ev cost.Event) {
	for _, s := range t {
		s.InstructionExecuted(stack, ev)
	}
}

func (t tee) ChoiceAdvanced(cp analysis.ChoicePoint) {
	for _, s := range t {
		s.ChoiceAdvanced(cp)
	}
}

func (t tee) StateAdvanced(end bool, constraint cost.Constraint) {
	for _, s := range t {
		s.StateAdvanced(end, constraint)
	}
}

func (t tee) ExceptionThrown(constraint cost.Constraint) {
	for _, s := range t {
		s.ExceptionThrown(constraint)
	}
}

func (t tee) SearchConstraintHit(end, errorState bool, constraint cost.Constraint) {
	for _, s := range t {
		s.SearchConstraintHit(end, errorState, constraint)
	}
}

// Summary describes a replayed trace.
type Summary struct {
	Records int
	// Finished reports whether a search_finished record was reached.
	Finished bool
}

// maxLine bounds a single trace line.
const maxLine = 4 * 1024 * 1024

// Replay reads records from r and forwards them to sink until EOF or a
// search_finished record. Malformed lines abort the replay with an error
// naming the line.
func Replay(ctx context.Context, r io.Reader, sink Sink) (Summary, error) {
	var sum Summary

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return sum, fmt.Errorf("trace line %d: %w", line, err)
		}
		if err := dispatch(&rec, sink); err != nil {
			return sum, fmt.Errorf("trace line %d: %w", line, err)
		}
		sum.Records++

		if rec.Type == TypeSearchFinished {
			sum.Finished = true
			return sum, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return sum, fmt.Errorf("reading trace: %w", err)
	}
	return sum, nil
}

func dispatch(rec *Record, sink Sink) error {
	constraint := toConstraint(rec.Constraint)

	switch rec.Type {
	case TypeInstruction:
		if rec.Event == nil {
			return errors.New("instruction record without event")
		}
		sink.InstructionExecuted(rec.Stack, *rec.Event)
	case TypeChoice:
		if rec.Choice == nil {
			return errors.New("choice record without choice point")
		}
		sink.ChoiceAdvanced(*rec.Choice)
	case TypeEnd:
		sink.StateAdvanced(true, constraint)
	case TypeException:
		sink.ExceptionThrown(constraint)
	case TypeConstraint:
		sink.SearchConstraintHit(rec.End, rec.ErrorState, constraint)
	case TypeSearchFinished:
	default:
		return fmt.Errorf("unknown record type %q", rec.Type)
	}
	return nil
}

func toConstraint(s string) cost.Constraint {
	if s == "" {
		return nil
	}
	return cost.TextConstraint(s)
}

func fromConstraint(c cost.Constraint) string {
	if c == nil {
		return ""
	}
	return c.String()
}

// Writer records callbacks as a trace. It implements Sink, so it can sit
// between an engine and a listener or replace the listener entirely.
type Writer struct {
	mu  sync.Mutex
	enc *json.Encoder
	err error
}

var _ Sink = (*Writer)(nil)

// NewWriter returns a Writer appending records to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

func (w *Writer) write(rec Record) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return
	}
	w.err = w.enc.Encode(rec)
}

func (w *Writer) InstructionExecuted(stack []string, ev cost.Event) {
	w.write(Record{Type: TypeInstruction, Stack: stack, Event: &ev})
}

func (w *Writer) ChoiceAdvanced(cp analysis.ChoicePoint) {
	w.write(Record{Type: TypeChoice, Choice: &cp})
}

// StateAdvanced records only end states; intermediate states carry no
// information for the analysis.
func (w *Writer) StateAdvanced(end bool, constraint cost.Constraint) {
	if end {
		w.write(Record{Type: TypeEnd, Constraint: fromConstraint(constraint)})
	}
}

func (w *Writer) ExceptionThrown(constraint cost.Constraint) {
	w.write(Record{Type: TypeException, Constraint: fromConstraint(constraint)})
}

func (w *Writer) SearchConstraintHit(end, errorState bool, constraint cost.Constraint) {
	w.write(Record{
		Type:       TypeConstraint,
		End:        end,
		ErrorState: errorState,
		Constraint: fromConstraint(constraint),
	})
}

// SearchFinished terminates the trace and returns the first write error.
func (w *Writer) SearchFinished() error {
	w.write(Record{Type: TypeSearchFinished})

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}
