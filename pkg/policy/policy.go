// Package policy turns worst-case paths into branch policies: read-only
// summaries of which alternative was favored after a given window of branch
// history.
package policy

import (
	"errors"
	"fmt"

	"github.com/papercomputeco/worstcase/pkg/path"
	"github.com/papercomputeco/worstcase/pkg/trie"
)

// KindHistory is the kind of policies backed by a history trie.
const KindHistory = "history"

// Policy answers which alternatives are favored after a history window.
// Policies are immutable once built and safe to share.
type Policy interface {
	// Kind names the policy family. Only policies of the same kind unify.
	Kind() string

	// Resolve returns every favored alternative after history, or an empty
	// result if the history was never observed.
	Resolve(history path.History) []int

	// CountsForChoice returns how often choice was observed overall.
	CountsForChoice(choice int) int

	// MaxHistorySize returns the window bound used for lookups.
	MaxHistorySize() int
}

// UnificationError is returned when policies of different kinds are unified.
type UnificationError struct {
	// Kind is the offending policy kind.
	Kind string

	// Want is the kind unification was attempted for.
	Want string
}

func (e UnificationError) Error() string {
	return fmt.Sprintf("cannot unify branch policy of kind %q with %q", e.Kind, e.Want)
}

// HistoryPolicy is a Policy backed by a history trie.
type HistoryPolicy struct {
	store *trie.Store
}

// NewHistoryPolicy wraps a built store.
func NewHistoryPolicy(store *trie.Store) *HistoryPolicy {
	return &HistoryPolicy{store: store}
}

func (p *HistoryPolicy) Kind() string {
	return KindHistory
}

func (p *HistoryPolicy) Resolve(history path.History) []int {
	return p.store.Choices(history)
}

// Counts returns the choice distribution after history.
func (p *HistoryPolicy) Counts(history path.History) map[int]int {
	return p.store.Counts(history)
}

func (p *HistoryPolicy) CountsForChoice(choice int) int {
	return p.store.CountsForChoice(choice)
}

func (p *HistoryPolicy) MaxHistorySize() int {
	return p.store.MaxHistoryLength()
}

// Adaptive reports whether unseen histories fall back to shorter suffixes.
func (p *HistoryPolicy) Adaptive() bool {
	return p.store.Adaptive()
}

// Observations returns the number of recorded branch observations.
func (p *HistoryPolicy) Observations() int {
	return p.store.Observations()
}

// Digest returns the content digest of the underlying trie.
func (p *HistoryPolicy) Digest() (string, error) {
	return p.store.Digest()
}

func (p *HistoryPolicy) String() string {
	return p.store.String()
}

// Unify pools the observations of the given policies into a new policy.
// The inputs are never modified. All policies must be history policies;
// otherwise an UnificationError naming the first offending kind is returned.
// The result is adaptive if any input is.
func Unify(policies ...Policy) (Policy, error) {
	if len(policies) == 0 {
		return nil, errors.New("no policies to unify")
	}

	b := trie.NewBuilder(0)
	adaptive := false
	for _, p := range policies {
		hp, ok := p.(*HistoryPolicy)
		if !ok {
			return nil, UnificationError{Kind: kindOf(p), Want: KindHistory}
		}
		if hp == nil || hp.store == nil {
			return nil, UnificationError{Kind: "<nil>", Want: KindHistory}
		}
		b.AddStore(hp.store)
		adaptive = adaptive || hp.store.Adaptive()
	}

	return NewHistoryPolicy(b.Build(adaptive)), nil
}

func kindOf(p Policy) string {
	if p == nil {
		return "<nil>"
	}
	return p.Kind()
}
