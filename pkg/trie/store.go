// Package trie stores branch-choice statistics keyed by bounded windows of
// branch history.
//
// A Builder records observations of the form "after this window of
// decisions, this alternative was chosen" and can overlay other stores,
// summing their counts. Build freezes the result into a read-only Store
// whose lookups walk at most MaxHistoryLength levels.
package trie

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/papercomputeco/worstcase/pkg/path"
)

// Store is an immutable history trie. It is safe for concurrent readers.
type Store struct {
	root       *node
	maxHistory int
	adaptive   bool
	nodes      int
}

// Choices returns every alternative observed after history, in ascending
// order. History longer than MaxHistoryLength is truncated to its most
// recent decisions. An unseen history yields an empty result, unless the
// store is adaptive, in which case the longest observed suffix is used.
func (s *Store) Choices(history path.History) []int {
	counts := s.lookup(history)
	choices := make([]int, 0, len(counts))
	for choice, n := range counts {
		if n > 0 {
			choices = append(choices, choice)
		}
	}
	slices.Sort(choices)
	return choices
}

// Counts returns the choice distribution used to answer Choices.
func (s *Store) Counts(history path.History) map[int]int {
	return maps.Clone(s.lookup(history))
}

// CountsForChoice returns how often choice was observed, regardless of
// history.
func (s *Store) CountsForChoice(choice int) int {
	return s.root.counts[choice]
}

// MaxHistoryLength returns the window bound.
func (s *Store) MaxHistoryLength() int {
	return s.maxHistory
}

// Adaptive reports whether lookups fall back to shorter suffixes.
func (s *Store) Adaptive() bool {
	return s.adaptive
}

// Size returns the number of trie nodes, including the root.
func (s *Store) Size() int {
	return s.nodes
}

// Observations returns the total number of recorded observations.
func (s *Store) Observations() int {
	total := 0
	for _, n := range s.root.counts {
		total += n
	}
	return total
}

func (s *Store) lookup(history path.History) map[int]int {
	w := history.Last(s.maxHistory)

	// Saturated observations above the final node come from merged stores
	// with a shorter bound; their window is a suffix of w, so they match.
	var matched map[int]int
	n := s.root
	depth := 0
	for i := len(w) - 1; i >= 0; i-- {
		c := n.child(w[i])
		if c == nil {
			break
		}
		matched = sum(matched, n.saturated)
		n = c
		depth++
	}

	switch {
	case depth == len(w) && len(n.ended) > 0:
		return sum(matched, n.ended)
	case s.adaptive:
		return sum(matched, n.counts)
	default:
		return sum(matched, n.saturated)
	}
}

// Walk visits every node depth first in canonical order. The window passed
// to fn is oldest first, and the maps must not be modified. Returning false
// stops the walk.
func (s *Store) Walk(fn func(window path.History, counts, ended map[int]int) bool) {
	walk(s.root, nil, fn)
}

func walk(n *node, rev []path.Decision, fn func(path.History, map[int]int, map[int]int) bool) bool {
	window := slices.Clone(rev)
	slices.Reverse(window)
	if !fn(window, n.counts, n.ended) {
		return false
	}
	for _, d := range n.sortedKeys() {
		if !walk(n.children[d], append(rev, d), fn) {
			return false
		}
	}
	return true
}

func (s *Store) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "history trie: max history %d, adaptive %t, %d nodes, %d observations\n",
		s.maxHistory, s.adaptive, s.nodes, s.Observations())
	dump(&sb, s.root, "*", 0)
	return sb.String()
}

func dump(sb *strings.Builder, n *node, label string, depth int) {
	fmt.Fprintf(sb, "%s%s %s", strings.Repeat("  ", depth), label, formatCounts(n.counts))
	if len(n.ended) > 0 {
		fmt.Fprintf(sb, " ended %s", formatCounts(n.ended))
	}
	sb.WriteByte('\n')
	for _, d := range n.sortedKeys() {
		dump(sb, n.children[d], d.String(), depth+1)
	}
}

func formatCounts(counts map[int]int) string {
	choices := slices.Sorted(maps.Keys(counts))
	parts := make([]string, len(choices))
	for i, c := range choices {
		parts[i] = fmt.Sprintf("%d:%d", c, counts[c])
	}
	return "{" + strings.Join(parts, " ") + "}"
}
