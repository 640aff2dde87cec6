package trie

import (
	"maps"
	"slices"

	"github.com/papercomputeco/worstcase/pkg/path"
)

// node is one level of the history trie. The root stands for the empty
// history; a child at depth d stands for the d most recent decisions, most
// recent nearest the root.
type node struct {
	children map[path.Decision]*node

	// counts holds every observation whose window passes through this node,
	// so it always equals the sum of ended over the subtree.
	counts map[int]int

	// ended holds observations whose window ends exactly at this node.
	ended map[int]int

	// saturated is the part of ended whose window filled the bound of the
	// builder that recorded it. Such an observation also matches every
	// longer history ending in this window, which matters once stores of
	// different bounds are merged.
	saturated map[int]int
}

func newNode() *node {
	return &node{counts: make(map[int]int)}
}

func (n *node) child(d path.Decision) *node {
	if n.children == nil {
		return nil
	}
	return n.children[d]
}

func (n *node) ensureChild(d path.Decision) *node {
	if n.children == nil {
		n.children = make(map[path.Decision]*node)
	}
	c, ok := n.children[d]
	if !ok {
		c = newNode()
		n.children[d] = c
	}
	return c
}

func (n *node) addEnded(choice, count int) {
	if n.ended == nil {
		n.ended = make(map[int]int)
	}
	n.ended[choice] += count
}

func (n *node) addSaturated(choice, count int) {
	if n.saturated == nil {
		n.saturated = make(map[int]int)
	}
	n.saturated[choice] += count
}

// sortedKeys returns the child decisions in canonical order.
func (n *node) sortedKeys() []path.Decision {
	keys := slices.Collect(maps.Keys(n.children))
	slices.SortFunc(keys, path.Decision.Compare)
	return keys
}

func (n *node) clone() *node {
	cp := &node{counts: maps.Clone(n.counts)}
	if n.ended != nil {
		cp.ended = maps.Clone(n.ended)
	}
	if n.saturated != nil {
		cp.saturated = maps.Clone(n.saturated)
	}
	for d, c := range n.children {
		if cp.children == nil {
			cp.children = make(map[path.Decision]*node, len(n.children))
		}
		cp.children[d] = c.clone()
	}
	return cp
}

// merge overlays src onto n, summing counts. Subtrees present only in src
// are copied.
func (n *node) merge(src *node) {
	for choice, count := range src.counts {
		n.counts[choice] += count
	}
	for choice, count := range src.ended {
		n.addEnded(choice, count)
	}
	for choice, count := range src.saturated {
		n.addSaturated(choice, count)
	}
	for d, sc := range src.children {
		if dc := n.child(d); dc != nil {
			dc.merge(sc)
			continue
		}
		if n.children == nil {
			n.children = make(map[path.Decision]*node)
		}
		n.children[d] = sc.clone()
	}
}

// sum returns a+b. Neither map is modified; when one is empty the other is
// returned as is.
func sum(a, b map[int]int) map[int]int {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := maps.Clone(a)
	for choice, count := range b {
		out[choice] += count
	}
	return out
}

func (n *node) size() int {
	total := 1
	for _, c := range n.children {
		total += c.size()
	}
	return total
}
