package trie

import (
	"github.com/papercomputeco/worstcase/pkg/path"
)

// Builder accumulates branch observations and merged stores into a mutable
// trie. Build freezes a copy, so a builder may keep growing afterwards.
type Builder struct {
	root       *node
	maxHistory int
}

// NewBuilder returns a builder whose windows hold at most maxHistory
// decisions. Zero keeps a single history-free distribution.
func NewBuilder(maxHistory int) *Builder {
	return &Builder{
		root:       newNode(),
		maxHistory: max(maxHistory, 0),
	}
}

// MaxHistory returns the window bound.
func (b *Builder) MaxHistory() int {
	return b.maxHistory
}

// Put records that choice was taken after history. Only the most recent
// MaxHistory decisions of history are kept.
func (b *Builder) Put(history path.History, choice int) {
	w := history.Last(b.maxHistory)

	n := b.root
	n.counts[choice]++
	for i := len(w) - 1; i >= 0; i-- {
		n = n.ensureChild(w[i])
		n.counts[choice]++
	}
	n.addEnded(choice, 1)
	if len(w) == b.maxHistory {
		n.addSaturated(choice, 1)
	}
}

// PutPath records, for every decision of p, the choice taken after the
// window of decisions preceding it.
func (b *Builder) PutPath(p *path.Path) {
	for i := range p.Len() {
		b.Put(p.History(i, b.maxHistory), p.At(i).Choice)
	}
}

// AddStore overlays s onto the builder: counts of shared nodes are summed
// and nodes present only in s are copied. The window bound grows to cover
// s; observations of a store with a shorter bound keep matching every
// history that ends in their window. The store is not modified.
func (b *Builder) AddStore(s *Store) {
	if s == nil {
		return
	}
	b.maxHistory = max(b.maxHistory, s.maxHistory)
	b.root.merge(s.root)
}

// Build freezes the current trie into a read-only Store. In adaptive mode
// lookups of unseen windows fall back to the longest observed suffix.
func (b *Builder) Build(adaptive bool) *Store {
	root := b.root.clone()
	return &Store{
		root:       root,
		maxHistory: b.maxHistory,
		adaptive:   adaptive,
		nodes:      root.size(),
	}
}
