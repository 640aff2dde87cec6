// Package tracker holds the worst-case path seen so far.
package tracker

import (
	"github.com/papercomputeco/worstcase/pkg/path"
)

// Tracker keeps the champion: the greatest finished path under the path
// order. It is not safe for concurrent use.
type Tracker struct {
	champion     *path.Path
	considered   int
	replacements int
}

// New returns a tracker with no champion.
func New() *Tracker {
	return &Tracker{}
}

// Consider replaces the champion when p compares strictly greater and
// reports whether it did.
func (t *Tracker) Consider(p *path.Path) bool {
	t.considered++
	if path.Compare(p, t.champion) <= 0 {
		return false
	}

	t.champion = p
	t.replacements++
	return true
}

// Current returns the champion, or nil if no path was considered.
func (t *Tracker) Current() *path.Path {
	return t.champion
}

// Considered returns how many paths were offered.
func (t *Tracker) Considered() int {
	return t.considered
}

// Replacements returns how many times the champion changed.
func (t *Tracker) Replacements() int {
	return t.replacements
}
