package trie

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"lukechampine.com/blake3"

	"github.com/papercomputeco/worstcase/pkg/path"
)

// encodingVersion is bumped on incompatible wire changes. Version 1 had no
// saturated counts; they are derived on decode.
const (
	encodingVersion = 2
	legacyVersion   = 1
)

type wireNode struct {
	Decision  *path.Decision `json:"decision,omitempty"`
	Counts    map[int]int    `json:"counts"`
	Ended     map[int]int    `json:"ended,omitempty"`
	Saturated map[int]int    `json:"saturated,omitempty"`
	Children  []*wireNode    `json:"children,omitempty"`
}

type wireStore struct {
	Version    int       `json:"version"`
	MaxHistory int       `json:"max_history"`
	Adaptive   bool      `json:"adaptive"`
	Root       *wireNode `json:"root"`
}

// MarshalJSON encodes the store canonically: children are ordered, so equal
// stores always encode to equal bytes.
func (s *Store) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireStore{
		Version:    encodingVersion,
		MaxHistory: s.maxHistory,
		Adaptive:   s.adaptive,
		Root:       toWire(s.root, nil),
	})
}

func toWire(n *node, d *path.Decision) *wireNode {
	w := &wireNode{
		Decision:  d,
		Counts:    n.counts,
		Ended:     n.ended,
		Saturated: n.saturated,
	}
	for _, key := range n.sortedKeys() {
		w.Children = append(w.Children, toWire(n.children[key], &key))
	}
	return w
}

// Decode parses a store produced by MarshalJSON.
func Decode(data []byte) (*Store, error) {
	var ws wireStore
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("decoding history trie: %w", err)
	}
	if ws.Version != encodingVersion && ws.Version != legacyVersion {
		return nil, fmt.Errorf("unsupported history trie version %d (expected %d)", ws.Version, encodingVersion)
	}
	if ws.Root == nil {
		return nil, errors.New("history trie has no root")
	}
	if ws.MaxHistory < 0 {
		return nil, fmt.Errorf("negative max history %d", ws.MaxHistory)
	}

	root, err := fromWire(ws.Root, 0, ws.MaxHistory, ws.Version == legacyVersion)
	if err != nil {
		return nil, err
	}

	return &Store{
		root:       root,
		maxHistory: ws.MaxHistory,
		adaptive:   ws.Adaptive,
		nodes:      root.size(),
	}, nil
}

func fromWire(w *wireNode, depth, maxDepth int, legacy bool) (*node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("history trie deeper than max history %d", maxDepth)
	}

	n := newNode()
	for choice, count := range w.Counts {
		if count < 0 {
			return nil, fmt.Errorf("negative count %d for choice %d", count, choice)
		}
		n.counts[choice] = count
	}
	for choice, count := range w.Ended {
		if count < 0 {
			return nil, fmt.Errorf("negative ended count %d for choice %d", count, choice)
		}
		n.addEnded(choice, count)
		if legacy && depth == maxDepth {
			n.addSaturated(choice, count)
		}
	}
	for choice, count := range w.Saturated {
		if legacy {
			return nil, errors.New("saturated counts in a version 1 history trie")
		}
		if count < 0 || count > n.ended[choice] {
			return nil, fmt.Errorf("saturated count %d for choice %d exceeds ended count", count, choice)
		}
		n.addSaturated(choice, count)
	}

	for _, wc := range w.Children {
		if wc == nil || wc.Decision == nil {
			return nil, errors.New("history trie child without decision")
		}
		c, err := fromWire(wc, depth+1, maxDepth, legacy)
		if err != nil {
			return nil, err
		}
		if n.children == nil {
			n.children = make(map[path.Decision]*node, len(w.Children))
		}
		n.children[*wc.Decision] = c
	}

	return n, nil
}

// Digest returns the hex BLAKE3 digest of the canonical encoding.
func (s *Store) Digest() (string, error) {
	data, err := s.MarshalJSON()
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
