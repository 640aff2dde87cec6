package policy

import (
	"fmt"

	"github.com/papercomputeco/worstcase/pkg/trie"
)

// Encode serializes a policy for persistence.
func Encode(p Policy) ([]byte, error) {
	hp, ok := p.(*HistoryPolicy)
	if !ok {
		return nil, fmt.Errorf("cannot encode branch policy of kind %q", kindOf(p))
	}
	return hp.store.MarshalJSON()
}

// Decode restores a policy of the given kind from Encode output.
func Decode(kind string, data []byte) (Policy, error) {
	switch kind {
	case KindHistory:
		store, err := trie.Decode(data)
		if err != nil {
			return nil, err
		}
		return NewHistoryPolicy(store), nil
	default:
		return nil, fmt.Errorf("unknown branch policy kind %q", kind)
	}
}
