package policy

import (
	"context"
	"fmt"

	"github.com/papercomputeco/worstcase/pkg/storage"
)

// Load decodes the policy stored under key. A missing key surfaces as
// storage.NotFoundError.
func Load(ctx context.Context, d storage.Driver, key string) (Policy, error) {
	rec, err := d.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	p, err := Decode(rec.Kind, rec.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding stored policy %s: %w", key, err)
	}
	return p, nil
}

// Save encodes p and stores it under key, replacing any previous policy.
func Save(ctx context.Context, d storage.Driver, key string, p Policy) error {
	data, err := Encode(p)
	if err != nil {
		return err
	}

	rec := &storage.Record{
		Key:        key,
		Kind:       p.Kind(),
		MaxHistory: p.MaxHistorySize(),
		Data:       data,
	}
	if hp, ok := p.(*HistoryPolicy); ok {
		rec.Observations = hp.Observations()
	}
	return d.Put(ctx, rec)
}
