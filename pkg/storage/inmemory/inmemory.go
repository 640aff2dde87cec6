// Package inmemory provides a map-backed storage driver for tests and
// one-shot analyses that do not persist policies.
package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/papercomputeco/worstcase/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	mu sync.RWMutex

	// records maps a policy key to its latest record
	records map[string]*storage.Record
}

var _ storage.Driver = (*Driver)(nil)

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		records: make(map[string]*storage.Record),
	}
}

// Put stores a copy of rec, replacing any previous record for its key.
func (d *Driver) Put(_ context.Context, rec *storage.Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var existingID string
	if rec != nil {
		if prev, ok := d.records[rec.Key]; ok {
			existingID = prev.ID
		}
	}
	if err := storage.Prepare(rec, existingID); err != nil {
		return err
	}

	d.records[rec.Key] = rec.Clone()
	return nil
}

// Get retrieves a copy of the record stored under key.
func (d *Driver) Get(_ context.Context, key string) (*storage.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec, ok := d.records[key]
	if !ok {
		return nil, storage.NotFoundError{Key: key}
	}
	return rec.Clone(), nil
}

// Has checks if a record exists for key.
func (d *Driver) Has(_ context.Context, key string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, ok := d.records[key]
	return ok, nil
}

// List returns copies of all records ordered by key.
func (d *Driver) List(_ context.Context) ([]*storage.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*storage.Record, 0, len(d.records))
	for _, rec := range d.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Delete removes the record stored under key.
func (d *Driver) Delete(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.records[key]; !ok {
		return storage.NotFoundError{Key: key}
	}
	delete(d.records, key)
	return nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}
