// Package storage persists serialized history policies keyed by the set of
// measured methods they were generated for.
package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"lukechampine.com/blake3"
)

// Record is one stored policy.
type Record struct {
	// ID is a random identifier assigned on first save. It stays stable
	// across later saves of the same key.
	ID string `json:"id"`

	// Key identifies the measured methods, e.g. "sort,insert".
	Key string `json:"key"`

	// Kind is the policy kind, e.g. "history".
	Kind string `json:"kind"`

	// Digest is the hex blake3 digest of Data.
	Digest string `json:"digest"`

	MaxHistory   int `json:"max_history"`
	Observations int `json:"observations"`

	// Data is the canonical policy encoding.
	Data []byte `json:"-"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Driver defines the interface for persisting and retrieving policy records.
type Driver interface {
	// Put stores rec under rec.Key, replacing any previous record for the
	// key. Missing ID and UpdatedAt fields are filled in; Digest is always
	// recomputed from Data.
	Put(ctx context.Context, rec *Record) error

	// Get retrieves the record stored under key. It returns a NotFoundError
	// when there is none.
	Get(ctx context.Context, key string) (*Record, error)

	// Has checks if a record exists for key.
	Has(ctx context.Context, key string) (bool, error)

	// List returns all records ordered by key. Data is populated.
	List(ctx context.Context) ([]*Record, error)

	// Delete removes the record for key. It returns a NotFoundError when
	// there is none.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the driver.
	Close() error
}

// Digest returns the hex blake3 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Prepare validates rec and fills its derived fields before a driver stores
// it. existingID is the ID already stored under rec.Key, or "".
func Prepare(rec *Record, existingID string) error {
	if rec == nil {
		return errors.New("cannot store nil record")
	}
	if rec.Key == "" {
		return errors.New("cannot store record without key")
	}

	switch {
	case existingID != "":
		rec.ID = existingID
	case rec.ID == "":
		rec.ID = uuid.NewString()
	}
	rec.Digest = Digest(rec.Data)
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// Clone returns a deep copy of rec.
func (r *Record) Clone() *Record {
	c := *r
	c.Data = append([]byte(nil), r.Data...)
	return &c
}
