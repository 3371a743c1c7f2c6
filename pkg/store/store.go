// Package store keeps named DM3K problem documents.
//
// A [Record] wraps a [document.Document] with an ID, a display name and
// timestamps. Backends implement [Store]:
//   - [MemoryStore]: in-process, for tests and throwaway servers
//   - [FileStore]: one JSON file per record, for the CLI
//   - [RedisStore]: shared storage for multi-instance API servers
//   - [MongoStore]: document database storage
//   - [S3Store]: one object per record in an S3 or S3-compatible bucket
//
// # Usage
//
//	s, err := store.NewFileStore("")  // ~/.config/dm3k/documents/
//	id, err := s.Put(ctx, store.Record{Name: "backpack", Document: doc})
//	rec, err := s.Get(ctx, id)
//
// IDs are UUIDs assigned on first Put. Putting a record with an existing ID
// replaces the document and name and keeps the creation time.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dm3k/dm3k/pkg/document"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidID is returned for IDs that are not UUIDs.
	ErrInvalidID = errors.New("invalid document id")
)

// Record is a stored document.
type Record struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Document  document.Document `json:"document"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Summary lists a record without its document.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary returns the listing view of r.
func (r Record) Summary() Summary {
	return Summary{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

// Store is the interface for document storage backends.
type Store interface {
	// Put creates or replaces a record and returns its ID. An empty ID
	// creates a new record.
	Put(ctx context.Context, rec Record) (string, error)

	// Get returns the record with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns all records, most recently updated first.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes a record. Deleting a missing record returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}

// NewID returns a fresh record ID.
func NewID() string {
	return uuid.NewString()
}

// ValidateID checks that id is a UUID.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

// stamp assigns an ID and timestamps to rec. prev is the record being
// replaced, or nil.
func stamp(rec Record, prev *Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = NewID()
	} else if err := ValidateID(rec.ID); err != nil {
		return Record{}, err
	}
	t := now()
	rec.CreatedAt = t
	if prev != nil {
		rec.CreatedAt = prev.CreatedAt
	}
	rec.UpdatedAt = t
	return rec, nil
}
