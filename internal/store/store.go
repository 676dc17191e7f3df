package store

import (
	"context"
	"errors"

	"github.com/websentry/websentry/internal/model"
)

// ErrNotFound is returned when no scan record exists for the given ID.
var ErrNotFound = errors.New("scan not found")

// ErrDuplicateID is returned when creating a record whose ID is already
// in use.
var ErrDuplicateID = errors.New("scan id already exists")

// Store persists scan records and mediates all mutation of them.
//
// Design decision: mutation goes through Update with a closure rather than
// a plain Put, because the engine and HTTP handlers touch records from
// different goroutines. Letting the store serialize read-modify-write
// cycles keeps locking in one place instead of spreading it across callers.
type Store interface {
	// Create inserts a new scan record. Returns ErrDuplicateID if a
	// record with the same ID already exists.
	Create(ctx context.Context, record *model.ScanRecord) error

	// Get returns a snapshot of the record with the given ID.
	// Callers may freely inspect the snapshot; it is detached from the
	// stored record. Returns ErrNotFound if no record exists.
	Get(ctx context.Context, id string) (*model.ScanRecord, error)

	// Update applies fn to the stored record under the store's write
	// lock. If fn returns an error the mutation is discarded and the
	// error is returned. Returns ErrNotFound if no record exists.
	Update(ctx context.Context, id string, fn func(*model.ScanRecord) error) error

	// List returns snapshots of all records, newest first.
	List(ctx context.Context) ([]*model.ScanRecord, error)

	// Delete removes the record with the given ID.
	// Returns ErrNotFound if no record exists.
	Delete(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}
