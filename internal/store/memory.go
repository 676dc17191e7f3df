package store

import (
	"context"
	"sort"
	"sync"

	"github.com/websentry/websentry/internal/model"
)

// MemoryStore keeps scan records in a mutex-guarded map.
// It is the default store for the HTTP service and single-shot CLI scans.
//
// Design decision: Get and List return clones rather than the live record,
// because the engine mutates records through Update while handlers read
// them. Cloning at the store boundary means readers never observe a
// half-applied mutation.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*model.ScanRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*model.ScanRecord),
	}
}

// Create inserts a new record, cloning it so later caller-side mutation
// cannot bypass Update.
func (s *MemoryStore) Create(_ context.Context, record *model.ScanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; exists {
		return ErrDuplicateID
	}
	s.records[record.ID] = record.Clone()
	return nil
}

// Get returns a snapshot of the record with the given ID.
func (s *MemoryStore) Get(_ context.Context, id string) (*model.ScanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return record.Clone(), nil
}

// Update applies fn to the stored record under the write lock.
func (s *MemoryStore) Update(_ context.Context, id string, fn func(*model.ScanRecord) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	return fn(record)
}

// List returns snapshots of all records ordered by start time, newest first.
func (s *MemoryStore) List(_ context.Context) ([]*model.ScanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*model.ScanRecord, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record.Clone())
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].StartTime.Equal(records[j].StartTime) {
			return records[i].ID < records[j].ID
		}
		return records[i].StartTime.After(records[j].StartTime)
	})
	return records, nil
}

// Delete removes the record with the given ID.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
