package session

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store implementation. It defines the reference
// semantics store adapters must follow (upsert Create, patch Update, the
// ErrNotFound discipline) and backs the package tests. Suitable for
// development and single-process deployments only.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Get returns a copy of the record for handle, or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, handle string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[handle]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

// GetByUserID returns copies of every record owned by userID.
func (s *MemoryStore) GetByUserID(_ context.Context, userID any) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*Record
	for _, record := range s.records {
		if sameUserID(record.UserID, userID) {
			r := record
			records = append(records, &r)
		}
	}
	return records, nil
}

// Create inserts or replaces the record keyed on its handle.
func (s *MemoryStore) Create(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.Handle] = *record
	return nil
}

// Update applies the patch to the record for handle, or returns ErrNotFound.
func (s *MemoryStore) Update(_ context.Context, handle string, patch RecordPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[handle]
	if !ok {
		return ErrNotFound
	}
	if patch.ExpiresAt != nil {
		record.ExpiresAt = patch.ExpiresAt
	}
	if patch.PublicData != nil {
		record.PublicData = *patch.PublicData
	}
	if patch.PrivateData != nil {
		record.PrivateData = *patch.PrivateData
	}
	s.records[handle] = record
	return nil
}

// Delete removes the record for handle, or returns ErrNotFound.
func (s *MemoryStore) Delete(_ context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[handle]; !ok {
		return ErrNotFound
	}
	delete(s.records, handle)
	return nil
}
