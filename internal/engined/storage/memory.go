package storage

import (
	"sync"

	"github.com/google/uuid"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*JobRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[uuid.UUID]*JobRecord),
	}
}

func (s *InMemoryStore) Save(record *JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := *record
	s.records[record.ID] = &saved
	return nil
}

func (s *InMemoryStore) Get(id uuid.UUID) (*JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[id]
	if !exists {
		return nil, ErrNotFound
	}
	found := *record
	return &found, nil
}

func (s *InMemoryStore) List() ([]*JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*JobRecord, 0, len(s.records))
	for _, record := range s.records {
		found := *record
		records = append(records, &found)
	}
	sortRecords(records)
	return records, nil
}

func (s *InMemoryStore) Close() error {
	return nil
}
