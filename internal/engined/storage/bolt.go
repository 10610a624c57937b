package storage

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var jobsBucket = []byte("jobs")

// BoltStore persists job records in a bbolt database file, JSON-encoded
// under the job ID.
type BoltStore struct {
	db *bolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(jobsBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("create jobs bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Save(record *JobRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode job record: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(jobsBucket).Put(record.ID[:], data)
	})
}

func (s *BoltStore) Get(id uuid.UUID) (*JobRecord, error) {
	var record *JobRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(jobsBucket).Get(id[:])
		if data == nil {
			return ErrNotFound
		}
		record = &JobRecord{}
		return json.Unmarshal(data, record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *BoltStore) List() ([]*JobRecord, error) {
	var records []*JobRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(jobsBucket).ForEach(func(_, data []byte) error {
			record := &JobRecord{}
			if err := json.Unmarshal(data, record); err != nil {
				return err
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortRecords(records)
	return records, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
