package storage

import (
	"bytes"
	"errors"
	"slices"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no record exists for a job ID.
var ErrNotFound = errors.New("job record not found")

// JobRecordStore persists job records. Save overwrites any previous record
// for the same ID.
type JobRecordStore interface {
	Save(record *JobRecord) error
	Get(id uuid.UUID) (*JobRecord, error)
	List() ([]*JobRecord, error)
	Close() error
}

// sortRecords orders records newest first, with the ID as a tie-breaker so
// listings are stable.
func sortRecords(records []*JobRecord) {
	slices.SortFunc(records, func(a, b *JobRecord) int {
		if c := b.SubmittedAt.Compare(a.SubmittedAt); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
}
