package storage

import (
	"time"

	"github.com/google/uuid"

	"github.com/wordflow/wordflow/pkg/dataflow"
)

// JobRecord is the persisted view of one job: enough to answer status polls
// after the in-process engine forgot the job, e.g. across daemon restarts.
type JobRecord struct {
	ID          uuid.UUID                        `json:"id"`
	Name        string                           `json:"name"`
	Status      dataflow.JobStatus               `json:"status"`
	Diagnostics []string                         `json:"diagnostics,omitempty"`
	Progress    map[string]dataflow.TaskProgress `json:"progress,omitempty"`
	Records     int64                            `json:"records"`

	SubmittedAt time.Time  `json:"submitted_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
