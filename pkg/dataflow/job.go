package dataflow

import "github.com/google/uuid"

type JobStatus string

const (
	JobStatusSubmitted JobStatus = "SUBMITTED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusSucceeded JobStatus = "SUCCEEDED"
	JobStatusFailed    JobStatus = "FAILED"
)

// Terminal reports whether the status can no longer change.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// JobHandle identifies a submitted job for later polling.
type JobHandle struct {
	ID uuid.UUID `json:"id"`
}

// TaskProgress counts task instances of one vertex by state.
type TaskProgress struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// StatusReport is one observation of a job, obtained by polling the engine.
// Diagnostics carry failure detail once the job is FAILED. Progress is keyed
// by vertex name. Records counts committed result pairs.
type StatusReport struct {
	Status      JobStatus               `json:"status"`
	Diagnostics []string                `json:"diagnostics,omitempty"`
	Progress    map[string]TaskProgress `json:"progress,omitempty"`
	Records     int64                   `json:"records"`
}
