package rest

import (
	"time"

	"github.com/wordflow/wordflow/pkg/dataflow"
)

type SubmitJobRequest struct {
	Graph dataflow.Graph `json:"graph"`
}

type SubmitJobResponse struct {
	JobID       string    `json:"job_id"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
	Links       Links     `json:"links"`
}

type Links struct {
	Self string `json:"self"`
}

type GetJobResponse struct {
	JobID       string                  `json:"job_id"`
	Name        string                  `json:"name"`
	Status      string                  `json:"status"`
	Progress    map[string]TaskProgress `json:"progress"`
	Records     int64                   `json:"records"`
	Diagnostics []string                `json:"diagnostics"`
	Timestamps  TimestampsInfo          `json:"timestamps"`
}

type TaskProgress struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

type TimestampsInfo struct {
	Submitted time.Time  `json:"submitted"`
	Started   *time.Time `json:"started"`
	Completed *time.Time `json:"completed"`
}

type ListJobsResponse struct {
	Jobs       []JobSummary `json:"jobs"`
	Total      int          `json:"total"`
	Limit      int          `json:"limit"`
	Offset     int          `json:"offset"`
	NextOffset *int         `json:"next_offset,omitempty"`
}

type JobSummary struct {
	JobID       string     `json:"job_id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	SubmittedAt time.Time  `json:"submitted_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
