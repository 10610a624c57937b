package rest

import (
	"fmt"

	"github.com/wordflow/wordflow/internal/engined/storage"
)

func ToSubmitJobResponse(record *storage.JobRecord) SubmitJobResponse {
	return SubmitJobResponse{
		JobID:       record.ID.String(),
		Status:      string(record.Status),
		SubmittedAt: record.SubmittedAt,
		Links: Links{
			Self: fmt.Sprintf("/api/jobs/%s", record.ID),
		},
	}
}

func ToGetJobResponse(record *storage.JobRecord) GetJobResponse {
	progress := make(map[string]TaskProgress, len(record.Progress))
	for vertex, p := range record.Progress {
		progress[vertex] = TaskProgress{
			Total:     p.Total,
			Pending:   p.Pending,
			Running:   p.Running,
			Completed: p.Completed,
			Failed:    p.Failed,
		}
	}

	diagnostics := make([]string, 0, len(record.Diagnostics))
	diagnostics = append(diagnostics, record.Diagnostics...)

	return GetJobResponse{
		JobID:       record.ID.String(),
		Name:        record.Name,
		Status:      string(record.Status),
		Progress:    progress,
		Records:     record.Records,
		Diagnostics: diagnostics,
		Timestamps: TimestampsInfo{
			Submitted: record.SubmittedAt,
			Started:   record.StartedAt,
			Completed: record.CompletedAt,
		},
	}
}

func ToJobSummary(record *storage.JobRecord) JobSummary {
	return JobSummary{
		JobID:       record.ID.String(),
		Name:        record.Name,
		Status:      string(record.Status),
		SubmittedAt: record.SubmittedAt,
		CompletedAt: record.CompletedAt,
	}
}
