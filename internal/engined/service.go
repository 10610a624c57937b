package engined

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wordflow/wordflow/internal/engined/storage"
	"github.com/wordflow/wordflow/internal/shared/logging"
	"github.com/wordflow/wordflow/pkg/dataflow"
)

const defaultTrackInterval = 500 * time.Millisecond

// Service runs jobs on the wrapped engine and keeps a persistent record of
// each one, so job status outlives the engine's in-memory bookkeeping.
type Service struct {
	engine   dataflow.Engine
	store    storage.JobRecordStore
	logger   logging.Logger
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService wraps an engine with persistent job tracking. The engine and
// the store stay owned by the caller and are closed separately.
func NewService(engine dataflow.Engine, store storage.JobRecordStore, interval time.Duration, logger logging.Logger) *Service {
	if interval <= 0 {
		interval = defaultTrackInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		engine:   engine,
		store:    store,
		logger:   logger,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Submit hands the graph to the engine and starts tracking the job until it
// reaches a terminal status.
func (s *Service) Submit(ctx context.Context, graph *dataflow.Graph) (*storage.JobRecord, error) {
	handle, err := s.engine.SubmitGraph(ctx, graph)
	if err != nil {
		return nil, err
	}

	record := storage.JobRecord{
		ID:          handle.ID,
		Name:        graph.Name,
		Status:      dataflow.JobStatusSubmitted,
		SubmittedAt: time.Now().UTC(),
	}
	if err := s.store.Save(&record); err != nil {
		// The job is already running; a failed save must not lose it.
		s.logger.Error("Failed to save job record", "job_id", handle.ID.String(), "error", err)
	}

	s.wg.Go(func() {
		s.track(handle, record)
	})

	return &record, nil
}

// track follows a running job, persisting every observed report until the
// job reaches a terminal status.
func (s *Service) track(handle dataflow.JobHandle, record storage.JobRecord) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}

		report, err := s.engine.PollStatus(s.ctx, handle)
		if errors.Is(err, dataflow.ErrUnknownJob) {
			s.logger.Warn("Engine lost track of job", "job_id", handle.ID.String())
			return
		}
		if err != nil {
			s.logger.Warn("Failed to poll job", "job_id", handle.ID.String(), "error", err)
			continue
		}

		now := time.Now().UTC()
		if record.StartedAt == nil && record.Status != report.Status {
			record.StartedAt = &now
		}
		record.Status = report.Status
		record.Diagnostics = report.Diagnostics
		record.Progress = report.Progress
		record.Records = report.Records
		if report.Status.Terminal() && record.CompletedAt == nil {
			record.CompletedAt = &now
		}

		if err := s.store.Save(&record); err != nil {
			s.logger.Error("Failed to save job record", "job_id", handle.ID.String(), "error", err)
		}

		if report.Status.Terminal() {
			s.logger.Info("Job finished", "job_id", handle.ID.String(), "status", string(report.Status))
			return
		}
	}
}

// GetJob reports current job state, preferring the live engine view and
// falling back to the persisted record when the engine no longer knows the
// job, e.g. after a daemon restart.
func (s *Service) GetJob(ctx context.Context, id uuid.UUID) (*storage.JobRecord, error) {
	var record storage.JobRecord

	stored, err := s.store.Get(id)
	switch {
	case err == nil:
		record = *stored
	case errors.Is(err, storage.ErrNotFound):
		record = storage.JobRecord{ID: id}
	default:
		return nil, err
	}

	report, pollErr := s.engine.PollStatus(ctx, dataflow.JobHandle{ID: id})
	if pollErr != nil {
		if stored != nil {
			return &record, nil
		}
		if errors.Is(pollErr, dataflow.ErrUnknownJob) {
			return nil, storage.ErrNotFound
		}
		return nil, pollErr
	}

	record.Status = report.Status
	record.Diagnostics = report.Diagnostics
	record.Progress = report.Progress
	record.Records = report.Records
	return &record, nil
}

// ListJobs returns every known job record, newest first.
func (s *Service) ListJobs() ([]*storage.JobRecord, error) {
	return s.store.List()
}

// Restore reconciles persisted records after a restart. Jobs that were in
// flight when the daemon stopped died with its engine and can never
// complete, so they are marked failed.
func (s *Service) Restore() error {
	records, err := s.store.List()
	if err != nil {
		return err
	}

	for _, record := range records {
		if record.Status.Terminal() {
			continue
		}

		record.Status = dataflow.JobStatusFailed
		record.Diagnostics = append(record.Diagnostics, "daemon restarted while job was in flight")
		now := time.Now().UTC()
		record.CompletedAt = &now

		if err := s.store.Save(record); err != nil {
			return err
		}
		s.logger.Warn("Marked interrupted job as failed", "job_id", record.ID.String())
	}
	return nil
}

// Close stops the job trackers and waits for them to drain.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}
