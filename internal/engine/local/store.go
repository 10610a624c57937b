package local

import (
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/wordflow/wordflow/pkg/dataflow"
)

type jobState struct {
	name        string
	status      dataflow.JobStatus
	diagnostics []string
	progress    map[string]*dataflow.TaskProgress
	records     int64
}

// jobStore tracks the state of every job the engine has accepted.
type jobStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*jobState
}

func newJobStore() *jobStore {
	return &jobStore{jobs: make(map[uuid.UUID]*jobState)}
}

func (s *jobStore) create(name string) dataflow.JobHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	handle := dataflow.JobHandle{ID: uuid.New()}
	s.jobs[handle.ID] = &jobState{
		name:     name,
		status:   dataflow.JobStatusSubmitted,
		progress: make(map[string]*dataflow.TaskProgress),
	}
	return handle
}

func (s *jobStore) start(handle dataflow.JobHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, exists := s.jobs[handle.ID]; exists {
		state.status = dataflow.JobStatusRunning
	}
}

// finish moves a job to its terminal status. Each line of the error text
// becomes one diagnostic, so joined task errors stay individually readable.
func (s *jobStore) finish(handle dataflow.JobHandle, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, exists := s.jobs[handle.ID]
	if !exists {
		return
	}
	if err == nil {
		state.status = dataflow.JobStatusSucceeded
		return
	}
	state.status = dataflow.JobStatusFailed
	state.diagnostics = strings.Split(err.Error(), "\n")
}

func (s *jobStore) initStage(handle dataflow.JobHandle, vertex string, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, exists := s.jobs[handle.ID]; exists {
		state.progress[vertex] = &dataflow.TaskProgress{Total: total, Pending: total}
	}
}

func (s *jobStore) taskRunning(handle dataflow.JobHandle, vertex string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if progress := s.vertexProgress(handle, vertex); progress != nil {
		progress.Pending--
		progress.Running++
	}
}

func (s *jobStore) taskCompleted(handle dataflow.JobHandle, vertex string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if progress := s.vertexProgress(handle, vertex); progress != nil {
		progress.Running--
		progress.Completed++
	}
}

func (s *jobStore) taskFailed(handle dataflow.JobHandle, vertex string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if progress := s.vertexProgress(handle, vertex); progress != nil {
		progress.Running--
		progress.Failed++
	}
}

func (s *jobStore) addRecords(handle dataflow.JobHandle, count int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, exists := s.jobs[handle.ID]; exists {
		state.records += count
	}
}

// vertexProgress must be called with the lock held.
func (s *jobStore) vertexProgress(handle dataflow.JobHandle, vertex string) *dataflow.TaskProgress {
	state, exists := s.jobs[handle.ID]
	if !exists {
		return nil
	}
	return state.progress[vertex]
}

func (s *jobStore) report(handle dataflow.JobHandle) (dataflow.StatusReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, exists := s.jobs[handle.ID]
	if !exists {
		return dataflow.StatusReport{}, dataflow.ErrUnknownJob
	}

	report := dataflow.StatusReport{
		Status:      state.status,
		Diagnostics: slices.Clone(state.diagnostics),
		Progress:    make(map[string]dataflow.TaskProgress, len(state.progress)),
		Records:     state.records,
	}
	for vertex, progress := range state.progress {
		report.Progress[vertex] = *progress
	}
	return report, nil
}
