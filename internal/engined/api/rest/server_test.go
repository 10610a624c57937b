package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wordflow/wordflow/internal/engine/local"
	"github.com/wordflow/wordflow/internal/engined"
	"github.com/wordflow/wordflow/internal/engined/storage"
	"github.com/wordflow/wordflow/pkg/dataflow"
	"github.com/wordflow/wordflow/pkg/textio"
	"github.com/wordflow/wordflow/pkg/wordcount"
)

type stubEngine struct {
	mu        sync.Mutex
	handle    dataflow.JobHandle
	submitErr error
	report    dataflow.StatusReport
	pollErr   error
}

func (e *stubEngine) SubmitGraph(ctx context.Context, graph *dataflow.Graph) (dataflow.JobHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.submitErr != nil {
		return dataflow.JobHandle{}, e.submitErr
	}
	return e.handle, nil
}

func (e *stubEngine) PollStatus(ctx context.Context, handle dataflow.JobHandle) (dataflow.StatusReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.report, e.pollErr
}

func (e *stubEngine) Close() error {
	return nil
}

// newTestMux wires an API over the given engine with in-memory job records.
// The tracker interval is long enough that handler tests never race it.
func newTestMux(t *testing.T, engine dataflow.Engine) (*http.ServeMux, storage.JobRecordStore) {
	t.Helper()

	store := storage.NewInMemoryStore()
	service := engined.NewService(engine, store, time.Hour, newMockLogger())
	t.Cleanup(service.Close)

	api := NewAPI(service, newMockLogger())
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	return mux, store
}

func testGraph(input, output string) dataflow.Graph {
	return dataflow.Graph{
		Name: "wordcount",
		Vertices: []dataflow.Vertex{
			{
				Name:      "tokenizer",
				Processor: wordcount.TokenizerName,
				Source:    &dataflow.SourceSpec{Type: textio.TypeName, Path: input},
			},
			{
				Name:        "summation",
				Processor:   wordcount.SummationName,
				Parallelism: 2,
				Sink:        &dataflow.SinkSpec{Type: textio.TypeName, Path: output},
			},
		},
		Edges: []dataflow.Edge{
			{From: "tokenizer", To: "summation", Partitions: 2},
		},
	}
}

func postJob(t *testing.T, mux *http.ServeMux, graph dataflow.Graph) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(SubmitJobRequest{Graph: graph})
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestSubmitJob(t *testing.T) {
	id := uuid.New()
	engine := &stubEngine{
		handle: dataflow.JobHandle{ID: id},
		report: dataflow.StatusReport{Status: dataflow.JobStatusRunning},
	}
	mux, _ := newTestMux(t, engine)

	w := postJob(t, mux, testGraph("in/*.txt", "out"))

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp SubmitJobResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.JobID != id.String() {
		t.Errorf("Expected job ID %s, got %s", id, resp.JobID)
	}
	if resp.Status != string(dataflow.JobStatusSubmitted) {
		t.Errorf("Expected status SUBMITTED, got %s", resp.Status)
	}
	if resp.Links.Self != "/api/jobs/"+id.String() {
		t.Errorf("Expected self link /api/jobs/%s, got %s", id, resp.Links.Self)
	}
	if resp.SubmittedAt.IsZero() {
		t.Error("Expected submitted_at to be set")
	}
}

func TestSubmitJobInvalidBody(t *testing.T) {
	mux, _ := newTestMux(t, &stubEngine{})

	req := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestSubmitJobErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"malformed graph", dataflow.ErrMalformedGraph, http.StatusBadRequest},
		{"bad source", dataflow.ErrSourceUnavailable, http.StatusBadRequest},
		{"bad sink", dataflow.ErrSinkUnavailable, http.StatusBadRequest},
		{"engine closed", dataflow.ErrEngineUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, _ := newTestMux(t, &stubEngine{submitErr: tt.err})

			w := postJob(t, mux, testGraph("in/*.txt", "out"))

			if w.Code != tt.wantCode {
				t.Errorf("Expected status %d, got %d", tt.wantCode, w.Code)
			}

			var resp ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("Expected error code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestGetJob(t *testing.T) {
	// The engine has forgotten the job; the handler falls back to the store.
	engine := &stubEngine{pollErr: dataflow.ErrUnknownJob}
	mux, store := newTestMux(t, engine)

	completed := time.Now().UTC()
	record := &storage.JobRecord{
		ID:          uuid.New(),
		Name:        "wordcount",
		Status:      dataflow.JobStatusSucceeded,
		Records:     42,
		Progress:    map[string]dataflow.TaskProgress{"tokenizer": {Total: 1, Completed: 1}},
		SubmittedAt: completed.Add(-time.Minute),
		CompletedAt: &completed,
	}
	if err := store.Save(record); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/"+record.ID.String(), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp GetJobResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.JobID != record.ID.String() {
		t.Errorf("Expected job ID %s, got %s", record.ID, resp.JobID)
	}
	if resp.Name != "wordcount" {
		t.Errorf("Expected name wordcount, got %s", resp.Name)
	}
	if resp.Status != string(dataflow.JobStatusSucceeded) {
		t.Errorf("Expected status SUCCEEDED, got %s", resp.Status)
	}
	if resp.Records != 42 {
		t.Errorf("Expected 42 records, got %d", resp.Records)
	}
	if resp.Progress["tokenizer"].Completed != 1 {
		t.Errorf("Expected tokenizer progress, got %+v", resp.Progress)
	}
	if resp.Timestamps.Completed == nil {
		t.Error("Expected completed timestamp to be set")
	}
}

func TestGetJobInvalidID(t *testing.T) {
	mux, _ := newTestMux(t, &stubEngine{})

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/not-a-uuid", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestGetJobNotFound(t *testing.T) {
	mux, _ := newTestMux(t, &stubEngine{pollErr: dataflow.ErrUnknownJob})

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestGetJobDiagnosticsReturnsEmptyArray(t *testing.T) {
	engine := &stubEngine{pollErr: dataflow.ErrUnknownJob}
	mux, store := newTestMux(t, engine)

	record := &storage.JobRecord{
		ID:          uuid.New(),
		Name:        "wordcount",
		Status:      dataflow.JobStatusSucceeded,
		SubmittedAt: time.Now().UTC(),
	}
	if err := store.Save(record); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/"+record.ID.String(), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"diagnostics":[]`) {
		t.Errorf("Expected JSON to contain 'diagnostics':[], got: %s", w.Body.String())
	}
}

func TestListJobsPagination(t *testing.T) {
	engine := &stubEngine{pollErr: dataflow.ErrUnknownJob}
	mux, store := newTestMux(t, engine)

	base := time.Now().UTC()
	for i := range 15 {
		record := &storage.JobRecord{
			ID:          uuid.New(),
			Name:        "wordcount",
			Status:      dataflow.JobStatusSucceeded,
			SubmittedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := store.Save(record); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs?limit=10&offset=0", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp ListJobsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Total != 15 {
		t.Errorf("Expected total 15, got %d", resp.Total)
	}
	if len(resp.Jobs) != 10 {
		t.Errorf("Expected 10 jobs in first page, got %d", len(resp.Jobs))
	}
	if resp.NextOffset == nil || *resp.NextOffset != 10 {
		t.Error("Expected next offset to be 10")
	}

	// Jobs come back newest first.
	for i := 1; i < len(resp.Jobs); i++ {
		if resp.Jobs[i-1].SubmittedAt.Before(resp.Jobs[i].SubmittedAt) {
			t.Errorf("Jobs out of order: %v before %v", resp.Jobs[i-1].SubmittedAt, resp.Jobs[i].SubmittedAt)
		}
	}

	req = httptest.NewRequest(http.MethodGet, "/api/jobs?limit=10&offset=10", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	var resp2 ListJobsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp2); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(resp2.Jobs) != 5 {
		t.Errorf("Expected 5 jobs in second page, got %d", len(resp2.Jobs))
	}
	if resp2.NextOffset != nil {
		t.Errorf("Expected no next offset on last page, got %v", *resp2.NextOffset)
	}
}

func TestListJobsReturnsEmptyArray(t *testing.T) {
	mux, _ := newTestMux(t, &stubEngine{})

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"jobs":[]`) {
		t.Errorf("Expected JSON to contain 'jobs':[], got: %s", w.Body.String())
	}
}

func TestHealth(t *testing.T) {
	mux, _ := newTestMux(t, &stubEngine{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("Expected status ok, got %s", resp.Status)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux, _ := newTestMux(t, &stubEngine{})

	req := httptest.NewRequest(http.MethodDelete, "/api/jobs", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestWordCountOverREST(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in", "a.txt")
	if err := os.MkdirAll(filepath.Dir(input), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(input, []byte("the quick fox\nthe lazy fox\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	output := filepath.Join(dir, "out")

	engine := local.NewEngine(local.Config{Workers: 2}, newMockLogger())
	defer engine.Close()

	store := storage.NewInMemoryStore()
	service := engined.NewService(engine, store, 2*time.Millisecond, newMockLogger())
	defer service.Close()

	api := NewAPI(service, newMockLogger())
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	w := postJob(t, mux, testGraph(input, output))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var submitResp SubmitJobResponse
	if err := json.NewDecoder(w.Body).Decode(&submitResp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	var jobResp GetJobResponse
	deadline := time.Now().Add(10 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatalf("Job %s never finished, last status %s", submitResp.JobID, jobResp.Status)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/jobs/"+submitResp.JobID, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		if err := json.NewDecoder(w.Body).Decode(&jobResp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if dataflow.JobStatus(jobResp.Status).Terminal() {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}

	if jobResp.Status != string(dataflow.JobStatusSucceeded) {
		t.Fatalf("Expected status SUCCEEDED, got %s: %v", jobResp.Status, jobResp.Diagnostics)
	}
	if jobResp.Records != 4 {
		t.Errorf("Expected 4 records, got %d", jobResp.Records)
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("Expected committed output at %s: %v", output, err)
	}
}
