// Package remote implements the dataflow engine interface on top of the
// daemon's REST API. Graph paths are resolved on the daemon host, so the
// client and daemon must share a filesystem view.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wordflow/wordflow/internal/shared/logging"
	"github.com/wordflow/wordflow/pkg/dataflow"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Engine struct {
	baseURL string
	client  *http.Client
	logger  logging.Logger
}

type submitJobRequest struct {
	Graph dataflow.Graph `json:"graph"`
}

type submitJobResponse struct {
	JobID string `json:"job_id"`
}

type jobResponse struct {
	JobID       string                           `json:"job_id"`
	Status      dataflow.JobStatus               `json:"status"`
	Diagnostics []string                         `json:"diagnostics"`
	Progress    map[string]dataflow.TaskProgress `json:"progress"`
	Records     int64                            `json:"records"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Connect probes the daemon at baseURL and returns an engine bound to it.
func Connect(ctx context.Context, config Config, logger logging.Logger) (*Engine, error) {
	timeout := config.Timeout
	if timeout <= 0 {
		// Safety net so requests never hang when no context deadline is set.
		timeout = 30 * time.Second
	}

	engine := &Engine{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, engine.baseURL+"/healthz", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dataflow.ErrEngineUnavailable, err)
	}

	resp, err := engine.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dataflow.ErrEngineUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: daemon at %s returned %s", dataflow.ErrEngineUnavailable, engine.baseURL, resp.Status)
	}

	logger.Info("Connected to engine daemon", "base_url", engine.baseURL)
	return engine, nil
}

func (e *Engine) SubmitGraph(ctx context.Context, graph *dataflow.Graph) (dataflow.JobHandle, error) {
	body, err := json.Marshal(submitJobRequest{Graph: *graph})
	if err != nil {
		return dataflow.JobHandle{}, fmt.Errorf("encode graph: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/jobs", bytes.NewReader(body))
	if err != nil {
		return dataflow.JobHandle{}, fmt.Errorf("%w: %v", dataflow.ErrEngineUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return dataflow.JobHandle{}, fmt.Errorf("%w: %v", dataflow.ErrEngineUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return dataflow.JobHandle{}, e.submitError(resp)
	}

	var submitted submitJobResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitted); err != nil {
		return dataflow.JobHandle{}, fmt.Errorf("decode submit response: %w", err)
	}

	id, err := uuid.Parse(submitted.JobID)
	if err != nil {
		return dataflow.JobHandle{}, fmt.Errorf("parse job ID %q: %w", submitted.JobID, err)
	}

	e.logger.Debug("Graph submitted to daemon", "job_id", id.String())
	return dataflow.JobHandle{ID: id}, nil
}

func (e *Engine) PollStatus(ctx context.Context, handle dataflow.JobHandle) (dataflow.StatusReport, error) {
	url := fmt.Sprintf("%s/api/jobs/%s", e.baseURL, handle.ID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return dataflow.StatusReport{}, fmt.Errorf("%w: %v", dataflow.ErrEngineUnavailable, err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return dataflow.StatusReport{}, fmt.Errorf("%w: %v", dataflow.ErrEngineUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return dataflow.StatusReport{}, fmt.Errorf("%w: %s", dataflow.ErrUnknownJob, handle.ID)
	case http.StatusServiceUnavailable:
		return dataflow.StatusReport{}, fmt.Errorf("%w: daemon returned %s", dataflow.ErrEngineUnavailable, resp.Status)
	default:
		apiErr := decodeError(resp)
		return dataflow.StatusReport{}, fmt.Errorf("poll job %s: %s", handle.ID, apiErr.Message)
	}

	var job jobResponse
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return dataflow.StatusReport{}, fmt.Errorf("decode job response: %w", err)
	}

	return dataflow.StatusReport{
		Status:      job.Status,
		Diagnostics: job.Diagnostics,
		Progress:    job.Progress,
		Records:     job.Records,
	}, nil
}

// Close releases client connections. Jobs keep running on the daemon.
func (e *Engine) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

// submitError maps a rejected submission back to the sentinel the daemon
// reported, so remote submissions fail the same way local ones do.
func (e *Engine) submitError(resp *http.Response) error {
	apiErr := decodeError(resp)

	switch resp.StatusCode {
	case http.StatusBadRequest:
		var sentinel error
		switch apiErr.Error {
		case "source unavailable":
			sentinel = dataflow.ErrSourceUnavailable
		case "sink unavailable":
			sentinel = dataflow.ErrSinkUnavailable
		default:
			sentinel = dataflow.ErrMalformedGraph
		}
		return wrapSentinel(sentinel, apiErr.Message)
	case http.StatusServiceUnavailable:
		return wrapSentinel(dataflow.ErrEngineUnavailable, apiErr.Message)
	default:
		return fmt.Errorf("submit graph: daemon returned %s: %s", resp.Status, apiErr.Message)
	}
}

// wrapSentinel rebuilds a sentinel-wrapped error from its wire message
// without repeating the sentinel's own text.
func wrapSentinel(sentinel error, message string) error {
	detail := strings.TrimPrefix(message, sentinel.Error())
	detail = strings.TrimPrefix(detail, ": ")
	if detail == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, detail)
}

func decodeError(resp *http.Response) errorResponse {
	var apiErr errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = resp.Status
	}
	return apiErr
}
