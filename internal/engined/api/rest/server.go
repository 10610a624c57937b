package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/wordflow/wordflow/internal/engined"
	"github.com/wordflow/wordflow/internal/engined/storage"
	"github.com/wordflow/wordflow/internal/shared/config"
	"github.com/wordflow/wordflow/internal/shared/logging"
	"github.com/wordflow/wordflow/pkg/dataflow"
)

type API struct {
	jobs   *engined.Service
	logger logging.Logger
}

func NewAPI(jobs *engined.Service, logger logging.Logger) *API {
	return &API{
		jobs:   jobs,
		logger: logger,
	}
}

func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/jobs", a.submitJob)
	mux.HandleFunc("GET /api/jobs", a.listJobs)
	mux.HandleFunc("GET /api/jobs/{id}", a.getJob)
	mux.HandleFunc("GET /healthz", a.health)
}

func (a *API) submitJob(w http.ResponseWriter, r *http.Request) {
	var req SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	record, err := a.jobs.Submit(r.Context(), &req.Graph)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}

	a.respondJSON(w, http.StatusCreated, ToSubmitJobResponse(record))
}

// getJob handles GET /api/jobs/{id}
func (a *API) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid job ID", err.Error())
		return
	}

	record, err := a.jobs.GetJob(r.Context(), id)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}

	a.respondJSON(w, http.StatusOK, ToGetJobResponse(record))
}

// listJobs handles GET /api/jobs with pagination
func (a *API) listJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := 10
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	offset := 0
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	records, err := a.jobs.ListJobs()
	if err != nil {
		a.respondServiceError(w, err)
		return
	}

	total := len(records)
	start := min(offset, total)
	end := min(start+limit, total)

	jobs := make([]JobSummary, 0, end-start)
	for _, record := range records[start:end] {
		jobs = append(jobs, ToJobSummary(record))
	}

	var nextOffset *int
	if end < total {
		next := end
		nextOffset = &next
	}

	a.respondJSON(w, http.StatusOK, ListJobsResponse{
		Jobs:       jobs,
		Total:      total,
		Limit:      limit,
		Offset:     offset,
		NextOffset: nextOffset,
	})
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// respondServiceError translates service and engine errors to HTTP statuses.
// The error field names the rejection kind so clients can map it back.
func (a *API) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound) || errors.Is(err, dataflow.ErrUnknownJob):
		a.respondError(w, http.StatusNotFound, "job not found", "")
	case errors.Is(err, dataflow.ErrSourceUnavailable):
		a.respondError(w, http.StatusBadRequest, "source unavailable", err.Error())
	case errors.Is(err, dataflow.ErrSinkUnavailable):
		a.respondError(w, http.StatusBadRequest, "sink unavailable", err.Error())
	case errors.Is(err, dataflow.ErrMalformedGraph) || errors.Is(err, dataflow.ErrInvalidConfig):
		a.respondError(w, http.StatusBadRequest, "validation failed", err.Error())
	case errors.Is(err, dataflow.ErrEngineUnavailable):
		a.respondError(w, http.StatusServiceUnavailable, "engine unavailable", err.Error())
	default:
		a.respondError(w, http.StatusInternalServerError, "internal error", err.Error())
	}
}

func (a *API) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (a *API) respondError(w http.ResponseWriter, statusCode int, error string, message string) {
	resp := ErrorResponse{
		Error:   error,
		Message: message,
		Code:    statusCode,
	}
	a.respondJSON(w, statusCode, resp)
}

func NewServer(cfg config.RESTConfig, api *API, logger logging.Logger) *http.Server {
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	handler := ChainMiddleware(
		mux,
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
	)

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
