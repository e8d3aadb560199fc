// Package http exposes the service API: health and metrics endpoints, the
// city registry, and the asynchronous search submit/poll pair.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Calebe94/usgs-earthquake/internal/domain"
	"github.com/Calebe94/usgs-earthquake/internal/jobs"
	"github.com/Calebe94/usgs-earthquake/internal/registry"
)

// Searcher runs one earthquake search synchronously. The server always
// dispatches it through the job runner.
type Searcher interface {
	Run(ctx context.Context, cityID int64, startDate, endDate string) ([]domain.ResultPayload, error)
}

// JobRunner is the submit/poll contract the search endpoints build on.
type JobRunner interface {
	Submit(task jobs.Task) (string, error)
	Poll(id string) (jobs.Job, bool)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ReadinessFunc adapts a plain function to ReadinessChecker.
type ReadinessFunc func(ctx context.Context) error

func (f ReadinessFunc) CheckReadiness(ctx context.Context) error { return f(ctx) }

// Server exposes the service over HTTP.
type Server struct {
	httpServer *http.Server
	searcher   Searcher
	runner     JobRunner
	cities     registry.Registry
	logger     *slog.Logger
}

// NewServer creates the API server.
func NewServer(addr string, searcher Searcher, runner JobRunner, cities registry.Registry, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		searcher: searcher,
		runner:   runner,
		cities:   cities,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /api/cities", s.handleCreateCity)
	mux.HandleFunc("GET /api/cities", s.handleListCities)
	mux.HandleFunc("GET /api/cities/{id}/earthquakes", s.handleSearch)
	mux.HandleFunc("GET /api/results/{id}", s.handleResults)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleCreateCity(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	city, err := s.cities.CreateCity(r.Context(), domain.City{
		Name:      payload.Name,
		Latitude:  payload.Latitude,
		Longitude: payload.Longitude,
	})
	if err != nil {
		if errors.Is(err, registry.ErrDuplicateName) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Info("city registered", "city_id", city.ID, "name", city.Name)
	writeJSON(w, http.StatusCreated, city)
}

func (s *Server) handleListCities(w http.ResponseWriter, r *http.Request) {
	cities, err := s.cities.ListCities(r.Context())
	if err != nil {
		s.logger.Error("list cities failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if cities == nil {
		cities = []domain.City{}
	}
	writeJSON(w, http.StatusOK, cities)
}

// handleSearch validates the request, then submits the run to the job runner
// and answers with a pollable job id.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	cityID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid city id")
		return
	}

	startDate := r.URL.Query().Get("start_date")
	endDate := r.URL.Query().Get("end_date")
	if _, err := domain.ParseDateRange(startDate, endDate); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := s.cities.GetCity(r.Context(), cityID); err != nil {
		if errors.Is(err, domain.ErrCityNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("city lookup failed", "city_id", cityID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	jobID, err := s.runner.Submit(func(ctx context.Context) (any, error) {
		return s.searcher.Run(ctx, cityID, startDate, endDate)
	})
	if err != nil {
		if errors.Is(err, jobs.ErrQueueFull) {
			writeError(w, http.StatusServiceUnavailable, "search queue is full, retry later")
			return
		}
		s.logger.Error("job submit failed", "city_id", cityID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.logger.Debug("search accepted",
		"job_id", jobID,
		"city_id", cityID,
		"start_date", startDate,
		"end_date", endDate,
	)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"status": "accepted",
	})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	job, ok := s.runner.Poll(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown job id")
		return
	}

	switch job.State {
	case jobs.StatePending:
		writeJSON(w, http.StatusOK, map[string]string{"status": "pending"})
	case jobs.StateFailed:
		writeJSON(w, errorStatus(job.Err), map[string]string{
			"status": "failed",
			"error":  job.Err.Error(),
		})
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "done",
			"results": job.Result,
		})
	}
}

// errorStatus maps the run error taxonomy onto HTTP statuses.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrCityNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
