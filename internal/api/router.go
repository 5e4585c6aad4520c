package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"castos/internal/logging"
	"castos/internal/queue"
	"castos/internal/workflow"
)

const maxBodyBytes = 1 << 20

// Dispatcher is woken after a submission and reports workflow state.
type Dispatcher interface {
	Notify()
	Status(ctx context.Context) workflow.StatusSummary
}

// Server holds the HTTP handlers.
type Server struct {
	jobs       *JobService
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewServer constructs the handlers. dispatcher may be nil when the API runs
// without a background worker.
func NewServer(jobs *JobService, dispatcher Dispatcher, logger *slog.Logger) *Server {
	return &Server{
		jobs:       jobs,
		dispatcher: dispatcher,
		logger:     logging.NewComponentLogger(logger, "api-server"),
	}
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/api/health", s.handleHealth)
	r.Route("/api/jobs", func(r chi.Router) {
		r.Post("/", s.handleSubmit)
		r.Get("/", s.handleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleDescribe)
			r.Delete("/", s.handleRemove)
		})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			s.writeError(w, http.StatusBadRequest, "request body is required")
			return
		}
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	job, err := s.jobs.Submit(r.Context(), req)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation failed", Fields: verr.Fields})
			return
		}
		s.serverError(w, r, "submit job", err)
		return
	}
	if s.dispatcher != nil {
		s.dispatcher.Notify()
	}
	logging.WithContext(r.Context(), s.logger).Info("job submitted",
		logging.String(logging.FieldEventType, "job_submitted"),
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String("title", job.Title),
		logging.Float64("budget_cap", job.BudgetCap),
		logging.String("industry", job.Industry),
	)
	w.Header().Set("Location", "/api/jobs/"+strconv.FormatInt(job.ID, 10))
	s.writeJSON(w, http.StatusAccepted, SubmitResponse{ID: job.ID, Status: job.Status})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	var statuses []queue.Status
	for _, value := range r.URL.Query()["status"] {
		for _, part := range strings.Split(value, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			status, ok := queue.ParseStatus(strings.ToLower(strings.TrimSpace(part)))
			if !ok {
				s.writeError(w, http.StatusBadRequest, "unknown status "+strconv.Quote(strings.TrimSpace(part)))
				return
			}
			statuses = append(statuses, status)
		}
	}
	jobs, err := s.jobs.List(r.Context(), statuses...)
	if err != nil {
		s.serverError(w, r, "list jobs", err)
		return
	}
	s.writeJSON(w, http.StatusOK, JobListResponse{Jobs: jobs})
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	id, ok := s.jobID(w, r)
	if !ok {
		return
	}
	job, err := s.jobs.Describe(r.Context(), id)
	if err != nil {
		s.serverError(w, r, "describe job", err)
		return
	}
	if job == nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := s.jobID(w, r)
	if !ok {
		return
	}
	removed, err := s.jobs.Remove(r.Context(), id)
	if err != nil {
		s.serverError(w, r, "remove job", err)
		return
	}
	if !removed {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	logging.WithContext(r.Context(), s.logger).Info("job removed",
		logging.String(logging.FieldEventType, "job_removed"),
		logging.Int64(logging.FieldJobID, id),
	)
	s.writeJSON(w, http.StatusOK, RemoveResponse{Removed: true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Database: "ok"}
	if err := s.jobs.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Database = err.Error()
	}
	if stats, err := s.jobs.Stats(ctx); err == nil {
		resp.QueueStats = stats
	}
	if s.dispatcher != nil {
		summary := s.dispatcher.Status(ctx)
		resp.InFlight = summary.InFlight
		resp.LastError = summary.LastError
	}
	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) jobID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid job id")
		return 0, false
	}
	return id, true
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "api request failed", "api_error",
		logging.String("operation", op),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check job database access"),
	)
	s.writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
