// Package handler implements the REST surface of the tracking API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/alex010501/TasksTracking/internal/domain"
	"github.com/alex010501/TasksTracking/internal/kafka"
	"github.com/alex010501/TasksTracking/internal/postgres"
	"github.com/alex010501/TasksTracking/internal/stats"
	"github.com/alex010501/TasksTracking/internal/sweeper"
)

const (
	eventsTopic = "tasks.events"
	dateLayout  = "2006-01-02"
)

// REST handles HTTP requests for the tracking API.
type REST struct {
	employees  postgres.EmployeeRepository
	projects   postgres.ProjectRepository
	tasks      postgres.TaskRepository
	stats      *stats.Aggregator
	sweeper    *sweeper.Sweeper
	producer   kafka.Producer
	redis      *redis.Client
	department string
	logger     *slog.Logger

	// now is swappable in tests.
	now func() time.Time
}

// NewREST creates a new REST handler.
func NewREST(
	employees postgres.EmployeeRepository,
	projects postgres.ProjectRepository,
	tasks postgres.TaskRepository,
	aggregator *stats.Aggregator,
	sw *sweeper.Sweeper,
	producer kafka.Producer,
	redisClient *redis.Client,
	department string,
	logger *slog.Logger,
) *REST {
	return &REST{
		employees:  employees,
		projects:   projects,
		tasks:      tasks,
		stats:      aggregator,
		sweeper:    sw,
		producer:   producer,
		redis:      redisClient,
		department: department,
		logger:     logger,
		now:        time.Now,
	}
}

// Routes mounts every API route on r.
func (h *REST) Routes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Post("/", h.CreateEmployee)
		r.Get("/", h.ListEmployees)
		r.Get("/top", h.TopEmployees)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetEmployee)
			r.Patch("/", h.UpdateEmployee)
			r.Get("/tasks", h.EmployeeTasks)
			r.Get("/score", h.EmployeeScore)
		})
	})
	r.Route("/projects", func(r chi.Router) {
		r.Post("/", h.CreateProject)
		r.Get("/", h.ListProjects)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetProject)
			r.Patch("/", h.UpdateProject)
			r.Delete("/", h.DeleteProject)
			r.Get("/score", h.ProjectScore)
			r.Post("/stages", h.CreateStage)
			r.Get("/stages", h.ListStages)
			r.Get("/stages/{stageID}/tasks", h.StageTasks)
		})
	})
	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", h.CreateTask)
		r.Get("/", h.ListTasks)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTask)
			r.Patch("/", h.UpdateTask)
			r.Post("/complete", h.CompleteTask)
			r.Get("/score", h.TaskScore)
		})
	})
	r.Get("/stats/department", h.DepartmentScore)
	r.Post("/admin/sweep", h.TriggerSweep)
}

// today is the calendar date used by every temporal computation in a
// single request.
func (h *REST) today() time.Time {
	return domain.DateOnly(h.now().UTC())
}

// Healthz handles GET /healthz.
func (h *REST) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// Readyz handles GET /readyz. Checks Redis connectivity.
func (h *REST) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			writeError(w, http.StatusServiceUnavailable, "redis not ready")
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// DepartmentScore handles GET /api/v1/stats/department.
func (h *REST) DepartmentScore(w http.ResponseWriter, r *http.Request) {
	window, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	score, err := h.stats.DepartmentScore(r.Context(), window)
	if err != nil {
		h.logger.Error("department score", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to compute department score")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"department": h.department,
		"score":      score,
		"from":       formatDatePtr(window.From),
		"to":         formatDatePtr(window.To),
	})
}

// TriggerSweep handles POST /api/v1/admin/sweep: runs the overdue sweep
// immediately instead of waiting for the schedule.
func (h *REST) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	n, err := h.sweeper.Sweep(r.Context(), h.today())
	if err != nil {
		h.logger.Error("manual sweep", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "sweep failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transitions": n})
}

// publishEvent sends a lifecycle event to Kafka. Best effort: the state
// change is already committed, a delivery failure is only logged.
func (h *REST) publishEvent(ctx context.Context, event *domain.Event, key string) {
	if h.producer == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("marshal event", slog.String("error", err.Error()))
		return
	}
	if err := h.producer.Publish(ctx, eventsTopic, key, payload); err != nil {
		h.logger.Error("publish event",
			slog.String("kind", string(event.Kind)),
			slog.String("error", err.Error()),
		)
	}
}

func (h *REST) newEvent(kind domain.EventKind) *domain.Event {
	return &domain.Event{
		ID:         uuid.New().String(),
		Kind:       kind,
		OccurredAt: h.now().UTC(),
	}
}

// ── request parsing helpers ──────────────────────────────────────────────

// decodeBody unmarshals the request body into v, writing a 400 on failure.
// Callers just return when an error comes back.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return err
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// parseWindow reads the optional from/to query parameters. Either side may
// be absent; downstream filtering only applies when both are present.
func parseWindow(r *http.Request) (domain.Window, error) {
	var w domain.Window
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return w, errors.New("invalid 'from' date, want YYYY-MM-DD")
		}
		w.From = &t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return w, errors.New("invalid 'to' date, want YYYY-MM-DD")
		}
		w.To = &t
	}
	if w.Bounded() && w.To.Before(*w.From) {
		return w, errors.New("'to' precedes 'from'")
	}
	return w, nil
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse(dateLayout, raw)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

// ── response helpers ─────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeDomainError maps domain error types onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		notFound   *domain.NotFoundError
		validation *domain.ValidationError
		mismatch   *domain.StageMismatchError
	)
	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &mismatch):
		writeError(w, http.StatusBadRequest, mismatch.Error())
	default:
		logger.Error("request failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
