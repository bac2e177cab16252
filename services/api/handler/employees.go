package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/alex010501/TasksTracking/internal/domain"
	"github.com/alex010501/TasksTracking/internal/postgres"
	"github.com/alex010501/TasksTracking/internal/stats"
	"github.com/alex010501/TasksTracking/pkg/telemetry"
)

// CreateEmployeeRequest is the JSON body for POST /api/v1/employees.
type CreateEmployeeRequest struct {
	Name      string  `json:"name"`
	Position  string  `json:"position"`
	StartDate string  `json:"start_date"`
	Status    *string `json:"status,omitempty"`
}

// UpdateEmployeeRequest is the JSON body for PATCH /api/v1/employees/{id}.
// Absent fields keep their stored value.
type UpdateEmployeeRequest struct {
	Name        *string `json:"name,omitempty"`
	Position    *string `json:"position,omitempty"`
	Status      *string `json:"status,omitempty"`
	StatusStart *string `json:"status_start,omitempty"`
	StatusEnd   *string `json:"status_end,omitempty"`
}

// CreateEmployee handles POST /api/v1/employees.
func (h *REST) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("api").Start(r.Context(), "api.create_employee")
	defer span.End()

	var req CreateEmployeeRequest
	if err := decodeBody(w, r, &req); err != nil {
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "field 'name' is required")
		return
	}

	emp := &domain.Employee{
		Name:      strings.TrimSpace(req.Name),
		Position:  req.Position,
		StartDate: h.today(),
		Status:    domain.EmployeeActive,
	}
	if req.StartDate != "" {
		t, err := parseDate(req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'start_date', want YYYY-MM-DD")
			return
		}
		emp.StartDate = t
	}
	if req.Status != nil {
		st := domain.EmployeeStatus(*req.Status)
		if !st.Valid() {
			writeError(w, http.StatusBadRequest, "invalid 'status'")
			return
		}
		emp.Status = st
	}

	if err := h.employees.Create(ctx, emp); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	span.SetAttributes(attribute.Int64("employee.id", emp.ID))
	telemetry.APIEntitiesCreated.WithLabelValues("employee").Inc()
	h.logger.Info("employee created",
		slog.Int64("employee_id", emp.ID),
		slog.String("name", emp.Name),
	)

	writeJSON(w, http.StatusCreated, emp)
}

// ListEmployees handles GET /api/v1/employees. An optional 'query'
// parameter narrows by case-insensitive name match.
func (h *REST) ListEmployees(w http.ResponseWriter, r *http.Request) {
	emps, err := h.employees.List(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, emps)
}

// GetEmployee handles GET /api/v1/employees/{id}.
func (h *REST) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	emp, err := h.employees.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, emp)
}

// UpdateEmployee handles PATCH /api/v1/employees/{id}.
func (h *REST) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req UpdateEmployeeRequest
	if err := decodeBody(w, r, &req); err != nil {
		return
	}

	emp, err := h.employees.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			writeError(w, http.StatusBadRequest, "field 'name' cannot be empty")
			return
		}
		emp.Name = strings.TrimSpace(*req.Name)
	}
	if req.Position != nil {
		emp.Position = *req.Position
	}
	if req.Status != nil {
		st := domain.EmployeeStatus(*req.Status)
		if !st.Valid() {
			writeError(w, http.StatusBadRequest, "invalid 'status'")
			return
		}
		emp.Status = st
	}
	if req.StatusStart != nil {
		t, err := parseDate(*req.StatusStart)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'status_start', want YYYY-MM-DD")
			return
		}
		emp.StatusStart = &t
	}
	if req.StatusEnd != nil {
		t, err := parseDate(*req.StatusEnd)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'status_end', want YYYY-MM-DD")
			return
		}
		emp.StatusEnd = &t
	}

	if err := h.employees.Update(r.Context(), emp); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, emp)
}

// EmployeeTasks handles GET /api/v1/employees/{id}/tasks. Optional from/to
// narrow the result to tasks active inside the window.
func (h *REST) EmployeeTasks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	window, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// 404 for an unknown employee rather than an empty list.
	if _, err := h.employees.GetByID(r.Context(), id); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	tasks, err := h.tasks.List(r.Context(), postgres.TaskFilter{ExecutorID: &id})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	tasks = domain.FilterTasks(tasks, window, h.today())
	writeJSON(w, http.StatusOK, tasks)
}

// EmployeeScore handles GET /api/v1/employees/{id}/score.
func (h *REST) EmployeeScore(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	window, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.employees.GetByID(r.Context(), id); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	score, err := h.stats.EmployeeScore(r.Context(), id, window)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"employee_id": id,
		"score":       score,
		"from":        formatDatePtr(window.From),
		"to":          formatDatePtr(window.To),
	})
}

// TopEmployees handles GET /api/v1/employees/top. 'limit' defaults to 5.
func (h *REST) TopEmployees(w http.ResponseWriter, r *http.Request) {
	window, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := stats.DefaultTopN
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid 'limit'")
			return
		}
	}

	ranking, err := h.stats.TopEmployees(r.Context(), window, limit)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ranking)
}
