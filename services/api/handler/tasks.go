package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/alex010501/TasksTracking/internal/domain"
	"github.com/alex010501/TasksTracking/internal/postgres"
	"github.com/alex010501/TasksTracking/pkg/telemetry"
)

// CreateTaskRequest is the JSON body for POST /api/v1/tasks.
type CreateTaskRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Deadline    string  `json:"deadline"`
	Difficulty  *int    `json:"difficulty,omitempty"`
	ExecutorIDs []int64 `json:"executor_ids,omitempty"`
	ProjectID   *int64  `json:"project_id,omitempty"`
	StageID     *int64  `json:"stage_id,omitempty"`
}

// UpdateTaskRequest is the JSON body for PATCH /api/v1/tasks/{id}.
type UpdateTaskRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Deadline    *string  `json:"deadline,omitempty"`
	Difficulty  *int     `json:"difficulty,omitempty"`
	ExecutorIDs *[]int64 `json:"executor_ids,omitempty"`
	ProjectID   *int64   `json:"project_id,omitempty"`
	StageID     *int64   `json:"stage_id,omitempty"`
}

// CompleteTaskRequest is the JSON body for POST /api/v1/tasks/{id}/complete.
// The completion date defaults to today.
type CompleteTaskRequest struct {
	CompletedDate *string `json:"completed_date,omitempty"`
}

// validateStage checks that the referenced stage exists and belongs to the
// given project.
func (h *REST) validateStage(r *http.Request, stageID int64, projectID *int64) error {
	stage, err := h.projects.GetStage(r.Context(), stageID)
	if err != nil {
		return err
	}
	if projectID == nil || stage.ProjectID != *projectID {
		pid := int64(0)
		if projectID != nil {
			pid = *projectID
		}
		return &domain.StageMismatchError{StageID: stageID, ProjectID: pid}
	}
	return nil
}

// CreateTask handles POST /api/v1/tasks.
func (h *REST) CreateTask(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("api").Start(r.Context(), "api.create_task")
	defer span.End()
	r = r.WithContext(ctx)

	var req CreateTaskRequest
	if err := decodeBody(w, r, &req); err != nil {
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "field 'name' is required")
		return
	}
	if req.Deadline == "" {
		writeError(w, http.StatusBadRequest, "field 'deadline' is required")
		return
	}
	deadline, err := parseDate(req.Deadline)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid 'deadline', want YYYY-MM-DD")
		return
	}

	executors := domain.NormalizeExecutorIDs(req.ExecutorIDs)
	if len(executors) == 0 {
		writeError(w, http.StatusBadRequest, "field 'executor_ids' must contain at least one positive employee id")
		return
	}

	difficulty := domain.DifficultyMedium
	if req.Difficulty != nil {
		if *req.Difficulty <= 0 {
			writeError(w, http.StatusBadRequest, "field 'difficulty' must be positive")
			return
		}
		difficulty = *req.Difficulty
	}

	if req.ProjectID != nil {
		if _, err := h.projects.GetByID(ctx, *req.ProjectID); err != nil {
			writeDomainError(w, h.logger, err)
			return
		}
	}
	if req.StageID != nil {
		if err := h.validateStage(r, *req.StageID, req.ProjectID); err != nil {
			writeDomainError(w, h.logger, err)
			return
		}
	}

	task := &domain.Task{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		CreatedDate: h.today(),
		Deadline:    deadline,
		Difficulty:  difficulty,
		Status:      domain.StatusInProgress,
		ExecutorIDs: executors,
		ProjectID:   req.ProjectID,
		StageID:     req.StageID,
	}

	if err := h.tasks.Create(ctx, task); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create task failed")
		writeDomainError(w, h.logger, err)
		return
	}

	span.SetAttributes(attribute.Int64("task.id", task.ID))
	telemetry.APIEntitiesCreated.WithLabelValues("task").Inc()
	h.logger.Info("task created",
		slog.Int64("task_id", task.ID),
		slog.String("name", task.Name),
		slog.Int("difficulty", task.Difficulty),
	)

	event := h.newEvent(domain.EventTaskCreated)
	event.TaskID = &task.ID
	event.Name = task.Name
	event.Deadline = &task.Deadline
	event.ExecutorIDs = task.ExecutorIDs
	h.publishEvent(ctx, event, "task")

	writeJSON(w, http.StatusCreated, task)
}

// ListTasks handles GET /api/v1/tasks. Supports query, status, unassigned
// and a from/to activity window.
func (h *REST) ListTasks(w http.ResponseWriter, r *http.Request) {
	window, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := postgres.TaskFilter{
		Query:      r.URL.Query().Get("query"),
		Unassigned: r.URL.Query().Get("unassigned") == "true",
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := domain.Status(raw)
		if !st.Known() {
			writeError(w, http.StatusBadRequest, "invalid 'status'")
			return
		}
		filter.Status = &st
	}

	tasks, err := h.tasks.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	tasks = domain.FilterTasks(tasks, window, h.today())
	writeJSON(w, http.StatusOK, tasks)
}

// GetTask handles GET /api/v1/tasks/{id}.
func (h *REST) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	task, err := h.tasks.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// UpdateTask handles PATCH /api/v1/tasks/{id}.
func (h *REST) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req UpdateTaskRequest
	if err := decodeBody(w, r, &req); err != nil {
		return
	}

	task, err := h.tasks.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			writeError(w, http.StatusBadRequest, "field 'name' cannot be empty")
			return
		}
		task.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Deadline != nil {
		t, err := parseDate(*req.Deadline)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'deadline', want YYYY-MM-DD")
			return
		}
		task.Deadline = t
	}
	if req.Difficulty != nil {
		if *req.Difficulty <= 0 {
			writeError(w, http.StatusBadRequest, "field 'difficulty' must be positive")
			return
		}
		task.Difficulty = *req.Difficulty
	}
	if req.ExecutorIDs != nil {
		executors := domain.NormalizeExecutorIDs(*req.ExecutorIDs)
		if len(executors) == 0 {
			writeError(w, http.StatusBadRequest, "field 'executor_ids' must contain at least one positive employee id")
			return
		}
		task.ExecutorIDs = executors
	}
	if req.ProjectID != nil {
		if _, err := h.projects.GetByID(r.Context(), *req.ProjectID); err != nil {
			writeDomainError(w, h.logger, err)
			return
		}
		task.ProjectID = req.ProjectID
	}
	if req.StageID != nil {
		if err := h.validateStage(r, *req.StageID, task.ProjectID); err != nil {
			writeDomainError(w, h.logger, err)
			return
		}
		task.StageID = req.StageID
	}

	if err := h.tasks.Update(r.Context(), task); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// CompleteTask handles POST /api/v1/tasks/{id}/complete: records the
// completion date and moves the task to DONE. Completing an already done
// task is rejected; completing an overdue one is allowed, late work still
// counts.
func (h *REST) CompleteTask(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("api").Start(r.Context(), "api.complete_task")
	defer span.End()

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req CompleteTaskRequest
	if r.ContentLength > 0 {
		if err := decodeBody(w, r, &req); err != nil {
			return
		}
	}

	task, err := h.tasks.GetByID(ctx, id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if task.Status == domain.StatusDone {
		writeError(w, http.StatusConflict, "task is already completed")
		return
	}

	completed := h.today()
	if req.CompletedDate != nil {
		completed, err = parseDate(*req.CompletedDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'completed_date', want YYYY-MM-DD")
			return
		}
	}

	task.Status = domain.StatusDone
	task.CompletedDate = &completed

	if err := h.tasks.Update(ctx, task); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "complete task failed")
		writeDomainError(w, h.logger, err)
		return
	}

	span.SetAttributes(
		attribute.Int64("task.id", task.ID),
		attribute.Int("task.score", task.Score()),
	)
	telemetry.APITasksCompleted.Inc()
	h.logger.Info("task completed",
		slog.Int64("task_id", task.ID),
		slog.Int("score", task.Score()),
	)

	event := h.newEvent(domain.EventTaskCompleted)
	event.TaskID = &task.ID
	event.Name = task.Name
	event.Deadline = &task.Deadline
	event.ExecutorIDs = task.ExecutorIDs
	h.publishEvent(ctx, event, "task")

	writeJSON(w, http.StatusOK, task)
}

// TaskScore handles GET /api/v1/tasks/{id}/score.
func (h *REST) TaskScore(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	task, err := h.tasks.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"task_id": task.ID,
		"score":   task.Score(),
	})
}
