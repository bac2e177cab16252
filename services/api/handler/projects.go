package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/alex010501/TasksTracking/internal/domain"
	"github.com/alex010501/TasksTracking/internal/postgres"
	"github.com/alex010501/TasksTracking/pkg/telemetry"
)

// CreateProjectRequest is the JSON body for POST /api/v1/projects.
type CreateProjectRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Deadline    *string `json:"deadline,omitempty"`
}

// UpdateProjectRequest is the JSON body for PATCH /api/v1/projects/{id}.
type UpdateProjectRequest struct {
	Name          *string `json:"name,omitempty"`
	Description   *string `json:"description,omitempty"`
	Deadline      *string `json:"deadline,omitempty"`
	CompletedDate *string `json:"completed_date,omitempty"`
	Status        *string `json:"status,omitempty"`
}

// CreateStageRequest is the JSON body for POST /api/v1/projects/{id}/stages.
type CreateStageRequest struct {
	Name string `json:"name"`
}

// CreateProject handles POST /api/v1/projects.
func (h *REST) CreateProject(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("api").Start(r.Context(), "api.create_project")
	defer span.End()

	var req CreateProjectRequest
	if err := decodeBody(w, r, &req); err != nil {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "field 'name' is required")
		return
	}

	p := &domain.Project{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		CreatedDate: h.today(),
		Status:      domain.StatusInProgress,
	}
	if req.Deadline != nil {
		t, err := parseDate(*req.Deadline)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'deadline', want YYYY-MM-DD")
			return
		}
		p.Deadline = &t
	}

	if err := h.projects.Create(ctx, p); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	span.SetAttributes(attribute.Int64("project.id", p.ID))
	telemetry.APIEntitiesCreated.WithLabelValues("project").Inc()
	h.logger.Info("project created",
		slog.Int64("project_id", p.ID),
		slog.String("name", p.Name),
	)

	event := h.newEvent(domain.EventProjectCreated)
	event.ProjectID = &p.ID
	event.Name = p.Name
	event.Deadline = p.Deadline
	h.publishEvent(ctx, event, "project")

	writeJSON(w, http.StatusCreated, p)
}

// ListProjects handles GET /api/v1/projects. Supports query, status and a
// from/to window; the window keeps projects whose lifetime overlaps it,
// using the effective end for open deadlines.
func (h *REST) ListProjects(w http.ResponseWriter, r *http.Request) {
	window, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := postgres.ProjectFilter{Query: r.URL.Query().Get("query")}
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := domain.Status(raw)
		if !st.Known() {
			writeError(w, http.StatusBadRequest, "invalid 'status'")
			return
		}
		filter.Status = &st
	}

	projects, err := h.projects.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	projects = domain.FilterProjects(projects, window, h.today())
	writeJSON(w, http.StatusOK, projects)
}

// GetProject handles GET /api/v1/projects/{id}.
func (h *REST) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.projects.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateProject handles PATCH /api/v1/projects/{id}.
func (h *REST) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req UpdateProjectRequest
	if err := decodeBody(w, r, &req); err != nil {
		return
	}

	p, err := h.projects.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			writeError(w, http.StatusBadRequest, "field 'name' cannot be empty")
			return
		}
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Deadline != nil {
		if *req.Deadline == "" {
			p.Deadline = nil
		} else {
			t, err := parseDate(*req.Deadline)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid 'deadline', want YYYY-MM-DD")
				return
			}
			p.Deadline = &t
		}
	}
	if req.CompletedDate != nil {
		if *req.CompletedDate == "" {
			p.CompletedDate = nil
		} else {
			t, err := parseDate(*req.CompletedDate)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid 'completed_date', want YYYY-MM-DD")
				return
			}
			p.CompletedDate = &t
		}
	}
	if req.Status != nil {
		st := domain.Status(*req.Status)
		if !st.Known() {
			writeError(w, http.StatusBadRequest, "invalid 'status'")
			return
		}
		p.Status = st
		if st == domain.StatusDone && p.CompletedDate == nil {
			today := h.today()
			p.CompletedDate = &today
		}
	}

	if err := h.projects.Update(r.Context(), p); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeleteProject handles DELETE /api/v1/projects/{id}. Stages cascade away;
// tasks survive with their project reference cleared.
func (h *REST) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.projects.Delete(r.Context(), id); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	h.logger.Info("project deleted", slog.Int64("project_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// ProjectScore handles GET /api/v1/projects/{id}/score.
func (h *REST) ProjectScore(w http.ResponseWriter, r *http.Request) {
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

	if _, err := h.projects.GetByID(r.Context(), id); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	score, err := h.stats.ProjectScore(r.Context(), id, window)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"project_id": id,
		"score":      score,
		"from":       formatDatePtr(window.From),
		"to":         formatDatePtr(window.To),
	})
}

// CreateStage handles POST /api/v1/projects/{id}/stages.
func (h *REST) CreateStage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req CreateStageRequest
	if err := decodeBody(w, r, &req); err != nil {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "field 'name' is required")
		return
	}

	if _, err := h.projects.GetByID(r.Context(), id); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	stage := &domain.Stage{ProjectID: id, Name: strings.TrimSpace(req.Name)}
	if err := h.projects.CreateStage(r.Context(), stage); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	telemetry.APIEntitiesCreated.WithLabelValues("stage").Inc()
	writeJSON(w, http.StatusCreated, stage)
}

// ListStages handles GET /api/v1/projects/{id}/stages.
func (h *REST) ListStages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.projects.GetByID(r.Context(), id); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	stages, err := h.projects.ListStages(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stages)
}

// StageTasks handles GET /api/v1/projects/{id}/stages/{stageID}/tasks.
func (h *REST) StageTasks(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stageID, err := pathID(r, "stageID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stage, err := h.projects.GetStage(r.Context(), stageID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if stage.ProjectID != projectID {
		writeDomainError(w, h.logger, &domain.StageMismatchError{StageID: stageID, ProjectID: projectID})
		return
	}

	tasks, err := h.tasks.List(r.Context(), postgres.TaskFilter{StageID: &stageID})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}
