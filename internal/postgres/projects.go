package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alex010501/TasksTracking/internal/domain"
)

// ProjectFilter narrows List. As with tasks, date-window filtering happens
// in memory via domain.FilterProjects.
type ProjectFilter struct {
	Query  string
	Status *domain.Status
}

// ProjectRepository abstracts database access for projects and their stages.
type ProjectRepository interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id int64) (*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f ProjectFilter) ([]*domain.Project, error)
	MarkOverdue(ctx context.Context, today time.Time) ([]*domain.Project, error)

	CreateStage(ctx context.Context, s *domain.Stage) error
	GetStage(ctx context.Context, id int64) (*domain.Stage, error)
	ListStages(ctx context.Context, projectID int64) ([]*domain.Stage, error)
}

type projectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository wraps a pgxpool with the ProjectRepository interface.
func NewProjectRepository(pool *pgxpool.Pool) ProjectRepository {
	return &projectRepository{pool: pool}
}

const projectColumns = `id, name, description, created_date, deadline, completed_date, status`

func (r *projectRepository) Create(ctx context.Context, p *domain.Project) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO projects
			(name, description, created_date, deadline, completed_date, status)
		VALUES
			($1, $2, $3, $4, $5, $6)
		RETURNING id
	`,
		p.Name, p.Description, p.CreatedDate, p.Deadline, p.CompletedDate, string(p.Status),
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("create project %q: %w", p.Name, err)
	}
	return nil
}

func (r *projectRepository) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	return scanProject(row, id)
}

func (r *projectRepository) Update(ctx context.Context, p *domain.Project) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE projects
		SET name = $1, description = $2, created_date = $3,
		    deadline = $4, completed_date = $5, status = $6
		WHERE id = $7
	`,
		p.Name, p.Description, p.CreatedDate, p.Deadline, p.CompletedDate,
		string(p.Status), p.ID,
	)
	if err != nil {
		return fmt.Errorf("update project %d: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "project", ID: p.ID}
	}
	return nil
}

// Delete removes a project. Stages go with it (ON DELETE CASCADE); tasks
// survive with their project and stage references nulled out.
func (r *projectRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "project", ID: id}
	}
	return nil
}

// List returns projects matching f, ordered by id.
func (r *projectRepository) List(ctx context.Context, f ProjectFilter) ([]*domain.Project, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.Query != "" {
		conds = append(conds, "lower(name) LIKE lower("+arg("%"+f.Query+"%")+")")
	}
	if f.Status != nil {
		conds = append(conds, "status = "+arg(string(*f.Status)))
	}

	sql := `SELECT ` + projectColumns + ` FROM projects`
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	sql += " ORDER BY id ASC"

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()
	return collectProjects(rows)
}

// MarkOverdue flips every in-progress project whose deadline passed to
// OVERDUE. Projects without a deadline are never selected.
func (r *projectRepository) MarkOverdue(ctx context.Context, today time.Time) ([]*domain.Project, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE projects
		SET status = $1
		WHERE status = $2 AND deadline IS NOT NULL AND deadline < $3
		RETURNING `+projectColumns+`
	`, string(domain.StatusOverdue), string(domain.StatusInProgress), today)
	if err != nil {
		return nil, fmt.Errorf("mark overdue projects: %w", err)
	}
	defer rows.Close()
	return collectProjects(rows)
}

func (r *projectRepository) CreateStage(ctx context.Context, s *domain.Stage) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO project_stages (project_id, name)
		VALUES ($1, $2)
		RETURNING id
	`, s.ProjectID, s.Name).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("create stage %q for project %d: %w", s.Name, s.ProjectID, err)
	}
	return nil
}

func (r *projectRepository) GetStage(ctx context.Context, id int64) (*domain.Stage, error) {
	var s domain.Stage
	err := r.pool.QueryRow(ctx, `
		SELECT id, project_id, name FROM project_stages WHERE id = $1
	`, id).Scan(&s.ID, &s.ProjectID, &s.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: "stage", ID: id}
		}
		return nil, fmt.Errorf("scan stage: %w", err)
	}
	return &s, nil
}

// ListStages returns a project's stages in insertion order, which is the
// display order.
func (r *projectRepository) ListStages(ctx context.Context, projectID int64) ([]*domain.Stage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, name
		FROM project_stages
		WHERE project_id = $1
		ORDER BY id ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list stages for project %d: %w", projectID, err)
	}
	defer rows.Close()

	var stages []*domain.Stage
	for rows.Next() {
		var s domain.Stage
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		stages = append(stages, &s)
	}
	return stages, rows.Err()
}

func collectProjects(rows pgx.Rows) ([]*domain.Project, error) {
	var projects []*domain.Project
	for rows.Next() {
		p, err := scanProject(rows, 0)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func scanProject(row pgx.Row, id int64) (*domain.Project, error) {
	var p domain.Project
	var statusStr string
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.CreatedDate,
		&p.Deadline, &p.CompletedDate, &statusStr,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: "project", ID: id}
		}
		return nil, fmt.Errorf("scan project: %w", err)
	}
	p.Status = domain.Status(statusStr)
	return &p, nil
}
