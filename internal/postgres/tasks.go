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

// TaskFilter narrows List. Zero values mean "no constraint". Date-window
// filtering is deliberately absent here: the effective-end overlap rule is
// applied in memory by domain.FilterTasks so it stays storage-agnostic.
type TaskFilter struct {
	Query      string
	Status     *domain.Status
	ProjectID  *int64
	StageID    *int64
	ExecutorID *int64
	Unassigned bool
}

// TaskRepository abstracts database access for tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	List(ctx context.Context, f TaskFilter) ([]*domain.Task, error)
	ListCompletedBetween(ctx context.Context, from, to time.Time) ([]*domain.Task, error)
	MarkOverdue(ctx context.Context, today time.Time) ([]*domain.Task, error)
}

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository wraps a pgxpool with the TaskRepository interface.
func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &taskRepository{pool: pool}
}

const taskColumns = `id, name, description, created_date, deadline, completed_date,
       difficulty, status, executor_ids, project_id, stage_id`

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO tasks
			(name, description, created_date, deadline, completed_date,
			 difficulty, status, executor_ids, project_id, stage_id)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`,
		task.Name, task.Description, task.CreatedDate, task.Deadline, task.CompletedDate,
		task.Difficulty, string(task.Status), domain.EncodeExecutorIDs(task.ExecutorIDs),
		task.ProjectID, task.StageID,
	).Scan(&task.ID)
	if err != nil {
		return fmt.Errorf("create task %q: %w", task.Name, err)
	}
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	return scanTask(row, id)
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tasks
		SET name = $1, description = $2, created_date = $3, deadline = $4,
		    completed_date = $5, difficulty = $6, status = $7,
		    executor_ids = $8, project_id = $9, stage_id = $10
		WHERE id = $11
	`,
		task.Name, task.Description, task.CreatedDate, task.Deadline,
		task.CompletedDate, task.Difficulty, string(task.Status),
		domain.EncodeExecutorIDs(task.ExecutorIDs), task.ProjectID, task.StageID,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task %d: %w", task.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "task", ID: task.ID}
	}
	return nil
}

// List returns tasks matching f, ordered by id.
func (r *taskRepository) List(ctx context.Context, f TaskFilter) ([]*domain.Task, error) {
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
	if f.ProjectID != nil {
		conds = append(conds, "project_id = "+arg(*f.ProjectID))
	}
	if f.StageID != nil {
		conds = append(conds, "stage_id = "+arg(*f.StageID))
	}
	if f.Unassigned {
		conds = append(conds, "project_id IS NULL AND stage_id IS NULL")
	}
	if f.ExecutorID != nil {
		// Containment test against the CSV executor column: the id is the
		// whole value, the first token, a middle token or the last token.
		id := strconv.FormatInt(*f.ExecutorID, 10)
		conds = append(conds, fmt.Sprintf(
			"(executor_ids = %s OR executor_ids LIKE %s OR executor_ids LIKE %s OR executor_ids LIKE %s)",
			arg(id), arg(id+",%"), arg("%,"+id+",%"), arg("%,"+id),
		))
	}

	sql := `SELECT ` + taskColumns + ` FROM tasks`
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	sql += " ORDER BY id ASC"

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// ListCompletedBetween returns tasks whose completion date falls inside the
// inclusive [from, to] range, the input to every score aggregation.
func (r *taskRepository) ListCompletedBetween(ctx context.Context, from, to time.Time) ([]*domain.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE completed_date IS NOT NULL
		  AND completed_date >= $1
		  AND completed_date <= $2
		ORDER BY id ASC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list completed tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// MarkOverdue flips every in-progress task with a deadline strictly before
// today to OVERDUE, in one statement so a batch commits entirely or not at
// all, and returns the transitioned rows.
func (r *taskRepository) MarkOverdue(ctx context.Context, today time.Time) ([]*domain.Task, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE tasks
		SET status = $1
		WHERE status = $2 AND deadline < $3
		RETURNING `+taskColumns+`
	`, string(domain.StatusOverdue), string(domain.StatusInProgress), today)
	if err != nil {
		return nil, fmt.Errorf("mark overdue tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

func collectTasks(rows pgx.Rows) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows, 0)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func scanTask(row pgx.Row, id int64) (*domain.Task, error) {
	var task domain.Task
	var statusStr, executorCSV string
	err := row.Scan(
		&task.ID, &task.Name, &task.Description, &task.CreatedDate, &task.Deadline,
		&task.CompletedDate, &task.Difficulty, &statusStr, &executorCSV,
		&task.ProjectID, &task.StageID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: "task", ID: id}
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	task.Status = domain.Status(statusStr)
	task.ExecutorIDs = domain.DecodeExecutorIDs(executorCSV)
	return &task, nil
}
