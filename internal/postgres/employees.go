package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alex010501/TasksTracking/internal/domain"
)

// EmployeeRepository abstracts database access for employees. There is no
// Delete: employee records carry a soft lifecycle status instead.
type EmployeeRepository interface {
	Create(ctx context.Context, emp *domain.Employee) error
	GetByID(ctx context.Context, id int64) (*domain.Employee, error)
	Update(ctx context.Context, emp *domain.Employee) error
	List(ctx context.Context, query string) ([]*domain.Employee, error)
}

type employeeRepository struct {
	pool *pgxpool.Pool
}

// NewEmployeeRepository wraps a pgxpool with the EmployeeRepository interface.
func NewEmployeeRepository(pool *pgxpool.Pool) EmployeeRepository {
	return &employeeRepository{pool: pool}
}

func (r *employeeRepository) Create(ctx context.Context, emp *domain.Employee) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO employees
			(name, position, start_date, status, status_start, status_end)
		VALUES
			($1, $2, $3, $4, $5, $6)
		RETURNING id
	`,
		emp.Name, emp.Position, emp.StartDate,
		string(emp.Status), emp.StatusStart, emp.StatusEnd,
	).Scan(&emp.ID)
	if err != nil {
		return fmt.Errorf("create employee %q: %w", emp.Name, err)
	}
	return nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, position, start_date, status, status_start, status_end
		FROM employees
		WHERE id = $1
	`, id)
	return scanEmployee(row, id)
}

func (r *employeeRepository) Update(ctx context.Context, emp *domain.Employee) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE employees
		SET name = $1, position = $2, start_date = $3,
		    status = $4, status_start = $5, status_end = $6
		WHERE id = $7
	`,
		emp.Name, emp.Position, emp.StartDate,
		string(emp.Status), emp.StatusStart, emp.StatusEnd, emp.ID,
	)
	if err != nil {
		return fmt.Errorf("update employee %d: %w", emp.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "employee", ID: emp.ID}
	}
	return nil
}

// List returns employees ordered by id, optionally narrowed by a
// case-insensitive name search.
func (r *employeeRepository) List(ctx context.Context, query string) ([]*domain.Employee, error) {
	sql := `
		SELECT id, name, position, start_date, status, status_start, status_end
		FROM employees
	`
	var args []any
	if query != "" {
		sql += ` WHERE lower(name) LIKE lower($1)`
		args = append(args, "%"+query+"%")
	}
	sql += ` ORDER BY id ASC`

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var emps []*domain.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows, 0)
		if err != nil {
			return nil, err
		}
		emps = append(emps, emp)
	}
	return emps, rows.Err()
}

func scanEmployee(row pgx.Row, id int64) (*domain.Employee, error) {
	var emp domain.Employee
	var statusStr string
	err := row.Scan(
		&emp.ID, &emp.Name, &emp.Position, &emp.StartDate,
		&statusStr, &emp.StatusStart, &emp.StatusEnd,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: "employee", ID: id}
		}
		return nil, fmt.Errorf("scan employee: %w", err)
	}
	emp.Status = domain.EmployeeStatus(statusStr)
	return &emp, nil
}
