// Package stats computes score aggregates over employees, projects and the
// whole department. All aggregation runs in memory over one completed-task
// scan per query; Redis only caches the results.
package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/alex010501/TasksTracking/internal/domain"
	"github.com/alex010501/TasksTracking/internal/postgres"
	redisstore "github.com/alex010501/TasksTracking/internal/redis"
	"github.com/alex010501/TasksTracking/pkg/telemetry"
)

// DefaultTopN is the ranking size when the caller does not ask for one.
const DefaultTopN = 5

// windowMax is the upper bound substituted for an open window side. The
// zero time covers the lower side.
var windowMax = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// Aggregator answers score queries against the task repository.
//
// countPerExecutor controls the department rollup: when true (the
// historical behaviour) a task with N executors contributes its score N
// times, because the total is defined as the sum of per-employee scores.
// When false each completed task counts once.
type Aggregator struct {
	employees        postgres.EmployeeRepository
	tasks            postgres.TaskRepository
	cache            redisstore.ScoreCache // nil disables caching
	countPerExecutor bool
	logger           *slog.Logger
}

// NewAggregator constructs an Aggregator. cache may be nil.
func NewAggregator(
	employees postgres.EmployeeRepository,
	tasks postgres.TaskRepository,
	cache redisstore.ScoreCache,
	countPerExecutor bool,
	logger *slog.Logger,
) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		employees:        employees,
		tasks:            tasks,
		cache:            cache,
		countPerExecutor: countPerExecutor,
		logger:           logger,
	}
}

func bounds(w domain.Window) (time.Time, time.Time) {
	from := time.Time{}
	to := windowMax
	if w.From != nil {
		from = *w.From
	}
	if w.To != nil {
		to = *w.To
	}
	return from, to
}

// EmployeeScore sums the score of every task whose executor set contains
// employeeID and whose completion date lies inside the window. Incomplete
// tasks are excluded by the completion-date predicate and would contribute
// zero anyway.
func (a *Aggregator) EmployeeScore(ctx context.Context, employeeID int64, w domain.Window) (int, error) {
	telemetry.StatsQueriesTotal.WithLabelValues("employee").Inc()

	key := redisstore.ScoreKey("employee", employeeID, w)
	if score, ok := a.cachedScore(ctx, key); ok {
		return score, nil
	}

	from, to := bounds(w)
	tasks, err := a.tasks.ListCompletedBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("employee %d score: %w", employeeID, err)
	}

	total := 0
	for _, t := range tasks {
		if t.HasExecutor(employeeID) {
			total += t.Score()
		}
	}
	a.storeScore(ctx, key, total)
	return total, nil
}

// ProjectScore sums the score of the project's tasks completed inside the
// window.
func (a *Aggregator) ProjectScore(ctx context.Context, projectID int64, w domain.Window) (int, error) {
	telemetry.StatsQueriesTotal.WithLabelValues("project").Inc()

	key := redisstore.ScoreKey("project", projectID, w)
	if score, ok := a.cachedScore(ctx, key); ok {
		return score, nil
	}

	from, to := bounds(w)
	tasks, err := a.tasks.ListCompletedBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("project %d score: %w", projectID, err)
	}

	total := 0
	for _, t := range tasks {
		if t.ProjectID != nil && *t.ProjectID == projectID {
			total += t.Score()
		}
	}
	a.storeScore(ctx, key, total)
	return total, nil
}

// DepartmentScore sums employee scores across the department for the
// window. See the countPerExecutor note on Aggregator for the multi-executor
// counting rule.
func (a *Aggregator) DepartmentScore(ctx context.Context, w domain.Window) (int, error) {
	telemetry.StatsQueriesTotal.WithLabelValues("department").Inc()

	key := redisstore.ScoreKey("department", 0, w)
	if score, ok := a.cachedScore(ctx, key); ok {
		return score, nil
	}

	from, to := bounds(w)
	tasks, err := a.tasks.ListCompletedBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("department score: %w", err)
	}

	total := 0
	if a.countPerExecutor {
		known, err := a.employeeIDs(ctx)
		if err != nil {
			return 0, err
		}
		for _, t := range tasks {
			score := t.Score()
			for _, id := range t.ExecutorIDs {
				if _, ok := known[id]; ok {
					total += score
				}
			}
		}
	} else {
		for _, t := range tasks {
			total += t.Score()
		}
	}
	a.storeScore(ctx, key, total)
	return total, nil
}

// TopEmployees ranks every employee by window score, descending. Ties keep
// ascending employee-ID order (the input is id-ordered and the sort is
// stable). n <= 0 yields an empty ranking.
func (a *Aggregator) TopEmployees(ctx context.Context, w domain.Window, n int) ([]domain.EmployeeScore, error) {
	telemetry.StatsQueriesTotal.WithLabelValues("top").Inc()

	if n <= 0 {
		return []domain.EmployeeScore{}, nil
	}

	key := redisstore.ScoreKey("top", int64(n), w)
	if a.cache != nil {
		if ranking, err := a.cache.GetRanking(ctx, key); err == nil {
			return ranking, nil
		} else if !errors.Is(err, redisstore.ErrCacheMiss) {
			a.logger.Warn("score cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}

	emps, err := a.employees.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("top employees: %w", err)
	}

	from, to := bounds(w)
	tasks, err := a.tasks.ListCompletedBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("top employees: %w", err)
	}

	scores := make(map[int64]int, len(emps))
	for _, t := range tasks {
		score := t.Score()
		for _, id := range t.ExecutorIDs {
			scores[id] += score
		}
	}

	ranking := make([]domain.EmployeeScore, 0, len(emps))
	for _, emp := range emps {
		ranking = append(ranking, domain.EmployeeScore{
			EmployeeID: emp.ID,
			Name:       emp.Name,
			Score:      scores[emp.ID],
		})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Score > ranking[j].Score
	})
	if len(ranking) > n {
		ranking = ranking[:n]
	}

	if a.cache != nil {
		if err := a.cache.SetRanking(ctx, key, ranking); err != nil {
			a.logger.Warn("score cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
	return ranking, nil
}

func (a *Aggregator) employeeIDs(ctx context.Context) (map[int64]struct{}, error) {
	emps, err := a.employees.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	ids := make(map[int64]struct{}, len(emps))
	for _, emp := range emps {
		ids[emp.ID] = struct{}{}
	}
	return ids, nil
}

// cachedScore reads a cached aggregate; cache failures degrade to a miss.
func (a *Aggregator) cachedScore(ctx context.Context, key string) (int, bool) {
	if a.cache == nil {
		return 0, false
	}
	score, err := a.cache.GetScore(ctx, key)
	if err != nil {
		if !errors.Is(err, redisstore.ErrCacheMiss) {
			a.logger.Warn("score cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return 0, false
	}
	return score, true
}

// storeScore writes a computed aggregate; failures are logged, not returned.
func (a *Aggregator) storeScore(ctx context.Context, key string, score int) {
	if a.cache == nil {
		return
	}
	if err := a.cache.SetScore(ctx, key, score); err != nil {
		a.logger.Warn("score cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}
