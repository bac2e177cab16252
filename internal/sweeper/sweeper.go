// Package sweeper implements the daily overdue transition: every task and
// project still in progress past its deadline is flipped to OVERDUE.
package sweeper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/alex010501/TasksTracking/internal/domain"
	"github.com/alex010501/TasksTracking/internal/kafka"
	"github.com/alex010501/TasksTracking/internal/postgres"
	"github.com/alex010501/TasksTracking/pkg/telemetry"
)

const eventsTopic = "tasks.events"

// DefaultSchedule runs the sweep shortly after midnight, once per day.
const DefaultSchedule = "10 0 * * *"

// Locker guards the sweep so only one instance runs it per schedule slot.
// Satisfied by redis.Lock.
type Locker interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Sweeper drives the overdue transition on a cron schedule with leader
// election. The sweep itself is idempotent, so overlapping runs are safe,
// just wasteful.
type Sweeper struct {
	tasks    postgres.TaskRepository
	projects postgres.ProjectRepository
	producer kafka.Producer
	locker   Locker
	schedule string
	logger   *slog.Logger

	// now is swappable in tests.
	now func() time.Time
}

func NewSweeper(
	tasks postgres.TaskRepository,
	projects postgres.ProjectRepository,
	producer kafka.Producer,
	locker Locker,
	schedule string,
	logger *slog.Logger,
) *Sweeper {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Sweeper{
		tasks:    tasks,
		projects: projects,
		producer: producer,
		locker:   locker,
		schedule: schedule,
		logger:   logger,
		now:      time.Now,
	}
}

// Run blocks until ctx is cancelled, firing the sweep on the configured
// schedule. When runOnStart is true one sweep happens immediately, which
// covers transitions missed while the service was down.
func (s *Sweeper) Run(ctx context.Context, runOnStart bool) error {
	schedule, err := cron.ParseStandard(s.schedule)
	if err != nil {
		return fmt.Errorf("parse sweep schedule %q: %w", s.schedule, err)
	}

	if runOnStart {
		s.tick(ctx)
	}

	for {
		next := schedule.Next(s.now())
		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	ok, err := s.locker.Acquire(ctx)
	if err != nil {
		s.logger.Error("sweep leader election", slog.String("error", err.Error()))
		telemetry.SweeperRunsTotal.WithLabelValues("error").Inc()
		return
	}
	if !ok {
		telemetry.SweeperRunsTotal.WithLabelValues("not_leader").Inc()
		return
	}
	defer func() {
		if err := s.locker.Release(ctx); err != nil {
			s.logger.Warn("sweep lock release", slog.String("error", err.Error()))
		}
	}()

	today := domain.DateOnly(s.now().UTC())
	n, err := s.Sweep(ctx, today)
	if err != nil {
		s.logger.Error("sweep failed", slog.String("error", err.Error()))
		telemetry.SweeperRunsTotal.WithLabelValues("error").Inc()
		return
	}
	telemetry.SweeperRunsTotal.WithLabelValues("ok").Inc()
	telemetry.SweeperLastRunUnix.SetToCurrentTime()
	s.logger.Info("sweep complete", slog.Int("transitions", n), slog.Time("today", today))
}

// Sweep flips every in-progress task and project whose deadline passed
// strictly before today to OVERDUE and returns the number of transitions.
// Items flipped on an earlier run are already out of IN_PROGRESS, so
// re-running with the same date is a no-op.
func (s *Sweeper) Sweep(ctx context.Context, today time.Time) (int, error) {
	tasks, err := s.tasks.MarkOverdue(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("mark overdue tasks: %w", err)
	}
	telemetry.SweeperTransitionsTotal.WithLabelValues("task").Add(float64(len(tasks)))

	projects, err := s.projects.MarkOverdue(ctx, today)
	if err != nil {
		return len(tasks), fmt.Errorf("mark overdue projects: %w", err)
	}
	telemetry.SweeperTransitionsTotal.WithLabelValues("project").Add(float64(len(projects)))

	// Events are best effort: the status transition is already committed,
	// and a lost notification must not roll it back.
	for _, t := range tasks {
		s.publish(ctx, &domain.Event{
			ID:          uuid.New().String(),
			Kind:        domain.EventTaskOverdue,
			TaskID:      &t.ID,
			Name:        t.Name,
			Deadline:    &t.Deadline,
			ExecutorIDs: t.ExecutorIDs,
			OccurredAt:  s.now().UTC(),
		}, strconv.FormatInt(t.ID, 10))
	}
	for _, p := range projects {
		s.publish(ctx, &domain.Event{
			ID:         uuid.New().String(),
			Kind:       domain.EventProjectOverdue,
			ProjectID:  &p.ID,
			Name:       p.Name,
			Deadline:   p.Deadline,
			OccurredAt: s.now().UTC(),
		}, strconv.FormatInt(p.ID, 10))
	}

	return len(tasks) + len(projects), nil
}

func (s *Sweeper) publish(ctx context.Context, event *domain.Event, key string) {
	if s.producer == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal event", slog.String("error", err.Error()))
		return
	}
	if err := s.producer.Publish(ctx, eventsTopic, key, payload); err != nil {
		s.logger.Error("publish event",
			slog.String("kind", string(event.Kind)),
			slog.String("error", err.Error()),
		)
	}
}
