package sweeper

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex010501/TasksTracking/internal/domain"
	"github.com/alex010501/TasksTracking/internal/postgres"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

type fakeTaskRepo struct {
	tasks []*domain.Task
	err   error
}

func (f *fakeTaskRepo) Create(context.Context, *domain.Task) error          { return nil }
func (f *fakeTaskRepo) GetByID(context.Context, int64) (*domain.Task, error) { return nil, nil }
func (f *fakeTaskRepo) Update(context.Context, *domain.Task) error          { return nil }
func (f *fakeTaskRepo) List(context.Context, postgres.TaskFilter) ([]*domain.Task, error) {
	return nil, nil
}
func (f *fakeTaskRepo) ListCompletedBetween(context.Context, time.Time, time.Time) ([]*domain.Task, error) {
	return nil, nil
}

func (f *fakeTaskRepo) MarkOverdue(_ context.Context, today time.Time) ([]*domain.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	var flipped []*domain.Task
	for _, t := range f.tasks {
		if t.Status == domain.StatusInProgress && t.Deadline.Before(today) {
			t.Status = domain.StatusOverdue
			flipped = append(flipped, t)
		}
	}
	return flipped, nil
}

type fakeProjectRepo struct {
	projects []*domain.Project
}

func (f *fakeProjectRepo) Create(context.Context, *domain.Project) error { return nil }
func (f *fakeProjectRepo) GetByID(context.Context, int64) (*domain.Project, error) {
	return nil, nil
}
func (f *fakeProjectRepo) Update(context.Context, *domain.Project) error { return nil }
func (f *fakeProjectRepo) Delete(context.Context, int64) error           { return nil }
func (f *fakeProjectRepo) List(context.Context, postgres.ProjectFilter) ([]*domain.Project, error) {
	return nil, nil
}
func (f *fakeProjectRepo) CreateStage(context.Context, *domain.Stage) error { return nil }
func (f *fakeProjectRepo) GetStage(context.Context, int64) (*domain.Stage, error) {
	return nil, nil
}
func (f *fakeProjectRepo) ListStages(context.Context, int64) ([]*domain.Stage, error) {
	return nil, nil
}

func (f *fakeProjectRepo) MarkOverdue(_ context.Context, today time.Time) ([]*domain.Project, error) {
	var flipped []*domain.Project
	for _, p := range f.projects {
		if p.Status == domain.StatusInProgress && p.Deadline != nil && p.Deadline.Before(today) {
			p.Status = domain.StatusOverdue
			flipped = append(flipped, p)
		}
	}
	return flipped, nil
}

type fakeProducer struct {
	published []domain.Event
	err       error
}

func (f *fakeProducer) Publish(_ context.Context, _, _ string, value []byte) error {
	if f.err != nil {
		return f.err
	}
	var e domain.Event
	if err := json.Unmarshal(value, &e); err != nil {
		return err
	}
	f.published = append(f.published, e)
	return nil
}

func (f *fakeProducer) Close() error { return nil }

type fakeLocker struct {
	held     bool
	acquired int
	released int
}

func (f *fakeLocker) Acquire(context.Context) (bool, error) {
	f.acquired++
	return !f.held, nil
}

func (f *fakeLocker) Release(context.Context) error {
	f.released++
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSweeper(tasks *fakeTaskRepo, projects *fakeProjectRepo, producer *fakeProducer) *Sweeper {
	return NewSweeper(tasks, projects, producer, &fakeLocker{}, "", discard())
}

func TestSweepFlipsPastDeadlineTasks(t *testing.T) {
	deadline := day("2024-03-10")
	tasks := &fakeTaskRepo{tasks: []*domain.Task{
		{ID: 1, Name: "late", Status: domain.StatusInProgress, Deadline: deadline, ExecutorIDs: []int64{7}},
		{ID: 2, Name: "due today", Status: domain.StatusInProgress, Deadline: day("2024-03-15")},
		{ID: 3, Name: "done", Status: domain.StatusDone, Deadline: deadline},
	}}
	producer := &fakeProducer{}
	s := newTestSweeper(tasks, &fakeProjectRepo{}, producer)

	n, err := s.Sweep(context.Background(), day("2024-03-15"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.StatusOverdue, tasks.tasks[0].Status)

	// Deadline exactly today stays in progress until tomorrow's run.
	assert.Equal(t, domain.StatusInProgress, tasks.tasks[1].Status)
	// Completed work is never touched.
	assert.Equal(t, domain.StatusDone, tasks.tasks[2].Status)

	require.Len(t, producer.published, 1)
	assert.Equal(t, domain.EventTaskOverdue, producer.published[0].Kind)
	assert.Equal(t, []int64{7}, producer.published[0].ExecutorIDs)
}

func TestSweepIsIdempotent(t *testing.T) {
	tasks := &fakeTaskRepo{tasks: []*domain.Task{
		{ID: 1, Status: domain.StatusInProgress, Deadline: day("2024-03-01")},
	}}
	s := newTestSweeper(tasks, &fakeProjectRepo{}, &fakeProducer{})

	today := day("2024-03-15")
	n, err := s.Sweep(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.Sweep(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSweepCoversProjects(t *testing.T) {
	past := day("2024-02-01")
	projects := &fakeProjectRepo{projects: []*domain.Project{
		{ID: 10, Name: "rollout", Status: domain.StatusInProgress, Deadline: &past},
		{ID: 11, Name: "open ended", Status: domain.StatusInProgress, Deadline: nil},
	}}
	producer := &fakeProducer{}
	s := newTestSweeper(&fakeTaskRepo{}, projects, producer)

	n, err := s.Sweep(context.Background(), day("2024-03-15"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.StatusOverdue, projects.projects[0].Status)

	// Projects without a deadline can never go overdue.
	assert.Equal(t, domain.StatusInProgress, projects.projects[1].Status)

	require.Len(t, producer.published, 1)
	assert.Equal(t, domain.EventProjectOverdue, producer.published[0].Kind)
}

func TestSweepSurvivesPublishFailure(t *testing.T) {
	tasks := &fakeTaskRepo{tasks: []*domain.Task{
		{ID: 1, Status: domain.StatusInProgress, Deadline: day("2024-03-01")},
	}}
	s := newTestSweeper(tasks, &fakeProjectRepo{}, &fakeProducer{err: errors.New("broker down")})

	n, err := s.Sweep(context.Background(), day("2024-03-15"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.StatusOverdue, tasks.tasks[0].Status)
}

func TestSweepPropagatesRepositoryError(t *testing.T) {
	tasks := &fakeTaskRepo{err: errors.New("connection reset")}
	s := newTestSweeper(tasks, &fakeProjectRepo{}, &fakeProducer{})

	_, err := s.Sweep(context.Background(), day("2024-03-15"))
	require.Error(t, err)
}

func TestTickSkipsWhenNotLeader(t *testing.T) {
	tasks := &fakeTaskRepo{tasks: []*domain.Task{
		{ID: 1, Status: domain.StatusInProgress, Deadline: day("2024-03-01")},
	}}
	locker := &fakeLocker{held: true}
	s := NewSweeper(tasks, &fakeProjectRepo{}, &fakeProducer{}, locker, "", discard())
	s.now = func() time.Time { return day("2024-03-15") }

	s.tick(context.Background())

	assert.Equal(t, 1, locker.acquired)
	assert.Equal(t, 0, locker.released)
	assert.Equal(t, domain.StatusInProgress, tasks.tasks[0].Status)
}

func TestTickSweepsAndReleasesAsLeader(t *testing.T) {
	tasks := &fakeTaskRepo{tasks: []*domain.Task{
		{ID: 1, Status: domain.StatusInProgress, Deadline: day("2024-03-01")},
	}}
	locker := &fakeLocker{}
	s := NewSweeper(tasks, &fakeProjectRepo{}, &fakeProducer{}, locker, "", discard())
	s.now = func() time.Time { return day("2024-03-15") }

	s.tick(context.Background())

	assert.Equal(t, domain.StatusOverdue, tasks.tasks[0].Status)
	assert.Equal(t, 1, locker.released)
}
