package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alex010501/TasksTracking/internal/domain"
	"github.com/alex010501/TasksTracking/internal/postgres"
	"github.com/alex010501/TasksTracking/internal/sweeper"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the overdue sweep once and exit",
	Long: `Flip every in-progress task and project whose deadline has passed
to OVERDUE, then exit. The same transition the serve command applies on
its schedule, for cron jobs or manual catch-up.`,
	RunE: runSweep,
}

func runSweep(_ *cobra.Command, _ []string) error {
	dsn := viper.GetString("postgres_dsn")
	logger := buildLogger(viper.GetString("log_level"), "api")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	tasks := postgres.NewTaskRepository(pool)
	projects := postgres.NewProjectRepository(pool)

	// One-off run: no producer, no leader election.
	sw := sweeper.NewSweeper(tasks, projects, nil, nil, "", logger)
	n, err := sw.Sweep(ctx, domain.DateOnly(time.Now().UTC()))
	if err != nil {
		return err
	}

	fmt.Printf("%d transitions\n", n)
	return nil
}
