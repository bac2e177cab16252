package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alex010501/TasksTracking/internal/kafka"
	"github.com/alex010501/TasksTracking/internal/postgres"
	redisstore "github.com/alex010501/TasksTracking/internal/redis"
	"github.com/alex010501/TasksTracking/internal/stats"
	"github.com/alex010501/TasksTracking/internal/sweeper"
	"github.com/alex010501/TasksTracking/pkg/telemetry"
	"github.com/alex010501/TasksTracking/services/api/config"
	"github.com/alex010501/TasksTracking/services/api/handler"
	"github.com/alex010501/TasksTracking/services/api/middleware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and the overdue sweeper",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("http-port", "8080", "HTTP server port")
	serveCmd.Flags().String("metrics-addr", ":9095", "Prometheus metrics server address")
	serveCmd.Flags().String("kafka-brokers", "localhost:9092", "comma-separated Kafka broker addresses")
	serveCmd.Flags().String("redis-addr", "localhost:6379", "Redis address (host:port)")
	serveCmd.Flags().String("sweep-schedule", sweeper.DefaultSchedule, "cron expression for the overdue sweep")
	serveCmd.Flags().Bool("sweep-on-start", true, "run one sweep immediately on startup")
	serveCmd.Flags().String("department-name", "Engineering", "department name reported by the stats endpoint")
	serveCmd.Flags().Bool("score-count-per-executor", true, "count a shared task once per executor in department totals")
	serveCmd.Flags().Int("rate-limit", 0, "max requests per client per window; 0 disables rate limiting")
	serveCmd.Flags().Duration("rate-limit-window", time.Minute, "rate limit window")
	serveCmd.Flags().String("otel-endpoint", "", "OTLP HTTP endpoint for tracing (e.g. localhost:4318); empty disables tracing")

	bindFlag("http_port", serveCmd.Flags(), "http-port")
	bindFlag("metrics_addr", serveCmd.Flags(), "metrics-addr")
	bindFlag("kafka_brokers", serveCmd.Flags(), "kafka-brokers")
	bindFlag("redis_addr", serveCmd.Flags(), "redis-addr")
	bindFlag("sweep_schedule", serveCmd.Flags(), "sweep-schedule")
	bindFlag("sweep_on_start", serveCmd.Flags(), "sweep-on-start")
	bindFlag("department_name", serveCmd.Flags(), "department-name")
	bindFlag("score_count_per_executor", serveCmd.Flags(), "score-count-per-executor")
	bindFlag("rate_limit", serveCmd.Flags(), "rate-limit")
	bindFlag("rate_limit_window", serveCmd.Flags(), "rate-limit-window")
	bindFlag("otel_endpoint", serveCmd.Flags(), "otel-endpoint")
	_ = viper.BindEnv("otel_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Load(viper.GetViper())
	logger := buildLogger(cfg.LogLevel, "api")

	shutdownTracer, err := telemetry.InitTracer(context.Background(), "api", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer shutdownTracer()

	brokers := strings.Split(cfg.KafkaBrokers, ",")
	producer := kafka.NewProducer(brokers)
	defer func() { _ = producer.Close() }()

	redisClient := redisstore.NewClient(cfg.RedisAddr)
	defer func() { _ = redisClient.Close() }()
	cache := redisstore.NewScoreCache(redisClient)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := postgres.NewPool(initCtx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	employees := postgres.NewEmployeeRepository(pool)
	projects := postgres.NewProjectRepository(pool)
	tasks := postgres.NewTaskRepository(pool)

	aggregator := stats.NewAggregator(employees, tasks, cache, cfg.CountPerExecutor, logger)

	lock := redisstore.NewLock(redisClient, "sweeper:leader", uuid.New().String(), 30*time.Second)
	sw := sweeper.NewSweeper(tasks, projects, producer, lock, cfg.SweepSchedule, logger)

	restHandler := handler.NewREST(
		employees, projects, tasks,
		aggregator, sw, producer, redisClient,
		cfg.DepartmentName, logger,
	)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1MB limit
	if cfg.RateLimit > 0 {
		limiter := redisstore.NewRateLimiter(redisClient, cfg.RateLimit, cfg.RateLimitWindow)
		r.Use(middleware.RateLimit(limiter, logger))
	}
	r.Get("/healthz", restHandler.Healthz)
	r.Get("/readyz", restHandler.Readyz)
	r.Route("/api/v1", restHandler.Routes)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	telemetry.StartMetricsServer(runCtx, cfg.MetricsAddr, logger)

	go func() {
		logger.Info("sweeper starting", slog.String("schedule", cfg.SweepSchedule))
		if err := sw.Run(runCtx, cfg.SweepOnStart); err != nil {
			logger.Error("sweeper error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	go func() {
		logger.Info("api HTTP starting", slog.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	<-quit
	logger.Info("shutting down...")
	runCancel()

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutCancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		logger.Error("HTTP shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("stopped")
	return nil
}
