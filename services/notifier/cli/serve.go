package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alex010501/TasksTracking/internal/kafka"
	"github.com/alex010501/TasksTracking/internal/notify"
	"github.com/alex010501/TasksTracking/pkg/telemetry"
	"github.com/alex010501/TasksTracking/services/notifier"
	"github.com/alex010501/TasksTracking/services/notifier/config"
)

const (
	eventsTopic   = "tasks.events"
	consumerGroup = "notifier-group"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the notifier",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("kafka-brokers", "localhost:9092", "comma-separated Kafka broker addresses")
	serveCmd.Flags().StringSlice("channels", []string{"email"}, "delivery channels: email, webhook")
	serveCmd.Flags().Int("max-retries", 3, "maximum retry attempts per delivery")
	serveCmd.Flags().Duration("delivery-timeout", 30*time.Second, "per-delivery timeout")
	serveCmd.Flags().String("webhook-url", "", "endpoint for the webhook channel")
	serveCmd.Flags().String("smtp-host", "localhost", "SMTP server host")
	serveCmd.Flags().Int("smtp-port", 1025, "SMTP server port")
	serveCmd.Flags().String("smtp-from", "noreply@taskstracking.dev", "SMTP sender address")
	serveCmd.Flags().StringSlice("smtp-to", nil, "recipient addresses for the email channel")
	serveCmd.Flags().String("smtp-username", "", "SMTP auth username")
	serveCmd.Flags().String("smtp-password", "", "SMTP auth password or app password")
	serveCmd.Flags().String("metrics-addr", ":9091", "Prometheus metrics server address")
	serveCmd.Flags().String("otel-endpoint", "", "OTLP HTTP endpoint for tracing (e.g. localhost:4318); empty disables tracing")

	bindFlag("kafka_brokers", serveCmd.Flags(), "kafka-brokers")
	bindFlag("channels", serveCmd.Flags(), "channels")
	bindFlag("max_retries", serveCmd.Flags(), "max-retries")
	bindFlag("delivery_timeout", serveCmd.Flags(), "delivery-timeout")
	bindFlag("webhook_url", serveCmd.Flags(), "webhook-url")
	bindFlag("smtp_host", serveCmd.Flags(), "smtp-host")
	bindFlag("smtp_port", serveCmd.Flags(), "smtp-port")
	bindFlag("smtp_from", serveCmd.Flags(), "smtp-from")
	bindFlag("smtp_to", serveCmd.Flags(), "smtp-to")
	bindFlag("smtp_username", serveCmd.Flags(), "smtp-username")
	bindFlag("smtp_password", serveCmd.Flags(), "smtp-password")
	bindFlag("metrics_addr", serveCmd.Flags(), "metrics-addr")
	bindFlag("otel_endpoint", serveCmd.Flags(), "otel-endpoint")
	_ = viper.BindEnv("otel_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Load(viper.GetViper())
	logger := buildLogger(cfg.LogLevel, "notifier")

	shutdownTracer, err := telemetry.InitTracer(context.Background(), "notifier", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer shutdownTracer()

	brokers := strings.Split(cfg.KafkaBrokers, ",")

	consumer := kafka.NewConsumer(brokers, eventsTopic, consumerGroup, logger)
	defer func() { _ = consumer.Close() }()

	producer := kafka.NewProducer(brokers)
	defer func() { _ = producer.Close() }()

	registry := notify.NewRegistry()
	registry.Register(notify.NewEmailNotifier(notify.EmailConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		From:     cfg.SMTPFrom,
		To:       cfg.SMTPTo,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
	}))
	if cfg.WebhookURL != "" {
		registry.Register(notify.NewWebhookNotifier(cfg.WebhookURL))
	}

	n := notifier.NewNotifier(
		consumer, producer, registry, cfg.Channels,
		notifier.WithLogger(logger),
		notifier.WithRetries(cfg.MaxRetries),
		notifier.WithTimeout(cfg.Timeout),
	)

	runCtx, runCancel := context.WithCancel(context.Background())
	telemetry.StartMetricsServer(runCtx, cfg.MetricsAddr, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-quit
		logger.Info("shutting down, draining in-flight deliveries...")
		runCancel()
	}()

	logger.Info("notifier starting",
		slog.String("topic", eventsTopic),
		slog.Any("channels", cfg.Channels),
		slog.Int("max_retries", cfg.MaxRetries),
	)

	if err := n.Run(runCtx); err != nil {
		return fmt.Errorf("notifier: %w", err)
	}

	n.Wait()
	logger.Info("stopped cleanly")
	return nil
}
