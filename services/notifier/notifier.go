// Package notifier consumes lifecycle events from Kafka and fans them out
// to the configured delivery channels.
package notifier

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/alex010501/TasksTracking/internal/domain"
	"github.com/alex010501/TasksTracking/internal/kafka"
	"github.com/alex010501/TasksTracking/internal/notify"
	"github.com/alex010501/TasksTracking/pkg/retry"
	"github.com/alex010501/TasksTracking/pkg/telemetry"
)

const topicDLQ = "tasks.events.dlq"

// Notifier consumes events and delivers each one to every configured
// channel.
type Notifier struct {
	consumer   kafka.Consumer
	producer   kafka.Producer
	registry   *notify.Registry
	channels   []string
	maxRetries int
	timeout    time.Duration
	baseDelay  time.Duration
	logger     *slog.Logger

	wg sync.WaitGroup
}

// Option configures a Notifier.
type Option func(*Notifier)

func WithRetries(n int) Option             { return func(nf *Notifier) { nf.maxRetries = n } }
func WithTimeout(d time.Duration) Option   { return func(nf *Notifier) { nf.timeout = d } }
func WithBaseDelay(d time.Duration) Option { return func(nf *Notifier) { nf.baseDelay = d } }
func WithLogger(l *slog.Logger) Option     { return func(nf *Notifier) { nf.logger = l } }

// NewNotifier constructs a Notifier delivering to the named channels, each
// of which must be registered in the registry.
func NewNotifier(
	consumer kafka.Consumer,
	producer kafka.Producer,
	registry *notify.Registry,
	channels []string,
	opts ...Option,
) *Notifier {
	n := &Notifier{
		consumer:   consumer,
		producer:   producer,
		registry:   registry,
		channels:   channels,
		maxRetries: 3,
		timeout:    30 * time.Second,
		baseDelay:  time.Second,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Run starts consuming and delivering events. Blocks until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	return n.consumer.Subscribe(ctx, n.processMessage)
}

// Wait blocks until in-flight deliveries finish. Call after Run returns.
func (n *Notifier) Wait() { n.wg.Wait() }

// processMessage is the Kafka HandlerFunc, called for each event. Always
// returns nil so the offset is committed; undeliverable events go to the
// DLQ instead of blocking the partition.
func (n *Notifier) processMessage(consumerCtx context.Context, msg kafka.Message) error {
	var event domain.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		n.logger.Error("malformed event, discarding",
			slog.String("error", err.Error()),
			slog.String("raw", string(msg.Value)),
		)
		return nil
	}

	// Child span parented to the trace context extracted from Kafka headers.
	ctx, span := otel.Tracer("notifier").Start(consumerCtx, "notifier.process_event")
	defer span.End()
	span.SetAttributes(
		attribute.String("event.id", event.ID),
		attribute.String("event.kind", string(event.Kind)),
	)

	log := n.logger.With(
		slog.String("event_id", event.ID),
		slog.String("kind", string(event.Kind)),
	)

	n.wg.Add(1)
	defer n.wg.Done()

	failed := false
	for _, channel := range n.channels {
		if err := n.deliver(ctx, span, channel, &event, log); err != nil {
			failed = true
		}
	}

	if failed {
		span.SetStatus(codes.Error, "delivery failed on at least one channel")
		if err := n.producer.Publish(ctx, topicDLQ, event.ID, msg.Value); err != nil {
			log.Error("failed to publish to DLQ", slog.String("error", err.Error()))
		}
		telemetry.NotifierDLQTotal.Inc()
	}
	return nil
}

// deliver pushes the event to one channel with retries.
func (n *Notifier) deliver(ctx context.Context, span trace.Span, channel string, event *domain.Event, log *slog.Logger) error {
	target, err := n.registry.Get(channel)
	if err != nil {
		log.Error("unknown delivery channel", slog.String("channel", channel))
		span.RecordError(err)
		telemetry.NotifierDeliveriesTotal.WithLabelValues(channel, "failed").Inc()
		return err
	}

	err = retry.Do(ctx, retry.Config{
		MaxAttempts: n.maxRetries + 1,
		BaseDelay:   n.baseDelay,
		OnRetry: func(attempt int, retryErr error) {
			log.Warn("delivery attempt failed, retrying",
				slog.String("channel", channel),
				slog.Int("attempt", attempt),
				slog.String("error", retryErr.Error()),
			)
		},
	}, func() error {
		// Fresh context so the delivery timeout is independent of consumer
		// shutdown while child spans stay parented here.
		deliverCtx, cancel := context.WithTimeout(
			trace.ContextWithSpan(context.Background(), span),
			n.timeout,
		)
		defer cancel()
		return target.Notify(deliverCtx, event)
	})

	if err != nil {
		log.Error("delivery failed after all retries",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
		span.RecordError(err)
		telemetry.NotifierDeliveriesTotal.WithLabelValues(channel, "failed").Inc()
		return err
	}

	log.Info("event delivered", slog.String("channel", channel))
	telemetry.NotifierDeliveriesTotal.WithLabelValues(channel, "ok").Inc()
	return nil
}
