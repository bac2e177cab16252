package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/alex010501/TasksTracking/internal/domain"
)

// WebhookNotifier POSTs the event JSON to a configured endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a WebhookNotifier targeting the given URL.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (n *WebhookNotifier) Channel() string { return "webhook" }

func (n *WebhookNotifier) Notify(ctx context.Context, event *domain.Event) error {
	ctx, span := otel.Tracer("notifier").Start(ctx, "notify.webhook")
	defer span.End()

	span.SetAttributes(
		attribute.String("webhook.url", n.url),
		attribute.String("event.kind", string(event.Kind)),
	)

	body, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "marshal event")
		return fmt.Errorf("marshal event %s: %w", event.ID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request failed")
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Kind", string(event.Kind))

	resp, err := n.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "http call failed")
		return fmt.Errorf("webhook call to %s: %w", n.url, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		err := fmt.Errorf("webhook %s returned status %d", n.url, resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad status code")
		return err
	}
	return nil
}
