package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/alex010501/TasksTracking/internal/domain"
)

// EmailConfig holds SMTP connection details.
type EmailConfig struct {
	Host     string
	Port     int
	From     string
	To       []string
	Username string
	Password string
}

// EmailNotifier mails a plain-text summary of the event to a fixed
// recipient list, typically the department mailbox.
type EmailNotifier struct {
	cfg EmailConfig
}

// NewEmailNotifier creates an EmailNotifier from config.
func NewEmailNotifier(cfg EmailConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg}
}

func (n *EmailNotifier) Channel() string { return "email" }

func (n *EmailNotifier) Notify(ctx context.Context, event *domain.Event) error {
	ctx, span := otel.Tracer("notifier").Start(ctx, "notify.email")
	defer span.End()

	if len(n.cfg.To) == 0 {
		err := errors.New("email notifier has no recipients configured")
		span.RecordError(err)
		span.SetStatus(codes.Error, "no recipients")
		return err
	}

	span.SetAttributes(
		attribute.String("event.kind", string(event.Kind)),
		attribute.Int("email.recipients", len(n.cfg.To)),
	)

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	msg := buildMIME(n.cfg.From, n.cfg.To, subjectFor(event), bodyFor(event))

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	// Run the blocking SMTP call in a goroutine so we respect ctx cancellation.
	type result struct{ err error }
	done := make(chan result, 1)
	go func() {
		done <- result{err: smtp.SendMail(addr, auth, n.cfg.From, n.cfg.To, msg)}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			span.RecordError(res.err)
			span.SetStatus(codes.Error, "smtp send failed")
			return fmt.Errorf("smtp send for event %s: %w", event.ID, res.err)
		}
		return nil
	case <-ctx.Done():
		err := fmt.Errorf("email send timed out: %w", ctx.Err())
		span.RecordError(err)
		span.SetStatus(codes.Error, "timeout")
		return err
	}
}

func subjectFor(event *domain.Event) string {
	switch event.Kind {
	case domain.EventTaskOverdue:
		return fmt.Sprintf("Task overdue: %s", event.Name)
	case domain.EventProjectOverdue:
		return fmt.Sprintf("Project overdue: %s", event.Name)
	case domain.EventTaskCompleted:
		return fmt.Sprintf("Task completed: %s", event.Name)
	default:
		return fmt.Sprintf("%s: %s", event.Kind, event.Name)
	}
}

func bodyFor(event *domain.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Event: %s\nName: %s\n", event.Kind, event.Name)
	if event.TaskID != nil {
		fmt.Fprintf(&b, "Task ID: %d\n", *event.TaskID)
	}
	if event.ProjectID != nil {
		fmt.Fprintf(&b, "Project ID: %d\n", *event.ProjectID)
	}
	if event.Deadline != nil {
		fmt.Fprintf(&b, "Deadline: %s\n", event.Deadline.Format("2006-01-02"))
	}
	if len(event.ExecutorIDs) > 0 {
		fmt.Fprintf(&b, "Executors: %s\n", domain.EncodeExecutorIDs(event.ExecutorIDs))
	}
	fmt.Fprintf(&b, "Occurred at: %s\n", event.OccurredAt.Format("2006-01-02 15:04:05 MST"))
	return b.String()
}

func buildMIME(from string, to []string, subject, body string) []byte {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		from, strings.Join(to, ", "), subject, body,
	)
	return []byte(msg)
}
