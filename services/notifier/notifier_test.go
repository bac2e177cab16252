package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex010501/TasksTracking/internal/domain"
	"github.com/alex010501/TasksTracking/internal/kafka"
	"github.com/alex010501/TasksTracking/internal/notify"
)

// ── mocks ────────────────────────────────────────────────────────────────────

type fakeProducer struct {
	topics []string
	err    error
}

func (p *fakeProducer) Publish(_ context.Context, topic, _ string, _ []byte) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	return nil
}
func (p *fakeProducer) Close() error { return nil }

type fakeChannel struct {
	channel  string
	callsErr []error // errors to return per call; nil entry = success
	calls    int
	events   []*domain.Event
}

func (c *fakeChannel) Channel() string { return c.channel }
func (c *fakeChannel) Notify(_ context.Context, event *domain.Event) error {
	var err error
	if c.calls < len(c.callsErr) {
		err = c.callsErr[c.calls]
	}
	c.calls++
	if err == nil {
		c.events = append(c.events, event)
	}
	return err
}

// ── helpers ──────────────────────────────────────────────────────────────────

func newTestNotifier(producer *fakeProducer, reg *notify.Registry, channels []string) *Notifier {
	return NewNotifier(nil, producer, reg, channels,
		WithLogger(slog.Default()),
		WithRetries(2),
		WithTimeout(time.Second),
		WithBaseDelay(time.Millisecond),
	)
}

func eventMessage(t *testing.T) kafka.Message {
	t.Helper()
	taskID := int64(7)
	raw, err := json.Marshal(&domain.Event{
		ID:          "evt-1",
		Kind:        domain.EventTaskOverdue,
		TaskID:      &taskID,
		Name:        "late report",
		ExecutorIDs: []int64{1, 2},
		OccurredAt:  time.Now().UTC(),
	})
	require.NoError(t, err)
	return kafka.Message{Topic: "tasks.events", Key: []byte("7"), Value: raw}
}

// ── tests ────────────────────────────────────────────────────────────────────

func TestProcessMessage_DeliversToAllChannels(t *testing.T) {
	email := &fakeChannel{channel: "email"}
	webhook := &fakeChannel{channel: "webhook"}
	reg := notify.NewRegistry()
	reg.Register(email)
	reg.Register(webhook)
	producer := &fakeProducer{}

	n := newTestNotifier(producer, reg, []string{"email", "webhook"})
	err := n.processMessage(context.Background(), eventMessage(t))
	require.NoError(t, err)

	assert.Equal(t, 1, email.calls)
	assert.Equal(t, 1, webhook.calls)
	assert.Empty(t, producer.topics, "nothing should reach the DLQ")
	require.Len(t, email.events, 1)
	assert.Equal(t, domain.EventTaskOverdue, email.events[0].Kind)
}

func TestProcessMessage_RetriesTransientFailure(t *testing.T) {
	email := &fakeChannel{channel: "email", callsErr: []error{errors.New("smtp timeout"), nil}}
	reg := notify.NewRegistry()
	reg.Register(email)
	producer := &fakeProducer{}

	n := newTestNotifier(producer, reg, []string{"email"})
	err := n.processMessage(context.Background(), eventMessage(t))
	require.NoError(t, err)

	assert.Equal(t, 2, email.calls, "first attempt fails, second succeeds")
	assert.Empty(t, producer.topics)
}

func TestProcessMessage_ExhaustedRetriesGoToDLQ(t *testing.T) {
	boom := errors.New("smtp down")
	email := &fakeChannel{channel: "email", callsErr: []error{boom, boom, boom}}
	reg := notify.NewRegistry()
	reg.Register(email)
	producer := &fakeProducer{}

	n := newTestNotifier(producer, reg, []string{"email"})
	err := n.processMessage(context.Background(), eventMessage(t))
	require.NoError(t, err, "offset must still be committed")

	assert.Equal(t, 3, email.calls)
	assert.Equal(t, []string{topicDLQ}, producer.topics)
}

func TestProcessMessage_UnknownChannelGoesToDLQ(t *testing.T) {
	producer := &fakeProducer{}
	n := newTestNotifier(producer, notify.NewRegistry(), []string{"sms"})

	err := n.processMessage(context.Background(), eventMessage(t))
	require.NoError(t, err)
	assert.Equal(t, []string{topicDLQ}, producer.topics)
}

func TestProcessMessage_PartialFailureStillDeliversOthers(t *testing.T) {
	boom := errors.New("unreachable")
	webhook := &fakeChannel{channel: "webhook", callsErr: []error{boom, boom, boom}}
	email := &fakeChannel{channel: "email"}
	reg := notify.NewRegistry()
	reg.Register(webhook)
	reg.Register(email)
	producer := &fakeProducer{}

	n := newTestNotifier(producer, reg, []string{"webhook", "email"})
	err := n.processMessage(context.Background(), eventMessage(t))
	require.NoError(t, err)

	assert.Equal(t, 1, email.calls, "email still delivered")
	assert.Equal(t, []string{topicDLQ}, producer.topics, "webhook failure lands in DLQ")
}

func TestProcessMessage_MalformedEventDiscarded(t *testing.T) {
	email := &fakeChannel{channel: "email"}
	reg := notify.NewRegistry()
	reg.Register(email)
	producer := &fakeProducer{}

	n := newTestNotifier(producer, reg, []string{"email"})
	err := n.processMessage(context.Background(), kafka.Message{Value: []byte("not-json")})
	require.NoError(t, err)

	assert.Zero(t, email.calls)
	assert.Empty(t, producer.topics)
}
