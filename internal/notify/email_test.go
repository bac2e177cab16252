package notify_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex010501/TasksTracking/internal/notify"
)

func TestEmailNotifier_Channel(t *testing.T) {
	n := notify.NewEmailNotifier(notify.EmailConfig{
		Host: "localhost", Port: 1025, From: "tracker@test.com", To: []string{"dept@test.com"},
	})
	assert.Equal(t, "email", n.Channel())
}

func TestEmailNotifier_Notify_NoRecipients(t *testing.T) {
	n := notify.NewEmailNotifier(notify.EmailConfig{Host: "localhost", Port: 1025})

	err := n.Notify(context.Background(), overdueEvent())
	require.Error(t, err, "should fail with no recipients configured")
	assert.Contains(t, err.Error(), "recipients")
}

func TestEmailNotifier_Notify_CancelledContext(t *testing.T) {
	n := notify.NewEmailNotifier(notify.EmailConfig{
		Host: "localhost", Port: 1025, From: "tracker@test.com", To: []string{"dept@test.com"},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel before calling Notify

	err := n.Notify(ctx, overdueEvent())
	require.Error(t, err, "cancelled context should result in an error")
}
