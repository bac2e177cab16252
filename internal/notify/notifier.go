// Package notify delivers lifecycle events to outbound channels.
package notify

import (
	"context"
	"sync"

	"github.com/alex010501/TasksTracking/internal/domain"
)

// Notifier delivers an event over a specific channel.
type Notifier interface {
	Notify(ctx context.Context, event *domain.Event) error
	Channel() string
}

// Registry maps channel names to their notifiers.
type Registry struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{notifiers: make(map[string]Notifier)}
}

// Register adds a notifier. Safe to call concurrently.
func (r *Registry) Register(n Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifiers[n.Channel()] = n
}

// Get returns the notifier for the given channel.
// Returns UnknownChannelError if not registered.
func (r *Registry) Get(channel string) (Notifier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.notifiers[channel]
	if !ok {
		return nil, &domain.UnknownChannelError{Channel: channel}
	}
	return n, nil
}

// Channels lists the registered channel names.
func (r *Registry) Channels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.notifiers))
	for name := range r.notifiers {
		out = append(out, name)
	}
	return out
}
