// Package notify carries user-visible notifications from the engine to
// whatever renders them.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/presenter/internal/ir"
)

// DefaultDuration applies when a notification does not set one.
const DefaultDuration = 3000 * time.Millisecond

// Action is the optional button on a notification. When the user triggers
// it, Event is dispatched back into the engine.
type Action struct {
	Title string
	Event ir.EventData
}

// Notification is one user-visible message. A zero Duration means
// DefaultDuration.
type Notification struct {
	Message  string
	Action   *Action
	Duration time.Duration
}

// Notifier renders notifications.
type Notifier interface {
	Notify(n Notification)
}

// WithDefaults fills in a zero duration.
func (n Notification) WithDefaults() Notification {
	if n.Duration <= 0 {
		n.Duration = DefaultDuration
	}
	return n
}

// LogNotifier writes notifications to a slog logger. It is the notifier
// used by headless runs.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(n Notification) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{"message", n.Message, "duration", n.Duration}
	if n.Action != nil {
		attrs = append(attrs, "action_title", n.Action.Title, "action_event", n.Action.Event.Action)
	}
	logger.Info("notification", attrs...)
}

// Recorder keeps every notification in order. Safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

// Notifications returns a copy of everything recorded so far.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.sent))
	copy(out, r.sent)
	return out
}

// Messages returns the recorded messages in order.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.sent))
	for i, n := range r.sent {
		out[i] = n.Message
	}
	return out
}

// Reset forgets everything recorded.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(n Notification) {
	for _, notifier := range m {
		notifier.Notify(n)
	}
}
