// Package notify carries user-facing outcome events out of the core.
// Delivery is fire-and-forget; how long a message stays visible is up to
// whoever subscribes.
package notify

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Severity of an event.
type Severity int

const (
	Success Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Event is one message for the user. ItemID is empty for batch-level events.
type Event struct {
	Message  string
	Severity Severity
	ItemID   string
}

// Notifier receives events.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

// Discard drops every event.
var Discard Notifier = NotifierFunc(func(Event) {})

// LogTo returns a handler that writes events to l at a matching level.
func LogTo(l *zap.Logger) func(Event) {
	return func(e Event) {
		fields := []zap.Field{zap.String("severity", e.Severity.String())}
		if e.ItemID != "" {
			fields = append(fields, zap.String("item", e.ItemID))
		}
		switch e.Severity {
		case Error:
			l.Error(e.Message, fields...)
		case Warning:
			l.Warn(e.Message, fields...)
		default:
			l.Info(e.Message, fields...)
		}
	}
}

// Recorder keeps every event it receives, in order.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Notify(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of what has been recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many recorded events have severity s.
func (r *Recorder) Count(s Severity) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Severity == s {
			n++
		}
	}
	return n
}
