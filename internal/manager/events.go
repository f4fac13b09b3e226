package manager

import "github.com/rs/zerolog"

// Event represents a manager lifecycle or request event.
// Minimal and stable: name + model ID and optional fields via key/values.
type Event struct {
	Name    string
	ModelID string
	Fields  map[string]any
}

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// LogPublisher writes events to a zerolog logger. Request-level events are
// logged at debug, lifecycle events at info (errors at error).
type LogPublisher struct {
	log zerolog.Logger
}

func NewLogPublisher(l zerolog.Logger) *LogPublisher { return &LogPublisher{log: l} }

func (p *LogPublisher) Publish(e Event) {
	var ev *zerolog.Event
	switch e.Name {
	case "state_error", "dispatch_failed":
		ev = p.log.Error()
	case "state_ready":
		ev = p.log.Info()
	default:
		ev = p.log.Debug()
	}
	if e.ModelID != "" {
		ev = ev.Str("model", e.ModelID)
	}
	ev.Fields(e.Fields).Msg(e.Name)
}
