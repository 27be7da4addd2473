package heal

import (
	"fmt"
	"strings"
	"time"
)

// EventKind classifies what happened to a container, or to a whole pass.
type EventKind string

const (
	EventRestarted     EventKind = "restarted"
	EventRestartFailed EventKind = "restart-failed"
	EventGaveUp        EventKind = "gave-up"
	EventSkipped       EventKind = "skipped"
	EventRecovered     EventKind = "recovered"
	EventPassCompleted EventKind = "pass-completed"
	EventPassFailed    EventKind = "pass-failed"
)

// Event is one supervision outcome.
type Event struct {
	Time        time.Time
	Kind        EventKind
	ContainerID string
	Container   string
	Reason      Reason
	Policy      PolicyMode
	Attempt     int
	MaxAttempts int
	Err         string

	// Set on pass events only.
	Duration time.Duration
	Tracked  int
}

// ContainerEvent reports whether ev concerns a single container.
func (ev Event) ContainerEvent() bool {
	return ev.Kind != EventPassCompleted && ev.Kind != EventPassFailed
}

// Message renders the notification text for ev. Kinds that are never
// notified return "".
func (ev Event) Message() string {
	switch ev.Kind {
	case EventRestarted:
		return fmt.Sprintf("Restarted container **%s** (Reason: %s, Attempt: %d/%d)",
			ev.Container, ev.Reason, ev.Attempt, ev.MaxAttempts)
	case EventRestartFailed:
		return fmt.Sprintf("Failed to restart container **%s**: %s", ev.Container, ev.Err)
	case EventGaveUp:
		return fmt.Sprintf("Max restart attempts reached for container **%s** - no further attempts will be made", ev.Container)
	case EventPassFailed:
		return "Autoheal encountered an error: " + ev.Err
	default:
		return ""
	}
}

// ParseEventKind validates a stored kind string.
func ParseEventKind(raw string) (EventKind, error) {
	kind := EventKind(strings.TrimSpace(raw))
	switch kind {
	case EventRestarted, EventRestartFailed, EventGaveUp, EventSkipped,
		EventRecovered, EventPassCompleted, EventPassFailed:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown event kind %q", raw)
	}
}

// ParseReason is the inverse of Reason.String.
func ParseReason(raw string) Reason {
	switch strings.TrimSpace(raw) {
	case "exited":
		return ReasonExited
	case "unhealthy":
		return ReasonUnhealthy
	default:
		return ReasonNone
	}
}
