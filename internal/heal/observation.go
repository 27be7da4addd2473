package heal

import "strings"

// Container labels that opt a container in and override its restart policy.
const (
	LabelEnable      = "autoheal.enable"
	LabelPolicy      = "autoheal.restart.policy"
	LabelMaxAttempts = "autoheal.restart.max_attempts"
)

// Status is the runtime lifecycle state of a container.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusCreated
	StatusRunning
	StatusPaused
	StatusRestarting
	StatusRemoving
	StatusExited
	StatusDead
)

var statusNames = map[Status]string{
	StatusUnknown:    "unknown",
	StatusCreated:    "created",
	StatusRunning:    "running",
	StatusPaused:     "paused",
	StatusRestarting: "restarting",
	StatusRemoving:   "removing",
	StatusExited:     "exited",
	StatusDead:       "dead",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseStatus maps a runtime state string to a Status. Unrecognised
// values map to StatusUnknown.
func ParseStatus(raw string) Status {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for s, name := range statusNames {
		if name == raw {
			return s
		}
	}
	return StatusUnknown
}

// Health is the result of a container's own healthcheck.
type Health uint8

const (
	HealthNone Health = iota // no healthcheck configured
	HealthStarting
	HealthHealthy
	HealthUnhealthy
)

func (h Health) String() string {
	switch h {
	case HealthStarting:
		return "starting"
	case HealthHealthy:
		return "healthy"
	case HealthUnhealthy:
		return "unhealthy"
	default:
		return "none"
	}
}

// ParseHealth maps a healthcheck status string to a Health. Empty and
// unrecognised values map to HealthNone.
func ParseHealth(raw string) Health {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "starting":
		return HealthStarting
	case "healthy":
		return HealthHealthy
	case "unhealthy":
		return HealthUnhealthy
	default:
		return HealthNone
	}
}

// Observation is one container as seen in a single polling cycle.
type Observation struct {
	ID     string
	Name   string
	Status Status
	Health Health
	Labels map[string]string
}

// ShortID returns the 12-character id prefix used by the docker CLI.
func (o Observation) ShortID() string {
	if len(o.ID) > 12 {
		return o.ID[:12]
	}
	return o.ID
}
