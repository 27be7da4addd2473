package heal

// Reason explains why a container needs healing.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonExited
	ReasonUnhealthy
)

func (r Reason) String() string {
	switch r {
	case ReasonExited:
		return "exited"
	case ReasonUnhealthy:
		return "unhealthy"
	default:
		return "none"
	}
}

// Verdict is the classifier's output for one observation.
type Verdict struct {
	NeedsHealing bool
	Reason       Reason
}

// Classify decides whether obs needs healing. An exited container is
// reported as exited even when its last health status was unhealthy.
func Classify(obs Observation, s Settings) Verdict {
	if obs.Status == StatusExited && s.RestartExited {
		return Verdict{NeedsHealing: true, Reason: ReasonExited}
	}
	if obs.Health == HealthUnhealthy && s.RestartUnhealthy {
		return Verdict{NeedsHealing: true, Reason: ReasonUnhealthy}
	}
	return Verdict{}
}
