package heal

import "strings"

// shortIDLen is the length of the id docker writes to a container's HOSTNAME.
const shortIDLen = 12

// InScope reports whether the supervisor may evaluate obs at all.
// The daemon's own container is never in scope.
func InScope(obs Observation, s Settings) bool {
	if isSelf(obs.ID, s.SelfContainerID) {
		return false
	}
	switch s.Scope {
	case ScopeLabeled:
		return strings.EqualFold(obs.Labels[LabelEnable], "true")
	default:
		return true
	}
}

func isSelf(id, self string) bool {
	if self == "" {
		return false
	}
	if id == self {
		return true
	}
	return len(self) >= shortIDLen && strings.HasPrefix(id, self)
}
