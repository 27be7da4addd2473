package heal

import (
	"fmt"
	"strings"
	"time"
)

// ScopeMode selects which containers the supervisor may act on.
type ScopeMode uint8

const (
	ScopeAll     ScopeMode = iota // every container except the daemon itself
	ScopeLabeled                  // only containers labeled autoheal.enable=true
)

func (m ScopeMode) String() string {
	switch m {
	case ScopeAll:
		return "all"
	case ScopeLabeled:
		return "labeled"
	default:
		return fmt.Sprintf("ScopeMode(%d)", uint8(m))
	}
}

// ParseScopeMode parses "all" or "labeled".
func ParseScopeMode(raw string) (ScopeMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "all":
		return ScopeAll, nil
	case "labeled":
		return ScopeLabeled, nil
	default:
		return 0, fmt.Errorf("invalid mode %q: must be all or labeled", raw)
	}
}

// Settings is the immutable supervision configuration consumed by the
// decision core.
type Settings struct {
	Scope            ScopeMode
	RestartExited    bool
	RestartUnhealthy bool
	DefaultPolicy    Policy
	// SelfContainerID identifies the container the daemon runs in, if any.
	SelfContainerID string
	Interval        time.Duration
}
