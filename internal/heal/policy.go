package heal

import (
	"fmt"
	"strconv"
	"strings"
)

// PolicyMode is the restart strategy applied to a container needing healing.
type PolicyMode uint8

const (
	PolicyOnFailure PolicyMode = iota // restart up to MaxAttempts consecutive times
	PolicyAlways                      // restart every time, no budget
	PolicyNever                       // observe only
)

func (m PolicyMode) String() string {
	switch m {
	case PolicyOnFailure:
		return "on-failure"
	case PolicyAlways:
		return "always"
	case PolicyNever:
		return "never"
	default:
		return fmt.Sprintf("PolicyMode(%d)", uint8(m))
	}
}

// ParsePolicyMode parses "always", "on-failure" or "never".
func ParsePolicyMode(raw string) (PolicyMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on-failure":
		return PolicyOnFailure, nil
	case "always":
		return PolicyAlways, nil
	case "never":
		return PolicyNever, nil
	default:
		return 0, fmt.Errorf("invalid restart policy %q: must be always, on-failure or never", raw)
	}
}

// Policy is the restart policy resolved for one container in one cycle.
type Policy struct {
	Mode        PolicyMode
	MaxAttempts int
}

// ResolvePolicy applies the container's label overrides on top of def.
// A label that does not parse leaves the default for that field in place
// and is returned as a warning.
func ResolvePolicy(labels map[string]string, def Policy) (Policy, []error) {
	p := def
	var warnings []error

	if raw, ok := labels[LabelPolicy]; ok {
		mode, err := ParsePolicyMode(raw)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("label %s: %w", LabelPolicy, err))
		} else {
			p.Mode = mode
		}
	}

	if raw, ok := labels[LabelMaxAttempts]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		switch {
		case err != nil:
			warnings = append(warnings, fmt.Errorf("label %s: invalid integer %q", LabelMaxAttempts, raw))
		case n < 0:
			warnings = append(warnings, fmt.Errorf("label %s: must not be negative, got %d", LabelMaxAttempts, n))
		default:
			p.MaxAttempts = n
		}
	}

	return p, warnings
}

// Action is what the supervisor does with a container needing healing.
type Action uint8

const (
	ActionSkip Action = iota
	ActionRestart
	ActionGiveUp
)

func (a Action) String() string {
	switch a {
	case ActionRestart:
		return "restart"
	case ActionGiveUp:
		return "give-up"
	default:
		return "skip"
	}
}

// Decision is the policy engine's verdict for one container.
type Decision struct {
	Action Action
	Reason Reason
	// Attempt is the attempt number this evaluation represents (stored + 1).
	Attempt int
}

// Decide applies policy to a container needing healing and persists the
// outcome in attempts. Only a restart decision writes to attempts; skip and
// give-up leave the stored count untouched so a container that exhausted its
// budget stays given up until it recovers.
func Decide(name string, reason Reason, policy Policy, attempts *Attempts) Decision {
	current := attempts.Get(name) + 1
	d := Decision{Reason: reason, Attempt: current}

	switch {
	case policy.Mode == PolicyNever:
		d.Action = ActionSkip
	case policy.Mode == PolicyAlways,
		policy.Mode == PolicyOnFailure && current <= policy.MaxAttempts:
		d.Action = ActionRestart
		attempts.set(name, current)
	default:
		d.Action = ActionGiveUp
	}
	return d
}
