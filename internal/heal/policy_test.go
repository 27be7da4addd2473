package heal

import "testing"

func TestDecideNeverSkipsWithoutCounting(t *testing.T) {
	t.Parallel()

	attempts := NewAttempts()
	policy := Policy{Mode: PolicyNever, MaxAttempts: 3}
	for i := 0; i < 5; i++ {
		d := Decide("web", ReasonExited, policy, attempts)
		if d.Action != ActionSkip {
			t.Fatalf("cycle %d: action = %s, want skip", i, d.Action)
		}
	}
	if attempts.Has("web") {
		t.Fatalf("never policy created attempt entry %d", attempts.Get("web"))
	}
}

func TestDecideAlwaysRestartsPastBudget(t *testing.T) {
	t.Parallel()

	attempts := NewAttempts()
	policy := Policy{Mode: PolicyAlways, MaxAttempts: 1}
	for i := 1; i <= 4; i++ {
		d := Decide("web", ReasonUnhealthy, policy, attempts)
		if d.Action != ActionRestart {
			t.Fatalf("cycle %d: action = %s, want restart", i, d.Action)
		}
		if d.Attempt != i {
			t.Fatalf("cycle %d: attempt = %d, want %d", i, d.Attempt, i)
		}
	}
	if got := attempts.Get("web"); got != 4 {
		t.Fatalf("stored attempts = %d, want 4", got)
	}
}

func TestDecideOnFailureGivesUpAndStaysGivenUp(t *testing.T) {
	t.Parallel()

	attempts := NewAttempts()
	policy := Policy{Mode: PolicyOnFailure, MaxAttempts: 2}

	want := []Action{ActionRestart, ActionRestart, ActionGiveUp, ActionGiveUp}
	for i, action := range want {
		d := Decide("web", ReasonExited, policy, attempts)
		if d.Action != action {
			t.Fatalf("cycle %d: action = %s, want %s", i+1, d.Action, action)
		}
	}
	if got := attempts.Get("web"); got != 2 {
		t.Fatalf("stored attempts = %d, want 2", got)
	}

	if !attempts.Reset("web") {
		t.Fatal("Reset() = false, want true")
	}
	d := Decide("web", ReasonExited, policy, attempts)
	if d.Action != ActionRestart || d.Attempt != 1 {
		t.Fatalf("after reset: %+v, want restart attempt 1", d)
	}
}

func TestDecideZeroBudgetNeverRestarts(t *testing.T) {
	t.Parallel()

	attempts := NewAttempts()
	d := Decide("web", ReasonExited, Policy{Mode: PolicyOnFailure, MaxAttempts: 0}, attempts)
	if d.Action != ActionGiveUp {
		t.Fatalf("action = %s, want give-up", d.Action)
	}
	if attempts.Has("web") {
		t.Fatal("give-up must not create an attempt entry")
	}
}

func TestDecideZeroValueAttempts(t *testing.T) {
	t.Parallel()

	var attempts Attempts
	d := Decide("web", ReasonExited, Policy{Mode: PolicyOnFailure, MaxAttempts: 1}, &attempts)
	if d.Action != ActionRestart {
		t.Fatalf("action = %s, want restart", d.Action)
	}
	if got := attempts.Get("web"); got != 1 {
		t.Fatalf("stored attempts = %d, want 1", got)
	}
}

func TestResolvePolicy(t *testing.T) {
	t.Parallel()

	def := Policy{Mode: PolicyOnFailure, MaxAttempts: 5}

	tests := []struct {
		name     string
		labels   map[string]string
		want     Policy
		warnings int
	}{
		{name: "no labels", labels: nil, want: def},
		{
			name:   "policy override",
			labels: map[string]string{LabelPolicy: "always"},
			want:   Policy{Mode: PolicyAlways, MaxAttempts: 5},
		},
		{
			name:   "max attempts override",
			labels: map[string]string{LabelMaxAttempts: "2"},
			want:   Policy{Mode: PolicyOnFailure, MaxAttempts: 2},
		},
		{
			name:   "both overrides",
			labels: map[string]string{LabelPolicy: "never", LabelMaxAttempts: " 0 "},
			want:   Policy{Mode: PolicyNever, MaxAttempts: 0},
		},
		{
			name:     "unknown policy falls back",
			labels:   map[string]string{LabelPolicy: "sometimes"},
			want:     def,
			warnings: 1,
		},
		{
			name:     "non-integer max attempts falls back",
			labels:   map[string]string{LabelMaxAttempts: "three"},
			want:     def,
			warnings: 1,
		},
		{
			name:     "negative max attempts falls back",
			labels:   map[string]string{LabelMaxAttempts: "-1", LabelPolicy: "always"},
			want:     Policy{Mode: PolicyAlways, MaxAttempts: 5},
			warnings: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, warnings := ResolvePolicy(tt.labels, def)
			if got != tt.want {
				t.Fatalf("ResolvePolicy() = %+v, want %+v", got, tt.want)
			}
			if len(warnings) != tt.warnings {
				t.Fatalf("warnings = %v, want %d", warnings, tt.warnings)
			}
		})
	}
}

func TestParsePolicyMode(t *testing.T) {
	t.Parallel()

	for _, mode := range []PolicyMode{PolicyAlways, PolicyOnFailure, PolicyNever} {
		got, err := ParsePolicyMode(mode.String())
		if err != nil {
			t.Fatalf("ParsePolicyMode(%q) error = %v", mode, err)
		}
		if got != mode {
			t.Fatalf("ParsePolicyMode(%q) = %s", mode, got)
		}
	}
	if _, err := ParsePolicyMode("on_failure"); err == nil {
		t.Fatal("expected error for on_failure")
	}
}

func TestAttemptsClone(t *testing.T) {
	t.Parallel()

	a := NewAttempts()
	a.set("web", 2)
	c := a.Clone()
	c.set("web", 3)
	c.set("db", 1)

	if got := a.Get("web"); got != 2 {
		t.Fatalf("original web = %d, want 2", got)
	}
	if a.Has("db") {
		t.Fatal("clone write leaked into original")
	}
}
