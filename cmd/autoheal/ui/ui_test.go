package ui

import (
	"strings"
	"testing"
)

func TestColorEnabled(t *testing.T) {
	testCases := []struct {
		name     string
		disabled bool
		env      map[string]string
		terminal bool
		want     bool
	}{
		{name: "terminal", terminal: true, want: true},
		{name: "pipe", terminal: false, want: false},
		{name: "flag", disabled: true, terminal: true, want: false},
		{name: "no color", env: map[string]string{envNoColor: "1"}, terminal: true, want: false},
		{name: "dumb term", env: map[string]string{envTerm: "DUMB"}, terminal: true, want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			getenv := func(key string) string { return tc.env[key] }
			if got := colorEnabled(tc.disabled, getenv, tc.terminal); got != tc.want {
				t.Fatalf("colorEnabled() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestKeyValuesAligns(t *testing.T) {
	ConfigureColor(true)

	out := KeyValues("  ", KV("mode", "all"), KV("interval", "5s"))
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("KeyValues() lines = %d, want 2", len(lines))
	}
	if lines[0] != "  mode:     all" || lines[1] != "  interval: 5s" {
		t.Fatalf("KeyValues() = %q", out)
	}
}

func TestTableContainsCells(t *testing.T) {
	ConfigureColor(true)

	out := Table([]string{"CONTAINER", "ACTION"}, [][]string{{"web", "restart"}, {"db", "give up"}})
	for _, want := range []string{"CONTAINER", "web", "restart", "give up"} {
		if !strings.Contains(out, want) {
			t.Fatalf("Table() missing %q:\n%s", want, out)
		}
	}
}
