package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const (
	envNoColor = "NO_COLOR"
	envTerm    = "TERM"
)

// ConfigureColor picks the lipgloss color profile for stdout. Output is plain
// ASCII when disabled, NO_COLOR is set, TERM is dumb, or stdout is not a
// terminal.
func ConfigureColor(disabled bool) {
	if colorEnabled(disabled, os.Getenv, stdoutIsTerminal()) {
		lipgloss.SetColorProfile(termenv.NewOutput(os.Stdout).ColorProfile())
		return
	}
	lipgloss.SetColorProfile(termenv.Ascii)
}

func colorEnabled(disabled bool, getenv func(string) string, terminal bool) bool {
	if disabled {
		return false
	}
	if strings.TrimSpace(getenv(envNoColor)) != "" {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(getenv(envTerm)), "dumb") {
		return false
	}
	return terminal
}

func stdoutIsTerminal() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
