// Package color provides color detection and theming for CLI output.
package color

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/smykla-skalski/sendguard/internal/session"
)

// Profile reports whether color output should be enabled.
//
// Color is disabled when any of:
//   - NO_COLOR env is set (any value, per https://no-color.org)
//   - CLICOLOR=0
//   - TERM=dumb
//   - noColorFlag is true (--no-color CLI flag)
func Profile(noColorFlag bool) bool {
	if noColorFlag {
		return false
	}

	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}

	if os.Getenv("CLICOLOR") == "0" {
		return false
	}

	return os.Getenv("TERM") != "dumb"
}

// IsTerminal returns true if f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}

	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits int
}

// Theme holds lipgloss styles for session output.
type Theme struct {
	Healthy  lipgloss.Style
	Warning  lipgloss.Style
	Risky    lipgloss.Style
	Cooldown lipgloss.Style
	Blocked  lipgloss.Style
	Unknown  lipgloss.Style
	Header   lipgloss.Style
	Name     lipgloss.Style
	Muted    lipgloss.Style
}

// NewTheme creates a Theme. When color is false, all styles are empty (no ANSI codes).
func NewTheme(color bool) Theme {
	if !color {
		return Theme{}
	}

	return Theme{
		Healthy:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")), // bright green
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")), // bright yellow
		Risky:    lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		Cooldown: lipgloss.NewStyle().Foreground(lipgloss.Color("12")), // bright blue
		Blocked:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Unknown:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Header:   lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
		Name:     lipgloss.NewStyle().Bold(true),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// ForHealth returns the style used to render a health status.
func (t Theme) ForHealth(status session.HealthStatus) lipgloss.Style {
	switch status {
	case session.HealthHealthy:
		return t.Healthy
	case session.HealthWarning:
		return t.Warning
	case session.HealthRisky:
		return t.Risky
	case session.HealthCooldown:
		return t.Cooldown
	case session.HealthBlocked:
		return t.Blocked
	default:
		return t.Unknown
	}
}
