// Package ui holds the terminal styles shared by nbake commands.
package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// SetOutput picks the color profile for w, honoring NO_COLOR and
// CLICOLOR_FORCE.
func SetOutput(w io.Writer) {
	lipgloss.SetColorProfile(termenv.NewOutput(w).EnvColorProfile())
}

// DisableColor renders every style as plain text.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func RenderAccent(s string) string { return accentStyle.Render(s) }
func RenderPass(s string) string   { return passStyle.Render(s) }
func RenderWarn(s string) string   { return warnStyle.Render(s) }
func RenderFail(s string) string   { return failStyle.Render(s) }
func RenderMuted(s string) string  { return mutedStyle.Render(s) }
func RenderHeader(s string) string { return headerStyle.Render(s) }

// RenderOutcome colors a commit outcome.
func RenderOutcome(outcome string) string {
	switch outcome {
	case "committed":
		return RenderPass(outcome)
	case "failed":
		return RenderFail(outcome)
	default:
		return RenderMuted(outcome)
	}
}

// RenderState colors a tracker state.
func RenderState(state string) string {
	if state == "dirty" {
		return RenderWarn(state)
	}
	return RenderPass(state)
}
