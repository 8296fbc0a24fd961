// Package components provides reusable UI components for the modelhub CLI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Build information - these are set via ldflags during build
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Session describes where the sandbox is pointed
type Session struct {
	// Source is the marketplace URL or the local catalog directory
	Source string
	// Quota is the name of the quota backend
	Quota string
	// Origin resolves relative endpoint paths; empty when none is set
	Origin string
}

// VersionString is the version with the short commit when known
func VersionString() string {
	v := "v" + Version
	if GitCommit != "unknown" && len(GitCommit) > 7 {
		v += fmt.Sprintf(" (%s)", GitCommit[:7])
	}
	return v
}

// RenderHeader renders the title and a status line for the session
func RenderHeader(s Session) string {
	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7D56F4")).
		Bold(true).
		MarginTop(1).
		MarginLeft(2)

	statusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginLeft(2).
		MarginBottom(1)

	parts := []string{VersionString()}
	if s.Source != "" {
		parts = append(parts, "models: "+s.Source)
	}
	if s.Quota != "" {
		parts = append(parts, "quota: "+s.Quota)
	}
	if s.Origin != "" {
		parts = append(parts, "origin: "+s.Origin)
	}

	title := titleStyle.Render("Modelhub Sandbox")
	status := statusStyle.Render(strings.Join(parts, " · "))

	return title + "\n" + status + "\n"
}
