package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette for the rendered diff, grounded on TsekNet-fleet-plan's
// internal/output/terminal.go (green/yellow/red/bold/dim lipgloss styles for
// additions/modifications/deletions).
var (
	added   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	changed = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	removed = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// styleDiff colors diff.Render's output line by line based on its leading
// +/~/- change marker, leaving unmarked (field-detail) lines unstyled.
func styleDiff(rendered string) string {
	if rendered == "" {
		return rendered
	}
	var out strings.Builder
	for _, line := range strings.Split(strings.TrimSuffix(rendered, "\n"), "\n") {
		trimmed := strings.TrimLeft(line, " ")
		switch {
		case strings.HasPrefix(trimmed, "+"):
			out.WriteString(added.Render(line))
		case strings.HasPrefix(trimmed, "~"):
			out.WriteString(changed.Render(line))
		case strings.HasPrefix(trimmed, "-"):
			out.WriteString(removed.Render(line))
		default:
			out.WriteString(line)
		}
		out.WriteString("\n")
	}
	return out.String()
}
