// Package util provides shared formatting helpers.
package util

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// TruncateANSI truncates a string to maxWidth visual columns, adding "..."
// if truncated. ANSI escape codes and wide characters (CJK status lines,
// emoji markers) are measured by their rendered width.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	return ansi.Truncate(s, maxWidth, "...")
}

// SingleLine collapses a multi-line status message to one line so it can
// sit on a fixed display row.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
