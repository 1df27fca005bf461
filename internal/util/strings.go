// Package util provides string helpers for terminal output.
package util

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Truncate shortens s to maxWidth visual columns, ending in "..." when
// shortened. Escape sequences are kept intact and not counted.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	return ansi.Truncate(s, maxWidth, "...")
}

// PadRight pads s with spaces to width visual columns.
func PadRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// MaxWidth returns the widest visual width in items.
func MaxWidth(items []string) int {
	widest := 0
	for _, s := range items {
		widest = max(widest, lipgloss.Width(s))
	}
	return widest
}

// Plural formats n with singular or singular+"s".
func Plural(n int, singular string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %ss", n, singular)
}
