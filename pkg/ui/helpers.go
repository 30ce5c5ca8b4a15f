package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/clustermap/pkg/topics"
)

// truncateRunesHelper truncates a string to max visual width (cells), adding suffix if needed.
// Uses go-runewidth to handle wide characters correctly.
func truncateRunesHelper(s string, maxWidth int, suffix string) string {
	if maxWidth <= 0 {
		return ""
	}

	width := runewidth.StringWidth(s)
	if width <= maxWidth {
		return s
	}

	suffixWidth := runewidth.StringWidth(suffix)
	if suffixWidth > maxWidth {
		// Even suffix is too wide, truncate suffix
		return runewidth.Truncate(suffix, maxWidth, "")
	}

	targetWidth := maxWidth - suffixWidth
	return runewidth.Truncate(s, targetWidth, "") + suffix
}

// padRight pads string s with spaces on the right to length width
func padRight(s string, width int) string {
	runeCount := utf8.RuneCountInString(s)
	if runeCount >= width {
		return s
	}
	return s + strings.Repeat(" ", width-runeCount)
}

// truncate truncates string s to maxRunes
func truncate(s string, maxRunes int) string {
	return truncateRunesHelper(s, maxRunes, "…")
}

// formatCount renders a conversation count compactly: 842, 1.2k, 3.4M.
func formatCount(n int) string {
	switch {
	case n >= 1_000_000:
		return trimZero(fmt.Sprintf("%.1fM", float64(n)/1_000_000))
	case n >= 1_000:
		return trimZero(fmt.Sprintf("%.1fk", float64(n)/1_000))
	default:
		return fmt.Sprintf("%d", n)
	}
}

// trimZero drops the pointless ".0" from 2.0k style figures.
func trimZero(s string) string {
	if i := strings.Index(s, ".0"); i >= 0 {
		return s[:i] + s[i+2:]
	}
	return s
}

// weightShare is node weight as a fraction of its parent's, for the
// outline's mini bars. Parents with zero weight yield zero.
func weightShare(weight, parentWeight int) float64 {
	if parentWeight <= 0 {
		return 0
	}
	f := float64(weight) / float64(parentWeight)
	if f > 1 {
		return 1
	}
	if f < 0 {
		return 0
	}
	return f
}

// topicStatusIcon maps a topic cache entry's lifecycle to a one-cell marker.
func topicStatusIcon(st topics.Status) string {
	switch st {
	case topics.StatusReady:
		return "·"
	case topics.StatusError:
		return "✗"
	default:
		return "…"
	}
}
