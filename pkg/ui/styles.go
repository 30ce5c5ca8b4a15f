package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/clustermap/pkg/hierarchy"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE - Adaptive colors for light and dark terminals
// Light mode colors tuned for WCAG AA compliance (contrast ratio >= 4.5:1)
// ══════════════════════════════════════════════════════════════════════════════

var (
	// Base colors - Light mode uses darker colors for contrast on white backgrounds
	ColorBg          = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}
	ColorBgSubtle    = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#363949"}
	ColorBgHighlight = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"}
	ColorText        = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext     = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted       = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}

	// Primary accent colors
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger  = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}

	// Level badge backgrounds (saturated, white text)
	ColorLevelBadgeText = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FFFFFF"}
	ColorLevelL2Bg      = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#904EE2"} // Purple
	ColorLevelL1Bg      = lipgloss.AdaptiveColor{Light: "#008080", Dark: "#00A3A3"} // Teal
	ColorLevelL0Bg      = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#C98A3D"} // Amber

	// Status message backgrounds for the footer bar
	ColorStatusOkBg  = lipgloss.AdaptiveColor{Light: "#D4EDDA", Dark: "#1A3D2A"}
	ColorStatusErrBg = lipgloss.AdaptiveColor{Light: "#F8D7DA", Dark: "#3D1A1A"}
)

// ══════════════════════════════════════════════════════════════════════════════
// PANEL STYLES - For split view layouts
// ══════════════════════════════════════════════════════════════════════════════

var (
	// PanelStyle is the default style for unfocused panels
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBgHighlight)

	// FocusedPanelStyle is the style for focused panels
	FocusedPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorPrimary)
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE RENDERING
// ══════════════════════════════════════════════════════════════════════════════

// RenderLevelBadge returns a colored square badge with the level's digit.
// All badges are exactly 1 cell wide for consistent outline alignment.
func RenderLevelBadge(l hierarchy.Level) string {
	var bg lipgloss.AdaptiveColor
	var label string

	switch l {
	case hierarchy.LevelL2:
		bg, label = ColorLevelL2Bg, "2"
	case hierarchy.LevelL1:
		bg, label = ColorLevelL1Bg, "1"
	case hierarchy.LevelL0:
		bg, label = ColorLevelL0Bg, "0"
	default:
		bg, label = ColorBgSubtle, "·"
	}

	return lipgloss.NewStyle().
		Foreground(ColorLevelBadgeText).
		Background(bg).
		Bold(true).
		Render(label)
}

// RenderWeightBar renders a mini horizontal bar for a node's share of its
// parent's conversations, value in [0, 1].
func RenderWeightBar(value float64, width int, t Theme) string {
	if width <= 0 {
		return ""
	}
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}

	filled := int(value * float64(width))
	if filled > width {
		filled = width
	}

	var barColor lipgloss.AdaptiveColor
	if value >= 0.5 {
		barColor = t.Primary
	} else if value >= 0.2 {
		barColor = t.Info
	} else {
		barColor = t.Secondary
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return t.Renderer.NewStyle().Foreground(barColor).Render(bar)
}

// ══════════════════════════════════════════════════════════════════════════════
// DIVIDERS AND SEPARATORS
// ══════════════════════════════════════════════════════════════════════════════

// RenderDivider renders a horizontal divider line
func RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(ColorBgHighlight).
		Render(strings.Repeat("─", width))
}
