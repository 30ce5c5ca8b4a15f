package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/clustermap/pkg/hierarchy"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals use the
// terminal's own background instead of a down-converted approximation
// that may clash with palettes like Solarized.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

type Theme struct {
	Renderer *lipgloss.Renderer

	// Colors
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor

	// Hierarchy levels
	Category lipgloss.AdaptiveColor // L2 top-level categories
	Subtopic lipgloss.AdaptiveColor // L1 themes
	Leaf     lipgloss.AdaptiveColor // L0 clusters

	// Signals
	Info    lipgloss.AdaptiveColor
	Success lipgloss.AdaptiveColor
	Warning lipgloss.AdaptiveColor
	Danger  lipgloss.AdaptiveColor

	// UI elements
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor

	// Styles
	Base     lipgloss.Style
	Selected lipgloss.Style
	Header   lipgloss.Style

	// Pre-computed row styles. Created once at startup instead of per-frame;
	// the outline renders up to a few hundred rows per keystroke.
	MutedText     lipgloss.Style
	InfoText      lipgloss.Style
	SecondaryText lipgloss.Style
	PrimaryBold   lipgloss.Style
	SuccessText   lipgloss.Style
	DangerText    lipgloss.Style
	CrumbSep      lipgloss.Style
	SyncOn        lipgloss.Style
	SyncOff       lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive).
// Light mode colors tuned for WCAG AA contrast.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}, // Purple
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}, // Gray
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"}, // Dim

		Category: lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}, // Purple, matches map accents
		Subtopic: lipgloss.AdaptiveColor{Light: "#008080", Dark: "#00CED1"}, // Teal
		Leaf:     lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}, // Amber

		Info:    lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}, // Cyan
		Success: lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}, // Green
		Warning: lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}, // Orange
		Danger:  lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}, // Red

		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})

	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(t.Primary).
		PaddingLeft(1).
		Bold(true)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.InfoText = r.NewStyle().Foreground(t.Info)
	t.SecondaryText = r.NewStyle().Foreground(t.Secondary)
	t.PrimaryBold = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.SuccessText = r.NewStyle().Foreground(t.Success)
	t.DangerText = r.NewStyle().Foreground(t.Danger)
	t.CrumbSep = r.NewStyle().Foreground(t.Muted)
	t.SyncOn = r.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Background(t.Success).
		Bold(true).
		Padding(0, 1)
	t.SyncOff = r.NewStyle().
		Foreground(t.Muted).
		Padding(0, 1)

	return t
}

// GetLevelColor maps a hierarchy level to its badge color.
func (t Theme) GetLevelColor(l hierarchy.Level) lipgloss.AdaptiveColor {
	switch l {
	case hierarchy.LevelL2:
		return t.Category
	case hierarchy.LevelL1:
		return t.Subtopic
	case hierarchy.LevelL0:
		return t.Leaf
	default:
		return t.Subtext
	}
}

// ApplyThemePreference forces the dark or light variant of every adaptive
// color when the config names one explicitly. Any other value keeps the
// renderer's own background detection.
func ApplyThemePreference(r *lipgloss.Renderer, name string) {
	switch name {
	case "dark":
		r.SetHasDarkBackground(true)
	case "light":
		r.SetHasDarkBackground(false)
	}
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
