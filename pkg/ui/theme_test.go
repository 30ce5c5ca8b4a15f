package ui

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/clustermap/pkg/hierarchy"
)

func TestGetLevelColor(t *testing.T) {
	theme := TestTheme()

	if got := theme.GetLevelColor(hierarchy.LevelL2); got != theme.Category {
		t.Errorf("L2 color = %v", got)
	}
	if got := theme.GetLevelColor(hierarchy.LevelL1); got != theme.Subtopic {
		t.Errorf("L1 color = %v", got)
	}
	if got := theme.GetLevelColor(hierarchy.LevelL0); got != theme.Leaf {
		t.Errorf("L0 color = %v", got)
	}
	if got := theme.GetLevelColor(hierarchy.Level(99)); got != theme.Subtext {
		t.Errorf("unknown level color = %v; want subtext fallback", got)
	}
}

func TestApplyThemePreference(t *testing.T) {
	r := lipgloss.NewRenderer(io.Discard)

	ApplyThemePreference(r, "dark")
	if !r.HasDarkBackground() {
		t.Error("dark preference not applied")
	}
	ApplyThemePreference(r, "light")
	if r.HasDarkBackground() {
		t.Error("light preference not applied")
	}

	// Unrecognised names keep whatever detection decided.
	ApplyThemePreference(r, "auto")
	if r.HasDarkBackground() {
		t.Error("auto should not override the explicit light setting")
	}
}

func TestThemeProfileGatedColors(t *testing.T) {
	saved := TermProfile
	defer func() { TermProfile = saved }()

	TermProfile = colorprofile.TrueColor
	if got := ThemeBg("#282A36"); got != lipgloss.Color("#282A36") {
		t.Errorf("truecolor bg = %v", got)
	}
	if got := ThemeFg("#F8F8F2"); got != lipgloss.Color("#F8F8F2") {
		t.Errorf("truecolor fg = %v", got)
	}

	TermProfile = colorprofile.ANSI
	if _, ok := ThemeBg("#282A36").(lipgloss.NoColor); !ok {
		t.Error("16-color terminals should fall back to the terminal background")
	}
	if got := ThemeFg("#F8F8F2"); got != lipgloss.ANSIColor(7) {
		t.Errorf("16-color fg = %v; want ANSI white", got)
	}

	TermProfile = colorprofile.ANSI256
	if _, ok := ThemeBg("#282A36").(lipgloss.NoColor); !ok {
		t.Error("256-color terminals should still skip the hex background")
	}
	if got := ThemeFg("#F8F8F2"); got != lipgloss.Color("#F8F8F2") {
		t.Errorf("256-color fg = %v; want the hex passthrough", got)
	}
}

func TestRenderLevelBadge(t *testing.T) {
	tests := []struct {
		level hierarchy.Level
		want  string
	}{
		{hierarchy.LevelL2, "2"},
		{hierarchy.LevelL1, "1"},
		{hierarchy.LevelL0, "0"},
		{hierarchy.Level(99), "·"},
	}
	for _, tt := range tests {
		if got := RenderLevelBadge(tt.level); !strings.Contains(got, tt.want) {
			t.Errorf("badge for %v = %q; want %q inside", tt.level, got, tt.want)
		}
	}
}

func TestRenderWeightBar(t *testing.T) {
	theme := TestTheme()

	full := RenderWeightBar(1, 4, theme)
	if !strings.Contains(full, "████") || strings.Contains(full, "░") {
		t.Errorf("full bar = %q", full)
	}

	empty := RenderWeightBar(0, 4, theme)
	if !strings.Contains(empty, "░░░░") || strings.Contains(empty, "█") {
		t.Errorf("empty bar = %q", empty)
	}

	half := RenderWeightBar(0.5, 4, theme)
	if !strings.Contains(half, "██░░") {
		t.Errorf("half bar = %q", half)
	}

	// Out-of-range values clamp instead of panicking.
	if got := RenderWeightBar(2.5, 4, theme); !strings.Contains(got, "████") {
		t.Errorf("overfull bar = %q", got)
	}
	if got := RenderWeightBar(-1, 4, theme); !strings.Contains(got, "░░░░") {
		t.Errorf("negative bar = %q", got)
	}
	if got := RenderWeightBar(0.5, 0, theme); got != "" {
		t.Errorf("zero-width bar = %q; want empty", got)
	}
}
