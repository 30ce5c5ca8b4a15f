package ui

import (
	"strings"
	"testing"

	"github.com/vanderheijden86/clustermap/pkg/topics"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"fits", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut", "hello world", 8, "hello w…"},
		{"zero width", "hello", 0, ""},
		{"negative width", "hello", -3, ""},
		{"empty", "", 5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.max)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q; want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestTruncateWideRunes(t *testing.T) {
	// CJK characters occupy two cells each; truncation must respect the
	// visual width, not the rune count.
	got := truncate("日本語タイトル", 6)
	if strings.Contains(got, "タ") {
		t.Errorf("expected truncation before the 4th wide rune, got %q", got)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 5); got != "ab   " {
		t.Errorf("padRight(ab, 5) = %q", got)
	}
	if got := padRight("abcdef", 3); got != "abcdef" {
		t.Errorf("padRight should not cut, got %q", got)
	}
	if got := padRight("", 3); got != "   " {
		t.Errorf("padRight empty = %q", got)
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{7, "7"},
		{842, "842"},
		{999, "999"},
		{1000, "1k"},
		{1200, "1.2k"},
		{1500, "1.5k"},
		{2000, "2k"},
		{999_999, "1000k"},
		{1_000_000, "1M"},
		{3_400_000, "3.4M"},
	}
	for _, tt := range tests {
		if got := formatCount(tt.n); got != tt.want {
			t.Errorf("formatCount(%d) = %q; want %q", tt.n, got, tt.want)
		}
	}
}

func TestWeightShare(t *testing.T) {
	tests := []struct {
		name           string
		weight, parent int
		want           float64
	}{
		{"quarter", 25, 100, 0.25},
		{"full", 100, 100, 1},
		{"zero weight", 0, 100, 0},
		{"zero parent", 10, 0, 0},
		{"negative parent", 10, -5, 0},
		{"over parent clamps", 150, 100, 1},
		{"negative weight clamps", -10, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := weightShare(tt.weight, tt.parent); got != tt.want {
				t.Errorf("weightShare(%d, %d) = %v; want %v", tt.weight, tt.parent, got, tt.want)
			}
		})
	}
}

func TestTopicStatusIcon(t *testing.T) {
	if got := topicStatusIcon(topics.StatusReady); got != "·" {
		t.Errorf("ready icon = %q", got)
	}
	if got := topicStatusIcon(topics.StatusError); got != "✗" {
		t.Errorf("error icon = %q", got)
	}
	if got := topicStatusIcon(topics.StatusLoading); got != "…" {
		t.Errorf("loading icon = %q", got)
	}
}
