package scene

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// maxLabelLines caps the word wrap; anything longer is truncated with an
// ellipsis on the last line.
const maxLabelLines = 2

// wrapLabel word-wraps a bubble name to at most two lines that fit inside
// the circle at the given font size. The usable width is the chord at
// mid-height, approximated as 1.6r; fontSize*0.6 approximates the average
// glyph advance for the monospace-ish faces both renderers use.
func wrapLabel(name string, r, fontSize float64) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	maxCols := int((r * 1.6) / (fontSize * 0.6))
	if maxCols < 3 {
		return nil
	}

	var lines []string
	var cur strings.Builder
	curW := 0
	flush := func() {
		if cur.Len() > 0 {
			lines = append(lines, cur.String())
			cur.Reset()
			curW = 0
		}
	}
	for _, w := range strings.Fields(name) {
		wW := runewidth.StringWidth(w)
		if curW > 0 && curW+1+wW > maxCols {
			flush()
		}
		if curW > 0 {
			cur.WriteByte(' ')
			curW++
		}
		cur.WriteString(w)
		curW += wW
	}
	flush()

	dropped := len(lines) > maxLabelLines
	if dropped {
		lines = lines[:maxLabelLines]
	}
	for i, l := range lines {
		// A single word can exceed the budget on its own.
		if runewidth.StringWidth(l) > maxCols {
			lines[i] = ellipsize(l, maxCols)
		}
	}
	if dropped {
		last := strings.TrimSuffix(lines[len(lines)-1], "…")
		lines[len(lines)-1] = ellipsize(last, maxCols)
	}
	return lines
}

// ellipsize fits s into maxCols display cells and makes it end with an
// ellipsis, counting display cells rather than bytes so wide runes stay
// intact.
func ellipsize(s string, maxCols int) string {
	if maxCols <= 1 {
		return "…"
	}
	if runewidth.StringWidth(s) < maxCols {
		return s + "…"
	}
	return runewidth.Truncate(s, maxCols-1, "") + "…"
}
