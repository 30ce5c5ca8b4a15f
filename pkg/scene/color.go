// Package scene turns a packed layout plus navigation state into a display
// list of styled bubbles, and renders that list to PNG or SVG. The display
// list is screen-space and recomputed wholesale every frame; renderers stay
// dumb.
package scene

import (
	"fmt"
	"hash/fnv"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Base palette for top-level (L2) categories, assigned by document order.
// Hierarchies with more top-level categories than palette entries fall back
// to a deterministic hash-to-hue colour per category id.
var basePalette = []color.RGBA{
	{0x63, 0x66, 0xf1, 0xff}, // indigo
	{0x14, 0xb8, 0xa6, 0xff}, // teal
	{0xf5, 0x9e, 0x0b, 0xff}, // amber
	{0xf4, 0x3f, 0x5e, 0xff}, // rose
	{0x8b, 0x5c, 0xf6, 0xff}, // violet
	{0x0e, 0xa5, 0xe9, 0xff}, // sky
}

var (
	colorBackdrop   = color.RGBA{0x0f, 0x11, 0x1a, 0xff}
	colorSelected   = color.RGBA{0xfa, 0xfa, 0xfa, 0xff}
	colorLabelLight = color.RGBA{0xf0, 0xf0, 0xf5, 0xff}
)

// BaseColor returns the palette colour for the top-level category at the
// given document position, or the hashed fallback when the palette runs out.
func BaseColor(index int, id string) color.RGBA {
	if index >= 0 && index < len(basePalette) {
		return basePalette[index]
	}
	return hashedColor(id)
}

// PaletteColor is BaseColor with an optional override palette, used when the
// config file supplies its own category colours. An override that is shorter
// than the category list falls through to the built-in palette.
func PaletteColor(override []color.RGBA, index int, id string) color.RGBA {
	if index >= 0 && index < len(override) {
		return override[index]
	}
	return BaseColor(index, id)
}

// ParsePalette parses #rrggbb hex strings into palette colours. A leading
// '#' is optional.
func ParsePalette(hexes []string) ([]color.RGBA, error) {
	if len(hexes) == 0 {
		return nil, nil
	}
	out := make([]color.RGBA, 0, len(hexes))
	for _, s := range hexes {
		t := strings.TrimPrefix(strings.TrimSpace(s), "#")
		if len(t) != 6 {
			return nil, fmt.Errorf("palette colour %q: want rrggbb hex", s)
		}
		v, err := strconv.ParseUint(t, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("palette colour %q: %w", s, err)
		}
		out = append(out, color.RGBA{
			R: uint8(v >> 16),
			G: uint8(v >> 8),
			B: uint8(v),
			A: 0xff,
		})
	}
	return out, nil
}

// hashedColor derives a stable, reasonably spaced hue from the category id.
func hashedColor(id string) color.RGBA {
	h := fnv.New32a()
	h.Write([]byte(id))
	hue := float64(h.Sum32()%360) / 360
	return hslToRGBA(hsl{h: hue, s: 0.65, l: 0.55})
}

// hsl is a working colour representation for the shade transforms. All
// components are in [0, 1]; h wraps.
type hsl struct {
	h, s, l float64
}

func rgbaToHSL(c color.RGBA) hsl {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	l := (max + min) / 2

	if max == min {
		return hsl{h: 0, s: 0, l: l}
	}

	d := max - min
	var s float64
	if l > 0.5 {
		s = d / (2 - max - min)
	} else {
		s = d / (max + min)
	}

	var h float64
	switch max {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	return hsl{h: h / 6, s: s, l: l}
}

func hslToRGBA(c hsl) color.RGBA {
	if c.s == 0 {
		v := uint8(math.Round(c.l * 255))
		return color.RGBA{R: v, G: v, B: v, A: 255}
	}

	var q float64
	if c.l < 0.5 {
		q = c.l * (1 + c.s)
	} else {
		q = c.l + c.s - c.l*c.s
	}
	p := 2*c.l - q

	conv := func(t float64) uint8 {
		if t < 0 {
			t++
		}
		if t > 1 {
			t--
		}
		var v float64
		switch {
		case t < 1.0/6:
			v = p + (q-p)*6*t
		case t < 1.0/2:
			v = q
		case t < 2.0/3:
			v = p + (q-p)*(2.0/3-t)*6
		default:
			v = p
		}
		return uint8(math.Round(v * 255))
	}
	return color.RGBA{
		R: conv(c.h + 1.0/3),
		G: conv(c.h),
		B: conv(c.h - 1.0/3),
		A: 255,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// GlowyShade brightens and saturates the base colour for focused,
// current-level bubbles.
func GlowyShade(c color.RGBA) color.RGBA {
	h := rgbaToHSL(c)
	h.l = clamp(h.l+0.12, 0, 0.85)
	h.s = clamp(h.s+0.15, 0, 1)
	return hslToRGBA(h)
}

// DarkerShade dims and desaturates the base colour for background bubbles
// below the current level.
func DarkerShade(c color.RGBA) color.RGBA {
	h := rgbaToHSL(c)
	h.l = clamp(h.l-0.18, 0.08, 1)
	h.s = clamp(h.s-0.25, 0, 1)
	return hslToRGBA(h)
}

// BorderColor darkens the display colour with a lightness ceiling so borders
// always contrast against the fill.
func BorderColor(c color.RGBA) color.RGBA {
	h := rgbaToHSL(c)
	h.l = clamp(h.l-0.2, 0.05, 0.35)
	return hslToRGBA(h)
}

// TextColor darkens further than BorderColor; labels sit on the brightest
// part of the gradient.
func TextColor(c color.RGBA) color.RGBA {
	h := rgbaToHSL(c)
	h.l = clamp(h.l-0.3, 0.05, 0.25)
	return hslToRGBA(h)
}

// withAlpha returns the colour with its alpha replaced.
func withAlpha(c color.RGBA, alpha float64) color.RGBA {
	c.A = uint8(math.Round(clamp(alpha, 0, 1) * 255))
	return c
}

// opacityOf converts the 0-255 alpha channel to a CSS opacity.
func opacityOf(c color.RGBA) float64 {
	return float64(c.A) / 255
}

// css formats a colour as a #rrggbb hex string for SVG attributes.
func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
