package scene

import (
	"image/color"
	"math"
	"sort"
	"time"

	"github.com/vanderheijden86/clustermap/pkg/camera"
	"github.com/vanderheijden86/clustermap/pkg/hierarchy"
	"github.com/vanderheijden86/clustermap/pkg/layout"
	"github.com/vanderheijden86/clustermap/pkg/metrics"
)

const (
	// PulsePeriod is the wall-clock cycle of the selection halo.
	PulsePeriod = 2 * time.Second

	// MinLabelRadius is the smallest screen-space radius that still gets a
	// text label.
	MinLabelRadius = 24.0

	pulseScaleMin = 1.05
	pulseScaleMax = 1.35
)

// Input is everything one frame needs. Nodes come from the current layout
// pass; Root is the full hierarchy, used only to resolve an L2 ancestor that
// is not part of the active layout.
type Input struct {
	Nodes      []*layout.PackedNode
	Root       *hierarchy.ClusterNode
	SelectedID string
	HoveredID  string
	Camera     camera.Camera
	Width      float64
	Height     float64
	Now        time.Time
	ShowLabels bool
	// Palette overrides the built-in category palette when non-empty.
	Palette []color.RGBA
}

// Halo is a soft radial glow around a bubble. R is the glow's outer radius
// in screen units; Color carries the peak alpha at the bubble's rim.
type Halo struct {
	R     float64
	Color color.RGBA
}

// Bubble is one styled circle in screen space.
type Bubble struct {
	ID           string
	Name         string
	X, Y, R      float64
	Depth        int
	CurrentLevel bool
	Selected     bool
	Hovered      bool

	Fill       color.RGBA // gradient centre stop
	FillOuter  color.RGBA // gradient rim stop
	Border     color.RGBA
	BorderW    float64
	Dashed     bool
	Glow       *Halo // decluttered deep-node glow
	Pulse      *Halo // animated selection halo
	LabelLines []string
	LabelSize  float64
	LabelColor color.RGBA
}

// DisplayList is a fully resolved frame: background plus bubbles in paint
// order (deepest first, so shallower bubbles cover their descendants'
// glows).
type DisplayList struct {
	Width      int
	Height     int
	Background color.RGBA
	Bubbles    []Bubble
}

// Empty reports whether there is nothing to paint.
func (d *DisplayList) Empty() bool {
	return d == nil || len(d.Bubbles) == 0
}

// Build assembles the display list for one frame. A zero-sized viewport or
// an empty layout yields an empty list the renderers skip silently.
func Build(in Input) *DisplayList {
	defer metrics.Timer(metrics.DisplayBuild)()

	dl := &DisplayList{
		Width:      int(in.Width),
		Height:     int(in.Height),
		Background: colorBackdrop,
	}
	if in.Width <= 0 || in.Height <= 0 || len(in.Nodes) == 0 {
		return dl
	}

	palette := paletteIndex(in.Root)

	for _, n := range in.Nodes {
		if n.Depth == 0 || hierarchy.IsSyntheticRoot(n.Node.ID) {
			continue
		}
		dl.Bubbles = append(dl.Bubbles, buildBubble(in, palette, n))
	}

	// Deepest first, document order within a depth band, so shallower
	// bubbles paint over their descendants' glows.
	sort.SliceStable(dl.Bubbles, func(i, j int) bool {
		return dl.Bubbles[i].Depth > dl.Bubbles[j].Depth
	})
	return dl
}

// paletteIndex maps every top-level category id to its document position.
func paletteIndex(root *hierarchy.ClusterNode) map[string]int {
	idx := make(map[string]int)
	if root == nil {
		return idx
	}
	if hierarchy.IsSyntheticRoot(root.ID) {
		for i, c := range root.Children {
			idx[c.ID] = i
		}
	} else {
		idx[root.ID] = 0
	}
	return idx
}

func buildBubble(in Input, palette map[string]int, n *layout.PackedNode) Bubble {
	centre := in.Camera.Apply(n.Center(), in.Width, in.Height)
	r := in.Camera.ApplyLength(n.R)
	isCurrent := n.Depth == 1

	base := baseColorFor(in, palette, n)
	display := base
	switch {
	case n.Node.Level == hierarchy.LevelL2:
		// Top categories wear the palette colour itself.
	case isCurrent:
		display = GlowyShade(base)
	default:
		display = DarkerShade(base)
	}

	b := Bubble{
		ID:           n.Node.ID,
		Name:         n.Node.Name,
		X:            centre.X,
		Y:            centre.Y,
		R:            r,
		Depth:        n.Depth,
		CurrentLevel: isCurrent,
		Selected:     n.Node.ID == in.SelectedID,
		Hovered:      n.Node.ID == in.HoveredID,
	}

	if isCurrent {
		b.Fill = GlowyShade(display)
		b.FillOuter = display
		b.Border = BorderColor(display)
		b.BorderW = 2
	} else {
		dark := DarkerShade(display)
		b.Fill = display
		b.FillOuter = dark
		b.Border = BorderColor(display)
		b.BorderW = 1
		b.Dashed = true
		b.Glow = &Halo{
			R:     r * 1.3,
			Color: withAlpha(display, 0.18),
		}
	}

	if b.Hovered {
		b.Border = GlowyShade(b.Border)
		b.BorderW += 1.5
		b.Dashed = false
	}
	if b.Selected {
		b.Border = colorSelected
		b.BorderW = 3.5
		b.Dashed = false
		scale, alpha := pulseAt(in.Now)
		b.Pulse = &Halo{
			R:     r * scale,
			Color: withAlpha(colorSelected, alpha),
		}
	}

	if in.ShowLabels && isCurrent && r >= MinLabelRadius {
		b.LabelSize = labelFontSize(r)
		b.LabelLines = wrapLabel(n.Node.Name, r, b.LabelSize)
		b.LabelColor = labelColorFor(display)
	}
	return b
}

// baseColorFor resolves the node's L2 ancestor colour. The packed parent
// chain answers when the ancestor is part of the current layout; otherwise
// the full hierarchy is searched, which covers nested view roots.
func baseColorFor(in Input, palette map[string]int, n *layout.PackedNode) color.RGBA {
	for p := n; p != nil; p = p.Parent {
		if p.Node.Level == hierarchy.LevelL2 && !hierarchy.IsSyntheticRoot(p.Node.ID) {
			return paletteColor(in, palette, p.Node.ID)
		}
	}
	if anc := hierarchy.NearestAncestorAtLevel(in.Root, n.Node.ID, hierarchy.LevelL2); anc != nil {
		return paletteColor(in, palette, anc.ID)
	}
	return hashedColor(n.Node.ID)
}

func paletteColor(in Input, palette map[string]int, id string) color.RGBA {
	if i, ok := palette[id]; ok {
		return PaletteColor(in.Palette, i, id)
	}
	return hashedColor(id)
}

// labelColorFor keeps labels legible on both bright and dim fills.
func labelColorFor(display color.RGBA) color.RGBA {
	if rgbaToHSL(display).l >= 0.45 {
		return TextColor(display)
	}
	return colorLabelLight
}

// pulseAt derives the selection halo's scale and alpha from the wall clock,
// in phase with each other and independent of any other render trigger.
func pulseAt(now time.Time) (scale, alpha float64) {
	phase := float64(now.UnixNano()%int64(PulsePeriod)) / float64(PulsePeriod)
	wave := 0.5 * (1 + math.Sin(2*math.Pi*phase))
	scale = pulseScaleMin + (pulseScaleMax-pulseScaleMin)*wave
	alpha = 0.55 - 0.35*wave
	return scale, alpha
}

func labelFontSize(r float64) float64 {
	return clamp(r/3.5, 10, 26)
}
