package ui

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/vanderheijden86/clustermap/pkg/camera"
	"github.com/vanderheijden86/clustermap/pkg/hierarchy"
	"github.com/vanderheijden86/clustermap/pkg/layout"
	"github.com/vanderheijden86/clustermap/pkg/metrics"
	"github.com/vanderheijden86/clustermap/pkg/navigation"
	"github.com/vanderheijden86/clustermap/pkg/scene"
)

// MapModel renders the packed-circle map into the terminal. Every cell is
// split into two vertical pixels with the upper-half-block glyph, giving a
// near-square raster: a w×h cell pane becomes a w×2h pixel canvas, and the
// layout, camera, and hit-testing all work in those pixel coordinates.
type MapModel struct {
	theme Theme

	root       *hierarchy.ClusterNode // full hierarchy, for colour fallback
	viewRootID string
	selectedID string
	hoveredID  string

	packed    []*layout.PackedNode
	hit       *camera.HitTester
	layoutErr error

	cam  camera.Camera
	anim *camera.Animator

	width  int // cells
	height int

	showLabels bool
	features   renderFeatures
	palette    []color.RGBA
}

// NewMapModel creates an empty map view. Call SetSize and SetState before
// the first View.
func NewMapModel(theme Theme) *MapModel {
	return &MapModel{
		theme:      theme,
		anim:       camera.NewAnimator(),
		cam:        camera.Identity(),
		showLabels: true,
		features:   renderFeaturesForTier(datasetTierUnknown),
	}
}

// SetZoomDuration overrides the camera transition length.
func (m *MapModel) SetZoomDuration(d time.Duration) {
	m.anim.SetDuration(d)
}

// SetShowLabels toggles bubble labels.
func (m *MapModel) SetShowLabels(on bool) {
	m.showLabels = on
}

// ShowLabels reports the label toggle.
func (m *MapModel) ShowLabels() bool {
	return m.showLabels
}

// SetFeatures applies the dataset tier's render features.
func (m *MapModel) SetFeatures(f renderFeatures) {
	m.features = f
}

// SetPalette overrides the category palette.
func (m *MapModel) SetPalette(p []color.RGBA) {
	m.palette = p
}

// pxW and pxH are the pixel canvas dimensions backing the cell pane.
func (m *MapModel) pxW() float64 { return float64(m.width) }
func (m *MapModel) pxH() float64 { return float64(m.height * 2) }

// SetSize resizes the pane and re-packs the layout at the new canvas size.
// The camera snaps straight to the new fit; animating a resize looks like
// lag, not intent.
func (m *MapModel) SetSize(width, height int) {
	if width == m.width && height == m.height {
		return
	}
	m.width = width
	m.height = height
	if m.viewRootID != "" {
		m.repack()
		m.anim.Cancel()
		m.cam = camera.FitZoom(m.packed, m.pxW(), m.pxH())
	}
}

// SetState points the map at the navigation state's view root. A changed
// view root triggers a full re-pack and an eased camera transition from
// wherever the camera is now to the new layout's fit. Returns true when a
// zoom animation started and the caller should arm the zoom tick.
func (m *MapModel) SetState(st navigation.State, now time.Time) bool {
	m.root = st.Root
	m.selectedID = st.SelectedID

	viewRoot := st.CurrentRoot
	if viewRoot == nil {
		viewRoot = st.Root
	}
	if viewRoot == nil {
		return false
	}
	if viewRoot.ID == m.viewRootID && m.packed != nil {
		return false
	}

	first := m.viewRootID == ""
	m.viewRootID = viewRoot.ID
	m.repack()
	if m.layoutErr != nil {
		return false
	}

	target := camera.FitZoom(m.packed, m.pxW(), m.pxH())
	if first {
		// Opening frame: no transition to ease from.
		m.anim.Cancel()
		m.cam = target
		return false
	}
	m.anim.AnimateTo(m.cam, target, now)
	return true
}

// repack runs the layout engine for the current view root and rebuilds the
// hit index. Pack failures park the error for View to surface; the previous
// frame's layout is discarded either way.
func (m *MapModel) repack() {
	m.packed = nil
	m.hit = nil
	m.layoutErr = nil

	viewRoot := m.findViewRoot()
	if viewRoot == nil || m.width <= 0 || m.height <= 0 {
		return
	}
	packed, err := layout.Pack(viewRoot, m.pxW(), m.pxH())
	if err != nil {
		m.layoutErr = err
		return
	}
	m.packed = packed
	m.hit = camera.NewHitTester(packed)
}

func (m *MapModel) findViewRoot() *hierarchy.ClusterNode {
	if m.root == nil || m.viewRootID == "" {
		return nil
	}
	if m.root.ID == m.viewRootID {
		return m.root
	}
	return hierarchy.Find(m.root, m.viewRootID)
}

// StepZoom advances the camera animation to the given instant. Returns true
// when the transition has finished and the zoom tick can stop.
func (m *MapModel) StepZoom(now time.Time) bool {
	cam, done := m.anim.Step(now)
	m.cam = cam
	return done
}

// Animating reports whether a camera transition is in flight.
func (m *MapModel) Animating() bool {
	return m.anim.Active()
}

// Camera returns the camera state for the current frame.
func (m *MapModel) Camera() camera.Camera {
	return m.cam
}

// Manual camera steps. Fit framing keeps K at or below 1; nudging is allowed
// past that, so the clamp range is wider than the fit range.
const (
	zoomStepFactor = 1.25
	minManualZoom  = 0.05
	maxManualZoom  = 8.0
	panStepFrac    = 0.08
)

// NudgeZoom scales the camera by one manual step per delta unit, in when
// delta is positive, pivoting on the canvas centre. Any transition in flight
// is cancelled; the next drill animates from wherever the nudge left off.
func (m *MapModel) NudgeZoom(delta int) {
	if len(m.packed) == 0 || delta == 0 {
		return
	}
	m.anim.Cancel()
	k := m.cam.K * math.Pow(zoomStepFactor, float64(delta))
	if k < minManualZoom {
		k = minManualZoom
	}
	if k > maxManualZoom {
		k = maxManualZoom
	}
	m.cam.K = k
}

// NudgePan scrolls the viewport by one step per axis unit, dx positive moving
// the view right and dy positive moving it down, so content slides the
// opposite way on screen.
func (m *MapModel) NudgePan(dx, dy int) {
	if len(m.packed) == 0 || (dx == 0 && dy == 0) || m.cam.K <= 0 {
		return
	}
	m.anim.Cancel()
	m.cam.X -= float64(dx) * panStepFrac * m.pxW() / m.cam.K
	m.cam.Y -= float64(dy) * panStepFrac * m.pxH() / m.cam.K
}

// HitAtCell resolves a pane-relative cell position to the packed node under
// it, or nil over background. Hover and click both route through here.
func (m *MapModel) HitAtCell(cx, cy int) *layout.PackedNode {
	if m.hit == nil || cx < 0 || cy < 0 || cx >= m.width || cy >= m.height {
		return nil
	}
	pt := r2.Vec{X: float64(cx) + 0.5, Y: (float64(cy) + 0.5) * 2}
	return m.hit.At(m.cam, m.pxW(), m.pxH(), pt)
}

// SetHover updates the hovered node id. Empty clears.
func (m *MapModel) SetHover(id string) {
	m.hoveredID = id
}

// HoverID returns the currently hovered node id, mouse or keyboard.
func (m *MapModel) HoverID() string {
	return m.hoveredID
}

// CycleHover moves the keyboard hover to the next (delta > 0) or previous
// top-level bubble of the current view, ordered left to right. Returns the
// new hover id, or empty when there is nothing to hover.
func (m *MapModel) CycleHover(delta int) string {
	var tops []*layout.PackedNode
	for _, n := range m.packed {
		if n.Depth == 1 {
			tops = append(tops, n)
		}
	}
	if len(tops) == 0 {
		return ""
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].X != tops[j].X {
			return tops[i].X < tops[j].X
		}
		return tops[i].Y < tops[j].Y
	})

	idx := -1
	for i, n := range tops {
		if n.Node.ID == m.hoveredID {
			idx = i
			break
		}
	}
	if idx == -1 {
		// Nothing hovered yet: enter from the side we are moving toward.
		if delta >= 0 {
			idx = 0
		} else {
			idx = len(tops) - 1
		}
	} else {
		idx = (idx + delta%len(tops) + len(tops)) % len(tops)
	}
	m.hoveredID = tops[idx].Node.ID
	return m.hoveredID
}

// Invalidate discards the packed layout so the next SetState re-packs even
// when the view root id is unchanged. Reloads route through here: same id,
// possibly very different tree underneath.
func (m *MapModel) Invalidate() {
	m.packed = nil
	m.hit = nil
}

// View rasterizes the current frame.
func (m *MapModel) View(now time.Time) string {
	defer metrics.Timer(metrics.MapRender)()

	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	if m.layoutErr != nil {
		return m.centered(m.theme.DangerText.Render(fmt.Sprintf("Layout error: %v", m.layoutErr)))
	}
	if len(m.packed) == 0 {
		return m.centered(m.theme.MutedText.Render("No clusters to display"))
	}

	dl := scene.Build(scene.Input{
		Nodes:      m.packed,
		Root:       m.root,
		SelectedID: m.selectedID,
		HoveredID:  m.hoveredID,
		Camera:     m.cam,
		Width:      m.pxW(),
		Height:     m.pxH(),
		Now:        now,
		ShowLabels: false, // cell-space labels are overlaid below
		Palette:    m.palette,
	})
	return m.rasterize(dl)
}

func (m *MapModel) centered(msg string) string {
	return m.theme.Renderer.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(msg)
}

// labelCell is one character of a bubble label overlaid on the raster.
type labelCell struct {
	r  rune
	fg color.RGBA
}

// rasterize paints the display list into the pixel buffer and folds pixel
// pairs into half-block cells. Bubbles arrive deepest-first, so painting in
// order gives correct occlusion for free.
func (m *MapModel) rasterize(dl *scene.DisplayList) string {
	pxW, pxH := m.width, m.height*2
	buf := make([]color.RGBA, pxW*pxH)
	bg := dl.Background
	for i := range buf {
		buf[i] = bg
	}

	for i := range dl.Bubbles {
		m.paintBubble(buf, pxW, pxH, &dl.Bubbles[i])
	}

	labels := m.placeLabels(dl)
	labels = m.markSelection(dl, labels)

	var sb strings.Builder
	sb.Grow(pxW * m.height * 8)
	for row := 0; row < m.height; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		m.renderRow(&sb, buf, pxW, row, labels[row])
	}
	return sb.String()
}

// paintBubble fills one circle: glow halo, gradient fill, border band, and
// selection pulse, clipped to the canvas.
func (m *MapModel) paintBubble(buf []color.RGBA, pxW, pxH int, b *scene.Bubble) {
	outer := b.R
	if b.Glow != nil && m.features.Glow && b.Glow.R > outer {
		outer = b.Glow.R
	}
	if b.Pulse != nil && b.Pulse.R+1 > outer {
		outer = b.Pulse.R + 1
	}

	x0 := int(math.Floor(b.X - outer))
	x1 := int(math.Ceil(b.X + outer))
	y0 := int(math.Floor(b.Y - outer))
	y1 := int(math.Ceil(b.Y + outer))
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 >= pxW {
		x1 = pxW - 1
	}
	if y1 >= pxH {
		y1 = pxH - 1
	}

	borderBand := b.BorderW
	if borderBand < 1 {
		borderBand = 1
	}
	if borderBand > 3 {
		borderBand = 3
	}

	for py := y0; py <= y1; py++ {
		for px := x0; px <= x1; px++ {
			dx := float64(px) + 0.5 - b.X
			dy := float64(py) + 0.5 - b.Y
			dist := math.Hypot(dx, dy)
			idx := py*pxW + px

			if dist <= b.R {
				if dist > b.R-borderBand {
					if !b.Dashed || dashOn(dx, dy, dist) {
						buf[idx] = opaque(b.Border)
						continue
					}
				}
				t := 0.0
				if b.R > 0 {
					t = dist / b.R
				}
				buf[idx] = lerpRGB(b.Fill, b.FillOuter, t)
				continue
			}

			if b.Pulse != nil && math.Abs(dist-b.Pulse.R) <= 1 {
				buf[idx] = blendRGBA(buf[idx], b.Pulse.Color)
				continue
			}
			if b.Glow != nil && m.features.Glow && dist <= b.Glow.R {
				fade := 1 - (dist-b.R)/(b.Glow.R-b.R)
				c := b.Glow.Color
				c.A = uint8(float64(c.A) * fade)
				buf[idx] = blendRGBA(buf[idx], c)
			}
		}
	}
}

// dashOn mirrors the painters' 4-on 4-off dash pattern, measured along the
// arc so the dashes stay square at any radius.
func dashOn(dx, dy, dist float64) bool {
	theta := math.Atan2(dy, dx) + math.Pi
	arc := theta * dist
	return int(arc/4)%2 == 0
}

// markSelection overlays a ▲ on the centre cell of the selected bubble so
// the selection reads even at sizes where the pulse halo is a single faint
// ring. The marker wins over any label glyph sharing its cell, and renders
// whether or not labels are on.
func (m *MapModel) markSelection(dl *scene.DisplayList, labels map[int]map[int]labelCell) map[int]map[int]labelCell {
	for i := range dl.Bubbles {
		b := &dl.Bubbles[i]
		if !b.Selected {
			continue
		}
		row := int(math.Round(b.Y / 2))
		col := int(math.Round(b.X))
		if row < 0 || row >= m.height || col < 0 || col >= m.width {
			break
		}
		if labels == nil {
			labels = make(map[int]map[int]labelCell)
		}
		if labels[row] == nil {
			labels[row] = make(map[int]labelCell)
		}
		labels[row][col] = labelCell{r: '▲', fg: b.Border}
		break
	}
	return labels
}

// placeLabels lays out cell-space labels for current-level bubbles that are
// wide enough to hold text. Two lines of word-wrapped name, centred on the
// bubble, long words truncated.
func (m *MapModel) placeLabels(dl *scene.DisplayList) map[int]map[int]labelCell {
	if !m.showLabels || !m.features.Labels {
		return nil
	}
	out := make(map[int]map[int]labelCell)
	for i := range dl.Bubbles {
		b := &dl.Bubbles[i]
		if !b.CurrentLevel {
			continue
		}
		// Usable width is the chord through the bubble centre, minus a
		// margin so text stays off the border.
		maxCols := int(2*b.R) - 4
		if maxCols < 4 {
			continue
		}
		if maxCols > 24 {
			maxCols = 24
		}

		lines := wrapCells(b.Name, maxCols)
		if len(lines) == 0 {
			continue
		}
		fg := labelFgFor(b.Fill)

		centerRow := int(math.Round(b.Y/2)) - (len(lines)-1)/2
		for li, line := range lines {
			row := centerRow + li
			if row < 0 || row >= m.height {
				continue
			}
			col := int(math.Round(b.X)) - len(line)/2
			for ci, r := range line {
				c := col + ci
				if c < 0 || c >= m.width {
					continue
				}
				if out[row] == nil {
					out[row] = make(map[int]labelCell)
				}
				out[row][c] = labelCell{r: r, fg: fg}
			}
		}
	}
	return out
}

// wrapCells word-wraps a name into at most two lines of maxCols cells.
// A word longer than a full line is cut with an ellipsis, as is the second
// line when the name still does not fit.
func wrapCells(name string, maxCols int) []string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	cur := ""
	for i := 0; i < len(words); i++ {
		w := words[i]
		switch {
		case cur == "":
			cur = w
		case len(cur)+1+len(w) <= maxCols:
			cur += " " + w
		default:
			lines = append(lines, cur)
			cur = w
		}
		if len(lines) == 2 {
			break
		}
	}
	if cur != "" && len(lines) < 2 {
		lines = append(lines, cur)
	}
	for i, l := range lines {
		if len(l) > maxCols {
			lines[i] = truncate(l, maxCols)
		}
	}
	if len(lines) == 2 && !strings.HasSuffix(lines[1], "…") {
		// Mark a cut-off name so two neat lines don't read as the whole.
		joined := strings.Join(words, " ")
		if len(joined) > len(lines[0])+1+len(lines[1]) {
			lines[1] = truncate(lines[1]+"…", maxCols)
		}
	}
	return lines
}

// labelFgFor picks label text colour by fill brightness: dark text on
// bright fills, near-white on dim ones.
func labelFgFor(fill color.RGBA) color.RGBA {
	lum := (299*int(fill.R) + 587*int(fill.G) + 114*int(fill.B)) / 1000
	if lum >= 128 {
		return scene.TextColor(fill)
	}
	return color.RGBA{0xf0, 0xf0, 0xf5, 0xff}
}

// renderRow folds one cell row's two pixel rows into styled half-blocks,
// batching runs of identical colours into a single styled segment.
func (m *MapModel) renderRow(sb *strings.Builder, buf []color.RGBA, pxW, row int, labels map[int]labelCell) {
	r := m.theme.Renderer

	var runFg, runBg string
	var run strings.Builder
	flush := func() {
		if run.Len() == 0 {
			return
		}
		style := r.NewStyle().
			Foreground(lipgloss.Color(runFg)).
			Background(lipgloss.Color(runBg))
		sb.WriteString(style.Render(run.String()))
		run.Reset()
	}

	for col := 0; col < pxW; col++ {
		upper := buf[(2*row)*pxW+col]
		lower := buf[(2*row+1)*pxW+col]

		if lc, ok := labels[col]; ok {
			flush()
			cellBg := lerpRGB(upper, lower, 0.5)
			style := r.NewStyle().
				Foreground(lipgloss.Color(hexRGB(lc.fg))).
				Background(lipgloss.Color(hexRGB(cellBg)))
			sb.WriteString(style.Render(string(lc.r)))
			runFg, runBg = "", ""
			continue
		}

		fg, bg := hexRGB(upper), hexRGB(lower)
		if fg != runFg || bg != runBg {
			flush()
			runFg, runBg = fg, bg
		}
		run.WriteRune('▀')
	}
	flush()
}

func hexRGB(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func opaque(c color.RGBA) color.RGBA {
	c.A = 0xff
	return c
}

// lerpRGB interpolates two colours channel-wise, t in [0, 1].
func lerpRGB(a, b color.RGBA, t float64) color.RGBA {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.RGBA{
		R: mix(a.R, b.R),
		G: mix(a.G, b.G),
		B: mix(a.B, b.B),
		A: 0xff,
	}
}

// blendRGBA composites src over dst using src's alpha.
func blendRGBA(dst, src color.RGBA) color.RGBA {
	a := float64(src.A) / 255
	mix := func(d, s uint8) uint8 {
		return uint8(math.Round(float64(d)*(1-a) + float64(s)*a))
	}
	return color.RGBA{
		R: mix(dst.R, src.R),
		G: mix(dst.G, src.G),
		B: mix(dst.B, src.B),
		A: 0xff,
	}
}
