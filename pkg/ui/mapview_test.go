package ui

import (
	"image/color"
	"math"
	"reflect"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/vanderheijden86/clustermap/pkg/camera"
	"github.com/vanderheijden86/clustermap/pkg/hierarchy"
	"github.com/vanderheijden86/clustermap/pkg/layout"
	"github.com/vanderheijden86/clustermap/pkg/navigation"
	"github.com/vanderheijden86/clustermap/pkg/scene"
	"github.com/vanderheijden86/clustermap/pkg/testutil"
)

func newTestMap(t *testing.T) (*MapModel, *navigation.Store) {
	t.Helper()
	m := NewMapModel(TestTheme())
	m.SetSize(60, 20)
	store := navigation.NewStore(testutil.QuickRoot())
	if started := m.SetState(store.State(), time.Now()); started {
		t.Fatal("opening frame must snap, not animate")
	}
	return m, store
}

func TestMapViewInitialFit(t *testing.T) {
	m, _ := newTestMap(t)

	if m.Animating() {
		t.Error("no animation expected on the first frame")
	}
	cam := m.Camera()
	if cam.K <= 0 || cam.K > 1 {
		t.Errorf("fit scale = %v; want (0, 1]", cam.K)
	}
	if len(m.packed) == 0 {
		t.Fatal("layout did not pack")
	}
}

func TestMapViewDrillAnimatesAndSettles(t *testing.T) {
	m, store := newTestMap(t)
	now := time.Now()

	store.SelectAndDrill("test-l2-0")
	if !m.SetState(store.State(), now) {
		t.Fatal("drill should start a camera transition")
	}
	if !m.Animating() {
		t.Fatal("Animating = false right after AnimateTo")
	}

	if done := m.StepZoom(now.Add(100 * time.Millisecond)); done {
		t.Error("transition finished after 100ms; default runs 900ms")
	}
	if done := m.StepZoom(now.Add(2 * time.Second)); !done {
		t.Error("transition still running after 2s")
	}
	if m.Animating() {
		t.Error("Animating = true after the final step")
	}
	cam := m.Camera()
	if cam.K <= 0 || cam.K > 1 {
		t.Errorf("settled scale = %v; want (0, 1]", cam.K)
	}
}

func TestMapViewSetStateSameRootIsNoop(t *testing.T) {
	m, store := newTestMap(t)
	if m.SetState(store.State(), time.Now()) {
		t.Error("unchanged view root should not re-animate")
	}
}

func TestMapViewInvalidateForcesRepack(t *testing.T) {
	m, store := newTestMap(t)

	m.Invalidate()
	if !m.SetState(store.State(), time.Now()) {
		t.Error("SetState after Invalidate should re-pack and animate")
	}
}

func TestMapViewResizeSnapsCamera(t *testing.T) {
	m, store := newTestMap(t)
	now := time.Now()

	store.SelectAndDrill("test-l2-0")
	m.SetState(store.State(), now)
	if !m.Animating() {
		t.Fatal("expected a transition in flight")
	}

	m.SetSize(80, 24)
	if m.Animating() {
		t.Error("resize should cancel the transition and snap to the new fit")
	}
}

func TestMapViewShortZoomDuration(t *testing.T) {
	m, store := newTestMap(t)
	m.SetZoomDuration(50 * time.Millisecond)
	now := time.Now()

	store.SelectAndDrill("test-l2-0")
	m.SetState(store.State(), now)
	if done := m.StepZoom(now.Add(60 * time.Millisecond)); !done {
		t.Error("shortened transition should settle within its duration")
	}
}

func TestMapHitAtCell(t *testing.T) {
	m, _ := newTestMap(t)

	hits := 0
	for cy := 0; cy < 20; cy++ {
		for cx := 0; cx < 60; cx++ {
			n := m.HitAtCell(cx, cy)
			if n == nil {
				continue
			}
			hits++
			if n.Depth < 1 {
				t.Fatalf("hit resolved to depth %d at (%d,%d); the view root is not clickable", n.Depth, cx, cy)
			}
			if hierarchy.IsSyntheticRoot(n.Node.ID) {
				t.Fatalf("hit resolved to the synthetic root at (%d,%d)", cx, cy)
			}
		}
	}
	if hits == 0 {
		t.Fatal("no cell hit any bubble on a packed map")
	}

	for _, pt := range [][2]int{{-1, 5}, {5, -1}, {60, 5}, {5, 20}} {
		if n := m.HitAtCell(pt[0], pt[1]); n != nil {
			t.Errorf("out-of-pane cell (%d,%d) hit %s", pt[0], pt[1], n.Node.ID)
		}
	}
}

func TestMapCycleHoverOrder(t *testing.T) {
	m, _ := newTestMap(t)

	var tops []*layout.PackedNode
	for _, n := range m.packed {
		if n.Depth == 1 {
			tops = append(tops, n)
		}
	}
	if len(tops) != 3 {
		t.Fatalf("depth-1 bubbles = %d; want 3", len(tops))
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].X != tops[j].X {
			return tops[i].X < tops[j].X
		}
		return tops[i].Y < tops[j].Y
	})

	// Forward entry starts at the leftmost bubble and wraps after a full lap.
	for lap, want := range []string{tops[0].Node.ID, tops[1].Node.ID, tops[2].Node.ID, tops[0].Node.ID} {
		if got := m.CycleHover(1); got != want {
			t.Fatalf("cycle %d = %s; want %s", lap, got, want)
		}
	}

	// Backward entry with nothing hovered starts from the right.
	m.SetHover("")
	if got := m.CycleHover(-1); got != tops[2].Node.ID {
		t.Errorf("reverse entry = %s; want rightmost", got)
	}
	if m.HoverID() != tops[2].Node.ID {
		t.Errorf("HoverID = %s", m.HoverID())
	}
}

func TestMapNudgeZoomStepsAndClamps(t *testing.T) {
	m, _ := newTestMap(t)

	k0 := m.Camera().K
	m.NudgeZoom(1)
	if got := m.Camera().K; math.Abs(got-k0*zoomStepFactor) > 1e-9 {
		t.Errorf("one step in: K = %v; want %v", got, k0*zoomStepFactor)
	}

	for i := 0; i < 30; i++ {
		m.NudgeZoom(1)
	}
	if got := m.Camera().K; got > maxManualZoom {
		t.Errorf("K = %v after repeated zoom in; clamp is %v", got, maxManualZoom)
	}

	for i := 0; i < 60; i++ {
		m.NudgeZoom(-1)
	}
	if got := m.Camera().K; got < minManualZoom {
		t.Errorf("K = %v after repeated zoom out; clamp is %v", got, minManualZoom)
	}

	before := m.Camera()
	m.NudgeZoom(0)
	if m.Camera() != before {
		t.Error("zero-step nudge moved the camera")
	}
}

func TestMapNudgePanMovesViewport(t *testing.T) {
	m, _ := newTestMap(t)

	cam0 := m.Camera()
	m.NudgePan(1, 0)
	cam1 := m.Camera()
	if cam1.X >= cam0.X {
		t.Errorf("pan right: X went %v -> %v; content should slide left", cam0.X, cam1.X)
	}
	if cam1.Y != cam0.Y {
		t.Errorf("horizontal pan changed Y: %v -> %v", cam0.Y, cam1.Y)
	}

	m.NudgePan(0, 1)
	if got := m.Camera().Y; got >= cam1.Y {
		t.Errorf("pan down: Y went %v -> %v; content should slide up", cam1.Y, got)
	}

	m.NudgePan(-1, -1)
	if got := m.Camera(); math.Abs(got.X-cam0.X) > 1e-9 || math.Abs(got.Y-cam0.Y) > 1e-9 {
		t.Errorf("opposite nudges should return to start: %+v vs %+v", got, cam0)
	}
}

func TestMapNudgeCancelsTransition(t *testing.T) {
	m, store := newTestMap(t)

	store.SelectAndDrill("test-l2-0")
	m.SetState(store.State(), time.Now())
	if !m.Animating() {
		t.Fatal("expected a transition in flight")
	}
	m.NudgeZoom(1)
	if m.Animating() {
		t.Error("zoom nudge should cancel the transition")
	}

	store.NavigateBreadcrumb(-1)
	m.SetState(store.State(), time.Now())
	if !m.Animating() {
		t.Fatal("expected a transition back to root")
	}
	m.NudgePan(1, 0)
	if m.Animating() {
		t.Error("pan nudge should cancel the transition")
	}
}

func TestMapNudgeBeforeLayoutIsNoop(t *testing.T) {
	m := NewMapModel(TestTheme())
	m.SetSize(40, 10)

	m.NudgeZoom(1)
	m.NudgePan(1, 1)
	if got := m.Camera(); got != (camera.Camera{K: 1}) {
		t.Errorf("camera moved with nothing packed: %+v", got)
	}
}

func TestMapSelectionMarker(t *testing.T) {
	m, store := newTestMap(t)
	now := time.Now()

	if strings.Contains(m.View(now), "▲") {
		t.Fatal("marker rendered with nothing selected")
	}

	if !store.NavigateToNodeByID("test-l1-0-1") {
		t.Fatal("NavigateToNodeByID failed")
	}
	m.SetState(store.State(), now)
	m.StepZoom(now.Add(2 * time.Second))

	if view := m.View(now.Add(2 * time.Second)); !strings.Contains(view, "▲") {
		t.Error("selected bubble should carry the ▲ marker")
	}
}

func TestMapViewRender(t *testing.T) {
	m, _ := newTestMap(t)

	view := m.View(time.Now())
	if lines := strings.Split(view, "\n"); len(lines) != 20 {
		t.Fatalf("View rendered %d lines; want the pane height", len(lines))
	}
	if !strings.Contains(view, "▀") {
		t.Error("raster output should use half-block cells")
	}

	m.width, m.height = 0, 0
	if got := m.View(time.Now()); got != "" {
		t.Errorf("zero-size View = %q", got)
	}
}

func TestMapViewRenderBeforeState(t *testing.T) {
	m := NewMapModel(TestTheme())
	m.SetSize(40, 10)
	if view := m.View(time.Now()); !strings.Contains(view, "No clusters") {
		t.Errorf("placeholder missing:\n%s", view)
	}
}

func TestWrapCells(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		maxCols int
		want    []string
	}{
		{"fits", "Technology", 12, []string{"Technology"}},
		{"two lines", "Coding Help", 6, []string{"Coding", "Help"}},
		{"cut with ellipsis", "Machine Learning Systems", 8, []string{"Machine", "Learnin…"}},
		{"long word", "Supercalifragilistic", 6, []string{"Super…"}},
		{"empty", "", 10, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapCells(tt.in, tt.maxCols)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("wrapCells(%q, %d) = %v; want %v", tt.in, tt.maxCols, got, tt.want)
			}
		})
	}
}

func TestLerpRGB(t *testing.T) {
	a := color.RGBA{0, 0, 0, 0xff}
	b := color.RGBA{100, 200, 50, 0xff}

	if got := lerpRGB(a, b, 0); got != (color.RGBA{0, 0, 0, 0xff}) {
		t.Errorf("t=0 -> %v", got)
	}
	if got := lerpRGB(a, b, 1); got != (color.RGBA{100, 200, 50, 0xff}) {
		t.Errorf("t=1 -> %v", got)
	}
	if got := lerpRGB(a, b, 0.5); got != (color.RGBA{50, 100, 25, 0xff}) {
		t.Errorf("t=0.5 -> %v", got)
	}
	if got := lerpRGB(a, b, 5); got != (color.RGBA{100, 200, 50, 0xff}) {
		t.Errorf("t clamps high -> %v", got)
	}
	if got := lerpRGB(a, b, -5); got != (color.RGBA{0, 0, 0, 0xff}) {
		t.Errorf("t clamps low -> %v", got)
	}
}

func TestBlendRGBA(t *testing.T) {
	dst := color.RGBA{0, 0, 0, 0xff}

	if got := blendRGBA(dst, color.RGBA{255, 255, 255, 0}); got != dst {
		t.Errorf("zero alpha -> %v; want dst untouched", got)
	}
	if got := blendRGBA(dst, color.RGBA{255, 255, 255, 255}); got != (color.RGBA{255, 255, 255, 0xff}) {
		t.Errorf("full alpha -> %v; want src", got)
	}
	got := blendRGBA(dst, color.RGBA{255, 255, 255, 128})
	if got.R != 128 || got.G != 128 || got.B != 128 {
		t.Errorf("half alpha -> %v; want mid grey", got)
	}
}

func TestLabelFgFor(t *testing.T) {
	bright := color.RGBA{240, 240, 240, 0xff}
	if got := labelFgFor(bright); got != scene.TextColor(bright) {
		t.Errorf("bright fill fg = %v; want the derived dark text", got)
	}

	dim := color.RGBA{10, 10, 40, 0xff}
	if got := labelFgFor(dim); got != (color.RGBA{0xf0, 0xf0, 0xf5, 0xff}) {
		t.Errorf("dim fill fg = %v; want near-white", got)
	}
}

func TestHexRGB(t *testing.T) {
	if got := hexRGB(color.RGBA{0xbd, 0x93, 0xf9, 0xff}); got != "#bd93f9" {
		t.Errorf("hexRGB = %q", got)
	}
}
