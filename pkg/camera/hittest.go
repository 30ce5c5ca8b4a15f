package camera

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/vanderheijden86/clustermap/pkg/layout"
)

// HitTester resolves pointer positions to packed nodes. It pre-sorts the
// layout by ascending radius so the innermost (visually topmost) circle wins
// when circles overlap; build a new tester after every layout pass.
type HitTester struct {
	sorted []*layout.PackedNode
}

// NewHitTester indexes all nodes below the view root (Depth > 0). The view
// root itself is background, never a hit target.
func NewHitTester(nodes []*layout.PackedNode) *HitTester {
	sorted := make([]*layout.PackedNode, 0, len(nodes))
	for _, n := range nodes {
		if n.Depth > 0 {
			sorted = append(sorted, n)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].R < sorted[j].R
	})
	return &HitTester{sorted: sorted}
}

// At maps a screen-space point through the inverse camera transform and
// returns the smallest circle containing it, or nil when the point is over
// background.
func (h *HitTester) At(cam Camera, w, hgt float64, screen r2.Vec) *layout.PackedNode {
	if cam.K <= 0 {
		return nil
	}
	view := cam.Invert(screen, w, hgt)
	return h.AtView(view)
}

// AtView is At without the camera step, for callers that already work in
// view space.
func (h *HitTester) AtView(view r2.Vec) *layout.PackedNode {
	for _, n := range h.sorted {
		if n.Contains(view) {
			return n
		}
	}
	return nil
}

// HitTest is the one-shot convenience for sporadic callers. Interactive
// paths should hold a HitTester instead of re-sorting per event.
func HitTest(nodes []*layout.PackedNode, cam Camera, w, hgt float64, screen r2.Vec) *layout.PackedNode {
	return NewHitTester(nodes).At(cam, w, hgt, screen)
}
