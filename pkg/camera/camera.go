// Package camera holds the pan/zoom state of the map view and the pieces
// that manipulate it: fit-to-bounds framing, eased zoom animation, and
// pointer hit-testing through the inverse transform.
//
// A Camera is three numbers. The screen transform is: translate to the
// canvas centre, scale by K, translate by (-centre + (X, Y)). Everything
// else in the package is derived from that one definition.
package camera

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/vanderheijden86/clustermap/pkg/layout"
)

// FitPadding is the fraction of the viewport left free on each side when
// framing a set of nodes.
const FitPadding = 0.1

// Camera is the map view's pan/zoom state. The zero value is not a useful
// camera; use Identity.
type Camera struct {
	K float64 // scale, 1 = native view units
	X float64 // translation, view units
	Y float64
}

// Identity returns the camera that maps view space straight onto the screen.
func Identity() Camera {
	return Camera{K: 1}
}

// Apply projects a view-space point to screen space for a w by h canvas.
func (c Camera) Apply(pt r2.Vec, w, h float64) r2.Vec {
	centre := r2.Vec{X: w / 2, Y: h / 2}
	t := r2.Vec{X: c.X, Y: c.Y}
	return r2.Add(r2.Scale(c.K, r2.Add(r2.Sub(pt, centre), t)), centre)
}

// Invert projects a screen-space point back to view space. The inverse of
// Apply; hit-testing depends on the two staying exact mirrors.
func (c Camera) Invert(pt r2.Vec, w, h float64) r2.Vec {
	centre := r2.Vec{X: w / 2, Y: h / 2}
	t := r2.Vec{X: c.X, Y: c.Y}
	return r2.Sub(r2.Add(r2.Scale(1/c.K, r2.Sub(pt, centre)), centre), t)
}

// ApplyLength scales a view-space length to screen space.
func (c Camera) ApplyLength(l float64) float64 {
	return l * c.K
}

// FitZoom frames every packed node below the view root (Depth > 0) in a w by
// h canvas with FitPadding free on each side. The scale never exceeds 1: a
// layout smaller than the viewport is centred at native size rather than
// blown up. With no such nodes the identity camera is returned.
//
// The result always satisfies 0 < K <= 1.
func FitZoom(nodes []*layout.PackedNode, w, h float64) Camera {
	visible := make([]*layout.PackedNode, 0, len(nodes))
	for _, n := range nodes {
		if n.Depth > 0 {
			visible = append(visible, n)
		}
	}
	min, max, ok := layout.Bounds(visible)
	if !ok || w <= 0 || h <= 0 {
		return Identity()
	}

	boxW := max.X - min.X
	boxH := max.Y - min.Y
	k := 1.0
	if boxW > 0 {
		if sx := w / (boxW * (1 + 2*FitPadding)); sx < k {
			k = sx
		}
	}
	if boxH > 0 {
		if sy := h / (boxH * (1 + 2*FitPadding)); sy < k {
			k = sy
		}
	}

	// Translate so the box centre lands on the canvas centre.
	boxCentre := r2.Scale(0.5, r2.Add(min, max))
	return Camera{
		K: k,
		X: w/2 - boxCentre.X,
		Y: h/2 - boxCentre.Y,
	}
}
