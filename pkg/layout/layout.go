// Package layout computes packed-circle geometry for a cluster subtree.
//
// The approach is enclosure packing: leaf circles are sized by the square
// root of their pack value, siblings are arranged with the front-chain
// algorithm of Wang et al. (the same scheme d3's circle packing uses), and
// each parent circle is the smallest circle enclosing its packed children
// plus padding. The whole pass is deterministic: siblings are packed in
// descending pack-value order with the original child order as tie-break,
// and the enclosing-circle search runs without randomised shuffling.
//
// A layout pass is a wholesale projection of the subtree. Nothing is updated
// incrementally; callers recompute on every view-root change or resize and
// throw the previous result away.
package layout

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/vanderheijden86/clustermap/pkg/hierarchy"
	"github.com/vanderheijden86/clustermap/pkg/metrics"
)

// Padding is the visual gap between tangent sibling circles and between a
// child circle and its parent's rim, in view units.
const Padding = 6.0

// PackedNode is one cluster decorated with the geometry of a single layout
// pass. X, Y and R are in view units. Depth is relative to the packed view
// root (0 = the view root itself). Parent is a back-reference for ancestor
// walks within the same pass; it never outlives the pass.
type PackedNode struct {
	Node   *hierarchy.ClusterNode
	X, Y   float64
	R      float64
	Depth  int
	Parent *PackedNode
}

// Center returns the circle center as a vector.
func (p *PackedNode) Center() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// Contains reports whether the view-space point lies inside the circle.
func (p *PackedNode) Contains(pt r2.Vec) bool {
	return r2.Norm2(r2.Sub(pt, p.Center())) <= p.R*p.R
}

// circle is the mutable working shape during packing. pos is local to the
// parent until the final translate pass makes it absolute.
type circle struct {
	node     *hierarchy.ClusterNode
	pos      r2.Vec
	r        float64
	children []*circle
}

// Pack computes the packed-circle layout of the subtree rooted at root for a
// canvas of w by h view units. The root circle is centred on the canvas with
// radius min(w, h)/2; every descendant lies fully inside its parent. The
// result is the flattened subtree in pre-order, view root first.
//
// The hierarchy is assumed validated (acyclic, unique ids); Pack does not
// re-check and will not terminate on a cyclic input.
func Pack(root *hierarchy.ClusterNode, w, h float64) ([]*PackedNode, error) {
	defer metrics.Timer(metrics.LayoutPack)()

	if root == nil {
		return nil, fmt.Errorf("layout: nil root")
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("layout: non-positive canvas %gx%g", w, h)
	}

	work := buildCircleTree(root)

	// First pass establishes the unpadded shape and the root radius in
	// pack units, which fixes the pack-to-view conversion for padding.
	packPass(work, 0)
	if work.r <= 0 {
		return nil, fmt.Errorf("layout: degenerate pack for %q", root.ID)
	}

	// Second pass re-packs with the view-unit padding converted to pack
	// units. Inflating every sibling by half the padding yields the full
	// padding between tangent circles and against the parent rim.
	side := math.Min(w, h)
	if len(work.children) > 0 {
		inflate := (Padding / 2) * (2 * work.r / side)
		packPass(work, inflate)
	}

	// Scale into view units and translate children to absolute positions.
	scale := side / (2 * work.r)
	work.pos = r2.Vec{X: w / 2, Y: h / 2}
	work.r *= scale
	for _, c := range work.children {
		translateCircle(c, work, scale)
	}

	return flattenCircles(work), nil
}

func buildCircleTree(n *hierarchy.ClusterNode) *circle {
	c := &circle{node: n}
	if len(n.Children) > 0 {
		c.children = make([]*circle, 0, len(n.Children))
		for _, child := range n.Children {
			c.children = append(c.children, buildCircleTree(child))
		}
	}
	return c
}

// packPass recomputes radii bottom-up. Leaves keep r = sqrt(pack value);
// every internal node packs its children (radii temporarily inflated) and
// becomes their enclosing circle grown by the inflation margin.
func packPass(c *circle, inflate float64) {
	if len(c.children) == 0 {
		c.r = math.Sqrt(c.node.PackValue())
		return
	}
	for _, child := range c.children {
		packPass(child, inflate)
	}

	order := sortedForPacking(c.children)
	if inflate > 0 {
		for _, child := range order {
			child.r += inflate
		}
	}
	e := packSiblings(order)
	if inflate > 0 {
		for _, child := range order {
			child.r -= inflate
		}
	}
	c.r = e + inflate
}

// sortedForPacking returns the children in descending pack-value order,
// preserving the original order between equal values.
func sortedForPacking(children []*circle) []*circle {
	order := make([]*circle, len(children))
	copy(order, children)
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].node.PackValue() > order[j].node.PackValue()
	})
	return order
}

// translateCircle converts a child's parent-local coordinates to absolute
// view coordinates, pre-order.
func translateCircle(c, parent *circle, scale float64) {
	c.r *= scale
	c.pos = r2.Add(parent.pos, r2.Scale(scale, c.pos))
	for _, child := range c.children {
		translateCircle(child, c, scale)
	}
}

func flattenCircles(root *circle) []*PackedNode {
	var out []*PackedNode
	var walk func(c *circle, parent *PackedNode, depth int)
	walk = func(c *circle, parent *PackedNode, depth int) {
		p := &PackedNode{
			Node:   c.node,
			X:      c.pos.X,
			Y:      c.pos.Y,
			R:      c.r,
			Depth:  depth,
			Parent: parent,
		}
		out = append(out, p)
		for _, child := range c.children {
			walk(child, p, depth+1)
		}
	}
	walk(root, nil, 0)
	return out
}

// Bounds returns the axis-aligned bounding box of the given nodes. The
// boolean is false when the list is empty.
func Bounds(nodes []*PackedNode) (min, max r2.Vec, ok bool) {
	if len(nodes) == 0 {
		return r2.Vec{}, r2.Vec{}, false
	}
	min = r2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	max = r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, n := range nodes {
		min.X = math.Min(min.X, n.X-n.R)
		min.Y = math.Min(min.Y, n.Y-n.R)
		max.X = math.Max(max.X, n.X+n.R)
		max.Y = math.Max(max.Y, n.Y+n.R)
	}
	return min, max, true
}
