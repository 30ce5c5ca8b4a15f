package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// chainNode is an entry in the circular doubly-linked front chain that
// tracks the outer boundary of the partial packing.
type chainNode struct {
	c          *circle
	prev, next *chainNode
}

// packSiblings arranges the circles around the origin so each newly placed
// circle touches two circles on the front chain without overlapping any
// other, then recentres the group on its smallest enclosing circle and
// returns that circle's radius. Positions are written into the circles'
// pos fields (parent-local coordinates). The input order is the placement
// order; callers sort beforehand.
func packSiblings(circles []*circle) float64 {
	n := len(circles)
	if n == 0 {
		return 0
	}

	// First circle at the origin.
	first := circles[0]
	first.pos = r2.Vec{}
	if n == 1 {
		return first.r
	}

	// Second circle to the right, first shifted left so the pair is
	// centred on their tangent point.
	second := circles[1]
	first.pos = r2.Vec{X: -second.r}
	second.pos = r2.Vec{X: first.r}
	if n == 2 {
		return first.r + second.r
	}

	// Third circle tangent to the first two.
	third := circles[2]
	placeTangent(second, first, third)

	// Seed the front chain: first -> second -> third -> first.
	a := &chainNode{c: first}
	b := &chainNode{c: second}
	c := &chainNode{c: third}
	a.next, c.prev = b, b
	b.next, a.prev = c, c
	c.next, b.prev = a, a

	// Place the remaining circles, repairing the chain on collision.
	for i := 3; i < n; i++ {
		cur := circles[i]
		placeTangent(a.c, b.c, cur)

		// Scan the chain outwards from the insertion gap for a circle
		// that intersects the candidate. Distance along the chain
		// decides which direction to advance next.
		j, k := b.next, a.prev
		sj, sk := b.c.r, a.c.r
		collided := false
		for {
			if sj <= sk {
				if circlesOverlap(j.c, cur) {
					// Drop the chain segment between a and j and retry
					// the same circle in the widened gap.
					b = j
					a.next = b
					b.prev = a
					i--
					collided = true
					break
				}
				sj += j.c.r
				j = j.next
			} else {
				if circlesOverlap(k.c, cur) {
					a = k
					a.next = b
					b.prev = a
					i--
					collided = true
					break
				}
				sk += k.c.r
				k = k.prev
			}
			if j == k.next {
				break
			}
		}
		if collided {
			continue
		}

		// Insert the new circle between a and b on the chain.
		inserted := &chainNode{c: cur, prev: a, next: b}
		a.next = inserted
		b.prev = inserted

		// Rebase the insertion gap on the chain pair closest to the
		// centroid so the packing spirals instead of drifting.
		b = inserted
		best := a
		bestScore := chainScore(a)
		for node := inserted.next; node != b; node = node.next {
			if s := chainScore(node); s < bestScore {
				best, bestScore = node, s
			}
		}
		a = best
		b = a.next
	}

	// Collect the chain and recentre everything on its enclosing circle.
	members := []*circle{b.c}
	for node := b.next; node != b; node = node.next {
		members = append(members, node.c)
	}
	e := encloseCircles(members)
	for _, c := range circles {
		c.pos = r2.Sub(c.pos, e.pos)
	}
	return e.r
}

// placeTangent positions c externally tangent to both b and a, choosing the
// side that keeps the front chain winding consistently.
func placeTangent(b, a, c *circle) {
	d := r2.Sub(b.pos, a.pos)
	d2 := r2.Norm2(d)
	if d2 == 0 {
		c.pos = r2.Vec{X: a.pos.X + c.r, Y: a.pos.Y}
		return
	}

	a2 := a.r + c.r
	a2 *= a2
	b2 := b.r + c.r
	b2 *= b2
	// perp is d rotated -90 degrees; the -y component below picks the
	// outer intersection of the two tangency circles.
	perp := r2.Vec{X: d.Y, Y: -d.X}
	if a2 > b2 {
		x := (d2 + b2 - a2) / (2 * d2)
		y := math.Sqrt(math.Max(0, b2/d2-x*x))
		c.pos = r2.Sub(r2.Sub(b.pos, r2.Scale(x, d)), r2.Scale(y, perp))
	} else {
		x := (d2 + a2 - b2) / (2 * d2)
		y := math.Sqrt(math.Max(0, a2/d2-x*x))
		c.pos = r2.Sub(r2.Add(a.pos, r2.Scale(x, d)), r2.Scale(y, perp))
	}
}

// circlesOverlap reports a strict overlap, with a small epsilon so circles
// that merely touch are not treated as colliding.
func circlesOverlap(a, b *circle) bool {
	dr := a.r + b.r - 1e-6
	return dr > 0 && dr*dr > r2.Norm2(r2.Sub(b.pos, a.pos))
}

// chainScore ranks a chain edge by the squared distance of its
// radius-weighted midpoint from the packing centroid (the origin).
func chainScore(n *chainNode) float64 {
	a, b := n.c, n.next.c
	ab := a.r + b.r
	mid := r2.Add(r2.Scale(a.r/ab, a.pos), r2.Scale(b.r/ab, b.pos))
	return r2.Norm2(mid)
}
