package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// disk is a bare geometric circle used by the enclosing-circle search.
type disk struct {
	pos r2.Vec
	r   float64
}

// encloseCircles returns the smallest circle containing every input circle.
// Matoušek-Sharir-Welzl with a basis of at most three circles, scanning in
// the given order; the restart-on-basis-change loop is order-insensitive
// for correctness, so no shuffle is needed and the result is deterministic.
func encloseCircles(circles []*circle) disk {
	disks := make([]disk, len(circles))
	for i, c := range circles {
		disks[i] = disk{pos: c.pos, r: c.r}
	}
	return encloseDisks(disks)
}

func encloseDisks(disks []disk) disk {
	var (
		e     disk
		found bool
		basis []disk
	)
	for i := 0; i < len(disks); {
		d := disks[i]
		if found && enclosesWeak(e, d) {
			i++
			continue
		}
		basis = extendBasis(basis, d)
		e = encloseBasis(basis)
		found = true
		i = 0
	}
	return e
}

func extendBasis(basis []disk, p disk) []disk {
	if enclosesWeakAll(p, basis) {
		return []disk{p}
	}

	// One existing basis disk plus p may suffice.
	for i := range basis {
		if enclosesNot(p, basis[i]) && enclosesWeakAll(encloseBasis2(basis[i], p), basis) {
			return []disk{basis[i], p}
		}
	}

	// Otherwise two existing basis disks plus p.
	for i := 0; i < len(basis)-1; i++ {
		for j := i + 1; j < len(basis); j++ {
			if enclosesNot(encloseBasis2(basis[i], basis[j]), p) &&
				enclosesNot(encloseBasis2(basis[i], p), basis[j]) &&
				enclosesNot(encloseBasis2(basis[j], p), basis[i]) &&
				enclosesWeakAll(encloseBasis3(basis[i], basis[j], p), basis) {
				return []disk{basis[i], basis[j], p}
			}
		}
	}

	// Unreachable for finite input: the three cases above are exhaustive.
	panic("layout: enclosing-circle basis extension failed")
}

// enclosesNot reports that a does not fully contain b.
func enclosesNot(a, b disk) bool {
	dr := a.r - b.r
	return dr < 0 || dr*dr < r2.Norm2(r2.Sub(b.pos, a.pos))
}

// enclosesWeak reports containment with a relative epsilon, so disks on the
// boundary count as enclosed.
func enclosesWeak(a, b disk) bool {
	dr := a.r - b.r + math.Max(math.Max(a.r, b.r), 1)*1e-9
	return dr > 0 && dr*dr > r2.Norm2(r2.Sub(b.pos, a.pos))
}

func enclosesWeakAll(a disk, basis []disk) bool {
	for i := range basis {
		if !enclosesWeak(a, basis[i]) {
			return false
		}
	}
	return true
}

func encloseBasis(basis []disk) disk {
	switch len(basis) {
	case 1:
		return basis[0]
	case 2:
		return encloseBasis2(basis[0], basis[1])
	default:
		return encloseBasis3(basis[0], basis[1], basis[2])
	}
}

// encloseBasis2 returns the smallest circle containing two circles: centred
// on the line between them, spanning their far edges.
func encloseBasis2(a, b disk) disk {
	d := r2.Sub(b.pos, a.pos)
	l := r2.Norm(d)
	if l == 0 {
		if a.r >= b.r {
			return a
		}
		return b
	}
	shift := r2.Scale((b.r-a.r)/l, d)
	return disk{
		pos: r2.Scale(0.5, r2.Add(r2.Add(a.pos, b.pos), shift)),
		r:   (l + a.r + b.r) / 2,
	}
}

// encloseBasis3 returns the circle internally tangent to all three input
// circles (the Apollonius solution that contains them).
func encloseBasis3(a, b, c disk) disk {
	x1, y1, r1 := a.pos.X, a.pos.Y, a.r
	x2, y2, r2v := b.pos.X, b.pos.Y, b.r
	x3, y3, r3 := c.pos.X, c.pos.Y, c.r

	a2 := x1 - x2
	a3 := x1 - x3
	b2 := y1 - y2
	b3 := y1 - y3
	c2 := r2v - r1
	c3 := r3 - r1
	d1 := x1*x1 + y1*y1 - r1*r1
	d2 := d1 - x2*x2 - y2*y2 + r2v*r2v
	d3 := d1 - x3*x3 - y3*y3 + r3*r3

	ab := a3*b2 - a2*b3
	xa := (b2*d3-b3*d2)/(ab*2) - x1
	xb := (b3*c2 - b2*c3) / ab
	ya := (a3*d2-a2*d3)/(ab*2) - y1
	yb := (a2*c3 - a3*c2) / ab

	qa := xb*xb + yb*yb - 1
	qb := 2 * (r1 + xa*xb + ya*yb)
	qc := xa*xa + ya*ya - r1*r1

	var r float64
	if math.Abs(qa) > 1e-6 {
		r = -(qb + math.Sqrt(qb*qb-4*qa*qc)) / (2 * qa)
	} else {
		r = -qc / qb
	}
	return disk{
		pos: r2.Vec{X: x1 + xa + xb*r, Y: y1 + ya + yb*r},
		r:   r,
	}
}
