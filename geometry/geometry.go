// Package geometry provides the planar primitives the masking engine and tour
// planner are built on: axis-aligned rectangles, circles, and parametric
// line-segment intersection tests against both.
package geometry

import (
	"math"

	"coatpath/core"
)

// Epsilon is the tolerance used for degenerate-interval rejection.
const Epsilon = 1e-9

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, W, H float64
}

// Expand grows the rectangle by margin on every side.
func (r Rect) Expand(margin float64) Rect {
	return Rect{
		X: r.X - margin,
		Y: r.Y - margin,
		W: r.W + 2*margin,
		H: r.H + 2*margin,
	}
}

// Contains reports whether the point lies inside the rectangle (inclusive).
func (r Rect) Contains(p core.Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W &&
		p.Y >= r.Y && p.Y <= r.Y+r.H
}

// ContainsRect reports whether the other rectangle lies entirely inside r.
func (r Rect) ContainsRect(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y &&
		o.X+o.W <= r.X+r.W && o.Y+o.H <= r.Y+r.H
}

// Overlaps reports whether the two rectangles share any area.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && r.X+r.W > o.X &&
		r.Y < o.Y+o.H && r.Y+r.H > o.Y
}

// Corners returns the rectangle's corners in clockwise order starting at the
// top-left (min-x, min-y) corner.
func (r Rect) Corners() [4]core.Point {
	return [4]core.Point{
		{X: r.X, Y: r.Y},
		{X: r.X + r.W, Y: r.Y},
		{X: r.X + r.W, Y: r.Y + r.H},
		{X: r.X, Y: r.Y + r.H},
	}
}

// Circle is a circle given by its center and radius.
type Circle struct {
	X, Y, R float64
}

// Expand grows the circle's radius by margin.
func (c Circle) Expand(margin float64) Circle {
	return Circle{X: c.X, Y: c.Y, R: c.R + margin}
}

// Contains reports whether the point lies inside the circle (inclusive).
func (c Circle) Contains(p core.Point) bool {
	dx := p.X - c.X
	dy := p.Y - c.Y
	return dx*dx+dy*dy <= c.R*c.R
}

// Bounds returns the circle's bounding rectangle.
func (c Circle) Bounds() Rect {
	return Rect{X: c.X - c.R, Y: c.Y - c.R, W: 2 * c.R, H: 2 * c.R}
}

// Lerp returns the point at parameter t along the segment a→b.
func Lerp(a, b core.Point, t float64) core.Point {
	return core.Point{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
	}
}

// SegmentRectSpan computes the parametric sub-interval [t0,t1] of the segment
// a→b (t in [0,1]) that lies inside the rectangle, by clipping against the
// four boundary half-planes (slab method). The boolean is false when the
// segment misses the rectangle entirely.
func SegmentRectSpan(a, b core.Point, r Rect) (t0, t1 float64, ok bool) {
	t0, t1 = 0, 1

	clip := func(p, q float64) bool {
		// p is the direction component against the half-plane, q the distance.
		if math.Abs(p) < Epsilon {
			// Parallel to this boundary: inside or outside for all t.
			return q >= 0
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return false
			}
			if t < t1 {
				t1 = t
			}
		}
		return true
	}

	dx := b.X - a.X
	dy := b.Y - a.Y

	if !clip(-dx, a.X-r.X) { // left edge
		return 0, 0, false
	}
	if !clip(dx, r.X+r.W-a.X) { // right edge
		return 0, 0, false
	}
	if !clip(-dy, a.Y-r.Y) { // top edge
		return 0, 0, false
	}
	if !clip(dy, r.Y+r.H-a.Y) { // bottom edge
		return 0, 0, false
	}

	if t1-t0 < Epsilon {
		return 0, 0, false
	}
	return t0, t1, true
}

// SegmentCircleSpan computes the parametric sub-interval [t0,t1] of the
// segment a→b that lies inside the circle, from the roots of the quadratic
// formed by substituting the parametric line into the circle equation,
// clamped to [0,1]. The boolean is false when the discriminant is negative or
// the clamped interval is degenerate.
func SegmentCircleSpan(a, b core.Point, c Circle) (t0, t1 float64, ok bool) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	fx := a.X - c.X
	fy := a.Y - c.Y

	qa := dx*dx + dy*dy
	qb := 2 * (fx*dx + fy*dy)
	qc := fx*fx + fy*fy - c.R*c.R

	if qa < Epsilon {
		// Degenerate segment: inside or outside as a whole.
		if qc <= 0 {
			return 0, 1, true
		}
		return 0, 0, false
	}

	disc := qb*qb - 4*qa*qc
	if disc < 0 {
		return 0, 0, false
	}

	sq := math.Sqrt(disc)
	t0 = (-qb - sq) / (2 * qa)
	t1 = (-qb + sq) / (2 * qa)

	t0 = math.Max(t0, 0)
	t1 = math.Min(t1, 1)
	if t1-t0 < Epsilon {
		return 0, 0, false
	}
	return t0, t1, true
}

// SegmentCrossesRect reports whether the segment a→b passes through the
// rectangle. Boolean counterpart of SegmentRectSpan for travel-collision
// checks.
func SegmentCrossesRect(a, b core.Point, r Rect) bool {
	// Early bounding-box rejection.
	minX := math.Min(a.X, b.X)
	maxX := math.Max(a.X, b.X)
	minY := math.Min(a.Y, b.Y)
	maxY := math.Max(a.Y, b.Y)
	if maxX < r.X || minX > r.X+r.W || maxY < r.Y || minY > r.Y+r.H {
		return false
	}

	_, _, ok := SegmentRectSpan(a, b, r)
	return ok
}

// SegmentCrossesCircle reports whether the segment a→b passes through the
// circle.
func SegmentCrossesCircle(a, b core.Point, c Circle) bool {
	_, _, ok := SegmentCircleSpan(a, b, c)
	return ok
}
