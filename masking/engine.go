// Package masking decides which portions of candidate coating paths are
// obstructed by masking shapes. It computes per-segment unsafe parametric
// intervals against every active mask, merges them, and emits the surviving
// safe sub-segments, and answers the boolean collision queries the tour
// planner needs for travel moves.
package masking

import (
	"sort"

	"coatpath/core"
	"coatpath/geometry"
)

// MinSubSegment is the shortest safe sub-segment worth emitting; anything
// shorter is dropped to avoid degenerate zero-length moves.
const MinSubSegment = 0.01

// Engine filters coating paths against a snapshot of masking shapes. An
// Engine is constructed per planning run and holds no state across runs.
type Engine struct {
	settings core.Settings
	masks    []core.CoatingShape
}

// NewEngine creates a masking engine over the given shape list. Shapes that
// are not masking-typed are ignored, as are masks with unusable geometry
// (a circle without a radius, a rectangle without extent).
func NewEngine(settings core.Settings, shapes []core.CoatingShape) *Engine {
	e := &Engine{settings: settings}
	for _, s := range shapes {
		if !s.IsMask() {
			continue
		}
		if !maskUsable(s) {
			continue
		}
		e.masks = append(e.masks, s)
	}
	return e
}

// maskUsable reports whether a mask carries enough geometry to test against.
func maskUsable(s core.CoatingShape) bool {
	switch s.Kind {
	case core.ShapeCircle:
		return s.Radius > 0
	case core.ShapeRectangle, core.ShapeImage:
		return s.Width > 0 && s.Height > 0
	default:
		return false
	}
}

// HasActiveMasks reports whether masking is enabled and at least one usable
// mask shape is present.
func (e *Engine) HasActiveMasks() bool {
	return e.settings.MaskingEnabled && len(e.masks) > 0
}

// Masks returns the active mask snapshot.
func (e *Engine) Masks() []core.CoatingShape {
	if !e.settings.MaskingEnabled {
		return nil
	}
	return e.masks
}

// Clearance returns the effective clearance margin for a mask: the mask's own
// clearance override when set, otherwise the global clearance, plus half the
// coating width so the coated bead never touches the mask.
func (e *Engine) Clearance(mask core.CoatingShape) float64 {
	clearance := e.settings.MaskingClearance
	if mask.MaskingClearance > 0 {
		clearance = mask.MaskingClearance
	}
	c := clearance + e.settings.CoatingWidth/2
	if c < 0 {
		c = 0
	}
	return c
}

// ExpandedRect returns the clearance-expanded rectangle of a rectangular or
// image mask. The boolean is false for circular masks.
func (e *Engine) ExpandedRect(mask core.CoatingShape) (geometry.Rect, bool) {
	if mask.Kind == core.ShapeCircle {
		return geometry.Rect{}, false
	}
	r := geometry.Rect{X: mask.X, Y: mask.Y, W: mask.Width, H: mask.Height}
	return r.Expand(e.Clearance(mask)), true
}

// expandedCircle returns the clearance-expanded circle of a circular mask.
func (e *Engine) expandedCircle(mask core.CoatingShape) geometry.Circle {
	return geometry.Circle{X: mask.X, Y: mask.Y, R: mask.Radius + e.Clearance(mask)}
}

// shapeBounds returns a shape's bounding rectangle. Circles use X/Y as center.
func shapeBounds(s core.CoatingShape) geometry.Rect {
	if s.Kind == core.ShapeCircle {
		return geometry.Circle{X: s.X, Y: s.Y, R: s.Radius}.Bounds()
	}
	return geometry.Rect{X: s.X, Y: s.Y, W: s.Width, H: s.Height}
}

// BoundsOverlap is a coarse bounding-box overlap test between two shapes,
// ignoring their exact geometry.
func BoundsOverlap(a, b core.CoatingShape) bool {
	return shapeBounds(a).Overlaps(shapeBounds(b))
}

// IsFullyMasked reports whether the shape lies entirely within a single
// mask's clearance-expanded bounds, in which case it should be skipped
// outright.
func (e *Engine) IsFullyMasked(shape core.CoatingShape) bool {
	if !e.HasActiveMasks() {
		return false
	}
	for _, mask := range e.masks {
		if e.maskContainsShape(mask, shape) {
			return true
		}
	}
	return false
}

// maskContainsShape tests full containment of shape within one mask's
// clearance-expanded geometry. Mixed rectangle/circle cases reduce to corner
// and point-in-shape tests.
func (e *Engine) maskContainsShape(mask, shape core.CoatingShape) bool {
	if mask.Kind == core.ShapeCircle {
		circle := e.expandedCircle(mask)
		if shape.Kind == core.ShapeCircle {
			// Circle-in-circle: center distance plus radius within R.
			center := core.Point{X: mask.X, Y: mask.Y}
			d := center.DistanceTo(core.Point{X: shape.X, Y: shape.Y})
			return d+shape.Radius <= circle.R
		}
		// Rectangle-in-circle: all four corners inside.
		for _, corner := range shapeBounds(shape).Corners() {
			if !circle.Contains(corner) {
				return false
			}
		}
		return true
	}

	rect, _ := e.ExpandedRect(mask)
	return rect.ContainsRect(shapeBounds(shape))
}

// span is an unsafe parametric interval along one segment.
type span struct {
	t0, t1 float64
}

// FilterSegments removes the masked portions of every candidate segment.
// A fully masked shape yields no segments at all. Segments untouched by any
// mask pass through content-equal; obstructed segments are split into new
// safe sub-segments, dropping slivers shorter than MinSubSegment.
func (e *Engine) FilterSegments(segments []core.PathSegment, shape core.CoatingShape) []core.PathSegment {
	if !e.HasActiveMasks() {
		return segments
	}
	if e.IsFullyMasked(shape) {
		return nil
	}

	var result []core.PathSegment
	for _, seg := range segments {
		result = append(result, e.filterSegment(seg)...)
	}
	return result
}

// filterSegment splits one segment around every mask it crosses.
func (e *Engine) filterSegment(seg core.PathSegment) []core.PathSegment {
	var unsafe []span
	for _, mask := range e.masks {
		if t0, t1, ok := e.segmentMaskSpan(seg.Start, seg.End, mask); ok {
			unsafe = append(unsafe, span{t0, t1})
		}
	}
	if len(unsafe) == 0 {
		return []core.PathSegment{seg}
	}

	merged := mergeSpans(unsafe)
	length := seg.Length()

	var out []core.PathSegment
	cursor := 0.0
	emit := func(t0, t1 float64) {
		if (t1-t0)*length < MinSubSegment {
			return
		}
		out = append(out, subSegment(seg, t0, t1))
	}
	for _, u := range merged {
		emit(cursor, u.t0)
		cursor = u.t1
	}
	emit(cursor, 1)
	return out
}

// segmentMaskSpan computes the unsafe interval of one segment against one
// clearance-expanded mask.
func (e *Engine) segmentMaskSpan(a, b core.Point, mask core.CoatingShape) (float64, float64, bool) {
	if mask.Kind == core.ShapeCircle {
		return geometry.SegmentCircleSpan(a, b, e.expandedCircle(mask))
	}
	rect, _ := e.ExpandedRect(mask)
	return geometry.SegmentRectSpan(a, b, rect)
}

// mergeSpans merges overlapping or adjacent unsafe intervals, sorted by start.
func mergeSpans(spans []span) []span {
	sort.Slice(spans, func(i, j int) bool {
		return spans[i].t0 < spans[j].t0
	})

	merged := []span{spans[0]}
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.t0 <= last.t1 {
			if s.t1 > last.t1 {
				last.t1 = s.t1
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// subSegment produces a new segment covering the parametric range [t0,t1] of
// the source segment, preserving its non-geometric fields.
func subSegment(seg core.PathSegment, t0, t1 float64) core.PathSegment {
	sub := seg
	sub.Start = geometry.Lerp(seg.Start, seg.End, t0)
	sub.End = geometry.Lerp(seg.Start, seg.End, t1)
	return sub
}

// FindIntersectingMasks returns every mask whose clearance-expanded shape the
// straight segment p1→p2 crosses. Used by the tour planner to collision-check
// travel moves.
func (e *Engine) FindIntersectingMasks(p1, p2 core.Point) []core.CoatingShape {
	if !e.HasActiveMasks() {
		return nil
	}
	var crossing []core.CoatingShape
	for _, mask := range e.masks {
		if mask.Kind == core.ShapeCircle {
			if geometry.SegmentCrossesCircle(p1, p2, e.expandedCircle(mask)) {
				crossing = append(crossing, mask)
			}
			continue
		}
		rect, _ := e.ExpandedRect(mask)
		if geometry.SegmentCrossesRect(p1, p2, rect) {
			crossing = append(crossing, mask)
		}
	}
	return crossing
}

// IsPointInsideAnyMask reports whether the point lies inside any mask's
// clearance-expanded shape.
func (e *Engine) IsPointInsideAnyMask(p core.Point) bool {
	if !e.HasActiveMasks() {
		return false
	}
	for _, mask := range e.masks {
		if mask.Kind == core.ShapeCircle {
			if e.expandedCircle(mask).Contains(p) {
				return true
			}
			continue
		}
		rect, _ := e.ExpandedRect(mask)
		if rect.Contains(p) {
			return true
		}
	}
	return false
}
