// Package validation checks a recorded instruction stream for process
// mistakes before it is committed to G-code: dispensing with the valve
// closed, moving at the wrong height, or coating across a masked region.
package validation

import (
	"fmt"

	"coatpath/core"
	"coatpath/masking"
	"coatpath/planner"
)

// Issue is one problem found in the instruction stream, located by the
// offending op's index and the tool position at that point.
type Issue struct {
	Index   int
	X, Y    float64
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("op %d at (%.2f, %.2f): %s", i.Index, i.X, i.Y, i.Message)
}

// StreamValidator walks a planner instruction stream and reports issues.
type StreamValidator struct {
	masks     *masking.Engine
	tolerance float64
}

// NewStreamValidator creates a validator. A nil masking engine skips the
// mask-crossing checks.
func NewStreamValidator(masks *masking.Engine) *StreamValidator {
	return &StreamValidator{masks: masks, tolerance: 0.01}
}

// zMode tracks which height regime the nozzle was last commanded into.
type zMode int

const (
	zUnknown zMode = iota
	zTravel
	zCoating
)

// Validate checks nozzle discipline, height discipline, and mask crossings
// across the whole stream. A clean stream returns nil.
func (v *StreamValidator) Validate(ops []planner.Op) []Issue {
	var issues []Issue
	report := func(i int, pos core.Point, format string, args ...any) {
		issues = append(issues, Issue{Index: i, X: pos.X, Y: pos.Y, Message: fmt.Sprintf(format, args...)})
	}

	var pos core.Point
	nozzle := false
	mode := zUnknown

	for i, op := range ops {
		switch op.Kind {
		case planner.OpNozzleOn:
			if nozzle {
				report(i, pos, "nozzle already on")
			}
			nozzle = true
		case planner.OpNozzleOff:
			if !nozzle {
				report(i, pos, "nozzle already off")
			}
			nozzle = false
		case planner.OpSetZ:
			mode = zTravel
		case planner.OpSetCoatingZ:
			mode = zCoating
		case planner.OpTravel:
			if nozzle {
				report(i, pos, "travel move with nozzle on")
			}
			target := core.Point{X: op.X, Y: op.Y}
			if mode == zCoating && v.crossesMask(pos, target) {
				report(i, pos, "travel move crosses mask at coating height")
			}
			pos = target
		case planner.OpCoat:
			if !nozzle {
				report(i, pos, "coat move with nozzle off")
			}
			if mode != zCoating {
				report(i, pos, "coat move before reaching coating height")
			}
			target := core.Point{X: op.X, Y: op.Y}
			for _, mask := range v.crossedMasks(pos, target) {
				report(i, pos, "coat move crosses mask %s", mask.ID)
			}
			pos = target
		}
	}

	if nozzle {
		report(len(ops)-1, pos, "nozzle left on at end of stream")
	}
	return issues
}

// ValidateAgainstSegments additionally checks that every coat move traverses
// one of the given input segments, in either direction, within the position
// tolerance. This catches a planner that coats along a path it was never
// asked to.
func (v *StreamValidator) ValidateAgainstSegments(ops []planner.Op, segments []core.PathSegment) []Issue {
	issues := v.Validate(ops)

	var pos core.Point
	for i, op := range ops {
		switch op.Kind {
		case planner.OpTravel:
			pos = core.Point{X: op.X, Y: op.Y}
		case planner.OpCoat:
			target := core.Point{X: op.X, Y: op.Y}
			if !v.matchesSegment(pos, target, segments) {
				issues = append(issues, Issue{
					Index: i, X: pos.X, Y: pos.Y,
					Message: fmt.Sprintf("coat move to (%.2f, %.2f) matches no input segment", target.X, target.Y),
				})
			}
			pos = target
		}
	}
	return issues
}

func (v *StreamValidator) matchesSegment(from, to core.Point, segments []core.PathSegment) bool {
	for _, s := range segments {
		if from.DistanceTo(s.Start) <= v.tolerance && to.DistanceTo(s.End) <= v.tolerance {
			return true
		}
		if from.DistanceTo(s.End) <= v.tolerance && to.DistanceTo(s.Start) <= v.tolerance {
			return true
		}
	}
	return false
}

func (v *StreamValidator) crossesMask(from, to core.Point) bool {
	return len(v.crossedMasks(from, to)) > 0
}

func (v *StreamValidator) crossedMasks(from, to core.Point) []core.CoatingShape {
	if v.masks == nil {
		return nil
	}
	return v.masks.FindIntersectingMasks(from, to)
}
