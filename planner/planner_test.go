package planner

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coatpath/core"
	"coatpath/geometry"
	"coatpath/masking"
)

// testSettings gives zero effective clearance so mask geometry can be
// reasoned about directly.
func testSettings() core.Settings {
	s := core.DefaultSettings()
	s.MaskingClearance = 0
	s.CoatingWidth = 0
	return s
}

func fillShape() core.CoatingShape {
	return core.CoatingShape{
		ID: "s1", Kind: core.ShapeRectangle, CoatingType: core.CoatFill,
		X: 0, Y: 0, Width: 120, Height: 120,
	}
}

func coatSeg(x1, y1, x2, y2 float64) core.PathSegment {
	return core.PathSegment{
		Start: core.Point{X: x1, Y: y1},
		End:   core.Point{X: x2, Y: y2},
		Kind:  core.Coat,
	}
}

func planInto(t *testing.T, settings core.Settings, maskShapes []core.CoatingShape, shape core.CoatingShape, segs []core.PathSegment) *Recorder {
	t.Helper()
	rec := NewRecorder()
	p := New(settings, masking.NewEngine(settings, maskShapes), rec)
	require.NoError(t, p.PlanShape(context.Background(), shape, segs))
	return rec
}

func TestPlanShapeNoSegmentsIsNoOp(t *testing.T) {
	rec := planInto(t, testSettings(), nil, fillShape(), nil)
	assert.Empty(t, rec.Ops(), "zero input segments must emit nothing")
}

func TestPlanShapeEmitsTravelCoatPairs(t *testing.T) {
	segs := []core.PathSegment{
		coatSeg(0, 0, 10, 0),
		coatSeg(10, 2, 0, 2),
	}
	rec := planInto(t, testSettings(), nil, fillShape(), segs)

	require.Equal(t, 2, rec.CoatCount())

	// Every coat move is bracketed by nozzle on/off and starts where the
	// tool already is (within tolerance).
	var pos core.Point
	nozzle := false
	for i, op := range rec.Ops() {
		switch op.Kind {
		case OpTravel:
			pos.X, pos.Y = op.X, op.Y
		case OpNozzleOn:
			nozzle = true
		case OpNozzleOff:
			nozzle = false
		case OpCoat:
			assert.True(t, nozzle, "op %d: coat with nozzle off", i)
			pos.X, pos.Y = op.X, op.Y
		}
	}
	assert.False(t, nozzle, "nozzle left on at end of shape")
}

func TestPlanShapeTravelBeforeCoatInvariant(t *testing.T) {
	segs := []core.PathSegment{
		coatSeg(50, 50, 60, 50),
		coatSeg(0, 0, 10, 0),
		coatSeg(30, 20, 30, 40),
	}
	rec := planInto(t, testSettings(), nil, fillShape(), segs)

	// Walk the stream tracking position. Every coat move must depart from a
	// position that, together with the coat target, matches one of the input
	// segments traversed in either direction.
	matchesInput := func(from, to core.Point) bool {
		for _, s := range segs {
			if from.DistanceTo(s.Start) < 0.01 && to.DistanceTo(s.End) < 0.01 {
				return true
			}
			if from.DistanceTo(s.End) < 0.01 && to.DistanceTo(s.Start) < 0.01 {
				return true
			}
		}
		return false
	}

	var pos core.Point
	for i, op := range rec.Ops() {
		switch op.Kind {
		case OpTravel:
			pos = core.Point{X: op.X, Y: op.Y}
		case OpCoat:
			target := core.Point{X: op.X, Y: op.Y}
			assert.True(t, matchesInput(pos, target),
				"op %d: coat %v -> %v does not depart from a segment start", i, pos, target)
			pos = target
		}
	}
	assert.Equal(t, 3, rec.CoatCount())
}

func TestPlanShapeEndsAtSafeHeight(t *testing.T) {
	rec := planInto(t, testSettings(), nil, fillShape(), []core.PathSegment{coatSeg(0, 0, 10, 0)})

	ops := rec.Ops()
	require.True(t, len(ops) >= 2)
	assert.Equal(t, OpLine, ops[len(ops)-1].Kind)
	assert.Equal(t, OpSetZ, ops[len(ops)-2].Kind)
	assert.InDelta(t, testSettings().SafeHeight, ops[len(ops)-2].Z, 1e-9)
}

func TestPlanShapeSetsCoatingHeightAndSpeed(t *testing.T) {
	shape := fillShape()
	shape.CoatingHeight = 1.5
	shape.CoatingSpeed = 450

	rec := planInto(t, testSettings(), nil, shape, []core.PathSegment{coatSeg(0, 0, 10, 0)})

	var sawHeight bool
	for _, op := range rec.Ops() {
		if op.Kind == OpSetCoatingZ {
			assert.InDelta(t, 1.5, op.Z, 1e-9)
			sawHeight = true
		}
		if op.Kind == OpCoat {
			assert.InDelta(t, 450.0, op.Speed, 1e-9)
		}
	}
	assert.True(t, sawHeight, "missing SetCoatingZ")
}

func TestTravelLiftsOverMask(t *testing.T) {
	settings := testSettings()
	settings.Avoidance = core.AvoidLift
	mask := core.CoatingShape{
		Kind: core.ShapeRectangle, CoatingType: core.CoatMasking,
		X: 40, Y: 40, Width: 20, Height: 20,
	}

	rec := planInto(t, settings, []core.CoatingShape{mask}, fillShape(),
		[]core.PathSegment{coatSeg(100, 100, 110, 100)})

	// Expect a lift to safe height before the entry travel, and no contour
	// waypoints: the first travel goes straight to the entry point.
	ops := rec.Ops()
	liftIdx, travelIdx := -1, -1
	for i, op := range ops {
		if op.Kind == OpSetZ && liftIdx == -1 {
			liftIdx = i
		}
		if op.Kind == OpTravel && travelIdx == -1 {
			travelIdx = i
		}
	}
	require.NotEqual(t, -1, liftIdx, "expected a safe-height lift")
	require.NotEqual(t, -1, travelIdx)
	assert.Less(t, liftIdx, travelIdx, "lift must precede the travel move")
	assert.InDelta(t, 100.0, ops[travelIdx].X, 1e-9)
	assert.InDelta(t, 100.0, ops[travelIdx].Y, 1e-9)
}

func TestTravelContoursAroundMask(t *testing.T) {
	settings := testSettings()
	settings.Avoidance = core.AvoidContour
	mask := core.CoatingShape{
		Kind: core.ShapeRectangle, CoatingType: core.CoatMasking,
		X: 40, Y: 40, Width: 20, Height: 20,
	}

	rec := planInto(t, settings, []core.CoatingShape{mask}, fillShape(),
		[]core.PathSegment{coatSeg(100, 100, 110, 100)})

	// Collect travel moves up to the entry point.
	var waypoints []core.Point
	for _, op := range rec.Ops() {
		if op.Kind == OpSetZ {
			t.Fatal("contour detour should not lift to safe height")
		}
		if op.Kind == OpTravel {
			waypoints = append(waypoints, core.Point{X: op.X, Y: op.Y})
			if op.X == 100 && op.Y == 100 {
				break
			}
		}
	}
	require.True(t, len(waypoints) >= 2, "expected detour waypoints before the entry travel")

	// Every intermediate waypoint must be a corner of the margin-expanded
	// mask rectangle.
	corners := geometry.Rect{X: 40, Y: 40, W: 20, H: 20}.Expand(contourMargin).Corners()
	isCorner := func(p core.Point) bool {
		for _, c := range corners {
			if p.DistanceTo(c) < 1e-9 {
				return true
			}
		}
		return false
	}
	for _, wp := range waypoints[:len(waypoints)-1] {
		assert.True(t, isCorner(wp), "waypoint %v is not a mask corner", wp)
	}

	// No leg of the detour may cross the mask interior. Shrink the rect
	// slightly so edge-riding legs don't count as crossings.
	interior := geometry.Rect{X: 40, Y: 40, W: 20, H: 20}.Expand(-1e-6)
	prev := core.Point{}
	for _, wp := range waypoints {
		assert.False(t, geometry.SegmentCrossesRect(prev, wp, interior),
			"leg %v -> %v crosses the mask", prev, wp)
		prev = wp
	}
}

func TestTravelContourFallsBackForCircularMask(t *testing.T) {
	settings := testSettings()
	settings.Avoidance = core.AvoidContour
	mask := core.CoatingShape{
		Kind: core.ShapeCircle, CoatingType: core.CoatMasking,
		X: 50, Y: 50, Radius: 10,
	}

	rec := planInto(t, settings, []core.CoatingShape{mask}, fillShape(),
		[]core.PathSegment{coatSeg(100, 100, 110, 100)})

	// Circular masks are not detoured: lift to safe height with a
	// diagnostic note, then travel direct.
	ops := rec.Ops()
	noteIdx, liftIdx, travelIdx := -1, -1, -1
	for i, op := range ops {
		if op.Kind == OpLine && noteIdx == -1 && op.Text != "" {
			noteIdx = i
		}
		if op.Kind == OpSetZ && liftIdx == -1 {
			liftIdx = i
		}
		if op.Kind == OpTravel && travelIdx == -1 {
			travelIdx = i
		}
	}
	require.NotEqual(t, -1, noteIdx, "expected a diagnostic note")
	require.NotEqual(t, -1, liftIdx, "circular mask under contour must lift")
	require.NotEqual(t, -1, travelIdx)
	assert.Less(t, noteIdx, travelIdx)
	assert.Less(t, liftIdx, travelIdx, "lift must precede the travel move")
	assert.InDelta(t, testSettings().SafeHeight, ops[liftIdx].Z, 1e-9)
	assert.InDelta(t, 100.0, ops[travelIdx].X, 1e-9)
	assert.InDelta(t, 100.0, ops[travelIdx].Y, 1e-9)
}

func TestIntraZoneTravelLiftsOverCircularMaskUnderContour(t *testing.T) {
	// A circular mask splitting one pass in two. With the global strategy
	// set to contour, the travel between the two halves cannot be detoured
	// and must lift over the mask instead of crossing it at coating height.
	settings := testSettings()
	settings.Avoidance = core.AvoidContour
	mask := core.CoatingShape{
		Kind: core.ShapeCircle, CoatingType: core.CoatMasking,
		X: 50, Y: 0, Radius: 5,
	}

	rec := planInto(t, settings, []core.CoatingShape{mask}, fillShape(),
		[]core.PathSegment{coatSeg(0, 0, 45, 0), coatSeg(55, 0, 100, 0)})

	// Track heights through the stream: no travel crossing x=50 at y=0 may
	// happen at coating height.
	var pos core.Point
	atCoatingHeight := false
	for i, op := range rec.Ops() {
		switch op.Kind {
		case OpSetZ:
			atCoatingHeight = false
		case OpSetCoatingZ:
			atCoatingHeight = true
		case OpTravel:
			target := core.Point{X: op.X, Y: op.Y}
			if atCoatingHeight {
				crossesMask := math.Min(pos.X, target.X) < 50 && math.Max(pos.X, target.X) > 50 &&
					math.Abs(pos.Y) < 5 && math.Abs(target.Y) < 5
				assert.False(t, crossesMask, "op %d: travel %v -> %v crosses the mask at coating height", i, pos, target)
			}
			pos = target
		case OpCoat:
			pos = core.Point{X: op.X, Y: op.Y}
		}
	}

	assert.Equal(t, 2, rec.CoatCount(), "both pass halves must still be coated")

	// The lift is restored before the second half is deposited.
	ops := rec.Ops()
	for i, op := range ops {
		if op.Kind == OpCoat {
			sawCoatingZ := false
			for j := i - 1; j >= 0; j-- {
				if ops[j].Kind == OpSetCoatingZ {
					sawCoatingZ = true
					break
				}
				if ops[j].Kind == OpSetZ {
					break
				}
			}
			assert.True(t, sawCoatingZ, "op %d: coat without restoring coating height", i)
		}
	}
}

func TestTravelLiftsForMultipleMasks(t *testing.T) {
	settings := testSettings()
	settings.Avoidance = core.AvoidContour // contour requested, but two masks force a lift
	masks := []core.CoatingShape{
		{Kind: core.ShapeRectangle, CoatingType: core.CoatMasking, X: 20, Y: 20, Width: 10, Height: 10},
		{Kind: core.ShapeRectangle, CoatingType: core.CoatMasking, X: 60, Y: 60, Width: 10, Height: 10},
	}

	rec := planInto(t, settings, masks, fillShape(),
		[]core.PathSegment{coatSeg(100, 100, 110, 100)})

	var sawLift, sawNote bool
	for _, op := range rec.Ops() {
		if op.Kind == OpSetZ {
			sawLift = true
		}
		if op.Kind == OpLine {
			sawNote = true
		}
	}
	assert.True(t, sawLift, "multiple crossing masks must lift")
	assert.True(t, sawNote, "expected a diagnostic note")
}

func TestMaskAvoidanceOverridePrecedence(t *testing.T) {
	// The mask's own strategy wins over shape and global settings.
	settings := testSettings()
	settings.Avoidance = core.AvoidLift
	mask := core.CoatingShape{
		Kind: core.ShapeRectangle, CoatingType: core.CoatMasking,
		X: 40, Y: 40, Width: 20, Height: 20,
		Avoidance: core.AvoidContour,
	}

	rec := planInto(t, settings, []core.CoatingShape{mask}, fillShape(),
		[]core.PathSegment{coatSeg(100, 100, 110, 100)})

	for _, op := range rec.Ops() {
		if op.Kind == OpSetZ {
			t.Fatal("mask-level contour override should prevent lifting")
		}
		if op.Kind == OpTravel && op.X == 100 && op.Y == 100 {
			break
		}
	}
}

func TestGreedyOrderingBeatsInputOrder(t *testing.T) {
	// A 4-pass boustrophedon supplied in scrambled order: the planner's
	// chained route must not travel further than emitting the segments in
	// the original input order.
	segs := []core.PathSegment{
		coatSeg(0, 30, 100, 30),
		coatSeg(0, 0, 100, 0),
		coatSeg(100, 10, 0, 10),
		coatSeg(0, 20, 100, 20),
	}

	rec := planInto(t, testSettings(), nil, fillShape(), segs)
	require.Equal(t, 4, rec.CoatCount())

	// Baseline: emit in input order from the same start position.
	naive := 0.0
	cur := core.Point{}
	for _, s := range segs {
		naive += cur.DistanceTo(s.Start)
		cur = s.End
	}

	assert.LessOrEqual(t, rec.TravelDistance(), naive+1e-9)
}

func TestProgressReporting(t *testing.T) {
	segs := []core.PathSegment{
		coatSeg(0, 0, 10, 0),
		coatSeg(200, 200, 210, 200),
		coatSeg(400, 0, 410, 0),
	}

	var percents []float64
	settings := testSettings()
	rec := NewRecorder()
	p := New(settings, masking.NewEngine(settings, nil), rec,
		WithProgress(func(pct float64, msg string) {
			percents = append(percents, pct)
			assert.NotEmpty(t, msg)
		}),
		WithMaxZones(3),
	)
	require.NoError(t, p.PlanShape(context.Background(), fillShape(), segs))

	require.NotEmpty(t, percents)
	last := 0.0
	for _, pct := range percents {
		assert.GreaterOrEqual(t, pct, 20.0)
		assert.LessOrEqual(t, pct, 90.0)
		assert.GreaterOrEqual(t, pct, last, "progress must not go backwards")
		last = pct
	}
	assert.InDelta(t, 90.0, percents[len(percents)-1], 1e-9)
}

func TestPlanShapeCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	settings := testSettings()
	rec := NewRecorder()
	p := New(settings, masking.NewEngine(settings, nil), rec)

	err := p.PlanShape(ctx, fillShape(), []core.PathSegment{coatSeg(0, 0, 10, 0)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestContourWaypoints(t *testing.T) {
	rect := geometry.Rect{X: 40, Y: 40, W: 20, H: 20}

	tests := []struct {
		name     string
		from, to core.Point
	}{
		{"diagonal", core.Point{X: 0, Y: 0}, core.Point{X: 100, Y: 100}},
		{"left to right", core.Point{X: 30, Y: 50}, core.Point{X: 70, Y: 50}},
		{"below to above", core.Point{X: 50, Y: 20}, core.Point{X: 50, Y: 80}},
		{"reverse diagonal", core.Point{X: 100, Y: 0}, core.Point{X: 0, Y: 100}},
	}

	interior := rect.Expand(-1e-6)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wps := contourWaypoints(tt.from, tt.to, rect)
			require.NotEmpty(t, wps)

			full := append([]core.Point{tt.from}, wps...)
			full = append(full, tt.to)
			for i := 1; i < len(full); i++ {
				assert.False(t, geometry.SegmentCrossesRect(full[i-1], full[i], interior),
					"leg %v -> %v crosses the obstacle", full[i-1], full[i])
			}
		})
	}
}

func TestContourWaypointsPicksShorterDirection(t *testing.T) {
	rect := geometry.Rect{X: 40, Y: 40, W: 20, H: 20}

	// From just left of the top edge to just right of it: the short way
	// around is over the top, two corners.
	wps := contourWaypoints(core.Point{X: 35, Y: 45}, core.Point{X: 65, Y: 45}, rect)
	require.Len(t, wps, 2)
	for _, wp := range wps {
		assert.InDelta(t, 40.0, wp.Y, 1e-9, "short detour should ride the top corners")
	}
}

func TestRecorderReplay(t *testing.T) {
	rec := planInto(t, testSettings(), nil, fillShape(), []core.PathSegment{
		coatSeg(0, 0, 10, 0),
		coatSeg(10, 5, 0, 5),
	})

	copyRec := NewRecorder()
	rec.Replay(copyRec)
	assert.Equal(t, rec.Ops(), copyRec.Ops())
	assert.InDelta(t, rec.TravelDistance(), copyRec.TravelDistance(), 1e-9)
}

func TestRecorderTravelDistance(t *testing.T) {
	r := NewRecorder()
	r.TravelTo(3, 4)
	r.CoatTo(10, 4, 500)
	r.TravelTo(10, 10)

	assert.InDelta(t, 11.0, r.TravelDistance(), 1e-9)
	assert.Equal(t, 1, r.CoatCount())
	assert.InDelta(t, 10.0, r.CurrentPosition().X, 1e-9)
	assert.True(t, math.Abs(r.CurrentPosition().Y-10) < 1e-9)
}
