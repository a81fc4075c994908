// Package planner turns a shape's masked segment list into an ordered motion
// sequence and drives an emitter. Zone-to-zone and intra-zone ordering are
// greedy nearest-neighbor heuristics; every travel move is collision-checked
// against masks and avoided by lifting over or contouring around them.
package planner

import (
	"context"
	"fmt"
	"runtime"

	"coatpath/cluster"
	"coatpath/core"
	"coatpath/geometry"
	"coatpath/masking"
)

const (
	// positionTolerance is how close the tool must be to a segment's start
	// before a coating move may be issued without an explicit travel first.
	positionTolerance = 0.01

	defaultMaxZones   = 5
	clusterIterations = 50

	// Zones larger than largeZoneSegments yield cooperatively every
	// yieldEverySegments while chaining, in addition to the per-zone yield.
	largeZoneSegments  = 1000
	yieldEverySegments = 100

	// contourMargin keeps detour legs strictly outside the clearance zone.
	contourMargin = positionTolerance

	progressStart = 20.0
	progressEnd   = 90.0
)

// Planner routes one coating shape at a time. Instances are constructed per
// planning run with a settings and mask snapshot and hold no state across
// shapes beyond the emitter's tool position.
type Planner struct {
	settings core.Settings
	masks    *masking.Engine
	emitter  core.Emitter
	progress core.ProgressFunc
	maxZones int
}

// Option configures a Planner.
type Option func(*Planner)

// WithProgress installs a progress callback invoked at zone granularity.
func WithProgress(fn core.ProgressFunc) Option {
	return func(p *Planner) { p.progress = fn }
}

// WithMaxZones overrides the maximum number of spatial zones per shape.
func WithMaxZones(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.maxZones = n
		}
	}
}

// New creates a planner that drives the given emitter, avoiding the masks
// held by the masking engine. A nil engine means no masks.
func New(settings core.Settings, masks *masking.Engine, emitter core.Emitter, opts ...Option) *Planner {
	if masks == nil {
		masks = masking.NewEngine(settings, nil)
	}
	p := &Planner{
		settings: settings,
		masks:    masks,
		emitter:  emitter,
		maxZones: defaultMaxZones,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// orientedSegment is a segment with its traversal direction. The underlying
// segment is never mutated; reversal swaps which endpoint acts as the start.
type orientedSegment struct {
	seg      core.PathSegment
	reversed bool
}

func (o orientedSegment) start() core.Point {
	if o.reversed {
		return o.seg.End
	}
	return o.seg.Start
}

func (o orientedSegment) end() core.Point {
	if o.reversed {
		return o.seg.Start
	}
	return o.seg.End
}

// PlanShape emits the motion sequence for one shape's safe coating segments,
// starting from whatever tool position the emitter carries over. It returns
// early with the context error if the context is cancelled at a yield point.
func (p *Planner) PlanShape(ctx context.Context, shape core.CoatingShape, segments []core.PathSegment) error {
	if len(segments) == 0 {
		return nil
	}

	label := shape.Name
	if label == "" {
		label = shape.ID
	}
	p.emitter.AddLine(fmt.Sprintf("shape %s: begin", label))

	zones := cluster.Partition(segments, p.maxZones, clusterIterations)

	totalActive := 0
	for _, z := range zones {
		if len(z) > 0 {
			totalActive++
		}
	}

	height := p.coatingHeight(shape)
	speed := p.coatingSpeed(shape)

	visited := make([]bool, len(zones))
	processed := 0

	for {
		zi, entry, ok := p.nextZone(zones, visited)
		if !ok {
			break
		}
		visited[zi] = true

		p.safeTravel(entry, shape)
		p.emitter.SetCoatingZ(height)

		if err := p.coatZone(ctx, zones[zi], entry, shape, height, speed); err != nil {
			return err
		}

		processed++
		if p.progress != nil {
			pct := progressStart + (progressEnd-progressStart)*float64(processed)/float64(totalActive)
			p.progress(pct, fmt.Sprintf("shape %s: zone %d/%d", label, processed, totalActive))
		}
		if err := yield(ctx); err != nil {
			return err
		}
	}

	// Leave every shape from a known-safe height.
	p.emitter.SetZ(p.settings.SafeHeight)
	p.emitter.AddLine(fmt.Sprintf("shape %s: end", label))
	return nil
}

// nextZone scans every unvisited zone's segment endpoints and returns the
// zone and entry point nearest the current tool position. ok is false once
// all zones are exhausted. Ties keep the earliest zone/segment in input
// order.
func (p *Planner) nextZone(zones [][]core.PathSegment, visited []bool) (int, core.Point, bool) {
	cur := p.emitter.CurrentPosition()

	best := -1
	var bestEntry core.Point
	bestDist := 0.0

	for zi, zone := range zones {
		if visited[zi] || len(zone) == 0 {
			continue
		}
		for _, seg := range zone {
			for _, candidate := range [2]core.Point{seg.Start, seg.End} {
				d := cur.DistanceTo(candidate)
				if best == -1 || d < bestDist {
					best = zi
					bestEntry = candidate
					bestDist = d
				}
			}
		}
	}

	if best == -1 {
		return 0, core.Point{}, false
	}
	return best, bestEntry, true
}

// safeTravel moves the tool to target, detecting mask collisions on the
// straight-line path and applying the effective avoidance strategy. It
// reports whether the move lifted to the safe height, in which case the
// caller must restore the coating height before depositing again.
func (p *Planner) safeTravel(target core.Point, shape core.CoatingShape) bool {
	cur := p.emitter.CurrentPosition()
	crossing := p.masks.FindIntersectingMasks(cur, target)

	switch {
	case len(crossing) == 0:
		p.emitter.TravelTo(target.X, target.Y)
		return false

	case len(crossing) == 1 && p.avoidanceFor(crossing[0], shape) == core.AvoidContour:
		rect, isRect := p.masks.ExpandedRect(crossing[0])
		if !isRect {
			// Contour detours are only computed for rectangular masks.
			p.emitter.AddLine("mask collision: contour unsupported for circular mask, lifting to safe height")
			p.emitter.SetZ(p.settings.SafeHeight)
			p.emitter.TravelTo(target.X, target.Y)
			return true
		}
		// Detour just outside the clearance zone so the legs never touch it.
		rect = rect.Expand(contourMargin)
		for _, wp := range contourWaypoints(cur, target, rect) {
			p.emitter.TravelTo(wp.X, wp.Y)
		}
		p.emitter.TravelTo(target.X, target.Y)
		return false

	default:
		if len(crossing) > 1 {
			p.emitter.AddLine(fmt.Sprintf("mask collision: %d masks in travel path, lifting to safe height", len(crossing)))
		}
		p.emitter.SetZ(p.settings.SafeHeight)
		p.emitter.TravelTo(target.X, target.Y)
		return true
	}
}

// contourWaypoints returns the corner sequence that routes around a
// rectangular mask: the corner nearest the start, the corner nearest the
// goal, and whichever perimeter direction between them is shorter.
func contourWaypoints(from, to core.Point, rect geometry.Rect) []core.Point {
	corners := rect.Corners()

	nearest := func(p core.Point) int {
		best := 0
		bestDist := p.DistanceTo(corners[0])
		for i := 1; i < 4; i++ {
			if d := p.DistanceTo(corners[i]); d < bestDist {
				best = i
				bestDist = d
			}
		}
		return best
	}

	i := nearest(from)
	j := nearest(to)
	if i == j {
		return []core.Point{corners[i]}
	}

	walk := func(step int) []core.Point {
		var path []core.Point
		for c := i; ; c = (c + step + 4) % 4 {
			path = append(path, corners[c])
			if c == j {
				return path
			}
		}
	}

	length := func(path []core.Point) float64 {
		total := from.DistanceTo(path[0])
		for k := 1; k < len(path); k++ {
			total += path[k-1].DistanceTo(path[k])
		}
		return total + path[len(path)-1].DistanceTo(to)
	}

	cw := walk(1)
	ccw := walk(-1)
	if length(cw) <= length(ccw) {
		return cw
	}
	return ccw
}

// coatZone chains the zone's segments from the entry point by nearest
// neighbor and emits travel/coat instruction pairs for each.
func (p *Planner) coatZone(ctx context.Context, zone []core.PathSegment, entry core.Point, shape core.CoatingShape, height, speed float64) error {
	large := len(zone) > largeZoneSegments

	remaining := make([]core.PathSegment, len(zone))
	copy(remaining, zone)

	chainPos := entry
	emitted := 0

	for len(remaining) > 0 {
		bestIdx := 0
		bestReversed := false
		bestDist := chainPos.DistanceTo(remaining[0].Start)
		if d := chainPos.DistanceTo(remaining[0].End); d < bestDist {
			bestDist = d
			bestReversed = true
		}
		for i := 1; i < len(remaining); i++ {
			if d := chainPos.DistanceTo(remaining[i].Start); d < bestDist {
				bestIdx, bestReversed, bestDist = i, false, d
			}
			if d := chainPos.DistanceTo(remaining[i].End); d < bestDist {
				bestIdx, bestReversed, bestDist = i, true, d
			}
		}

		next := orientedSegment{seg: remaining[bestIdx], reversed: bestReversed}
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)

		p.emitSegment(next, shape, height, speed)
		chainPos = next.end()

		emitted++
		if large && emitted%yieldEverySegments == 0 {
			if err := yield(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// emitSegment issues the travel/nozzle/coat sequence for one oriented
// segment, ensuring the tool is at the segment's start first. Travel between
// segments is collision-checked like any other travel; a lift drops back to
// the coating height before the nozzle opens.
func (p *Planner) emitSegment(o orientedSegment, shape core.CoatingShape, height, speed float64) {
	start := o.start()
	end := o.end()

	if p.emitter.CurrentPosition().DistanceTo(start) > positionTolerance {
		if p.safeTravel(start, shape) {
			p.emitter.SetCoatingZ(height)
		}
	}
	p.emitter.NozzleOn()
	p.emitter.CoatTo(end.X, end.Y, speed)
	p.emitter.NozzleOff()
}

// coatingHeight resolves the effective coating Z for a shape.
func (p *Planner) coatingHeight(shape core.CoatingShape) float64 {
	if shape.CoatingHeight > 0 {
		return shape.CoatingHeight
	}
	return p.settings.CoatingHeight
}

// coatingSpeed resolves the effective coating feed rate for a shape.
func (p *Planner) coatingSpeed(shape core.CoatingShape) float64 {
	if shape.CoatingSpeed > 0 {
		return shape.CoatingSpeed
	}
	return p.settings.CoatingSpeed
}

// avoidanceFor resolves the effective avoidance strategy for a mask standing
// in the way while coating a shape: mask override, then shape override, then
// the global default.
func (p *Planner) avoidanceFor(mask, shape core.CoatingShape) core.AvoidanceStrategy {
	if mask.Avoidance != "" {
		return mask.Avoidance
	}
	if shape.Avoidance != "" {
		return shape.Avoidance
	}
	if p.settings.Avoidance != "" {
		return p.settings.Avoidance
	}
	return core.AvoidLift
}

// yield is a cooperative suspension point. It never changes planner output;
// it only hands the scheduler a chance to run and observes cancellation.
func yield(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		runtime.Gosched()
		return nil
	}
}
