// Package pathgen turns coating shapes into raw candidate coat segments.
// The output is deliberately naive: every pass is emitted in drawing order
// with no regard for masks or travel cost, because masking and tour planning
// are downstream concerns.
package pathgen

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"coatpath/core"
)

// minSegmentLength is the shortest pass worth emitting. Anything below this
// would be dropped by the masking engine anyway.
const minSegmentLength = 0.01

// circleChordLength controls how finely circle outlines are polygonized.
const circleChordLength = 2.0

// Generate produces the raw coat segments for one shape. Masking shapes and
// shapes flagged to skip coating yield no segments and no error.
func Generate(shape core.CoatingShape, settings core.Settings) ([]core.PathSegment, error) {
	if shape.IsMask() || shape.SkipCoating {
		return nil, nil
	}

	width := shape.CoatingWidth
	if width <= 0 {
		width = settings.CoatingWidth
	}
	if width <= 0 {
		return nil, fmt.Errorf("shape %s: coating width must be positive", shape.ID)
	}

	switch shape.CoatingType {
	case core.CoatFill:
		return fill(shape, width)
	case core.CoatOutline:
		return outline(shape)
	default:
		return nil, fmt.Errorf("shape %s: unsupported coating type %q", shape.ID, shape.CoatingType)
	}
}

// Group wraps Generate's output in a path group tied back to the shape, the
// form the document model persists.
func Group(shape core.CoatingShape, settings core.Settings) (core.PathGroup, error) {
	segs, err := Generate(shape, settings)
	if err != nil {
		return core.PathGroup{}, err
	}
	name := shape.Name
	if name == "" {
		name = string(shape.Kind) + " " + string(shape.CoatingType)
	}
	return core.PathGroup{
		ID:            uuid.NewString(),
		Name:          name,
		Segments:      segs,
		Visible:       true,
		SourceShapeID: shape.ID,
	}, nil
}

func fill(shape core.CoatingShape, width float64) ([]core.PathSegment, error) {
	switch shape.Kind {
	case core.ShapeRectangle, core.ShapeImage:
		if shape.Width <= 0 || shape.Height <= 0 {
			return nil, fmt.Errorf("shape %s: rectangle needs positive width and height", shape.ID)
		}
		return rectFill(shape, width), nil
	case core.ShapeCircle:
		if shape.Radius <= 0 {
			return nil, fmt.Errorf("shape %s: circle needs positive radius", shape.ID)
		}
		return circleFill(shape, width), nil
	default:
		return nil, fmt.Errorf("shape %s: unsupported shape kind %q", shape.ID, shape.Kind)
	}
}

// rectFill sweeps horizontal passes across the rectangle, inset by half the
// bead width so the coating stays inside the shape, alternating direction so
// consecutive passes chain end to start.
func rectFill(shape core.CoatingShape, width float64) []core.PathSegment {
	half := width / 2

	x0, x1 := shape.X+half, shape.X+shape.Width-half
	y0, y1 := shape.Y+half, shape.Y+shape.Height-half

	// Narrower than one bead: a single vertical pass down the centerline.
	if x1 <= x0 {
		mid := shape.X + shape.Width/2
		if y1 <= y0 {
			y0, y1 = shape.Y, shape.Y+shape.Height
		}
		return appendPass(nil, core.Point{X: mid, Y: y0}, core.Point{X: mid, Y: y1}, 0)
	}

	passes := 1
	if y1 > y0 {
		passes = int(math.Floor((y1-y0)/width+1e-9)) + 1
	} else {
		y0 = shape.Y + shape.Height/2
	}

	segs := make([]core.PathSegment, 0, passes)
	for i := 0; i < passes; i++ {
		y := y0 + float64(i)*width
		a := core.Point{X: x0, Y: y}
		b := core.Point{X: x1, Y: y}
		if i%2 == 1 {
			a, b = b, a
		}
		segs = appendPass(segs, a, b, i)
	}
	return segs
}

// circleFill sweeps horizontal chords across the circle at bead-width
// spacing, centered vertically so the top and bottom margins match.
func circleFill(shape core.CoatingShape, width float64) []core.PathSegment {
	r := shape.Radius - width/2
	if r <= 0 {
		// Too small for a full bead; a single pass through the center is
		// the best we can do.
		return appendPass(nil,
			core.Point{X: shape.X - shape.Radius, Y: shape.Y},
			core.Point{X: shape.X + shape.Radius, Y: shape.Y}, 0)
	}

	passes := int(math.Floor(2*r/width+1e-9)) + 1
	start := -float64(passes-1) * width / 2

	segs := make([]core.PathSegment, 0, passes)
	for i := 0; i < passes; i++ {
		dy := start + float64(i)*width
		hx := math.Sqrt(math.Max(0, r*r-dy*dy))
		y := shape.Y + dy
		a := core.Point{X: shape.X - hx, Y: y}
		b := core.Point{X: shape.X + hx, Y: y}
		if i%2 == 1 {
			a, b = b, a
		}
		segs = appendPass(segs, a, b, i)
	}
	return segs
}

func outline(shape core.CoatingShape) ([]core.PathSegment, error) {
	switch shape.Kind {
	case core.ShapeRectangle, core.ShapeImage:
		if shape.Width <= 0 || shape.Height <= 0 {
			return nil, fmt.Errorf("shape %s: rectangle needs positive width and height", shape.ID)
		}
		return rectOutline(shape), nil
	case core.ShapeCircle:
		if shape.Radius <= 0 {
			return nil, fmt.Errorf("shape %s: circle needs positive radius", shape.ID)
		}
		return circleOutline(shape), nil
	default:
		return nil, fmt.Errorf("shape %s: unsupported shape kind %q", shape.ID, shape.Kind)
	}
}

// rectOutline walks the perimeter clockwise from the top-left corner.
func rectOutline(shape core.CoatingShape) []core.PathSegment {
	corners := []core.Point{
		{X: shape.X, Y: shape.Y},
		{X: shape.X + shape.Width, Y: shape.Y},
		{X: shape.X + shape.Width, Y: shape.Y + shape.Height},
		{X: shape.X, Y: shape.Y + shape.Height},
	}
	segs := make([]core.PathSegment, 0, 4)
	for i := range corners {
		segs = appendPass(segs, corners[i], corners[(i+1)%4], i)
	}
	return segs
}

// circleOutline polygonizes the circle into chords short enough that the
// deposited bead covers the true arc.
func circleOutline(shape core.CoatingShape) []core.PathSegment {
	n := int(math.Ceil(2 * math.Pi * shape.Radius / circleChordLength))
	if n < 16 {
		n = 16
	}
	at := func(i int) core.Point {
		theta := 2 * math.Pi * float64(i) / float64(n)
		return core.Point{
			X: shape.X + shape.Radius*math.Cos(theta),
			Y: shape.Y + shape.Radius*math.Sin(theta),
		}
	}
	segs := make([]core.PathSegment, 0, n)
	for i := 0; i < n; i++ {
		segs = appendPass(segs, at(i), at(i+1), i)
	}
	return segs
}

func appendPass(segs []core.PathSegment, a, b core.Point, line int) []core.PathSegment {
	if a.DistanceTo(b) < minSegmentLength {
		return segs
	}
	return append(segs, core.PathSegment{
		ID:         uuid.NewString(),
		Start:      a,
		End:        b,
		Kind:       core.Coat,
		SourceLine: line,
	})
}
