// Package core contains the fundamental types used throughout the coatpath planner.
package core

import "math"

// Point represents a coordinate on the work surface. Z is optional and only
// meaningful to emitters; the planner itself reasons in the XY plane.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

// DistanceTo returns the planar Euclidean distance to another point.
func (p Point) DistanceTo(q Point) float64 {
	dx := q.X - p.X
	dy := q.Y - p.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// SegmentKind distinguishes rapid repositioning moves from depositing moves.
type SegmentKind int

const (
	Travel SegmentKind = iota // G0-class, no material deposited
	Coat                      // G1-class, deposits material while moving
)

// String returns the string representation of a SegmentKind.
func (k SegmentKind) String() string {
	switch k {
	case Travel:
		return "Travel"
	case Coat:
		return "Coat"
	default:
		return "Unknown"
	}
}

// PathSegment is one straight move candidate. Start and End never change after
// creation; masking and planning produce new segments rather than mutating
// existing ones. The planner may traverse a segment end-to-start without
// modifying it.
type PathSegment struct {
	ID         string      `json:"id,omitempty"`
	Start      Point       `json:"start"`
	End        Point       `json:"end"`
	Kind       SegmentKind `json:"kind"`
	Speed      float64     `json:"speed,omitempty"`
	FeedRate   float64     `json:"feedRate,omitempty"`
	SourceLine int         `json:"sourceLine,omitempty"`
	Comment    string      `json:"comment,omitempty"`
}

// Length returns the planar length of the segment.
func (s PathSegment) Length() float64 {
	return s.Start.DistanceTo(s.End)
}

// Midpoint returns the planar midpoint of the segment.
func (s PathSegment) Midpoint() Point {
	return Point{
		X: (s.Start.X + s.End.X) / 2,
		Y: (s.Start.Y + s.End.Y) / 2,
	}
}

// PathGroup is a named, independently toggleable bundle of segments tied back
// to one source shape. The document model owns group lifecycle; the planner
// only ever consumes a flat segment list pulled from one group at a time.
type PathGroup struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Segments      []PathSegment `json:"segments"`
	Visible       bool          `json:"visible"`
	Locked        bool          `json:"locked"`
	SourceShapeID string        `json:"sourceShapeId,omitempty"`
	IsRelative    bool          `json:"isRelative,omitempty"`
	BaseTransform *Transform    `json:"baseTransform,omitempty"`
}

// Transform is an offset-and-scale applied to relative path groups when they
// are resolved to absolute work-surface coordinates.
type Transform struct {
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Scale   float64 `json:"scale,omitempty"`
}

// ShapeKind identifies the geometry carried by a CoatingShape.
type ShapeKind string

const (
	ShapeRectangle ShapeKind = "rectangle"
	ShapeCircle    ShapeKind = "circle"
	ShapeImage     ShapeKind = "image" // treated as its bounding rectangle
)

// CoatingType tags a shape with its coating intent.
type CoatingType string

const (
	CoatFill    CoatingType = "fill"
	CoatOutline CoatingType = "outline"
	CoatMasking CoatingType = "masking"
)

// AvoidanceStrategy selects how travel moves navigate a mask in their way.
type AvoidanceStrategy string

const (
	// AvoidLift raises the nozzle to the safe height and flies over.
	AvoidLift AvoidanceStrategy = "lift"
	// AvoidContour navigates around the mask's perimeter.
	AvoidContour AvoidanceStrategy = "contour"
)

// CoatingShape is a drawn shape on the work surface. Rectangle and image
// shapes use X/Y/Width/Height; circle shapes use X/Y as the center and Radius.
// Zero-valued override fields mean "use the global Settings value".
type CoatingShape struct {
	ID     string    `json:"id"`
	Name   string    `json:"name,omitempty"`
	Kind   ShapeKind `json:"kind"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Width  float64   `json:"width,omitempty"`
	Height float64   `json:"height,omitempty"`
	Radius float64   `json:"radius,omitempty"`

	CoatingType CoatingType `json:"coatingType"`
	SkipCoating bool        `json:"skipCoating,omitempty"`

	// Per-shape overrides; zero means fall back to Settings.
	CoatingHeight    float64           `json:"coatingHeight,omitempty"`
	CoatingSpeed     float64           `json:"coatingSpeed,omitempty"`
	CoatingWidth     float64           `json:"coatingWidth,omitempty"`
	MaskingClearance float64           `json:"maskingClearance,omitempty"`
	Avoidance        AvoidanceStrategy `json:"avoidanceStrategy,omitempty"`
}

// IsMask reports whether the shape acts as a masking obstacle.
func (s CoatingShape) IsMask() bool {
	return s.CoatingType == CoatMasking
}

// Settings holds the global coating defaults for one planning run. Instances
// are read-only snapshots; the planner never observes live mutation.
type Settings struct {
	CoatingHeight    float64           `json:"coatingHeight"`
	SafeHeight       float64           `json:"safeHeight"`
	CoatingSpeed     float64           `json:"coatingSpeed"`
	TravelSpeed      float64           `json:"travelSpeed"`
	CoatingWidth     float64           `json:"coatingWidth"`
	MaskingClearance float64           `json:"maskingClearance"`
	Avoidance        AvoidanceStrategy `json:"avoidanceStrategy"`
	MaskingEnabled   bool              `json:"maskingEnabled"`
}

// DefaultSettings returns the settings used when a document doesn't override
// them. Units are millimeters and millimeters per minute.
func DefaultSettings() Settings {
	return Settings{
		CoatingHeight:    2.0,
		SafeHeight:       10.0,
		CoatingSpeed:     900.0,
		TravelSpeed:      3000.0,
		CoatingWidth:     4.0,
		MaskingClearance: 1.0,
		Avoidance:        AvoidLift,
		MaskingEnabled:   true,
	}
}
