// Package document persists coating projects as JSON and machine profiles as
// TOML. The document is the unit a host application saves, loads, and hands
// to the planning pipeline.
package document

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"coatpath/core"
)

// Document is one saved coating project.
type Document struct {
	Version  int                 `json:"version"`
	Name     string              `json:"name"`
	Settings core.Settings       `json:"settings"`
	Shapes   []core.CoatingShape `json:"shapes"`
	Groups   []core.PathGroup    `json:"pathGroups,omitempty"`
}

// CurrentVersion is written into new and re-saved documents.
const CurrentVersion = 1

// New returns an empty document with default settings.
func New(name string) *Document {
	return &Document{
		Version:  CurrentVersion,
		Name:     name,
		Settings: core.DefaultSettings(),
	}
}

// Load reads, parses, and validates a project file. Shapes without an ID are
// assigned one.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project: %w", err)
	}
	return Parse(data)
}

// Parse decodes a project from JSON. Settings fields absent from the file
// keep their defaults.
func Parse(data []byte) (*Document, error) {
	doc := Document{
		Version:  CurrentVersion,
		Settings: core.DefaultSettings(),
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing project: %w", err)
	}
	for i := range doc.Shapes {
		if doc.Shapes[i].ID == "" {
			doc.Shapes[i].ID = uuid.NewString()
		}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Save writes the document as indented JSON.
func (d *Document) Save(path string) error {
	d.Version = CurrentVersion
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding project: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing project: %w", err)
	}
	return nil
}

// Validate checks structural invariants: unique shape IDs, known kinds and
// coating types, and geometry appropriate to each kind.
func (d *Document) Validate() error {
	seen := make(map[string]bool, len(d.Shapes))
	for _, s := range d.Shapes {
		if s.ID == "" {
			return fmt.Errorf("shape %q: missing id", s.Name)
		}
		if seen[s.ID] {
			return fmt.Errorf("shape %s: duplicate id", s.ID)
		}
		seen[s.ID] = true

		switch s.Kind {
		case core.ShapeRectangle, core.ShapeImage:
			if s.Width <= 0 || s.Height <= 0 {
				return fmt.Errorf("shape %s: %s needs positive width and height", s.ID, s.Kind)
			}
		case core.ShapeCircle:
			if s.Radius <= 0 {
				return fmt.Errorf("shape %s: circle needs positive radius", s.ID)
			}
		default:
			return fmt.Errorf("shape %s: unknown kind %q", s.ID, s.Kind)
		}

		switch s.CoatingType {
		case core.CoatFill, core.CoatOutline, core.CoatMasking:
		default:
			return fmt.Errorf("shape %s: unknown coating type %q", s.ID, s.CoatingType)
		}

		switch s.Avoidance {
		case "", core.AvoidLift, core.AvoidContour:
		default:
			return fmt.Errorf("shape %s: unknown avoidance strategy %q", s.ID, s.Avoidance)
		}
	}
	return nil
}

// Masks returns the shapes acting as masking obstacles.
func (d *Document) Masks() []core.CoatingShape {
	var masks []core.CoatingShape
	for _, s := range d.Shapes {
		if s.IsMask() {
			masks = append(masks, s)
		}
	}
	return masks
}

// CoatedShapes returns the shapes that actually receive coating, in document
// order.
func (d *Document) CoatedShapes() []core.CoatingShape {
	var shapes []core.CoatingShape
	for _, s := range d.Shapes {
		if !s.IsMask() && !s.SkipCoating {
			shapes = append(shapes, s)
		}
	}
	return shapes
}
