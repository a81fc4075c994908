package validation

import (
	"context"
	"strings"
	"testing"

	"coatpath/core"
	"coatpath/masking"
	"coatpath/planner"
)

func bareSettings() core.Settings {
	s := core.DefaultSettings()
	s.MaskingClearance = 0
	s.CoatingWidth = 0
	return s
}

// record drives a recorder through the given script and returns the stream.
func record(script func(e core.Emitter)) []planner.Op {
	rec := planner.NewRecorder()
	script(rec)
	return rec.Ops()
}

func hasIssue(issues []Issue, substr string) bool {
	for _, is := range issues {
		if strings.Contains(is.Message, substr) {
			return true
		}
	}
	return false
}

func TestValidatePlannerOutputIsClean(t *testing.T) {
	settings := bareSettings()
	maskShapes := []core.CoatingShape{
		{ID: "m1", Kind: core.ShapeRectangle, CoatingType: core.CoatMasking, X: 40, Y: -5, Width: 10, Height: 10},
	}
	engine := masking.NewEngine(settings, maskShapes)

	shape := core.CoatingShape{ID: "s1", Kind: core.ShapeRectangle, CoatingType: core.CoatFill, Width: 100, Height: 100}
	raw := []core.PathSegment{
		{Start: core.Point{X: 0, Y: 20}, End: core.Point{X: 100, Y: 20}, Kind: core.Coat},
		{Start: core.Point{X: 100, Y: 24}, End: core.Point{X: 0, Y: 24}, Kind: core.Coat},
	}

	rec := planner.NewRecorder()
	p := planner.New(settings, engine, rec)
	if err := p.PlanShape(context.Background(), shape, raw); err != nil {
		t.Fatalf("PlanShape: %v", err)
	}

	issues := NewStreamValidator(engine).ValidateAgainstSegments(rec.Ops(), raw)
	if len(issues) != 0 {
		t.Errorf("planner output flagged: %v", issues)
	}
}

func TestValidateNozzleDiscipline(t *testing.T) {
	tests := []struct {
		name    string
		script  func(e core.Emitter)
		wantMsg string
	}{
		{
			name: "coat with nozzle off",
			script: func(e core.Emitter) {
				e.SetCoatingZ(2)
				e.CoatTo(10, 0, 900)
			},
			wantMsg: "nozzle off",
		},
		{
			name: "travel with nozzle on",
			script: func(e core.Emitter) {
				e.SetCoatingZ(2)
				e.NozzleOn()
				e.TravelTo(10, 0)
				e.NozzleOff()
			},
			wantMsg: "travel move with nozzle on",
		},
		{
			name: "nozzle left on",
			script: func(e core.Emitter) {
				e.SetCoatingZ(2)
				e.NozzleOn()
				e.CoatTo(10, 0, 900)
			},
			wantMsg: "left on at end",
		},
		{
			name: "double on",
			script: func(e core.Emitter) {
				e.SetCoatingZ(2)
				e.NozzleOn()
				e.NozzleOn()
				e.CoatTo(10, 0, 900)
				e.NozzleOff()
			},
			wantMsg: "already on",
		},
		{
			name: "double off",
			script: func(e core.Emitter) {
				e.SetCoatingZ(2)
				e.NozzleOn()
				e.CoatTo(10, 0, 900)
				e.NozzleOff()
				e.NozzleOff()
			},
			wantMsg: "already off",
		},
	}

	v := NewStreamValidator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := v.Validate(record(tt.script))
			if !hasIssue(issues, tt.wantMsg) {
				t.Errorf("want issue containing %q, got %v", tt.wantMsg, issues)
			}
		})
	}
}

func TestValidateHeightDiscipline(t *testing.T) {
	ops := record(func(e core.Emitter) {
		e.SetZ(10)
		e.NozzleOn()
		e.CoatTo(10, 0, 900)
		e.NozzleOff()
	})

	issues := NewStreamValidator(nil).Validate(ops)
	if !hasIssue(issues, "before reaching coating height") {
		t.Errorf("coat at travel height not flagged: %v", issues)
	}
}

func TestValidateMaskCrossings(t *testing.T) {
	settings := bareSettings()
	engine := masking.NewEngine(settings, []core.CoatingShape{
		{ID: "keepout", Kind: core.ShapeRectangle, CoatingType: core.CoatMasking, X: 4, Y: -2, Width: 2, Height: 4},
	})
	v := NewStreamValidator(engine)

	coatAcross := record(func(e core.Emitter) {
		e.SetCoatingZ(2)
		e.NozzleOn()
		e.CoatTo(10, 0, 900)
		e.NozzleOff()
	})
	issues := v.Validate(coatAcross)
	if !hasIssue(issues, "crosses mask keepout") {
		t.Errorf("coat across mask not flagged: %v", issues)
	}

	travelAcross := record(func(e core.Emitter) {
		e.SetCoatingZ(2)
		e.TravelTo(10, 0)
	})
	issues = v.Validate(travelAcross)
	if !hasIssue(issues, "travel move crosses mask at coating height") {
		t.Errorf("low travel across mask not flagged: %v", issues)
	}

	// The same travel at safe height is fine.
	lifted := record(func(e core.Emitter) {
		e.SetZ(10)
		e.TravelTo(10, 0)
	})
	if issues := v.Validate(lifted); len(issues) != 0 {
		t.Errorf("lifted travel flagged: %v", issues)
	}
}

func TestValidateAgainstSegments(t *testing.T) {
	segs := []core.PathSegment{
		{Start: core.Point{X: 0, Y: 0}, End: core.Point{X: 10, Y: 0}, Kind: core.Coat},
	}
	ops := record(func(e core.Emitter) {
		e.SetCoatingZ(2)
		e.NozzleOn()
		e.CoatTo(10, 5, 900)
		e.NozzleOff()
	})

	issues := NewStreamValidator(nil).ValidateAgainstSegments(ops, segs)
	if !hasIssue(issues, "matches no input segment") {
		t.Errorf("off-path coat not flagged: %v", issues)
	}
}
