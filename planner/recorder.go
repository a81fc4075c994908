package planner

import "coatpath/core"

// OpKind identifies one recorded emitter instruction.
type OpKind int

const (
	OpTravel OpKind = iota
	OpCoat
	OpSetZ
	OpSetCoatingZ
	OpNozzleOn
	OpNozzleOff
	OpLine
)

// String returns the string representation of an OpKind.
func (k OpKind) String() string {
	switch k {
	case OpTravel:
		return "Travel"
	case OpCoat:
		return "Coat"
	case OpSetZ:
		return "SetZ"
	case OpSetCoatingZ:
		return "SetCoatingZ"
	case OpNozzleOn:
		return "NozzleOn"
	case OpNozzleOff:
		return "NozzleOff"
	case OpLine:
		return "Line"
	default:
		return "Unknown"
	}
}

// Op is one recorded instruction.
type Op struct {
	Kind  OpKind
	X, Y  float64
	Z     float64
	Speed float64
	Text  string
}

// Recorder is an Emitter that captures the instruction stream instead of
// producing output. It is used by tests, post-hoc validation, terminal
// preview, and for deferred replay into a real emitter.
type Recorder struct {
	ops []Op
	pos core.Point
}

// NewRecorder creates a recorder with the tool at the origin.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// NewRecorderAt creates a recorder with the tool at a known position.
func NewRecorderAt(p core.Point) *Recorder {
	return &Recorder{pos: p}
}

// CurrentPosition returns the position after the last recorded move.
func (r *Recorder) CurrentPosition() core.Point { return r.pos }

// TravelTo records a rapid move.
func (r *Recorder) TravelTo(x, y float64) {
	r.ops = append(r.ops, Op{Kind: OpTravel, X: x, Y: y})
	r.pos.X, r.pos.Y = x, y
}

// CoatTo records a depositing move.
func (r *Recorder) CoatTo(x, y, speed float64) {
	r.ops = append(r.ops, Op{Kind: OpCoat, X: x, Y: y, Speed: speed})
	r.pos.X, r.pos.Y = x, y
}

// SetZ records an absolute Z move to the safe travel height.
func (r *Recorder) SetZ(z float64) {
	r.ops = append(r.ops, Op{Kind: OpSetZ, Z: z})
	r.pos.Z = z
}

// SetCoatingZ records an absolute Z move to the coating height.
func (r *Recorder) SetCoatingZ(z float64) {
	r.ops = append(r.ops, Op{Kind: OpSetCoatingZ, Z: z})
	r.pos.Z = z
}

// NozzleOn records opening the dispense valve.
func (r *Recorder) NozzleOn() {
	r.ops = append(r.ops, Op{Kind: OpNozzleOn})
}

// NozzleOff records closing the dispense valve.
func (r *Recorder) NozzleOff() {
	r.ops = append(r.ops, Op{Kind: OpNozzleOff})
}

// AddLine records an annotation line.
func (r *Recorder) AddLine(text string) {
	r.ops = append(r.ops, Op{Kind: OpLine, Text: text})
}

// Ops returns the recorded instruction stream.
func (r *Recorder) Ops() []Op { return r.ops }

// CoatCount returns the number of recorded coating moves. A zero count after
// a full run is how hosts detect empty output.
func (r *Recorder) CoatCount() int {
	n := 0
	for _, op := range r.ops {
		if op.Kind == OpCoat {
			n++
		}
	}
	return n
}

// TravelDistance returns the total length of recorded travel moves, starting
// from the origin. Useful for comparing route quality.
func (r *Recorder) TravelDistance() float64 {
	total := 0.0
	var cur core.Point
	for _, op := range r.ops {
		switch op.Kind {
		case OpTravel:
			total += cur.DistanceTo(core.Point{X: op.X, Y: op.Y})
			cur.X, cur.Y = op.X, op.Y
		case OpCoat:
			cur.X, cur.Y = op.X, op.Y
		}
	}
	return total
}

// Replay feeds the recorded stream into another emitter in order.
func (r *Recorder) Replay(e core.Emitter) {
	for _, op := range r.ops {
		switch op.Kind {
		case OpTravel:
			e.TravelTo(op.X, op.Y)
		case OpCoat:
			e.CoatTo(op.X, op.Y, op.Speed)
		case OpSetZ:
			e.SetZ(op.Z)
		case OpSetCoatingZ:
			e.SetCoatingZ(op.Z)
		case OpNozzleOn:
			e.NozzleOn()
		case OpNozzleOff:
			e.NozzleOff()
		case OpLine:
			e.AddLine(op.Text)
		}
	}
}
