package core

// Emitter is the stateful instruction sink the planner drives. Implementations
// track the current tool position; every motion call updates it.
type Emitter interface {
	// CurrentPosition returns the tool position after the last emitted move.
	CurrentPosition() Point

	// TravelTo emits a non-depositing rapid move to (x, y).
	TravelTo(x, y float64)

	// CoatTo emits a depositing move to (x, y) at the given feed rate.
	CoatTo(x, y, speed float64)

	// SetZ moves the nozzle to an absolute Z height (safe travel height).
	SetZ(z float64)

	// SetCoatingZ moves the nozzle to the absolute coating height.
	SetCoatingZ(z float64)

	// NozzleOn opens the dispense valve.
	NozzleOn()

	// NozzleOff closes the dispense valve.
	NozzleOff()

	// AddLine emits a free-form annotation line (shape markers, diagnostics).
	AddLine(text string)
}

// ProgressFunc receives planning progress at zone granularity.
// percent is in [0,100]; message is human-readable.
type ProgressFunc func(percent float64, message string)
