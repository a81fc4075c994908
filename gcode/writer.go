// Package gcode renders planner instructions as textual G-code for a
// dispensing controller. The dialect differences between controller families
// live entirely in the Profile table.
package gcode

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"coatpath/core"
)

// Config carries everything the writer needs besides the output stream.
type Config struct {
	Profile  Profile
	Settings core.Settings
	JobName  string
}

// Writer is a buffered G-code emitter implementing core.Emitter. Write errors
// are sticky: the first one is remembered and every later call is a no-op, so
// callers only need to check Flush.
type Writer struct {
	bw  *bufio.Writer
	cfg Config

	pos       core.Point
	lastFeed  float64
	coatMoves int
	err       error
}

// NewWriter wraps w in a G-code emitter. Call Preamble before driving it and
// Postamble then Flush when done.
func NewWriter(w io.Writer, cfg Config) *Writer {
	return &Writer{bw: bufio.NewWriter(w), cfg: cfg}
}

// CurrentPosition returns the position after the last emitted move.
func (g *Writer) CurrentPosition() core.Point { return g.pos }

// CoatMoves returns the number of depositing moves written so far. A finished
// job with zero coat moves produced no useful output.
func (g *Writer) CoatMoves() int { return g.coatMoves }

// Err returns the first write error, if any.
func (g *Writer) Err() error { return g.err }

// Preamble writes the job header, the profile's startup codes, and an initial
// retract to the safe height.
func (g *Writer) Preamble() {
	p := g.cfg.Profile
	if g.cfg.JobName != "" {
		g.writef("%s %s\n", p.CommentPrefix, g.cfg.JobName)
	}
	g.writef("%s profile: %s\n", p.CommentPrefix, p.Name)
	g.writef("%s coating %s wide at %s/min\n", p.CommentPrefix,
		g.format(g.cfg.Settings.CoatingWidth), g.format(g.cfg.Settings.CoatingSpeed))
	for _, code := range p.StartCode {
		g.writef("%s\n", code)
	}
	g.writef("%s Z%s\n", p.RapidMove, g.format(g.cfg.Settings.SafeHeight))
}

// Postamble retracts to the safe height, returns to the XY origin, and writes
// the profile's end codes.
func (g *Writer) Postamble() {
	p := g.cfg.Profile
	g.writef("%s job complete\n", p.CommentPrefix)
	g.writef("%s Z%s\n", p.RapidMove, g.format(g.cfg.Settings.SafeHeight))
	g.writef("%s X%s Y%s\n", p.RapidMove, g.format(0), g.format(0))
	for _, code := range p.EndCode {
		g.writef("%s\n", code)
	}
}

// Flush drains the buffer and reports the first error encountered.
func (g *Writer) Flush() error {
	if err := g.bw.Flush(); g.err == nil {
		g.err = err
	}
	return g.err
}

// TravelTo emits a rapid XY move.
func (g *Writer) TravelTo(x, y float64) {
	g.writef("%s X%s Y%s\n", g.cfg.Profile.RapidMove, g.format(x), g.format(y))
	g.pos.X, g.pos.Y = x, y
}

// CoatTo emits a depositing feed move. The feed word is modal: it is only
// written when the rate changes.
func (g *Writer) CoatTo(x, y, speed float64) {
	if speed > 0 && speed != g.lastFeed {
		g.writef("%s X%s Y%s F%s\n", g.cfg.Profile.FeedMove, g.format(x), g.format(y), g.format(speed))
		g.lastFeed = speed
	} else {
		g.writef("%s X%s Y%s\n", g.cfg.Profile.FeedMove, g.format(x), g.format(y))
	}
	g.pos.X, g.pos.Y = x, y
	g.coatMoves++
}

// SetZ emits a rapid move to an absolute Z height.
func (g *Writer) SetZ(z float64) {
	g.writef("%s Z%s\n", g.cfg.Profile.RapidMove, g.format(z))
	g.pos.Z = z
}

// SetCoatingZ lowers to the coating height at a controlled feed rate so the
// nozzle does not slam into the surface.
func (g *Writer) SetCoatingZ(z float64) {
	speed := g.cfg.Settings.CoatingSpeed
	if speed > 0 && speed != g.lastFeed {
		g.writef("%s Z%s F%s\n", g.cfg.Profile.FeedMove, g.format(z), g.format(speed))
		g.lastFeed = speed
	} else {
		g.writef("%s Z%s\n", g.cfg.Profile.FeedMove, g.format(z))
	}
	g.pos.Z = z
}

// NozzleOn opens the dispense valve.
func (g *Writer) NozzleOn() {
	g.writef("%s\n", g.cfg.Profile.NozzleOn)
}

// NozzleOff closes the dispense valve.
func (g *Writer) NozzleOff() {
	g.writef("%s\n", g.cfg.Profile.NozzleOff)
}

// AddLine writes text as a comment line.
func (g *Writer) AddLine(text string) {
	g.writef("%s %s\n", g.cfg.Profile.CommentPrefix, text)
}

func (g *Writer) format(v float64) string {
	return strconv.FormatFloat(v, 'f', g.cfg.Profile.DecimalPlaces, 64)
}

func (g *Writer) writef(format string, args ...any) {
	if g.err != nil {
		return
	}
	_, g.err = fmt.Fprintf(g.bw, format, args...)
}

var _ core.Emitter = (*Writer)(nil)
