// Package preview renders a recorded toolpath in the terminal so the
// operator can sanity-check a plan before any G-code reaches the machine.
// Masks appear as shaded regions, travel moves as faint dotted lines, and
// coat moves as solid strokes.
package preview

import (
	"math"
	"strconv"

	"github.com/gdamore/tcell/v2"

	"coatpath/core"
	"coatpath/planner"
)

var (
	styleMask   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleTravel = tcell.StyleDefault.Foreground(tcell.ColorDarkCyan)
	styleCoat   = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleStatus = tcell.StyleDefault.Foreground(tcell.ColorYellow)
)

// Viewer draws one instruction stream onto a tcell screen.
type Viewer struct {
	screen tcell.Screen
	ops    []planner.Op
	masks  []core.CoatingShape
	title  string
}

// NewViewer wraps an initialized screen. Callers own the screen lifecycle;
// tests pass a simulation screen.
func NewViewer(screen tcell.Screen, title string, ops []planner.Op, masks []core.CoatingShape) *Viewer {
	return &Viewer{screen: screen, ops: ops, masks: masks, title: title}
}

// Show opens a terminal screen, displays the toolpath, and blocks until the
// user quits with q, Escape, or Ctrl-C.
func Show(title string, ops []planner.Op, masks []core.CoatingShape) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	v := NewViewer(screen, title, ops, masks)
	return v.Run()
}

// Run draws and services events until the user quits.
func (v *Viewer) Run() error {
	for {
		v.Draw()
		switch ev := v.screen.PollEvent().(type) {
		case *tcell.EventResize:
			v.screen.Sync()
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
				return nil
			}
			if ev.Rune() == 'q' || ev.Rune() == 'Q' {
				return nil
			}
		case nil:
			return nil
		}
	}
}

// Draw renders one frame.
func (v *Viewer) Draw() {
	v.screen.Clear()

	w, h := v.screen.Size()
	plot := plotArea{width: w, height: h - 1} // last row is the status line
	plot.fit(v.bounds())

	for _, m := range v.masks {
		v.drawMask(plot, m)
	}

	var pos core.Point
	havePos := false
	for _, op := range v.ops {
		switch op.Kind {
		case planner.OpTravel:
			target := core.Point{X: op.X, Y: op.Y}
			if havePos {
				v.drawLine(plot, pos, target, '·', styleTravel)
			}
			pos, havePos = target, true
		case planner.OpCoat:
			target := core.Point{X: op.X, Y: op.Y}
			if havePos {
				v.drawLine(plot, pos, target, '█', styleCoat)
			}
			pos, havePos = target, true
		}
	}

	v.drawStatus(w, h)
	v.screen.Show()
}

func (v *Viewer) drawStatus(w, h int) {
	coats := 0
	for _, op := range v.ops {
		if op.Kind == planner.OpCoat {
			coats++
		}
	}
	status := v.title
	if status != "" {
		status += "  "
	}
	status += "coat moves: " + strconv.Itoa(coats) + "  masks: " + strconv.Itoa(len(v.masks)) + "  q to quit"
	for i, r := range status {
		if i >= w {
			break
		}
		v.screen.SetContent(i, h-1, r, nil, styleStatus)
	}
}

// bounds returns the work-surface extent covered by the toolpath and masks.
func (v *Viewer) bounds() (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	grow := func(x, y float64) {
		minX, minY = math.Min(minX, x), math.Min(minY, y)
		maxX, maxY = math.Max(maxX, x), math.Max(maxY, y)
	}
	for _, op := range v.ops {
		if op.Kind == planner.OpTravel || op.Kind == planner.OpCoat {
			grow(op.X, op.Y)
		}
	}
	for _, m := range v.masks {
		if m.Kind == core.ShapeCircle {
			grow(m.X-m.Radius, m.Y-m.Radius)
			grow(m.X+m.Radius, m.Y+m.Radius)
		} else {
			grow(m.X, m.Y)
			grow(m.X+m.Width, m.Y+m.Height)
		}
	}
	if math.IsInf(minX, 1) {
		return 0, 0, 1, 1
	}
	if maxX == minX {
		maxX = minX + 1
	}
	if maxY == minY {
		maxY = minY + 1
	}
	return minX, minY, maxX, maxY
}

func (v *Viewer) drawMask(plot plotArea, m core.CoatingShape) {
	if m.Kind == core.ShapeCircle {
		for y := m.Y - m.Radius; y <= m.Y+m.Radius; y += plot.stepY() {
			for x := m.X - m.Radius; x <= m.X+m.Radius; x += plot.stepX() {
				dx, dy := x-m.X, y-m.Y
				if dx*dx+dy*dy <= m.Radius*m.Radius {
					cx, cy := plot.cell(x, y)
					v.screen.SetContent(cx, cy, '░', nil, styleMask)
				}
			}
		}
		return
	}
	for y := m.Y; y <= m.Y+m.Height; y += plot.stepY() {
		for x := m.X; x <= m.X+m.Width; x += plot.stepX() {
			cx, cy := plot.cell(x, y)
			v.screen.SetContent(cx, cy, '░', nil, styleMask)
		}
	}
}

// drawLine rasterizes a straight stroke between two work-surface points.
func (v *Viewer) drawLine(plot plotArea, a, b core.Point, glyph rune, style tcell.Style) {
	x0, y0 := plot.cell(a.X, a.Y)
	x1, y1 := plot.cell(b.X, b.Y)

	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		v.screen.SetContent(x0, y0, glyph, nil, style)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// plotArea maps work-surface coordinates onto screen cells, preserving aspect
// ratio and flipping Y so the surface origin sits at the bottom left.
type plotArea struct {
	width, height int

	minX, minY float64
	scale      float64
}

func (p *plotArea) fit(minX, minY, maxX, maxY float64) {
	p.minX, p.minY = minX, minY
	if p.width < 2 || p.height < 2 {
		p.scale = 1
		return
	}
	// Terminal cells are roughly twice as tall as wide.
	sx := float64(p.width-1) / (maxX - minX)
	sy := float64(p.height-1) * 2 / (maxY - minY)
	p.scale = math.Min(sx, sy)
}

func (p plotArea) cell(x, y float64) (int, int) {
	cx := int(math.Round((x - p.minX) * p.scale))
	cy := p.height - 1 - int(math.Round((y-p.minY)*p.scale/2))
	return cx, cy
}

// stepX returns a sampling step fine enough that mask fills leave no gaps.
func (p plotArea) stepX() float64 {
	if p.scale <= 0 {
		return 1
	}
	return 0.5 / p.scale
}

func (p plotArea) stepY() float64 {
	if p.scale <= 0 {
		return 1
	}
	return 1 / p.scale
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
