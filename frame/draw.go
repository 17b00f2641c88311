package frame

import (
	"math"

	"github.com/TeamNorCal/xled/color"
)

// The drawing primitives silently clip anything outside of the frame

func (f *Frame) plot(x int, y int, c color.Color) {
	if f.inside(x, y) {
		f.put(x, y, c)
	}
}

// DrawLine uses Bresenham's algorithm, the shallow and steep cases are handled
// separately so that every step advances along the longer axis
func (f *Frame) DrawLine(x0 int, y0 int, x1 int, y1 int, c color.Color) {
	if abs(y1-y0) < abs(x1-x0) {
		if x0 > x1 {
			f.drawLineLow(x1, y1, x0, y0, c)
		} else {
			f.drawLineLow(x0, y0, x1, y1, c)
		}
		return
	}
	if y0 > y1 {
		f.drawLineHigh(x1, y1, x0, y0, c)
	} else {
		f.drawLineHigh(x0, y0, x1, y1, c)
	}
}

func (f *Frame) drawLineLow(x0 int, y0 int, x1 int, y1 int, c color.Color) {
	dx := x1 - x0
	dy := y1 - y0
	yi := 1
	if dy < 0 {
		yi = -1
		dy = -dy
	}
	d := 2*dy - dx
	y := y0
	for x := x0; x <= x1; x++ {
		f.plot(x, y, c)
		if d > 0 {
			y += yi
			d += 2 * (dy - dx)
		} else {
			d += 2 * dy
		}
	}
}

func (f *Frame) drawLineHigh(x0 int, y0 int, x1 int, y1 int, c color.Color) {
	dx := x1 - x0
	dy := y1 - y0
	xi := 1
	if dx < 0 {
		xi = -1
		dx = -dx
	}
	d := 2*dx - dy
	x := x0
	for y := y0; y <= y1; y++ {
		f.plot(x, y, c)
		if d > 0 {
			x += xi
			d += 2 * (dx - dy)
		} else {
			d += 2 * dx
		}
	}
}

// DrawRect outlines a rectangle with its top left corner at x, y
func (f *Frame) DrawRect(x int, y int, width int, height int, c color.Color) {
	if width <= 0 || height <= 0 {
		return
	}
	f.DrawLine(x, y, x+width-1, y, c)
	f.DrawLine(x, y+height-1, x+width-1, y+height-1, c)
	f.DrawLine(x, y, x, y+height-1, c)
	f.DrawLine(x+width-1, y, x+width-1, y+height-1, c)
}

func (f *Frame) FillRect(x int, y int, width int, height int, c color.Color) {
	for yy := max(0, y); yy < min(f.height, y+height); yy++ {
		for xx := max(0, x); xx < min(f.width, x+width); xx++ {
			f.put(xx, yy, c)
		}
	}
}

// DrawCircle plots the outline of a circle in one degree steps
func (f *Frame) DrawCircle(cx int, cy int, radius int, c color.Color) {
	for deg := 0; deg < 360; deg++ {
		rad := float64(deg) * math.Pi / 180.0
		x := int(math.Round(float64(cx) + float64(radius)*math.Cos(rad)))
		y := int(math.Round(float64(cy) + float64(radius)*math.Sin(rad)))
		f.plot(x, y, c)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
