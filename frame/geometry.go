package frame

import (
	"github.com/TeamNorCal/xled/color"
)

// The expand functions return a new, larger frame with this frame copied into it,
// the new cells are set to the fill color

func (f *Frame) grown(left int, right int, top int, bottom int, fill color.Color) (g *Frame) {
	g = New(f.width+max(0, left)+max(0, right), f.height+max(0, top)+max(0, bottom), fill)
	g.ReplaceSubFrame(f, max(0, left), max(0, top), color.Replace)
	return g
}

func (f *Frame) ExpandRight(n int, fill color.Color) *Frame {
	return f.grown(0, n, 0, 0, fill)
}

func (f *Frame) ExpandLeft(n int, fill color.Color) *Frame {
	return f.grown(n, 0, 0, 0, fill)
}

func (f *Frame) ExpandTop(n int, fill color.Color) *Frame {
	return f.grown(0, 0, n, 0, fill)
}

func (f *Frame) ExpandBottom(n int, fill color.Color) *Frame {
	return f.grown(0, 0, 0, n, fill)
}

// ExpandRightFrame appends other to the right of this frame, the height grows to
// fit other when it is the taller of the two
func (f *Frame) ExpandRightFrame(other *Frame, fill color.Color) (g *Frame) {
	g = f.grown(0, other.width, 0, max(0, other.height-f.height), fill)
	g.ReplaceSubFrame(other, g.width-other.width, 0, color.Replace)
	return g
}

// ExpandLeftFrame places other to the left of this frame
func (f *Frame) ExpandLeftFrame(other *Frame, fill color.Color) (g *Frame) {
	g = f.grown(other.width, 0, 0, max(0, other.height-f.height), fill)
	g.ReplaceSubFrame(other, 0, 0, color.Replace)
	return g
}

// ExpandTopFrame places other above this frame, the width grows to fit other
func (f *Frame) ExpandTopFrame(other *Frame, fill color.Color) (g *Frame) {
	g = f.grown(0, max(0, other.width-f.width), other.height, 0, fill)
	g.ReplaceSubFrame(other, 0, 0, color.Replace)
	return g
}

// ExpandBottomFrame places other below this frame
func (f *Frame) ExpandBottomFrame(other *Frame, fill color.Color) (g *Frame) {
	g = f.grown(0, max(0, other.width-f.width), 0, other.height, fill)
	g.ReplaceSubFrame(other, 0, g.height-other.height, color.Replace)
	return g
}

// RotateRight turns the frame clockwise by 90 degrees
func (f *Frame) RotateRight() (r *Frame) {
	r = New(f.height, f.width, color.Black)
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			r.put(f.height-1-y, x, f.at(x, y))
		}
	}
	return r
}

// RotateLeft turns the frame counter clockwise by 90 degrees
func (f *Frame) RotateLeft() (r *Frame) {
	r = New(f.height, f.width, color.Black)
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			r.put(y, f.width-1-x, f.at(x, y))
		}
	}
	return r
}

func (f *Frame) Rotate180() (r *Frame) {
	r = New(f.width, f.height, color.Black)
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			r.put(f.width-1-x, f.height-1-y, f.at(x, y))
		}
	}
	return r
}

// Join concatenates frames from left to right, the result is as tall as the
// tallest frame
func Join(fill color.Color, frames ...*Frame) (joined *Frame) {
	if len(frames) == 0 {
		return New(0, 0, fill)
	}
	joined = frames[0].Clone()
	for _, f := range frames[1:] {
		joined = joined.ExpandRightFrame(f, fill)
	}
	return joined
}
