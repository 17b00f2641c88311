package frame

import (
	"image"
	imgcolor "image/color"
	"strings"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/TeamNorCal/xled/color"
)

// TextSegment is a run of text rendered with its own colors
type TextSegment struct {
	Text       string
	Foreground color.Color
	Background color.Color
}

// Text renders the segments next to each other into a single frame that is as
// tall as the font.  A nil face selects the built in 7x13 bitmap font.
func Text(face font.Face, segments ...TextSegment) (f *Frame) {
	if face == nil {
		face = basicfont.Face7x13
	}
	frames := make([]*Frame, 0, len(segments))
	for _, seg := range segments {
		frames = append(frames, renderText(face, seg))
	}
	return Join(color.Black, frames...)
}

func renderText(face font.Face, seg TextSegment) *Frame {
	metrics := face.Metrics()
	width := font.MeasureString(face, seg.Text).Ceil()
	height := metrics.Height.Ceil()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fg := seg.Foreground.ToRGB()
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(imgcolor.RGBA{R: uint8(fg.R()), G: uint8(fg.G()), B: uint8(fg.B()), A: 0xff}),
		Face: face,
		Dot:  fixed.P(0, metrics.Ascent.Ceil()),
	}
	drawer.DrawString(seg.Text)

	return FromImage(img, seg.Background)
}

// ScrollBanner produces a sequence that moves the banner in from the right edge of
// a target sized canvas, scrolls it across, and moves it out over the left edge.
// Every horizontal shift produces one frame.
func ScrollBanner(banner *Frame, targetWidth int, targetHeight int, frameDelay time.Duration) (seq *Sequence) {
	seq = NewSequence(frameDelay)
	h := min(banner.height, targetHeight)

	canvas := func(part *Frame, offsetX int) *Frame {
		c := New(targetWidth, targetHeight, color.Black)
		c.ReplaceSubFrame(part, offsetX, 0, color.Replace)
		return c
	}

	// move in
	for x := 0; x < targetWidth-1; x++ {
		seq.Append(canvas(banner.SubFrame(0, 0, x, h), targetWidth-1-x))
	}

	// scroll
	for x := 0; x < banner.width-targetWidth; x++ {
		seq.Append(canvas(banner.SubFrame(x, 0, targetWidth, h), 0))
	}

	// move out
	for x := targetWidth - 1; x >= 0; x-- {
		seq.Append(canvas(banner.SubFrame(banner.width-x, 0, x, h), 0))
	}
	return seq
}

// Rotation is applied to frames as they are shown, it describes how the panel
// is mounted
type Rotation int

const (
	RotateNone Rotation = iota
	RotateLeft
	RotateRight
	RotateFull
)

// Apply returns the frame turned according to the rotation, RotateNone returns the
// frame itself
func (r Rotation) Apply(f *Frame) *Frame {
	switch r {
	case RotateLeft:
		return f.RotateLeft()
	case RotateRight:
		return f.RotateRight()
	case RotateFull:
		return f.Rotate180()
	}
	return f
}

func (r Rotation) String() string {
	switch r {
	case RotateLeft:
		return "left"
	case RotateRight:
		return "right"
	case RotateFull:
		return "full"
	}
	return "none"
}

// ParseRotation accepts the names produced by String, an empty name is RotateNone
func ParseRotation(name string) (r Rotation, err errors.Error) {
	for _, rot := range []Rotation{RotateNone, RotateLeft, RotateRight, RotateFull} {
		if strings.EqualFold(rot.String(), name) {
			return rot, nil
		}
	}
	if len(name) == 0 {
		return RotateNone, nil
	}
	return RotateNone, errors.Wrap(ErrMalformedInput, "unknown rotation").With("rotation", name).With("stack", stack.Trace().TrimRuntime())
}
