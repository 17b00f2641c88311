package frame

// This file contains the rectangular pixel grid that is painted by producers
// and serialized into the wire format understood by the LED panels

import (
	"image"
	imgcolor "image/color"
	"math"
	"strings"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/xled/color"
)

var (
	ErrOutOfBounds     = errors.New("coordinates out of bounds")
	ErrMalformedInput  = color.ErrMalformedInput
	ErrInvalidArgument = color.ErrInvalidArgument
)

// Frame is a width by height grid of colors stored row by row.  Frames
// are mutated in place and are not safe for concurrent mutation.
type Frame struct {
	width  int
	height int
	pixels []color.Color
}

// New creates a frame with every pixel set to the fill color, negative
// dimensions are treated as zero
func New(width int, height int, fill color.Color) (f *Frame) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	f = &Frame{
		width:  width,
		height: height,
		pixels: make([]color.Color, width*height),
	}
	f.Fill(fill)
	return f
}

func (f *Frame) Width() int  { return f.width }
func (f *Frame) Height() int { return f.height }

// Len is the number of pixels in the frame
func (f *Frame) Len() int { return len(f.pixels) }

func (f *Frame) inside(x int, y int) bool {
	return x >= 0 && y >= 0 && x < f.width && y < f.height
}

// at and put skip the bounds checks and are used by loops that have already
// clipped their coordinates
func (f *Frame) at(x int, y int) color.Color {
	return f.pixels[f.width*y+x]
}

func (f *Frame) put(x int, y int, c color.Color) {
	f.pixels[f.width*y+x] = c
}

func (f *Frame) outOfBounds(x int, y int) errors.Error {
	return errors.Wrap(ErrOutOfBounds).With("x", x).With("y", y).
		With("width", f.width).With("height", f.height).
		With("stack", stack.Trace().TrimRuntime())
}

// Get returns the color at the given coordinates
func (f *Frame) Get(x int, y int) (c color.Color, err errors.Error) {
	if !f.inside(x, y) {
		return color.Black, f.outOfBounds(x, y)
	}
	return f.at(x, y), nil
}

// Set changes the color at the given coordinates, nothing is written when
// the coordinates are outside the frame
func (f *Frame) Set(x int, y int, c color.Color) (err errors.Error) {
	if !f.inside(x, y) {
		return f.outOfBounds(x, y)
	}
	f.put(x, y, c)
	return nil
}

// Fill sets every pixel to the same color
func (f *Frame) Fill(c color.Color) {
	for i := range f.pixels {
		f.pixels[i] = c
	}
}

// Clone produces a fully independent copy of the frame
func (f *Frame) Clone() (cpy *Frame) {
	cpy = &Frame{
		width:  f.width,
		height: f.height,
		pixels: make([]color.Color, len(f.pixels)),
	}
	copy(cpy.pixels, f.pixels)
	return cpy
}

// Equal is true when both frames have the same dimensions and pixels that
// compare as equal colors
func (f *Frame) Equal(other *Frame) bool {
	if other == nil || f.width != other.width || f.height != other.height {
		return false
	}
	for i, c := range f.pixels {
		if !c.Equal(other.pixels[i]) {
			return false
		}
	}
	return true
}

// SubFrame copies a rectangle out of the frame, parts of the rectangle that
// lie outside this frame are black
func (f *Frame) SubFrame(offsetX int, offsetY int, width int, height int) (sub *Frame) {
	sub = New(width, height, color.Black)
	for y := 0; y < sub.height; y++ {
		for x := 0; x < sub.width; x++ {
			if f.inside(offsetX+x, offsetY+y) {
				sub.put(x, y, f.at(offsetX+x, offsetY+y))
			}
		}
	}
	return sub
}

// ReplaceSubFrame writes sub into this frame with its top left corner at the given
// offset, blending each pixel with the existing one.  The parts of sub that
// fall outside of this frame are clipped.
func (f *Frame) ReplaceSubFrame(sub *Frame, offsetX int, offsetY int, mode color.BlendMode) (err errors.Error) {
	startY, endY := max(0, -offsetY), min(sub.height, f.height-offsetY)
	startX, endX := max(0, -offsetX), min(sub.width, f.width-offsetX)

	for y := startY; y < endY; y++ {
		for x := startX; x < endX; x++ {
			if mode == color.Replace {
				f.put(offsetX+x, offsetY+y, sub.at(x, y))
				continue
			}
			faded, err := f.at(offsetX+x, offsetY+y).Fade(sub.at(x, y), 1.0, mode)
			if err != nil {
				return err.With("x", offsetX+x).With("y", offsetY+y)
			}
			f.put(offsetX+x, offsetY+y, faded)
		}
	}
	return nil
}

// Fade blends every pixel toward the matching pixel of another frame of the
// same size and returns the result as a new frame
func (f *Frame) Fade(other *Frame, factor float64, mode color.BlendMode) (faded *Frame, err errors.Error) {
	if other == nil || f.width != other.width || f.height != other.height {
		err = errors.Wrap(ErrInvalidArgument, "frames differ in size").With("width", f.width).With("height", f.height).With("stack", stack.Trace().TrimRuntime())
		if other != nil {
			err = err.With("other_width", other.width).With("other_height", other.height)
		}
		return nil, err
	}
	faded = &Frame{
		width:  f.width,
		height: f.height,
		pixels: make([]color.Color, len(f.pixels)),
	}
	for i, c := range f.pixels {
		if faded.pixels[i], err = c.Fade(other.pixels[i], factor, mode); err != nil {
			return nil, err
		}
	}
	return faded, nil
}

// FadePixel is used by the transitions to blend a single pixel from a target
// frame into this frame
func (f *Frame) FadePixel(x int, y int, target *Frame, factor float64, mode color.BlendMode) (err errors.Error) {
	if !f.inside(x, y) {
		return f.outOfBounds(x, y)
	}
	if !target.inside(x, y) {
		return target.outOfBounds(x, y)
	}
	faded, err := f.at(x, y).Fade(target.at(x, y), factor, mode)
	if err != nil {
		return err
	}
	f.put(x, y, faded)
	return nil
}

// ToBytes serializes the frame into the device wire format.  The devices
// expect the pixels column by column.  With 4 bytes per LED each pixel is
// sent as white, red, green, blue, otherwise as red, green, blue.
func (f *Frame) ToBytes(bytesPerLed int) (buf []byte) {
	if bytesPerLed != 4 {
		bytesPerLed = 3
	}
	buf = make([]byte, 0, len(f.pixels)*bytesPerLed)
	for x := 0; x < f.width; x++ {
		for y := 0; y < f.height; y++ {
			c := f.at(x, y)
			if bytesPerLed == 4 {
				rgbw := c.To(color.RGBW)
				buf = append(buf, byte(rgbw.W()), byte(rgbw.R()), byte(rgbw.G()), byte(rgbw.B()))
				continue
			}
			rgb := c.ToRGB()
			buf = append(buf, byte(rgb.R()), byte(rgb.G()), byte(rgb.B()))
		}
	}
	return buf
}

// FromImage converts any image into a frame of RGB pixels, translucent pixels
// are composed over the background color
func FromImage(img image.Image, background color.Color) (f *Frame) {
	bounds := img.Bounds()
	bg := background.ToRGB()
	f = New(bounds.Dx(), bounds.Dy(), bg)
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			c := imgcolor.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(imgcolor.NRGBA)
			alpha := float64(c.A) / 255.0
			f.put(x, y, color.NewRGB(
				over(int(c.R), bg.R(), alpha),
				over(int(c.G), bg.G(), alpha),
				over(int(c.B), bg.B(), alpha)))
		}
	}
	return f
}

func over(fg int, bg int, alpha float64) int {
	return int(math.Floor(float64(fg)*alpha + float64(bg)*(1-alpha) + 0.5))
}

// Image renders the frame as an opaque RGBA image
func (f *Frame) Image() (img *image.RGBA) {
	img = image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			rgb := f.at(x, y).ToRGB()
			img.SetRGBA(x, y, imgcolor.RGBA{R: uint8(rgb.R()), G: uint8(rgb.G()), B: uint8(rgb.B()), A: 0xff})
		}
	}
	return img
}

// String renders the frame for a true color terminal, two cells per pixel
// so that the pixels look roughly square
func (f *Frame) String() string {
	rows := make([]string, 0, f.height)
	for y := 0; y < f.height; y++ {
		row := strings.Builder{}
		for x := 0; x < f.width; x++ {
			cell := f.at(x, y).ANSI()
			row.WriteString(cell)
			row.WriteString(cell)
		}
		rows = append(rows, row.String())
	}
	return strings.Join(rows, "\n")
}
