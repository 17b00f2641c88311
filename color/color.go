package color

// This file contains the closed set of color variants that can be painted
// into frames and sent to the LED devices.  Every variant carries the
// base red, green, and blue channels, some variants carry additional
// white and amber channels, HSV carries its own components

import (
	"fmt"
	"math"
	"strconv"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"
)

// Kind identifies the variant held by a Color
type Kind int

const (
	RGB Kind = iota
	RGBW
	RGBA
	RGBWA
	HSV
)

func (k Kind) String() string {
	switch k {
	case RGB:
		return "RGB"
	case RGBW:
		return "RGBW"
	case RGBA:
		return "RGBA"
	case RGBWA:
		return "RGBWA"
	case HSV:
		return "HSV"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// AmberFactor is the share of green light in an amber LED relative to its red light
const AmberFactor = 191.0 / 255.0

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrMalformedInput  = errors.New("malformed input")
)

// Color is a tagged union over the supported color variants.  The zero
// value is RGB black.
type Color struct {
	kind Kind

	r, g, b int
	w, a    int

	// HSV only, h in degrees [0,360), s and v in percent [0,100]
	h, s, v float64
}

func clamp(c int) int {
	if c < 0 {
		return 0
	}
	if c > 255 {
		return 255
	}
	return c
}

// round is half-up, 127.5 becomes 128
func round(x float64) int {
	return int(math.Floor(x + 0.5))
}

func NewRGB(r, g, b int) Color {
	return Color{kind: RGB, r: clamp(r), g: clamp(g), b: clamp(b)}
}

func NewRGBW(r, g, b, w int) Color {
	return Color{kind: RGBW, r: clamp(r), g: clamp(g), b: clamp(b), w: clamp(w)}
}

func NewRGBA(r, g, b, a int) Color {
	return Color{kind: RGBA, r: clamp(r), g: clamp(g), b: clamp(b), a: clamp(a)}
}

func NewRGBWA(r, g, b, w, a int) Color {
	return Color{kind: RGBWA, r: clamp(r), g: clamp(g), b: clamp(b), w: clamp(w), a: clamp(a)}
}

// NewHSV builds an HSV color, the hue is wrapped into [0,360) and saturation
// and value are limited to [0,100]
func NewHSV(h, s, v float64) Color {
	if math.IsNaN(h) {
		h = 0
	}
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return Color{kind: HSV, h: h, s: math.Max(0, math.Min(100, s)), v: math.Max(0, math.Min(100, v))}
}

var (
	Black = NewRGB(0, 0, 0)
	White = NewRGB(255, 255, 255)
)

func (c Color) Kind() Kind { return c.kind }

// R, G and B return the base channels, for HSV these are derived
func (c Color) R() int { return c.base().r }
func (c Color) G() int { return c.base().g }
func (c Color) B() int { return c.base().b }

// W is the white channel of RGBW and RGBWA colors, zero otherwise
func (c Color) W() int { return c.w }

// A is the amber channel of RGBA and RGBWA colors, zero otherwise
func (c Color) A() int { return c.a }

func (c Color) H() float64 { return c.h }
func (c Color) S() float64 { return c.s }
func (c Color) V() float64 { return c.v }

func (c Color) base() Color {
	if c.kind == HSV {
		return c.ToRGB()
	}
	return c
}

// Clone returns a copy, colors are values so this is mostly for readability
// at call sites that mutate the result
func (c Color) Clone() Color {
	return c
}

// Equal compares the base red, green, and blue channels only, white and amber
// are ignored
func (c Color) Equal(other Color) bool {
	cb, ob := c.base(), other.base()
	return cb.r == ob.r && cb.g == ob.g && cb.b == ob.b
}

// IsBlack is true when none of the channels emit light
func (c Color) IsBlack() bool {
	rgb := c.ToRGB()
	return rgb.r == 0 && rgb.g == 0 && rgb.b == 0
}

// Value packs the channels into an integer, one byte per channel in the
// order r, g, b followed by white and amber when present
func (c Color) Value() int64 {
	switch c.kind {
	case RGB:
		return int64(c.r)<<16 | int64(c.g)<<8 | int64(c.b)
	case RGBW:
		return int64(c.r)<<24 | int64(c.g)<<16 | int64(c.b)<<8 | int64(c.w)
	case RGBA:
		return int64(c.r)<<24 | int64(c.g)<<16 | int64(c.b)<<8 | int64(c.a)
	case RGBWA:
		return int64(c.r)<<32 | int64(c.g)<<24 | int64(c.b)<<16 | int64(c.w)<<8 | int64(c.a)
	case HSV:
		return c.ToRGB().Value()
	}
	return 0
}

func (c Color) hexWidth() int {
	switch c.kind {
	case RGBW, RGBA:
		return 8
	case RGBWA:
		return 10
	}
	return 6
}

// Hex is the zero padded lower case hex form of Value
func (c Color) Hex() string {
	if c.kind == HSV {
		return c.ToRGB().Hex()
	}
	return fmt.Sprintf("%0*x", c.hexWidth(), c.Value())
}

// Web is Hex prefixed with a '#'
func (c Color) Web() string {
	return "#" + c.Hex()
}

// ANSI renders a single terminal cell with the color as a true color background
func (c Color) ANSI() string {
	rgb := c.ToRGB()
	return fmt.Sprintf("\x1b[39m\x1b[48;2;%d;%d;%dm \x1b[0m", rgb.r, rgb.g, rgb.b)
}

func (c Color) String() string {
	switch c.kind {
	case RGBW:
		return fmt.Sprintf("RGBW(%d, %d, %d, %d)", c.r, c.g, c.b, c.w)
	case RGBA:
		return fmt.Sprintf("RGBA(%d, %d, %d, %d)", c.r, c.g, c.b, c.a)
	case RGBWA:
		return fmt.Sprintf("RGBWA(%d, %d, %d, %d, %d)", c.r, c.g, c.b, c.w, c.a)
	case HSV:
		return fmt.Sprintf("HSV(%.1f, %.1f, %.1f)", c.h, c.s, c.v)
	}
	return fmt.Sprintf("RGB(%d, %d, %d)", c.r, c.g, c.b)
}

func mismatch(op string, c Color, other Color) errors.Error {
	return errors.Wrap(ErrInvalidArgument, "cannot "+op+" colors of different kinds").
		With("kind", c.kind.String()).With("other", other.kind.String()).
		With("stack", stack.Trace().TrimRuntime())
}
