package color

import (
	"math"
	"strings"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"
)

// BlendMode selects how a color is combined with another during a fade
type BlendMode int

const (
	// Replace discards the original color
	Replace BlendMode = iota
	// Average moves linearly toward the other color
	Average
	// Add adds a share of the other color
	Add
	// Subtract removes a share of the other color
	Subtract
)

var blendModes = []BlendMode{Replace, Average, Add, Subtract}

// BlendModes lists every supported blend mode
func BlendModes() []BlendMode {
	return append([]BlendMode{}, blendModes...)
}

func (m BlendMode) String() string {
	switch m {
	case Replace:
		return "REPLACE"
	case Average:
		return "AVERAGE"
	case Add:
		return "ADD"
	case Subtract:
		return "SUBTRACT"
	}
	return "UNKNOWN"
}

func ParseBlendMode(name string) (mode BlendMode, err errors.Error) {
	for _, m := range blendModes {
		if strings.EqualFold(m.String(), name) {
			return m, nil
		}
	}
	return Replace, errors.Wrap(ErrMalformedInput, "unknown blend mode").With("mode", name).With("stack", stack.Trace().TrimRuntime())
}

func blendChannel(c int, o int, factor float64, mode BlendMode) int {
	switch mode {
	case Average:
		return clamp(round(float64(c) + factor*float64(o-c)))
	case Add:
		return clamp(round(float64(c) + factor*float64(o)))
	case Subtract:
		return clamp(round(float64(c) - factor*float64(o)))
	}
	return o
}

// Fade combines this color with another of the same kind, the factor is expected
// to be in the range [0,1].  HSV colors are faded in RGB space.  Fading colors of
// different kinds is rejected.
func (c Color) Fade(other Color, factor float64, mode BlendMode) (faded Color, err errors.Error) {
	if c.kind != other.kind {
		return c, mismatch("fade", c, other)
	}
	if math.IsNaN(factor) {
		return c, errors.Wrap(ErrInvalidArgument, "fade factor is not a number").With("stack", stack.Trace().TrimRuntime())
	}
	if mode == Replace {
		return other, nil
	}

	switch c.kind {
	case HSV:
		rgb, err := c.ToRGB().Fade(other.ToRGB(), factor, mode)
		if err != nil {
			return c, err
		}
		return rgb.ToHSV(), nil
	default:
		return Color{
			kind: c.kind,
			r:    blendChannel(c.r, other.r, factor, mode),
			g:    blendChannel(c.g, other.g, factor, mode),
			b:    blendChannel(c.b, other.b, factor, mode),
			w:    blendChannel(c.w, other.w, factor, mode),
			a:    blendChannel(c.a, other.a, factor, mode),
		}, nil
	}
}
