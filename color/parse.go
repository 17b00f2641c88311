package color

import (
	"strconv"
	"strings"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/lucasb-eyer/go-colorful"
)

// ParseHex accepts web style colors such as "#ff8000", "ff8000", or "#f80".
// Eight hex digits are read as RGBW with the white channel last.
func ParseHex(hex string) (c Color, err errors.Error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")

	switch len(s) {
	case 3, 6:
		cf, errGo := colorful.Hex("#" + s)
		if errGo != nil {
			return Black, errors.Wrap(ErrMalformedInput, errGo.Error()).With("hex", hex).With("stack", stack.Trace().TrimRuntime())
		}
		r, g, b := cf.RGB255()
		return NewRGB(int(r), int(g), int(b)), nil
	case 8:
		v, errGo := strconv.ParseUint(s, 16, 32)
		if errGo != nil {
			return Black, errors.Wrap(ErrMalformedInput, errGo.Error()).With("hex", hex).With("stack", stack.Trace().TrimRuntime())
		}
		return NewRGBW(int(v>>24&0xff), int(v>>16&0xff), int(v>>8&0xff), int(v&0xff)), nil
	}
	return Black, errors.Wrap(ErrMalformedInput, "unexpected hex color length").With("hex", hex).With("stack", stack.Trace().TrimRuntime())
}

// Gradient returns steps colors blended in the Lab color space from one color
// toward the other, the first entry is from and the last is just short of to
func Gradient(from Color, to Color, steps int) (gradient []Color) {
	if steps <= 0 {
		return []Color{}
	}
	c1 := toColorful(from)
	c2 := toColorful(to)

	gradient = make([]Color, steps)
	for i := 0; i != steps; i++ {
		r, g, b := c1.BlendLab(c2, float64(i)/float64(steps)).Clamped().RGB255()
		gradient[i] = NewRGB(int(r), int(g), int(b))
	}
	return gradient
}

func toColorful(c Color) colorful.Color {
	rgb := c.ToRGB()
	return colorful.Color{R: float64(rgb.r) / 255.0, G: float64(rgb.g) / 255.0, B: float64(rgb.b) / 255.0}
}
