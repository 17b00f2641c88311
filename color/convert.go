package color

import (
	"math"
)

// ToRGB converts any variant to plain RGB.  White is added to each of the
// base channels, amber is added to red and green scaled by the AmberFactor.
func (c Color) ToRGB() Color {
	switch c.kind {
	case RGB:
		return c
	case RGBW:
		return NewRGB(c.r+c.w, c.g+c.w, c.b+c.w)
	case RGBA:
		return NewRGB(c.r+round(float64(c.a)/AmberFactor), c.g+round(float64(c.a)*AmberFactor), c.b)
	case RGBWA:
		return NewRGB(
			c.r+c.w+round(float64(c.a)/AmberFactor),
			c.g+c.w+round(float64(c.a)*AmberFactor),
			c.b+c.w)
	case HSV:
		return hsvToRGB(c.h, c.s, c.v)
	}
	return Black
}

func hsvToRGB(hue, sat, val float64) Color {
	h := hue / 360.0
	s := sat / 100.0
	v := val / 100.0

	var r, g, b float64
	if s == 0 {
		r, g, b = v, v, v
	} else {
		varH := h * 6
		if varH >= 6 {
			varH = 0
		}
		varI := math.Floor(varH)
		var1 := v * (1 - s)
		var2 := v * (1 - s*(varH-varI))
		var3 := v * (1 - s*(1-(varH-varI)))

		switch int(varI) {
		case 0:
			r, g, b = v, var3, var1
		case 1:
			r, g, b = var2, v, var1
		case 2:
			r, g, b = var1, v, var3
		case 3:
			r, g, b = var1, var2, v
		case 4:
			r, g, b = var3, var1, v
		default:
			r, g, b = v, var1, var2
		}
	}
	return NewRGB(round(r*255), round(g*255), round(b*255))
}

// ToHSV converts to the hexagonal hue, saturation, value model.  Achromatic
// colors have a saturation and hue of zero.  The channels are kept unrounded,
// whole percentages are too coarse to convert back within one step per channel.
func (c Color) ToHSV() Color {
	if c.kind == HSV {
		return c
	}
	rgb := c.ToRGB()
	r := float64(rgb.r) / 255.0
	g := float64(rgb.g) / 255.0
	b := float64(rgb.b) / 255.0

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	delta := max - min

	h, s := 0.0, 0.0
	if max != 0 {
		s = delta / max
	}
	if delta != 0 {
		switch max {
		case r:
			h = (g - b) / delta
		case g:
			h = 2 + (b-r)/delta
		default:
			h = 4 + (r-g)/delta
		}
		h *= 60
		if h < 0 {
			h += 360
		}
	}
	if math.IsNaN(h) {
		h = 0
	}
	return NewHSV(h, s*100, max*100)
}

// ToRGBW extracts a white channel from the base channels.
//
// With normalize set the white channel is the minimum of red, green, and blue
// and is subtracted from each of them, the conversion is lossless.
//
// Without normalize only fully unsaturated colors get a white channel,
// half of their minimum channel, and the base channels are left untouched.
// Any saturation at all results in no white.
func (c Color) ToRGBW(normalize bool) Color {
	switch c.kind {
	case RGBW:
		return c
	case RGBWA:
		return NewRGBW(
			c.r+round(float64(c.a)/AmberFactor),
			c.g+round(float64(c.a)*AmberFactor),
			c.b, c.w)
	}
	rgb := c.ToRGB()
	white := minOf(rgb.r, rgb.g, rgb.b)
	if normalize {
		return NewRGBW(rgb.r-white, rgb.g-white, rgb.b-white, white)
	}
	if rgb.ToHSV().s == 0 {
		return NewRGBW(rgb.r, rgb.g, rgb.b, white/2)
	}
	return NewRGBW(rgb.r, rgb.g, rgb.b, 0)
}

// extractAmber returns the largest amber level that can be taken out of the red
// and green channels along with what is left of them
func extractAmber(r, g int) (red, green, amber int) {
	amber = minOf(int(math.Floor(float64(r)*AmberFactor)), int(math.Floor(float64(g)/AmberFactor)), 255)
	red = r - round(float64(amber)/AmberFactor)
	green = g - round(float64(amber)*AmberFactor)
	return clamp(red), clamp(green), amber
}

// ToRGBA moves the shared part of the red and green channels into the amber
// channel
func (c Color) ToRGBA() Color {
	if c.kind == RGBA {
		return c
	}
	rgb := c.ToRGB()
	r, g, a := extractAmber(rgb.r, rgb.g)
	return NewRGBA(r, g, rgb.b, a)
}

// ToRGBWA applies the white extraction and then the amber extraction
func (c Color) ToRGBWA(normalize bool) Color {
	if c.kind == RGBWA {
		return c
	}
	rgbw := c.ToRGBW(normalize)
	r, g, a := extractAmber(rgbw.r, rgbw.g)
	return NewRGBWA(r, g, rgbw.b, rgbw.w, a)
}

// To converts the color into the requested variant, white extraction uses
// the unnormalized policy which is what the devices expect by default
func (c Color) To(kind Kind) Color {
	switch kind {
	case RGBW:
		return c.ToRGBW(false)
	case RGBA:
		return c.ToRGBA()
	case RGBWA:
		return c.ToRGBWA(false)
	case HSV:
		return c.ToHSV()
	}
	return c.ToRGB()
}

func minOf(first int, rest ...int) int {
	m := first
	for _, v := range rest {
		if v < m {
			m = v
		}
	}
	return m
}
