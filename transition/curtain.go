package transition

import (
	"math"
	"time"

	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/xled/color"
	"github.com/TeamNorCal/xled/frame"
)

// curtain reveals the target either from the center outward, open, or from
// both edges toward the center
type curtain struct {
	open bool
}

func (curtain) SupportedDirections() []Direction { return []Direction{Horizontal, Vertical} }

// FrameDelay is doubled as only half the frame width is covered by the steps
func (curtain) FrameDelay(base time.Duration) time.Duration { return 2 * base }

func (c curtain) NextFrame(source *frame.Frame, target *frame.Frame, dir Direction, mode color.BlendMode, factor float64) (out *frame.Frame, err errors.Error) {
	w, h := source.Width(), source.Height()
	out = source.Clone()

	span := w
	if dir == Vertical {
		span = h
	}
	half := span / 2
	n := int(math.Round(float64(half) * factor))

	// lines are columns for horizontal curtains and rows otherwise
	line := func(i int) errors.Error {
		i = clampInt(i, 0, span-1)
		if dir == Vertical {
			for x := 0; x < w; x++ {
				if err := blendInto(out, source, target, x, i, factor, mode); err != nil {
					return err
				}
			}
			return nil
		}
		for y := 0; y < h; y++ {
			if err := blendInto(out, source, target, i, y, factor, mode); err != nil {
				return err
			}
		}
		return nil
	}

	// Opening stops at half-(n-1), on even spans the first line is never reached
	for i := 0; i < n; i++ {
		first, second := half+i, half-i
		if !c.open {
			first, second = i, span-1-i
		}
		if err = line(first); err != nil {
			return nil, err
		}
		if err = line(second); err != nil {
			return nil, err
		}
	}
	return out, nil
}
