package transition

import (
	"math"
	"time"

	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/xled/color"
	"github.com/TeamNorCal/xled/frame"
)

// wipe moves a boundary across the frame, behind the boundary the target is
// blended in
type wipe struct{}

func (wipe) SupportedDirections() []Direction {
	return []Direction{
		LeftRight, RightLeft, UpDown, DownUp,
		DiagonalFromTopLeft, DiagonalFromTopRight, DiagonalFromBottomLeft, DiagonalFromBottomRight,
	}
}

func (wipe) FrameDelay(base time.Duration) time.Duration { return base }

func (wipe) NextFrame(source *frame.Frame, target *frame.Frame, dir Direction, mode color.BlendMode, factor float64) (out *frame.Frame, err errors.Error) {
	w, h := source.Width(), source.Height()
	out = source.Clone()

	blend := func(x int, y int) errors.Error {
		return blendInto(out, source, target, x, y, factor, mode)
	}

	switch dir {
	case LeftRight, RightLeft:
		n := int(math.Round(float64(w) * factor))
		for x := 0; x < n; x++ {
			col := x
			if dir == RightLeft {
				col = w - 1 - x
			}
			for y := 0; y < h; y++ {
				if err = blend(col, y); err != nil {
					return nil, err
				}
			}
		}
	case UpDown, DownUp:
		n := int(math.Round(float64(h) * factor))
		for y := 0; y < n; y++ {
			row := y
			if dir == DownUp {
				row = h - 1 - y
			}
			for x := 0; x < w; x++ {
				if err = blend(x, row); err != nil {
					return nil, err
				}
			}
		}
	default:
		n := int(math.Round(float64(min(w, h)) * 2 * factor))
		for y := 0; y < n; y++ {
			for x := 0; x <= y; x++ {
				xx, yy := x, y-x
				switch dir {
				case DiagonalFromTopRight:
					xx = w - 1 - x
				case DiagonalFromBottomLeft:
					yy = h - 1 - (y - x)
				case DiagonalFromBottomRight:
					xx = w - 1 - x
					yy = h - 1 - (y - x)
				}
				if err = blend(clampInt(xx, 0, w-1), clampInt(yy, 0, h-1)); err != nil {
					return nil, err
				}
			}
		}
	}
	return out, nil
}
