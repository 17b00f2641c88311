package transition

import (
	"time"

	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/xled/color"
	"github.com/TeamNorCal/xled/frame"
)

// blendInto writes the blend of the source and target pixels at x, y into out.
// The source pixel is used rather than the current content of out so that
// pixels visited more than once are not faded repeatedly.
func blendInto(out *frame.Frame, source *frame.Frame, target *frame.Frame, x int, y int, factor float64, mode color.BlendMode) (err errors.Error) {
	from, err := source.Get(x, y)
	if err != nil {
		return err
	}
	to, err := target.Get(x, y)
	if err != nil {
		return err
	}
	faded, err := from.Fade(to, factor, mode)
	if err != nil {
		return err
	}
	return out.Set(x, y, faded)
}

func clampInt(v int, lo int, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type straight struct{}

func (straight) SupportedDirections() []Direction { return Directions() }

func (straight) NextFrame(source *frame.Frame, target *frame.Frame, dir Direction, mode color.BlendMode, factor float64) (*frame.Frame, errors.Error) {
	return nil, nil
}

func (straight) FrameDelay(base time.Duration) time.Duration { return base }

type fade struct{}

func (fade) SupportedDirections() []Direction { return Directions() }

func (fade) NextFrame(source *frame.Frame, target *frame.Frame, dir Direction, mode color.BlendMode, factor float64) (*frame.Frame, errors.Error) {
	return source.Fade(target, factor, mode)
}

func (fade) FrameDelay(base time.Duration) time.Duration { return base }

// random only ever produces the target, the selection of a delegate happens
// once per sequence
type random struct{}

func (random) SupportedDirections() []Direction { return Directions() }

func (random) NextFrame(source *frame.Frame, target *frame.Frame, dir Direction, mode color.BlendMode, factor float64) (*frame.Frame, errors.Error) {
	return target.Clone(), nil
}

func (random) FrameDelay(base time.Duration) time.Duration { return base }
