package transition

import (
	"math"
	"time"

	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/xled/color"
	"github.com/TeamNorCal/xled/frame"
)

// disc grows a circle from the center, in-out, or shrinks one toward the
// center, out-in
type disc struct{}

func (disc) SupportedDirections() []Direction { return []Direction{InOut, OutIn} }

func (disc) FrameDelay(base time.Duration) time.Duration { return base }

func (disc) NextFrame(source *frame.Frame, target *frame.Frame, dir Direction, mode color.BlendMode, factor float64) (out *frame.Frame, err errors.Error) {
	w, h := source.Width(), source.Height()
	mx, my := float64(w/2), float64(h/2)

	from, to := source, target
	radius := float64(max(w, h)) * factor
	if dir == OutIn {
		// the area outside the disc already shows the target
		from, to = target, source
		radius = float64(max(w, h)) * (1.0 - factor)
	}
	out = from.Clone()

	n := int(math.Round(radius))
	for r := 0; r < n/2; r++ {
		for angle := 0; angle < 360; angle++ {
			rad := float64(angle) * math.Pi / 180.0
			x := clampInt(int(math.Round(mx+float64(r)*math.Cos(rad))), 0, w-1)
			y := clampInt(int(math.Round(my+float64(r)*math.Sin(rad))), 0, h-1)
			if err = blendInto(out, from, to, x, y, factor, mode); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
