package transition

// This file contains the engine that produces the interpolated frames shown
// while moving from the last frame of one playable to the first frame of
// the next.  The algorithms are stateless, each is asked for one frame per
// step with a factor that increases from 0 to 1.

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	logxi "github.com/mgutz/logxi/v1"

	"github.com/TeamNorCal/xled/color"
	"github.com/TeamNorCal/xled/frame"
)

var (
	logger = logxi.New("transition")
)

const (
	DefaultFrameDelay = 100 * time.Millisecond
	DefaultDuration   = 2 * time.Second
)

// Algorithm is implemented by every transition
type Algorithm interface {
	// SupportedDirections lists the directions the algorithm understands, requests
	// for any other direction produce no transition
	SupportedDirections() []Direction

	// NextFrame produces the frame for the given factor, nil means there is
	// nothing to interpolate and the target is shown immediately
	NextFrame(source *frame.Frame, target *frame.Frame, dir Direction, mode color.BlendMode, factor float64) (*frame.Frame, errors.Error)

	// FrameDelay lets an algorithm slow down the steps it is shown with
	FrameDelay(base time.Duration) time.Duration
}

// Type names the available transitions
type Type int

const (
	Straight Type = iota
	Fade
	Wipe
	CurtainOpen
	CurtainClose
	Disc
	Random
)

var (
	algorithms = map[Type]Algorithm{
		Straight:     straight{},
		Fade:         fade{},
		Wipe:         wipe{},
		CurtainOpen:  curtain{open: true},
		CurtainClose: curtain{open: false},
		Disc:         disc{},
		Random:       random{},
	}

	typeNames = map[Type]string{
		Straight:     "STRAIGHT",
		Fade:         "FADE",
		Wipe:         "WIPE",
		CurtainOpen:  "CURTAIN_OPEN",
		CurtainClose: "CURTAIN_CLOSE",
		Disc:         "DISC",
		Random:       "RANDOM",
	}

	rnd = &lockedRand{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
)

type lockedRand struct {
	rnd *rand.Rand
	sync.Mutex
}

func (r *lockedRand) Intn(n int) int {
	r.Lock()
	defer r.Unlock()
	return r.rnd.Intn(n)
}

// Seed makes the choices of the Random transition repeatable
func Seed(seed int64) {
	rnd.Lock()
	rnd.rnd = rand.New(rand.NewSource(seed))
	rnd.Unlock()
}

// Types lists every transition type in declaration order
func Types() []Type {
	return []Type{Straight, Fade, Wipe, CurtainOpen, CurtainClose, Disc, Random}
}

func (t Type) String() string {
	if name, isPresent := typeNames[t]; isPresent {
		return name
	}
	return "UNKNOWN"
}

func ParseType(name string) (t Type, err errors.Error) {
	for tt, ttName := range typeNames {
		if strings.EqualFold(ttName, name) {
			return tt, nil
		}
	}
	return Straight, errors.Wrap(color.ErrMalformedInput, "unknown transition type").With("type", name).With("stack", stack.Trace().TrimRuntime())
}

// Algorithm returns the implementation behind the type
func (t Type) Algorithm() Algorithm {
	if alg, isPresent := algorithms[t]; isPresent {
		return alg
	}
	return straight{}
}

func (t Type) SupportedDirections() []Direction {
	return t.Algorithm().SupportedDirections()
}

// pickRandom selects the delegate, direction, and blend mode used by a Random
// transition
func pickRandom() (t Type, dir Direction, mode color.BlendMode) {
	candidates := []Type{}
	for _, tt := range Types() {
		if tt != Straight && tt != Random {
			candidates = append(candidates, tt)
		}
	}
	t = candidates[rnd.Intn(len(candidates))]
	dirs := t.SupportedDirections()
	dir = dirs[rnd.Intn(len(dirs))]
	modes := color.BlendModes()
	mode = modes[rnd.Intn(len(modes))]
	return t, dir, mode
}

// Sequence builds the transition from the last frame of source to the first frame
// of target.  The duration is divided into steps of the effective frame delay,
// the factor advances by an equal share of 255 per step.  Unsupported directions
// and the Straight type produce an empty sequence.
func (t Type) Sequence(source frame.Playable, target frame.Playable, dir Direction, mode color.BlendMode, frameDelay time.Duration, duration time.Duration) (seq *frame.Sequence, err errors.Error) {
	if t == Random {
		delegate, delegateDir, delegateMode := pickRandom()
		logger.Debug("random transition", "type", delegate.String(), "direction", delegateDir.String(), "mode", delegateMode.String())
		return delegate.Sequence(source, target, delegateDir, delegateMode, frameDelay, duration)
	}

	if frameDelay <= 0 {
		frameDelay = DefaultFrameDelay
	}
	if duration <= 0 {
		duration = DefaultDuration
	}

	alg := t.Algorithm()
	fd := alg.FrameDelay(frameDelay)
	seq = frame.NewSequence(fd)

	if !contains(alg.SupportedDirections(), dir) {
		return seq, nil
	}

	sourceFrame := source.LastFrame()
	targetFrame := target.FirstFrame()
	if sourceFrame == nil || targetFrame == nil {
		return seq, nil
	}
	if sourceFrame.Width() != targetFrame.Width() || sourceFrame.Height() != targetFrame.Height() {
		return nil, errors.Wrap(color.ErrInvalidArgument, "transition frames differ in size").
			With("source", [2]int{sourceFrame.Width(), sourceFrame.Height()}).
			With("target", [2]int{targetFrame.Width(), targetFrame.Height()}).
			With("stack", stack.Trace().TrimRuntime())
	}

	steps := int(duration / fd)
	if steps < 1 {
		steps = 1
	}
	step := 255 / steps
	if step < 1 {
		step = 1
	}

	for i := 0; i <= 255; i += step {
		next, err := alg.NextFrame(sourceFrame, targetFrame, dir, mode, float64(i)/255.0)
		if err != nil {
			return nil, err.With("transition", t.String())
		}
		if next != nil {
			seq.Append(next)
		}
	}
	return seq, nil
}
