package xled

// This file contains the playback loop that streams a playable to a display in
// real time, inserting transitions between the children of a sequence

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/xled/color"
	"github.com/TeamNorCal/xled/frame"
	"github.com/TeamNorCal/xled/model"
	"github.com/TeamNorCal/xled/transition"
)

// MaxSleep bounds every wait of the player so that a stop request is noticed
// within this interval
const MaxSleep = 5 * time.Second

// State of a player
type State int

const (
	Idle State = iota
	Running
	Stopped
	LoopExhausted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	case LoopExhausted:
		return "loop exhausted"
	}
	return "unknown"
}

// PlayOptions control a playback, the zero value plays the children once in
// order without transitions
type PlayOptions struct {
	// Loop is the number of passes through the children, negative loops forever.
	// Zero is treated as a single pass, unlike the device facing loop count where
	// zero plays nothing and only -1 loops forever.
	Loop int
	// Random picks the next child at random, never repeating the previous one
	Random bool

	Transition transition.Type
	Direction  transition.Direction
	BlendMode  color.BlendMode
	// Duration of each transition, zero selects the transition default
	Duration time.Duration
	// TransitionFrameDelay is the delay between the steps of a transition, it is
	// independent of the frame delay of the presentation.  Zero selects
	// transition.DefaultFrameDelay.
	TransitionFrameDelay time.Duration
}

type Player struct {
	seq   *frame.Sequence
	fan   *FanOut
	state State
	rnd   *rand.Rand
	sync.Mutex
}

// NewPlayer prepares a playable for playback.  A single frame is played as a
// sequence holding only that frame.  Frames that are shown are published to the
// fan out when one is supplied.
func NewPlayer(playable frame.Playable, fan *FanOut) (p *Player, err errors.Error) {
	var seq *frame.Sequence
	switch item := playable.(type) {
	case *frame.Sequence:
		seq = item
	case *frame.Frame:
		if item != nil {
			seq = frame.NewSequence(frame.DefaultFrameDelay, item)
		}
	}
	if seq == nil || seq.IsEmpty() {
		return nil, errors.Wrap(ErrInvalidArgument, "nothing to play").With("stack", stack.Trace().TrimRuntime())
	}
	return &Player{
		seq: seq,
		fan: fan,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

func (p *Player) State() State {
	p.Lock()
	defer p.Unlock()
	return p.state
}

func (p *Player) setState(state State) {
	p.Lock()
	p.state = state
	p.Unlock()
}

// sleep waits for the duration in slices of at most MaxSleep, false is returned
// when the context was cancelled
func sleep(ctx context.Context, d time.Duration) bool {
	for {
		if ctx.Err() != nil {
			return false
		}
		if d <= 0 {
			return true
		}
		slice := min(d, MaxSleep)
		d -= slice
		select {
		case <-ctx.Done():
			return false
		case <-time.After(slice):
		}
	}
}

func (p *Player) show(ctx context.Context, display Display, f *frame.Frame) {
	if err := display.ShowRealTimeFrame(ctx, f); err != nil {
		logger.Debug("frame not shown", "error", err.Error())
	}
	p.fan.Publish(f)
}

func (p *Player) setRealTime(ctx context.Context, display Display) {
	if err := display.SetMode(ctx, model.ModeRealTime); err != nil {
		logger.Debug("real time mode not set", "error", err.Error())
	}
}

// Play streams the children of the sequence to the display until the loop count
// is exhausted or the context is cancelled.  Device failures are logged and the
// playback carries on.
func (p *Player) Play(ctx context.Context, display Display, opts PlayOptions) (err errors.Error) {
	p.Lock()
	if p.state == Running {
		p.Unlock()
		return errors.New("player is already running").With("stack", stack.Trace().TrimRuntime())
	}
	p.state = Running
	p.Unlock()

	repetitions := max(1, int(p.seq.FrameDelay/MaxSleep))
	children := p.seq.Children()

	p.setRealTime(ctx, display)

	loop := opts.Loop
	if loop == 0 {
		loop = 1
	}

	var last frame.Playable
	lastIdx := -1
	for loop < 0 || loop > 0 {
		for j := range children {
			if ctx.Err() != nil {
				p.setState(Stopped)
				return nil
			}

			idx := j
			if opts.Random && len(children) > 1 {
				idx = p.pick(len(children), lastIdx)
			}
			child := children[idx]

			if last != nil && opts.Transition != transition.Straight {
				p.playTransition(ctx, display, last, child, opts)
			}

			switch item := child.(type) {
			case *frame.Frame:
				rotated := p.seq.Rotation.Apply(item)
				for r := 0; r < repetitions; r++ {
					p.show(ctx, display, rotated)
					if !sleep(ctx, min(MaxSleep, p.seq.FrameDelay)) {
						break
					}
					p.setRealTime(ctx, display)
				}
			case *frame.Sequence:
				childLoop := 1
				if item.FrameDelay > 0 && item.Len() > 0 {
					childLoop = max(1, int(p.seq.FrameDelay/item.FrameDelay)/item.Len())
				}
				p.playSequence(ctx, display, item, childLoop)
			}

			last, lastIdx = child, idx
		}
		if loop > 0 {
			loop--
		}
	}

	if ctx.Err() != nil {
		p.setState(Stopped)
		return nil
	}
	p.setState(LoopExhausted)
	return nil
}

// pick chooses a random child other than the previous one
func (p *Player) pick(n int, lastIdx int) int {
	p.Lock()
	defer p.Unlock()
	for {
		idx := p.rnd.Intn(n)
		if idx != lastIdx {
			return idx
		}
	}
}

func (p *Player) playTransition(ctx context.Context, display Display, from frame.Playable, to frame.Playable, opts PlayOptions) {
	seq, err := opts.Transition.Sequence(from, to, opts.Direction, opts.BlendMode, opts.TransitionFrameDelay, opts.Duration)
	if err != nil {
		logger.Warn("transition skipped", "transition", opts.Transition.String(), "error", err.Error())
		return
	}
	p.playSequence(ctx, display, seq, 1)
}

// playSequence streams every frame of the sequence using its own frame delay
func (p *Player) playSequence(ctx context.Context, display Display, seq *frame.Sequence, loop int) {
	frames := seq.Frames()
	for i := 0; i < loop; i++ {
		for _, f := range frames {
			if ctx.Err() != nil {
				return
			}
			p.show(ctx, display, seq.Rotation.Apply(f))
			if !sleep(ctx, seq.FrameDelay) {
				return
			}
		}
	}
}

// Playback is a player running in the background
type Playback struct {
	cancel context.CancelFunc
	doneC  chan struct{}
}

// Start runs Play on a goroutine, errors are delivered to errorC
func (p *Player) Start(ctx context.Context, display Display, opts PlayOptions, errorC chan<- errors.Error) (pb *Playback) {
	ctx, cancel := context.WithCancel(ctx)
	pb = &Playback{
		cancel: cancel,
		doneC:  make(chan struct{}),
	}
	go func() {
		defer close(pb.doneC)
		defer cancel()
		if err := p.Play(ctx, display, opts); err != nil {
			sendErr(errorC, err)
		}
	}()
	return pb
}

// Stop requests the playback to end and waits for it to do so
func (pb *Playback) Stop() {
	pb.cancel()
	<-pb.doneC
}

// Done is closed once the playback has ended
func (pb *Playback) Done() <-chan struct{} {
	return pb.doneC
}
