package xled

import (
	"context"
	"testing"
	"time"

	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/xled/color"
	"github.com/TeamNorCal/xled/frame"
	"github.com/TeamNorCal/xled/model"
	"github.com/TeamNorCal/xled/transition"
)

func solid(r int, g int, b int) *frame.Frame {
	return frame.New(2, 2, color.NewRGB(r, g, b))
}

func TestPlayerLoopExhausted(t *testing.T) {
	red, green, blue := solid(255, 0, 0), solid(0, 255, 0), solid(0, 0, 255)
	p, err := NewPlayer(frame.NewSequence(5*time.Millisecond, red, green, blue), nil)
	if err != nil {
		t.Fatal(err.Error())
	}
	if p.State() != Idle {
		t.Errorf("new players are idle, got %s", p.State())
	}

	display := newRecorder("display", 2, 2)
	if err := p.Play(context.Background(), display, PlayOptions{Loop: 2}); err != nil {
		t.Fatal(err.Error())
	}
	if p.State() != LoopExhausted {
		t.Errorf("expected the loop to be exhausted, got %s", p.State())
	}

	shown := display.Frames()
	if len(shown) != 6 {
		t.Fatalf("expected 6 frames, got %d", len(shown))
	}
	for i, expected := range []*frame.Frame{red, green, blue, red, green, blue} {
		if !shown[i].Equal(expected) {
			t.Errorf("frame %d out of order", i)
		}
	}
	for _, mode := range display.Modes() {
		if mode != model.ModeRealTime {
			t.Errorf("unexpected mode %s", mode)
		}
	}
	if len(display.Modes()) == 0 {
		t.Error("real time mode never requested")
	}
}

func TestPlayerZeroLoopIsOnePass(t *testing.T) {
	red, green := solid(255, 0, 0), solid(0, 255, 0)
	p, _ := NewPlayer(frame.NewSequence(time.Millisecond, red, green), nil)
	display := newRecorder("display", 2, 2)

	if err := p.Play(context.Background(), display, PlayOptions{Loop: 0}); err != nil {
		t.Fatal(err.Error())
	}
	if n := len(display.Frames()); n != 2 || p.State() != LoopExhausted {
		t.Errorf("expected a single pass of 2 frames, got %d in state %s", n, p.State())
	}
}

func TestPlayerSingleFrame(t *testing.T) {
	p, err := NewPlayer(solid(1, 2, 3), nil)
	if err != nil {
		t.Fatal(err.Error())
	}
	display := newRecorder("display", 2, 2)

	// A frame played on its own waits for the default frame delay
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.Play(ctx, display, PlayOptions{}); err != nil {
		t.Fatal(err.Error())
	}
	if len(display.Frames()) != 1 {
		t.Errorf("expected a single frame, got %d", len(display.Frames()))
	}
}

func TestPlayerEmpty(t *testing.T) {
	for _, playable := range []frame.Playable{frame.NewSequence(0), (*frame.Frame)(nil), nil} {
		if _, err := NewPlayer(playable, nil); errors.Cause(err) != ErrInvalidArgument {
			t.Errorf("empty playable accepted, %v", err)
		}
	}
}

func TestPlayerStop(t *testing.T) {
	p, _ := NewPlayer(frame.NewSequence(2*time.Millisecond, solid(1, 1, 1), solid(2, 2, 2)), nil)
	display := newRecorder("display", 2, 2)

	errorC := make(chan errors.Error, 1)
	pb := p.Start(context.Background(), display, PlayOptions{Loop: -1}, errorC)

	deadline := time.Now().Add(2 * time.Second)
	for len(display.Frames()) < 10 {
		if time.Now().After(deadline) {
			t.Fatal("player made no progress")
		}
		time.Sleep(time.Millisecond)
	}
	if p.State() != Running {
		t.Errorf("expected a running player, got %s", p.State())
	}
	if err := p.Play(context.Background(), display, PlayOptions{}); err == nil {
		t.Error("a running player started a second time")
	}

	pb.Stop()
	select {
	case <-pb.Done():
	default:
		t.Error("playback not done after stop")
	}
	if p.State() != Stopped {
		t.Errorf("expected a stopped player, got %s", p.State())
	}
	select {
	case err := <-errorC:
		t.Error(err.Error())
	default:
	}
}

func TestPlayerRandomNeverRepeats(t *testing.T) {
	children := []frame.Playable{solid(1, 0, 0), solid(2, 0, 0), solid(3, 0, 0)}
	p, _ := NewPlayer(frame.NewSequence(time.Millisecond, children...), nil)
	display := newRecorder("display", 2, 2)

	if err := p.Play(context.Background(), display, PlayOptions{Loop: 10, Random: true}); err != nil {
		t.Fatal(err.Error())
	}
	shown := display.Frames()
	if len(shown) != 30 {
		t.Fatalf("expected 30 frames, got %d", len(shown))
	}
	for i := 1; i < len(shown); i++ {
		if shown[i].Equal(shown[i-1]) {
			t.Fatalf("frame %d repeats its predecessor", i)
		}
	}
}

func TestPlayerTransitions(t *testing.T) {
	black, white := solid(0, 0, 0), solid(255, 255, 255)
	p, _ := NewPlayer(frame.NewSequence(10*time.Millisecond, black, white), nil)
	display := newRecorder("display", 2, 2)

	opts := PlayOptions{
		Loop:       1,
		Transition: transition.Fade,
		BlendMode:  color.Average,
		Duration:   50 * time.Millisecond,

		TransitionFrameDelay: 10 * time.Millisecond,
	}
	if err := p.Play(context.Background(), display, opts); err != nil {
		t.Fatal(err.Error())
	}

	shown := display.Frames()
	// black, six fade steps, white
	if len(shown) != 8 {
		t.Fatalf("expected 8 frames, got %d", len(shown))
	}
	if !shown[0].Equal(black) || !shown[len(shown)-1].Equal(white) {
		t.Error("children not shown around the transition")
	}
	gray := false
	for _, f := range shown[1 : len(shown)-1] {
		c, _ := f.Get(0, 0)
		if c.R() > 0 && c.R() < 255 {
			gray = true
		}
	}
	if !gray {
		t.Error("no intermediate frames in the fade")
	}
}

func TestPlayerTransitionIgnoresFrameDelay(t *testing.T) {
	black, white := solid(0, 0, 0), solid(255, 255, 255)
	p, _ := NewPlayer(frame.NewSequence(500*time.Millisecond, black, white), nil)
	display := newRecorder("display", 2, 2)

	opts := PlayOptions{
		Loop:       1,
		Transition: transition.Fade,
		BlendMode:  color.Average,
		Duration:   400 * time.Millisecond,
	}
	started := time.Now()
	if err := p.Play(context.Background(), display, opts); err != nil {
		t.Fatal(err.Error())
	}
	elapsed := time.Since(started)

	// black, five fade steps of 100ms, white
	if shown := display.Frames(); len(shown) != 7 {
		t.Fatalf("expected 7 frames, got %d", len(shown))
	}
	// two children of 500ms and a transition of 500ms
	if elapsed < 1400*time.Millisecond || elapsed > 2*time.Second {
		t.Errorf("playback took %v", elapsed)
	}
}

func TestPlayerRotation(t *testing.T) {
	f := gradient(3, 2)
	seq := frame.NewSequence(time.Millisecond, f)
	seq.Rotation = frame.RotateRight
	p, _ := NewPlayer(seq, nil)
	display := newRecorder("display", 2, 3)

	if err := p.Play(context.Background(), display, PlayOptions{}); err != nil {
		t.Fatal(err.Error())
	}
	if shown := display.Frames(); len(shown) != 1 || !shown[0].Equal(f.RotateRight()) {
		t.Error("sequence rotation not applied")
	}
}

func TestPlayerPublishes(t *testing.T) {
	quitC := make(chan struct{})
	defer close(quitC)
	fan := StartFanOut(quitC)
	sub := fan.Subscribe()
	for fan.Subscribers() == 0 {
		time.Sleep(time.Millisecond)
	}

	red := solid(255, 0, 0)
	p, _ := NewPlayer(frame.NewSequence(20*time.Millisecond, red), fan)

	go p.Play(context.Background(), newRecorder("display", 2, 2), PlayOptions{})

	select {
	case f := <-sub:
		if !f.Equal(red) {
			t.Error("published frame differs from the shown frame")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no frame published")
	}
}
