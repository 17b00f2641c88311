package xled

// This file contains a display that draws frames into a terminal, every LED is
// shown as two character cells so that pixels appear roughly square

import (
	"context"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/xled/frame"
	"github.com/TeamNorCal/xled/model"
)

type TerminalSink struct {
	screen tcell.Screen
	width  int
	height int
	sync.Mutex
}

// NewTerminalSink draws on an initialized screen, the caller remains responsible
// for finalizing it
func NewTerminalSink(screen tcell.Screen, width int, height int) (sink *TerminalSink, err errors.Error) {
	if screen == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "no screen").With("stack", stack.Trace().TrimRuntime())
	}
	return &TerminalSink{
		screen: screen,
		width:  width,
		height: height,
	}, nil
}

func (sink *TerminalSink) Size() (width int, height int) { return sink.width, sink.height }

func (sink *TerminalSink) SetMode(ctx context.Context, mode model.LedMode) (err errors.Error) {
	if mode == model.ModeOff {
		sink.Lock()
		sink.screen.Clear()
		sink.screen.Show()
		sink.Unlock()
	}
	return nil
}

func (sink *TerminalSink) ShowRealTimeFrame(ctx context.Context, f *frame.Frame) (err errors.Error) {
	if f == nil {
		return nil
	}
	sink.Lock()
	defer sink.Unlock()

	for y := 0; y < f.Height(); y++ {
		for x := 0; x < f.Width(); x++ {
			c, _ := f.Get(x, y)
			style := tcell.StyleDefault.Background(tcell.NewRGBColor(int32(c.R()), int32(c.G()), int32(c.B())))
			sink.screen.SetContent(2*x, y, ' ', nil, style)
			sink.screen.SetContent(2*x+1, y, ' ', nil, style)
		}
	}
	sink.screen.Show()
	return nil
}
