package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/xled"
	"github.com/TeamNorCal/xled/config"
)

var (
	errV = os.Stderr
)

// msgWatch prints the failures reported by the background goroutines
func msgWatch(errorC <-chan errors.Error, quitC <-chan struct{}) {
	for {
		select {
		case err := <-errorC:
			if err != nil && errV != nil {
				fmt.Fprintln(errV, err.Error())
			}
		case <-quitC:
			return
		}
	}
}

// terminal owns the screen used when frames are drawn locally
type terminal struct {
	screen tcell.Screen
	sink   *xled.TerminalSink
	once   sync.Once
}

func (term *terminal) Fini() {
	term.once.Do(term.screen.Fini)
}

// startTerminal takes over the terminal for a canvas the size of the layout,
// escape, q, or ctrl-c end the program
func startTerminal(layout *config.Layout, stop func()) (term *terminal, err errors.Error) {
	arr, _, err := layout.Array()
	if err != nil {
		return nil, err
	}
	w, h := arr.Size()

	screen, errGo := tcell.NewScreen()
	if errGo != nil {
		return nil, errors.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
	}
	if errGo = screen.Init(); errGo != nil {
		return nil, errors.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
	}
	screen.Clear()

	sink, err := xled.NewTerminalSink(screen, w, h)
	if err != nil {
		screen.Fini()
		return nil, err
	}
	term = &terminal{screen: screen, sink: sink}

	go func() {
		for {
			switch ev := screen.PollEvent().(type) {
			case nil:
				return
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
					term.Fini()
					stop()
					return
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		}
	}()
	return term, nil
}
