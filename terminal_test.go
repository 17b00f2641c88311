package xled

import (
	"context"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/xled/color"
	"github.com/TeamNorCal/xled/frame"
	"github.com/TeamNorCal/xled/model"
)

func TestTerminalSink(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	if errGo := screen.Init(); errGo != nil {
		t.Fatal(errGo)
	}
	defer screen.Fini()
	screen.SetSize(20, 10)

	sink, err := NewTerminalSink(screen, 3, 2)
	if err != nil {
		t.Fatal(err.Error())
	}

	f := frame.New(3, 2, color.Black)
	f.Set(2, 1, color.NewRGB(10, 20, 30))
	if err := sink.ShowRealTimeFrame(context.Background(), f); err != nil {
		t.Fatal(err.Error())
	}

	for _, x := range []int{4, 5} {
		_, _, style, _ := screen.GetContent(x, 1)
		_, bg, _ := style.Decompose()
		if r, g, b := bg.RGB(); r != 10 || g != 20 || b != 30 {
			t.Errorf("cell %d,1 has background %d,%d,%d", x, r, g, b)
		}
	}

	if err := sink.SetMode(context.Background(), model.ModeOff); err != nil {
		t.Fatal(err.Error())
	}
	if _, _, style, _ := screen.GetContent(4, 1); style != tcell.StyleDefault {
		t.Error("screen not cleared when switched off")
	}
}

func TestTerminalSinkNeedsScreen(t *testing.T) {
	if _, err := NewTerminalSink(nil, 1, 1); errors.Cause(err) != ErrInvalidArgument {
		t.Errorf("missing screen accepted, %v", err)
	}
}
