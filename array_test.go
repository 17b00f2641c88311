package xled

import (
	"context"
	"sync"
	"testing"

	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/xled/color"
	"github.com/TeamNorCal/xled/frame"
	"github.com/TeamNorCal/xled/model"
)

// recorder is a display that keeps everything it was asked to do
type recorder struct {
	name   string
	width  int
	height int

	modes  []model.LedMode
	frames []*frame.Frame
	sync.Mutex
}

func newRecorder(name string, width int, height int) *recorder {
	return &recorder{name: name, width: width, height: height}
}

func (r *recorder) Size() (int, int) { return r.width, r.height }

func (r *recorder) SetMode(ctx context.Context, mode model.LedMode) errors.Error {
	r.Lock()
	defer r.Unlock()
	r.modes = append(r.modes, mode)
	return nil
}

func (r *recorder) ShowRealTimeFrame(ctx context.Context, f *frame.Frame) errors.Error {
	r.Lock()
	defer r.Unlock()
	r.frames = append(r.frames, f)
	return nil
}

func (r *recorder) Frames() []*frame.Frame {
	r.Lock()
	defer r.Unlock()
	return append([]*frame.Frame{}, r.frames...)
}

func (r *recorder) Modes() []model.LedMode {
	r.Lock()
	defer r.Unlock()
	return append([]model.LedMode{}, r.modes...)
}

// gradient gives every pixel a distinct color derived from its position
func gradient(w int, h int) *frame.Frame {
	f := frame.New(w, h, color.Black)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			f.Set(x, y, color.NewRGB(x, y, 0))
		}
	}
	return f
}

func TestArrayTwoPortraitDevices(t *testing.T) {
	left, right := newRecorder("left", 10, 21), newRecorder("right", 10, 21)
	arr, err := NewArray(TopLeft, []Display{left}, []Display{right})
	if err != nil {
		t.Fatal(err.Error())
	}
	if w, h := arr.Size(); w != 20 || h != 21 {
		t.Fatalf("unexpected canvas %dx%d", w, h)
	}

	canvas := gradient(20, 21)
	slices := arr.Slice(canvas)
	if len(slices) != 2 {
		t.Fatalf("expected 2 slices, got %d", len(slices))
	}
	for i, expected := range []struct {
		offsetX int
		display Display
	}{{0, left}, {10, right}} {
		slice := slices[i]
		if slice.OffsetX != expected.offsetX || slice.OffsetY != 0 || slice.Display != expected.display {
			t.Errorf("slice %d at %d,%d", i, slice.OffsetX, slice.OffsetY)
		}
		if slice.Rotation != frame.RotateNone {
			t.Errorf("slice %d rotated %s", i, slice.Rotation)
		}
		if !slice.Frame.Equal(canvas.SubFrame(expected.offsetX, 0, 10, 21)) {
			t.Errorf("slice %d has the wrong pixels", i)
		}
	}

	if err := arr.ShowRealTimeFrame(context.Background(), canvas); err != nil {
		t.Fatal(err.Error())
	}
	if len(left.Frames()) != 1 || len(right.Frames()) != 1 {
		t.Fatal("every device should receive one frame")
	}
	if c, _ := right.Frames()[0].Get(0, 5); !c.Equal(color.NewRGB(10, 5, 0)) {
		t.Errorf("right device got %s at its origin", c)
	}
}

func TestArrayGrid(t *testing.T) {
	a, b := newRecorder("a", 4, 3), newRecorder("b", 4, 3)
	c, d := newRecorder("c", 4, 3), newRecorder("d", 4, 3)

	for _, tt := range []struct {
		origin  Origin
		width   int
		height  int
		offsets map[*recorder][2]int
	}{
		{TopLeft, 8, 6, map[*recorder][2]int{a: {0, 0}, b: {0, 3}, c: {4, 0}, d: {4, 3}}},
		{BottomRight, 8, 6, map[*recorder][2]int{a: {4, 3}, b: {4, 0}, c: {0, 3}, d: {0, 0}}},
		{TopRight, 6, 8, map[*recorder][2]int{a: {3, 0}, b: {0, 0}, c: {3, 4}, d: {0, 4}}},
		{BottomLeft, 6, 8, map[*recorder][2]int{a: {0, 4}, b: {3, 4}, c: {0, 0}, d: {3, 0}}},
	} {
		arr, err := NewArray(tt.origin, []Display{a, b}, []Display{c, d})
		if err != nil {
			t.Fatal(err.Error())
		}
		if w, h := arr.Size(); w != tt.width || h != tt.height {
			t.Errorf("%s: canvas %dx%d", tt.origin, w, h)
		}
		for _, p := range arr.Placements() {
			expected := tt.offsets[p.Display.(*recorder)]
			if p.OffsetX != expected[0] || p.OffsetY != expected[1] {
				t.Errorf("%s: %s placed at %d,%d expected %v", tt.origin, p.Display.(*recorder).name, p.OffsetX, p.OffsetY, expected)
			}
			if p.Rotation != tt.origin.rotation() {
				t.Errorf("%s: rotation %s", tt.origin, p.Rotation)
			}
		}

		// Every slice is returned in the native size of its device
		for _, slice := range arr.Slice(gradient(tt.width, tt.height)) {
			if slice.Frame.Width() != 4 || slice.Frame.Height() != 3 {
				t.Errorf("%s: slice is %dx%d", tt.origin, slice.Frame.Width(), slice.Frame.Height())
			}
		}
	}
}

func TestArrayLandscapeRotation(t *testing.T) {
	dev := newRecorder("dev", 2, 3)
	arr, err := NewArray(TopRight, []Display{dev})
	if err != nil {
		t.Fatal(err.Error())
	}
	if w, h := arr.Size(); w != 3 || h != 2 {
		t.Fatalf("canvas %dx%d", w, h)
	}
	canvas := gradient(3, 2)
	slices := arr.Slice(canvas)
	if len(slices) != 1 || !slices[0].Frame.Equal(canvas.RotateLeft()) {
		t.Error("landscape slice not rotated into the device orientation")
	}
}

func TestArraySmallCanvas(t *testing.T) {
	left, right := newRecorder("left", 10, 21), newRecorder("right", 10, 21)
	arr, _ := NewArray(TopLeft, []Display{left}, []Display{right})

	slices := arr.Slice(gradient(10, 21))
	if len(slices) != 1 || slices[0].Display != left {
		t.Errorf("devices outside the canvas must be skipped, got %d slices", len(slices))
	}
}

func TestArrayValidation(t *testing.T) {
	a, b, c := newRecorder("a", 1, 1), newRecorder("b", 1, 1), newRecorder("c", 1, 1)
	for _, columns := range [][][]Display{
		{},
		{{}},
		{{a, b}, {c}},
		{{a}, {nil}},
	} {
		if _, err := NewArray(TopLeft, columns...); errors.Cause(err) != ErrInvalidArgument {
			t.Errorf("%d columns accepted", len(columns))
		}
	}
}

func TestArrayModes(t *testing.T) {
	a, b := newRecorder("a", 1, 1), newRecorder("b", 1, 1)
	arr, _ := NewArray(TopLeft, []Display{a, b})
	if err := arr.SetMode(context.Background(), model.ModeRealTime); err != nil {
		t.Fatal(err.Error())
	}
	for _, r := range []*recorder{a, b} {
		if modes := r.Modes(); len(modes) != 1 || modes[0] != model.ModeRealTime {
			t.Errorf("%s modes %v", r.name, modes)
		}
	}
	// Recorders are not controllers so control calls are no-ops
	if err := arr.SetBrightness(context.Background(), 0.5); err != nil {
		t.Error(err.Error())
	}
}

func TestParseOrigin(t *testing.T) {
	for _, o := range []Origin{TopLeft, TopRight, BottomLeft, BottomRight} {
		if parsed, err := ParseOrigin(o.String()); err != nil || parsed != o {
			t.Errorf("%s did not parse", o)
		}
	}
	if _, err := ParseOrigin("middle"); errors.Cause(err) != ErrMalformedInput {
		t.Error("unknown origin accepted")
	}
}
