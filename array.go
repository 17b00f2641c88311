package xled

// This file contains the composition of several devices into one logical
// canvas.  Devices are held in columns, each device is mapped onto a rectangle
// of the canvas and receives the part of every frame inside that rectangle.

import (
	"context"
	"strings"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/xled/color"
	"github.com/TeamNorCal/xled/frame"
	"github.com/TeamNorCal/xled/model"
)

// Origin is the corner the first device of the array is mounted in
type Origin int

const (
	TopLeft Origin = iota
	TopRight
	BottomLeft
	BottomRight
)

func (o Origin) String() string {
	switch o {
	case TopLeft:
		return "TOP_LEFT"
	case TopRight:
		return "TOP_RIGHT"
	case BottomLeft:
		return "BOTTOM_LEFT"
	case BottomRight:
		return "BOTTOM_RIGHT"
	}
	return "UNKNOWN"
}

func ParseOrigin(name string) (o Origin, err errors.Error) {
	for _, origin := range []Origin{TopLeft, TopRight, BottomLeft, BottomRight} {
		if strings.EqualFold(origin.String(), name) {
			return origin, nil
		}
	}
	if len(name) == 0 {
		return TopLeft, nil
	}
	return TopLeft, errors.Wrap(ErrMalformedInput, "unknown origin").With("origin", name).With("stack", stack.Trace().TrimRuntime())
}

// IsPortrait is true when the devices keep their native orientation on the canvas,
// landscape devices cover their height along the canvas x axis
func (o Origin) IsPortrait() bool {
	return o == TopLeft || o == BottomRight
}

func (o Origin) rotation() frame.Rotation {
	switch o {
	case TopRight:
		return frame.RotateLeft
	case BottomLeft:
		return frame.RotateRight
	case BottomRight:
		return frame.RotateFull
	}
	return frame.RotateNone
}

// Controller is implemented by displays that accept the device control calls
type Controller interface {
	SetBrightness(ctx context.Context, brightness float64) errors.Error
	SetSaturation(ctx context.Context, saturation float64) errors.Error
	SetColor(ctx context.Context, c color.Color) errors.Error
	PowerOn(ctx context.Context) errors.Error
	PowerOff(ctx context.Context) errors.Error
	Logout(ctx context.Context) errors.Error
}

// Placement locates one display of an array on the canvas
type Placement struct {
	Column   int
	Row      int
	OffsetX  int
	OffsetY  int
	Width    int
	Height   int
	Rotation frame.Rotation
	Display  Display
}

// DeviceFrame is the part of a canvas destined for one display, already turned
// into the native orientation of the display
type DeviceFrame struct {
	Placement
	Frame *frame.Frame
}

type Array struct {
	columns    [][]Display
	origin     Origin
	placements []Placement
	width      int
	height     int
}

// NewArray arranges displays given as columns, every column must hold the same
// number of displays
func NewArray(origin Origin, columns ...[]Display) (arr *Array, err errors.Error) {
	if len(columns) == 0 || len(columns[0]) == 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "array has no devices").With("stack", stack.Trace().TrimRuntime())
	}
	rows := len(columns[0])
	for i, column := range columns {
		if len(column) != rows {
			return nil, errors.Wrap(ErrInvalidArgument, "array columns differ in length").With("column", i).With("rows", len(column)).With("expected", rows).With("stack", stack.Trace().TrimRuntime())
		}
		for j, display := range column {
			if display == nil {
				return nil, errors.Wrap(ErrInvalidArgument, "array position has no device").With("column", i).With("row", j).With("stack", stack.Trace().TrimRuntime())
			}
		}
	}

	arr = &Array{
		columns: columns,
		origin:  origin,
	}
	arr.place()
	return arr, nil
}

// place computes the canvas rectangles, offsets accumulate the footprints of the
// preceding displays in the same canvas row and column
func (arr *Array) place() {
	cols, rows := len(arr.columns), len(arr.columns[0])

	gridCols, gridRows := cols, rows
	if !arr.origin.IsPortrait() {
		gridCols, gridRows = rows, cols
	}
	grid := make([][]*Placement, gridCols)
	for i := range grid {
		grid[i] = make([]*Placement, gridRows)
	}

	for c, column := range arr.columns {
		for r, display := range column {
			w, h := display.Size()
			cx, cy := c, r
			switch arr.origin {
			case BottomRight:
				cx, cy = cols-1-c, rows-1-r
			case TopRight:
				cx, cy = rows-1-r, c
				w, h = h, w
			case BottomLeft:
				cx, cy = r, cols-1-c
				w, h = h, w
			}
			grid[cx][cy] = &Placement{
				Column:   c,
				Row:      r,
				Width:    w,
				Height:   h,
				Rotation: arr.origin.rotation(),
				Display:  display,
			}
		}
	}

	arr.placements = make([]Placement, 0, cols*rows)
	arr.width, arr.height = 0, 0
	for cx := range grid {
		for cy := range grid[cx] {
			p := grid[cx][cy]
			for k := 0; k < cx; k++ {
				p.OffsetX += grid[k][cy].Width
			}
			for k := 0; k < cy; k++ {
				p.OffsetY += grid[cx][k].Height
			}
			arr.width = max(arr.width, p.OffsetX+p.Width)
			arr.height = max(arr.height, p.OffsetY+p.Height)
			arr.placements = append(arr.placements, *p)
		}
	}
}

func (arr *Array) Origin() Origin { return arr.origin }

// Size is the extent of the canvas covered by the displays
func (arr *Array) Size() (width int, height int) { return arr.width, arr.height }

// Placements lists the displays in canvas order, column by column
func (arr *Array) Placements() []Placement {
	return append([]Placement{}, arr.placements...)
}

// Displays returns every display of the array
func (arr *Array) Displays() (displays []Display) {
	for _, column := range arr.columns {
		displays = append(displays, column...)
	}
	return displays
}

// Slice cuts the canvas into the frames for the individual displays.  Displays
// whose rectangle starts outside the canvas receive nothing.
func (arr *Array) Slice(canvas *frame.Frame) (frames []DeviceFrame) {
	frames = make([]DeviceFrame, 0, len(arr.placements))
	for _, p := range arr.placements {
		if p.OffsetX >= canvas.Width() || p.OffsetY >= canvas.Height() {
			continue
		}
		sub := canvas.SubFrame(p.OffsetX, p.OffsetY, p.Width, p.Height)
		frames = append(frames, DeviceFrame{
			Placement: p,
			Frame:     p.Rotation.Apply(sub),
		})
	}
	return frames
}

// ShowRealTimeFrame streams the slices of the canvas to every display, a failing
// display does not prevent the others from being updated
func (arr *Array) ShowRealTimeFrame(ctx context.Context, canvas *frame.Frame) (err errors.Error) {
	for _, slice := range arr.Slice(canvas) {
		if errShow := slice.Display.ShowRealTimeFrame(ctx, slice.Frame); errShow != nil && err == nil {
			err = errShow
		}
	}
	return err
}

func (arr *Array) each(fn func(display Display) errors.Error) (err errors.Error) {
	for _, display := range arr.Displays() {
		if errCall := fn(display); errCall != nil && err == nil {
			err = errCall
		}
	}
	return err
}

func (arr *Array) control(fn func(ctrl Controller) errors.Error) (err errors.Error) {
	return arr.each(func(display Display) errors.Error {
		if ctrl, isCtrl := display.(Controller); isCtrl {
			return fn(ctrl)
		}
		return nil
	})
}

func (arr *Array) SetMode(ctx context.Context, mode model.LedMode) (err errors.Error) {
	return arr.each(func(display Display) errors.Error { return display.SetMode(ctx, mode) })
}

func (arr *Array) SetBrightness(ctx context.Context, brightness float64) (err errors.Error) {
	return arr.control(func(ctrl Controller) errors.Error { return ctrl.SetBrightness(ctx, brightness) })
}

func (arr *Array) SetSaturation(ctx context.Context, saturation float64) (err errors.Error) {
	return arr.control(func(ctrl Controller) errors.Error { return ctrl.SetSaturation(ctx, saturation) })
}

func (arr *Array) SetColor(ctx context.Context, c color.Color) (err errors.Error) {
	return arr.control(func(ctrl Controller) errors.Error { return ctrl.SetColor(ctx, c) })
}

func (arr *Array) PowerOn(ctx context.Context) (err errors.Error) {
	return arr.control(func(ctrl Controller) errors.Error { return ctrl.PowerOn(ctx) })
}

func (arr *Array) PowerOff(ctx context.Context) (err errors.Error) {
	return arr.control(func(ctrl Controller) errors.Error { return ctrl.PowerOff(ctx) })
}

func (arr *Array) Logout(ctx context.Context) (err errors.Error) {
	return arr.control(func(ctrl Controller) errors.Error { return ctrl.Logout(ctx) })
}

// IsLoggedIn is true when every device of the array holds a valid token
func (arr *Array) IsLoggedIn() bool {
	for _, display := range arr.Displays() {
		if dev, isDev := display.(*Device); isDev && !dev.IsLoggedIn() {
			return false
		}
	}
	return true
}
