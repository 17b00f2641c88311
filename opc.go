package xled

// This file contains a display that forwards frames to an Open Pixel Control
// server, such as one driving fadecandy boards.  Pixels are sent row by row on
// a single OPC channel.

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/cnf/structhash"

	"github.com/kellydunn/go-opc"

	"github.com/TeamNorCal/xled/frame"
	"github.com/TeamNorCal/xled/model"
)

// maxOPCPixels is the number of RGB pixels that fit into one OPC message
const maxOPCPixels = opc.MAX_MESSAGE_SIZE / 3

type opcPixels struct {
	Width  int
	Height int
	RGB    []byte
}

type OPCSink struct {
	server  string
	channel uint8
	width   int
	height  int

	client *opc.Client
	last   []byte
	sync.Mutex
}

func NewOPCSink(server string, channel uint8, width int, height int) (sink *OPCSink) {
	return &OPCSink{
		server:  server,
		channel: channel,
		width:   width,
		height:  height,
	}
}

// Connect opens the TCP connection to the OPC server
func (sink *OPCSink) Connect() (err errors.Error) {
	sink.Lock()
	defer sink.Unlock()

	client := opc.NewClient()
	if errGo := client.Connect("tcp", sink.server); errGo != nil {
		return errors.Wrap(ErrNetworkUnreachable, errGo.Error()).With("url", sink.server).With("stack", stack.Trace().TrimRuntime())
	}
	sink.client = client
	sink.last = nil
	return nil
}

func (sink *OPCSink) Size() (width int, height int) { return sink.width, sink.height }

// SetMode has no meaning for OPC servers, they always display what they are sent
func (sink *OPCSink) SetMode(ctx context.Context, mode model.LedMode) (err errors.Error) {
	return nil
}

// ShowRealTimeFrame sends the frame unless it is identical to the frame sent last
func (sink *OPCSink) ShowRealTimeFrame(ctx context.Context, f *frame.Frame) (err errors.Error) {
	if f == nil {
		return nil
	}
	if f.Len() > maxOPCPixels {
		return errors.Wrap(ErrInvalidArgument, "frame too large for an OPC message").With("pixels", f.Len()).With("stack", stack.Trace().TrimRuntime())
	}

	pixels := opcPixels{Width: f.Width(), Height: f.Height(), RGB: make([]byte, 0, 3*f.Len())}
	m := opc.NewMessage(sink.channel)
	m.SetLength(uint16(3 * f.Len()))
	for y := 0; y < f.Height(); y++ {
		for x := 0; x < f.Width(); x++ {
			c, _ := f.Get(x, y)
			r, g, b := uint8(c.R()), uint8(c.G()), uint8(c.B())
			m.SetPixelColor(y*f.Width()+x, r, g, b)
			pixels.RGB = append(pixels.RGB, r, g, b)
		}
	}

	sink.Lock()
	defer sink.Unlock()

	if sink.client == nil {
		return errors.Wrap(ErrNetworkUnreachable, "not connected").With("url", sink.server).With("stack", stack.Trace().TrimRuntime())
	}

	hash := structhash.Md5(pixels, 1)
	if bytes.Equal(sink.last, hash) {
		return nil
	}
	if errGo := sink.client.Send(m); errGo != nil {
		// Force the frame to be resent once the server is back
		sink.last = nil
		return errors.Wrap(ErrNetworkUnreachable, errGo.Error()).With("url", sink.server).With("stack", stack.Trace().TrimRuntime())
	}
	sink.last = hash
	return nil
}

// StartOPC forwards the frames published on the fan out to the sink, the most
// recent frame is sent at the refresh interval
func StartOPC(sink *OPCSink, fan *FanOut, refresh time.Duration, errorC chan<- errors.Error, quitC <-chan struct{}) {
	if err := sink.Connect(); err != nil {
		sendErr(errorC, err)
	}

	frameC := fan.Subscribe()

	go func() {
		var latest *frame.Frame
		ticker := time.NewTicker(refresh)
		defer ticker.Stop()

		for {
			select {
			case f, isOpen := <-frameC:
				if !isOpen {
					return
				}
				latest = f
			case <-ticker.C:
				if latest == nil {
					continue
				}
				if err := sink.ShowRealTimeFrame(context.Background(), latest); err != nil {
					sendErr(errorC, err.With("url", sink.server))
				}
			case <-quitC:
				return
			}
		}
	}()
}
