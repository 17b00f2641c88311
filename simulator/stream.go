package simulator

// This file contains the receiving side of the real time UDP protocol.  Chunks
// are collected until a complete frame has arrived, which is then published.

import (
	"bytes"
	"encoding/base64"
	"net"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/xled/color"
	"github.com/TeamNorCal/xled/frame"
	"github.com/TeamNorCal/xled/model"
)

const chunkSize = 900

type assembler struct {
	buf      []byte
	received int
}

// ParseDatagram splits a real time datagram into its token, chunk index, and
// payload.  tokenLen is the size of the decoded device token.
func ParseDatagram(datagram []byte, tokenLen int) (generation int, token []byte, index int, payload []byte, err errors.Error) {
	if len(datagram) < 1+tokenLen+1 {
		return 0, nil, 0, nil, errors.New("datagram too short").With("length", len(datagram)).With("stack", stack.Trace().TrimRuntime())
	}
	generation = int(datagram[0])
	token = datagram[1 : 1+tokenLen]
	rest := datagram[1+tokenLen:]

	switch generation {
	case 1:
		size := int(rest[0])
		if len(rest)-1 < size {
			return 0, nil, 0, nil, errors.New("truncated datagram").With("length", len(datagram)).With("stack", stack.Trace().TrimRuntime())
		}
		return generation, token, 0, rest[1 : 1+size], nil
	case 2:
		return generation, token, 0, rest[1:], nil
	case 3:
		if len(rest) < 3 {
			return 0, nil, 0, nil, errors.New("datagram too short").With("length", len(datagram)).With("stack", stack.Trace().TrimRuntime())
		}
		return generation, token, int(rest[2]), rest[3:], nil
	}
	return 0, nil, 0, nil, errors.New("unknown protocol generation").With("generation", generation).With("stack", stack.Trace().TrimRuntime())
}

// Frames delivers every completely received frame, frames are dropped when
// nobody is reading
func (dev *Device) Frames() <-chan []byte {
	return dev.frameC
}

// LastFrame returns the most recent complete frame decoded into pixels
func (dev *Device) LastFrame() (f *frame.Frame) {
	dev.Lock()
	defer dev.Unlock()
	if dev.lastFrame == nil {
		return nil
	}
	return Decode(dev.lastFrame, dev.cfg.Width, dev.cfg.Height, dev.cfg.BytesPerLed)
}

// Decode rebuilds a frame from the column ordered wire format
func Decode(data []byte, width int, height int, bytesPerLed int) (f *frame.Frame) {
	f = frame.New(width, height, color.NewRGB(0, 0, 0))
	i := 0
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			if i+bytesPerLed > len(data) {
				return f
			}
			px := data[i : i+bytesPerLed]
			if bytesPerLed == 4 {
				f.Set(x, y, color.NewRGBW(int(px[1]), int(px[2]), int(px[3]), int(px[0])))
			} else {
				f.Set(x, y, color.NewRGB(int(px[0]), int(px[1]), int(px[2])))
			}
			i += bytesPerLed
		}
	}
	return f
}

// receive places one datagram into the frame under assembly
func (dev *Device) receive(datagram []byte) (err errors.Error) {
	dev.Lock()
	defer dev.Unlock()

	raw, errGo := base64.StdEncoding.DecodeString(dev.token)
	if errGo != nil || len(raw) == 0 {
		return errors.New("no session").With("stack", stack.Trace().TrimRuntime())
	}
	if dev.mode != model.ModeRealTime {
		return errors.New("not in real time mode").With("mode", string(dev.mode)).With("stack", stack.Trace().TrimRuntime())
	}

	generation, token, index, payload, err := ParseDatagram(datagram, len(raw))
	if err != nil {
		return err
	}
	if !bytes.Equal(token, raw) {
		return errors.New("token mismatch").With("stack", stack.Trace().TrimRuntime())
	}

	size := dev.cfg.Width * dev.cfg.Height * dev.cfg.BytesPerLed
	if dev.frames == nil || index == 0 {
		dev.frames = &assembler{buf: make([]byte, size)}
	}

	offset := index * chunkSize
	if generation != 3 {
		// Older generations carry no index, chunks arrive in order
		offset = dev.frames.received
	}
	if offset+len(payload) > size {
		dev.frames = nil
		return errors.New("chunk beyond frame").With("index", index).With("stack", stack.Trace().TrimRuntime())
	}
	copy(dev.frames.buf[offset:], payload)
	dev.frames.received += len(payload)

	if dev.frames.received < size {
		return nil
	}

	dev.lastFrame = dev.frames.buf
	dev.frames = nil

	select {
	case dev.frameC <- dev.lastFrame:
	default:
	}
	return nil
}

// ServeUDP reads datagrams from the connection until the quit channel is
// closed, bad datagrams are logged and dropped
func (dev *Device) ServeUDP(conn net.PacketConn, quitC <-chan struct{}) {
	go func() {
		<-quitC
		conn.Close()
	}()

	buf := make([]byte, 2048)
	for {
		n, addr, errGo := conn.ReadFrom(buf)
		if errGo != nil {
			select {
			case <-quitC:
				return
			default:
			}
			dev.logger.Warn("udp read failed", "error", errGo.Error())
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if err := dev.receive(append([]byte{}, buf[:n]...)); err != nil {
			dev.logger.Debug("datagram dropped", "from", addr.String(), "error", err.Error())
		}
	}
}

// ListenUDP opens the real time port and serves it in the background
func (dev *Device) ListenUDP(addr string, quitC <-chan struct{}) (local net.Addr, err errors.Error) {
	conn, errGo := net.ListenPacket("udp", addr)
	if errGo != nil {
		return nil, errors.Wrap(errGo).With("addr", addr).With("stack", stack.Trace().TrimRuntime())
	}
	go dev.ServeUDP(conn, quitC)
	return conn.LocalAddr(), nil
}
