package xled

// This file implements the real time UDP protocol.  Frames are split into
// chunks that each travel in their own datagram prefixed by the device token.
// There is no acknowledgement, a lost datagram is repaired by the next frame.

import (
	"context"
	"encoding/base64"
	"net"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/xled/frame"
)

const (
	// MaxChunk is the largest frame payload carried by one datagram
	MaxChunk = 900
	// MaxChunks is the number of chunks the single byte index can address
	MaxChunks = 256
)

// Datagrams splits a serialized frame into the datagrams of the protocol generation
func Datagrams(generation int, token []byte, payload []byte) (datagrams [][]byte, err errors.Error) {
	chunks := (len(payload) + MaxChunk - 1) / MaxChunk
	if chunks > MaxChunks {
		return nil, errors.Wrap(ErrInvalidArgument, "frame exceeds the real time chunk limit").
			With("bytes", len(payload)).With("chunks", chunks).With("stack", stack.Trace().TrimRuntime())
	}
	if generation < 1 || generation > 3 {
		return nil, errors.Wrap(ErrInvalidArgument, "unknown protocol generation").With("generation", generation).With("stack", stack.Trace().TrimRuntime())
	}

	datagrams = make([][]byte, 0, chunks)
	for i := 0; i < chunks; i++ {
		start := i * MaxChunk
		end := min(start+MaxChunk, len(payload))
		chunk := payload[start:end]

		datagram := make([]byte, 0, len(token)+len(chunk)+4)
		datagram = append(datagram, byte(generation))
		datagram = append(datagram, token...)
		switch generation {
		case 1:
			datagram = append(datagram, byte(len(chunk)))
		case 2:
			datagram = append(datagram, 0)
		case 3:
			datagram = append(datagram, 0, 0, byte(i))
		}
		datagrams = append(datagrams, append(datagram, chunk...))
	}
	return datagrams, nil
}

func (dev *Device) streamConn() (conn net.Conn, err errors.Error) {
	dev.Lock()
	defer dev.Unlock()

	if dev.conn != nil {
		return dev.conn, nil
	}
	conn, errGo := net.Dial("udp", dev.streamAddr)
	if errGo != nil {
		return nil, errors.Wrap(ErrNetworkUnreachable, errGo.Error()).With("addr", dev.streamAddr).With("stack", stack.Trace().TrimRuntime())
	}
	dev.conn = conn
	return conn, nil
}

// ShowRealTimeFrame streams a frame to the device, the device must be in real
// time mode for the frame to be displayed
func (dev *Device) ShowRealTimeFrame(ctx context.Context, f *frame.Frame) (err errors.Error) {
	if f == nil {
		return nil
	}
	token, err := dev.session.RefreshTokenIfNeeded(ctx)
	if err != nil {
		return err
	}
	rawToken, errGo := base64.StdEncoding.DecodeString(token)
	if errGo != nil {
		return errors.Wrap(ErrMalformedInput, errGo.Error()).With("host", dev.host).With("stack", stack.Trace().TrimRuntime())
	}

	datagrams, err := Datagrams(dev.Generation(), rawToken, dev.rotation.Apply(f).ToBytes(dev.BytesPerLed()))
	if err != nil {
		return err
	}

	conn, err := dev.streamConn()
	if err != nil {
		logger.Warn("real time stream unavailable", "host", dev.host, "error", err.Error())
		return err
	}
	for _, datagram := range datagrams {
		if _, errGo := conn.Write(datagram); errGo != nil {
			err = errors.Wrap(ErrNetworkUnreachable, errGo.Error()).With("addr", dev.streamAddr).With("stack", stack.Trace().TrimRuntime())
			logger.Warn("real time frame dropped", "host", dev.host, "error", err.Error())
			return err
		}
	}
	return nil
}
