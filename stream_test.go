package xled

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/xled/color"
	"github.com/TeamNorCal/xled/frame"
	"github.com/TeamNorCal/xled/model"
	"github.com/TeamNorCal/xled/simulator"
)

func TestDatagramChunks(t *testing.T) {
	token := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	for _, tt := range []struct {
		size   int
		chunks int
	}{
		{size: 1, chunks: 1},
		{size: 900, chunks: 1},
		{size: 901, chunks: 2},
		{size: 10 * 21 * 3, chunks: 1},
		{size: 20 * 21 * 3, chunks: 2},
		{size: 256 * 900, chunks: 256},
	} {
		payload := make([]byte, tt.size)
		for i := range payload {
			payload[i] = byte(i)
		}
		datagrams, err := Datagrams(3, token, payload)
		if err != nil {
			t.Fatal(err.Error())
		}
		if len(datagrams) != tt.chunks {
			t.Errorf("%d bytes: expected %d datagrams, got %d", tt.size, tt.chunks, len(datagrams))
			continue
		}

		rebuilt := []byte{}
		for i, datagram := range datagrams {
			if datagram[0] != 3 || !bytes.Equal(datagram[1:9], token) {
				t.Fatalf("bad header % x", datagram[:9])
			}
			if datagram[9] != 0 || datagram[10] != 0 || int(datagram[11]) != i {
				t.Errorf("%d bytes: chunk %d has header % x", tt.size, i, datagram[9:12])
			}
			if len(datagram)-12 > MaxChunk {
				t.Errorf("%d bytes: chunk %d carries %d bytes", tt.size, i, len(datagram)-12)
			}
			rebuilt = append(rebuilt, datagram[12:]...)
		}
		if !bytes.Equal(rebuilt, payload) {
			t.Errorf("%d bytes: payload not preserved", tt.size)
		}
	}
}

func TestDatagramGenerations(t *testing.T) {
	token := []byte{9, 9, 9, 9, 9, 9, 9, 9}
	payload := []byte{10, 20, 30}

	for _, tt := range []struct {
		generation int
		expected   []byte
	}{
		{1, []byte{1, 9, 9, 9, 9, 9, 9, 9, 9, 3, 10, 20, 30}},
		{2, []byte{2, 9, 9, 9, 9, 9, 9, 9, 9, 0, 10, 20, 30}},
		{3, []byte{3, 9, 9, 9, 9, 9, 9, 9, 9, 0, 0, 0, 10, 20, 30}},
	} {
		datagrams, err := Datagrams(tt.generation, token, payload)
		if err != nil {
			t.Fatal(err.Error())
		}
		if len(datagrams) != 1 || !bytes.Equal(datagrams[0], tt.expected) {
			t.Errorf("generation %d: got % x", tt.generation, datagrams)
		}

		gen, tok, idx, data, err := simulator.ParseDatagram(datagrams[0], len(token))
		if err != nil {
			t.Fatal(err.Error())
		}
		if gen != tt.generation || !bytes.Equal(tok, token) || idx != 0 || !bytes.Equal(data, payload) {
			t.Errorf("generation %d: parsed %d % x %d % x", tt.generation, gen, tok, idx, data)
		}
	}
}

func TestDatagramLimits(t *testing.T) {
	_, err := Datagrams(3, []byte{1}, make([]byte, 256*900+1))
	if errors.Cause(err) != ErrInvalidArgument {
		t.Errorf("frames beyond 256 chunks must be refused, got %v", err)
	}
	_, err = Datagrams(4, []byte{1}, []byte{1})
	if errors.Cause(err) != ErrInvalidArgument {
		t.Errorf("unknown generations must be refused, got %v", err)
	}
}

func TestStreamToDevice(t *testing.T) {
	// 20x21 RGB needs two chunks
	sim, dev := startSimulator(t, simulator.Config{Width: 20, Height: 21})
	ctx := context.Background()

	if err := dev.Connect(ctx); err != nil {
		t.Fatal(err.Error())
	}
	if dev.Generation() != 3 || dev.BytesPerLed() != 3 {
		t.Fatalf("unexpected device settings %d %d", dev.Generation(), dev.BytesPerLed())
	}
	if err := dev.SetMode(ctx, model.ModeRealTime); err != nil {
		t.Fatal(err.Error())
	}

	f := frame.New(20, 21, color.Black)
	f.Set(0, 0, color.NewRGB(255, 0, 0))
	f.Set(19, 20, color.NewRGB(0, 0, 255))
	f.Set(7, 11, color.NewRGB(0, 255, 0))

	if err := dev.ShowRealTimeFrame(ctx, f); err != nil {
		t.Fatal(err.Error())
	}

	select {
	case data := <-sim.Frames():
		if !bytes.Equal(data, f.ToBytes(3)) {
			t.Error("frame changed in transit")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("frame not received")
	}
	if got := sim.LastFrame(); !got.Equal(f) {
		t.Errorf("decoded frame differs\n%s\n%s", got, f)
	}
}
