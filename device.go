package xled

// This file contains the representation of a single LED device, its geometry
// and the means of reaching it over HTTP and UDP

import (
	"context"
	"net"
	"strconv"
	"sync"

	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/xled/frame"
	"github.com/TeamNorCal/xled/model"
)

// Display is anything frames can be shown on in real time
type Display interface {
	SetMode(ctx context.Context, mode model.LedMode) errors.Error
	ShowRealTimeFrame(ctx context.Context, f *frame.Frame) errors.Error
	Size() (width int, height int)
}

const (
	StreamPort = 7777

	defaultBytesPerLed = 3
	defaultGeneration  = 3
)

// DeviceConfig describes how a device is reached and how it is laid out
type DeviceConfig struct {
	Host   string
	Width  int
	Height int

	// BaseURL and StreamAddr override the addresses derived from the host
	BaseURL    string
	StreamAddr string

	// BytesPerLed and Generation are learned from the device on Connect when zero
	BytesPerLed int
	Generation  int

	// Rotation is applied to every frame before it is streamed
	Rotation frame.Rotation
}

type Device struct {
	host       string
	width      int
	height     int
	rotation   frame.Rotation
	streamAddr string
	session    *Session

	bytesPerLed int
	generation  int
	info        *model.DeviceInfo

	conn net.Conn
	sync.Mutex
}

func NewDevice(cfg DeviceConfig) (dev *Device) {
	dev = &Device{
		host:        cfg.Host,
		width:       cfg.Width,
		height:      cfg.Height,
		rotation:    cfg.Rotation,
		streamAddr:  cfg.StreamAddr,
		bytesPerLed: cfg.BytesPerLed,
		generation:  cfg.Generation,
	}
	if len(cfg.BaseURL) != 0 {
		dev.session = NewSessionURL(cfg.BaseURL)
	} else {
		dev.session = NewSession(cfg.Host)
	}
	if len(dev.streamAddr) == 0 {
		dev.streamAddr = net.JoinHostPort(cfg.Host, strconv.Itoa(StreamPort))
	}
	return dev
}

// Connect queries the device for its LED encoding and protocol generation.  Failures
// are logged and returned, the device remains usable with default settings.
func (dev *Device) Connect(ctx context.Context) (err errors.Error) {
	info, err := dev.Info(ctx)
	if err != nil {
		logger.Warn("device information unavailable", "host", dev.host, "error", err.Error())
		return err
	}

	dev.Lock()
	dev.info = info
	if dev.bytesPerLed == 0 && info.BytesPerLed != 0 {
		dev.bytesPerLed = info.BytesPerLed
	}
	known := dev.generation != 0
	dev.Unlock()

	if !known {
		generation, err := dev.DetermineGeneration(ctx)
		if err != nil {
			logger.Warn("device generation unknown", "host", dev.host, "error", err.Error())
			return err
		}
		dev.Lock()
		dev.generation = generation
		dev.Unlock()
	}
	logger.Info("device connected", "host", dev.host, "bytes_per_led", dev.BytesPerLed(), "generation", dev.Generation())
	return nil
}

func (dev *Device) Host() string { return dev.host }

func (dev *Device) Session() *Session { return dev.session }

func (dev *Device) Size() (width int, height int) { return dev.width, dev.height }

func (dev *Device) IsLoggedIn() bool { return dev.session.IsLoggedIn() }

func (dev *Device) BytesPerLed() int {
	dev.Lock()
	defer dev.Unlock()
	if dev.bytesPerLed == 0 {
		return defaultBytesPerLed
	}
	return dev.bytesPerLed
}

func (dev *Device) Generation() int {
	dev.Lock()
	defer dev.Unlock()
	if dev.generation == 0 {
		return defaultGeneration
	}
	return dev.generation
}

// Close releases the streaming socket
func (dev *Device) Close() {
	dev.Lock()
	defer dev.Unlock()
	if dev.conn != nil {
		dev.conn.Close()
		dev.conn = nil
	}
}
