package config

// This module reads the layout file describing the devices making up an LED
// array.  Devices are listed column by column, every column from the origin
// corner outward.
//
//	origin: TOP_LEFT
//	width: 10
//	height: 21
//	columns:
//	  - - host: 192.168.1.10
//	  - - host: 192.168.1.11
//	      rotation: full
//	opc:
//	  server: 127.0.0.1:7890
//	preview: ":8090"

import (
	"os"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"gopkg.in/yaml.v2"

	"github.com/TeamNorCal/xled"
	"github.com/TeamNorCal/xled/frame"
)

// Device describes one device, zero sizes are taken from the layout defaults
type Device struct {
	Host        string `yaml:"host"`
	Width       int    `yaml:"width,omitempty"`
	Height      int    `yaml:"height,omitempty"`
	Rotation    string `yaml:"rotation,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
	StreamAddr  string `yaml:"stream_addr,omitempty"`
	BytesPerLed int    `yaml:"bytes_per_led,omitempty"`
	Generation  int    `yaml:"generation,omitempty"`
}

type OPC struct {
	Server  string `yaml:"server"`
	Channel uint8  `yaml:"channel,omitempty"`
}

type Layout struct {
	Origin  string     `yaml:"origin,omitempty"`
	Width   int        `yaml:"width,omitempty"`
	Height  int        `yaml:"height,omitempty"`
	Columns [][]Device `yaml:"columns"`
	OPC     *OPC       `yaml:"opc,omitempty"`
	Preview string     `yaml:"preview,omitempty"`
}

// Load reads and validates a layout file
func Load(fn string) (layout *Layout, err errors.Error) {
	data, errGo := os.ReadFile(fn)
	if errGo != nil {
		return nil, errors.Wrap(errGo).With("file", fn).With("stack", stack.Trace().TrimRuntime())
	}
	if layout, err = Parse(data); err != nil {
		return nil, err.With("file", fn)
	}
	return layout, nil
}

// Parse decodes a layout document, sizes missing from devices are filled in from
// the layout defaults
func Parse(data []byte) (layout *Layout, err errors.Error) {
	layout = &Layout{}
	if errGo := yaml.UnmarshalStrict(data, layout); errGo != nil {
		return nil, errors.Wrap(xled.ErrMalformedInput, errGo.Error()).With("stack", stack.Trace().TrimRuntime())
	}

	if _, err = xled.ParseOrigin(layout.Origin); err != nil {
		return nil, err
	}
	if len(layout.Columns) == 0 {
		return nil, errors.Wrap(xled.ErrInvalidArgument, "layout has no devices").With("stack", stack.Trace().TrimRuntime())
	}
	for i, column := range layout.Columns {
		for j := range column {
			dev := &column[j]
			if len(dev.Host) == 0 && len(dev.BaseURL) == 0 {
				return nil, errors.Wrap(xled.ErrInvalidArgument, "device has no address").With("column", i).With("row", j).With("stack", stack.Trace().TrimRuntime())
			}
			if dev.Width == 0 {
				dev.Width = layout.Width
			}
			if dev.Height == 0 {
				dev.Height = layout.Height
			}
			if dev.Width <= 0 || dev.Height <= 0 {
				return nil, errors.Wrap(xled.ErrInvalidArgument, "device has no size").With("column", i).With("row", j).With("stack", stack.Trace().TrimRuntime())
			}
			if _, err = frame.ParseRotation(dev.Rotation); err != nil {
				return nil, err.With("column", i).With("row", j)
			}
		}
	}
	return layout, nil
}

// Config converts the device description into the settings of a device
func (dev *Device) Config() (cfg xled.DeviceConfig, err errors.Error) {
	rotation, err := frame.ParseRotation(dev.Rotation)
	if err != nil {
		return cfg, err
	}
	return xled.DeviceConfig{
		Host:        dev.Host,
		Width:       dev.Width,
		Height:      dev.Height,
		BaseURL:     dev.BaseURL,
		StreamAddr:  dev.StreamAddr,
		BytesPerLed: dev.BytesPerLed,
		Generation:  dev.Generation,
		Rotation:    rotation,
	}, nil
}

// Array creates the devices of the layout and arranges them, the devices are
// also returned in layout order for the caller to connect and close
func (layout *Layout) Array() (arr *xled.Array, devices []*xled.Device, err errors.Error) {
	origin, err := xled.ParseOrigin(layout.Origin)
	if err != nil {
		return nil, nil, err
	}

	columns := make([][]xled.Display, 0, len(layout.Columns))
	for _, column := range layout.Columns {
		displays := make([]xled.Display, 0, len(column))
		for i := range column {
			cfg, err := column[i].Config()
			if err != nil {
				return nil, nil, err
			}
			dev := xled.NewDevice(cfg)
			devices = append(devices, dev)
			displays = append(displays, dev)
		}
		columns = append(columns, displays)
	}

	if arr, err = xled.NewArray(origin, columns...); err != nil {
		return nil, nil, err
	}
	return arr, devices, nil
}
