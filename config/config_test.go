package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/xled"
	"github.com/TeamNorCal/xled/frame"
)

const twoDevices = `
origin: TOP_LEFT
width: 10
height: 21
columns:
  - - host: 192.168.1.10
  - - host: 192.168.1.11
      rotation: full
      bytes_per_led: 4
opc:
  server: 127.0.0.1:7890
  channel: 2
preview: ":8090"
`

func TestLoad(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "layout.yaml")
	if errGo := os.WriteFile(fn, []byte(twoDevices), 0600); errGo != nil {
		t.Fatal(errGo)
	}

	layout, err := Load(fn)
	if err != nil {
		t.Fatal(err.Error())
	}
	if len(layout.Columns) != 2 || layout.Columns[1][0].Width != 10 || layout.Columns[1][0].Height != 21 {
		t.Errorf("defaults not applied %+v", layout.Columns)
	}
	if layout.OPC == nil || layout.OPC.Server != "127.0.0.1:7890" || layout.OPC.Channel != 2 {
		t.Errorf("unexpected opc settings %+v", layout.OPC)
	}
	if layout.Preview != ":8090" {
		t.Errorf("unexpected preview address %q", layout.Preview)
	}

	cfg, err := layout.Columns[1][0].Config()
	if err != nil {
		t.Fatal(err.Error())
	}
	if cfg.Rotation != frame.RotateFull || cfg.BytesPerLed != 4 || cfg.Host != "192.168.1.11" {
		t.Errorf("unexpected device settings %+v", cfg)
	}

	arr, devices, err := layout.Array()
	if err != nil {
		t.Fatal(err.Error())
	}
	if len(devices) != 2 || devices[0].Host() != "192.168.1.10" {
		t.Errorf("unexpected devices %v", devices)
	}
	if w, h := arr.Size(); w != 20 || h != 21 {
		t.Errorf("unexpected canvas %dx%d", w, h)
	}
	if devices[0].Session().BaseURL() != "http://192.168.1.10"+xled.APIPrefix {
		t.Errorf("unexpected url %s", devices[0].Session().BaseURL())
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestParseRejects(t *testing.T) {
	for _, tt := range []struct {
		doc   string
		cause error
	}{
		{"columns: [", xled.ErrMalformedInput},
		{"unknown: 1\ncolumns: [[{host: a, width: 1, height: 1}]]", xled.ErrMalformedInput},
		{"origin: MIDDLE\ncolumns: [[{host: a, width: 1, height: 1}]]", xled.ErrMalformedInput},
		{"columns: []", xled.ErrInvalidArgument},
		{"columns: [[{width: 1, height: 1}]]", xled.ErrInvalidArgument},
		{"columns: [[{host: a}]]", xled.ErrInvalidArgument},
		{"columns: [[{host: a, width: 1, height: 1, rotation: sideways}]]", xled.ErrMalformedInput},
	} {
		if _, err := Parse([]byte(tt.doc)); err == nil || errors.Cause(err) != tt.cause {
			t.Errorf("%q: expected %v, got %v", tt.doc, tt.cause, err)
		}
	}
}
