package model

import (
	"encoding/json"
	"testing"
)

func TestFirmwareAtMost(t *testing.T) {
	tests := []struct {
		version string
		major   int
		minor   int
		patch   int
		atMost  bool
	}{
		{"2.3.8", 2, 3, 8, true},
		{"2.3.9", 2, 3, 8, false},
		{"2.4.6", 2, 4, 6, true},
		{"2.4.21", 2, 4, 6, false},
		{"1.99.20", 2, 3, 8, true},
		{"2.8", 2, 4, 6, false},
		{"", 2, 3, 8, true},
	}
	for _, tt := range tests {
		fw := &FirmwareVersion{Version: tt.version}
		if got := fw.AtMost(tt.major, tt.minor, tt.patch); got != tt.atMost {
			t.Errorf("%s at most %d.%d.%d expected %v", tt.version, tt.major, tt.minor, tt.patch, tt.atMost)
		}
	}
}

func TestResponseCodes(t *testing.T) {
	resp := &Mode{}
	if errGo := json.Unmarshal([]byte(`{"code":1000,"mode":"rt"}`), resp); errGo != nil {
		t.Fatal(errGo)
	}
	var coded Coded = resp
	if !coded.ResponseCode().IsOk() || resp.Mode != ModeRealTime {
		t.Errorf("unexpected decode %+v", resp)
	}
	if CodeMalformedJSON.IsOk() || CodeMalformedJSON.String() != "MalformedJSON" {
		t.Error("1104 is not a success")
	}
	if ResponseCode(42).String() != "Unknown(42)" {
		t.Error(ResponseCode(42).String())
	}
}

func TestDeepCopy(t *testing.T) {
	info := &DeviceInfo{BytesPerLed: 3, NumberOfLed: 210, FwFamily: "G"}
	cpy := info.DeepCopy()
	cpy.NumberOfLed = 1
	if info.NumberOfLed != 210 || cpy.FwFamily != "G" {
		t.Errorf("copy shares state with the original %+v %+v", info, cpy)
	}

	movies := &Movies{Movies: []Movie{{ID: 1, Name: "a"}}}
	movieCpy := movies.DeepCopy()
	movieCpy.Movies[0].Name = "b"
	if movies.Movies[0].Name != "a" {
		t.Error("movie list shared with the copy")
	}
}
