package model

// This module defines the JSON documents exchanged with the xled HTTP API
// of the LED devices

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ResponseCode is returned in the code field of every device response
type ResponseCode int

const (
	CodeUnknown            ResponseCode = 0
	CodeOk                 ResponseCode = 1000
	CodeError              ResponseCode = 1001
	CodeInvalidArgument    ResponseCode = 1101
	CodeError2             ResponseCode = 1102
	CodeValueTooLong       ResponseCode = 1103
	CodeMalformedJSON      ResponseCode = 1104
	CodeInvalidArgumentKey ResponseCode = 1105
	CodeOk2                ResponseCode = 1107
	CodeOk3                ResponseCode = 1108
	CodeFirmwareUpgrade    ResponseCode = 1205
)

func (code ResponseCode) String() string {
	switch code {
	case CodeOk:
		return "Ok"
	case CodeError:
		return "Error"
	case CodeInvalidArgument:
		return "InvalidArgumentValue"
	case CodeError2:
		return "Error2"
	case CodeValueTooLong:
		return "ValueTooLong"
	case CodeMalformedJSON:
		return "MalformedJSON"
	case CodeInvalidArgumentKey:
		return "InvalidArgumentKey"
	case CodeOk2:
		return "Ok2"
	case CodeOk3:
		return "Ok3"
	case CodeFirmwareUpgrade:
		return "FirmwareUpgradeError"
	}
	return "Unknown(" + strconv.Itoa(int(code)) + ")"
}

// IsOk covers the codes the devices use for success
func (code ResponseCode) IsOk() bool {
	return code == CodeOk || code == CodeOk2 || code == CodeOk3
}

// Response is embedded in every response document
type Response struct {
	Code ResponseCode `json:"code"`
}

func (resp *Response) ResponseCode() ResponseCode { return resp.Code }

// Coded is satisfied by every response document
type Coded interface {
	ResponseCode() ResponseCode
}

// LedMode is the operating mode of the device
type LedMode string

const (
	ModeColor    LedMode = "color"
	ModeDemo     LedMode = "demo"
	ModeEffect   LedMode = "effect"
	ModeMovie    LedMode = "movie"
	ModeOff      LedMode = "off"
	ModePlaylist LedMode = "playlist"
	ModeRealTime LedMode = "rt"
)

type LoginRequest struct {
	Challenge string `json:"challenge"`
}

type LoginResponse struct {
	Response
	AuthenticationToken string `json:"authentication_token"`
	ExpiresIn           int64  `json:"authentication_token_expires_in"`
	ChallengeResponse   string `json:"challenge-response"`
}

type VerifyRequest struct {
	ChallengeResponse string `json:"challenge_response"`
}

type DeviceInfo struct {
	Response
	ProductName     string  `json:"product_name,omitempty"`
	ProductVersion  string  `json:"product_version,omitempty"`
	HardwareVersion string  `json:"hardware_version,omitempty"`
	BytesPerLed     int     `json:"bytes_per_led"`
	HwID            string  `json:"hw_id,omitempty"`
	FlashSize       int     `json:"flash_size,omitempty"`
	LedType         int     `json:"led_type,omitempty"`
	ProductCode     string  `json:"product_code,omitempty"`
	FwFamily        string  `json:"fw_family"`
	DeviceName      string  `json:"device_name,omitempty"`
	Uptime          string  `json:"uptime,omitempty"`
	Mac             string  `json:"mac,omitempty"`
	UUID            string  `json:"uuid,omitempty"`
	MaxSupportedLed int     `json:"max_supported_led,omitempty"`
	NumberOfLed     int     `json:"number_of_led"`
	LedProfile      string  `json:"led_profile,omitempty"`
	FrameRate       float64 `json:"frame_rate,omitempty"`
	MovieCapacity   int     `json:"movie_capacity,omitempty"`
	MaxMovies       int     `json:"max_movies,omitempty"`
}

type FirmwareVersion struct {
	Response
	Version string `json:"version"`
}

// Parts splits a dotted firmware version into its numeric components, missing or
// non numeric components are zero
func (fw *FirmwareVersion) Parts() (parts [3]int) {
	for i, part := range strings.SplitN(fw.Version, ".", 3) {
		parts[i], _ = strconv.Atoi(strings.TrimSpace(part))
	}
	return parts
}

// AtMost compares the firmware version with a major, minor, and patch level
func (fw *FirmwareVersion) AtMost(major int, minor int, patch int) bool {
	parts := fw.Parts()
	for i, limit := range []int{major, minor, patch} {
		if parts[i] != limit {
			return parts[i] < limit
		}
	}
	return true
}

type Status struct {
	Response
}

type NetworkStatus struct {
	Response
	Mode    int             `json:"mode"`
	Station json.RawMessage `json:"station,omitempty"`
	AP      json.RawMessage `json:"ap,omitempty"`
}

type Mode struct {
	Response
	Mode     LedMode `json:"mode"`
	ID       int     `json:"id,omitempty"`
	UniqueID string  `json:"unique_id,omitempty"`
	EffectID int     `json:"effect_id,omitempty"`
	Name     string  `json:"name,omitempty"`
}

type ModeRequest struct {
	Mode LedMode `json:"mode"`
}

// Value carries brightness and saturation levels in percent
type Value struct {
	Response
	Mode  string `json:"mode,omitempty"`
	Value int    `json:"value"`
}

type ColorRequest struct {
	Red        *int `json:"red,omitempty"`
	Green      *int `json:"green,omitempty"`
	Blue       *int `json:"blue,omitempty"`
	White      *int `json:"white,omitempty"`
	Hue        *int `json:"hue,omitempty"`
	Saturation *int `json:"saturation,omitempty"`
	Value      *int `json:"value,omitempty"`
}

type ColorResponse struct {
	Response
	Red        int `json:"red"`
	Green      int `json:"green"`
	Blue       int `json:"blue"`
	White      int `json:"white"`
	Hue        int `json:"hue"`
	Saturation int `json:"saturation"`
	Value      int `json:"value"`
}

type LedConfig struct {
	Response
	Strings []LedString `json:"strings"`
}

type LedString struct {
	FirstLedID int `json:"first_led_id"`
	Length     int `json:"length"`
}

type Layout struct {
	Response
	Source      string       `json:"source"`
	Synthesized bool         `json:"synthesized"`
	Coordinates []Coordinate `json:"coordinates"`
	AspectXY    *int         `json:"aspectXY,omitempty"`
	AspectXZ    *int         `json:"aspectXZ,omitempty"`
}

type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type Effects struct {
	Response
	EffectsNumber int      `json:"effects_number"`
	UniqueIDs     []string `json:"unique_ids,omitempty"`
}

type CurrentEffect struct {
	Response
	EffectID int    `json:"effect_id"`
	UniqueID string `json:"unique_id,omitempty"`
}

type EffectRequest struct {
	EffectID int `json:"effect_id"`
}

type LedMovieConfig struct {
	Response
	FrameDelay   int `json:"frame_delay"`
	LedsNumber   int `json:"leds_number"`
	FramesNumber int `json:"frames_number"`
	LoopType     int `json:"loop_type,omitempty"`
}

type NewMovieRequest struct {
	Name           string `json:"name"`
	UniqueID       string `json:"unique_id"`
	DescriptorType string `json:"descriptor_type"`
	LedsPerFrame   int    `json:"leds_per_frame"`
	FramesNumber   int    `json:"frames_number"`
	FPS            int    `json:"fps"`
}

type Movie struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	UniqueID       string `json:"unique_id"`
	DescriptorType string `json:"descriptor_type"`
	LedsPerFrame   int    `json:"leds_per_frame"`
	FramesNumber   int    `json:"frames_number"`
	FPS            int    `json:"fps"`
}

type NewMovieResponse struct {
	Response
	ID int `json:"id"`
}

type Movies struct {
	Response
	Movies          []Movie `json:"movies"`
	AvailableFrames int     `json:"available_frames"`
	MaxCapacity     int     `json:"max_capacity"`
}

type CurrentMovie struct {
	Response
	ID       int    `json:"id"`
	UniqueID string `json:"unique_id,omitempty"`
	Name     string `json:"name,omitempty"`
}

type CurrentMovieRequest struct {
	ID int `json:"id"`
}

type PlaylistEntry struct {
	ID       int    `json:"id"`
	UniqueID string `json:"unique_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Duration int    `json:"duration"`
}

type Playlist struct {
	Response
	UniqueID string          `json:"unique_id,omitempty"`
	Name     string          `json:"name,omitempty"`
	Entries  []PlaylistEntry `json:"entries"`
}

type CurrentPlaylistEntry struct {
	Response
	ID       int    `json:"id"`
	UniqueID string `json:"unique_id,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Timer times are given in seconds after midnight, -1 disables the on or off time
type Timer struct {
	Response
	TimeNow int    `json:"time_now"`
	TimeOn  int    `json:"time_on"`
	TimeOff int    `json:"time_off"`
	TZ      string `json:"tz,omitempty"`
}

type MusicEnabled struct {
	Response
	Enabled int `json:"enabled"`
}

type MusicStats struct {
	Response
	Mood     int `json:"mood_index"`
	EffectID int `json:"effect_id"`
	Active   int `json:"active"`
}

// DeepCopy deepcopies the device information using json marshaling
func (info *DeviceInfo) DeepCopy() (cpy *DeviceInfo) {
	cpy = &DeviceInfo{}

	byt, _ := json.Marshal(info)
	json.Unmarshal(byt, cpy)
	return cpy
}

// DeepCopy deepcopies the movie catalog using json marshaling
func (movies *Movies) DeepCopy() (cpy *Movies) {
	cpy = &Movies{}

	byt, _ := json.Marshal(movies)
	json.Unmarshal(byt, cpy)
	return cpy
}
