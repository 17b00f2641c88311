package xled

// This file contains the device HTTP API.  Failures are logged by the session
// and returned to the caller together with an absent result.

import (
	"context"
	"math"
	"time"

	"github.com/go-stack/stack"
	"github.com/google/uuid"
	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/xled/color"
	"github.com/TeamNorCal/xled/frame"
	"github.com/TeamNorCal/xled/model"
)

const maxMovieName = 32

func (dev *Device) checked(resp model.Coded, path string) errors.Error {
	if code := resp.ResponseCode(); !code.IsOk() {
		return errors.Wrap(ErrInvalidArgument, "device rejected the request").With("host", dev.host).With("path", path).With("code", code.String()).With("stack", stack.Trace().TrimRuntime())
	}
	return nil
}

func (dev *Device) post(ctx context.Context, path string, in interface{}) (err errors.Error) {
	resp := &model.Response{}
	if err = dev.session.Post(ctx, path, in, resp); err != nil {
		return err
	}
	return dev.checked(resp, path)
}

// Info returns the gestalt of the device
func (dev *Device) Info(ctx context.Context) (info *model.DeviceInfo, err errors.Error) {
	info = &model.DeviceInfo{}
	if err = dev.session.GetPublic(ctx, "/gestalt", info); err != nil {
		return nil, err
	}
	return info, nil
}

func (dev *Device) FirmwareVersion(ctx context.Context) (fw *model.FirmwareVersion, err errors.Error) {
	fw = &model.FirmwareVersion{}
	if err = dev.session.GetPublic(ctx, "/fw/version", fw); err != nil {
		return nil, err
	}
	return fw, nil
}

// DetermineGeneration selects the real time protocol version from the firmware
// family and version
func (dev *Device) DetermineGeneration(ctx context.Context) (generation int, err errors.Error) {
	info, err := dev.Info(ctx)
	if err != nil {
		return 0, err
	}
	fw, err := dev.FirmwareVersion(ctx)
	if err != nil {
		return 0, err
	}
	return Generation(info.FwFamily, fw), nil
}

// Generation maps a firmware family and version to the real time protocol version
func Generation(family string, fw *model.FirmwareVersion) int {
	if family == "D" {
		switch {
		case fw.AtMost(2, 3, 8):
			return 1
		case fw.AtMost(2, 4, 6):
			return 2
		}
	}
	return 3
}

func (dev *Device) Status(ctx context.Context) (status *model.Status, err errors.Error) {
	status = &model.Status{}
	if err = dev.session.Get(ctx, "/status", status); err != nil {
		return nil, err
	}
	return status, nil
}

func (dev *Device) NetworkStatus(ctx context.Context) (status *model.NetworkStatus, err errors.Error) {
	status = &model.NetworkStatus{}
	if err = dev.session.Get(ctx, "/network/status", status); err != nil {
		return nil, err
	}
	return status, nil
}

func (dev *Device) Mode(ctx context.Context) (mode *model.Mode, err errors.Error) {
	mode = &model.Mode{}
	if err = dev.session.Get(ctx, "/led/mode", mode); err != nil {
		return nil, err
	}
	return mode, nil
}

func (dev *Device) SetMode(ctx context.Context, mode model.LedMode) (err errors.Error) {
	return dev.post(ctx, "/led/mode", &model.ModeRequest{Mode: mode})
}

func (dev *Device) Reset(ctx context.Context) (err errors.Error) {
	return dev.session.Get(ctx, "/led/reset", &model.Response{})
}

func (dev *Device) level(ctx context.Context, path string) (level float64, err errors.Error) {
	value := &model.Value{}
	if err = dev.session.Get(ctx, path, value); err != nil {
		return 0, err
	}
	return float64(value.Value) / 100.0, nil
}

func (dev *Device) setLevel(ctx context.Context, path string, level float64) (err errors.Error) {
	if math.IsNaN(level) || level < 0 || level > 1 {
		return errors.Wrap(ErrInvalidArgument, "level must be between 0 and 1").With("level", level).With("stack", stack.Trace().TrimRuntime())
	}
	return dev.post(ctx, path, &model.Value{Mode: "enabled", Value: int(math.Round(100 * level))})
}

// Brightness is returned in the range [0, 1]
func (dev *Device) Brightness(ctx context.Context) (brightness float64, err errors.Error) {
	return dev.level(ctx, "/led/out/brightness")
}

func (dev *Device) SetBrightness(ctx context.Context, brightness float64) (err errors.Error) {
	return dev.setLevel(ctx, "/led/out/brightness", brightness)
}

func (dev *Device) Saturation(ctx context.Context) (saturation float64, err errors.Error) {
	return dev.level(ctx, "/led/out/saturation")
}

func (dev *Device) SetSaturation(ctx context.Context, saturation float64) (err errors.Error) {
	return dev.setLevel(ctx, "/led/out/saturation", saturation)
}

// Color returns the color shown in color mode using the encoding of the device
func (dev *Device) Color(ctx context.Context) (c color.Color, err errors.Error) {
	resp := &model.ColorResponse{}
	if err = dev.session.Get(ctx, "/led/color", resp); err != nil {
		return color.Black, err
	}
	if dev.BytesPerLed() == 4 {
		return color.NewRGBW(resp.Red, resp.Green, resp.Blue, resp.White), nil
	}
	return color.NewRGB(resp.Red, resp.Green, resp.Blue), nil
}

func (dev *Device) SetColor(ctx context.Context, c color.Color) (err errors.Error) {
	ref := func(v int) *int { return &v }

	req := &model.ColorRequest{}
	switch c.Kind() {
	case color.HSV:
		req.Hue = ref(int(math.Round(c.H())))
		req.Saturation = ref(int(math.Round(c.S() / 100.0 * 255.0)))
		req.Value = ref(int(math.Round(c.V() / 100.0 * 255.0)))
	default:
		if dev.BytesPerLed() == 4 {
			c = c.To(color.RGBW)
			req.White = ref(c.W())
		}
		req.Red, req.Green, req.Blue = ref(c.R()), ref(c.G()), ref(c.B())
	}
	return dev.post(ctx, "/led/color", req)
}

func (dev *Device) LedConfig(ctx context.Context) (cfg *model.LedConfig, err errors.Error) {
	cfg = &model.LedConfig{}
	if err = dev.session.Get(ctx, "/led/config", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (dev *Device) Layout(ctx context.Context) (layout *model.Layout, err errors.Error) {
	layout = &model.Layout{}
	if err = dev.session.Get(ctx, "/led/layout/full", layout); err != nil {
		return nil, err
	}
	return layout, nil
}

func (dev *Device) Effects(ctx context.Context) (effects *model.Effects, err errors.Error) {
	effects = &model.Effects{}
	if err = dev.session.Get(ctx, "/led/effects", effects); err != nil {
		return nil, err
	}
	return effects, nil
}

func (dev *Device) CurrentEffect(ctx context.Context) (effect *model.CurrentEffect, err errors.Error) {
	effect = &model.CurrentEffect{}
	if err = dev.session.Get(ctx, "/led/effects/current", effect); err != nil {
		return nil, err
	}
	return effect, nil
}

func (dev *Device) SetCurrentEffect(ctx context.Context, id int) (err errors.Error) {
	return dev.post(ctx, "/led/effects/current", &model.EffectRequest{EffectID: id})
}

func (dev *Device) MovieConfig(ctx context.Context) (cfg *model.LedMovieConfig, err errors.Error) {
	cfg = &model.LedMovieConfig{}
	if err = dev.session.Get(ctx, "/led/movie/config", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (dev *Device) SetMovieConfig(ctx context.Context, cfg *model.LedMovieConfig) (err errors.Error) {
	return dev.post(ctx, "/led/movie/config", cfg)
}

func (dev *Device) Movies(ctx context.Context) (movies *model.Movies, err errors.Error) {
	movies = &model.Movies{}
	if err = dev.session.Get(ctx, "/movies", movies); err != nil {
		return nil, err
	}
	return movies, nil
}

func (dev *Device) DeleteMovies(ctx context.Context) (err errors.Error) {
	resp := &model.Response{}
	if err = dev.session.Delete(ctx, "/movies", resp); err != nil {
		return err
	}
	return dev.checked(resp, "/movies")
}

func (dev *Device) CurrentMovie(ctx context.Context) (movie *model.CurrentMovie, err errors.Error) {
	movie = &model.CurrentMovie{}
	if err = dev.session.Get(ctx, "/movies/current", movie); err != nil {
		return nil, err
	}
	return movie, nil
}

func (dev *Device) SetCurrentMovie(ctx context.Context, id int) (err errors.Error) {
	return dev.post(ctx, "/movies/current", &model.CurrentMovieRequest{ID: id})
}

func (dev *Device) Playlist(ctx context.Context) (playlist *model.Playlist, err errors.Error) {
	playlist = &model.Playlist{}
	if err = dev.session.Get(ctx, "/playlist", playlist); err != nil {
		return nil, err
	}
	return playlist, nil
}

func (dev *Device) CurrentPlaylistEntry(ctx context.Context) (entry *model.CurrentPlaylistEntry, err errors.Error) {
	entry = &model.CurrentPlaylistEntry{}
	if err = dev.session.Get(ctx, "/playlist/current", entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (dev *Device) MusicEnabled(ctx context.Context) (enabled bool, err errors.Error) {
	resp := &model.MusicEnabled{}
	if err = dev.session.Get(ctx, "/music/enabled", resp); err != nil {
		return false, err
	}
	return resp.Enabled != 0, nil
}

func (dev *Device) MusicStats(ctx context.Context) (stats *model.MusicStats, err errors.Error) {
	stats = &model.MusicStats{}
	if err = dev.session.Get(ctx, "/music/stats", stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (dev *Device) Timer(ctx context.Context) (timer *model.Timer, err errors.Error) {
	timer = &model.Timer{}
	if err = dev.session.Get(ctx, "/timer", timer); err != nil {
		return nil, err
	}
	return timer, nil
}

func (dev *Device) SetTimer(ctx context.Context, timer *model.Timer) (err errors.Error) {
	return dev.post(ctx, "/timer", timer)
}

func secondsAfterMidnight(tm time.Time) int {
	return tm.Hour()*3600 + tm.Minute()*60 + tm.Second()
}

// SetTimerClock switches the device on and off at the wall clock times of on and
// off each day
func (dev *Device) SetTimerClock(ctx context.Context, on time.Time, off time.Time) (err errors.Error) {
	return dev.SetTimer(ctx, &model.Timer{
		TimeNow: secondsAfterMidnight(time.Now()),
		TimeOn:  secondsAfterMidnight(on),
		TimeOff: secondsAfterMidnight(off),
	})
}

func (dev *Device) Logout(ctx context.Context) (err errors.Error) {
	return dev.session.Logout(ctx)
}

// PowerOn restores the first of the playlist, movie, and effect modes the device
// accepts
func (dev *Device) PowerOn(ctx context.Context) (err errors.Error) {
	for _, mode := range []model.LedMode{model.ModePlaylist, model.ModeMovie, model.ModeEffect} {
		if err = dev.SetMode(ctx, mode); err == nil {
			return nil
		}
		logger.Debug("power on mode refused", "host", dev.host, "mode", mode, "error", err.Error())
	}
	return err
}

func (dev *Device) PowerOff(ctx context.Context) (err errors.Error) {
	return dev.SetMode(ctx, model.ModeOff)
}

// ShowFrame uploads a single frame as a movie and plays it
func (dev *Device) ShowFrame(ctx context.Context, name string, f *frame.Frame) (err errors.Error) {
	return dev.ShowSequence(ctx, name, frame.NewSequence(time.Second, f))
}

// ShowSequence replaces the movies stored on the device with the frames of the
// sequence and plays them in movie mode
func (dev *Device) ShowSequence(ctx context.Context, name string, seq *frame.Sequence) (err errors.Error) {
	frames := seq.Frames()
	if len(frames) == 0 {
		return errors.Wrap(ErrInvalidArgument, "sequence has no frames").With("stack", stack.Trace().TrimRuntime())
	}

	fps := 1
	if seq.FrameDelay > 0 {
		fps = max(1, int(time.Second/seq.FrameDelay))
	}
	if len(name) > maxMovieName {
		name = name[:maxMovieName]
	}
	leds := frames[0].Len()
	bytesPerLed := dev.BytesPerLed()
	descriptor := "rgb_raw"
	if bytesPerLed == 4 {
		descriptor = "rgbw_raw"
	}

	if err = dev.SetColor(ctx, color.Black); err != nil {
		return err
	}
	if err = dev.SetMode(ctx, model.ModeColor); err != nil {
		return err
	}
	if err = dev.DeleteMovies(ctx); err != nil {
		return err
	}

	movie := &model.NewMovieResponse{}
	req := &model.NewMovieRequest{
		Name:           name,
		UniqueID:       uuid.New().String(),
		DescriptorType: descriptor,
		LedsPerFrame:   leds,
		FramesNumber:   len(frames),
		FPS:            fps,
	}
	if err = dev.session.Post(ctx, "/movies/new", req, movie); err != nil {
		return err
	}
	if err = dev.checked(movie, "/movies/new"); err != nil {
		return err
	}

	if err = dev.post(ctx, "/movies/full", seq.ToBytes(bytesPerLed)); err != nil {
		return err
	}
	if err = dev.SetMovieConfig(ctx, &model.LedMovieConfig{
		FrameDelay:   1000 / fps,
		LedsNumber:   leds,
		FramesNumber: len(frames),
	}); err != nil {
		return err
	}
	if err = dev.SetCurrentMovie(ctx, movie.ID); err != nil {
		return err
	}
	return dev.SetMode(ctx, model.ModeMovie)
}
