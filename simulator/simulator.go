package simulator

// This module implements a simulated LED device.  It serves the xled HTTP API
// from memory and accepts real time frames over UDP so that the controller can
// be exercised without hardware.

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	logxi "github.com/mgutz/logxi/v1"

	"github.com/TeamNorCal/xled/model"
)

// Config describes the simulated hardware
type Config struct {
	Name        string
	Width       int
	Height      int
	BytesPerLed int
	FwFamily    string
	FwVersion   string
	// TokenLifetime is reported to clients as the token expiry
	TokenLifetime time.Duration
}

type Device struct {
	cfg    Config
	logger logxi.Logger

	token        string
	pendingToken string
	expires      time.Time
	logins       int
	requests     map[string]int

	mode         model.LedMode
	brightness   int
	saturation   int
	color        model.ColorResponse
	effect       int
	movies       []model.Movie
	movieData    []byte
	movieConfig  model.LedMovieConfig
	currentMovie int
	timer        model.Timer

	frames    *assembler
	lastFrame []byte
	frameC    chan []byte

	sync.Mutex
}

func New(cfg Config, logger logxi.Logger) (dev *Device) {
	if cfg.BytesPerLed == 0 {
		cfg.BytesPerLed = 3
	}
	if len(cfg.FwFamily) == 0 {
		cfg.FwFamily = "G"
	}
	if len(cfg.FwVersion) == 0 {
		cfg.FwVersion = "2.8.18"
	}
	if cfg.TokenLifetime <= 0 {
		cfg.TokenLifetime = 4 * time.Hour
	}
	if len(cfg.Name) == 0 {
		cfg.Name = "xled-simulator"
	}
	if logger == nil {
		logger = logxi.New("simulator")
	}
	return &Device{
		cfg:        cfg,
		logger:     logger,
		requests:   map[string]int{},
		mode:       model.ModeMovie,
		brightness: 100,
		saturation: 100,
		timer:      model.Timer{TimeOn: -1, TimeOff: -1},
		frameC:     make(chan []byte, 16),
	}
}

func (dev *Device) Config() Config { return dev.cfg }

// Logins is the number of successful challenges issued
func (dev *Device) Logins() int {
	dev.Lock()
	defer dev.Unlock()
	return dev.logins
}

// Requests is the number of calls received for an API path
func (dev *Device) Requests(path string) int {
	dev.Lock()
	defer dev.Unlock()
	return dev.requests[path]
}

func (dev *Device) Mode() model.LedMode {
	dev.Lock()
	defer dev.Unlock()
	return dev.mode
}

// Movies returns the movies currently stored together with the uploaded frame data
func (dev *Device) Movies() (movies []model.Movie, data []byte, cfg model.LedMovieConfig) {
	dev.Lock()
	defer dev.Unlock()
	return append([]model.Movie{}, dev.movies...), append([]byte{}, dev.movieData...), dev.movieConfig
}

// ExpireToken makes the current token invalid as if its lifetime had passed
func (dev *Device) ExpireToken() {
	dev.Lock()
	defer dev.Unlock()
	dev.expires = time.Now().Add(-time.Second)
}

func (dev *Device) newToken() string {
	raw := make([]byte, 8)
	rand.Read(raw)
	return base64.StdEncoding.EncodeToString(raw)
}

// Router returns the HTTP API of the device rooted at /xled/v1
func (dev *Device) Router() (router *gin.Engine) {
	router = gin.New()
	router.Use(gin.Recovery(), dev.count)

	api := router.Group("/xled/v1")
	api.POST("/login", dev.login)
	api.POST("/verify", dev.verify)
	api.GET("/gestalt", dev.gestalt)
	api.GET("/fw/version", dev.fwVersion)

	auth := api.Group("", dev.authorize)
	auth.POST("/logout", dev.logout)
	auth.GET("/status", dev.ok)
	auth.GET("/network/status", dev.networkStatus)
	auth.GET("/led/mode", dev.getMode)
	auth.POST("/led/mode", dev.setMode)
	auth.GET("/led/reset", dev.ok)
	auth.GET("/led/out/brightness", dev.getLevel(&dev.brightness))
	auth.POST("/led/out/brightness", dev.setLevel(&dev.brightness))
	auth.GET("/led/out/saturation", dev.getLevel(&dev.saturation))
	auth.POST("/led/out/saturation", dev.setLevel(&dev.saturation))
	auth.GET("/led/color", dev.getColor)
	auth.POST("/led/color", dev.setColor)
	auth.GET("/led/config", dev.ledConfig)
	auth.GET("/led/layout/full", dev.layout)
	auth.GET("/led/effects", dev.effects)
	auth.GET("/led/effects/current", dev.getEffect)
	auth.POST("/led/effects/current", dev.setEffect)
	auth.GET("/led/movie/config", dev.getMovieConfig)
	auth.POST("/led/movie/config", dev.setMovieConfig)
	auth.GET("/movies", dev.getMovies)
	auth.DELETE("/movies", dev.deleteMovies)
	auth.POST("/movies/new", dev.newMovie)
	auth.POST("/movies/full", dev.uploadMovie)
	auth.GET("/movies/current", dev.getCurrentMovie)
	auth.POST("/movies/current", dev.setCurrentMovie)
	auth.GET("/playlist", dev.playlist)
	auth.GET("/playlist/current", dev.playlistCurrent)
	auth.GET("/music/enabled", dev.musicEnabled)
	auth.GET("/music/stats", dev.musicStats)
	auth.GET("/timer", dev.getTimer)
	auth.POST("/timer", dev.setTimer)

	return router
}

func (dev *Device) count(c *gin.Context) {
	dev.Lock()
	dev.requests[c.Request.Method+" "+c.Request.URL.Path]++
	dev.Unlock()
	c.Next()
	dev.logger.Debug("request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status())
}

func (dev *Device) authorize(c *gin.Context) {
	dev.Lock()
	valid := len(dev.token) != 0 && c.GetHeader("X-Auth-Token") == dev.token && time.Now().Before(dev.expires)
	dev.Unlock()
	if !valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, model.Response{Code: model.CodeError})
		return
	}
	c.Next()
}

func (dev *Device) ok(c *gin.Context) {
	c.JSON(http.StatusOK, model.Response{Code: model.CodeOk})
}

func (dev *Device) malformed(c *gin.Context) {
	c.JSON(http.StatusOK, model.Response{Code: model.CodeMalformedJSON})
}

func (dev *Device) login(c *gin.Context) {
	req := &model.LoginRequest{}
	if errGo := c.ShouldBindJSON(req); errGo != nil || len(req.Challenge) == 0 {
		dev.malformed(c)
		return
	}
	sum := sha1.Sum([]byte(req.Challenge))

	dev.Lock()
	dev.pendingToken = dev.newToken()
	token := dev.pendingToken
	dev.Unlock()

	c.JSON(http.StatusOK, model.LoginResponse{
		Response:            model.Response{Code: model.CodeOk},
		AuthenticationToken: token,
		ExpiresIn:           int64(dev.cfg.TokenLifetime / time.Second),
		ChallengeResponse:   hex.EncodeToString(sum[:]),
	})
}

func (dev *Device) verify(c *gin.Context) {
	dev.Lock()
	defer dev.Unlock()

	if len(dev.pendingToken) == 0 || c.GetHeader("X-Auth-Token") != dev.pendingToken {
		c.JSON(http.StatusUnauthorized, model.Response{Code: model.CodeError})
		return
	}
	dev.token = dev.pendingToken
	dev.pendingToken = ""
	dev.expires = time.Now().Add(dev.cfg.TokenLifetime)
	dev.logins++
	c.JSON(http.StatusOK, model.Response{Code: model.CodeOk})
}

func (dev *Device) logout(c *gin.Context) {
	dev.Lock()
	dev.token = ""
	dev.Unlock()
	dev.ok(c)
}

func (dev *Device) gestalt(c *gin.Context) {
	c.JSON(http.StatusOK, model.DeviceInfo{
		Response:        model.Response{Code: model.CodeOk},
		ProductName:     "Twinkly",
		DeviceName:      dev.cfg.Name,
		BytesPerLed:     dev.cfg.BytesPerLed,
		FwFamily:        dev.cfg.FwFamily,
		NumberOfLed:     dev.cfg.Width * dev.cfg.Height,
		MaxSupportedLed: dev.cfg.Width * dev.cfg.Height,
		LedProfile:      profile(dev.cfg.BytesPerLed),
		MaxMovies:       15,
	})
}

func profile(bytesPerLed int) string {
	if bytesPerLed == 4 {
		return "RGBW"
	}
	return "RGB"
}

func (dev *Device) fwVersion(c *gin.Context) {
	c.JSON(http.StatusOK, model.FirmwareVersion{Response: model.Response{Code: model.CodeOk}, Version: dev.cfg.FwVersion})
}

func (dev *Device) networkStatus(c *gin.Context) {
	c.JSON(http.StatusOK, model.NetworkStatus{Response: model.Response{Code: model.CodeOk}, Mode: 1})
}

func (dev *Device) getMode(c *gin.Context) {
	dev.Lock()
	defer dev.Unlock()
	c.JSON(http.StatusOK, model.Mode{Response: model.Response{Code: model.CodeOk}, Mode: dev.mode})
}

func (dev *Device) setMode(c *gin.Context) {
	req := &model.ModeRequest{}
	if errGo := c.ShouldBindJSON(req); errGo != nil {
		dev.malformed(c)
		return
	}
	switch req.Mode {
	case model.ModeColor, model.ModeDemo, model.ModeEffect, model.ModeMovie, model.ModeOff, model.ModeRealTime:
	case model.ModePlaylist:
		// The simulator has no playlist, devices without one refuse the mode
		c.JSON(http.StatusOK, model.Response{Code: model.CodeInvalidArgument})
		return
	default:
		c.JSON(http.StatusOK, model.Response{Code: model.CodeInvalidArgument})
		return
	}
	dev.Lock()
	dev.mode = req.Mode
	dev.Unlock()
	dev.ok(c)
}

func (dev *Device) getLevel(level *int) gin.HandlerFunc {
	return func(c *gin.Context) {
		dev.Lock()
		defer dev.Unlock()
		c.JSON(http.StatusOK, model.Value{Response: model.Response{Code: model.CodeOk}, Mode: "enabled", Value: *level})
	}
}

func (dev *Device) setLevel(level *int) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := &model.Value{}
		if errGo := c.ShouldBindJSON(req); errGo != nil || req.Value < 0 || req.Value > 100 {
			c.JSON(http.StatusOK, model.Response{Code: model.CodeInvalidArgument})
			return
		}
		dev.Lock()
		*level = req.Value
		dev.Unlock()
		dev.ok(c)
	}
}

func (dev *Device) getColor(c *gin.Context) {
	dev.Lock()
	defer dev.Unlock()
	resp := dev.color
	resp.Code = model.CodeOk
	c.JSON(http.StatusOK, resp)
}

func (dev *Device) setColor(c *gin.Context) {
	req := &model.ColorRequest{}
	if errGo := c.ShouldBindJSON(req); errGo != nil {
		dev.malformed(c)
		return
	}
	val := func(v *int) int {
		if v == nil {
			return 0
		}
		return *v
	}
	dev.Lock()
	dev.color = model.ColorResponse{
		Red:        val(req.Red),
		Green:      val(req.Green),
		Blue:       val(req.Blue),
		White:      val(req.White),
		Hue:        val(req.Hue),
		Saturation: val(req.Saturation),
		Value:      val(req.Value),
	}
	dev.Unlock()
	dev.ok(c)
}

func (dev *Device) ledConfig(c *gin.Context) {
	c.JSON(http.StatusOK, model.LedConfig{
		Response: model.Response{Code: model.CodeOk},
		Strings:  []model.LedString{{FirstLedID: 0, Length: dev.cfg.Width * dev.cfg.Height}},
	})
}

func (dev *Device) layout(c *gin.Context) {
	coords := make([]model.Coordinate, 0, dev.cfg.Width*dev.cfg.Height)
	for x := 0; x < dev.cfg.Width; x++ {
		for y := 0; y < dev.cfg.Height; y++ {
			coords = append(coords, model.Coordinate{X: float64(x) / float64(max(1, dev.cfg.Width-1)), Y: float64(y) / float64(max(1, dev.cfg.Height-1))})
		}
	}
	c.JSON(http.StatusOK, model.Layout{Response: model.Response{Code: model.CodeOk}, Source: "2d", Coordinates: coords})
}

func (dev *Device) effects(c *gin.Context) {
	c.JSON(http.StatusOK, model.Effects{Response: model.Response{Code: model.CodeOk}, EffectsNumber: 5})
}

func (dev *Device) getEffect(c *gin.Context) {
	dev.Lock()
	defer dev.Unlock()
	c.JSON(http.StatusOK, model.CurrentEffect{Response: model.Response{Code: model.CodeOk}, EffectID: dev.effect})
}

func (dev *Device) setEffect(c *gin.Context) {
	req := &model.EffectRequest{}
	if errGo := c.ShouldBindJSON(req); errGo != nil || req.EffectID < 0 || req.EffectID >= 5 {
		c.JSON(http.StatusOK, model.Response{Code: model.CodeInvalidArgument})
		return
	}
	dev.Lock()
	dev.effect = req.EffectID
	dev.Unlock()
	dev.ok(c)
}

func (dev *Device) getMovieConfig(c *gin.Context) {
	dev.Lock()
	defer dev.Unlock()
	resp := dev.movieConfig
	resp.Code = model.CodeOk
	c.JSON(http.StatusOK, resp)
}

func (dev *Device) setMovieConfig(c *gin.Context) {
	req := &model.LedMovieConfig{}
	if errGo := c.ShouldBindJSON(req); errGo != nil {
		dev.malformed(c)
		return
	}
	dev.Lock()
	dev.movieConfig = *req
	dev.Unlock()
	dev.ok(c)
}

func (dev *Device) getMovies(c *gin.Context) {
	dev.Lock()
	defer dev.Unlock()
	c.JSON(http.StatusOK, model.Movies{
		Response:        model.Response{Code: model.CodeOk},
		Movies:          append([]model.Movie{}, dev.movies...),
		AvailableFrames: 992,
		MaxCapacity:     992,
	})
}

func (dev *Device) deleteMovies(c *gin.Context) {
	dev.Lock()
	dev.movies = nil
	dev.movieData = nil
	dev.currentMovie = 0
	dev.Unlock()
	dev.ok(c)
}

func (dev *Device) newMovie(c *gin.Context) {
	req := &model.NewMovieRequest{}
	if errGo := c.ShouldBindJSON(req); errGo != nil {
		dev.malformed(c)
		return
	}
	if len(req.Name) > 32 {
		c.JSON(http.StatusOK, model.Response{Code: model.CodeValueTooLong})
		return
	}
	dev.Lock()
	id := len(dev.movies)
	dev.movies = append(dev.movies, model.Movie{
		ID:             id,
		Name:           req.Name,
		UniqueID:       req.UniqueID,
		DescriptorType: req.DescriptorType,
		LedsPerFrame:   req.LedsPerFrame,
		FramesNumber:   req.FramesNumber,
		FPS:            req.FPS,
	})
	dev.Unlock()
	c.JSON(http.StatusOK, model.NewMovieResponse{Response: model.Response{Code: model.CodeOk}, ID: id})
}

func (dev *Device) uploadMovie(c *gin.Context) {
	data, errGo := c.GetRawData()
	if errGo != nil {
		dev.malformed(c)
		return
	}
	dev.Lock()
	dev.movieData = data
	dev.Unlock()
	dev.ok(c)
}

func (dev *Device) getCurrentMovie(c *gin.Context) {
	dev.Lock()
	defer dev.Unlock()
	resp := model.CurrentMovie{Response: model.Response{Code: model.CodeOk}, ID: dev.currentMovie}
	if dev.currentMovie < len(dev.movies) {
		resp.Name = dev.movies[dev.currentMovie].Name
		resp.UniqueID = dev.movies[dev.currentMovie].UniqueID
	}
	c.JSON(http.StatusOK, resp)
}

func (dev *Device) setCurrentMovie(c *gin.Context) {
	req := &model.CurrentMovieRequest{}
	if errGo := c.ShouldBindJSON(req); errGo != nil {
		dev.malformed(c)
		return
	}
	dev.Lock()
	defer dev.Unlock()
	if req.ID < 0 || req.ID >= len(dev.movies) {
		c.JSON(http.StatusOK, model.Response{Code: model.CodeInvalidArgument})
		return
	}
	dev.currentMovie = req.ID
	c.JSON(http.StatusOK, model.Response{Code: model.CodeOk})
}

func (dev *Device) playlist(c *gin.Context) {
	c.JSON(http.StatusOK, model.Playlist{Response: model.Response{Code: model.CodeOk}, Entries: []model.PlaylistEntry{}})
}

func (dev *Device) playlistCurrent(c *gin.Context) {
	c.JSON(http.StatusOK, model.CurrentPlaylistEntry{Response: model.Response{Code: model.CodeOk}})
}

func (dev *Device) musicEnabled(c *gin.Context) {
	c.JSON(http.StatusOK, model.MusicEnabled{Response: model.Response{Code: model.CodeOk}})
}

func (dev *Device) musicStats(c *gin.Context) {
	c.JSON(http.StatusOK, model.MusicStats{Response: model.Response{Code: model.CodeOk}})
}

func (dev *Device) getTimer(c *gin.Context) {
	dev.Lock()
	defer dev.Unlock()
	resp := dev.timer
	resp.Code = model.CodeOk
	now := time.Now()
	resp.TimeNow = now.Hour()*3600 + now.Minute()*60 + now.Second()
	c.JSON(http.StatusOK, resp)
}

func (dev *Device) setTimer(c *gin.Context) {
	req := &model.Timer{}
	if errGo := c.ShouldBindJSON(req); errGo != nil {
		dev.malformed(c)
		return
	}
	if req.TimeOn < -1 || req.TimeOn >= 86400 || req.TimeOff < -1 || req.TimeOff >= 86400 {
		c.JSON(http.StatusOK, model.Response{Code: model.CodeInvalidArgument})
		return
	}
	dev.Lock()
	dev.timer = *req
	dev.Unlock()
	dev.ok(c)
}
