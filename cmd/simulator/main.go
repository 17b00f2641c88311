package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	logxi "github.com/mgutz/logxi/v1"

	"github.com/TeamNorCal/xled/simulator"
)

var (
	listen      = flag.String("listen", ":8080", "Address to bind the HTTP API to")
	udpListen   = flag.String("udp", ":7777", "Address to receive real time frames on")
	width       = flag.Int("width", 10, "Width of the simulated device in LEDs")
	height      = flag.Int("height", 21, "Height of the simulated device in LEDs")
	bytesPerLed = flag.Int("bytes-per-led", 3, "3 for RGB devices, 4 for RGBW devices")
	family      = flag.String("family", "G", "Firmware family reported by the device")
	fwVersion   = flag.String("fw", "2.8.18", "Firmware version reported by the device")
	lifetime    = flag.Duration("token-lifetime", 4*time.Hour, "Lifetime of the authentication tokens handed out")
	show        = flag.Bool("show", false, "Print every received frame to the terminal")
)

var (
	// create Logger interface
	logW = logxi.NewLogger(logxi.NewConcurrentWriter(os.Stdout), "xled-simulator")
)

func main() {

	flag.Parse()

	gin.SetMode(gin.ReleaseMode)

	dev := simulator.New(simulator.Config{
		Width:         *width,
		Height:        *height,
		BytesPerLed:   *bytesPerLed,
		FwFamily:      *family,
		FwVersion:     *fwVersion,
		TokenLifetime: *lifetime,
	}, logW)

	quitC := make(chan struct{})
	stopC := make(chan os.Signal, 1)
	signal.Notify(stopC, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stopC
		close(quitC)
		os.Exit(0)
	}()

	addr, err := dev.ListenUDP(*udpListen, quitC)
	if err != nil {
		logxi.Fatal(err.Error())
		os.Exit(-1)
	}
	logW.Info("real time frames", "addr", addr.String())

	go watchFrames(dev, quitC)

	logW.Info("device api", "addr", *listen, "width", *width, "height", *height)
	if errGo := http.ListenAndServe(*listen, dev.Router()); errGo != nil {
		logW.Warn(errGo.Error())
	}
}

// watchFrames reports the frames as they are completed
func watchFrames(dev *simulator.Device, quitC <-chan struct{}) {
	received := 0
	for {
		select {
		case data := <-dev.Frames():
			received++
			logW.Debug("frame received", "frame", received, "bytes", len(data))
			if *show {
				cfg := dev.Config()
				f := simulator.Decode(data, cfg.Width, cfg.Height, cfg.BytesPerLed)
				fmt.Print("\x1b[H", f.String(), "\n")
			}
		case <-quitC:
			return
		}
	}
}
