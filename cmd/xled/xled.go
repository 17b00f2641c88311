package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	logxi "github.com/mgutz/logxi/v1"

	"github.com/TeamNorCal/xled"
	"github.com/TeamNorCal/xled/color"
	"github.com/TeamNorCal/xled/config"
	"github.com/TeamNorCal/xled/frame"
	"github.com/TeamNorCal/xled/preview"
	"github.com/TeamNorCal/xled/transition"
	"github.com/TeamNorCal/xled/version"

	"github.com/karlmutch/envflag" // Forked copy of https://github.com/GoBike/envflag
)

var (
	logger = logxi.New("xled")

	verbose = flag.Bool("v", false, "When enabled will print internal logging for this tool")

	layoutFile = flag.String("layout", "", "YAML file describing the devices of the array")
	host       = flag.String("host", "", "Address of a single device, used when no layout is given")
	width      = flag.Int("width", 10, "Width in LEDs of the single device")
	height     = flag.Int("height", 21, "Height in LEDs of the single device")

	play      = flag.String("play", "", "Presentation directory, animated GIF, or PNG image to play")
	banner    = flag.String("banner", "", "Text scrolled across the array")
	fgColor   = flag.String("fg", "#ffffff", "Banner text color")
	maxFrames = flag.Int("max-frames", 0, "Limit on the frames loaded from a directory or GIF, 0 loads all")

	loop       = flag.Int("loop", -1, "Passes through the presentation, negative plays forever")
	random     = flag.Bool("random", false, "Play the children of the presentation in random order")
	frameDelay = flag.Duration("frame-delay", 0, "Overrides the frame delay of the presentation")
	transType  = flag.String("transition", "straight", "Transition between children, one of "+strings.Join(typeNames(), ", "))
	direction  = flag.String("direction", "left_right", "Transition direction")
	blend      = flag.String("blend", "average", "Transition blend mode")
	duration   = flag.Duration("duration", transition.DefaultDuration, "Duration of each transition")
	stepDelay  = flag.Duration("transition-delay", transition.DefaultFrameDelay, "Delay between the steps of a transition")

	upload = flag.Bool("upload", false, "Upload the presentation as a movie to a single device rather than streaming it")

	power      = flag.String("power", "", "Switch the devices on or off before playing")
	brightness = flag.Float64("brightness", -1, "Brightness of the devices between 0 and 1, negative leaves it unchanged")

	previewAddr = flag.String("preview", "", "Address for the web preview, for example :8090")
	opcServer   = flag.String("opc", "", "OPC server mirroring the frames, for example 127.0.0.1:7890")
	opcChannel  = flag.Int("opc-channel", 0, "OPC channel of the mirror")
	useTerminal = flag.Bool("terminal", false, "Draw the frames in this terminal instead of sending them to devices")
)

func typeNames() (names []string) {
	for _, t := range transition.Types() {
		names = append(names, t.String())
	}
	return names
}

func usage() {
	fmt.Fprintln(os.Stderr, path.Base(os.Args[0]))
	fmt.Fprintln(os.Stderr, "usage: ", os.Args[0], "[options]       frames → HTTP/UDP → LED devices (xled)      ", version.GitHash, "    ", version.BuildTime)
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "xled plays images, animations, and banners on arrays of network LED devices")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Options:")
	fmt.Fprintln(os.Stderr, "")
	flag.PrintDefaults()
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Environment Variables:")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "options can also be extracted from environment variables by changing dashes '-' to underscores and using upper case.")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "log levels are handled by the LOGXI env variables, these are documented at https://github.com/mgutz/logxi")
}

func init() {
	flag.Usage = usage
}

func main() {

	// Parse the CLI flags
	if !flag.Parsed() {
		envflag.Parse()
	}

	// Debug logging only when asked for, the output of this tool is often piped
	if *verbose {
		logger.SetLevel(logxi.LevelDebug)
	}

	logger.Debug(fmt.Sprintf("%s built at %s, against commit id %s\n", os.Args[0], version.BuildTime, version.GitHash))

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(-1)
	}
}

func run() (err errors.Error) {
	quitC := make(chan struct{})
	errorC := make(chan errors.Error, 8)

	stopOnce := sync.Once{}
	stop := func() { stopOnce.Do(func() { close(quitC) }) }

	stopC := make(chan os.Signal, 1)
	signal.Notify(stopC, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stopC
		logger.Info("stopping")
		stop()
	}()

	go msgWatch(errorC, quitC)

	layout, err := loadLayout()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-quitC
		cancel()
	}()

	var display xled.Display
	var devices []*xled.Device
	if *useTerminal {
		term, err := startTerminal(layout, stop)
		if err != nil {
			return err
		}
		defer term.Fini()
		display = term.sink
	} else {
		arr, devs, err := layout.Array()
		if err != nil {
			return err
		}
		defer func() {
			for _, dev := range devs {
				dev.Close()
			}
		}()
		for _, dev := range devs {
			// Unreachable devices are retried on every request
			dev.Connect(ctx)
		}
		if err = control(ctx, arr); err != nil {
			return err
		}
		display, devices = arr, devs
	}

	w, h := display.Size()
	playable, err := load(w, h)
	if err != nil {
		return err
	}
	if playable == nil {
		return nil
	}

	if *upload {
		return uploadMovie(ctx, devices, playable)
	}

	gw := &xled.Gateway{}
	if layout.OPC != nil {
		gw.OPCServer, gw.OPCChannel = layout.OPC.Server, layout.OPC.Channel
	}
	fan := gw.Start(w, h, errorC, quitC)

	if len(layout.Preview) != 0 {
		srv := preview.New()
		srv.Follow(fan.Subscribe(), quitC)
		srv.ListenAndServe(layout.Preview, errorC, quitC)
	}
	go runMonitoring(fan, quitC)

	opts, err := playOptions()
	if err != nil {
		return err
	}
	player, err := xled.NewPlayer(playable, fan)
	if err != nil {
		return err
	}
	pb := player.Start(ctx, display, opts, errorC)

	select {
	case <-pb.Done():
	case <-quitC:
		pb.Stop()
	}
	logger.Info("playback ended", "state", player.State().String())
	return nil
}

// loadLayout reads the layout file or describes the single device given on the
// command line, the command line settings for the mirrors take precedence
func loadLayout() (layout *config.Layout, err errors.Error) {
	switch {
	case len(*layoutFile) != 0:
		if layout, err = config.Load(*layoutFile); err != nil {
			return nil, err
		}
	case len(*host) != 0 || *useTerminal:
		layout = &config.Layout{
			Columns: [][]config.Device{{{Host: *host, Width: *width, Height: *height}}},
		}
	default:
		return nil, errors.Wrap(xled.ErrInvalidArgument, "either a layout or a host is needed").With("stack", stack.Trace().TrimRuntime())
	}
	if len(*opcServer) != 0 {
		layout.OPC = &config.OPC{Server: *opcServer, Channel: uint8(*opcChannel)}
	}
	if len(*previewAddr) != 0 {
		layout.Preview = *previewAddr
	}
	return layout, nil
}

// control applies the power and brightness flags
func control(ctx context.Context, arr *xled.Array) (err errors.Error) {
	switch strings.ToLower(*power) {
	case "":
	case "on":
		if err = arr.PowerOn(ctx); err != nil {
			return err
		}
	case "off":
		return arr.PowerOff(ctx)
	default:
		return errors.Wrap(xled.ErrMalformedInput, "power must be on or off").With("power", *power).With("stack", stack.Trace().TrimRuntime())
	}
	if *brightness >= 0 {
		return arr.SetBrightness(ctx, *brightness)
	}
	return nil
}

// load builds the presentation for a canvas of the given size, nil is returned
// when there is nothing to play
func load(w int, h int) (playable frame.Playable, err errors.Error) {
	var seq *frame.Sequence
	switch {
	case len(*banner) != 0:
		fg, err := color.ParseHex(*fgColor)
		if err != nil {
			return nil, err
		}
		text := frame.Text(nil, frame.TextSegment{Text: *banner, Foreground: fg, Background: color.Black})
		seq = frame.ScrollBanner(text, w, h, *frameDelay)
	case len(*play) == 0:
		return nil, nil
	case strings.EqualFold(filepath.Ext(*play), ".gif"):
		if seq, err = frame.LoadGIF(*play, *maxFrames, color.Black); err != nil {
			return nil, err
		}
	case strings.EqualFold(filepath.Ext(*play), ".png"):
		f, err := frame.LoadPNG(*play, color.Black)
		if err != nil {
			return nil, err
		}
		seq = frame.NewSequence(*frameDelay, f)
	default:
		if seq, err = frame.LoadDirectory(*play, *maxFrames, color.Black); err != nil {
			return nil, err
		}
	}
	if *frameDelay > 0 {
		seq.FrameDelay = *frameDelay
	}
	return seq, nil
}

func playOptions() (opts xled.PlayOptions, err errors.Error) {
	opts = xled.PlayOptions{
		Loop:     *loop,
		Random:   *random,
		Duration: *duration,

		TransitionFrameDelay: *stepDelay,
	}
	if opts.Transition, err = transition.ParseType(*transType); err != nil {
		return opts, err
	}
	if opts.Direction, err = transition.ParseDirection(*direction); err != nil {
		return opts, err
	}
	if opts.BlendMode, err = color.ParseBlendMode(*blend); err != nil {
		return opts, err
	}
	return opts, nil
}

// uploadMovie stores the frames on the device so that they keep playing
// without this process
func uploadMovie(ctx context.Context, devices []*xled.Device, playable frame.Playable) (err errors.Error) {
	if len(devices) != 1 {
		return errors.Wrap(xled.ErrInvalidArgument, "movies are uploaded to a single device").With("devices", len(devices)).With("stack", stack.Trace().TrimRuntime())
	}
	seq, isSeq := playable.(*frame.Sequence)
	if !isSeq {
		seq = frame.NewSequence(time.Second, playable)
	}
	name := filepath.Base(*play)
	if len(*banner) != 0 {
		name = *banner
	}
	return devices[0].ShowSequence(ctx, name, seq)
}
