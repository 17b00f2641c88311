package frame

// This file contains the loaders that build frames and sequences from
// images on disk.  A presentation directory holds one sub directory per
// scene, each with a scene.json describing whether the PNG images inside are
// a single frame or a nested sequence.

import (
	"encoding/json"
	"image"
	"image/draw"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	logxi "github.com/mgutz/logxi/v1"

	"github.com/TeamNorCal/xled/color"
)

var (
	logger = logxi.New("frame")
)

// DirectoryFrameDelay is the delay of a sequence loaded from a presentation directory
const DirectoryFrameDelay = time.Second

// SceneType tells the directory loader how to treat the images of a scene
type SceneType string

const (
	SceneFrame    SceneType = "frame"
	SceneSequence SceneType = "sequence"
)

// Scene is the content of a scene.json file, the frame delay is in milliseconds
type Scene struct {
	Type       SceneType `json:"type"`
	FrameDelay *int64    `json:"frameDelay,omitempty"`
}

// LoadPNG reads a single PNG image as a frame
func LoadPNG(fn string, background color.Color) (f *Frame, err errors.Error) {
	file, errGo := os.Open(fn)
	if errGo != nil {
		return nil, errors.Wrap(errGo).With("file", fn).With("stack", stack.Trace().TrimRuntime())
	}
	defer file.Close()

	img, errGo := png.Decode(file)
	if errGo != nil {
		return nil, errors.Wrap(ErrMalformedInput, errGo.Error()).With("file", fn).With("stack", stack.Trace().TrimRuntime())
	}
	return FromImage(img, background), nil
}

func listFiles(dir string, dirs bool, suffix string) (names []string, err errors.Error) {
	entries, errGo := os.ReadDir(dir)
	if errGo != nil {
		return nil, errors.Wrap(errGo).With("dir", dir).With("stack", stack.Trace().TrimRuntime())
	}
	names = []string{}
	for _, entry := range entries {
		if entry.IsDir() != dirs {
			continue
		}
		if suffix != "" && !strings.HasSuffix(strings.ToLower(entry.Name()), suffix) {
			continue
		}
		names = append(names, filepath.Join(dir, entry.Name()))
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(filepath.Base(names[i])) < strings.ToLower(filepath.Base(names[j]))
	})
	return names, nil
}

// AddImagesFromDirectory appends every PNG in the directory as a frame, in name order
func (seq *Sequence) AddImagesFromDirectory(dir string, background color.Color) (err errors.Error) {
	images, err := listFiles(dir, false, ".png")
	if err != nil {
		return err
	}
	for _, fn := range images {
		f, err := LoadPNG(fn, background)
		if err != nil {
			return err
		}
		seq.Append(f)
	}
	return nil
}

// ReadScene loads a scene.json file
func ReadScene(fn string) (scene *Scene, err errors.Error) {
	data, errGo := os.ReadFile(fn)
	if errGo != nil {
		return nil, errors.Wrap(errGo).With("file", fn).With("stack", stack.Trace().TrimRuntime())
	}
	scene = &Scene{}
	if errGo = json.Unmarshal(data, scene); errGo != nil {
		return nil, errors.Wrap(ErrMalformedInput, errGo.Error()).With("file", fn).With("stack", stack.Trace().TrimRuntime())
	}
	switch scene.Type {
	case SceneFrame, SceneSequence:
	default:
		return nil, errors.Wrap(ErrMalformedInput, "unknown scene type").With("type", string(scene.Type)).With("file", fn).With("stack", stack.Trace().TrimRuntime())
	}
	return scene, nil
}

// readSceneDirectory appends the scene held in dir, found is false when the
// directory has no scene.json
func (seq *Sequence) readSceneDirectory(dir string, background color.Color) (found bool, err errors.Error) {
	sceneFile := filepath.Join(dir, "scene.json")
	if _, errGo := os.Stat(sceneFile); errGo != nil {
		if os.IsNotExist(errGo) {
			return false, nil
		}
		return false, errors.Wrap(errGo).With("file", sceneFile).With("stack", stack.Trace().TrimRuntime())
	}
	scene, err := ReadScene(sceneFile)
	if err != nil {
		return true, err
	}
	images, err := listFiles(dir, false, ".png")
	if err != nil {
		return true, err
	}
	if len(images) == 0 {
		logger.Debug("scene without images skipped", "dir", dir)
		return true, nil
	}

	switch scene.Type {
	case SceneFrame:
		f, err := LoadPNG(images[0], background)
		if err != nil {
			return true, err
		}
		seq.Append(f)
	case SceneSequence:
		sub := NewSequence(DefaultFrameDelay)
		if scene.FrameDelay != nil && *scene.FrameDelay > 0 {
			sub.FrameDelay = time.Duration(*scene.FrameDelay) * time.Millisecond
		}
		for _, fn := range images {
			f, err := LoadPNG(fn, background)
			if err != nil {
				return true, err
			}
			sub.Append(f)
		}
		seq.Append(sub)
	}
	return true, nil
}

// LoadDirectory reads a presentation.  When dir itself holds a scene.json it is
// a single scene, otherwise each sub directory, in case insensitive name
// order, is read as a scene.  At most maxFrames scenes are loaded, zero or
// less means no limit.
func LoadDirectory(dir string, maxFrames int, background color.Color) (seq *Sequence, err errors.Error) {
	seq = NewSequence(DirectoryFrameDelay)

	found, err := seq.readSceneDirectory(dir, background)
	if err != nil {
		return nil, err
	}
	if found {
		return seq, nil
	}

	subDirs, err := listFiles(dir, true, "")
	if err != nil {
		return nil, err
	}
	if maxFrames > 0 && len(subDirs) > maxFrames {
		subDirs = subDirs[:maxFrames]
	}
	for _, sub := range subDirs {
		if _, err = seq.readSceneDirectory(sub, background); err != nil {
			return nil, err
		}
	}
	return seq, nil
}

// LoadGIF decodes an animated GIF into a sequence of fully composed frames.
// The delay of the first GIF frame becomes the sequence frame delay.
func LoadGIF(fn string, maxFrames int, background color.Color) (seq *Sequence, err errors.Error) {
	file, errGo := os.Open(fn)
	if errGo != nil {
		return nil, errors.Wrap(errGo).With("file", fn).With("stack", stack.Trace().TrimRuntime())
	}
	defer file.Close()

	anim, errGo := gif.DecodeAll(file)
	if errGo != nil {
		return nil, errors.Wrap(ErrMalformedInput, errGo.Error()).With("file", fn).With("stack", stack.Trace().TrimRuntime())
	}
	return FromGIF(anim, maxFrames, background), nil
}

// FromGIF composes the frames of a decoded GIF honouring the disposal method
// of each frame
func FromGIF(anim *gif.GIF, maxFrames int, background color.Color) (seq *Sequence) {
	seq = NewSequence(DefaultFrameDelay)
	if len(anim.Image) == 0 {
		return seq
	}
	if len(anim.Delay) > 0 && anim.Delay[0] > 0 {
		// GIF delays are in hundredths of a second
		seq.FrameDelay = time.Duration(anim.Delay[0]) * 10 * time.Millisecond
	}

	width, height := anim.Config.Width, anim.Config.Height
	if width == 0 || height == 0 {
		b := anim.Image[0].Bounds()
		width, height = b.Max.X, b.Max.Y
	}
	canvas := image.NewNRGBA(image.Rect(0, 0, width, height))

	count := len(anim.Image)
	if maxFrames > 0 {
		count = min(count, maxFrames)
	}
	for i := 0; i != count; i++ {
		img := anim.Image[i]
		var previous *image.NRGBA
		disposal := byte(0)
		if i < len(anim.Disposal) {
			disposal = anim.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			previous = image.NewNRGBA(canvas.Bounds())
			draw.Draw(previous, previous.Bounds(), canvas, image.Point{}, draw.Src)
		}

		draw.Draw(canvas, img.Bounds(), img, img.Bounds().Min, draw.Over)
		seq.Append(FromImage(canvas, background))

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, img.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = previous
		}
	}
	return seq
}
