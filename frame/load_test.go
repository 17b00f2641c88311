package frame

import (
	"image"
	imgcolor "image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/xled/color"
)

func writePNG(t *testing.T, fn string, c imgcolor.Color) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, c)
		}
	}
	file, errGo := os.Create(fn)
	if errGo != nil {
		t.Fatal(errGo)
	}
	defer file.Close()
	if errGo = png.Encode(file, img); errGo != nil {
		t.Fatal(errGo)
	}
}

func writeFile(t *testing.T, fn string, content string) {
	t.Helper()
	if errGo := os.WriteFile(fn, []byte(content), 0600); errGo != nil {
		t.Fatal(errGo)
	}
}

func mkdir(t *testing.T, dir string) string {
	t.Helper()
	if errGo := os.MkdirAll(dir, 0700); errGo != nil {
		t.Fatal(errGo)
	}
	return dir
}

func TestLoadDirectory(t *testing.T) {
	root := t.TempDir()

	// Sorted case insensitively b, C
	frameDir := mkdir(t, filepath.Join(root, "b-frame"))
	writeFile(t, filepath.Join(frameDir, "scene.json"), `{"type":"frame"}`)
	writePNG(t, filepath.Join(frameDir, "01.png"), imgcolor.NRGBA{R: 255, A: 255})
	writePNG(t, filepath.Join(frameDir, "02.png"), imgcolor.NRGBA{G: 255, A: 255})

	seqDir := mkdir(t, filepath.Join(root, "C-sequence"))
	writeFile(t, filepath.Join(seqDir, "scene.json"), `{"type":"sequence","frameDelay":250}`)
	writePNG(t, filepath.Join(seqDir, "a.png"), imgcolor.NRGBA{B: 255, A: 255})
	writePNG(t, filepath.Join(seqDir, "b.PNG"), imgcolor.NRGBA{R: 255, G: 255, A: 255})

	// Directories without a scene are ignored
	mkdir(t, filepath.Join(root, "a-empty"))

	seq, err := LoadDirectory(root, 0, color.Black)
	if err != nil {
		t.Fatal(err)
	}
	if seq.Len() != 2 {
		t.Fatalf("expected two scenes, got %d", seq.Len())
	}
	if seq.FrameDelay != DirectoryFrameDelay {
		t.Errorf("unexpected delay %v", seq.FrameDelay)
	}
	first, isFrame := seq.At(0).(*Frame)
	if !isFrame || !mustGet(t, first, 0, 0).Equal(color.NewRGB(255, 0, 0)) {
		t.Error("frame scene should use the first image")
	}
	sub, isSeq := seq.At(1).(*Sequence)
	if !isSeq || sub.Len() != 2 || sub.FrameDelay != 250*time.Millisecond {
		t.Fatalf("sequence scene loaded incorrectly %+v", sub)
	}
	if !mustGet(t, sub.LastFrame(), 1, 1).Equal(color.NewRGB(255, 255, 0)) {
		t.Error("sequence scene images out of order")
	}

	limited, err := LoadDirectory(root, 2, color.Black)
	if err != nil {
		t.Fatal(err)
	}
	if limited.Len() != 1 {
		t.Errorf("max frames limits the scanned directories, got %d", limited.Len())
	}

	single, err := LoadDirectory(seqDir, 0, color.Black)
	if err != nil {
		t.Fatal(err)
	}
	if single.Len() != 1 {
		t.Errorf("a scene directory is read as a single scene, got %d", single.Len())
	}
}

func TestLoadDirectoryMalformedScene(t *testing.T) {
	root := t.TempDir()
	dir := mkdir(t, filepath.Join(root, "bad"))
	writeFile(t, filepath.Join(dir, "scene.json"), `{"type":`)
	writePNG(t, filepath.Join(dir, "x.png"), imgcolor.NRGBA{A: 255})

	if _, err := LoadDirectory(root, 0, color.Black); err == nil || errors.Cause(err) != ErrMalformedInput {
		t.Errorf("expected malformed input, got %v", err)
	}

	writeFile(t, filepath.Join(dir, "scene.json"), `{"type":"movie"}`)
	if _, err := LoadDirectory(root, 0, color.Black); err == nil || errors.Cause(err) != ErrMalformedInput {
		t.Errorf("expected malformed input for unknown type, got %v", err)
	}
}

func TestAddImagesFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "1.png"), imgcolor.NRGBA{R: 10, A: 255})
	writePNG(t, filepath.Join(dir, "2.png"), imgcolor.NRGBA{R: 20, A: 255})
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	seq := NewSequence(0)
	if err := seq.AddImagesFromDirectory(dir, color.Black); err != nil {
		t.Fatal(err)
	}
	if seq.Len() != 2 {
		t.Errorf("expected 2 frames, got %d", seq.Len())
	}
}

func TestTranslucentPNG(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "half.png")
	writePNG(t, fn, imgcolor.NRGBA{R: 255, A: 0})

	f, err := LoadPNG(fn, color.NewRGB(0, 0, 200))
	if err != nil {
		t.Fatal(err)
	}
	if !mustGet(t, f, 0, 0).Equal(color.NewRGB(0, 0, 200)) {
		t.Errorf("transparent pixels should show the background, got %v", mustGet(t, f, 0, 0))
	}
}

func TestLoadGIF(t *testing.T) {
	palette := imgcolor.Palette{imgcolor.RGBA{A: 255}, imgcolor.RGBA{R: 255, A: 255}, imgcolor.RGBA{G: 255, A: 255}}
	anim := &gif.GIF{
		Config: image.Config{Width: 4, Height: 4, ColorModel: palette},
	}
	full := image.NewPaletted(image.Rect(0, 0, 4, 4), palette)
	for i := range full.Pix {
		full.Pix[i] = 1
	}
	// A partial frame that only covers the top left corner
	partial := image.NewPaletted(image.Rect(0, 0, 2, 2), palette)
	for i := range partial.Pix {
		partial.Pix[i] = 2
	}
	anim.Image = []*image.Paletted{full, partial, full}
	anim.Delay = []int{5, 5, 5}
	anim.Disposal = []byte{gif.DisposalNone, gif.DisposalNone, gif.DisposalNone}

	fn := filepath.Join(t.TempDir(), "anim.gif")
	file, errGo := os.Create(fn)
	if errGo != nil {
		t.Fatal(errGo)
	}
	if errGo = gif.EncodeAll(file, anim); errGo != nil {
		t.Fatal(errGo)
	}
	file.Close()

	seq, err := LoadGIF(fn, 2, color.Black)
	if err != nil {
		t.Fatal(err)
	}
	if seq.Len() != 2 {
		t.Fatalf("max frames not honoured, %d", seq.Len())
	}
	if seq.FrameDelay != 50*time.Millisecond {
		t.Errorf("gif delay not used %v", seq.FrameDelay)
	}
	second := seq.At(1).(*Frame)
	if second.Width() != 4 {
		t.Fatalf("partial frame should be composed onto the full canvas, width %d", second.Width())
	}
	if !mustGet(t, second, 0, 0).Equal(color.NewRGB(0, 255, 0)) || !mustGet(t, second, 3, 3).Equal(color.NewRGB(255, 0, 0)) {
		t.Error("partial frame not composed over the previous frame")
	}

	if _, err = LoadGIF(filepath.Join(t.TempDir(), "missing.gif"), 0, color.Black); err == nil {
		t.Error("missing gif should fail")
	}
}
