package frame

// This file contains the composite that allows frames and nested sequences
// of frames to be handled uniformly when they are played back

import (
	"time"
)

// DefaultFrameDelay is used when a sequence is created without a delay
const DefaultFrameDelay = 100 * time.Millisecond

// Playable is either a single *Frame or a *Sequence, no other implementations
// exist
type Playable interface {
	// FirstFrame and LastFrame return the boundary frames, descending into
	// nested sequences.  Empty sequences return nil.
	FirstFrame() *Frame
	LastFrame() *Frame

	// ToBytes is the concatenated wire format of all contained frames
	ToBytes(bytesPerLed int) []byte

	// Frames flattens the playable into its frames in display order
	Frames() []*Frame

	playable()
}

func (f *Frame) FirstFrame() *Frame { return f }
func (f *Frame) LastFrame() *Frame  { return f }
func (f *Frame) Frames() []*Frame   { return []*Frame{f} }
func (f *Frame) playable()          {}

// Sequence is an ordered collection of playables that share a frame delay
type Sequence struct {
	FrameDelay time.Duration
	// Rotation is applied to frames as they are displayed
	Rotation Rotation
	children []Playable
}

// NewSequence creates a sequence, a zero or negative delay selects the
// DefaultFrameDelay
func NewSequence(frameDelay time.Duration, children ...Playable) (seq *Sequence) {
	if frameDelay <= 0 {
		frameDelay = DefaultFrameDelay
	}
	seq = &Sequence{
		FrameDelay: frameDelay,
		children:   make([]Playable, 0, len(children)),
	}
	return seq.Append(children...)
}

func (seq *Sequence) playable() {}

// Append adds children to the end of the sequence, nil entries are skipped
func (seq *Sequence) Append(children ...Playable) *Sequence {
	for _, child := range children {
		if child == nil {
			continue
		}
		switch c := child.(type) {
		case *Frame:
			if c == nil {
				continue
			}
		case *Sequence:
			if c == nil {
				continue
			}
		}
		seq.children = append(seq.children, child)
	}
	return seq
}

// Len is the number of direct children
func (seq *Sequence) Len() int { return len(seq.children) }

func (seq *Sequence) IsEmpty() bool { return len(seq.children) == 0 }

// At returns the direct child at index i
func (seq *Sequence) At(i int) Playable { return seq.children[i] }

// Children returns a copy of the list of direct children
func (seq *Sequence) Children() []Playable {
	return append([]Playable{}, seq.children...)
}

func (seq *Sequence) FirstFrame() *Frame {
	if len(seq.children) == 0 {
		return nil
	}
	return seq.children[0].FirstFrame()
}

func (seq *Sequence) LastFrame() *Frame {
	if len(seq.children) == 0 {
		return nil
	}
	return seq.children[len(seq.children)-1].LastFrame()
}

func (seq *Sequence) Frames() (frames []*Frame) {
	frames = []*Frame{}
	for _, child := range seq.children {
		frames = append(frames, child.Frames()...)
	}
	return frames
}

func (seq *Sequence) ToBytes(bytesPerLed int) (buf []byte) {
	buf = []byte{}
	for _, child := range seq.children {
		buf = append(buf, child.ToBytes(bytesPerLed)...)
	}
	return buf
}
