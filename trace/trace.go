// Package trace records the state of a world's characters after each step as a stream of
// msgpack frames, and digests the stream with xxh3 so two runs can be compared.
package trace

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/akmonengine/kinematic"
	"github.com/akmonengine/kinematic/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/xxh3"
)

var ErrFrameOrder = errors.New("trace: frames out of order")

type CharacterFrame struct {
	ID       actor.BodyID `msgpack:"id"`
	Position [3]float64   `msgpack:"position"`
	Velocity [3]float64   `msgpack:"velocity"`
	Grounded bool         `msgpack:"grounded"`
	// Ground is actor.NoBody while airborne
	Ground actor.BodyID `msgpack:"ground"`
	Normal [3]float64   `msgpack:"normal"`
	Hits   int          `msgpack:"hits"`
}

// Frame is the state of every character once a step has completed
type Frame struct {
	Tick       uint64           `msgpack:"tick"`
	Characters []CharacterFrame `msgpack:"characters"`
}

// Capture builds the frame of the characters of w after its last step.
// It must not run concurrently with Step.
func Capture(w *kinematic.World) Frame {
	characters := w.Characters()
	frame := Frame{
		Tick:       w.Ticks(),
		Characters: make([]CharacterFrame, 0, len(characters)),
	}
	for _, character := range characters {
		state := character.State
		c := CharacterFrame{
			ID:       character.ID(),
			Position: state.Position,
			Velocity: state.Velocity,
			Hits:     character.LastReport.Hits,
		}
		if state.Ground != nil {
			c.Grounded = true
			c.Ground = state.Ground.Entity
			c.Normal = state.Ground.Normal
		}
		frame.Characters = append(frame.Characters, c)
	}
	return frame
}

// PositionVec returns the position of the character as a vector
func (c CharacterFrame) PositionVec() mgl64.Vec3 {
	return mgl64.Vec3(c.Position)
}

// Digest hashes the encoded frame
func (f Frame) Digest() (uint64, error) {
	data, err := msgpack.Marshal(&f)
	if err != nil {
		return 0, fmt.Errorf("trace: encode frame %d: %w", f.Tick, err)
	}
	return xxh3.Hash(data), nil
}

// Recorder writes frames to a stream and keeps a running digest of everything written
type Recorder struct {
	encoder *msgpack.Encoder
	buffer  bytes.Buffer
	out     io.Writer
	hasher  *xxh3.Hasher

	frames   int
	lastTick uint64
}

func NewRecorder(out io.Writer) *Recorder {
	r := &Recorder{out: out, hasher: xxh3.New()}
	r.encoder = msgpack.NewEncoder(&r.buffer)
	return r
}

// Record appends frame to the stream. Ticks must increase from one frame to the next.
func (r *Recorder) Record(frame Frame) error {
	if r.frames > 0 && frame.Tick <= r.lastTick {
		return fmt.Errorf("%w: tick %d after %d", ErrFrameOrder, frame.Tick, r.lastTick)
	}

	r.buffer.Reset()
	if err := r.encoder.Encode(&frame); err != nil {
		return fmt.Errorf("trace: encode frame %d: %w", frame.Tick, err)
	}
	_, _ = r.hasher.Write(r.buffer.Bytes())
	if r.out != nil {
		if _, err := r.out.Write(r.buffer.Bytes()); err != nil {
			return fmt.Errorf("trace: write frame %d: %w", frame.Tick, err)
		}
	}

	r.frames++
	r.lastTick = frame.Tick
	return nil
}

// Frames returns the number of recorded frames
func (r *Recorder) Frames() int {
	return r.frames
}

// Digest returns the xxh3 digest of the frames recorded so far
func (r *Recorder) Digest() uint64 {
	return r.hasher.Sum64()
}

// Reader decodes a stream written by a Recorder
type Reader struct {
	decoder *msgpack.Decoder
}

func NewReader(in io.Reader) *Reader {
	return &Reader{decoder: msgpack.NewDecoder(in)}
}

// Next returns the next frame, or io.EOF at the end of the stream
func (r *Reader) Next() (Frame, error) {
	var frame Frame
	if err := r.decoder.Decode(&frame); err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("trace: decode frame: %w", err)
	}
	return frame, nil
}

// ReadAll decodes every remaining frame
func (r *Reader) ReadAll() ([]Frame, error) {
	var frames []Frame
	for {
		frame, err := r.Next()
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, frame)
	}
}

// Divergence locates the first difference between two recordings
type Divergence struct {
	Tick uint64
	// Character is the first character whose state differs, actor.NoBody when the
	// frames differ in their character count or when one stream ended early
	Character actor.BodyID
	Expected  Frame
	Actual    Frame
}

func (d Divergence) Error() string {
	if d.Character == actor.NoBody {
		return fmt.Sprintf("trace: recordings diverge at tick %d", d.Tick)
	}
	return fmt.Sprintf("trace: character %d diverges at tick %d", d.Character, d.Tick)
}

// Compare reads both streams to the end and returns a *Divergence error for the first
// frame that differs.
func Compare(expected, actual io.Reader) error {
	a, b := NewReader(expected), NewReader(actual)
	for {
		fa, errA := a.Next()
		fb, errB := b.Next()
		endA, endB := errors.Is(errA, io.EOF), errors.Is(errB, io.EOF)
		switch {
		case endA && endB:
			return nil
		case errA != nil && !endA:
			return errA
		case errB != nil && !endB:
			return errB
		case endA:
			return &Divergence{Tick: fb.Tick, Actual: fb}
		case endB:
			return &Divergence{Tick: fa.Tick, Expected: fa}
		}

		if d := compareFrames(fa, fb); d != nil {
			return d
		}
	}
}

func compareFrames(expected, actual Frame) *Divergence {
	d := &Divergence{Tick: expected.Tick, Expected: expected, Actual: actual}
	if expected.Tick != actual.Tick || len(expected.Characters) != len(actual.Characters) {
		return d
	}
	for i := range expected.Characters {
		if expected.Characters[i] != actual.Characters[i] {
			d.Character = expected.Characters[i].ID
			return d
		}
	}
	return nil
}
