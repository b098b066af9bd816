package audio

import "encoding/binary"

// Frame is one fixed-duration block of 16-bit little-endian PCM audio.
// Frames are ephemeral: ownership moves to the emit callback, which hands
// the buffer to the transport without copying.
type Frame struct {
	// Seq increases by one per emitted frame, starting at 0.
	Seq int64
	// PCM holds the encoded samples, two bytes per sample.
	PCM []byte
}

// EmitFunc receives completed frames in emission order.
type EmitFunc func(Frame)

// Framer accumulates float samples and emits fixed-size PCM16 frames.
// Not safe for concurrent use; one framer serves one capture stream.
type Framer struct {
	cfg     Config
	emit    EmitFunc
	pending []float32
	seq     int64
}

// NewFramer creates a framer that hands completed frames to emit.
func NewFramer(cfg Config, emit EmitFunc) *Framer {
	cfg.ApplyDefaults()
	return &Framer{
		cfg:     cfg,
		emit:    emit,
		pending: make([]float32, 0, cfg.SamplesPerFrame()),
	}
}

// Push appends samples and emits every full frame they complete.
// A single input block may finish one frame and start the next; the
// remainder stays buffered for the following call.
func (f *Framer) Push(samples []float32) {
	f.pending = append(f.pending, samples...)

	size := f.cfg.SamplesPerFrame()
	for len(f.pending) >= size {
		f.emitFrame(f.pending[:size])
		f.pending = f.pending[size:]
	}
}

// Flush emits any buffered partial frame. Used at end of capture so the
// tail of the recording is not lost.
func (f *Framer) Flush() {
	if len(f.pending) == 0 {
		return
	}
	f.emitFrame(f.pending)
	f.pending = f.pending[:0]
}

// Pending returns the number of buffered samples awaiting a full frame.
func (f *Framer) Pending() int {
	return len(f.pending)
}

func (f *Framer) emitFrame(samples []float32) {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(EncodeSample(s)))
	}
	f.emit(Frame{Seq: f.seq, PCM: pcm})
	f.seq++
}

// EncodeSample converts one sample from the [-1.0, 1.0] float range to a
// signed 16-bit integer. Values are clamped first; negatives scale by 32768
// and non-negatives by 32767 so that +1.0 cannot overflow int16.
func EncodeSample(s float32) int16 {
	if s < -1.0 {
		s = -1.0
	} else if s > 1.0 {
		s = 1.0
	}
	if s < 0 {
		return int16(s * 32768)
	}
	return int16(s * 32767)
}
