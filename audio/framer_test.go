package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func encodeAll(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(EncodeSample(s)))
	}
	return out
}

func TestEncodeSample_AsymmetricScaling(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1.0, 32767},
		{-1.0, -32768},
		{2.5, 32767},   // clamped high
		{-2.5, -32768}, // clamped low
		{0.5, 16383},
		{-0.5, -16384},
	}
	for _, tt := range tests {
		if got := EncodeSample(tt.in); got != tt.want {
			t.Errorf("EncodeSample(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFramer_EmitsAtThreshold(t *testing.T) {
	cfg := Config{SampleRate: 10, FrameMillis: 1000} // 10 samples per frame
	var frames []Frame
	f := NewFramer(cfg, func(fr Frame) { frames = append(frames, fr) })

	f.Push(make([]float32, 9))
	if len(frames) != 0 {
		t.Fatalf("expected no frame below threshold, got %d", len(frames))
	}
	if f.Pending() != 9 {
		t.Errorf("expected 9 pending samples, got %d", f.Pending())
	}

	f.Push(make([]float32, 1))
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame at threshold, got %d", len(frames))
	}
	if len(frames[0].PCM) != 20 {
		t.Errorf("expected 20 PCM bytes, got %d", len(frames[0].PCM))
	}
	if f.Pending() != 0 {
		t.Errorf("expected empty buffer after emit, got %d", f.Pending())
	}
}

func TestFramer_SplitsLargeBlock(t *testing.T) {
	cfg := Config{SampleRate: 4, FrameMillis: 1000} // 4 samples per frame
	var frames []Frame
	f := NewFramer(cfg, func(fr Frame) { frames = append(frames, fr) })

	// One input block spanning two and a half frames.
	f.Push(make([]float32, 10))
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames from a 10-sample block, got %d", len(frames))
	}
	if f.Pending() != 2 {
		t.Errorf("expected 2 samples carried over, got %d", f.Pending())
	}
	for i, fr := range frames {
		if fr.Seq != int64(i) {
			t.Errorf("frame %d has seq %d", i, fr.Seq)
		}
	}
}

func TestFramer_LosslessReassembly(t *testing.T) {
	cfg := Config{SampleRate: 16, FrameMillis: 250} // 4 samples per frame

	// Irregular block sizes covering every carry-over path.
	input := make([]float32, 0, 64)
	for i := 0; i < 57; i++ {
		input = append(input, float32(math.Sin(float64(i)/7)))
	}

	var got bytes.Buffer
	f := NewFramer(cfg, func(fr Frame) { got.Write(fr.PCM) })

	blocks := []int{1, 3, 7, 2, 11, 5, 13, 4, 6, 5}
	off := 0
	for _, n := range blocks {
		f.Push(input[off : off+n])
		off += n
	}
	f.Flush()

	want := encodeAll(input)
	if !bytes.Equal(got.Bytes(), want) {
		t.Fatalf("reassembled stream differs: got %d bytes, want %d", got.Len(), len(want))
	}
}

func TestFramer_FlushEmpty(t *testing.T) {
	emitted := 0
	f := NewFramer(Config{SampleRate: 8, FrameMillis: 500}, func(Frame) { emitted++ })
	f.Flush()
	if emitted != 0 {
		t.Errorf("expected no frame from empty flush, got %d", emitted)
	}
}
