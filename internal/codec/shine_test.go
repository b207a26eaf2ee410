package codec

import (
	"testing"
)

func newTestEncoder(channels int, scale float64) (*shineEncoder, *[][]int16) {
	var frames [][]int16
	enc := &shineEncoder{
		channels: channels,
		scale:    scale,
		encodeFrame: func(samples []int16) ([]byte, error) {
			frame := make([]int16, len(samples))
			copy(frame, samples)
			frames = append(frames, frame)
			return []byte{0xff}, nil
		},
	}
	return enc, &frames
}

func TestShineEncoderAccumulatesWholeFrames(t *testing.T) {
	enc, frames := newTestEncoder(2, 0)
	frameLen := samplesPerMPEGFrame * 2

	out, err := enc.Encode(make([]int16, 1000))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(out) != 0 || len(*frames) != 0 {
		t.Fatalf("expected no frames from a partial block, got %d", len(*frames))
	}

	// 1000 + 2000 = 3000 samples covers one 2304-sample frame with 696 left.
	out, err = enc.Encode(make([]int16, 2000))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(*frames) != 1 {
		t.Fatalf("expected exactly one frame, got %d", len(*frames))
	}
	if len((*frames)[0]) != frameLen {
		t.Fatalf("expected frame of %d samples, got %d", frameLen, len((*frames)[0]))
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 output byte from stub, got %d", len(out))
	}
	if len(enc.pending) != 3000-frameLen {
		t.Fatalf("expected %d pending samples, got %d", 3000-frameLen, len(enc.pending))
	}
}

func TestShineEncoderFlushPadsPartialFrame(t *testing.T) {
	enc, frames := newTestEncoder(1, 0)

	if _, err := enc.Encode([]int16{5, 5, 5}); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	out, err := enc.Flush()
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected flush to encode the padded tail, got %d bytes", len(out))
	}
	last := (*frames)[0]
	if len(last) != samplesPerMPEGFrame {
		t.Fatalf("expected padded frame of %d samples, got %d", samplesPerMPEGFrame, len(last))
	}
	if last[0] != 5 || last[3] != 0 {
		t.Fatalf("expected samples then zero padding, got %d %d", last[0], last[3])
	}

	// A second flush has nothing left to drain.
	out, err = enc.Flush()
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty second flush, got %d bytes", len(out))
	}
}

func TestApplyScale(t *testing.T) {
	got := applyScale([]int16{100, -100}, 0.5)
	if got[0] != 50 || got[1] != -50 {
		t.Fatalf("expected half-scaled samples, got %v", got)
	}

	got = applyScale([]int16{30000, -30000}, 2.0)
	if got[0] != 32767 || got[1] != -32768 {
		t.Fatalf("expected clamped samples, got %v", got)
	}

	in := []int16{7}
	if out := applyScale(in, 0); &out[0] != &in[0] {
		t.Fatal("expected zero scale to pass samples through untouched")
	}
	if out := applyScale(in, 1); &out[0] != &in[0] {
		t.Fatal("expected unit scale to pass samples through untouched")
	}
}

func TestNewShineEncoderValidatesConfig(t *testing.T) {
	cases := []EncoderConfig{
		{SampleRate: 0, Channels: 2, BitrateKbps: 128},
		{SampleRate: 44100, Channels: 3, BitrateKbps: 128},
		{SampleRate: 44100, Channels: 2, BitrateKbps: 320},
	}
	for _, cfg := range cases {
		if _, err := NewShineEncoder(cfg); err == nil {
			t.Fatalf("expected config error for %+v", cfg)
		}
	}

	enc, err := NewShineEncoder(EncoderConfig{SampleRate: 44100, Channels: 2, BitrateKbps: 128})
	if err != nil {
		t.Fatalf("NewShineEncoder() error = %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
