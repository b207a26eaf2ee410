package codec

import (
	"bytes"
	"fmt"

	shine "github.com/braheezy/shine-mp3/pkg/mp3"
)

// samplesPerMPEGFrame is the number of samples per channel in one MPEG layer
// III frame. The encoder consumes audio in exact multiples of this.
const samplesPerMPEGFrame = 1152

// shineBitrateKbps is the constant bitrate the shine encoder produces.
const shineBitrateKbps = 128

// shineEncoder adapts the pure-Go shine encoder to the Encoder contract.
// Incoming blocks are accumulated and fed to the encoder one MPEG frame at a
// time, since source decode units rarely line up with MPEG frame boundaries.
type shineEncoder struct {
	channels int
	scale    float64
	pending  []int16

	// encodeFrame encodes exactly one MPEG frame worth of interleaved
	// samples. Swapped out in tests.
	encodeFrame func(samples []int16) ([]byte, error)
}

// NewShineEncoder returns an Encoder backed by the shine MP3 encoder.
func NewShineEncoder(cfg EncoderConfig) (Encoder, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("shine: invalid sample rate %d", cfg.SampleRate)
	}
	if cfg.Channels < 1 || cfg.Channels > 2 {
		return nil, fmt.Errorf("shine: unsupported channel count %d", cfg.Channels)
	}
	if cfg.BitrateKbps != shineBitrateKbps {
		// shine fixes its rate control at 128 kbps CBR.
		return nil, fmt.Errorf("shine: unsupported bitrate %d kbps (only %d supported)",
			cfg.BitrateKbps, shineBitrateKbps)
	}

	enc := shine.NewEncoder(cfg.SampleRate, cfg.Channels)
	return &shineEncoder{
		channels: cfg.Channels,
		scale:    cfg.Scale,
		encodeFrame: func(samples []int16) ([]byte, error) {
			var buf bytes.Buffer
			if err := enc.Write(&buf, samples); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
	}, nil
}

func (e *shineEncoder) Encode(samples []int16) ([]byte, error) {
	e.pending = append(e.pending, applyScale(samples, e.scale)...)

	frameLen := samplesPerMPEGFrame * e.channels
	var out []byte
	for len(e.pending) >= frameLen {
		encoded, err := e.encodeFrame(e.pending[:frameLen])
		if err != nil {
			return nil, fmt.Errorf("encoding frame: %w", err)
		}
		out = append(out, encoded...)
		e.pending = e.pending[frameLen:]
	}
	return out, nil
}

func (e *shineEncoder) Flush() ([]byte, error) {
	if len(e.pending) == 0 {
		return nil, nil
	}

	// Zero-pad the trailing partial frame up to a full MPEG frame.
	frameLen := samplesPerMPEGFrame * e.channels
	padded := make([]int16, frameLen)
	copy(padded, e.pending)
	e.pending = nil

	encoded, err := e.encodeFrame(padded)
	if err != nil {
		return nil, fmt.Errorf("flushing encoder: %w", err)
	}
	return encoded, nil
}

func (e *shineEncoder) Close() error {
	e.pending = nil
	return nil
}

// applyScale multiplies samples by a linear replay-gain factor, clamping to
// the int16 range. A scale of zero or one returns the input unchanged.
func applyScale(samples []int16, scale float64) []int16 {
	if scale == 0 || scale == 1 {
		return samples
	}
	scaled := make([]int16, len(samples))
	for i, s := range samples {
		v := float64(s) * scale
		switch {
		case v > 32767:
			v = 32767
		case v < -32768:
			v = -32768
		}
		scaled[i] = int16(v)
	}
	return scaled
}
