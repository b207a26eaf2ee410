package codec

import (
	"fmt"
	"strings"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// flacDecoder reads a FLAC file as a sequence of interleaved int16 blocks.
// The whole metadata section is parsed up front so stream info and tags are
// available before the first audio frame is touched.
type flacDecoder struct {
	stream   *flac.Stream
	info     StreamInfo
	tags     SourceTags
	channels int
	bps      int
}

// OpenFLAC opens and parses a FLAC file, returning a decoder positioned at
// the first audio frame.
func OpenFLAC(path string) (Decoder, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parsing FLAC: %w", err)
	}

	si := stream.Info
	d := &flacDecoder{
		stream:   stream,
		channels: int(si.NChannels),
		bps:      int(si.BitsPerSample),
		info: StreamInfo{
			SampleRate:    int(si.SampleRate),
			Channels:      int(si.NChannels),
			BitsPerSample: int(si.BitsPerSample),
			TotalSamples:  int64(si.NSamples),
		},
		tags: SourceTags{Fields: make(map[string]string)},
	}

	for _, block := range stream.Blocks {
		switch body := block.Body.(type) {
		case *meta.VorbisComment:
			for _, tag := range body.Tags {
				name := strings.ToUpper(tag[0])
				// First occurrence wins for repeated fields.
				if _, ok := d.tags.Fields[name]; !ok {
					d.tags.Fields[name] = tag[1]
				}
			}
		case *meta.Picture:
			d.tags.Pictures = append(d.tags.Pictures, Picture{
				MIME:        body.MIME,
				Description: body.Desc,
				Type:        body.Type,
				Data:        body.Data,
			})
		}
	}

	return d, nil
}

func (d *flacDecoder) Info() StreamInfo { return d.info }
func (d *flacDecoder) Tags() SourceTags { return d.tags }

func (d *flacDecoder) DecodeBlock() ([]int16, error) {
	fr, err := d.stream.ParseNext()
	if err != nil {
		// io.EOF passes through untouched as the end-of-stream signal.
		return nil, err
	}
	return interleaveFrame(fr, d.channels, d.bps), nil
}

func (d *flacDecoder) Close() error {
	return d.stream.Close()
}

// interleaveFrame converts one decoded FLAC frame into interleaved 16-bit
// samples, shifting the source bit depth to 16 bits and clamping.
func interleaveFrame(fr *frame.Frame, channels, bps int) []int16 {
	n := int(fr.Subframes[0].NSamples)
	out := make([]int16, n*channels)
	for i := 0; i < n; i++ {
		for ch := 0; ch < channels; ch++ {
			sample := int(fr.Subframes[ch].Samples[i])
			switch {
			case bps > 16:
				sample >>= (bps - 16)
			case bps < 16:
				sample <<= (16 - bps)
			}
			if sample > 32767 {
				sample = 32767
			} else if sample < -32768 {
				sample = -32768
			}
			out[i*channels+ch] = int16(sample)
		}
	}
	return out
}
