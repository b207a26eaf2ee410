// Package codec wraps the lossless decoder and lossy encoder behind small
// service contracts so the transcode pipeline never touches codec internals.
package codec

// StreamInfo describes the source audio stream. Populated once when the
// decoder opens the source and immutable afterwards.
type StreamInfo struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	TotalSamples  int64
}

// Picture is one embedded image block from the source metadata.
type Picture struct {
	MIME        string
	Description string
	Type        uint32
	Data        []byte
}

// SourceTags holds the source metadata fields, keyed by their upper-cased
// field names, plus any embedded pictures.
type SourceTags struct {
	Fields   map[string]string
	Pictures []Picture
}

// Get returns the value of a metadata field and whether it was present.
func (t SourceTags) Get(name string) (string, bool) {
	v, ok := t.Fields[name]
	return v, ok
}

// Decoder produces the source stream in two phases: header metadata is fully
// available as soon as the decoder opens, audio follows one block at a time.
type Decoder interface {
	Info() StreamInfo
	Tags() SourceTags

	// DecodeBlock returns the next block of interleaved 16-bit samples.
	// It returns io.EOF once the source is exhausted.
	DecodeBlock() ([]int16, error)

	Close() error
}

// EncoderConfig carries the encoder parameters fixed at session construction.
type EncoderConfig struct {
	SampleRate  int
	Channels    int
	BitrateKbps int

	// Quality is a hint for backends with a quality knob. The shine backend
	// runs fixed-quality and ignores it.
	Quality int

	// Scale is a linear output multiplier derived from replay gain.
	// Zero or one leaves the encoder's default scale in place.
	Scale float64
}

// Encoder turns interleaved 16-bit samples into encoded stream bytes.
// Encode may buffer internally; Flush drains whatever remains.
type Encoder interface {
	Encode(samples []int16) ([]byte, error)
	Flush() ([]byte, error)
	Close() error
}
