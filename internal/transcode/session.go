// Package transcode implements the transcode session: a virtual MP3 file
// whose bytes are produced on demand from a lossless FLAC source. The final
// byte length is predicted before any audio is encoded, so callers can
// answer size queries immediately; an incremental decode-encode pump then
// fills the buffer only as far as requested reads demand.
package transcode

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/olivier-w/mp3mirror/internal/codec"
	"github.com/olivier-w/mp3mirror/internal/metrics"
	"github.com/olivier-w/mp3mirror/internal/tags"
)

// Config is the process-wide transcode configuration, fixed at startup and
// passed explicitly into every session.
type Config struct {
	BitrateKbps int
	Quality     int
}

// File is the read surface a session presents to the serving layer. Kept as
// an interface so alternate codec pipelines can be substituted without
// touching callers.
type File interface {
	io.ReaderAt
	io.Closer

	// Size returns the predicted total byte length of the virtual file.
	Size() int64
}

// Codec constructors, swappable in tests.
var (
	openDecoder = codec.OpenFLAC
	newEncoder  = codec.NewShineEncoder
)

type sessionState int

const (
	stateStreaming sessionState = iota
	stateFlushed
)

// Session is one open virtual file. All state is guarded by mu so that
// concurrent reads on one handle cannot violate the append-only buffer
// invariant.
type Session struct {
	mu sync.Mutex

	name       string
	sourceName string
	info       codec.StreamInfo

	dec codec.Decoder
	enc codec.Encoder

	buf       buffer
	totalSize int64
	trailer   [trailerSize]byte

	state sessionState
	fail  error

	log hclog.Logger
}

// SourceName derives the lossless source path from a virtual path by
// extension substitution. Paths without the virtual extension are returned
// unchanged.
func SourceName(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".mp3") {
		return name[:len(name)-len(".mp3")] + ".flac"
	}
	return name
}

// Open constructs a session for a virtual path. All metadata work happens
// here: the source header is parsed, destination tags are built, the header
// tag is rendered into the buffer and the total output size is predicted.
// On failure every partially-acquired codec handle is released, in reverse
// acquisition order, and no session is returned.
func Open(name string, cfg Config, log hclog.Logger) (*Session, error) {
	if log == nil {
		log = hclog.NewNullLogger()
	}

	sourceName := SourceName(name)
	dec, err := openDecoder(sourceName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, sourceName, err)
	}

	info := dec.Info()
	// The size estimator scales by sampleRate/100, so rates under 100 Hz are
	// unusable, not just implausible.
	if info.SampleRate < 100 {
		dec.Close()
		return nil, fmt.Errorf("%w: %s: unusable sample rate %d", ErrMalformedSource, sourceName, info.SampleRate)
	}

	tagSet := tags.Build(info, dec.Tags())

	enc, err := newEncoder(codec.EncoderConfig{
		SampleRate:  info.SampleRate,
		Channels:    info.Channels,
		BitrateKbps: cfg.BitrateKbps,
		Quality:     cfg.Quality,
		Scale:       tagSet.Scale(),
	})
	if err != nil {
		dec.Close()
		return nil, fmt.Errorf("%w: %v", ErrCodecInit, err)
	}

	header, err := tagSet.Render()
	if err != nil {
		enc.Close()
		dec.Close()
		return nil, fmt.Errorf("%w: %v", ErrCodecInit, err)
	}

	s := &Session{
		name:       name,
		sourceName: sourceName,
		info:       info,
		dec:        dec,
		enc:        enc,
		trailer:    tagSet.RenderV1(),
		log:        log.With("name", name),
	}
	s.buf.write(header)
	s.totalSize = estimateTotalSize(len(header), info, cfg.BitrateKbps)

	metrics.SessionsOpened.Inc()
	s.log.Debug("session opened",
		"source", sourceName,
		"sample_rate", info.SampleRate,
		"channels", info.Channels,
		"total_samples", info.TotalSamples,
		"predicted_size", s.totalSize)

	return s, nil
}

// Size returns the predicted total byte length, fixed at construction.
func (s *Session) Size() int64 {
	return s.totalSize
}

// ReadAt serves a byte range of the virtual file, driving the transcode pump
// just far enough to satisfy it. Requests past everything transcoded so far
// that overlap the trailing tag are answered from the precomputed trailer
// without touching the codecs, since readers commonly probe the tail first.
func (s *Session) ReadAt(p []byte, off int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	if off >= s.totalSize {
		return 0, io.EOF
	}

	n := int64(len(p))
	if off+n > s.totalSize {
		n = s.totalSize - off
	}

	if off > s.buf.pos && off+n > s.totalSize-trailerSize {
		s.readTrailer(p[:n], off)
		return s.finishRead(p, int(n))
	}

	s.pump(off + n)

	if s.buf.pos < off+n {
		n = s.buf.pos - off
		// The pump may have stalled entirely short of off, after a latched
		// failure or an early Close. Nothing to copy then.
		if n <= 0 {
			return s.finishRead(p, 0)
		}
	}
	copy(p[:n], s.buf.data[off:off+n])
	return s.finishRead(p, int(n))
}

// finishRead translates a short count into the ReaderAt error contract.
func (s *Session) finishRead(p []byte, n int) (int, error) {
	if n < len(p) {
		if s.fail != nil {
			return n, s.fail
		}
		return n, io.EOF
	}
	return n, nil
}

// readTrailer synthesizes a tail read from the trailing tag, zero-filling
// the gap between what has been buffered and the trailer region.
func (s *Session) readTrailer(p []byte, off int64) {
	for i := range p {
		p[i] = 0
	}
	start := s.totalSize - trailerSize
	if start >= off {
		copy(p[start-off:], s.trailer[:int64(len(p))-(start-off)])
	} else {
		copy(p, s.trailer[trailerSize-int64(len(p)):])
	}
}

// pump advances the decode-encode pipeline until the buffer covers the
// target offset or the source is exhausted. It only ever appends. A codec
// error latches the session: produced bytes stay readable, progress stops.
func (s *Session) pump(target int64) {
	if s.state != stateStreaming || s.fail != nil || s.dec == nil || s.enc == nil {
		return
	}

	for s.buf.pos < target {
		block, err := s.dec.DecodeBlock()
		if err == io.EOF {
			s.finish()
			return
		}
		if err != nil {
			s.fail = fmt.Errorf("%w: decoding %s: %v", ErrTranscode, s.sourceName, err)
			s.log.Error("decode failed", "error", err)
			return
		}

		out, err := s.enc.Encode(block)
		if err != nil {
			s.fail = fmt.Errorf("%w: encoding %s: %v", ErrTranscode, s.sourceName, err)
			s.log.Error("encode failed", "error", err)
			return
		}
		s.buf.write(out)
		metrics.TranscodedBytes.Add(float64(len(out)))
	}
}

// finish runs exactly once, on source exhaustion: flush the encoder,
// reconcile the predicted size against what was actually produced, append
// the trailing tag and release the codec handles.
func (s *Session) finish() {
	out, err := s.enc.Flush()
	if err != nil {
		s.log.Error("encoder flush failed", "error", err)
	} else {
		s.buf.write(out)
		metrics.TranscodedBytes.Add(float64(len(out)))
	}

	if drift := s.buf.pos + trailerSize - s.totalSize; drift != 0 {
		// Expected, not an error: the prediction is an estimate and the
		// buffer position is corrected to honor it.
		s.log.Debug("size prediction off", "drift_bytes", drift)
		metrics.SizePredictionDrift.Set(float64(drift))
		s.buf.setPos(s.totalSize - trailerSize)
	}
	s.buf.write(s.trailer[:])

	s.release()
	s.state = stateFlushed
}

// release closes the codec handles exactly once, in reverse acquisition
// order.
func (s *Session) release() {
	if s.enc != nil {
		s.enc.Close()
		s.enc = nil
	}
	if s.dec != nil {
		s.dec.Close()
		s.dec = nil
	}
}

// Close releases the session's codec handles. A session closed before being
// flushed simply stops producing output; already-buffered reads would still
// work but the serving layer drops the session after Close.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.release()
	return nil
}
