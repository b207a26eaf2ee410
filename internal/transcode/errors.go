package transcode

import "errors"

// Construction and streaming failures, matchable with errors.Is. Size
// prediction drift is deliberately absent: it is reconciled internally and
// only ever logged.
var (
	// ErrSourceUnavailable means the derived source path could not be
	// opened or parsed. The session is not created.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrMalformedSource means the source header metadata is structurally
	// invalid, such as a missing or unusably low sample rate. The session is
	// not created.
	ErrMalformedSource = errors.New("malformed source")

	// ErrCodecInit means the decoder or encoder could not be configured.
	// The session is not created.
	ErrCodecInit = errors.New("codec initialization failed")

	// ErrTranscode means decode or encode failed mid-stream. Bytes already
	// produced stay readable; the session cannot progress further.
	ErrTranscode = errors.New("transcode failed")
)
