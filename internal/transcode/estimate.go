package transcode

import "github.com/olivier-w/mp3mirror/internal/codec"

const (
	// samplesPerUnit is the number of source samples per encoded MPEG frame.
	samplesPerUnit = 1152

	// trailerSize is the fixed length of the trailing tag.
	trailerSize = 128
)

// divideRound divides with a round-half-up tie-break. Players cache the
// predicted file size before the transcode finishes, so this arithmetic has
// to stay reproducible bit for bit; do not "improve" it.
func divideRound(one int64, another int64) int64 {
	result := one / another
	if one%another >= another/2 {
		result++
	}
	return result
}

// estimateUnits predicts how many encoded frames the stream will produce.
// Two extra units absorb rounding and the encoder's flush overhead.
func estimateUnits(totalSamples int64) int64 {
	return divideRound(totalSamples, samplesPerUnit) + 2
}

// estimateTotalSize predicts the final byte length of the output before any
// audio is encoded: rendered header + audio estimate + fixed trailer. The
// per-frame byte cost comes from the constant-bitrate relation
// 144*bitrate*1000/sampleRate (144 = 1152/8).
func estimateTotalSize(headerLen int, info codec.StreamInfo, bitrateKbps int) int64 {
	units := estimateUnits(info.TotalSamples)
	audio := divideRound(units*144*int64(bitrateKbps)*10, int64(info.SampleRate/100))
	return int64(headerLen) + audio + trailerSize
}
