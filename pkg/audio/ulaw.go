// Package audio provides G.711 µ-law helpers for the telephony media path.
//
// The relay forwards audio payloads verbatim and never transcodes them;
// these helpers exist only for debug-verbosity metering, where a chunk is
// decoded to linear PCM to measure its level.
package audio

import (
	"encoding/binary"
	"math"

	"github.com/zaf/g711"
)

// DecodeUlaw converts 8-bit µ-law samples to 16-bit little-endian linear
// PCM.
func DecodeUlaw(ulaw []byte) []byte {
	return g711.DecodeUlaw(ulaw)
}

// RMS computes the root-mean-square level of 16-bit little-endian PCM,
// normalised to [0, 1]. Returns 0 for empty or truncated input.
func RMS(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		v := float64(s) / math.MaxInt16
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}

// UlawLevel decodes one µ-law chunk and returns its normalised RMS level.
func UlawLevel(ulaw []byte) float64 {
	if len(ulaw) == 0 {
		return 0
	}
	return RMS(DecodeUlaw(ulaw))
}
