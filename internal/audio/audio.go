// Package audio decodes audio files and normalizes them into the fixed
// mono waveform the tagging model consumes.
//
// Load runs the whole pipeline:
//
//	decode -> resample to the target rate -> average channels -> crop or pad to TargetLength
//
// Decoding picks a codec from the file's magic bytes: WAV and MP3 are decoded
// in-process, anything else goes through ffmpeg.
package audio

import (
	"errors"
	"fmt"
)

const (
	// DefaultSampleRate is the rate PaSST models are trained at.
	DefaultSampleRate = 32000

	// TargetLength is the number of samples every Waveform holds.
	TargetLength = 998 * 32
)

// ErrDecode is returned when a file cannot be decoded or holds no samples.
var ErrDecode = errors.New("decode error")

// Clip is decoded audio before normalization. Channels are planar and all
// have the same length.
type Clip struct {
	Channels   [][]float32
	SampleRate int
}

func (c *Clip) Frames() int {
	if len(c.Channels) == 0 {
		return 0
	}
	return len(c.Channels[0])
}

// Waveform is a mono clip of exactly TargetLength samples.
type Waveform struct {
	Samples    []float32
	SampleRate int
}

func decodeErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDecode, fmt.Sprintf(format, args...))
}

func deinterleave(samples []float32, channels int) [][]float32 {
	frames := len(samples) / channels
	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			out[ch][i] = samples[i*channels+ch]
		}
	}
	return out
}
