package audio

import (
	"io"

	"github.com/go-audio/wav"
)

func decodeWAV(r io.ReadSeeker) (*Clip, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, decodeErr("invalid WAV file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, decodeErr("reading WAV samples: %v", err)
	}

	channels := int(decoder.NumChans)
	if channels < 1 {
		return nil, decodeErr("WAV file has %d channels", channels)
	}
	bitDepth := int(decoder.BitDepth)
	if bitDepth < 8 || bitDepth > 32 {
		return nil, decodeErr("unsupported WAV bit depth %d", bitDepth)
	}

	// 8-bit WAV is unsigned, every wider depth is signed.
	var offset float32
	if bitDepth == 8 {
		offset = 128
	}
	maxVal := float32(int64(1) << (uint(bitDepth) - 1))

	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = (float32(v) - offset) / maxVal
	}

	return &Clip{
		Channels:   deinterleave(samples, channels),
		SampleRate: int(decoder.SampleRate),
	}, nil
}
