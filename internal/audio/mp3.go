package audio

import (
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always emits 16-bit little-endian stereo.
const mp3Channels = 2

func decodeMP3(r io.Reader) (*Clip, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, decodeErr("mp3: %v", err)
	}

	raw, err := io.ReadAll(decoder)
	if err != nil {
		return nil, decodeErr("mp3 read: %v", err)
	}

	n := len(raw) / 2
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		sample := int16(raw[2*i]) | int16(raw[2*i+1])<<8
		samples[i] = float32(sample) / 32768.0
	}

	return &Clip{
		Channels:   deinterleave(samples, mp3Channels),
		SampleRate: decoder.SampleRate(),
	}, nil
}
