package audio

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Normalize converts a decoded clip into a Waveform at sampleRate.
// A clip that is already mono, at sampleRate and TargetLength long is
// returned unchanged.
func Normalize(clip *Clip, sampleRate int) (*Waveform, error) {
	if clip == nil || clip.Frames() == 0 {
		return nil, decodeErr("no samples")
	}

	resampled, err := Resample(clip, sampleRate)
	if err != nil {
		return nil, err
	}

	return &Waveform{
		Samples:    FitLength(Downmix(resampled), TargetLength),
		SampleRate: sampleRate,
	}, nil
}

// Resample converts every channel of clip to sampleRate. Clips already at
// sampleRate are returned as is.
func Resample(clip *Clip, sampleRate int) (*Clip, error) {
	if clip.SampleRate == sampleRate {
		return clip, nil
	}
	if clip.SampleRate <= 0 || sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates %d -> %d", clip.SampleRate, sampleRate)
	}

	out := &Clip{
		Channels:   make([][]float32, len(clip.Channels)),
		SampleRate: sampleRate,
	}
	frames := -1
	for ch, samples := range clip.Channels {
		input := make([]float64, len(samples))
		for i, s := range samples {
			input[i] = float64(s)
		}
		// ResampleMono flushes the filter tail along with the processed block.
		output, err := resampling.ResampleMono(input, float64(clip.SampleRate), float64(sampleRate), resampling.QualityHigh)
		if err != nil {
			return nil, fmt.Errorf("resample error: %w", err)
		}

		resampled := make([]float32, len(output))
		for i, s := range output {
			resampled[i] = float32(s)
		}
		out.Channels[ch] = resampled
		if frames < 0 || len(resampled) < frames {
			frames = len(resampled)
		}
	}

	// Keep channels aligned in case the filters emitted different tails.
	for ch := range out.Channels {
		out.Channels[ch] = out.Channels[ch][:frames]
	}
	return out, nil
}

// Downmix averages all channels sample-wise into one.
func Downmix(clip *Clip) []float32 {
	if len(clip.Channels) == 1 {
		return clip.Channels[0]
	}

	frames := clip.Frames()
	mono := make([]float32, frames)
	n := float32(len(clip.Channels))
	for i := 0; i < frames; i++ {
		var sum float32
		for _, ch := range clip.Channels {
			sum += ch[i]
		}
		mono[i] = sum / n
	}
	return mono
}

// FitLength center-crops samples longer than n, starting at (len-n)/2, and
// right-pads shorter ones with zeros. Input of exactly n samples is returned
// as is.
func FitLength(samples []float32, n int) []float32 {
	switch {
	case len(samples) > n:
		start := (len(samples) - n) / 2
		return samples[start : start+n]
	case len(samples) < n:
		out := make([]float32, n)
		copy(out, samples)
		return out
	}
	return samples
}
