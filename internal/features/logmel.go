// Package features computes the log mel spectrogram PaSST expects when a
// model is exported without its own spectrogram stage.
//
// PaSSTConfig mirrors the reference preprocessing:
//
//	SampleRate:  32000
//	WindowSize:  800 (25 ms, Hann)
//	HopSize:     320 (10 ms)
//	FFTSize:     1024
//	NumMels:     128 (Kaldi mel scale)
//	LowFreq:     0
//	HighFreq:    15000
//	PreEmphasis: 0.97
//
// Frames are centered (reflect padding of FFTSize/2 on both ends) and the
// output is log(mel + 1e-5) rescaled by (x + 4.5) / 5.
package features

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	logOffset = 1e-5
	normShift = 4.5
	normScale = 5.0
)

// Config controls log mel extraction.
type Config struct {
	SampleRate  int     // audio sample rate in Hz
	WindowSize  int     // Hann window length in samples
	HopSize     int     // hop length in samples
	FFTSize     int     // FFT size, >= WindowSize
	NumMels     int     // number of mel bands
	LowFreq     float64 // lowest band edge in Hz
	HighFreq    float64 // highest band edge in Hz
	PreEmphasis float64 // pre-emphasis coefficient
}

// PaSSTConfig returns the preprocessing parameters of the PaSST AudioSet models.
func PaSSTConfig() Config {
	return Config{
		SampleRate:  32000,
		WindowSize:  800,
		HopSize:     320,
		FFTSize:     1024,
		NumMels:     128,
		LowFreq:     0,
		HighFreq:    15000,
		PreEmphasis: 0.97,
	}
}

// LogMel extracts normalized log mel spectrograms.
type LogMel struct {
	cfg     Config
	window  []float64 // FFTSize long, Hann of WindowSize centered in it
	melBank [][]float64
	fft     *fourier.FFT
}

// NewLogMel creates an extractor for cfg.
func NewLogMel(cfg Config) *LogMel {
	return &LogMel{
		cfg:     cfg,
		window:  paddedHann(cfg.WindowSize, cfg.FFTSize),
		melBank: kaldiMelBank(cfg.NumMels, cfg.FFTSize, cfg.SampleRate, cfg.LowFreq, cfg.HighFreq),
		fft:     fourier.NewFFT(cfg.FFTSize),
	}
}

func (e *LogMel) Config() Config { return e.cfg }

// Frames returns the number of frames Extract yields for n input samples.
func (e *LogMel) Frames(n int) int {
	if n < 2 {
		return 0
	}
	return 1 + (n-1)/e.cfg.HopSize
}

// Extract returns a [NumMels][T] spectrogram for pcm.
func (e *LogMel) Extract(pcm []float32) [][]float32 {
	cfg := e.cfg
	frames := e.Frames(len(pcm))
	if frames == 0 {
		return nil
	}

	padded := centerPad(preEmphasis(pcm, cfg.PreEmphasis), cfg.FFTSize/2)

	out := make([][]float32, cfg.NumMels)
	for m := range out {
		out[m] = make([]float32, frames)
	}

	frame := make([]float64, cfg.FFTSize)
	coeffs := make([]complex128, cfg.FFTSize/2+1)
	power := make([]float64, cfg.FFTSize/2+1)

	for t := 0; t < frames; t++ {
		start := t * cfg.HopSize
		for i := range frame {
			frame[i] = padded[start+i] * e.window[i]
		}

		coeffs = e.fft.Coefficients(coeffs, frame)
		for k, c := range coeffs {
			power[k] = real(c)*real(c) + imag(c)*imag(c)
		}

		for m, filter := range e.melBank {
			sum := 0.0
			for k, w := range filter {
				if w != 0 {
					sum += w * power[k]
				}
			}
			out[m][t] = float32((math.Log(sum+logOffset) + normShift) / normScale)
		}
	}
	return out
}

func Flatten(spectrogram [][]float32) []float32 {
	if len(spectrogram) == 0 {
		return nil
	}
	out := make([]float32, 0, len(spectrogram)*len(spectrogram[0]))
	for _, row := range spectrogram {
		out = append(out, row...)
	}
	return out
}

// preEmphasis applies y[i] = x[i+1] - coef*x[i]; the result is one sample
// shorter than x.
func preEmphasis(x []float32, coef float64) []float64 {
	y := make([]float64, len(x)-1)
	for i := range y {
		y[i] = float64(x[i+1]) - coef*float64(x[i])
	}
	return y
}

// centerPad reflects pad samples onto both ends of x. Signals too short to
// reflect are zero padded instead.
func centerPad(x []float64, pad int) []float64 {
	n := len(x)
	out := make([]float64, n+2*pad)
	copy(out[pad:], x)
	if n <= pad {
		return out
	}
	for k := 0; k < pad; k++ {
		out[pad-1-k] = x[k+1]
		out[pad+n+k] = x[n-2-k]
	}
	return out
}
