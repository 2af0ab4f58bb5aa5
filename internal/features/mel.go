package features

import "math"

// paddedHann returns a symmetric Hann window of length win centered in a
// zero vector of length nfft.
func paddedHann(win, nfft int) []float64 {
	w := make([]float64, nfft)
	offset := (nfft - win) / 2
	for i := 0; i < win; i++ {
		w[offset+i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(win-1))
	}
	return w
}

func kaldiMel(hz float64) float64 {
	return 1127.0 * math.Log(1.0+hz/700.0)
}

// kaldiMelBank builds triangular filters evaluated at every FFT bin center.
// Returns [numMels][fftSize/2+1]; the Nyquist column is always zero.
func kaldiMelBank(numMels, fftSize, sampleRate int, lowFreq, highFreq float64) [][]float64 {
	numBins := fftSize / 2
	binWidth := float64(sampleRate) / float64(fftSize)

	lowMel := kaldiMel(lowFreq)
	highMel := kaldiMel(highFreq)
	delta := (highMel - lowMel) / float64(numMels+1)

	bank := make([][]float64, numMels)
	for m := range bank {
		left := lowMel + float64(m)*delta
		center := left + delta
		right := center + delta

		filter := make([]float64, numBins+1)
		for k := 0; k < numBins; k++ {
			mel := kaldiMel(binWidth * float64(k))
			up := (mel - left) / (center - left)
			down := (right - mel) / (right - center)
			if w := math.Min(up, down); w > 0 {
				filter[k] = w
			}
		}
		bank[m] = filter
	}
	return bank
}
