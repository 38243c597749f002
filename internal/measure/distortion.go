package measure

import "math"

// SNR returns the signal-to-noise ratio in dB of stego against original over
// their overlapping prefix. Identical inputs give +Inf; a silent original
// with any difference gives -Inf.
func SNR(original, stego []float64) float64 {
	n := min(len(original), len(stego))
	var signal, noise float64
	for i := 0; i < n; i++ {
		d := original[i] - stego[i]
		signal += original[i] * original[i]
		noise += d * d
	}
	return ratioDB(signal, noise)
}

// PSNR returns the peak signal-to-noise ratio in dB over the overlapping
// prefix, using the peak absolute value of original.
func PSNR(original, stego []float64) float64 {
	n := min(len(original), len(stego))
	if n == 0 {
		return math.Inf(1)
	}
	var peak, sumSq float64
	for i := 0; i < n; i++ {
		peak = max(peak, math.Abs(original[i]))
		d := original[i] - stego[i]
		sumSq += d * d
	}
	return ratioDB(peak*peak, sumSq/float64(n))
}

func ratioDB(signal, noise float64) float64 {
	if noise == 0 {
		return math.Inf(1)
	}
	if signal == 0 {
		return math.Inf(-1)
	}
	return 10 * math.Log10(signal/noise)
}
