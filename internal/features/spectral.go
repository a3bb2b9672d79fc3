package features

import "gonum.org/v1/gonum/floats"

// spectralCentroid returns the magnitude-weighted mean frequency of each
// frame. Silent frames yield 0.
func spectralCentroid(mag [][]float64, freqs []float64) []float64 {
	out := make([]float64, len(mag))
	for t, frame := range mag {
		total := floats.Sum(frame)
		if total <= 0 {
			continue
		}
		out[t] = floats.Dot(freqs, frame) / total
	}
	return out
}

// spectralRolloff returns, per frame, the lowest bin frequency below which
// pct of the magnitude is contained.
func spectralRolloff(mag [][]float64, freqs []float64, pct float64) []float64 {
	out := make([]float64, len(mag))
	cum := make([]float64, len(freqs))
	for t, frame := range mag {
		floats.CumSum(cum, frame)
		threshold := pct * cum[len(cum)-1]
		for k, c := range cum {
			if c >= threshold {
				out[t] = freqs[k]
				break
			}
		}
	}
	return out
}
