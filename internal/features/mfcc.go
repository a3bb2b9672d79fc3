package features

import (
	"github.com/himanishpuri/SoundAlike/internal/dsp"
)

// meanMFCC takes the orthonormal DCT-II of the dB mel spectrum (ref 1.0)
// per frame and averages the first n coefficients over time.
func meanMFCC(power [][]float64, sampleRate, windowSize int, mel dsp.MelConfig, n int) []float64 {
	bank := dsp.MelFilterBank(sampleRate, windowSize, mel)
	melDB := dsp.PowerToDB(dsp.ApplyFilterBank(bank, power), 1.0)
	basis := dsp.DCTMatrix(n, len(bank))

	frames := len(power)
	coeffs := make([][]float64, n)
	for k := range coeffs {
		coeffs[k] = make([]float64, frames)
	}

	column := make([]float64, len(bank))
	for t := 0; t < frames; t++ {
		for m := range melDB {
			column[m] = melDB[m][t]
		}
		for k, c := range dsp.DCT(basis, column) {
			coeffs[k][t] = c
		}
	}
	return meanColumns(coeffs)
}
