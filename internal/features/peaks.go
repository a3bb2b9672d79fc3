package features

import "github.com/himanishpuri/SoundAlike/pkg/models"

// findPeaks returns the indices of local maxima of x: samples strictly
// greater than their left neighbour and greater than the first differing
// sample on the right. A flat top is reported once, at its middle (rounded
// down). End points are never peaks.
func findPeaks(x []float64) []int {
	var peaks []int
	last := len(x) - 1
	for i := 1; i < last; i++ {
		if x[i-1] >= x[i] {
			continue
		}
		ahead := i + 1
		for ahead < last && x[ahead] == x[i] {
			ahead++
		}
		if x[ahead] < x[i] {
			peaks = append(peaks, (i+ahead-1)/2)
			i = ahead
		}
	}
	return peaks
}

// peakPositions scans a band-major dB spectrogram row by row and collects
// (band, frame) for every local maximum along time, keeping the first limit.
func peakPositions(db [][]float64, limit int) []models.Peak {
	peaks := make([]models.Peak, 0, limit)
	for bin, row := range db {
		for _, frame := range findPeaks(row) {
			if len(peaks) == limit {
				return peaks
			}
			peaks = append(peaks, models.Peak{Bin: bin, Frame: frame})
		}
	}
	return peaks
}
