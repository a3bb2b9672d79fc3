package dsp

import "math"

// DCTMatrix returns the first n rows of the orthonormal DCT-II basis over
// size inputs.
func DCTMatrix(n, size int) [][]float64 {
	basis := make([][]float64, n)
	for k := 0; k < n; k++ {
		scale := math.Sqrt(2 / float64(size))
		if k == 0 {
			scale = math.Sqrt(1 / float64(size))
		}
		row := make([]float64, size)
		for i := 0; i < size; i++ {
			row[i] = scale * math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*float64(size)))
		}
		basis[k] = row
	}
	return basis
}

// DCT projects x onto basis.
func DCT(basis [][]float64, x []float64) []float64 {
	out := make([]float64, len(basis))
	for k, row := range basis {
		var acc float64
		for i, b := range row {
			acc += b * x[i]
		}
		out[k] = acc
	}
	return out
}
