package phash

import (
	"fmt"
	"image"
	"math/bits"
	"sort"

	"golang.org/x/image/draw"
)

// WaveletHash resizes img to the largest power-of-two square that fits (never
// smaller than hashSize), removes the coarsest Haar approximation (the global
// mean) and thresholds the hashSize x hashSize approximation band at its
// median. hashSize must be a power of two no larger than 8.
func WaveletHash(img image.Image, hashSize int) (uint64, error) {
	if hashSize <= 0 || hashSize&(hashSize-1) != 0 || hashSize*hashSize > 64 {
		return 0, fmt.Errorf("hash size %d must be a power of two <= 8", hashSize)
	}
	b := img.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	if side <= 0 {
		return 0, fmt.Errorf("empty image")
	}

	scale := 1 << (bits.Len(uint(side)) - 1)
	if scale < hashSize {
		scale = hashSize
	}

	grey := image.NewGray(image.Rect(0, 0, scale, scale))
	draw.CatmullRom.Scale(grey, grey.Bounds(), img, b, draw.Src, nil)

	pixels := make([][]float64, scale)
	for y := 0; y < scale; y++ {
		pixels[y] = make([]float64, scale)
		for x := 0; x < scale; x++ {
			pixels[y][x] = float64(grey.Pix[y*grey.Stride+x]) / 255
		}
	}

	maxLevel := bits.Len(uint(scale)) - 1
	level := bits.Len(uint(hashSize)) - 1

	// drop the top-level LL coefficient and reconstruct
	approx, details := haarDecompose(pixels, maxLevel)
	approx[0][0] = 0
	pixels = haarReconstruct(approx, details)

	low, _ := haarDecompose(pixels, maxLevel-level)

	flat := make([]float64, 0, hashSize*hashSize)
	for _, row := range low {
		flat = append(flat, row...)
	}
	median := medianOf(flat)

	var hash uint64
	for i, v := range flat {
		if v > median {
			hash |= 1 << uint(len(flat)-1-i)
		}
	}
	return hash, nil
}

// haarDetail holds the three detail bands of one decomposition level.
type haarDetail struct {
	h, v, d [][]float64
}

// haarDecompose runs levels steps of the orthonormal 2-D Haar transform on a
// square matrix whose side is divisible by 2^levels. Details are returned
// finest first.
func haarDecompose(x [][]float64, levels int) ([][]float64, []haarDetail) {
	approx := x
	details := make([]haarDetail, 0, levels)
	for l := 0; l < levels; l++ {
		n := len(approx) / 2
		ll, lh, hl, hh := square(n), square(n), square(n), square(n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				a := approx[2*i][2*j]
				b := approx[2*i][2*j+1]
				c := approx[2*i+1][2*j]
				d := approx[2*i+1][2*j+1]
				ll[i][j] = (a + b + c + d) / 2
				lh[i][j] = (a + b - c - d) / 2
				hl[i][j] = (a - b + c - d) / 2
				hh[i][j] = (a - b - c + d) / 2
			}
		}
		details = append(details, haarDetail{h: lh, v: hl, d: hh})
		approx = ll
	}
	return approx, details
}

// haarReconstruct inverts haarDecompose.
func haarReconstruct(approx [][]float64, details []haarDetail) [][]float64 {
	out := approx
	for l := len(details) - 1; l >= 0; l-- {
		det := details[l]
		n := len(out)
		next := square(2 * n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				s, h, v, d := out[i][j], det.h[i][j], det.v[i][j], det.d[i][j]
				next[2*i][2*j] = (s + h + v + d) / 2
				next[2*i][2*j+1] = (s + h - v - d) / 2
				next[2*i+1][2*j] = (s - h + v - d) / 2
				next[2*i+1][2*j+1] = (s - h - v + d) / 2
			}
		}
		out = next
	}
	return out
}

func square(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

func medianOf(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
