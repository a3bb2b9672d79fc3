package phash

import (
	"image"
	"math"
	"testing"
)

func TestHaarRoundTrip(t *testing.T) {
	n := 16
	x := square(n)
	for i := range x {
		for j := range x[i] {
			x[i][j] = math.Sin(float64(i*n+j) * 0.3)
		}
	}

	approx, details := haarDecompose(x, 4)
	if len(approx) != 1 || len(details) != 4 {
		t.Fatalf("Expected 1x1 approximation and 4 detail levels, got %d and %d", len(approx), len(details))
	}
	y := haarReconstruct(approx, details)

	for i := range x {
		for j := range x[i] {
			if math.Abs(x[i][j]-y[i][j]) > 1e-12 {
				t.Fatalf("[%d][%d]: expected %f, got %f", i, j, x[i][j], y[i][j])
			}
		}
	}
}

func TestHaarTopLevelIsScaledMean(t *testing.T) {
	x := [][]float64{{1, 2}, {3, 4}}
	approx, _ := haarDecompose(x, 1)
	if approx[0][0] != 5 {
		t.Errorf("Expected (1+2+3+4)/2 = 5, got %f", approx[0][0])
	}
}

func TestWaveletHashSplitsHalves(t *testing.T) {
	// left half dark, right half bright: one bit per column block
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 8; x < 16; x++ {
			img.Pix[y*img.Stride+x] = 255
		}
	}

	h, err := WaveletHash(img, 8)
	if err != nil {
		t.Fatalf("WaveletHash failed: %v", err)
	}
	// every row reads 00001111
	var want uint64
	for row := 0; row < 8; row++ {
		want = want<<8 | 0x0f
	}
	if h != want {
		t.Errorf("Expected %016x, got %016x", want, h)
	}
}

func TestWaveletHashRejectsBadSize(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for _, size := range []int{0, 3, 16} {
		if _, err := WaveletHash(img, size); err == nil {
			t.Errorf("Expected error for hash size %d", size)
		}
	}
}

func TestMedianOf(t *testing.T) {
	if m := medianOf([]float64{3, 1, 2}); m != 2 {
		t.Errorf("Expected 2, got %f", m)
	}
	if m := medianOf([]float64{4, 1, 3, 2}); m != 2.5 {
		t.Errorf("Expected 2.5, got %f", m)
	}
}
