package features

import (
	"reflect"
	"testing"
)

func TestFindPeaks(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []int
	}{
		{"single", []float64{0, 1, 0}, []int{1}},
		{"two", []float64{0, 3, 1, 4, 2}, []int{1, 3}},
		{"plateau", []float64{0, 2, 2, 2, 0}, []int{2}},
		{"even plateau", []float64{0, 2, 2, 0}, []int{1}},
		{"plateau then rise", []float64{0, 2, 2, 3, 1}, []int{3}},
		{"edges ignored", []float64{5, 1, 5}, nil},
		{"monotonic", []float64{1, 2, 3, 4}, nil},
		{"too short", []float64{1, 2}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findPeaks(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPeakPositionsRowMajorTruncated(t *testing.T) {
	row := []float64{0, 1, 0, 1, 0, 1, 0}
	db := [][]float64{row, row, row}

	peaks := peakPositions(db, 5)

	if len(peaks) != 5 {
		t.Fatalf("Expected 5 peaks, got %d", len(peaks))
	}
	// three peaks in row 0, then the first two of row 1
	wantBins := []int{0, 0, 0, 1, 1}
	wantFrames := []int{1, 3, 5, 1, 3}
	for i, p := range peaks {
		if p.Bin != wantBins[i] || p.Frame != wantFrames[i] {
			t.Errorf("Peak %d: expected (%d,%d), got (%d,%d)", i, wantBins[i], wantFrames[i], p.Bin, p.Frame)
		}
	}
}

func TestMedianFilterReflect(t *testing.T) {
	src := []float64{1, 5, 2, 8, 3}
	dst := make([]float64, len(src))

	medianFilter(dst, src, 3)

	want := []float64{1, 2, 5, 3, 3}
	if !reflect.DeepEqual(dst, want) {
		t.Errorf("Expected %v, got %v", want, dst)
	}
}

func TestReflectIndex(t *testing.T) {
	n := 4
	tests := map[int]int{-3: 2, -1: 0, 0: 0, 3: 3, 4: 3, 5: 2, 9: 1}
	for in, want := range tests {
		if got := reflectIndex(in, n); got != want {
			t.Errorf("reflectIndex(%d, %d): expected %d, got %d", in, n, want, got)
		}
	}
}

func TestSoftMasksSumToOne(t *testing.T) {
	cases := [][2]float64{{1, 0}, {0, 1}, {3, 4}, {1e-300, 1e-300}, {0, 0}}
	for _, c := range cases {
		h, p := softMasks(c[0], c[1])
		if d := h + p - 1; d > 1e-12 || d < -1e-12 {
			t.Errorf("Masks for %v sum to %f", c, h+p)
		}
	}

	if h, p := softMasks(0, 0); h != 0.5 || p != 0.5 {
		t.Errorf("Expected even split for silence, got %f/%f", h, p)
	}
}
