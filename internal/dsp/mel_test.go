package dsp

import (
	"math"
	"testing"
)

func TestMelScaleRoundTrip(t *testing.T) {
	for _, hz := range []float64{0, 200, 999, 1000, 4000, 11025} {
		got := MelToHz(HzToMel(hz))
		if math.Abs(got-hz) > 1e-6 {
			t.Errorf("Expected %f Hz, got %f", hz, got)
		}
	}

	// linear region: 1000 Hz is exactly 15 mel
	if m := HzToMel(1000); math.Abs(m-15) > 1e-9 {
		t.Errorf("Expected 15 mel at 1 kHz, got %f", m)
	}
}

func TestMelFilterBankShape(t *testing.T) {
	bank := MelFilterBank(22050, 2048, MelConfig{Bands: 128, FMax: 8000})

	if len(bank) != 128 {
		t.Fatalf("Expected 128 bands, got %d", len(bank))
	}
	for m, row := range bank {
		if len(row) != 1025 {
			t.Fatalf("Band %d: expected 1025 bins, got %d", m, len(row))
		}
	}

	// nothing above the 8 kHz ceiling
	cutoff := int(math.Ceil(8000.0 * 2048 / 22050))
	for m, row := range bank {
		for k := cutoff + 1; k < len(row); k++ {
			if row[k] != 0 {
				t.Fatalf("Band %d has weight at bin %d above ceiling", m, k)
			}
		}
	}
}

func TestMelFilterBankClampsToNyquist(t *testing.T) {
	bank := MelFilterBank(8000, 512, MelConfig{Bands: 40, FMax: 8000})

	for m, row := range bank {
		var sum float64
		for _, w := range row {
			sum += w
		}
		if sum == 0 {
			t.Errorf("Band %d is empty; ceiling should clamp to Nyquist", m)
		}
	}
}

func TestPowerToDB(t *testing.T) {
	s := [][]float64{{1, 0.1}, {0.01, 0}}

	db := PowerToDB(s, MaxValue(s))

	if db[0][0] != 0 {
		t.Errorf("Expected 0 dB at the reference, got %f", db[0][0])
	}
	if math.Abs(db[0][1]+10) > 1e-9 {
		t.Errorf("Expected -10 dB, got %f", db[0][1])
	}
	if db[1][1] != -TopDB {
		t.Errorf("Expected silence clipped to -%v dB, got %f", TopDB, db[1][1])
	}
}

func TestPowerToDBConstant(t *testing.T) {
	s := [][]float64{{0, 0}, {0, 0}}
	db := PowerToDB(s, MaxValue(s))
	for _, row := range db {
		for _, v := range row {
			if v != 0 {
				t.Errorf("Expected silent input to map to 0 dB, got %f", v)
			}
		}
	}
}

func TestDCTMatrixOrthonormal(t *testing.T) {
	n := 16
	basis := DCTMatrix(n, n)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var dot float64
			for k := 0; k < n; k++ {
				dot += basis[i][k] * basis[j][k]
			}
			want := 0.0
			if i == j {
				want = 1
			}
			if math.Abs(dot-want) > 1e-9 {
				t.Fatalf("Row %d . row %d = %f, expected %f", i, j, dot, want)
			}
		}
	}
}

func TestDCTConstantSignal(t *testing.T) {
	x := []float64{2, 2, 2, 2}
	out := DCT(DCTMatrix(3, 4), x)

	if math.Abs(out[0]-4) > 1e-9 {
		t.Errorf("Expected DC coefficient 4, got %f", out[0])
	}
	for k := 1; k < len(out); k++ {
		if math.Abs(out[k]) > 1e-9 {
			t.Errorf("Expected zero coefficient %d, got %f", k, out[k])
		}
	}
}
