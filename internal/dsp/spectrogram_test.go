package dsp

import (
	"math"
	"testing"
)

func sine(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func TestHann(t *testing.T) {
	sizes := []int{128, 256, 512, 2048}

	for _, size := range sizes {
		w := Hann(size)

		if len(w) != size {
			t.Errorf("Expected window size %d, got %d", size, len(w))
		}
		if w[0] != 0 {
			t.Errorf("Expected periodic Hann to start at 0, got %f", w[0])
		}
		if math.Abs(w[size/2]-1) > 1e-12 {
			t.Errorf("Expected peak 1 at n/2, got %f", w[size/2])
		}
		// periodic: w[k] == w[n-k]
		if math.Abs(w[1]-w[size-1]) > 1e-12 {
			t.Errorf("Expected periodic symmetry, got %f vs %f", w[1], w[size-1])
		}
	}
}

func TestMagnitudeSpectrum(t *testing.T) {
	spectrum := []complex128{
		complex(1.0, 0.0),
		complex(0.0, 1.0),
		complex(3.0, 4.0),
	}

	mag := MagnitudeSpectrum(spectrum)

	want := []float64{1, 1, 5}
	for i := range want {
		if mag[i] != want[i] {
			t.Errorf("Expected magnitude %f at %d, got %f", want[i], i, mag[i])
		}
	}
}

func TestSTFTFrameCount(t *testing.T) {
	cfg := DefaultSTFTConfig()
	samples := sine(440, 22050, 22050)

	spec, err := STFT(samples, 22050, cfg)
	if err != nil {
		t.Fatalf("STFT failed: %v", err)
	}

	expected := 1 + len(samples)/cfg.HopSize
	if len(spec.Frames) != expected {
		t.Errorf("Expected %d frames, got %d", expected, len(spec.Frames))
	}
	if len(spec.Frames[0]) != spec.Bins() {
		t.Errorf("Expected %d bins, got %d", spec.Bins(), len(spec.Frames[0]))
	}
}

func TestSTFTShortInputIsPadded(t *testing.T) {
	spec, err := STFT([]float64{1, 0.5, 0.25}, 8000, DefaultSTFTConfig())
	if err != nil {
		t.Fatalf("Expected centred STFT to accept short input, got %v", err)
	}
	if len(spec.Frames) != 1 {
		t.Errorf("Expected 1 frame, got %d", len(spec.Frames))
	}
}

func TestSTFTRejectsEmpty(t *testing.T) {
	if _, err := STFT(nil, 8000, DefaultSTFTConfig()); err == nil {
		t.Error("Expected error for empty input")
	}
}

func TestSTFTPeakBin(t *testing.T) {
	sr := 8000
	freq := 1000.0
	spec, err := STFT(sine(freq, sr, 8000), sr, DefaultSTFTConfig())
	if err != nil {
		t.Fatalf("STFT failed: %v", err)
	}

	mag := spec.Magnitude()[len(spec.Frames)/2]
	best := 0
	for k := range mag {
		if mag[k] > mag[best] {
			best = k
		}
	}

	freqs := spec.FrequencyBins()
	if math.Abs(freqs[best]-freq) > float64(sr)/float64(spec.WindowSize) {
		t.Errorf("Expected peak near %.0f Hz, got %.1f Hz", freq, freqs[best])
	}
}

func TestISTFTRoundTrip(t *testing.T) {
	sr := 11025
	samples := sine(330, sr, 6000)
	for i := range samples {
		samples[i] += 0.1 * math.Sin(float64(i)*0.37)
	}

	spec, err := STFT(samples, sr, DefaultSTFTConfig())
	if err != nil {
		t.Fatalf("STFT failed: %v", err)
	}
	rec, err := ISTFT(spec, len(samples))
	if err != nil {
		t.Fatalf("ISTFT failed: %v", err)
	}

	if len(rec) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(rec))
	}
	for i := range samples {
		if math.Abs(rec[i]-samples[i]) > 1e-6 {
			t.Fatalf("Sample %d: expected %f, got %f", i, samples[i], rec[i])
		}
	}
}
