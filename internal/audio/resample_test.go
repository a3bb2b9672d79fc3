package audio

import (
	"context"
	"math"
	"testing"
)

func sine(n, sampleRate int, freq, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func rms(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func TestResampleMatchesNativeRate(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
	}{
		{"down 44100 to 22050", 44100, 22050},
		{"down 48000 to 22050", 48000, 22050},
		{"up 11025 to 22050", 11025, 22050},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := &Buffer{Samples: sine(tt.from, tt.from, 440, 0.5), SampleRate: tt.from}
			out, err := Resample(context.Background(), in, tt.to)
			if err != nil {
				t.Fatalf("Resample failed: %v", err)
			}
			if out.SampleRate != tt.to {
				t.Errorf("Expected rate %d, got %d", tt.to, out.SampleRate)
			}
			if len(out.Samples) != tt.to {
				t.Fatalf("Expected %d samples, got %d", tt.to, len(out.Samples))
			}

			want := sine(tt.to, tt.to, 440, 0.5)
			// edges see a truncated kernel
			margin := tt.to / 20
			for i := margin; i < len(want)-margin; i++ {
				if d := math.Abs(out.Samples[i] - want[i]); d > 5e-3 {
					t.Fatalf("Sample %d: expected %f, got %f", i, want[i], out.Samples[i])
				}
			}
		})
	}
}

func TestResampleRemovesContentAboveNewNyquist(t *testing.T) {
	in := &Buffer{Samples: sine(44100, 44100, 15000, 0.5), SampleRate: 44100}
	out, err := Resample(context.Background(), in, 22050)
	if err != nil {
		t.Fatal(err)
	}
	margin := len(out.Samples) / 20
	if r := rms(out.Samples[margin : len(out.Samples)-margin]); r > 0.02 {
		t.Errorf("Expected a 15 kHz tone to be filtered out, got RMS %f", r)
	}
}

func TestResamplePassThrough(t *testing.T) {
	buf := &Buffer{Samples: []float64{0.1, 0.2}, SampleRate: 22050}
	for _, rate := range []int{0, -1, 22050} {
		out, err := Resample(context.Background(), buf, rate)
		if err != nil || out != buf {
			t.Errorf("rate %d: expected the same buffer back, got %p, %v", rate, out, err)
		}
	}

	empty := &Buffer{SampleRate: 44100}
	if out, _ := Resample(context.Background(), empty, 22050); out != empty {
		t.Error("Expected an empty buffer to pass through")
	}
}

func TestResampleCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	in := &Buffer{Samples: sine(4410, 44100, 440, 0.5), SampleRate: 44100}
	if _, err := Resample(ctx, in, 22050); err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
