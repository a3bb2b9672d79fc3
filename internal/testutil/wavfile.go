// Package testutil writes synthetic audio fixtures for tests.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Tone is one sine component of a fixture.
type Tone struct {
	Freq      float64
	Amplitude float64
}

// Samples renders the sum of tones, clipped to [-1, 1].
func Samples(sampleRate int, seconds float64, tones ...Tone) []float64 {
	n := int(seconds * float64(sampleRate))
	out := make([]float64, n)
	for i := range out {
		var v float64
		for _, tn := range tones {
			v += tn.Amplitude * math.Sin(2*math.Pi*tn.Freq*float64(i)/float64(sampleRate))
		}
		out[i] = math.Max(-1, math.Min(1, v))
	}
	return out
}

// WriteWAV writes samples as 16-bit mono PCM, creating parent dirs.
func WriteWAV(t testing.TB, path string, sampleRate int, samples []float64) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create fixture dir: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(math.Round(s * 32767))
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	if err := enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Failed to finish %s: %v", path, err)
	}
	return path
}

// WriteToneWAV writes a fixture made of the given tones.
func WriteToneWAV(t testing.TB, path string, sampleRate int, seconds float64, tones ...Tone) string {
	t.Helper()
	return WriteWAV(t, path, sampleRate, Samples(sampleRate, seconds, tones...))
}
