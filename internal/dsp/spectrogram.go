package dsp

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Tunables
const (
	WindowSize = 2048
	HopSize    = 512
)

// STFTConfig controls frame layout. With Center set, the signal is zero
// padded by WindowSize/2 on both sides so frame t is centred on sample t*Hop.
type STFTConfig struct {
	WindowSize int
	HopSize    int
	Center     bool
}

func DefaultSTFTConfig() STFTConfig {
	return STFTConfig{
		WindowSize: WindowSize,
		HopSize:    HopSize,
		Center:     true,
	}
}

// Spectrum is a complex short-time spectrum, frame-major:
// Frames[frameIdx][freqBin] for freqBin in [0, WindowSize/2].
type Spectrum struct {
	Frames     [][]complex128
	WindowSize int
	HopSize    int
	SampleRate int
	Center     bool
	Length     int // input sample count
}

// Hann returns a periodic Hann window of length n.
func Hann(n int) []float64 {
	return window.Hann(n + 1)[:n]
}

// FFTReal wraps the go-dsp FFT function and returns a complex spectrum.
func FFTReal(frame []float64) []complex128 {
	return fft.FFTReal(frame)
}

// MagnitudeSpectrum converts a complex spectrum into magnitudes, bin for bin.
func MagnitudeSpectrum(spectrum []complex128) []float64 {
	mag := make([]float64, len(spectrum))
	for i, c := range spectrum {
		mag[i] = cmplx.Abs(c)
	}
	return mag
}

// STFT computes the short-time FFT of samples with a periodic Hann window.
func STFT(samples []float64, sampleRate int, cfg STFTConfig) (*Spectrum, error) {
	ws, hs := cfg.WindowSize, cfg.HopSize
	if ws < 2 || hs < 1 {
		return nil, errors.New("window size must be >= 2 and hop size >= 1")
	}
	if len(samples) == 0 {
		return nil, errors.New("no samples")
	}

	padded := samples
	if cfg.Center {
		pad := ws / 2
		padded = make([]float64, len(samples)+2*pad)
		copy(padded[pad:], samples)
	}
	if len(padded) < ws {
		return nil, errors.New("input shorter than window size")
	}

	win := Hann(ws)
	bins := ws/2 + 1
	nFrames := 1 + (len(padded)-ws)/hs

	frames := make([][]complex128, nFrames)
	frame := make([]float64, ws)
	for t := 0; t < nFrames; t++ {
		start := t * hs
		for i := 0; i < ws; i++ {
			frame[i] = padded[start+i] * win[i]
		}
		spec := FFTReal(frame)
		frames[t] = append([]complex128(nil), spec[:bins]...)
	}

	return &Spectrum{
		Frames:     frames,
		WindowSize: ws,
		HopSize:    hs,
		SampleRate: sampleRate,
		Center:     cfg.Center,
		Length:     len(samples),
	}, nil
}

// Bins is the number of non-negative frequency bins per frame.
func (s *Spectrum) Bins() int {
	return s.WindowSize/2 + 1
}

// Magnitude returns |X| frame-major.
func (s *Spectrum) Magnitude() [][]float64 {
	out := make([][]float64, len(s.Frames))
	for t, f := range s.Frames {
		out[t] = MagnitudeSpectrum(f)
	}
	return out
}

// Power returns |X|^2 frame-major.
func (s *Spectrum) Power() [][]float64 {
	out := make([][]float64, len(s.Frames))
	for t, f := range s.Frames {
		row := make([]float64, len(f))
		for k, c := range f {
			re, im := real(c), imag(c)
			row[k] = re*re + im*im
		}
		out[t] = row
	}
	return out
}

// FrequencyBins returns the centre frequency in Hz of every bin.
func (s *Spectrum) FrequencyBins() []float64 {
	freqs := make([]float64, s.Bins())
	for k := range freqs {
		freqs[k] = float64(k) * float64(s.SampleRate) / float64(s.WindowSize)
	}
	return freqs
}

// ISTFT inverts a spectrum by windowed overlap-add and returns exactly
// length samples. Frames may have been modified (e.g. masked) after STFT.
func ISTFT(s *Spectrum, length int) ([]float64, error) {
	if s == nil || len(s.Frames) == 0 {
		return nil, errors.New("empty spectrum")
	}
	ws, hs := s.WindowSize, s.HopSize
	bins := s.Bins()
	win := Hann(ws)

	total := ws + hs*(len(s.Frames)-1)
	y := make([]float64, total)
	wsum := make([]float64, total)

	full := make([]complex128, ws)
	for t, f := range s.Frames {
		if len(f) != bins {
			return nil, errors.New("frame has wrong number of bins")
		}
		for k := range full {
			full[k] = 0
		}
		copy(full, f)
		for k := 1; k < bins; k++ {
			if ws-k != k {
				full[ws-k] = cmplx.Conj(f[k])
			}
		}
		frame := fft.IFFT(full)
		start := t * hs
		for i := 0; i < ws; i++ {
			y[start+i] += real(frame[i]) * win[i]
			wsum[start+i] += win[i] * win[i]
		}
	}

	for i := range y {
		if wsum[i] > 1e-10 {
			y[i] /= wsum[i]
		}
	}

	offset := 0
	if s.Center {
		offset = ws / 2
	}
	out := make([]float64, length)
	if offset < len(y) {
		copy(out, y[offset:])
	}
	return out, nil
}
