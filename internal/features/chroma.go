package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	// A0 is 27.5 Hz, i.e. A440 four octaves down; octaves are counted from it.
	chromaRefHz     = 440.0 / 16
	chromaCtrOctave = 5.0
	chromaOctWidth  = 2.0
)

// chromaFilterBank maps FFT bins onto pitch classes with Gaussian bumps one
// semitone wide, weighted towards the middle octaves. Rows start at C.
// Result is [nChroma][windowSize/2+1].
func chromaFilterBank(sampleRate, windowSize, nChroma int) [][]float64 {
	n := float64(nChroma)

	// fractional pitch-class position of every bin
	frq := make([]float64, windowSize)
	for k := 1; k < windowSize; k++ {
		f := float64(k) * float64(sampleRate) / float64(windowSize)
		frq[k] = n * math.Log2(f/chromaRefHz)
	}
	// DC gets a position 1.5 octaves below bin 1
	frq[0] = frq[1] - 1.5*n

	width := make([]float64, windowSize)
	for k := 0; k < windowSize-1; k++ {
		width[k] = math.Max(frq[k+1]-frq[k], 1)
	}
	width[windowSize-1] = 1

	half := math.Round(n / 2)
	wts := make([][]float64, nChroma)
	for c := range wts {
		wts[c] = make([]float64, windowSize)
	}
	for k := 0; k < windowSize; k++ {
		for c := 0; c < nChroma; c++ {
			d := pyMod(frq[k]-float64(c)+half+10*n, n) - half
			wts[c][k] = math.Exp(-0.5 * math.Pow(2*d/width[k], 2))
		}
	}

	// unit L2 norm per bin, then octave weighting
	col := make([]float64, nChroma)
	for k := 0; k < windowSize; k++ {
		for c := range col {
			col[c] = wts[c][k]
		}
		norm := floats.Norm(col, 2)
		octave := math.Exp(-0.5 * math.Pow((frq[k]/n-chromaCtrOctave)/chromaOctWidth, 2))
		for c := range col {
			if norm > 0 {
				wts[c][k] /= norm
			}
			wts[c][k] *= octave
		}
	}

	// rotate so row 0 is C (A is 3 semitones below C in this layout)
	shift := 3 * (nChroma / 12)
	bins := windowSize/2 + 1
	bank := make([][]float64, nChroma)
	for c := 0; c < nChroma; c++ {
		bank[c] = append([]float64(nil), wts[(c+shift)%nChroma][:bins]...)
	}
	return bank
}

// meanChroma projects the power spectrogram onto pitch classes, normalises
// each frame by its peak and averages over time.
func meanChroma(power [][]float64, sampleRate, windowSize, nChroma int) []float64 {
	bank := chromaFilterBank(sampleRate, windowSize, nChroma)

	chroma := make([][]float64, nChroma)
	for c := range chroma {
		chroma[c] = make([]float64, len(power))
	}
	for t, frame := range power {
		peak := 0.0
		for c, filt := range bank {
			v := floats.Dot(filt, frame)
			chroma[c][t] = v
			if math.Abs(v) > peak {
				peak = math.Abs(v)
			}
		}
		if peak < tiny {
			continue
		}
		for c := range chroma {
			chroma[c][t] /= peak
		}
	}
	return meanColumns(chroma)
}

// tiny is the smallest positive normal float64.
const tiny = 2.2250738585072014e-308

// pyMod is a modulo whose result takes the sign of the divisor.
func pyMod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	return r
}
