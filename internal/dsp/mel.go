package dsp

import "math"

const (
	// Amin is the power floor used before taking logarithms.
	Amin = 1e-10
	// TopDB clips the dynamic range of dB spectrograms.
	TopDB = 80.0
)

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	melFSp       = 200.0 / 3
	melMinLogHz  = 1000.0
	melMinLogMel = melMinLogHz / melFSp
)

var melLogStep = math.Log(6.4) / 27.0

// MelConfig describes a mel filterbank. FMax <= 0 means the Nyquist frequency.
type MelConfig struct {
	Bands int
	FMin  float64
	FMax  float64
}

// DefaultMelConfig is the unrestricted 128-band view up to Nyquist.
func DefaultMelConfig() MelConfig {
	return MelConfig{Bands: 128}
}

func HzToMel(hz float64) float64 {
	if hz >= melMinLogHz {
		return melMinLogMel + math.Log(hz/melMinLogHz)/melLogStep
	}
	return hz / melFSp
}

func MelToHz(mel float64) float64 {
	if mel >= melMinLogMel {
		return melMinLogHz * math.Exp(melLogStep*(mel-melMinLogMel))
	}
	return mel * melFSp
}

// resolveFMax clamps the ceiling to Nyquist so no band ends up empty.
func (c MelConfig) resolveFMax(sampleRate int) float64 {
	nyquist := float64(sampleRate) / 2
	if c.FMax <= 0 || c.FMax > nyquist {
		return nyquist
	}
	return c.FMax
}

// MelFilterBank builds Slaney-normalised triangular filters, [band][bin].
func MelFilterBank(sampleRate, windowSize int, cfg MelConfig) [][]float64 {
	bins := windowSize/2 + 1
	fmax := cfg.resolveFMax(sampleRate)

	melMin, melMax := HzToMel(cfg.FMin), HzToMel(fmax)
	edges := make([]float64, cfg.Bands+2)
	for i := range edges {
		edges[i] = MelToHz(melMin + float64(i)*(melMax-melMin)/float64(cfg.Bands+1))
	}

	bank := make([][]float64, cfg.Bands)
	for m := 0; m < cfg.Bands; m++ {
		lo, mid, hi := edges[m], edges[m+1], edges[m+2]
		enorm := 2 / (hi - lo)
		row := make([]float64, bins)
		for k := 0; k < bins; k++ {
			f := float64(k) * float64(sampleRate) / float64(windowSize)
			lower := (f - lo) / (mid - lo)
			upper := (hi - f) / (hi - mid)
			if w := math.Min(lower, upper); w > 0 {
				row[k] = w * enorm
			}
		}
		bank[m] = row
	}
	return bank
}

// ApplyFilterBank projects a frame-major power spectrogram through the bank
// and returns a band-major matrix: out[band][frame].
func ApplyFilterBank(bank [][]float64, power [][]float64) [][]float64 {
	out := make([][]float64, len(bank))
	for m, filt := range bank {
		row := make([]float64, len(power))
		for t, frame := range power {
			var acc float64
			for k, w := range filt {
				if w != 0 {
					acc += w * frame[k]
				}
			}
			row[t] = acc
		}
		out[m] = row
	}
	return out
}

// MelSpectrogram returns the band-major mel power spectrogram of s.
func MelSpectrogram(s *Spectrum, cfg MelConfig) [][]float64 {
	bank := MelFilterBank(s.SampleRate, s.WindowSize, cfg)
	return ApplyFilterBank(bank, s.Power())
}

// MaxValue returns the largest element of m, or 0 if m is empty.
func MaxValue(m [][]float64) float64 {
	first := true
	var peak float64
	for _, row := range m {
		for _, v := range row {
			if first || v > peak {
				peak, first = v, false
			}
		}
	}
	return peak
}

// PowerToDB converts power to decibels relative to ref, floors at Amin and
// clips everything more than TopDB below the peak.
func PowerToDB(s [][]float64, ref float64) [][]float64 {
	refDB := 10 * math.Log10(math.Max(Amin, ref))
	out := make([][]float64, len(s))
	peak := math.Inf(-1)
	for i, row := range s {
		r := make([]float64, len(row))
		for j, v := range row {
			r[j] = 10*math.Log10(math.Max(Amin, v)) - refDB
			if r[j] > peak {
				peak = r[j]
			}
		}
		out[i] = r
	}
	floor := peak - TopDB
	for _, row := range out {
		for j, v := range row {
			if v < floor {
				row[j] = floor
			}
		}
	}
	return out
}
