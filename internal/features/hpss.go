package features

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/himanishpuri/SoundAlike/internal/dsp"
)

// harmonicPercussiveRatios separates the signal by median filtering its
// magnitude spectrogram and returns mean|harmonic|/mean|x| and
// mean|percussive|/mean|x|. A silent signal yields (0, 0).
func harmonicPercussiveRatios(ctx context.Context, samples []float64, spec *dsp.Spectrum, kernel int) (float64, float64, error) {
	base := meanAbs(samples)
	if base == 0 {
		return 0, 0, nil
	}

	harm, perc, err := hpss(ctx, spec, kernel)
	if err != nil {
		return 0, 0, err
	}

	yh, err := dsp.ISTFT(harm, len(samples))
	if err != nil {
		return 0, 0, err
	}
	yp, err := dsp.ISTFT(perc, len(samples))
	if err != nil {
		return 0, 0, err
	}
	return meanAbs(yh) / base, meanAbs(yp) / base, nil
}

// hpss splits spec into harmonic and percussive spectra using soft masks
// (power 2) built from a time-axis and a frequency-axis median filter.
func hpss(ctx context.Context, spec *dsp.Spectrum, kernel int) (*dsp.Spectrum, *dsp.Spectrum, error) {
	mag := spec.Magnitude()
	frames, bins := len(mag), spec.Bins()

	// harmonic: median along time for every bin
	harmMag := make([][]float64, frames)
	for t := range harmMag {
		harmMag[t] = make([]float64, bins)
	}
	row := make([]float64, frames)
	filtered := make([]float64, frames)
	for k := 0; k < bins; k++ {
		for t := 0; t < frames; t++ {
			row[t] = mag[t][k]
		}
		medianFilter(filtered, row, kernel)
		for t := 0; t < frames; t++ {
			harmMag[t][k] = filtered[t]
		}
		if k%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
	}

	// percussive: median along frequency for every frame
	percMag := make([][]float64, frames)
	for t := 0; t < frames; t++ {
		percMag[t] = make([]float64, bins)
		medianFilter(percMag[t], mag[t], kernel)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	harm := &dsp.Spectrum{WindowSize: spec.WindowSize, HopSize: spec.HopSize, SampleRate: spec.SampleRate, Center: spec.Center, Length: spec.Length}
	perc := *harm
	harm.Frames = make([][]complex128, frames)
	perc.Frames = make([][]complex128, frames)
	for t := 0; t < frames; t++ {
		hf := make([]complex128, bins)
		pf := make([]complex128, bins)
		for k := 0; k < bins; k++ {
			mh, mp := softMasks(harmMag[t][k], percMag[t][k])
			x := spec.Frames[t][k]
			hf[k] = x * complex(mh, 0)
			pf[k] = x * complex(mp, 0)
		}
		harm.Frames[t] = hf
		perc.Frames[t] = pf
	}
	return harm, &perc, nil
}

// softMasks returns Wiener-style masks h²/(h²+p²) and p²/(h²+p²).
// Where both are ~0 the energy is split evenly.
func softMasks(h, p float64) (float64, float64) {
	z := h
	if p > z {
		z = p
	}
	if z < tiny {
		return 0.5, 0.5
	}
	h, p = h/z, p/z
	h, p = h*h, p*p
	return h / (h + p), p / (h + p)
}

// medianFilter writes the running median of src (window size, reflected at
// the edges) into dst.
func medianFilter(dst, src []float64, size int) {
	n := len(src)
	half := size / 2
	window := make([]float64, 2*half+1)
	for i := 0; i < n; i++ {
		for j := -half; j <= half; j++ {
			window[j+half] = src[reflectIndex(i+j, n)]
		}
		sort.Float64s(window)
		dst[i] = window[half]
	}
}

// reflectIndex maps i into [0, n) by mirroring about the outer edges
// (d c b a | a b c d | d c b a).
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i - 1
	}
	return i
}

func meanAbs(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	abs := make([]float64, len(x))
	for i, v := range x {
		if v < 0 {
			v = -v
		}
		abs[i] = v
	}
	return floats.Sum(abs) / float64(len(abs))
}
