// Package features turns a mono sample buffer into a fixed-shape feature bundle.
package features

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/himanishpuri/SoundAlike/internal/dsp"
	"github.com/himanishpuri/SoundAlike/pkg/models"
)

// Config holds the analysis parameters. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	STFT        dsp.STFTConfig
	Mel         dsp.MelConfig // limited view used for peak picking
	MFCCMel     dsp.MelConfig // unrestricted view the cepstrum is taken from
	NumMFCC     int
	NumChroma   int
	RollPercent float64
	HPSSKernel  int
	MaxPeaks    int
}

func DefaultConfig() Config {
	return Config{
		STFT:        dsp.DefaultSTFTConfig(),
		Mel:         dsp.MelConfig{Bands: 128, FMax: 8000},
		MFCCMel:     dsp.DefaultMelConfig(),
		NumMFCC:     models.MFCCLen,
		NumChroma:   models.ChromaLen,
		RollPercent: 0.85,
		HPSSKernel:  31,
		MaxPeaks:    models.MaxPeaks,
	}
}

type Extractor struct {
	cfg Config
}

func NewExtractor(cfg Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// Extract runs the full feature pipeline with the default configuration.
func Extract(samples []float64, sampleRate int) (*models.FeatureBundle, error) {
	return NewExtractor(DefaultConfig()).Extract(samples, sampleRate)
}

func (e *Extractor) Extract(samples []float64, sampleRate int) (*models.FeatureBundle, error) {
	return e.ExtractContext(context.Background(), samples, sampleRate)
}

// ExtractContext is Extract with cancellation checked between stages.
// Either a complete, validated bundle or an error is returned.
func (e *Extractor) ExtractContext(ctx context.Context, samples []float64, sampleRate int) (*models.FeatureBundle, error) {
	if err := validateInput(samples, sampleRate); err != nil {
		return nil, err
	}

	spec, err := dsp.STFT(samples, sampleRate, e.cfg.STFT)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	power := spec.Power()
	mag := spec.Magnitude()
	freqs := spec.FrequencyBins()

	bundle := &models.FeatureBundle{}

	// 1. limited mel view, dB relative to the loudest cell
	melPower := dsp.ApplyFilterBank(dsp.MelFilterBank(sampleRate, spec.WindowSize, e.cfg.Mel), power)
	melDB := dsp.PowerToDB(melPower, dsp.MaxValue(melPower))

	// 2. centroid / rolloff
	bundle.SpectralCentroidMean = stat.Mean(spectralCentroid(mag, freqs), nil)
	bundle.SpectralRolloffMean = stat.Mean(spectralRolloff(mag, freqs, e.cfg.RollPercent), nil)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 3. cepstrum
	bundle.MFCCMean = meanMFCC(power, sampleRate, spec.WindowSize, e.cfg.MFCCMel, e.cfg.NumMFCC)

	// 4. pitch classes
	bundle.ChromaMean = meanChroma(power, sampleRate, spec.WindowSize, e.cfg.NumChroma)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 5. harmonic / percussive split
	h, p, err := harmonicPercussiveRatios(ctx, samples, spec, e.cfg.HPSSKernel)
	if err != nil {
		return nil, err
	}
	bundle.HarmonicRatio, bundle.PercussiveRatio = h, p

	// 6. peaks
	bundle.PeakPositions = peakPositions(melDB, e.cfg.MaxPeaks)

	if err := bundle.Validate(); err != nil {
		return nil, err
	}
	return bundle, nil
}

// MelDB computes a band-major mel spectrogram in dB relative to its maximum.
func (e *Extractor) MelDB(samples []float64, sampleRate int, mel dsp.MelConfig) ([][]float64, error) {
	if err := validateInput(samples, sampleRate); err != nil {
		return nil, err
	}
	spec, err := dsp.STFT(samples, sampleRate, e.cfg.STFT)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	melPower := dsp.MelSpectrogram(spec, mel)
	return dsp.PowerToDB(melPower, dsp.MaxValue(melPower)), nil
}

func validateInput(samples []float64, sampleRate int) error {
	if len(samples) == 0 {
		return fmt.Errorf("%w: empty sample buffer", models.ErrInvalidInput)
	}
	if sampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", models.ErrInvalidInput, sampleRate)
	}
	for i, v := range samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: sample %d is not finite", models.ErrInvalidInput, i)
		}
	}
	return nil
}

// meanColumns averages a band-major matrix over frames.
func meanColumns(m [][]float64) []float64 {
	out := make([]float64, len(m))
	for i, row := range m {
		out[i] = stat.Mean(row, nil)
	}
	return out
}
