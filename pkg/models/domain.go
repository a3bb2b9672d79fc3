package models

import (
	"encoding/json"
	"fmt"
	"math"
)

// Fixed vector lengths shared by the extractor and the scorer.
const (
	MFCCLen   = 13
	ChromaLen = 12
	MaxPeaks  = 100
)

// Peak is a local maximum in the log-power mel spectrogram.
// It serialises as a two-element array [bin, frame].
type Peak struct {
	Bin   int
	Frame int
}

func (p Peak) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.Bin, p.Frame})
}

func (p *Peak) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w: peak must have 2 coordinates, got %d", ErrDimensionMismatch, len(pair))
	}
	p.Bin, p.Frame = pair[0], pair[1]
	return nil
}

// FeatureBundle holds the time-averaged spectral descriptors of one clip.
type FeatureBundle struct {
	SpectralCentroidMean float64   `json:"spectral_centroid_mean"`
	SpectralRolloffMean  float64   `json:"spectral_rolloff_mean"`
	MFCCMean             []float64 `json:"mfccs_mean"`
	ChromaMean           []float64 `json:"chroma_mean"`
	HarmonicRatio        float64   `json:"harmonic_ratio"`
	PercussiveRatio      float64   `json:"percussive_ratio"`
	PeakPositions        []Peak    `json:"peak_positions"`
}

// Validate rejects bundles that the scorer cannot compare.
func (f *FeatureBundle) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: nil feature bundle", ErrInvalidInput)
	}
	if len(f.MFCCMean) != MFCCLen {
		return fmt.Errorf("%w: mfccs_mean has %d values, want %d", ErrDimensionMismatch, len(f.MFCCMean), MFCCLen)
	}
	if len(f.ChromaMean) != ChromaLen {
		return fmt.Errorf("%w: chroma_mean has %d values, want %d", ErrDimensionMismatch, len(f.ChromaMean), ChromaLen)
	}
	if len(f.PeakPositions) > MaxPeaks {
		return fmt.Errorf("%w: %d peak positions, max %d", ErrDimensionMismatch, len(f.PeakPositions), MaxPeaks)
	}

	scalars := map[string]float64{
		"spectral_centroid_mean": f.SpectralCentroidMean,
		"spectral_rolloff_mean":  f.SpectralRolloffMean,
		"harmonic_ratio":         f.HarmonicRatio,
		"percussive_ratio":       f.PercussiveRatio,
	}
	for name, v := range scalars {
		if !isFinite(v) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidInput, name)
		}
	}
	if f.HarmonicRatio < 0 || f.PercussiveRatio < 0 {
		return fmt.Errorf("%w: negative harmonic/percussive ratio", ErrInvalidInput)
	}
	for i, v := range f.MFCCMean {
		if !isFinite(v) {
			return fmt.Errorf("%w: mfccs_mean[%d] is not finite", ErrInvalidInput, i)
		}
	}
	for i, v := range f.ChromaMean {
		if !isFinite(v) || v < 0 {
			return fmt.Errorf("%w: chroma_mean[%d] must be finite and non-negative", ErrInvalidInput, i)
		}
	}
	return nil
}

// HashKeys lists the Hash Set keys in their canonical order.
var HashKeys = [4]string{"average_hash", "phash", "dhash", "whash"}

// HashSet carries the four perceptual hashes of a spectrogram image as hex strings.
type HashSet struct {
	AverageHash string `json:"average_hash"`
	PHash       string `json:"phash"`
	DHash       string `json:"dhash"`
	WHash       string `json:"whash"`
}

// Values returns the hashes in HashKeys order.
func (h HashSet) Values() [4]string {
	return [4]string{h.AverageHash, h.PHash, h.DHash, h.WHash}
}

// Record is one fingerprint. Name is only set for in-memory collections;
// persisted records are identified by their store key.
type Record struct {
	Features FeatureBundle `json:"features"`
	Hashes   HashSet       `json:"hashes"`
	Name     string        `json:"name,omitempty"`
}

func (r *Record) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil record", ErrInvalidInput)
	}
	return r.Features.Validate()
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
