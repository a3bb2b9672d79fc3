// Package similarity scores pairs of fingerprints and ranks candidates
// against a query.
package similarity

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/himanishpuri/SoundAlike/pkg/models"
)

// Weights sets how much each sub-similarity contributes to the total.
// They are normalised to sum to 1 before use.
type Weights struct {
	MFCC               float64 `json:"mfcc"`
	Chroma             float64 `json:"chroma"`
	Centroid           float64 `json:"centroid"`
	Rolloff            float64 `json:"rolloff"`
	HarmonicPercussive float64 `json:"harmonic_percussive"`
	Hash               float64 `json:"hash"`
}

func DefaultWeights() Weights {
	return Weights{
		MFCC:               0.3,
		Chroma:             0.2,
		Centroid:           0.2,
		Rolloff:            0.1,
		HarmonicPercussive: 0.1,
		Hash:               0.2,
	}
}

func (w Weights) values() []float64 {
	return []float64{w.MFCC, w.Chroma, w.Centroid, w.Rolloff, w.HarmonicPercussive, w.Hash}
}

// Normalized rescales w to sum to 1. Negative, non-finite or all-zero
// weights are rejected.
func (w Weights) Normalized() (Weights, error) {
	vals := w.values()
	for _, v := range vals {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return Weights{}, fmt.Errorf("%w: weights must be finite and non-negative, got %+v", models.ErrInvalidInput, w)
		}
	}
	sum := floats.Sum(vals)
	if sum == 0 {
		return Weights{}, fmt.Errorf("%w: weights sum to zero", models.ErrInvalidInput)
	}
	return Weights{
		MFCC:               w.MFCC / sum,
		Chroma:             w.Chroma / sum,
		Centroid:           w.Centroid / sum,
		Rolloff:            w.Rolloff / sum,
		HarmonicPercussive: w.HarmonicPercussive / sum,
		Hash:               w.Hash / sum,
	}, nil
}

// Breakdown holds each sub-similarity alongside the clamped total.
type Breakdown struct {
	MFCC               float64 `json:"mfcc"`
	Chroma             float64 `json:"chroma"`
	Centroid           float64 `json:"centroid"`
	Rolloff            float64 `json:"rolloff"`
	HarmonicPercussive float64 `json:"harmonic_percussive"`
	Hash               float64 `json:"hash"`
	Total              float64 `json:"total"`
}

type Scorer struct {
	weights Weights
}

func NewScorer(w Weights) (*Scorer, error) {
	nw, err := w.Normalized()
	if err != nil {
		return nil, err
	}
	return &Scorer{weights: nw}, nil
}

// DefaultScorer uses DefaultWeights.
func DefaultScorer() *Scorer {
	s, _ := NewScorer(DefaultWeights())
	return s
}

func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score returns the weighted similarity of a and b in [0, 1].
func (s *Scorer) Score(a, b *models.Record) (float64, error) {
	bd, err := s.Breakdown(a, b)
	if err != nil {
		return 0, err
	}
	return bd.Total, nil
}

func (s *Scorer) Breakdown(a, b *models.Record) (Breakdown, error) {
	if a == nil || b == nil {
		return Breakdown{}, fmt.Errorf("%w: nil fingerprint", models.ErrInvalidInput)
	}
	fa, fb := &a.Features, &b.Features

	var bd Breakdown
	var err error
	if bd.MFCC, err = Cosine(fa.MFCCMean, fb.MFCCMean); err != nil {
		return Breakdown{}, fmt.Errorf("mfccs_mean: %w", err)
	}
	if bd.Chroma, err = Cosine(fa.ChromaMean, fb.ChromaMean); err != nil {
		return Breakdown{}, fmt.Errorf("chroma_mean: %w", err)
	}
	bd.Centroid = relativeSimilarity(fa.SpectralCentroidMean, fb.SpectralCentroidMean)
	bd.Rolloff = relativeSimilarity(fa.SpectralRolloffMean, fb.SpectralRolloffMean)
	bd.HarmonicPercussive = ((1 - math.Abs(fa.HarmonicRatio-fb.HarmonicRatio)) +
		(1 - math.Abs(fa.PercussiveRatio-fb.PercussiveRatio))) / 2
	bd.Hash = HashSimilarity(a.Hashes, b.Hashes)

	w := s.weights
	total := w.MFCC*bd.MFCC +
		w.Chroma*bd.Chroma +
		w.Centroid*bd.Centroid +
		w.Rolloff*bd.Rolloff +
		w.HarmonicPercussive*bd.HarmonicPercussive +
		w.Hash*bd.Hash
	bd.Total = clamp01(total)
	return bd, nil
}

// Cosine is the cosine similarity of a and b, computed on max-abs scaled
// copies so huge magnitudes cannot overflow. Two zero vectors are
// identical (1); a zero vector against a non-zero one scores 0.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: vector lengths %d and %d", models.ErrDimensionMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 1, nil
	}

	ma := floats.Norm(a, math.Inf(1))
	mb := floats.Norm(b, math.Inf(1))
	switch {
	case ma == 0 && mb == 0:
		return 1, nil
	case ma == 0 || mb == 0:
		return 0, nil
	}

	sa := make([]float64, len(a))
	sb := make([]float64, len(b))
	floats.ScaleTo(sa, 1/ma, a)
	floats.ScaleTo(sb, 1/mb, b)

	cos := floats.Dot(sa, sb) / (floats.Norm(sa, 2) * floats.Norm(sb, 2))
	// rounding can push |cos| a hair past 1
	return math.Max(-1, math.Min(1, cos)), nil
}

// relativeSimilarity is 1 - |a-b|/max(a,b), or 1 when max(a,b) <= 0.
func relativeSimilarity(a, b float64) float64 {
	hi := math.Max(a, b)
	if hi <= 0 {
		return 1
	}
	return 1 - math.Abs(a-b)/hi
}

// HashSimilarity is the fraction of the four hashes that match exactly.
func HashSimilarity(a, b models.HashSet) float64 {
	av, bv := a.Values(), b.Values()
	matches := 0
	for i := range av {
		if av[i] == bv[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(av))
}

// clamp01 confines v to [0, 1]; NaN maps to 0.
func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
