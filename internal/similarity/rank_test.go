package similarity

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/himanishpuri/SoundAlike/pkg/logger"
	"github.com/himanishpuri/SoundAlike/pkg/models"
)

// fixedScorer reads the score for a candidate from its centroid, so tests
// control ranking exactly.
type fixedScorer struct{}

func (fixedScorer) Score(a, b *models.Record) (float64, error) {
	if b.Features.SpectralCentroidMean < 0 {
		return 0.99, errors.New("unscorable")
	}
	return b.Features.SpectralCentroidMean, nil
}

func quietRanker(scorer Comparer, workers int) *Ranker {
	cfg := logger.DefaultConfig()
	cfg.Output = io.Discard
	return NewRanker(scorer, WithWorkers(workers), WithLogger(logger.New(cfg)))
}

func candidates(scores ...float64) []Candidate {
	out := make([]Candidate, len(scores))
	names := []string{"A", "B", "C", "D", "E", "F"}
	for i, s := range scores {
		out[i] = Candidate{
			Name:   names[i],
			Record: &models.Record{Features: models.FeatureBundle{SpectralCentroidMean: s}},
		}
	}
	return out
}

func TestRankStableTopK(t *testing.T) {
	for _, workers := range []int{1, 4} {
		r := quietRanker(fixedScorer{}, workers)
		got, err := r.Rank(context.Background(), &models.Record{}, candidates(0.9, 0.2, 0.9, 0.5), 3)
		if err != nil {
			t.Fatalf("workers=%d: Rank failed: %v", workers, err)
		}

		want := []Result{{"A", 0.9}, {"C", 0.9}, {"D", 0.5}}
		if len(got) != len(want) {
			t.Fatalf("workers=%d: expected %d results, got %d", workers, len(want), len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("workers=%d: position %d: expected %+v, got %+v", workers, i, want[i], got[i])
			}
		}
	}
}

func TestRankAllWhenTopKNonPositive(t *testing.T) {
	r := quietRanker(fixedScorer{}, 2)
	for _, k := range []int{0, -1, 10} {
		if got, _ := r.Rank(context.Background(), &models.Record{}, candidates(0.1, 0.3), k); len(got) != 2 {
			t.Errorf("k=%d: expected 2 results, got %d", k, len(got))
		}
	}
	if got, _ := r.Rank(context.Background(), &models.Record{}, nil, 5); len(got) != 0 {
		t.Errorf("Expected no results for no candidates, got %d", len(got))
	}
}

func TestRankScoringFailureCountsAsZero(t *testing.T) {
	r := quietRanker(fixedScorer{}, 2)
	got, err := r.Rank(context.Background(), &models.Record{}, candidates(0.4, -1), 0)
	if err != nil {
		t.Fatalf("Expected scoring failures to be absorbed, got %v", err)
	}

	if got[0].Name != "A" || got[1].Name != "B" {
		t.Fatalf("Expected A before B, got %+v", got)
	}
	if got[1].Score != 0 {
		t.Errorf("Expected failed candidate to score 0, got %f", got[1].Score)
	}
}

func TestRankWithRealScorer(t *testing.T) {
	r := quietRanker(DefaultScorer(), 2)
	query := makeRecord(1500, 4000, 0.7, 0.2, 3, sampleHashes)
	near := makeRecord(1400, 4100, 0.7, 0.2, 3, sampleHashes)
	far := makeRecord(300, 9000, 0.1, 0.9, -3, models.HashSet{})

	got, err := r.Rank(context.Background(), query, []Candidate{
		{Name: "far", Record: far},
		{Name: "self", Record: query},
		{Name: "near", Record: near},
	}, 0)
	if err != nil {
		t.Fatal(err)
	}

	order := []string{got[0].Name, got[1].Name, got[2].Name}
	if order[0] != "self" || order[1] != "near" || order[2] != "far" {
		t.Errorf("Expected [self near far], got %v", order)
	}
}

func TestRankCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := quietRanker(fixedScorer{}, 2)
	got, err := r.Rank(ctx, &models.Record{}, candidates(0.1, 0.2, 0.3), 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if got != nil {
		t.Errorf("Expected no results after cancellation, got %+v", got)
	}
}
