package similarity

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/himanishpuri/SoundAlike/pkg/logger"
	"github.com/himanishpuri/SoundAlike/pkg/models"
)

type Candidate struct {
	Name   string
	Record *models.Record
}

type Result struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Comparer scores one pair of fingerprints. *Scorer implements it.
type Comparer interface {
	Score(a, b *models.Record) (float64, error)
}

type Logger interface {
	Warnf(format string, args ...any)
}

type Ranker struct {
	scorer  Comparer
	workers int
	log     Logger
}

type RankerOption func(*Ranker)

func WithWorkers(n int) RankerOption {
	return func(r *Ranker) {
		if n > 0 {
			r.workers = n
		}
	}
}

func WithLogger(log Logger) RankerOption {
	return func(r *Ranker) {
		if log != nil {
			r.log = log
		}
	}
}

func NewRanker(scorer Comparer, opts ...RankerOption) *Ranker {
	if scorer == nil {
		scorer = DefaultScorer()
	}
	r := &Ranker{
		scorer:  scorer,
		workers: runtime.NumCPU(),
		log:     logger.GetLogger().WithPrefix("similarity"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank scores every candidate against query and returns them best first.
// Equal scores keep their input order. topK <= 0 returns everything. A
// candidate that cannot be scored is logged and ranked with score 0; the
// only error is ctx ending before every candidate was scored.
func (r *Ranker) Rank(ctx context.Context, query *models.Record, candidates []Candidate, topK int) ([]Result, error) {
	results := make([]Result, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			score, err := r.scorer.Score(query, c.Record)
			if err != nil {
				r.log.Warnf("scoring %s: %v", c.Name, err)
				score = 0
			}
			results[i] = Result{Name: c.Name, Score: score}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK > 0 && topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}
