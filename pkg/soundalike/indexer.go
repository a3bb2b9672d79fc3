package soundalike

import (
	"context"
	"sync"

	"github.com/himanishpuri/SoundAlike/pkg/models"
)

type job struct {
	idx  int
	path string
}

type outcome struct {
	idx  int
	path string
	rec  *models.Record
	err  error
}

// generateAll fingerprints paths on a fixed pool of workers. The result
// keeps input order. Paths never started because ctx ended come back as
// failures carrying ctx.Err().
func (s *soundService) generateAll(ctx context.Context, paths []string, progress Progress) []outcome {
	out := make([]outcome, len(paths))
	if len(paths) == 0 {
		return out
	}

	workers := s.config.Workers
	if workers > len(paths) {
		workers = len(paths)
	}

	jobs := make(chan job)
	results := make(chan outcome, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				rec, err := s.generator.Generate(ctx, j.path)
				results <- outcome{idx: j.idx, path: j.path, rec: rec, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, p := range paths {
			select {
			case jobs <- job{idx: i, path: p}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	seen := make([]bool, len(paths))
	done := 0
	for r := range results {
		out[r.idx] = r
		seen[r.idx] = true
		done++
		if progress != nil {
			progress(done, len(paths), r.path, r.err)
		}
	}

	for i, ok := range seen {
		if !ok {
			out[i] = outcome{
				idx:  i,
				path: paths[i],
				err:  &models.Failure{Path: paths[i], Kind: models.ErrDecodeFailure, Cause: ctx.Err()},
			}
		}
	}
	return out
}
