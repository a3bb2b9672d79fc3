package soundalike

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/himanishpuri/SoundAlike/internal/audio"
	"github.com/himanishpuri/SoundAlike/internal/fingerprint"
	"github.com/himanishpuri/SoundAlike/internal/similarity"
	"github.com/himanishpuri/SoundAlike/internal/storage"
	"github.com/himanishpuri/SoundAlike/pkg/logger"
	"github.com/himanishpuri/SoundAlike/pkg/models"
)

// soundService is the default implementation of the Service interface.
type soundService struct {
	storage   Storage
	generator *fingerprint.Generator
	scorer    *similarity.Scorer
	ranker    *similarity.Ranker
	keyFunc   storage.KeyFunc
	log       Logger
	config    *Config
}

func NewService(opts ...Option) (Service, error) {
	return newService(opts...)
}

func newService(opts ...Option) (*soundService, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	// Set default logger if none provided
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	scorer, err := similarity.NewScorer(cfg.Weights)
	if err != nil {
		return nil, fmt.Errorf("invalid weights: %w", err)
	}

	// Create or use provided storage
	stor := cfg.Storage
	if stor == nil {
		stor, err = OpenStorage(cfg.Backend, cfg.CataloguePath, cfg.Logger)
		if err != nil {
			return nil, err
		}
	}

	loader := audio.NewLoader(audio.WithFallback(audio.NewFFmpegDecoder(audio.FFmpegConfig{
		SampleRate: cfg.SampleRate,
		TempDir:    cfg.TempDir,
	})))
	genCfg := fingerprint.DefaultConfig()
	genCfg.Timeout = cfg.Timeout
	genCfg.SampleRate = cfg.SampleRate

	return &soundService{
		storage:   stor,
		generator: fingerprint.NewGenerator(loader, genCfg, cfg.Logger),
		scorer:    scorer,
		ranker:    similarity.NewRanker(scorer, similarity.WithWorkers(cfg.Workers), similarity.WithLogger(cfg.Logger)),
		keyFunc:   cfg.KeyMode.Func(),
		log:       cfg.Logger,
		config:    cfg,
	}, nil
}

func (s *soundService) Generate(ctx context.Context, path string) (*models.Record, error) {
	return s.generator.Generate(ctx, path)
}

// Add fingerprints path and stores it under the configured key.
func (s *soundService) Add(ctx context.Context, path string) (string, *models.Record, error) {
	rec, err := s.generator.Generate(ctx, path)
	if err != nil {
		return "", nil, err
	}
	key, err := s.store(path, rec)
	if err != nil {
		return "", nil, err
	}
	return key, rec, nil
}

func (s *soundService) store(path string, rec *models.Record) (string, error) {
	key, err := s.keyFunc(path)
	if err != nil {
		return "", &models.Failure{Path: path, Kind: models.ErrInvalidInput, Cause: err}
	}
	if err := s.storage.Upsert(key, rec); err != nil {
		return "", &models.Failure{Path: path, Kind: ErrStoreWrite, Cause: err}
	}
	return key, nil
}

func (s *soundService) Put(key string, rec *models.Record) error {
	if err := s.storage.Upsert(key, rec); err != nil {
		return err
	}
	s.log.Debugf("Stored fingerprint %s", key)
	return nil
}

func (s *soundService) Compare(a, b *models.Record) (Breakdown, error) {
	return s.scorer.Breakdown(a, b)
}

// RankAgainst ranks in-memory records; each candidate's Name labels its
// result.
func (s *soundService) RankAgainst(ctx context.Context, query *models.Record, candidates []*models.Record, k int) ([]Result, error) {
	cands := make([]similarity.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c == nil {
			continue
		}
		cands = append(cands, similarity.Candidate{Name: c.Name, Record: c})
	}
	return s.ranker.Rank(ctx, query, cands, k)
}

// Index fingerprints paths in parallel and upserts each success. Per-file
// failures land in the report; only cancellation is returned as an error.
func (s *soundService) Index(ctx context.Context, paths []string, progress Progress) (*IndexReport, error) {
	s.log.Infof("Indexing %d files with %d workers", len(paths), s.config.Workers)

	report := &IndexReport{}
	for _, o := range s.generateAll(ctx, paths, progress) {
		if o.err != nil {
			report.Failures = append(report.Failures, asFailure(o.path, o.err))
			continue
		}
		key, err := s.store(o.path, o.rec)
		if err != nil {
			s.log.Warnf("Failed to store %s: %v", o.path, err)
			report.Failures = append(report.Failures, asFailure(o.path, err))
			continue
		}
		report.Keys = append(report.Keys, key)
		report.Paths = append(report.Paths, o.path)
	}

	s.log.Infof("Indexed %d files, %d failed", report.Succeeded(), report.Failed())
	return report, ctx.Err()
}

// RankPaths fingerprints the query and every candidate file, skipping
// candidates that fail, and returns the top k by similarity. Nothing is
// stored unless the service was built with WithStoreRanked.
func (s *soundService) RankPaths(ctx context.Context, queryPath string, paths []string, k int, progress Progress) ([]Result, []*models.Failure, error) {
	query, err := s.generator.Generate(ctx, queryPath)
	if err != nil {
		return nil, nil, err
	}

	var failures []*models.Failure
	if s.config.StoreRanked {
		if _, err := s.store(queryPath, query); err != nil {
			s.log.Warnf("Failed to store query %s: %v", queryPath, err)
			failures = append(failures, asFailure(queryPath, err))
		}
	}

	var cands []similarity.Candidate
	for _, o := range s.generateAll(ctx, paths, progress) {
		if o.err != nil {
			failures = append(failures, asFailure(o.path, o.err))
			continue
		}
		if s.config.StoreRanked {
			if _, err := s.store(o.path, o.rec); err != nil {
				s.log.Warnf("Failed to store %s: %v", o.path, err)
				failures = append(failures, asFailure(o.path, err))
			}
		}
		cands = append(cands, similarity.Candidate{Name: filepath.Base(o.path), Record: o.rec})
	}
	if err := ctx.Err(); err != nil {
		return nil, failures, err
	}

	s.log.Infof("Ranking %d candidates (%d skipped)", len(cands), len(failures))
	results, err := s.ranker.Rank(ctx, query, cands, k)
	if err != nil {
		return nil, failures, err
	}
	return results, failures, nil
}

// RankCatalogue ranks every stored fingerprint against query. Candidates
// are visited in key order so ties are deterministic.
func (s *soundService) RankCatalogue(ctx context.Context, query *models.Record, k int) ([]Result, error) {
	var cands []similarity.Candidate
	err := s.storage.Iterate(func(key string, rec *models.Record) error {
		cands = append(cands, similarity.Candidate{Name: key, Record: rec})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading catalogue: %w", err)
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Name < cands[j].Name
	})
	return s.ranker.Rank(ctx, query, cands, k)
}

func (s *soundService) Fingerprint(key string) (*models.Record, error) {
	rec, err := s.storage.Get(key)
	if err != nil {
		return nil, err
	}
	rec.Name = key
	return rec, nil
}

func (s *soundService) List() ([]string, error) {
	var keys []string
	err := s.storage.Iterate(func(key string, _ *models.Record) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *soundService) Delete(key string) error {
	if err := s.storage.Delete(key); err != nil {
		return err
	}
	s.log.Infof("Deleted fingerprint %s", key)
	return nil
}

func (s *soundService) Close() error {
	return s.storage.Close()
}

func asFailure(path string, err error) *models.Failure {
	var f *models.Failure
	if errors.As(err, &f) {
		return f
	}
	return &models.Failure{Path: path, Kind: models.ErrInvalidInput, Cause: err}
}
