package soundalike

import (
	"context"

	"github.com/himanishpuri/SoundAlike/pkg/models"
)

type Service interface {
	// Generate fingerprints one file without storing it.
	Generate(ctx context.Context, path string) (*models.Record, error)
	// Add fingerprints one file and upserts it under its derived key.
	Add(ctx context.Context, path string) (string, *models.Record, error)
	// Put upserts an already generated record under an explicit key.
	Put(key string, rec *models.Record) error
	Compare(a, b *models.Record) (Breakdown, error)
	RankAgainst(ctx context.Context, query *models.Record, candidates []*models.Record, k int) ([]Result, error)
	Index(ctx context.Context, paths []string, progress Progress) (*IndexReport, error)
	RankPaths(ctx context.Context, queryPath string, paths []string, k int, progress Progress) ([]Result, []*models.Failure, error)
	RankCatalogue(ctx context.Context, query *models.Record, k int) ([]Result, error)
	Fingerprint(key string) (*models.Record, error)
	List() ([]string, error)
	Delete(key string) error
	Close() error
}

type Storage interface {
	Load() (map[string]*models.Record, error)
	Get(key string) (*models.Record, error)
	Upsert(key string, rec *models.Record) error
	Delete(key string) error
	Iterate(fn func(key string, rec *models.Record) error) error
	Count() (int, error)
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
