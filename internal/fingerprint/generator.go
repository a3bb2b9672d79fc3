// Package fingerprint assembles a complete record (features plus
// perceptual hashes) for one audio file.
package fingerprint

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mdobak/go-xerrors"

	"github.com/himanishpuri/SoundAlike/internal/audio"
	"github.com/himanishpuri/SoundAlike/internal/dsp"
	"github.com/himanishpuri/SoundAlike/internal/features"
	"github.com/himanishpuri/SoundAlike/internal/phash"
	"github.com/himanishpuri/SoundAlike/pkg/logger"
	"github.com/himanishpuri/SoundAlike/pkg/models"
)

const DefaultTimeout = 2 * time.Minute

type Config struct {
	Features features.Config
	// HashMel is the mel view the hash image is rendered from.
	HashMel dsp.MelConfig
	// SampleRate is the analysis rate every buffer is resampled to, so the
	// same audio fingerprints alike whatever rate it was stored at. Zero
	// keeps each buffer's own rate.
	SampleRate int
	// Timeout bounds one file when the caller's context has no deadline.
	// Zero disables it.
	Timeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Features:   features.DefaultConfig(),
		HashMel:    dsp.DefaultMelConfig(),
		SampleRate: audio.DefaultConvertRate,
		Timeout:    DefaultTimeout,
	}
}

type Loader interface {
	Load(ctx context.Context, path string) (*audio.Buffer, error)
}

type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type Generator struct {
	cfg       Config
	loader    Loader
	extractor *features.Extractor
	log       Logger
}

// NewGenerator wires a generator. A nil loader means audio.NewLoader() and
// a nil log means the shared logger.
func NewGenerator(loader Loader, cfg Config, log Logger) *Generator {
	if loader == nil {
		loader = audio.NewLoader()
	}
	if log == nil {
		log = logger.GetLogger().WithPrefix("fingerprint")
	}
	return &Generator{
		cfg:       cfg,
		loader:    loader,
		extractor: features.NewExtractor(cfg.Features),
		log:       log,
	}
}

// Generate decodes path and fingerprints it. On failure the error is a
// *models.Failure whose Kind says which stage broke.
func (g *Generator) Generate(ctx context.Context, path string) (*models.Record, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	buf, err := g.loader.Load(ctx, path)
	if err != nil {
		return nil, g.fail(path, models.ErrDecodeFailure, err)
	}

	rec, err := g.fromBuffer(ctx, buf)
	if err != nil {
		return nil, g.fail(path, kindOf(err), err)
	}
	rec.Name = filepath.Base(path)

	g.log.Debugf("fingerprinted %s (%.1fs of audio at %d Hz) in %s",
		path, buf.Duration().Seconds(), buf.SampleRate, time.Since(start).Round(time.Millisecond))
	return rec, nil
}

// FromSamples fingerprints an in-memory buffer. name labels the record and
// any failure.
func (g *Generator) FromSamples(ctx context.Context, name string, buf *audio.Buffer) (*models.Record, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	if buf == nil {
		return nil, g.fail(name, models.ErrInvalidInput, errors.New("nil sample buffer"))
	}
	rec, err := g.fromBuffer(ctx, buf)
	if err != nil {
		return nil, g.fail(name, kindOf(err), err)
	}
	rec.Name = name
	return rec, nil
}

// MelDB returns the band-major dB mel image the hashes are taken from.
// buf is used at its own rate.
func (g *Generator) MelDB(buf *audio.Buffer) ([][]float64, error) {
	return g.extractor.MelDB(buf.Samples, buf.SampleRate, g.cfg.HashMel)
}

func (g *Generator) fromBuffer(ctx context.Context, buf *audio.Buffer) (*models.Record, error) {
	buf, err := audio.Resample(ctx, buf, g.cfg.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("resampling: %w", err)
	}

	bundle, err := g.extractor.ExtractContext(ctx, buf.Samples, buf.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("extracting features: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	melDB, err := g.MelDB(buf)
	if err != nil {
		return nil, fmt.Errorf("building hash image: %w", err)
	}
	hashes, err := phash.Hash(melDB)
	if err != nil {
		return nil, fmt.Errorf("hashing: %w", err)
	}

	return &models.Record{Features: *bundle, Hashes: hashes}, nil
}

func (g *Generator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || g.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.cfg.Timeout)
}

// fail logs a per-item failure once and returns it typed.
func (g *Generator) fail(path string, kind, cause error) error {
	traced := xerrors.New(cause)
	g.log.Warnf("skipping %s: %v: %v", path, kind, cause)
	g.log.Debugf("%s", xerrors.Sprint(traced))
	return &models.Failure{Path: path, Kind: kind, Cause: traced}
}

func kindOf(err error) error {
	if errors.Is(err, models.ErrDimensionMismatch) {
		return models.ErrDimensionMismatch
	}
	return models.ErrInvalidInput
}
