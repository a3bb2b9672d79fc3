package soundalike

import (
	"os"
	"runtime"
	"time"

	"github.com/himanishpuri/SoundAlike/internal/audio"
	"github.com/himanishpuri/SoundAlike/internal/fingerprint"
	"github.com/himanishpuri/SoundAlike/internal/storage"
	"github.com/himanishpuri/SoundAlike/internal/similarity"
)

type Config struct {
	CataloguePath string
	Backend       storage.Backend
	KeyMode       storage.KeyMode
	SampleRate    int // analysis rate; every input is resampled to it
	TempDir       string
	Workers       int
	Timeout       time.Duration // per file
	Weights       similarity.Weights
	StoreRanked   bool // RankPaths also upserts the query and every candidate
	Logger        Logger
	Storage       Storage
}

type Option func(*Config)

func WithCataloguePath(path string) Option {
	return func(c *Config) {
		c.CataloguePath = path
	}
}

func WithBackend(b storage.Backend) Option {
	return func(c *Config) {
		c.Backend = b
	}
}

func WithKeyMode(m storage.KeyMode) Option {
	return func(c *Config) {
		c.KeyMode = m
	}
}

func WithSampleRate(rate int) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

func WithWeights(w similarity.Weights) Option {
	return func(c *Config) {
		c.Weights = w
	}
}

// WithStoreRanked makes RankPaths keep what it fingerprints, so a folder
// ranking also fills the catalogue.
func WithStoreRanked(on bool) Option {
	return func(c *Config) {
		c.StoreRanked = on
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// WithStorage injects a ready store; CataloguePath and Backend are then
// ignored.
func WithStorage(s Storage) Option {
	return func(c *Config) {
		c.Storage = s
	}
}

func defaultConfig() *Config {
	return &Config{
		CataloguePath: "",
		Backend:       storage.BackendJSON,
		KeyMode:       storage.KeyBasename,
		SampleRate:    audio.DefaultConvertRate,
		TempDir:       os.TempDir(),
		Workers:       runtime.NumCPU(),
		Timeout:       fingerprint.DefaultTimeout,
		Weights:       similarity.DefaultWeights(),
		Logger:        nil,
	}
}
