package main

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/himanishpuri/SoundAlike/internal/audio"
	"github.com/himanishpuri/SoundAlike/internal/storage"
	"github.com/himanishpuri/SoundAlike/pkg/logger"
	"github.com/himanishpuri/SoundAlike/pkg/soundalike"
)

// Global flags
var (
	cataloguePath string
	backendName   string
	keyModeName   string
	tempDir       string
	workers       int
	timeout       time.Duration
	sampleRate    int
	logLevel      string
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// createService creates a new SoundAlike service with configured options.
// extra options are applied last.
func createService(extra ...soundalike.Option) (soundalike.Service, error) {
	backend, err := storage.ParseBackend(backendName)
	if err != nil {
		return nil, err
	}
	keyMode, err := storage.ParseKeyMode(keyModeName)
	if err != nil {
		return nil, err
	}

	opts := []soundalike.Option{
		soundalike.WithCataloguePath(resolveCataloguePath(backend)),
		soundalike.WithBackend(backend),
		soundalike.WithKeyMode(keyMode),
		soundalike.WithTempDir(tempDir),
		soundalike.WithSampleRate(sampleRate),
		soundalike.WithWorkers(workers),
		soundalike.WithTimeout(timeout),
	}
	return soundalike.NewService(append(opts, extra...)...)
}

func resolveCataloguePath(b storage.Backend) string {
	if cataloguePath != "" {
		return cataloguePath
	}
	return b.DefaultPath()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "soundalike",
		Short: "Audio similarity fingerprinting",
		Long: `SoundAlike extracts spectral, timbral and harmonic features plus perceptual
spectrogram hashes from audio files, keeps them in a catalogue and ranks
catalogue entries (or a folder of files) by similarity to a query.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetLevel(logger.ParseLevel(logLevel))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			printBanner()
			return cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cataloguePath, "catalogue", getEnvOrDefault("SOUNDALIKE_CATALOGUE", ""), "Catalogue location (file for json/sqlite, directory for badger)")
	pf.StringVar(&backendName, "backend", getEnvOrDefault("SOUNDALIKE_BACKEND", string(storage.BackendJSON)), "Storage backend: json, sqlite or badger")
	pf.StringVar(&keyModeName, "key", getEnvOrDefault("SOUNDALIKE_KEY", string(storage.KeyBasename)), "Catalogue key: basename, path or content")
	pf.StringVar(&tempDir, "temp", getEnvOrDefault("SOUNDALIKE_TEMP_DIR", os.TempDir()), "Directory for temporary audio conversion files")
	pf.IntVarP(&workers, "workers", "j", getEnvIntOrDefault("SOUNDALIKE_WORKERS", runtime.NumCPU()), "Files fingerprinted in parallel")
	pf.DurationVar(&timeout, "timeout", 2*time.Minute, "Per-file extraction timeout")
	pf.IntVar(&sampleRate, "rate", audio.DefaultConvertRate, "Analysis sample rate every input is resampled to")
	pf.StringVar(&logLevel, "log-level", getEnvOrDefault("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	root.AddCommand(
		newGenerateCmd(),
		newIndexCmd(),
		newCompareCmd(),
		newRankCmd(),
		newListCmd(),
		newDeleteCmd(),
		newSpectrogramCmd(),
	)
	return root
}

func printBanner() {
	banner := `
  ___                      _   _   _ _ _
 / __| ___ _  _ _ _  __| | /_\ | (_) |_____
 \__ \/ _ \ || | ' \/ _' |/ _ \| | | / / -_)
 |___/\___/\_,_|_||_\__,_/_/ \_\_|_|_\_\___|

        Audio Similarity CLI Tool
`
	fmt.Println(banner)
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func currentBackend() storage.Backend {
	b, err := storage.ParseBackend(backendName)
	if err != nil {
		return storage.BackendJSON
	}
	return b
}
