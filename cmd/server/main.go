//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"flag"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/himanishpuri/SoundAlike/internal/audio"
	"github.com/himanishpuri/SoundAlike/internal/storage"
	"github.com/himanishpuri/SoundAlike/pkg/logger"
	"github.com/himanishpuri/SoundAlike/pkg/soundalike"
)

var (
	port           int
	cataloguePath  string
	backendName    string
	tempDir        string
	sampleRate     int
	workers        int
	allowedOrigins string
	logLevel       string
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

func registerFlags() {
	flag.IntVar(&port, "port", getEnvIntOrDefault("SOUNDALIKE_PORT", 8080), "HTTP server port")
	flag.StringVar(&cataloguePath, "catalogue", getEnvOrDefault("SOUNDALIKE_CATALOGUE", ""), "Catalogue location (defaults per backend)")
	flag.StringVar(&backendName, "backend", getEnvOrDefault("SOUNDALIKE_BACKEND", string(storage.BackendSQLite)), "Storage backend: json, sqlite or badger")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("SOUNDALIKE_TEMP_DIR", os.TempDir()), "Temporary directory for uploads")
	flag.IntVar(&sampleRate, "rate", audio.DefaultConvertRate, "Analysis sample rate every input is resampled to")
	flag.IntVar(&workers, "workers", getEnvIntOrDefault("SOUNDALIKE_WORKERS", runtime.NumCPU()), "Parallel scoring workers")
	flag.StringVar(&allowedOrigins, "origins", getEnvOrDefault("SOUNDALIKE_ORIGINS", "*"), "Comma-separated list of allowed CORS origins (use * for all)")
	flag.StringVar(&logLevel, "log-level", getEnvOrDefault("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
}

func parseOrigins(raw string) []string {
	if raw == "*" {
		return []string{"*"}
	}
	origins := strings.Split(raw, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

func main() {
	// .env is optional
	_ = godotenv.Load()
	registerFlags()
	flag.Parse()
	logger.SetLevel(logger.ParseLevel(logLevel))

	backend, err := storage.ParseBackend(backendName)
	if err != nil {
		log.Fatalf("Invalid backend: %v", err)
	}
	if cataloguePath == "" {
		cataloguePath = backend.DefaultPath()
	}

	service, err := soundalike.NewService(
		soundalike.WithCataloguePath(cataloguePath),
		soundalike.WithBackend(backend),
		soundalike.WithTempDir(tempDir),
		soundalike.WithSampleRate(sampleRate),
		soundalike.WithWorkers(workers),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	config := &ServerConfig{
		Port:           port,
		Backend:        string(backend),
		CataloguePath:  cataloguePath,
		TempDir:        tempDir,
		SampleRate:     sampleRate,
		AllowedOrigins: parseOrigins(allowedOrigins),
	}

	server := NewServer(service, config)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
