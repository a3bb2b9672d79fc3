package soundalike

import (
	"context"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/himanishpuri/SoundAlike/internal/storage"
	"github.com/himanishpuri/SoundAlike/internal/testutil"
	"github.com/himanishpuri/SoundAlike/pkg/logger"
	"github.com/himanishpuri/SoundAlike/pkg/models"
)

func quietLogger() *logger.Logger {
	cfg := logger.DefaultConfig()
	cfg.Output = io.Discard
	return logger.New(cfg)
}

// setupTestService creates a service over a temporary JSON catalogue
func setupTestService(t *testing.T, opts ...Option) (*soundService, string) {
	t.Helper()

	tmpDir := t.TempDir()
	catalogue := filepath.Join(tmpDir, "database.json")
	base := []Option{
		WithCataloguePath(catalogue),
		WithTempDir(filepath.Join(tmpDir, "tmp")),
		WithWorkers(2),
		WithLogger(quietLogger()),
	}

	svc, err := newService(append(base, opts...)...)
	if err != nil {
		t.Fatalf("Failed to create test service: %v", err)
	}
	t.Cleanup(func() {
		svc.Close()
	})
	return svc, tmpDir
}

// writeLibrary writes a few short tones plus one file that cannot decode.
func writeLibrary(t *testing.T, dir string) (good []string, bad string) {
	t.Helper()
	const sr = 11025
	good = []string{
		testutil.WriteToneWAV(t, filepath.Join(dir, "lib", "a440.wav"), sr, 0.5, testutil.Tone{Freq: 440, Amplitude: 0.5}),
		testutil.WriteToneWAV(t, filepath.Join(dir, "lib", "a880.wav"), sr, 0.5, testutil.Tone{Freq: 880, Amplitude: 0.5}),
		testutil.WriteToneWAV(t, filepath.Join(dir, "lib", "chord.wav"), sr, 0.5,
			testutil.Tone{Freq: 261.63, Amplitude: 0.3}, testutil.Tone{Freq: 329.63, Amplitude: 0.3}),
	}
	bad = filepath.Join(dir, "lib", "broken.wav")
	if err := os.WriteFile(bad, []byte("not audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	return good, bad
}

func TestNewService(t *testing.T) {
	svc, _ := setupTestService(t)

	if svc.storage == nil {
		t.Fatal("Expected non-nil storage")
	}
	if svc.log == nil {
		t.Fatal("Expected non-nil logger")
	}
	if svc.config.KeyMode != storage.KeyBasename {
		t.Errorf("Expected default key mode basename, got %s", svc.config.KeyMode)
	}
}

func TestNewServiceRejectsBadWeights(t *testing.T) {
	_, err := NewService(
		WithStorage(storage.NewJSONStore(filepath.Join(t.TempDir(), "db.json"), quietLogger())),
		WithWeights(Weights{}),
		WithLogger(quietLogger()),
	)
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for zero weights, got %v", err)
	}
}

func TestIndexIsolatesFailures(t *testing.T) {
	svc, dir := setupTestService(t)
	good, bad := writeLibrary(t, dir)

	var mu sync.Mutex
	calls := 0
	progress := func(done, total int, path string, err error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if total != 4 {
			t.Errorf("Expected total 4, got %d", total)
		}
	}

	report, err := svc.Index(context.Background(), append(good, bad), progress)
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if calls != 4 {
		t.Errorf("Expected 4 progress calls, got %d", calls)
	}
	if report.Succeeded() != 3 || report.Failed() != 1 {
		t.Fatalf("Expected 3 indexed and 1 failure, got %d and %d", report.Succeeded(), report.Failed())
	}
	if !errors.Is(report.Failures[0], models.ErrDecodeFailure) {
		t.Errorf("Expected decode failure, got %v", report.Failures[0])
	}
	if report.Failures[0].Path != bad {
		t.Errorf("Expected failure for %s, got %s", bad, report.Failures[0].Path)
	}

	keys, err := svc.List()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a440.wav", "a880.wav", "chord.wav"}
	if len(keys) != len(want) {
		t.Fatalf("Expected keys %v, got %v", want, keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Expected keys %v, got %v", want, keys)
			break
		}
	}
}

func TestRankCatalogue(t *testing.T) {
	svc, dir := setupTestService(t)
	good, _ := writeLibrary(t, dir)
	if _, err := svc.Index(context.Background(), good, nil); err != nil {
		t.Fatal(err)
	}

	query, err := svc.Fingerprint("a440.wav")
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	if query.Name != "a440.wav" {
		t.Errorf("Expected name a440.wav, got %q", query.Name)
	}

	results, err := svc.RankCatalogue(context.Background(), query, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Name != "a440.wav" {
		t.Errorf("Expected the query itself first, got %s", results[0].Name)
	}
	if math.Abs(results[0].Score-1) > 1e-9 {
		t.Errorf("Expected self score 1, got %f", results[0].Score)
	}
	if results[1].Score > results[0].Score {
		t.Error("Expected descending scores")
	}
}

func TestRankPathsSkipsFailures(t *testing.T) {
	svc, dir := setupTestService(t)
	good, bad := writeLibrary(t, dir)

	results, failures, err := svc.RankPaths(context.Background(), good[0], append(good, bad), DefaultTopK, nil)
	if err != nil {
		t.Fatalf("RankPaths failed: %v", err)
	}
	if len(failures) != 1 {
		t.Errorf("Expected 1 skipped file, got %d", len(failures))
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 ranked candidates, got %d", len(results))
	}
	if results[0].Name != "a440.wav" {
		t.Errorf("Expected a440.wav first, got %s", results[0].Name)
	}

	// nothing is stored by a path ranking
	if keys, _ := svc.List(); len(keys) != 0 {
		t.Errorf("Expected empty catalogue, got %v", keys)
	}

	if _, _, err := svc.RankPaths(context.Background(), bad, good, 5, nil); !errors.Is(err, models.ErrDecodeFailure) {
		t.Errorf("Expected query decode failure, got %v", err)
	}
}

func TestRankPathsStoreRanked(t *testing.T) {
	svc, dir := setupTestService(t, WithStoreRanked(true))
	good, bad := writeLibrary(t, dir)
	query := testutil.WriteToneWAV(t, filepath.Join(dir, "q", "query.wav"), 11025, 0.5,
		testutil.Tone{Freq: 440, Amplitude: 0.5})

	results, failures, err := svc.RankPaths(context.Background(), query, append(good, bad), DefaultTopK, nil)
	if err != nil {
		t.Fatalf("RankPaths failed: %v", err)
	}
	if len(results) != 3 || len(failures) != 1 {
		t.Fatalf("Expected 3 results and 1 failure, got %d and %d", len(results), len(failures))
	}

	keys, err := svc.List()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a440.wav", "a880.wav", "chord.wav", "query.wav"}
	if len(keys) != len(want) {
		t.Fatalf("Expected keys %v, got %v", want, keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Key %d: expected %s, got %s", i, want[i], keys[i])
		}
	}
}

func TestAddCompareDelete(t *testing.T) {
	svc, dir := setupTestService(t)
	good, _ := writeLibrary(t, dir)

	key, rec, err := svc.Add(context.Background(), good[2])
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if key != "chord.wav" {
		t.Errorf("Expected key chord.wav, got %s", key)
	}

	bd, err := svc.Compare(rec, rec)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(bd.Total-1) > 1e-9 {
		t.Errorf("Expected self comparison 1, got %f", bd.Total)
	}

	other, err := svc.Generate(context.Background(), good[1])
	if err != nil {
		t.Fatal(err)
	}
	ranked, err := svc.RankAgainst(context.Background(), rec, []*models.Record{other, rec, nil}, 0)
	if err != nil {
		t.Fatalf("RankAgainst failed: %v", err)
	}
	if len(ranked) != 2 || ranked[0].Name != "chord.wav" {
		t.Errorf("Expected chord.wav first of 2, got %+v", ranked)
	}

	if err := svc.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Fingerprint(key); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.Delete(key); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestKeyModes(t *testing.T) {
	svc, dir := setupTestService(t, WithKeyMode(storage.KeyContent))
	a := testutil.WriteToneWAV(t, filepath.Join(dir, "x", "song.wav"), 8000, 0.5, testutil.Tone{Freq: 300, Amplitude: 0.4})
	b := testutil.WriteToneWAV(t, filepath.Join(dir, "y", "song.wav"), 8000, 0.5, testutil.Tone{Freq: 600, Amplitude: 0.4})

	report, err := svc.Index(context.Background(), []string{a, b}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.Succeeded() != 2 {
		t.Fatalf("Expected 2 indexed, got %d", report.Succeeded())
	}
	if report.Keys[0] == report.Keys[1] {
		t.Errorf("Expected distinct content keys for same-named files, both %s", report.Keys[0])
	}
	if n, _ := svc.storage.Count(); n != 2 {
		t.Errorf("Expected 2 stored records, got %d", n)
	}
}

func TestBasenameCollisionOverwrites(t *testing.T) {
	svc, dir := setupTestService(t)
	a := testutil.WriteToneWAV(t, filepath.Join(dir, "x", "song.wav"), 8000, 0.5, testutil.Tone{Freq: 300, Amplitude: 0.4})
	b := testutil.WriteToneWAV(t, filepath.Join(dir, "y", "song.wav"), 8000, 0.5, testutil.Tone{Freq: 600, Amplitude: 0.4})

	if _, err := svc.Index(context.Background(), []string{a, b}, nil); err != nil {
		t.Fatal(err)
	}
	if n, _ := svc.storage.Count(); n != 1 {
		t.Errorf("Expected basename keys to collide into 1 record, got %d", n)
	}
}

func TestIndexCancelled(t *testing.T) {
	svc, dir := setupTestService(t)
	good, _ := writeLibrary(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.Index(ctx, good, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if report.Succeeded() != 0 || report.Failed() != len(good) {
		t.Errorf("Expected every file to fail, got %d ok and %d failed", report.Succeeded(), report.Failed())
	}
}

func TestOpenStorageBackends(t *testing.T) {
	dir := t.TempDir()
	for _, b := range []storage.Backend{storage.BackendJSON, storage.BackendSQLite, storage.BackendBadger} {
		svc, err := NewService(
			WithBackend(b),
			WithCataloguePath(filepath.Join(dir, string(b))),
			WithLogger(quietLogger()),
		)
		if err != nil {
			t.Fatalf("NewService(%s) failed: %v", b, err)
		}
		if keys, err := svc.List(); err != nil || len(keys) != 0 {
			t.Errorf("%s: expected empty catalogue, got %v (%v)", b, keys, err)
		}
		svc.Close()
	}
}

func TestPutStoresUnderExplicitKey(t *testing.T) {
	svc, tmpDir := setupTestService(t)
	good, _ := writeLibrary(t, tmpDir)

	rec, err := svc.Generate(context.Background(), good[0])
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if err := svc.Put("upload.wav", rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := svc.Fingerprint("upload.wav")
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	if got.Hashes != rec.Hashes {
		t.Errorf("Expected hashes %+v, got %+v", rec.Hashes, got.Hashes)
	}

	bad := *rec
	bad.Features.MFCCMean = bad.Features.MFCCMean[:3]
	if err := svc.Put("short.wav", &bad); !errors.Is(err, models.ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch, got %v", err)
	}
}
