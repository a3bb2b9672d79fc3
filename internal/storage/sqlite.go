//go:build !js && !wasm
// +build !js,!wasm

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/himanishpuri/SoundAlike/pkg/models"
)

const errDBClientNil = "db client is nil"

// SQLiteStore keeps one row per fingerprint in an embedded SQLite file.
type SQLiteStore struct {
	DB  *gorm.DB
	db  *sql.DB
	log Logger
}

func NewSQLiteStore(dbPath string, log Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	// a single writer avoids SQLITE_BUSY under concurrent upserts
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.FingerprintRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &SQLiteStore{DB: db, db: sqlDB, log: log}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func toRow(key string, rec *models.Record) (*models.FingerprintRow, error) {
	features, err := encodeFeatures(rec)
	if err != nil {
		return nil, err
	}
	return &models.FingerprintRow{
		Key:         key,
		Features:    features,
		AverageHash: rec.Hashes.AverageHash,
		PHash:       rec.Hashes.PHash,
		DHash:       rec.Hashes.DHash,
		WHash:       rec.Hashes.WHash,
	}, nil
}

func fromRow(row *models.FingerprintRow) (*models.Record, error) {
	rec, err := decodeRecord(row.Key, []byte(`{"features":`+row.Features+`}`))
	if err != nil {
		return nil, err
	}
	rec.Hashes = models.HashSet{
		AverageHash: row.AverageHash,
		PHash:       row.PHash,
		DHash:       row.DHash,
		WHash:       row.WHash,
	}
	return rec, nil
}

func (s *SQLiteStore) Upsert(key string, rec *models.Record) error {
	if s == nil || s.DB == nil {
		return errors.New(errDBClientNil)
	}
	if err := validateKey(key); err != nil {
		return err
	}
	if err := validateRecord(rec); err != nil {
		return err
	}

	row, err := toRow(key, rec)
	if err != nil {
		return fmt.Errorf("encoding record %q: %w", key, err)
	}

	err = s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("upserting fingerprint %q: %w", key, err)
	}
	s.log.Debugf("stored fingerprint %s", key)
	return nil
}

func (s *SQLiteStore) Get(key string) (*models.Record, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var row models.FingerprintRow
	err := s.DB.Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("querying fingerprint %q: %w", key, err)
	}
	return fromRow(&row)
}

func (s *SQLiteStore) Delete(key string) error {
	if s == nil || s.DB == nil {
		return errors.New(errDBClientNil)
	}

	res := s.DB.Where("key = ?", key).Delete(&models.FingerprintRow{})
	if res.Error != nil {
		return fmt.Errorf("deleting fingerprint %q: %w", key, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return nil
}

// Iterate visits rows in key order, batching reads so the whole table is
// never held in memory at once.
func (s *SQLiteStore) Iterate(fn func(key string, rec *models.Record) error) error {
	if s == nil || s.DB == nil {
		return errors.New(errDBClientNil)
	}

	var rows []models.FingerprintRow
	var cbErr error
	res := s.DB.FindInBatches(&rows, 200, func(tx *gorm.DB, batch int) error {
		for i := range rows {
			rec, err := fromRow(&rows[i])
			if err != nil {
				s.log.Warnf("skipping row: %v", err)
				continue
			}
			if err := fn(rows[i].Key, rec); err != nil {
				cbErr = err
				return err
			}
		}
		return nil
	})
	if cbErr != nil {
		return cbErr
	}
	if res.Error != nil {
		return fmt.Errorf("iterating fingerprints: %w", res.Error)
	}
	return nil
}

func (s *SQLiteStore) Load() (map[string]*models.Record, error) {
	out := make(map[string]*models.Record)
	err := s.Iterate(func(key string, rec *models.Record) error {
		out[key] = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) Count() (int, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New(errDBClientNil)
	}
	var count int64
	if err := s.DB.Model(&models.FingerprintRow{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting fingerprints: %w", err)
	}
	return int(count), nil
}

// FindByHash returns the keys whose stored hash under hashKey (one of
// models.HashKeys) equals value exactly.
func (s *SQLiteStore) FindByHash(hashKey, value string) ([]string, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	column := hashKey
	if column != "average_hash" && column != "phash" && column != "dhash" && column != "whash" {
		return nil, fmt.Errorf("%w: unknown hash %q", models.ErrInvalidInput, hashKey)
	}

	var keys []string
	err := s.DB.Model(&models.FingerprintRow{}).
		Where(column+" = ?", value).
		Order("key").
		Pluck("key", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", column, err)
	}
	return keys, nil
}
