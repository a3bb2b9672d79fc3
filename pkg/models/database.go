package models

import "time"

// FingerprintRow is the relational form of a Record. Features are kept as a
// JSON document; the hashes get their own indexed columns so exact-hash
// lookups stay cheap.
type FingerprintRow struct {
	Key         string    `gorm:"primaryKey;size:512"`
	Features    string    `gorm:"type:text;not null"`
	AverageHash string    `gorm:"size:16;index"`
	PHash       string    `gorm:"column:phash;size:16;index"`
	DHash       string    `gorm:"column:dhash;size:16;index"`
	WHash       string    `gorm:"column:whash;size:16;index"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (FingerprintRow) TableName() string {
	return "fingerprints"
}
