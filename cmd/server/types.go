package main

import (
	"fmt"

	"github.com/himanishpuri/SoundAlike/pkg/models"
	"github.com/himanishpuri/SoundAlike/pkg/soundalike"
)

// Upload and ranking limits
const (
	MaxUploadBytes = 100 << 20

	// MaxTopK caps the k form value of POST /api/rank
	MaxTopK = 1000
)

// CompareRequest is the request body for POST /api/compare
type CompareRequest struct {
	A *models.Record `json:"a"`
	B *models.Record `json:"b"`
}

// Validate checks both records before they reach the scorer
func (r *CompareRequest) Validate() error {
	if r.A == nil || r.B == nil {
		return fmt.Errorf("both a and b are required")
	}
	if err := r.A.Validate(); err != nil {
		return fmt.Errorf("a: %w", err)
	}
	if err := r.B.Validate(); err != nil {
		return fmt.Errorf("b: %w", err)
	}
	return nil
}

// FingerprintDTO is one catalogue entry in API responses
type FingerprintDTO struct {
	Key         string         `json:"key"`
	Fingerprint *models.Record `json:"fingerprint"`
}

// ListFingerprintsResponse is the response for GET /api/fingerprints
type ListFingerprintsResponse struct {
	Keys  []string `json:"keys"`
	Count int      `json:"count"`
}

// AddFingerprintResponse is the response for POST /api/fingerprints
type AddFingerprintResponse struct {
	Message     string         `json:"message"`
	Key         string         `json:"key"`
	Fingerprint *models.Record `json:"fingerprint"`
}

// DeleteFingerprintResponse is the response for DELETE /api/fingerprints/{key}
type DeleteFingerprintResponse struct {
	Message string `json:"message"`
	Key     string `json:"key"`
}

// RankResponse is the response for POST /api/rank
type RankResponse struct {
	Results []soundalike.Result `json:"results"`
	Count   int                 `json:"count"`
}

// MetricsResponse provides server health and catalogue metrics
type MetricsResponse struct {
	Status           string `json:"status"`
	Backend          string `json:"backend"`
	CataloguePath    string `json:"catalogue_path"`
	FingerprintCount int    `json:"fingerprint_count"`
	SampleRate       int    `json:"sample_rate"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
