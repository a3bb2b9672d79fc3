package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/himanishpuri/SoundAlike/pkg/logger"
	"github.com/himanishpuri/SoundAlike/pkg/models"
	"github.com/himanishpuri/SoundAlike/pkg/soundalike"
	"github.com/himanishpuri/SoundAlike/pkg/utils"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service soundalike.Service
	config  *ServerConfig
	log     soundalike.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Backend        string
	CataloguePath  string
	TempDir        string
	SampleRate     int
	AllowedOrigins []string
}

// NewServer creates a new server instance
func NewServer(service soundalike.Service, config *ServerConfig) *Server {
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger().WithPrefix("server"),
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, soundalike.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, models.ErrDecodeFailure),
		errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrDimensionMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// saveUpload copies the multipart file field to a uuid-named file in the
// temp dir, keeping its extension so decoder dispatch still works.
func (s *Server) saveUpload(r *http.Request, field string) (path, filename string, err error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", "", fmt.Errorf("%s file is required", field)
	}
	defer file.Close()

	if err := utils.MakeDir(s.config.TempDir); err != nil {
		return "", "", err
	}
	path = filepath.Join(s.config.TempDir, utils.TempName(filepath.Ext(header.Filename)))
	out, err := os.Create(path)
	if err != nil {
		return "", "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		utils.DeleteFile(path)
		return "", "", err
	}
	return path, filepath.Base(header.Filename), nil
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "SoundAlike API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":            "GET /health",
			"metrics":           "GET /api/health/metrics",
			"fingerprints":      "GET /api/fingerprints",
			"addFingerprint":    "POST /api/fingerprints",
			"getFingerprint":    "GET /api/fingerprints/{key}",
			"deleteFingerprint": "DELETE /api/fingerprints/{key}",
			"rank":              "POST /api/rank",
			"compare":           "POST /api/compare",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	keys, err := s.service.List()
	if err != nil {
		s.log.Errorf("Failed to count fingerprints: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:           "healthy",
		Backend:          s.config.Backend,
		CataloguePath:    s.config.CataloguePath,
		FingerprintCount: len(keys),
		SampleRate:       s.config.SampleRate,
	})
}

// handleListFingerprints handles GET /api/fingerprints
func (s *Server) handleListFingerprints(w http.ResponseWriter, r *http.Request) {
	keys, err := s.service.List()
	if err != nil {
		s.log.Errorf("Failed to list fingerprints: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve fingerprints")
		return
	}
	if keys == nil {
		keys = []string{}
	}
	s.respondJSON(w, http.StatusOK, ListFingerprintsResponse{Keys: keys, Count: len(keys)})
}

// handleGetFingerprint handles GET /api/fingerprints/{key}
func (s *Server) handleGetFingerprint(w http.ResponseWriter, r *http.Request, key string) {
	rec, err := s.service.Fingerprint(key)
	if err != nil {
		s.log.Warnf("Fingerprint lookup %q failed: %v", key, err)
		s.respondError(w, statusFor(err), fmt.Sprintf("Fingerprint %q not available", key))
		return
	}
	rec.Name = ""
	s.respondJSON(w, http.StatusOK, FingerprintDTO{Key: key, Fingerprint: rec})
}

// handleDeleteFingerprint handles DELETE /api/fingerprints/{key}
func (s *Server) handleDeleteFingerprint(w http.ResponseWriter, r *http.Request, key string) {
	if err := s.service.Delete(key); err != nil {
		status := statusFor(err)
		if status == http.StatusNotFound {
			s.respondError(w, status, fmt.Sprintf("Fingerprint %q not found", key))
			return
		}
		s.log.Errorf("Failed to delete %q: %v", key, err)
		s.respondError(w, status, "Failed to delete fingerprint")
		return
	}
	s.respondJSON(w, http.StatusOK, DeleteFingerprintResponse{
		Message: "Fingerprint deleted successfully",
		Key:     key,
	})
}

// handleAddFingerprint handles POST /api/fingerprints (multipart file upload).
// The record is stored under the form's name field, or the upload's file name.
func (s *Server) handleAddFingerprint(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.log.Errorf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	tempFile, filename, err := s.saveUpload(r, "audio")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer utils.DeleteFile(tempFile)

	key := strings.TrimSpace(r.FormValue("name"))
	if key == "" {
		key = filename
	}
	if key == "" || key == "." || key == string(filepath.Separator) {
		s.respondError(w, http.StatusBadRequest, "a name or a named upload is required")
		return
	}

	rec, err := s.service.Generate(ctx, tempFile)
	if err != nil {
		s.log.Errorf("Failed to fingerprint %s: %v", filename, err)
		s.respondError(w, statusFor(err), fmt.Sprintf("Failed to fingerprint upload: %v", err))
		return
	}
	if err := s.service.Put(key, rec); err != nil {
		s.log.Errorf("Failed to store %s: %v", key, err)
		s.respondError(w, http.StatusInternalServerError, "Failed to store fingerprint")
		return
	}

	s.log.Infof("Stored fingerprint %s", key)
	rec.Name = ""
	s.respondJSON(w, http.StatusCreated, AddFingerprintResponse{
		Message:     "Fingerprint stored successfully",
		Key:         key,
		Fingerprint: rec,
	})
}

// handleRank handles POST /api/rank (multipart file upload, optional k)
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.log.Errorf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	k := soundalike.DefaultTopK
	if raw := r.FormValue("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		// zero means unlimited to the service, so it is not accepted here
		if err != nil || n < 1 || n > MaxTopK {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("k must be an integer between 1 and %d", MaxTopK))
			return
		}
		k = n
	}

	tempFile, filename, err := s.saveUpload(r, "audio")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer utils.DeleteFile(tempFile)

	query, err := s.service.Generate(ctx, tempFile)
	if err != nil {
		s.log.Errorf("Failed to fingerprint query %s: %v", filename, err)
		s.respondError(w, statusFor(err), fmt.Sprintf("Failed to fingerprint upload: %v", err))
		return
	}

	results, err := s.service.RankCatalogue(r.Context(), query, k)
	if err != nil {
		s.log.Errorf("Failed to rank catalogue: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to rank catalogue")
		return
	}
	if results == nil {
		results = []soundalike.Result{}
	}

	s.log.Infof("Ranked %s: %d result(s)", filename, len(results))
	s.respondJSON(w, http.StatusOK, RankResponse{Results: results, Count: len(results)})
}

// handleCompare handles POST /api/compare (two records as JSON)
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, MaxUploadBytes)).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	bd, err := s.service.Compare(req.A, req.B)
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, bd)
}

// handleFingerprints routes requests to /api/fingerprints
func (s *Server) handleFingerprints(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListFingerprints(w, r)
	case http.MethodPost:
		s.handleAddFingerprint(w, r)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleFingerprint routes requests to /api/fingerprints/{key}
func (s *Server) handleFingerprint(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/api/fingerprints/")
	if key == "" {
		s.respondError(w, http.StatusBadRequest, "Fingerprint key required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetFingerprint(w, r, key)
	case http.MethodDelete:
		s.handleDeleteFingerprint(w, r, key)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) postOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		next(w, r)
	}
}
