package soundalike

import (
	"errors"

	"github.com/himanishpuri/SoundAlike/internal/similarity"
	"github.com/himanishpuri/SoundAlike/internal/storage"
	"github.com/himanishpuri/SoundAlike/pkg/models"
)

// DefaultTopK is how many matches a ranking shows unless told otherwise.
const DefaultTopK = 5

// ErrNotFound is returned for keys absent from the catalogue.
var ErrNotFound = storage.ErrNotFound

// ErrStoreWrite marks a file that fingerprinted fine but could not be saved.
var ErrStoreWrite = errors.New("store write failed")

type (
	Result    = similarity.Result
	Breakdown = similarity.Breakdown
	Weights   = similarity.Weights
)

// Progress is called once per finished file. err is nil on success.
type Progress func(done, total int, path string, err error)

// IndexReport summarises a batch. Keys and Paths line up; files that
// failed are in Failures instead.
type IndexReport struct {
	Keys     []string          `json:"keys"`
	Paths    []string          `json:"paths"`
	Failures []*models.Failure `json:"-"`
}

func (r *IndexReport) Succeeded() int {
	return len(r.Keys)
}

func (r *IndexReport) Failed() int {
	return len(r.Failures)
}
