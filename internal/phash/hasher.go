// Package phash renders a spectrogram as a greyscale image and derives four
// perceptual hashes from it.
package phash

import (
	"fmt"
	"image"
	"math"

	"github.com/corona10/goimagehash"

	"github.com/himanishpuri/SoundAlike/pkg/models"
)

// HashSize is the side of the square bit grid every hash is built on.
const HashSize = 8

// Hash normalises a band-major matrix ([row][col]) to 0..255 using its own
// min and max and returns the average, DCT, difference and wavelet hashes.
func Hash(matrix [][]float64) (models.HashSet, error) {
	img, err := ToImage(matrix)
	if err != nil {
		return models.HashSet{}, err
	}
	return HashImage(img)
}

// HashImage computes the four hashes of an already rendered image.
func HashImage(img image.Image) (models.HashSet, error) {
	var set models.HashSet

	ah, err := goimagehash.AverageHash(img)
	if err != nil {
		return set, fmt.Errorf("average hash: %w", err)
	}
	ph, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return set, fmt.Errorf("perception hash: %w", err)
	}
	dh, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return set, fmt.Errorf("difference hash: %w", err)
	}
	wh, err := WaveletHash(img, HashSize)
	if err != nil {
		return set, fmt.Errorf("wavelet hash: %w", err)
	}

	set.AverageHash = toHex(ah.GetHash())
	set.PHash = toHex(ph.GetHash())
	set.DHash = toHex(dh.GetHash())
	set.WHash = toHex(wh)
	return set, nil
}

// ToImage maps matrix values linearly onto 0..255 (truncating) with row 0 at
// the top. A constant matrix becomes an all-black image.
func ToImage(matrix [][]float64) (*image.Gray, error) {
	rows := len(matrix)
	if rows == 0 || len(matrix[0]) == 0 {
		return nil, fmt.Errorf("%w: empty spectrogram", models.ErrInvalidInput)
	}
	cols := len(matrix[0])

	lo, hi := math.Inf(1), math.Inf(-1)
	for r, row := range matrix {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", models.ErrDimensionMismatch, r, len(row), cols)
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: spectrogram contains non-finite values", models.ErrInvalidInput)
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	img := image.NewGray(image.Rect(0, 0, cols, rows))
	span := hi - lo
	if span == 0 {
		return img, nil
	}
	for r, row := range matrix {
		off := r * img.Stride
		for c, v := range row {
			img.Pix[off+c] = uint8((v - lo) * 255 / span)
		}
	}
	return img, nil
}

func toHex(h uint64) string {
	return fmt.Sprintf("%016x", h)
}
