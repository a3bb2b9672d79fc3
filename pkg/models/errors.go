package models

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrDecodeFailure     = errors.New("decode failure")
	ErrStoreCorrupt      = errors.New("store corrupt")
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// Failure reports why a single file could not be fingerprinted.
// errors.Is matches both Kind and anything in the Cause chain.
type Failure struct {
	Path  string
	Kind  error
	Cause error
}

func (f *Failure) Error() string {
	if f.Cause == nil {
		return fmt.Sprintf("%s: %v", f.Path, f.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", f.Path, f.Kind, f.Cause)
}

func (f *Failure) Unwrap() []error {
	errs := make([]error, 0, 2)
	if f.Kind != nil {
		errs = append(errs, f.Kind)
	}
	if f.Cause != nil {
		errs = append(errs, f.Cause)
	}
	return errs
}
