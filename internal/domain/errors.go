package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")

	// Run errors
	ErrListingFailed = errors.New("failed to list repository files")

	// Per-attempt errors, recovered by the retry loop
	ErrMetadataQuery = errors.New("metadata query failed")
	ErrTransfer      = errors.New("transfer failed")
	ErrSizeMismatch  = errors.New("size mismatch")

	// Per-file errors
	ErrRetriesExhausted = errors.New("retries exhausted")

	// Task state errors
	ErrInvalidStateTransition = errors.New("invalid state transition")
)

// SizeMismatchError is returned when the local file length disagrees with
// the expected remote length after a transfer completed.
type SizeMismatchError struct {
	Expected int64
	Actual   int64
}

// Error returns the error message
func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("size mismatch: expected %d bytes, got %d", e.Expected, e.Actual)
}

// Is reports ErrSizeMismatch as a match so callers can use errors.Is
func (e *SizeMismatchError) Is(target error) bool {
	return target == ErrSizeMismatch
}

// NewSizeMismatchError creates a new size mismatch error
func NewSizeMismatchError(expected, actual int64) *SizeMismatchError {
	return &SizeMismatchError{Expected: expected, Actual: actual}
}

// PermanentError represents an error that retrying will not fix,
// e.g. the remote file does not exist or access is denied.
// The retry loop stops as soon as it sees one.
type PermanentError struct {
	Err     error
	Context string
}

// Error returns the error message
func (e *PermanentError) Error() string {
	if e.Context != "" {
		if e.Err != nil {
			return e.Context + ": " + e.Err.Error()
		}
		return e.Context
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "permanent error"
}

// Unwrap returns the underlying error
func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewPermanentError creates a new permanent error
func NewPermanentError(err error, context string) *PermanentError {
	return &PermanentError{Err: err, Context: context}
}

// IsPermanent returns true if the error should not be retried
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
