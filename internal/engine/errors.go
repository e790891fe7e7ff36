package engine

import (
	"errors"
	"fmt"
)

// RunError is a run-terminating failure. Per-contact failures are never
// RunErrors: they are captured in the partition report.
//
// Run errors include:
//   - Configuration: a destination has no credential, options out of range
//   - Reference integrity: a selected row has no doctor mapping
//   - Input: the export cannot be used at all
//
// When a RunError is returned, no contact has been synchronized.
type RunError struct {
	// Code identifies the error category.
	Code RunErrorCode

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// RunErrorCode categorizes run errors.
type RunErrorCode string

const (
	// ErrCodeConfig indicates missing or invalid configuration.
	ErrCodeConfig RunErrorCode = "CONFIG_INVALID"

	// ErrCodeIntegrity indicates the reference tables cannot resolve a selected row.
	ErrCodeIntegrity RunErrorCode = "REFERENCE_INTEGRITY"

	// ErrCodeInput indicates the export itself is unusable.
	ErrCodeInput RunErrorCode = "INPUT_INVALID"
)

// Error implements the error interface.
func (e *RunError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// IsConfigError returns true if err is a configuration RunError.
// Uses errors.As to handle wrapped errors.
func IsConfigError(err error) bool {
	return hasCode(err, ErrCodeConfig)
}

// IsIntegrityError returns true if err is a reference integrity RunError.
// Uses errors.As to handle wrapped errors.
func IsIntegrityError(err error) bool {
	return hasCode(err, ErrCodeIntegrity)
}

func hasCode(err error, code RunErrorCode) bool {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// NewConfigError creates a RunError for invalid configuration.
func NewConfigError(message string) *RunError {
	return &RunError{Code: ErrCodeConfig, Message: message}
}

// NewIntegrityError wraps a reference integrity failure.
func NewIntegrityError(err error) *RunError {
	return &RunError{
		Code:    ErrCodeIntegrity,
		Message: "synchronization aborted before any remote call",
		Err:     err,
	}
}
