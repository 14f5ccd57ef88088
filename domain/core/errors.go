package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Arithmetic / input errors
	ErrDivisionByZero   = errors.New("division by zero: sample size is 0")
	ErrDomain           = errors.New("value outside its domain")
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// Shape errors
	ErrLengthMismatch    = errors.New("length mismatch")
	ErrDuplicateCategory = errors.New("duplicate category")

	// Not found errors
	ErrNotFound       = errors.New("resource not found")
	ErrReportNotFound = fmt.Errorf("%w: report", ErrNotFound)
	ErrColumnNotFound = fmt.Errorf("%w: column", ErrNotFound)
	ErrRowNotFound    = fmt.Errorf("%w: row", ErrNotFound)
)

// NewDomainError reports a value that is outside the range a parameter accepts.
func NewDomainError(field string, value float64, want string) error {
	return fmt.Errorf("%w: %s=%v, want %s", ErrDomain, field, value, want)
}

// NewNotFoundError reports a missing resource identified by id.
func NewNotFoundError(resource error, id string) error {
	return fmt.Errorf("%w %q", resource, id)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInputError reports whether err was caused by the caller's input rather
// than by the system.
func IsInputError(err error) bool {
	return errors.Is(err, ErrDivisionByZero) ||
		errors.Is(err, ErrDomain) ||
		errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrLengthMismatch) ||
		errors.Is(err, ErrDuplicateCategory)
}
