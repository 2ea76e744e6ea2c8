package model

import (
	"errors"
	"fmt"
)

// Sentinel error kinds shared by every layer. Callers classify with errors.Is.
var (
	// ErrNotFound means a referenced employee, department or record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation means a write carried out-of-range or missing values.
	ErrValidation = errors.New("validation failed")
	// ErrExternalService means the narrative generator failed or timed out.
	ErrExternalService = errors.New("external service failure")
	// ErrComputation means scoring or aggregation failed unexpectedly.
	ErrComputation = errors.New("computation error")
)

// NotFoundf wraps ErrNotFound with a formatted detail.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Invalidf wraps ErrValidation with a formatted detail.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
