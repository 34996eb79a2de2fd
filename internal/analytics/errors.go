package analytics

import (
	"errors"
	"fmt"
)

// Sentinel errors usable with errors.Is
var (
	ErrValidation       = errors.New("validation error")
	ErrInsufficientData = errors.New("insufficient data")
)

// ValidationError reports malformed input. Callers must correct the input; retrying is pointless.
type ValidationError struct {
	Field  string
	Index  int // -1 when the error is not tied to a single observation
	Reason string
}

// NewValidationError creates a ValidationError for an observation index (use -1 for none)
func NewValidationError(field string, index int, reason string) *ValidationError {
	return &ValidationError{Field: field, Index: index, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid %s at index %d: %s", e.Field, e.Index, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) work
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// InsufficientDataError is returned when a series is too short for the requested operation
type InsufficientDataError struct {
	Need int
	Have int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data points: need %d, have %d", e.Need, e.Have)
}

// Is makes errors.Is(err, ErrInsufficientData) work
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// WarningZeroVariance is attached to results computed over a constant series.
// It is informational only; the computation falls back to defined conventions.
const WarningZeroVariance = "zero variance: degenerate input handled by convention"
