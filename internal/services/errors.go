// Package services provides the business logic layer between transports (HTTP, gRPC, queue) and the
// analytics packages. Services apply configured defaults, record metrics and translate errors.
package services

import (
	"errors"

	"github.com/aerolens/aerolens/internal/analytics"
)

// Error codes returned to clients
const (
	CodeInvalidInput     = "INVALID_INPUT"
	CodeInsufficientData = "INSUFFICIENT_DATA"
	CodeInvalidMethod    = "INVALID_METHOD"
	CodeInvalidDetector  = "INVALID_DETECTOR"
	CodeInvalidJSON      = "INVALID_JSON"
	CodeInternal         = "INTERNAL_ERROR"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// FromAnalyticsError maps analytics errors to client-facing codes.
// ServiceErrors pass through; anything unrecognised becomes INTERNAL_ERROR.
func FromAnalyticsError(err error) *ServiceError {
	if err == nil {
		return nil
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}

	var validationErr *analytics.ValidationError
	if errors.As(err, &validationErr) {
		details := map[string]interface{}{
			"field":  validationErr.Field,
			"reason": validationErr.Reason,
		}
		if validationErr.Index >= 0 {
			details["index"] = validationErr.Index
		}
		return NewServiceErrorWithDetails(CodeInvalidInput, err.Error(), details)
	}

	var insufficientErr *analytics.InsufficientDataError
	if errors.As(err, &insufficientErr) {
		return NewServiceErrorWithDetails(CodeInsufficientData, err.Error(), map[string]interface{}{
			"required": insufficientErr.Need,
			"actual":   insufficientErr.Have,
		})
	}

	return NewServiceError(CodeInternal, err.Error())
}
