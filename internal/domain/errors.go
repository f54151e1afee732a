// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import "errors"

// ErrorType represents the semantic category of an error
type ErrorType int

const (
	ErrorTypeValidation    ErrorType = iota // Input validation errors (400 Bad Request)
	ErrorTypeNotFound                       // Resource not found errors (404 Not Found)
	ErrorTypeConflict                       // Resource conflict errors (409 Conflict)
	ErrorTypeInternal                       // Internal server errors (500 Internal Server Error)
	ErrorTypeUnavailable                    // Service unavailable errors (503 Service Unavailable)
	ErrorTypeTranscription                  // Transcription provider failures (502 Bad Gateway)
	ErrorTypeAnalysis                       // Completion provider failures, never fatal to a pipeline run
	ErrorTypeNotification                   // Email delivery failures, never roll back state
)

// String returns the lower snake case name of the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeValidation:
		return "validation"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeConflict:
		return "conflict"
	case ErrorTypeUnavailable:
		return "unavailable"
	case ErrorTypeTranscription:
		return "transcription_failure"
	case ErrorTypeAnalysis:
		return "analysis_failure"
	case ErrorTypeNotification:
		return "notification_failure"
	default:
		return "internal"
	}
}

// DomainError represents an error with semantic type information
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error // underlying error for wrapping
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// GetErrorType returns the semantic type of an error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ErrorTypeInternal // default fallback
}

// IsErrorType reports whether err carries the given semantic type.
func IsErrorType(err error, t ErrorType) bool {
	return err != nil && GetErrorType(err) == t
}

// Error constructors for different types
func NewValidationError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeValidation, Message: message, Err: errors.Join(err...)}
}

func NewNotFoundError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeNotFound, Message: message, Err: errors.Join(err...)}
}

func NewConflictError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeConflict, Message: message, Err: errors.Join(err...)}
}

func NewInternalError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeInternal, Message: message, Err: errors.Join(err...)}
}

func NewUnavailableError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeUnavailable, Message: message, Err: errors.Join(err...)}
}

func NewTranscriptionError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeTranscription, Message: message, Err: errors.Join(err...)}
}

func NewAnalysisError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeAnalysis, Message: message, Err: errors.Join(err...)}
}

func NewNotificationError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeNotification, Message: message, Err: errors.Join(err...)}
}
