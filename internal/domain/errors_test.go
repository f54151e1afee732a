// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorConstructors(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name     string
		err      *DomainError
		wantType ErrorType
		wantMsg  string
	}{
		{"validation", NewValidationError("end time must be after start time"), ErrorTypeValidation, "end time must be after start time"},
		{"not found", NewNotFoundError("appointment not found", cause), ErrorTypeNotFound, "appointment not found: boom"},
		{"conflict", NewConflictError("recording already active"), ErrorTypeConflict, "recording already active"},
		{"internal", NewInternalError("failed to save", cause), ErrorTypeInternal, "failed to save: boom"},
		{"unavailable", NewUnavailableError("store not ready"), ErrorTypeUnavailable, "store not ready"},
		{"transcription", NewTranscriptionError("Transcription timed out after 3 minutes"), ErrorTypeTranscription, "Transcription timed out after 3 minutes"},
		{"analysis", NewAnalysisError("entity extraction failed", cause), ErrorTypeAnalysis, "entity extraction failed: boom"},
		{"notification", NewNotificationError("smtp failure", cause), ErrorTypeNotification, "smtp failure: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantMsg, tt.err.Error())
			assert.Equal(t, tt.wantType, GetErrorType(tt.err))
		})
	}
}

func TestGetErrorType_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("scan failed: %w", NewNotFoundError("appointment not found"))
	assert.Equal(t, ErrorTypeNotFound, GetErrorType(wrapped))
	assert.True(t, IsErrorType(wrapped, ErrorTypeNotFound))
	assert.False(t, IsErrorType(nil, ErrorTypeNotFound))
}

func TestGetErrorType_PlainErrorIsInternal(t *testing.T) {
	assert.Equal(t, ErrorTypeInternal, GetErrorType(errors.New("plain")))
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("wrong last sequence")
	err := NewConflictError("appointment has been modified", cause)
	assert.ErrorIs(t, err, cause)
}

func TestErrorType_String(t *testing.T) {
	assert.Equal(t, "transcription_failure", ErrorTypeTranscription.String())
	assert.Equal(t, "not_found", ErrorTypeNotFound.String())
	assert.Equal(t, "internal", ErrorType(99).String())
}
