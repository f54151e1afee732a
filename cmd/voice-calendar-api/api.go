// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/scheduler"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/service"
)

// VoiceCalendarAPI exposes the voice calendar services over HTTP.
type VoiceCalendarAPI struct {
	appointmentService  *service.AppointmentService
	recordingService    *service.RecordingService
	conversationService *service.ConversationService
	notifier            *service.Notifier
	scheduler           *scheduler.Scheduler
}

// NewVoiceCalendarAPI creates a new VoiceCalendarAPI.
func NewVoiceCalendarAPI(
	appointmentService *service.AppointmentService,
	recordingService *service.RecordingService,
	conversationService *service.ConversationService,
	notifier *service.Notifier,
	scheduler *scheduler.Scheduler,
) *VoiceCalendarAPI {
	return &VoiceCalendarAPI{
		appointmentService:  appointmentService,
		recordingService:    recordingService,
		conversationService: conversationService,
		notifier:            notifier,
		scheduler:           scheduler,
	}
}

// ServiceReady reports whether every service behind the API can take requests.
func (s *VoiceCalendarAPI) ServiceReady() bool {
	return s.appointmentService != nil && s.appointmentService.ServiceReady() &&
		s.recordingService != nil && s.recordingService.ServiceReady() &&
		s.conversationService != nil && s.conversationService.ServiceReady() &&
		s.scheduler != nil && s.scheduler.Ready()
}

type apiErrorBody struct {
	Code    string `json:"code" example:"not_found"`
	Message string `json:"message" example:"appointment not found"`
}

// apiError is the error envelope of every failed request.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

func newAPIError(status int, message string) huma.StatusError {
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    codeForStatus(status),
			Message: message,
		},
	}
}

// installErrorEnvelope makes huma report its own errors with the apiError envelope.
func installErrorEnvelope() {
	huma.NewError = func(status int, msg string, _ ...error) huma.StatusError {
		return newAPIError(status, msg)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			// Schema and request validation errors are client errors.
			status = http.StatusBadRequest
		}
		if len(errs) > 0 {
			details := make([]string, 0, len(errs))
			for _, err := range errs {
				details = append(details, err.Error())
			}
			msg = msg + ": " + strings.Join(details, "; ")
		}
		return newAPIError(status, msg)
	}
}

// handleError maps a domain error to its HTTP status.
func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}

	switch domain.GetErrorType(err) {
	case domain.ErrorTypeValidation:
		return newAPIError(http.StatusBadRequest, err.Error())
	case domain.ErrorTypeNotFound:
		return newAPIError(http.StatusNotFound, err.Error())
	case domain.ErrorTypeConflict:
		return newAPIError(http.StatusConflict, err.Error())
	case domain.ErrorTypeUnavailable:
		return newAPIError(http.StatusServiceUnavailable, err.Error())
	case domain.ErrorTypeTranscription:
		return newAPIError(http.StatusBadGateway, err.Error())
	default:
		return newAPIError(http.StatusInternalServerError, "internal error")
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusBadGateway:
		return "transcription_failure"
	case http.StatusServiceUnavailable:
		return "service_unavailable"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

// parseTimeParam parses an optional RFC 3339 query parameter.
func parseTimeParam(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, domain.NewValidationError(name+" must be an RFC 3339 timestamp", err)
	}
	t = t.UTC()
	return &t, nil
}

type healthOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

func registerHealth(api huma.API, s *VoiceCalendarAPI) {
	huma.Register(api, huma.Operation{
		OperationID: "livez",
		Method:      http.MethodGet,
		Path:        "/livez",
		Summary:     "Liveness check",
		Tags:        []string{"health"},
	}, func(_ context.Context, _ *struct{}) (*healthOutput, error) {
		// This always returns as long as the process is running; the service
		// must self-terminate on unrecoverable errors.
		return &healthOutput{ContentType: "text/plain", Body: []byte("OK\n")}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "readyz",
		Method:      http.MethodGet,
		Path:        "/readyz",
		Summary:     "Readiness check",
		Tags:        []string{"health"},
		Errors:      []int{http.StatusServiceUnavailable},
	}, func(_ context.Context, _ *struct{}) (*healthOutput, error) {
		if !s.ServiceReady() {
			return nil, newAPIError(http.StatusServiceUnavailable, "service unavailable")
		}
		return &healthOutput{ContentType: "text/plain", Body: []byte("OK\n")}, nil
	})
}
