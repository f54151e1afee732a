// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/pkg/constants"
)

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		incomingID string
	}{
		{name: "reuses the caller request id", incomingID: "req-123"},
		{name: "generates a request id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = RequestIDFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			}))

			req := httptest.NewRequest(http.MethodGet, "/v1/appointments", nil)
			if tt.incomingID != "" {
				req.Header.Set(constants.RequestIDHeader, tt.incomingID)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			require.NotEmpty(t, seen)
			assert.Equal(t, seen, w.Header().Get(constants.RequestIDHeader))
			if tt.incomingID != "" {
				assert.Equal(t, tt.incomingID, seen)
			} else {
				_, err := uuid.Parse(seen)
				assert.NoError(t, err)
			}
		})
	}
}

func TestRequestIDFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	assert.Empty(t, RequestIDFromContext(req.Context()))
}

func TestRequestLoggerMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		handler    http.HandlerFunc
		wantStatus int
	}{
		{
			name: "implicit ok",
			path: "/v1/appointments",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("[]"))
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "explicit status",
			path: "/v1/appointments/unknown",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "health check",
			path: "/livez",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("OK\n"))
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequestLoggerMiddleware()(tt.handler)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestResponseWriter_Status(t *testing.T) {
	ww := &responseWriter{ResponseWriter: httptest.NewRecorder()}
	assert.Equal(t, http.StatusOK, ww.status())

	ww.WriteHeader(http.StatusConflict)
	assert.Equal(t, http.StatusConflict, ww.status())
}

func TestAudioBodyLimitMiddleware(t *testing.T) {
	const limit = 8

	tests := []struct {
		name      string
		method    string
		path      string
		body      string
		wantError bool
	}{
		{
			name:   "upload within the limit",
			method: http.MethodPost,
			path:   "/v1/appointments/a1/recordings",
			body:   "12345678",
		},
		{
			name:   "one byte over is still readable",
			method: http.MethodPost,
			path:   "/v1/recordings/r1/stop",
			body:   "123456789",
		},
		{
			name:      "oversized upload",
			method:    http.MethodPost,
			path:      "/v1/appointments/a1/recordings",
			body:      strings.Repeat("x", 32),
			wantError: true,
		},
		{
			name:   "other endpoints are not limited",
			method: http.MethodPost,
			path:   "/v1/appointments",
			body:   strings.Repeat("x", 32),
		},
		{
			name:   "reads are not limited",
			method: http.MethodGet,
			path:   "/v1/appointments/a1/recordings",
			body:   strings.Repeat("x", 32),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				body    []byte
				readErr error
			)
			handler := AudioBodyLimitMiddleware(limit)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, readErr = io.ReadAll(r.Body)
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if tt.wantError {
				var maxBytesErr *http.MaxBytesError
				assert.True(t, errors.As(readErr, &maxBytesErr))
				return
			}
			require.NoError(t, readErr)
			assert.Equal(t, tt.body, string(body))
		})
	}
}
