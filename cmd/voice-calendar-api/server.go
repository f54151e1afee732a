// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/middleware"
)

const (
	apiTitle    = "Voice Calendar API"
	apiVersion  = "1.0.0"
	apiBasePath = "/v1"
)

// newHandler builds the HTTP handler: health checks at the root and the
// versioned API under apiBasePath.
func newHandler(s *VoiceCalendarAPI) http.Handler {
	installErrorEnvelope()

	router := chi.NewRouter()

	// Order matters: the request ID must be in the context before the logger reads it.
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RequestLoggerMiddleware())
	router.Use(middleware.AudioBodyLimitMiddleware(models.MaxAudioUploadBytes))

	api := humachi.New(router, huma.DefaultConfig(apiTitle, apiVersion))
	registerHealth(api, s)

	group := huma.NewGroup(api, apiBasePath)
	registerAppointments(group, s)
	registerRecordings(group, s)
	registerScheduler(group, s)

	return otelhttp.NewHandler(router, "voice-calendar-api",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/livez" && r.URL.Path != "/readyz"
		}),
	)
}

// setupHTTPServer configures and starts the HTTP server
func setupHTTPServer(flags flags, s *VoiceCalendarAPI, gracefulCloseWG *sync.WaitGroup) *http.Server {
	// Set up http listener in a goroutine using provided command line parameters.
	var addr string
	if flags.Bind == "*" {
		addr = ":" + flags.Port
	} else {
		addr = flags.Bind + ":" + flags.Port
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           newHandler(s),
		ReadHeaderTimeout: 3 * time.Second,
	}
	gracefulCloseWG.Add(1)
	go func() {
		slog.With("addr", addr).Debug("starting http server, listening on port " + flags.Port)
		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			slog.With(logging.ErrKey, err).Error("http listener error")
			os.Exit(1)
		}
		// Because ErrServerClosed is *immediately* returned when Shutdown is
		// called, not when when Shutdown completes, this must not yet decrement
		// the wait group.
	}()

	return httpServer
}
