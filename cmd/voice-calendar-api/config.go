// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/infrastructure/llm"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/infrastructure/transcription"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/scheduler"
)

// flags are the command line flags for the voice calendar service.
type flags struct {
	Debug bool
	Port  string
	Bind  string
	Once  bool
}

// environment are the environment variables for the voice calendar service.
type environment struct {
	Port            string
	AppBaseURL      string
	DefaultTimezone string
	NATS            natsConfig
	Scheduler       schedulerConfig
	Email           emailConfig
	Transcription   transcription.Config
	LLM             llm.Config
	SummaryModel    string
}

// natsConfig holds the NATS connection configuration
type natsConfig struct {
	URL           string
	Timeout       time.Duration
	MaxReconnect  int
	ReconnectWait time.Duration
}

// schedulerConfig holds the scheduler loop configuration
type schedulerConfig struct {
	Interval time.Duration
	Workers  int
	Disabled bool
}

// emailConfig holds the SMTP configuration
type emailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	From     string
	FromName string
	Username string
	Password string
}

// parseFlags parses command line flags for the voice calendar service
func parseFlags(defaultPort string) flags {
	var debug = flag.Bool("d", false, "enable debug logging")
	var port = flag.String("p", defaultPort, "listen port")
	var bind = flag.String("bind", "*", "interface to bind on")
	var once = flag.Bool("once", false, "run a single scheduler pass and exit")

	flag.Usage = func() {
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()

	// Based on the debug flag, set the log level environment variable used by [logging.InitStructureLogConfig]
	if *debug {
		err := os.Setenv("LOG_LEVEL", "debug")
		if err != nil {
			slog.With(logging.ErrKey, err).Error("error setting log level")
			os.Exit(1)
		}
	}

	return flags{
		Debug: *debug,
		Port:  *port,
		Bind:  *bind,
		Once:  *once,
	}
}

// parseEnv parses environment variables for the voice calendar service
func parseEnv() environment {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	appBaseURL := os.Getenv("APP_BASE_URL")
	if appBaseURL != "" {
		if _, err := url.ParseRequestURI(appBaseURL); err != nil {
			slog.With(logging.ErrKey, err, "url", appBaseURL).Error("invalid APP_BASE_URL provided, using default")
			appBaseURL = ""
		}
	}
	if appBaseURL == "" {
		appBaseURL = "http://localhost:3000"
	}

	defaultTimezone := os.Getenv("DEFAULT_TIMEZONE")
	if defaultTimezone == "" {
		defaultTimezone = "UTC"
	}

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = nats.DefaultURL
	}

	return environment{
		Port:            port,
		AppBaseURL:      appBaseURL,
		DefaultTimezone: defaultTimezone,
		NATS: natsConfig{
			URL:           natsURL,
			Timeout:       envDuration("NATS_TIMEOUT", 10*time.Second),
			MaxReconnect:  envInt("NATS_MAX_RECONNECT", 3),
			ReconnectWait: envDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		},
		Scheduler: schedulerConfig{
			Interval: envDuration("SCHEDULER_INTERVAL", scheduler.DefaultInterval),
			Workers:  envInt("SCHEDULER_WORKERS", scheduler.DefaultWorkers),
			Disabled: os.Getenv("SCHEDULER_DISABLED") == "true",
		},
		Email: parseEmailConfig(),
		Transcription: transcription.Config{
			APIKey:       os.Getenv("ASSEMBLYAI_API_KEY"),
			BaseURL:      os.Getenv("ASSEMBLYAI_BASE_URL"),
			Timeout:      envDuration("TRANSCRIPTION_TIMEOUT", transcription.DefaultTimeout),
			PollInterval: envDuration("TRANSCRIPTION_POLL_INTERVAL", transcription.DefaultPollInterval),
		},
		LLM: llm.Config{
			APIKey:  os.Getenv("LLM_API_KEY"),
			BaseURL: os.Getenv("LLM_BASE_URL"),
			Model:   os.Getenv("LLM_MODEL"),
		},
		SummaryModel: os.Getenv("LLM_SUMMARY_MODEL"),
	}
}

// parseEmailConfig parses SMTP configuration from environment variables
func parseEmailConfig() emailConfig {
	config := emailConfig{
		Enabled:  os.Getenv("EMAIL_ENABLED") == "true",
		Host:     os.Getenv("SMTP_HOST"),
		Port:     envInt("SMTP_PORT", 587),
		From:     os.Getenv("SMTP_FROM"),
		FromName: os.Getenv("SMTP_FROM_NAME"),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
	}
	if config.Host == "" {
		config.Host = "localhost"
	}
	if config.From == "" {
		config.From = "no-reply@voice-calendar.local"
	}
	if config.FromName == "" {
		config.FromName = "Voice Calendar"
	}
	return config
}

// envDuration reads a Go duration such as "90s" from the environment.
// Unset or invalid values fall back to def.
func envDuration(name string, def time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		slog.With(logging.ErrKey, err, "name", name, "value", raw).Warn("invalid duration, using default")
		return def
	}
	return d
}

// envInt reads a non-negative integer from the environment.
// Unset or invalid values fall back to def.
func envInt(name string, def int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		slog.With(logging.ErrKey, err, "name", name, "value", raw).Warn("invalid integer, using default")
		return def
	}
	return n
}
