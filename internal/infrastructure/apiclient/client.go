// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package apiclient is the retrying JSON over HTTP client shared by the
// transcription and completion providers.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/logging"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// DefaultClientTimeout is the default HTTP client timeout for provider requests
	DefaultClientTimeout = 60 * time.Second
	// Default retry configuration
	DefaultMaxRetries        = 3
	DefaultInitialBackoff    = 1 * time.Second
	DefaultMaxBackoff        = 30 * time.Second
	DefaultBackoffMultiplier = 2.0
)

// Config holds the configuration for a provider client
type Config struct {
	// Name identifies the provider in logs, e.g. "assemblyai".
	Name    string
	BaseURL string
	// Header is sent with every request.
	Header http.Header
	// Optional: override timeout for HTTP requests
	Timeout time.Duration
	// Optional: retry configuration. A negative MaxRetries disables retries.
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// Client performs provider requests with retry and backoff on transient failures.
type Client struct {
	httpClient *http.Client
	config     Config
}

// StatusError is returned when the provider answers with a 4xx or 5xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", http.StatusText(e.StatusCode), e.StatusCode, e.Body)
}

// Request describes one provider call. Body is sent as is with ContentType,
// which defaults to application/json.
type Request struct {
	Method      string
	Path        string
	Body        []byte
	ContentType string
}

// NewClient creates a new provider client. The transport may carry
// authentication, and is instrumented for tracing. A nil transport uses
// http.DefaultTransport.
func NewClient(config Config, transport http.RoundTripper) *Client {
	// Set defaults if not provided
	if config.Timeout == 0 {
		config.Timeout = DefaultClientTimeout
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.InitialBackoff == 0 {
		config.InitialBackoff = DefaultInitialBackoff
	}
	if config.MaxBackoff == 0 {
		config.MaxBackoff = DefaultMaxBackoff
	}
	if config.BackoffMultiplier == 0 {
		config.BackoffMultiplier = DefaultBackoffMultiplier
	}
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		config: config,
	}
}

// Config returns the effective configuration after defaults were applied.
func (c *Client) Config() Config {
	return c.config
}

// shouldRetry determines if an error or HTTP status code should be retried
func shouldRetry(statusCode int, err error) bool {
	if err != nil {
		// Don't retry if context was cancelled
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}

	// Retry on server errors (5xx)
	if statusCode >= 500 && statusCode < 600 {
		return true
	}

	// Retry on rate limiting (429)
	return statusCode == http.StatusTooManyRequests
}

// calculateBackoff calculates the backoff duration for a retry attempt with jitter
func (c *Client) calculateBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		return c.config.InitialBackoff
	}

	// Calculate exponential backoff
	backoff := float64(c.config.InitialBackoff) * math.Pow(c.config.BackoffMultiplier, float64(attempt))

	// Cap at max backoff
	if time.Duration(backoff) > c.config.MaxBackoff {
		backoff = float64(c.config.MaxBackoff)
	}

	// Add jitter (±25% of backoff duration)
	jitter := backoff * 0.25 * (rand.Float64()*2 - 1)
	backoffWithJitter := time.Duration(backoff + jitter)

	// Ensure we don't go below initial backoff
	if backoffWithJitter < c.config.InitialBackoff {
		backoffWithJitter = c.config.InitialBackoff
	}

	return backoffWithJitter
}

// Do performs the request and returns the body of a successful response.
// 4xx and 5xx answers are returned as *StatusError.
func (c *Client) Do(ctx context.Context, request Request) ([]byte, error) {
	url := c.config.BaseURL + request.Path
	var (
		lastErr    error
		statusCode int
		body       []byte
	)

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		req, err := c.createRequest(ctx, url, request)
		if err != nil {
			return nil, err
		}

		c.logRequestAttempt(ctx, request, attempt)

		startTime := time.Now()
		statusCode, body, lastErr = c.execute(req)
		duration := time.Since(startTime)

		if lastErr == nil && statusCode < http.StatusBadRequest {
			slog.DebugContext(ctx, c.config.Name+" API request completed",
				"method", request.Method,
				"path", request.Path,
				"status", statusCode,
				"duration", duration.String(),
				"attempt", attempt+1,
			)
			return body, nil
		}

		if !shouldRetry(statusCode, lastErr) {
			break
		}

		if attempt < c.config.MaxRetries {
			backoff := c.calculateBackoff(attempt)
			slog.WarnContext(ctx, c.config.Name+" API request failed, retrying",
				"method", request.Method,
				"path", request.Path,
				"status", statusCode,
				"duration", duration.String(),
				"attempt", attempt+1,
				"max_retries", c.config.MaxRetries,
				"backoff", backoff.String(),
				logging.ErrKey, lastErr)

			// Wait with backoff, but check for context cancellation
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	if lastErr != nil {
		slog.ErrorContext(ctx, c.config.Name+" API request failed",
			"method", request.Method,
			"path", request.Path,
			logging.ErrKey, lastErr)
		return nil, fmt.Errorf("%s request failed: %w", c.config.Name, lastErr)
	}

	statusErr := &StatusError{StatusCode: statusCode, Body: string(body)}
	slog.ErrorContext(ctx, c.config.Name+" API error response",
		"method", request.Method,
		"path", request.Path,
		"status", statusCode,
		"body", string(body),
		logging.ErrKey, statusErr)
	return nil, statusErr
}

// DoJSON marshals in as the request body when it is not nil and unmarshals
// the response into out when it is not nil.
func (c *Client) DoJSON(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	body, err := c.Do(ctx, Request{Method: method, Path: path, Body: payload})
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", c.config.Name, err)
	}
	return nil
}

// createRequest creates a new HTTP request with the given parameters
func (c *Client) createRequest(ctx context.Context, url string, request Request) (*http.Request, error) {
	var bodyReader io.Reader
	if request.Body != nil {
		bodyReader = bytes.NewReader(request.Body)
	}

	req, err := http.NewRequestWithContext(ctx, request.Method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range c.config.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	contentType := request.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)
	return req, nil
}

// execute runs the request and reads the whole response body.
func (c *Client) execute(req *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// logRequestAttempt logs the request attempt
func (c *Client) logRequestAttempt(ctx context.Context, request Request, attempt int) {
	if attempt == 0 {
		slog.DebugContext(ctx, "making "+c.config.Name+" API request",
			"method", request.Method,
			"path", request.Path,
			"body_bytes", len(request.Body),
			"max_retries", c.config.MaxRetries,
		)
		return
	}
	slog.DebugContext(ctx, "retrying "+c.config.Name+" API request",
		"method", request.Method,
		"path", request.Path,
		"attempt", attempt,
		"max_retries", c.config.MaxRetries,
	)
}
