// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package llm implements the completion provider against an OpenAI compatible
// chat completions endpoint such as Groq.
package llm

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/infrastructure/apiclient"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/logging"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the Groq OpenAI compatible API root.
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	// DefaultModel is used when a request does not name a model.
	DefaultModel = "llama-3.1-8b-instant"

	completionsPath = "/chat/completions"
)

// Config holds the configuration for the completion client
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Optional: retry configuration passed to the HTTP client
	MaxRetries int
}

// Client calls the chat completions endpoint. The API key is sent as a
// bearer token through an oauth2 transport.
type Client struct {
	api    *apiclient.Client
	config Config
}

// Ensure Client implements domain.Completer
var _ domain.Completer = (*Client)(nil)

type chatCompletionRequest struct {
	Model       string               `json:"model"`
	Messages    []domain.ChatMessage `json:"messages"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewClient creates a new completion client
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, completionsPath)
	if config.Model == "" {
		config.Model = DefaultModel
	}

	transport := &oauth2.Transport{
		Base:   http.DefaultTransport,
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.APIKey, TokenType: "Bearer"}),
	}

	api := apiclient.NewClient(apiclient.Config{
		Name:       "completion",
		BaseURL:    config.BaseURL,
		MaxRetries: config.MaxRetries,
	}, transport)

	return &Client{api: api, config: config}
}

// IsReady reports whether an API key is configured.
func (c *Client) IsReady() bool {
	return c.config.APIKey != ""
}

// Complete returns the content of the first choice.
func (c *Client) Complete(ctx context.Context, request domain.CompletionRequest) (string, error) {
	if !c.IsReady() {
		return "", domain.NewAnalysisError("completion API key not configured")
	}

	model := request.Model
	if model == "" {
		model = c.config.Model
	}
	ctx = logging.AppendCtx(ctx, slog.String("model", model))

	var resp chatCompletionResponse
	err := c.api.DoJSON(ctx, http.MethodPost, completionsPath, chatCompletionRequest{
		Model:       model,
		Messages:    request.Messages,
		Temperature: request.Temperature,
		MaxTokens:   request.MaxTokens,
	}, &resp)
	if err != nil {
		slog.ErrorContext(ctx, "completion request failed", logging.ErrKey, err)
		return "", domain.NewAnalysisError("completion request failed", err)
	}

	if len(resp.Choices) == 0 {
		return "", domain.NewAnalysisError("completion response has no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
