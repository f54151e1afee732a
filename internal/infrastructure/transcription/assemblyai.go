// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package transcription implements the speech to text provider on top of the
// AssemblyAI REST API.
package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/infrastructure/apiclient"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/logging"
)

const (
	// BaseURL is the base URL for the AssemblyAI API
	BaseURL = "https://api.assemblyai.com"
	// DefaultTimeout bounds a whole transcription, polling included.
	DefaultTimeout = 3 * time.Minute
	// DefaultPollInterval is the delay between two status checks.
	DefaultPollInterval = 3 * time.Second
)

// Transcript statuses reported by AssemblyAI.
const (
	statusQueued     = "queued"
	statusProcessing = "processing"
	statusCompleted  = "completed"
	statusError      = "error"
)

// Config holds the configuration for the AssemblyAI client
type Config struct {
	APIKey string
	// Optional: override base URL for testing
	BaseURL      string
	Timeout      time.Duration
	PollInterval time.Duration
	// Optional: retry configuration passed to the HTTP client
	MaxRetries     int
	InitialBackoff time.Duration
}

// AssemblyAIClient transcribes audio by uploading it, requesting a transcript,
// and polling until the transcript completes, fails, or times out.
type AssemblyAIClient struct {
	api    *apiclient.Client
	config Config
}

// Ensure AssemblyAIClient implements domain.Transcriber
var _ domain.Transcriber = (*AssemblyAIClient)(nil)

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptRequest struct {
	AudioURL        string  `json:"audio_url"`
	LanguageCode    string  `json:"language_code"`
	SpeakerLabels   bool    `json:"speaker_labels"`
	FormatText      bool    `json:"format_text"`
	Disfluencies    bool    `json:"disfluencies"`
	FilterProfanity bool    `json:"filter_profanity"`
	Punctuate       bool    `json:"punctuate"`
	SpeechThreshold float64 `json:"speech_threshold"`
}

type transcriptResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Text       string `json:"text"`
	Error      string `json:"error"`
	Utterances []struct {
		Speaker string `json:"speaker"`
	} `json:"utterances"`
}

// NewAssemblyAIClient creates a new AssemblyAI client
func NewAssemblyAIClient(config Config) *AssemblyAIClient {
	if config.BaseURL == "" {
		config.BaseURL = BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.PollInterval == 0 {
		config.PollInterval = DefaultPollInterval
	}

	api := apiclient.NewClient(apiclient.Config{
		Name:           "assemblyai",
		BaseURL:        config.BaseURL,
		Header:         http.Header{"Authorization": {config.APIKey}},
		MaxRetries:     config.MaxRetries,
		InitialBackoff: config.InitialBackoff,
	}, nil)

	return &AssemblyAIClient{api: api, config: config}
}

// IsReady reports whether an API key is configured.
func (c *AssemblyAIClient) IsReady() bool {
	return c.config.APIKey != ""
}

// Transcribe returns the text of the audio artifact.
func (c *AssemblyAIClient) Transcribe(ctx context.Context, audio domain.AudioArtifact) (string, error) {
	ctx = logging.AppendCtx(ctx, slog.String("audio_name", audio.Name))

	if !c.IsReady() {
		return "", domain.NewTranscriptionError("AssemblyAI API key not configured")
	}
	if len(audio.Data) == 0 {
		return "", domain.NewTranscriptionError("audio artifact is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	uploadURL, err := c.upload(ctx, audio)
	if err != nil {
		return "", c.failure(ctx, "Failed to upload audio file", err)
	}

	transcriptID, err := c.requestTranscript(ctx, uploadURL)
	if err != nil {
		return "", c.failure(ctx, "Failed to start transcription", err)
	}

	return c.poll(ctx, transcriptID)
}

func (c *AssemblyAIClient) upload(ctx context.Context, audio domain.AudioArtifact) (string, error) {
	body, err := c.api.Do(ctx, apiclient.Request{
		Method:      http.MethodPost,
		Path:        "/v2/upload",
		Body:        audio.Data,
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return "", err
	}

	var resp uploadResponse
	if err := decode(body, &resp); err != nil {
		return "", err
	}
	if resp.UploadURL == "" {
		return "", fmt.Errorf("upload response has no upload_url")
	}

	slog.DebugContext(ctx, "audio uploaded to AssemblyAI", "bytes", len(audio.Data))
	return resp.UploadURL, nil
}

func (c *AssemblyAIClient) requestTranscript(ctx context.Context, uploadURL string) (string, error) {
	request := transcriptRequest{
		AudioURL:      uploadURL,
		LanguageCode:  "en",
		SpeakerLabels: true,
		FormatText:    true,
		Disfluencies:  true,
		Punctuate:     true,
	}

	var resp transcriptResponse
	if err := c.api.DoJSON(ctx, http.MethodPost, "/v2/transcript", request, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("transcript response has no id")
	}

	slog.DebugContext(ctx, "transcription started", "transcript_id", resp.ID)
	return resp.ID, nil
}

func (c *AssemblyAIClient) poll(ctx context.Context, transcriptID string) (string, error) {
	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		var resp transcriptResponse
		err := c.api.DoJSON(ctx, http.MethodGet, "/v2/transcript/"+transcriptID, nil, &resp)
		if err != nil {
			if ctx.Err() != nil {
				return "", c.timedOut(ctx)
			}
			return "", c.failure(ctx, "Polling error", err)
		}

		switch resp.Status {
		case statusCompleted:
			slog.InfoContext(ctx, "transcription completed",
				"transcript_id", transcriptID,
				"characters", len(resp.Text),
				"speakers", countSpeakers(resp))
			return resp.Text, nil
		case statusError:
			message := resp.Error
			if message == "" {
				message = "Unknown error"
			}
			slog.ErrorContext(ctx, "transcription failed", "transcript_id", transcriptID, "provider_error", message)
			return "", domain.NewTranscriptionError("Transcription error: " + message)
		default:
			slog.DebugContext(ctx, "transcription in progress",
				"transcript_id", transcriptID,
				"status", resp.Status,
				"attempt", attempt)
		}

		select {
		case <-ctx.Done():
			return "", c.timedOut(ctx)
		case <-ticker.C:
		}
	}
}

func (c *AssemblyAIClient) timedOut(ctx context.Context) error {
	slog.WarnContext(ctx, "transcription timed out", "timeout", c.config.Timeout.String())
	return domain.NewTranscriptionError(fmt.Sprintf("Transcription timed out after %s", humanDuration(c.config.Timeout)), ctx.Err())
}

func (c *AssemblyAIClient) failure(ctx context.Context, message string, err error) error {
	if ctx.Err() != nil {
		return c.timedOut(ctx)
	}
	slog.ErrorContext(ctx, message, logging.ErrKey, err)
	return domain.NewTranscriptionError(fmt.Sprintf("%s: %v", message, err), err)
}

func countSpeakers(resp transcriptResponse) int {
	speakers := make(map[string]struct{})
	for _, u := range resp.Utterances {
		speakers[u.Speaker] = struct{}{}
	}
	return len(speakers)
}

// humanDuration renders whole minutes as "3 minutes" and anything else with
// time.Duration formatting.
func humanDuration(d time.Duration) string {
	if d%time.Minute == 0 {
		minutes := int(d / time.Minute)
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	return d.String()
}

func decode(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode AssemblyAI response: %w", err)
	}
	return nil
}
