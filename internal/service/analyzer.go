// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain/models"
)

// UnknownIntent is reported when the model does not name an intent.
const UnknownIntent = "unknown_intent"

const (
	intentTemperature  = 0.3
	intentMaxTokens    = 200
	entityTemperature  = 0.3
	entityMaxTokens    = 500
	summaryTemperature = 0.5
	summaryMaxTokens   = 500

	// fallbackSummaryLength caps the transcript excerpt used when the model omits a summary.
	fallbackSummaryLength = 100
)

const intentPrompt = `Analyze this voice message and classify the intent.

Transcription: %q

Provide:
1. Specific intent (e.g., "project_update", "scheduling_request", "pricing_inquiry")
2. Confidence score (0.0-1.0)
3. Brief summary (1-2 sentences)

Respond ONLY with JSON:
{
    "intent": "category_name",
    "confidence": 0.95,
    "summary": "description"
}`

const entityPrompt = `Analyze this transcription and extract key information.

Transcription: %q

Extract and categorize:
1. keywords: Most important 5-10 words/short phrases that capture the essence
2. entities: Named entities (people, places, organizations, products, etc.)
3. domain_terms: Specialized/technical terms specific to the domain (medical, legal, technical, etc.)
4. action_items: Any tasks, requests, or things that need to be done
5. topics: Main subjects or themes being discussed (2-4 topics)

Respond ONLY with valid JSON:
{
    "keywords": ["keyword1", "keyword2", "keyword3"],
    "entities": ["entity1", "entity2"],
    "domain_terms": ["term1", "term2"],
    "action_items": ["action1", "action2"],
    "topics": ["topic1", "topic2"]
}`

const summarySystemPrompt = `You are an AI assistant that creates comprehensive meeting summaries.
Generate a detailed summary of the meeting that includes:
1. Main topics discussed
2. Key decisions made
3. Action items and next steps
4. Important points mentioned
Keep the summary clear, structured, and professional.`

// Analyzer derives intent, entities and a narrative summary from a transcript
// through a language model. Every method fails with an analysis error.
type Analyzer struct {
	completer    domain.Completer
	summaryModel string
}

// NewAnalyzer creates a new Analyzer. An empty summaryModel uses the provider default.
func NewAnalyzer(completer domain.Completer, summaryModel string) *Analyzer {
	return &Analyzer{
		completer:    completer,
		summaryModel: summaryModel,
	}
}

// IsReady reports whether a completion provider is configured.
func (a *Analyzer) IsReady() bool {
	return a != nil && a.completer != nil && a.completer.IsReady()
}

func (a *Analyzer) complete(ctx context.Context, request domain.CompletionRequest) (string, error) {
	if !a.IsReady() {
		return "", domain.NewAnalysisError("completion provider not configured")
	}
	text, err := a.completer.Complete(ctx, request)
	if err != nil {
		if domain.IsErrorType(err, domain.ErrorTypeAnalysis) {
			return "", err
		}
		return "", domain.NewAnalysisError("completion request failed", err)
	}
	return text, nil
}

// ClassifyIntent returns the intent of the transcript with a confidence clamped to [0, 1].
func (a *Analyzer) ClassifyIntent(ctx context.Context, transcript string) (models.IntentClassification, error) {
	text, err := a.complete(ctx, domain.CompletionRequest{
		Messages: []domain.ChatMessage{
			{Role: domain.ChatRoleUser, Content: fmt.Sprintf(intentPrompt, transcript)},
		},
		Temperature: intentTemperature,
		MaxTokens:   intentMaxTokens,
	})
	if err != nil {
		return models.IntentClassification{}, err
	}

	var parsed struct {
		Intent     string   `json:"intent"`
		Confidence *float64 `json:"confidence"`
		Summary    string   `json:"summary"`
	}
	if err := parseStructuredResponse(text, &parsed); err != nil {
		return models.IntentClassification{}, err
	}

	result := models.IntentClassification{
		Intent:     strings.TrimSpace(parsed.Intent),
		Confidence: 0.5,
		Summary:    strings.TrimSpace(parsed.Summary),
	}
	if result.Intent == "" {
		result.Intent = UnknownIntent
	}
	if parsed.Confidence != nil {
		result.Confidence = clampConfidence(*parsed.Confidence)
	}
	if result.Summary == "" {
		result.Summary = truncateRunes(transcript, fallbackSummaryLength)
	}
	return result, nil
}

// ExtractEntities returns the keywords, entities, domain terms, action items and topics of the transcript.
func (a *Analyzer) ExtractEntities(ctx context.Context, transcript string) (models.EntityExtraction, error) {
	text, err := a.complete(ctx, domain.CompletionRequest{
		Messages: []domain.ChatMessage{
			{Role: domain.ChatRoleUser, Content: fmt.Sprintf(entityPrompt, transcript)},
		},
		Temperature: entityTemperature,
		MaxTokens:   entityMaxTokens,
	})
	if err != nil {
		return emptyExtraction(), err
	}

	var parsed models.EntityExtraction
	if err := parseStructuredResponse(text, &parsed); err != nil {
		return emptyExtraction(), err
	}

	return models.EntityExtraction{
		Keywords:    cleanList(parsed.Keywords),
		Entities:    cleanList(parsed.Entities),
		DomainTerms: cleanList(parsed.DomainTerms),
		ActionItems: cleanList(parsed.ActionItems),
		Topics:      cleanList(parsed.Topics),
	}, nil
}

// Summarize returns a narrative summary of the meeting transcript.
func (a *Analyzer) Summarize(ctx context.Context, transcript string) (string, error) {
	text, err := a.complete(ctx, domain.CompletionRequest{
		Model: a.summaryModel,
		Messages: []domain.ChatMessage{
			{Role: domain.ChatRoleSystem, Content: summarySystemPrompt},
			{Role: domain.ChatRoleUser, Content: "Generate a comprehensive summary of this meeting:\n\n" + transcript},
		},
		Temperature: summaryTemperature,
		MaxTokens:   summaryMaxTokens,
	})
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.NewAnalysisError("empty summary returned")
	}
	return text, nil
}

// parseStructuredResponse decodes a JSON object from model output, tolerating
// markdown code fences and prose around the object.
func parseStructuredResponse(text string, v any) error {
	body := stripCodeFence(text)
	if start, end := strings.Index(body, "{"), strings.LastIndex(body, "}"); start >= 0 && end > start {
		body = body[start : end+1]
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return domain.NewAnalysisError("malformed structured response", err)
	}
	return nil
}

// stripCodeFence returns the content of the first ```json or ``` fenced block, or the trimmed text.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	for _, marker := range []string{"```json", "```"} {
		idx := strings.Index(text, marker)
		if idx < 0 {
			continue
		}
		rest := text[idx+len(marker):]
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}
	return text
}

func clampConfidence(c float64) float64 {
	switch {
	case c != c: // NaN
		return 0
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func emptyExtraction() models.EntityExtraction {
	return models.EntityExtraction{
		Keywords:    []string{},
		Entities:    []string{},
		DomainTerms: []string{},
		ActionItems: []string{},
		Topics:      []string{},
	}
}
