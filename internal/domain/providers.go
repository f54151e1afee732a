// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import "context"

// AudioArtifact is an audio file handed to the transcription provider.
type AudioArtifact struct {
	Name   string
	Format string
	Data   []byte
}

// Transcriber turns audio into plain text. Implementations block until the
// provider finishes or their configured timeout elapses, and report failures
// as transcription errors.
type Transcriber interface {
	Transcribe(ctx context.Context, audio AudioArtifact) (string, error)
	IsReady() bool
}

// ChatRole is the author of a completion message.
type ChatRole string

// Chat roles understood by OpenAI compatible completion APIs.
const (
	ChatRoleSystem    ChatRole = "system"
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one message of a completion prompt.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// CompletionRequest describes one completion call. An empty Model selects
// the provider default.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
}

// Completer returns the text of a language model completion.
type Completer interface {
	Complete(ctx context.Context, request CompletionRequest) (string, error)
	IsReady() bool
}
