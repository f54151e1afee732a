// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"strings"
	"time"
)

// RecordingStatus is the lifecycle state of a recording.
type RecordingStatus string

// Recording statuses. The happy path is
// pending -> recording -> processing -> completed, and failed is reachable
// from any in-flight state.
const (
	RecordingStatusPending    RecordingStatus = "pending"
	RecordingStatusRecording  RecordingStatus = "recording"
	RecordingStatusProcessing RecordingStatus = "processing"
	RecordingStatusCompleted  RecordingStatus = "completed"
	RecordingStatusFailed     RecordingStatus = "failed"
)

// recordingTransitions lists the statuses each status may move to.
var recordingTransitions = map[RecordingStatus][]RecordingStatus{
	RecordingStatusPending:    {RecordingStatusRecording, RecordingStatusProcessing, RecordingStatusFailed},
	RecordingStatusRecording:  {RecordingStatusProcessing, RecordingStatusFailed},
	RecordingStatusProcessing: {RecordingStatusCompleted, RecordingStatusFailed},
}

// SupportedAudioFormats are the audio container formats accepted for upload.
var SupportedAudioFormats = []string{"wav", "mp3", "ogg", "webm", "m4a", "flac"}

// audioContentTypes maps each supported format to its MIME type.
var audioContentTypes = map[string]string{
	"wav":  "audio/wav",
	"mp3":  "audio/mpeg",
	"ogg":  "audio/ogg",
	"webm": "audio/webm",
	"m4a":  "audio/mp4",
	"flac": "audio/flac",
}

// MaxAudioUploadBytes caps the size of an uploaded audio artifact.
const MaxAudioUploadBytes = 10 * 1024 * 1024

// Recording is the audio capture of one appointment and everything derived from it.
type Recording struct {
	UID            string `json:"uid"`
	AppointmentUID string `json:"appointment_uid"`
	OwnerEmail     string `json:"owner_email"`

	AudioPath  string `json:"audio_path,omitempty"` // object name in the audio store
	FileSize   int64  `json:"file_size"`
	FileFormat string `json:"file_format,omitempty"`

	TranscribedText  string   `json:"transcribed_text,omitempty"`
	Summary          string   `json:"summary,omitempty"`
	Intent           string   `json:"intent,omitempty"`
	IntentConfidence *float64 `json:"intent_confidence,omitempty"`
	IntentSummary    string   `json:"intent_summary,omitempty"`
	Keywords         []string `json:"keywords"`
	Entities         []string `json:"entities"`
	DomainTerms      []string `json:"domain_terms"`
	ActionItems      []string `json:"action_items"`
	Topics           []string `json:"topics"`

	Status             RecordingStatus `json:"recording_status"`
	RecordingStartedAt *time.Time      `json:"recording_started_at,omitempty"`
	RecordingEndedAt   *time.Time      `json:"recording_ended_at,omitempty"`
	DurationSeconds    int             `json:"duration_seconds"`
	ProcessedAt        *time.Time      `json:"processed_at,omitempty"`
	ErrorMessage       string          `json:"error_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive reports whether audio is currently being captured.
func (r *Recording) IsActive() bool {
	return r.Status == RecordingStatusRecording
}

// IsTerminal reports whether the recording reached completed or failed.
func (r *Recording) IsTerminal() bool {
	return r.Status == RecordingStatusCompleted || r.Status == RecordingStatusFailed
}

// CanTransitionTo reports whether the recording may move to next.
func (r *Recording) CanTransitionTo(next RecordingStatus) bool {
	for _, allowed := range recordingTransitions[r.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Stop records the end of capture and computes the duration in whole seconds.
func (r *Recording) Stop(endedAt time.Time) {
	r.RecordingEndedAt = &endedAt
	if r.RecordingStartedAt != nil {
		r.DurationSeconds = int(endedAt.Sub(*r.RecordingStartedAt) / time.Second)
	}
}

// ResetAnalysis clears every field derived from the transcript.
func (r *Recording) ResetAnalysis() {
	r.Summary = ""
	r.Intent = ""
	r.IntentConfidence = nil
	r.IntentSummary = ""
	r.Keywords = []string{}
	r.Entities = []string{}
	r.DomainTerms = []string{}
	r.ActionItems = []string{}
	r.Topics = []string{}
}

// ApplyEntities copies an extraction result onto the recording.
func (r *Recording) ApplyEntities(e EntityExtraction) {
	r.Keywords = nonNil(e.Keywords)
	r.Entities = nonNil(e.Entities)
	r.DomainTerms = nonNil(e.DomainTerms)
	r.ActionItems = nonNil(e.ActionItems)
	r.Topics = nonNil(e.Topics)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// IsSupportedAudioFormat reports whether format is an accepted container.
func IsSupportedAudioFormat(format string) bool {
	format = strings.ToLower(format)
	for _, f := range SupportedAudioFormats {
		if f == format {
			return true
		}
	}
	return false
}

// IntentClassification is the result of classifying a transcript.
type IntentClassification struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Summary    string  `json:"summary"`
}

// EntityExtraction is the structured information extracted from a transcript.
type EntityExtraction struct {
	Keywords    []string `json:"keywords"`
	Entities    []string `json:"entities"`
	DomainTerms []string `json:"domain_terms"`
	ActionItems []string `json:"action_items"`
	Topics      []string `json:"topics"`
}

// RecordingSummary is the read-only projection of a completed recording.
type RecordingSummary struct {
	AppointmentUID  string    `json:"appointment_uid"`
	RecordingUID    string    `json:"recording_uid"`
	Title           string    `json:"title"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Summary         string    `json:"summary"`
	Intent          string    `json:"intent"`
	Keywords        []string  `json:"keywords"`
	ActionItems     []string  `json:"action_items"`
	Topics          []string  `json:"topics"`
}

// AudioContentType returns the MIME type of a supported format, or
// application/octet-stream.
func AudioContentType(format string) string {
	if ct, ok := audioContentTypes[strings.ToLower(format)]; ok {
		return ct
	}
	return "application/octet-stream"
}
