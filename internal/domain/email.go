// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"
	"time"
)

// EmailService defines the interface for sending the transactional emails of
// the appointment lifecycle. Sends are synchronous and best effort: callers
// log failures and never roll back state because of them.
type EmailService interface {
	SendAppointmentReminder(ctx context.Context, reminder EmailAppointmentReminder) error
	SendRecordingStarted(ctx context.Context, started EmailRecordingStarted) error
	SendRecordingSummary(ctx context.Context, summary EmailRecordingSummary) error
}

// EmailAppointmentReminder contains the data needed to send a reminder email
type EmailAppointmentReminder struct {
	AppointmentUID   string
	RecipientEmail   string
	AppointmentTitle string
	Description      string
	Location         string
	StartTime        time.Time
	Duration         int // Duration in minutes
	MinutesUntil     int
	Timezone         string
	ConversationURL  string // Optional link to the appointment conversation
	AutoRecord       bool
	Recurrence       string // RRULE body attached to the calendar invite when set
	Links            []EmailLink
}

// EmailLink is a link found in the appointment text, shown by its host.
type EmailLink struct {
	URL  string
	Host string
}

// EmailRecordingStarted contains the data needed to send a recording started email
type EmailRecordingStarted struct {
	RecipientEmail   string
	AppointmentTitle string
	StartTime        time.Time
	EndTime          time.Time
	Timezone         string
	ConversationURL  string
}

// EmailRecordingSummary contains the data needed to send a completion summary email
type EmailRecordingSummary struct {
	RecipientEmail   string
	AppointmentTitle string
	StartTime        time.Time
	Duration         int // Duration in minutes
	Timezone         string
	Summary          string
	Intent           string
	Keywords         []string
	ActionItems      []string
	Topics           []string
	ConversationURL  string
}
