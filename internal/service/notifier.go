// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/logging"
	textutils "github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/utils"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/pkg/utils"
)

// Notifier turns appointment and recording state into transactional emails.
// Every send is best effort: failures are logged and returned but callers
// never roll back state because of them.
type Notifier struct {
	emailService domain.EmailService
	config       ServiceConfig
}

// NewNotifier creates a new Notifier.
func NewNotifier(emailService domain.EmailService, config ServiceConfig) *Notifier {
	return &Notifier{
		emailService: emailService,
		config:       config,
	}
}

// ConversationURL builds the chat link of the appointment conversation, or
// an empty string when no base URL or conversation is known.
func (n *Notifier) ConversationURL(a *models.Appointment) string {
	base := strings.TrimRight(utils.Coalesce(a.BaseURL, n.config.AppBaseURL), "/")
	if base == "" || a.ConversationUID == "" {
		return ""
	}
	return base + "/chat/?conversation=" + url.QueryEscape(a.ConversationUID) +
		"&appointment_id=" + url.QueryEscape(a.UID)
}

func (n *Notifier) timezone() string {
	return utils.Coalesce(n.config.DefaultTimezone, "UTC")
}

// SendReminder emails the owner that the appointment starts soon.
func (n *Notifier) SendReminder(ctx context.Context, a *models.Appointment, now time.Time) error {
	if n.emailService == nil {
		return nil
	}

	minutesUntil := int(a.StartTime.Sub(now) / time.Minute)
	if minutesUntil < 0 {
		minutesUntil = 0
	}

	err := n.emailService.SendAppointmentReminder(ctx, domain.EmailAppointmentReminder{
		AppointmentUID:   a.UID,
		RecipientEmail:   a.OwnerEmail,
		AppointmentTitle: a.Title,
		Description:      a.Description,
		Location:         a.Location,
		StartTime:        a.StartTime,
		Duration:         a.DurationMinutes,
		MinutesUntil:     minutesUntil,
		Timezone:         n.timezone(),
		ConversationURL:  n.ConversationURL(a),
		AutoRecord:       a.AutoRecord,
		Recurrence:       a.Recurrence,
		Links:            reminderLinks(a),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to send reminder email", logging.ErrKey, err, "appointment_uid", a.UID)
		return err
	}
	slog.InfoContext(ctx, "sent reminder email", "appointment_uid", a.UID, "minutes_until", minutesUntil)
	return nil
}

// reminderLinks collects join and document links from the appointment text.
func reminderLinks(a *models.Appointment) []domain.EmailLink {
	found := textutils.ExtractLinks(a.Location, a.Description, a.Notes)
	if len(found) == 0 {
		return nil
	}
	links := make([]domain.EmailLink, 0, len(found))
	for _, link := range found {
		links = append(links, domain.EmailLink{URL: link.URL, Host: link.Host})
	}
	return links
}

// SendRecordingStarted emails the owner the conversation link when recording starts.
func (n *Notifier) SendRecordingStarted(ctx context.Context, a *models.Appointment) error {
	if n.emailService == nil {
		return nil
	}

	err := n.emailService.SendRecordingStarted(ctx, domain.EmailRecordingStarted{
		RecipientEmail:   a.OwnerEmail,
		AppointmentTitle: a.Title,
		StartTime:        a.StartTime,
		EndTime:          a.EndTime,
		Timezone:         n.timezone(),
		ConversationURL:  n.ConversationURL(a),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to send recording started email", logging.ErrKey, err, "appointment_uid", a.UID)
		return err
	}
	slog.InfoContext(ctx, "sent recording started email", "appointment_uid", a.UID)
	return nil
}

// SendRecordingSummary emails the owner the analysis of a completed recording.
func (n *Notifier) SendRecordingSummary(ctx context.Context, a *models.Appointment, r *models.Recording) error {
	if n.emailService == nil {
		return nil
	}

	err := n.emailService.SendRecordingSummary(ctx, domain.EmailRecordingSummary{
		RecipientEmail:   a.OwnerEmail,
		AppointmentTitle: a.Title,
		StartTime:        a.StartTime,
		Duration:         a.DurationMinutes,
		Timezone:         n.timezone(),
		Summary:          r.Summary,
		Intent:           r.Intent,
		Keywords:         r.Keywords,
		ActionItems:      r.ActionItems,
		Topics:           r.Topics,
		ConversationURL:  n.ConversationURL(a),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to send recording summary email", logging.ErrKey, err,
			"appointment_uid", a.UID,
			"recording_uid", r.UID,
		)
		return err
	}
	slog.InfoContext(ctx, "sent recording summary email", "appointment_uid", a.UID, "recording_uid", r.UID)
	return nil
}
