// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/logging"
)

// SMTPService implements the EmailService interface using SMTP
type SMTPService struct {
	config    SMTPConfig
	templates Templates
	now       func() time.Time
}

// SMTPConfig holds the SMTP server configuration
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	FromName string // Optional display name for the From header
	Username string // Optional for authenticated SMTP
	Password string // Optional for authenticated SMTP
}

func (c SMTPConfig) fromHeader() string {
	if c.FromName == "" {
		return c.From
	}
	return fmt.Sprintf("%s <%s>", c.FromName, c.From)
}

// Ensure SMTPService implements domain.EmailService
var _ domain.EmailService = (*SMTPService)(nil)

// NewSMTPService creates a new SMTP email service
func NewSMTPService(config SMTPConfig) (*SMTPService, error) {
	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	return &SMTPService{
		config:    config,
		templates: templates,
		now:       time.Now,
	}, nil
}

// ReminderSubject is the subject line of an appointment reminder.
func ReminderSubject(title string, minutesUntil int) string {
	return fmt.Sprintf("Reminder: %s starting in %d minutes", title, minutesUntil)
}

// RecordingStartedSubject is the subject line of the recording started email.
func RecordingStartedSubject(title string) string {
	return fmt.Sprintf("Recording Started: %s", title)
}

// RecordingSummarySubject is the subject line of the completion email.
func RecordingSummarySubject(title string) string {
	return fmt.Sprintf("Recording Complete: %s", title)
}

// SendAppointmentReminder sends a reminder with a calendar attachment to the appointment owner
func (s *SMTPService) SendAppointmentReminder(ctx context.Context, reminder domain.EmailAppointmentReminder) error {
	ctx = logging.AppendCtx(ctx, slog.String("recipient_email", reminder.RecipientEmail))
	ctx = logging.AppendCtx(ctx, slog.String("appointment_title", reminder.AppointmentTitle))

	rendered, err := s.templates.Reminder.render(reminder)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render reminder email", logging.ErrKey, err)
		return domain.NewNotificationError("failed to render reminder email", err)
	}

	invite := attachment{
		Filename:    "appointment.ics",
		ContentType: "text/calendar; charset=\"UTF-8\"; method=PUBLISH",
		Content:     []byte(generateReminderICS(reminder, s.now())),
	}

	subject := ReminderSubject(reminder.AppointmentTitle, reminder.MinutesUntil)
	return s.send(ctx, reminder.RecipientEmail, subject, rendered, "reminder", invite)
}

// SendRecordingStarted sends the conversation link once recording has started
func (s *SMTPService) SendRecordingStarted(ctx context.Context, started domain.EmailRecordingStarted) error {
	ctx = logging.AppendCtx(ctx, slog.String("recipient_email", started.RecipientEmail))
	ctx = logging.AppendCtx(ctx, slog.String("appointment_title", started.AppointmentTitle))

	rendered, err := s.templates.RecordingStarted.render(started)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render recording started email", logging.ErrKey, err)
		return domain.NewNotificationError("failed to render recording started email", err)
	}

	return s.send(ctx, started.RecipientEmail, RecordingStartedSubject(started.AppointmentTitle), rendered, "recording started")
}

// SendRecordingSummary sends the analysis of a completed recording
func (s *SMTPService) SendRecordingSummary(ctx context.Context, summary domain.EmailRecordingSummary) error {
	ctx = logging.AppendCtx(ctx, slog.String("recipient_email", summary.RecipientEmail))
	ctx = logging.AppendCtx(ctx, slog.String("appointment_title", summary.AppointmentTitle))

	rendered, err := s.templates.RecordingSummary.render(summary)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render recording summary email", logging.ErrKey, err)
		return domain.NewNotificationError("failed to render recording summary email", err)
	}

	return s.send(ctx, summary.RecipientEmail, RecordingSummarySubject(summary.AppointmentTitle), rendered, "recording summary")
}

func (s *SMTPService) send(ctx context.Context, recipient, subject string, rendered *RenderedEmail, kind string, attachments ...attachment) error {
	message := buildEmailMessage(recipient, subject, rendered.HTML, rendered.Text, s.config, attachments...)
	if err := sendEmailMessage(recipient, message, s.config); err != nil {
		slog.ErrorContext(ctx, "failed to send "+kind+" email", logging.ErrKey, err)
		return domain.NewNotificationError(fmt.Sprintf("failed to send %s email", kind), err)
	}

	slog.InfoContext(ctx, kind+" email sent successfully")
	return nil
}
