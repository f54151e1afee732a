// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package email

import (
	"context"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/logging"
)

// NoOpService is a no-operation email service that logs but doesn't send emails
type NoOpService struct{}

// Ensure NoOpService implements domain.EmailService
var _ domain.EmailService = (*NoOpService)(nil)

// NewNoOpService creates a new no-op email service
func NewNoOpService() *NoOpService {
	return &NoOpService{}
}

// SendAppointmentReminder logs the reminder but doesn't send an email
func (s *NoOpService) SendAppointmentReminder(ctx context.Context, reminder domain.EmailAppointmentReminder) error {
	ctx = logging.AppendCtx(ctx, slog.String("recipient_email", reminder.RecipientEmail))
	ctx = logging.AppendCtx(ctx, slog.String("appointment_title", reminder.AppointmentTitle))

	slog.DebugContext(ctx, "email service disabled, skipping reminder email")
	return nil
}

// SendRecordingStarted logs the notice but doesn't send an email
func (s *NoOpService) SendRecordingStarted(ctx context.Context, started domain.EmailRecordingStarted) error {
	ctx = logging.AppendCtx(ctx, slog.String("recipient_email", started.RecipientEmail))
	ctx = logging.AppendCtx(ctx, slog.String("appointment_title", started.AppointmentTitle))

	slog.DebugContext(ctx, "email service disabled, skipping recording started email")
	return nil
}

// SendRecordingSummary logs the summary but doesn't send an email
func (s *NoOpService) SendRecordingSummary(ctx context.Context, summary domain.EmailRecordingSummary) error {
	ctx = logging.AppendCtx(ctx, slog.String("recipient_email", summary.RecipientEmail))
	ctx = logging.AppendCtx(ctx, slog.String("appointment_title", summary.AppointmentTitle))

	slog.DebugContext(ctx, "email service disabled, skipping recording summary email")
	return nil
}
