// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/logging"
)

type Service interface {
	ServiceReady() bool
}

// ServiceConfig is the configuration for the Services.
type ServiceConfig struct {
	// AppBaseURL is the default base URL of the web app used to build conversation links.
	AppBaseURL string
	// DefaultTimezone is used to render times in emails.
	DefaultTimezone string
	// SummaryModel overrides the completion model used for the narrative summary.
	SummaryModel string
}

// maxModifyAttempts bounds the optimistic concurrency retries of a single record update.
const maxModifyAttempts = 3

// errNoChange is returned by a mutate function to leave the stored record untouched.
var errNoChange = errors.New("no change")

// modifyAppointment loads the appointment, applies mutate and writes it back
// guarded by the revision that was read. Conflicting writes are retried.
// It returns the stored appointment and whether it was changed.
func modifyAppointment(
	ctx context.Context,
	repo domain.AppointmentRepository,
	appointmentUID string,
	now time.Time,
	mutate func(*models.Appointment) error,
) (*models.Appointment, bool, error) {
	var lastErr error
	for attempt := 0; attempt < maxModifyAttempts; attempt++ {
		appointment, revision, err := repo.GetAppointmentWithRevision(ctx, appointmentUID)
		if err != nil {
			return nil, false, err
		}

		if err := mutate(appointment); err != nil {
			if errors.Is(err, errNoChange) {
				return appointment, false, nil
			}
			return appointment, false, err
		}
		appointment.UpdatedAt = now

		err = repo.UpdateAppointment(ctx, appointment, revision)
		if err == nil {
			return appointment, true, nil
		}
		if !domain.IsErrorType(err, domain.ErrorTypeConflict) {
			return nil, false, err
		}
		lastErr = err
		slog.DebugContext(ctx, "appointment revision conflict, retrying",
			"appointment_uid", appointmentUID,
			"attempt", attempt+1,
		)
	}
	return nil, false, lastErr
}

// modifyRecording is the recording counterpart of modifyAppointment.
func modifyRecording(
	ctx context.Context,
	repo domain.RecordingRepository,
	recordingUID string,
	now time.Time,
	mutate func(*models.Recording) error,
) (*models.Recording, bool, error) {
	var lastErr error
	for attempt := 0; attempt < maxModifyAttempts; attempt++ {
		recording, revision, err := repo.GetRecordingWithRevision(ctx, recordingUID)
		if err != nil {
			return nil, false, err
		}

		if err := mutate(recording); err != nil {
			if errors.Is(err, errNoChange) {
				return recording, false, nil
			}
			return recording, false, err
		}
		recording.UpdatedAt = now

		err = repo.UpdateRecording(ctx, recording, revision)
		if err == nil {
			return recording, true, nil
		}
		if !domain.IsErrorType(err, domain.ErrorTypeConflict) {
			return nil, false, err
		}
		lastErr = err
		slog.DebugContext(ctx, "recording revision conflict, retrying",
			"recording_uid", recordingUID,
			"attempt", attempt+1,
		)
	}
	return nil, false, lastErr
}

// publishEvent publishes a lifecycle event. Publishing is best effort.
func publishEvent(ctx context.Context, publisher domain.EventPublisher, subject string, event models.LifecycleEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.PublishLifecycleEvent(ctx, subject, event); err != nil {
		slog.WarnContext(ctx, "failed to publish lifecycle event", logging.ErrKey, err, "subject", subject)
	}
}

func appointmentEvent(a *models.Appointment) models.LifecycleEvent {
	return models.LifecycleEvent{
		AppointmentUID:    a.UID,
		OwnerEmail:        a.OwnerEmail,
		AppointmentStatus: a.Status,
	}
}
