// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/pkg/utils"
)

// DefaultUpcomingHours is the look ahead of GetUpcomingAppointments when none is given.
const DefaultUpcomingHours = 24

// CreateAppointmentInput is the payload of a new appointment. Nil pointers take
// the defaults: auto record on, a five minute reminder and the default color.
type CreateAppointmentInput struct {
	OwnerEmail            string
	Title                 string
	Description           string
	StartTime             time.Time
	EndTime               time.Time
	AutoRecord            *bool
	ReminderMinutesBefore *int
	Color                 string
	Location              string
	Attendees             []string
	Notes                 string
	BaseURL               string
	Recurrence            string
}

// UpdateAppointmentInput holds the fields to change. Nil fields are left untouched.
type UpdateAppointmentInput struct {
	Title                 *string
	Description           *string
	StartTime             *time.Time
	EndTime               *time.Time
	AutoRecord            *bool
	ReminderMinutesBefore *int
	Color                 *string
	Location              *string
	Attendees             []string
	Notes                 *string
	BaseURL               *string
	Recurrence            *string
}

// AppointmentService implements the business logic for appointments.
type AppointmentService struct {
	appointmentRepository domain.AppointmentRepository
	recordingRepository   domain.RecordingRepository
	audioStorage          domain.AudioStorage
	eventPublisher        domain.EventPublisher
	config                ServiceConfig
	now                   func() time.Time
}

// NewAppointmentService creates a new AppointmentService.
func NewAppointmentService(
	appointmentRepository domain.AppointmentRepository,
	recordingRepository domain.RecordingRepository,
	audioStorage domain.AudioStorage,
	eventPublisher domain.EventPublisher,
	config ServiceConfig,
) *AppointmentService {
	return &AppointmentService{
		appointmentRepository: appointmentRepository,
		recordingRepository:   recordingRepository,
		audioStorage:          audioStorage,
		eventPublisher:        eventPublisher,
		config:                config,
		now:                   time.Now,
	}
}

// ServiceReady checks if the service is ready to serve requests.
func (s *AppointmentService) ServiceReady() bool {
	return s.appointmentRepository != nil &&
		s.recordingRepository != nil &&
		s.audioStorage != nil
}

func (s *AppointmentService) clock() time.Time {
	return s.now().UTC()
}

func validateEmail(field, email string) error {
	if strings.TrimSpace(email) == "" {
		return domain.NewValidationError(field + " is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.NewValidationError(field+" is not a valid email address", err)
	}
	return nil
}

func validateAppointment(a *models.Appointment) error {
	if err := validateEmail("owner_email", a.OwnerEmail); err != nil {
		return err
	}
	if strings.TrimSpace(a.Title) == "" {
		return domain.NewValidationError("title is required")
	}
	if a.StartTime.IsZero() || a.EndTime.IsZero() {
		return domain.NewValidationError("start_time and end_time are required")
	}
	if !a.HasValidTimeRange() {
		return domain.NewValidationError("end_time must be after start_time")
	}
	if a.ReminderMinutesBefore < 0 {
		return domain.NewValidationError("reminder_minutes_before cannot be negative")
	}
	for _, attendee := range a.Attendees {
		if err := validateEmail("attendees", attendee); err != nil {
			return err
		}
	}
	if a.IsRecurring() {
		if _, err := parseRecurrence(a.Recurrence, a.StartTime); err != nil {
			return err
		}
	}
	return nil
}

// CreateAppointment validates the input, applies defaults and stores a new scheduled appointment.
func (s *AppointmentService) CreateAppointment(ctx context.Context, input CreateAppointmentInput) (*models.Appointment, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}

	now := s.clock()
	appointment := &models.Appointment{
		UID:                   uuid.New().String(),
		OwnerEmail:            strings.TrimSpace(input.OwnerEmail),
		Title:                 strings.TrimSpace(input.Title),
		Description:           input.Description,
		StartTime:             input.StartTime.UTC(),
		EndTime:               input.EndTime.UTC(),
		AutoRecord:            utils.ValueOr(input.AutoRecord, true),
		ReminderMinutesBefore: utils.ValueOr(input.ReminderMinutesBefore, models.DefaultReminderMinutesBefore),
		Status:                models.AppointmentStatusScheduled,
		Color:                 utils.Coalesce(strings.TrimSpace(input.Color), models.DefaultAppointmentColor),
		Location:              input.Location,
		Attendees:             input.Attendees,
		Notes:                 input.Notes,
		BaseURL:               strings.TrimSpace(input.BaseURL),
		Recurrence:            normalizeRecurrence(input.Recurrence),
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if appointment.Attendees == nil {
		appointment.Attendees = []string{}
	}
	appointment.ComputeDuration()

	if err := validateAppointment(appointment); err != nil {
		slog.WarnContext(ctx, "invalid appointment payload", logging.ErrKey, err)
		return nil, err
	}

	if appointment.IsRecurring() {
		seriesStart := appointment.StartTime
		appointment.SeriesUID = appointment.UID
		appointment.SeriesStartTime = &seriesStart
	}

	if err := s.appointmentRepository.CreateAppointment(ctx, appointment); err != nil {
		slog.ErrorContext(ctx, "error creating appointment", logging.ErrKey, err, "appointment_uid", appointment.UID)
		return nil, err
	}

	slog.InfoContext(ctx, "created appointment",
		"appointment_uid", appointment.UID,
		"owner_email", appointment.OwnerEmail,
		"start_time", appointment.StartTime,
		"duration_minutes", appointment.DurationMinutes,
	)

	return appointment, nil
}

// GetAppointment returns a single appointment.
func (s *AppointmentService) GetAppointment(ctx context.Context, appointmentUID string) (*models.Appointment, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}
	if appointmentUID == "" {
		return nil, domain.NewValidationError("appointment UID is required")
	}

	return s.appointmentRepository.GetAppointment(ctx, appointmentUID)
}

// UpdateAppointment applies the given field changes and recomputes the duration.
func (s *AppointmentService) UpdateAppointment(ctx context.Context, appointmentUID string, input UpdateAppointmentInput) (*models.Appointment, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}
	if appointmentUID == "" {
		return nil, domain.NewValidationError("appointment UID is required")
	}

	ctx = logging.AppendCtx(ctx, slog.String("appointment_uid", appointmentUID))

	appointment, _, err := modifyAppointment(ctx, s.appointmentRepository, appointmentUID, s.clock(), func(a *models.Appointment) error {
		applyAppointmentUpdate(a, input)
		a.ComputeDuration()
		return validateAppointment(a)
	})
	if err != nil {
		slog.WarnContext(ctx, "error updating appointment", logging.ErrKey, err)
		return nil, err
	}

	slog.InfoContext(ctx, "updated appointment", "duration_minutes", appointment.DurationMinutes)
	return appointment, nil
}

func applyAppointmentUpdate(a *models.Appointment, input UpdateAppointmentInput) {
	if input.Title != nil {
		a.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		a.Description = *input.Description
	}
	if input.StartTime != nil {
		a.StartTime = input.StartTime.UTC()
	}
	if input.EndTime != nil {
		a.EndTime = input.EndTime.UTC()
	}
	if input.AutoRecord != nil {
		a.AutoRecord = *input.AutoRecord
	}
	if input.ReminderMinutesBefore != nil {
		a.ReminderMinutesBefore = *input.ReminderMinutesBefore
	}
	if input.Color != nil {
		a.Color = *input.Color
	}
	if input.Location != nil {
		a.Location = *input.Location
	}
	if input.Attendees != nil {
		a.Attendees = input.Attendees
	}
	if input.Notes != nil {
		a.Notes = *input.Notes
	}
	if input.BaseURL != nil {
		a.BaseURL = strings.TrimSpace(*input.BaseURL)
	}
	if input.Recurrence != nil {
		a.Recurrence = normalizeRecurrence(*input.Recurrence)
		if a.IsRecurring() && a.SeriesUID == "" {
			seriesStart := a.StartTime
			a.SeriesUID = a.UID
			a.SeriesStartTime = &seriesStart
		}
	}
}

// CancelAppointment moves a scheduled or reminded appointment to cancelled.
// Cancelling twice is a no-op; cancelling a recording or completed appointment
// is a conflict. The next occurrence of a recurring series is scheduled.
func (s *AppointmentService) CancelAppointment(ctx context.Context, appointmentUID string) (*models.Appointment, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}
	if appointmentUID == "" {
		return nil, domain.NewValidationError("appointment UID is required")
	}

	ctx = logging.AppendCtx(ctx, slog.String("appointment_uid", appointmentUID))

	appointment, changed, err := modifyAppointment(ctx, s.appointmentRepository, appointmentUID, s.clock(), func(a *models.Appointment) error {
		if a.Status == models.AppointmentStatusCancelled {
			return errNoChange
		}
		if !a.CanCancel() {
			return domain.NewConflictError("appointment in status " + string(a.Status) + " cannot be cancelled")
		}
		a.Status = models.AppointmentStatusCancelled
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "error cancelling appointment", logging.ErrKey, err)
		return nil, err
	}
	if !changed {
		return appointment, nil
	}

	slog.InfoContext(ctx, "cancelled appointment")
	publishEvent(ctx, s.eventPublisher, models.AppointmentCancelledSubject, appointmentEvent(appointment))

	if _, err := s.ScheduleNextOccurrence(ctx, appointment.UID); err != nil {
		slog.ErrorContext(ctx, "failed to schedule next occurrence", logging.ErrKey, err)
	}

	return appointment, nil
}

// DeleteAppointment removes the appointment together with its recordings and their audio.
// The linked conversation is not owned by the appointment and is kept.
func (s *AppointmentService) DeleteAppointment(ctx context.Context, appointmentUID string) error {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return domain.NewUnavailableError("service not initialized")
	}
	if appointmentUID == "" {
		return domain.NewValidationError("appointment UID is required")
	}

	ctx = logging.AppendCtx(ctx, slog.String("appointment_uid", appointmentUID))

	_, revision, err := s.appointmentRepository.GetAppointmentWithRevision(ctx, appointmentUID)
	if err != nil {
		return err
	}

	recordings, err := s.recordingRepository.ListRecordingsByAppointment(ctx, appointmentUID)
	if err != nil {
		slog.ErrorContext(ctx, "error listing recordings of appointment", logging.ErrKey, err)
		return err
	}
	for _, recording := range recordings {
		if err := deleteRecordingWithAudio(ctx, s.recordingRepository, s.audioStorage, recording); err != nil {
			return err
		}
	}

	if err := s.appointmentRepository.DeleteAppointment(ctx, appointmentUID, revision); err != nil {
		slog.ErrorContext(ctx, "error deleting appointment", logging.ErrKey, err)
		return err
	}

	slog.InfoContext(ctx, "deleted appointment", "deleted_recordings", len(recordings))
	return nil
}

// ListAppointments returns the owner's appointments ordered by start time.
func (s *AppointmentService) ListAppointments(ctx context.Context, filter models.AppointmentFilter) ([]*models.Appointment, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}
	if err := validateEmail("owner_email", filter.OwnerEmail); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.NewValidationError("unknown appointment status " + string(filter.Status))
	}
	if filter.StartFrom != nil && filter.StartTo != nil && filter.StartTo.Before(*filter.StartFrom) {
		return nil, domain.NewValidationError("start range end is before its beginning")
	}

	return s.appointmentRepository.ListAppointments(ctx, filter)
}

// GetUpcomingAppointments returns the owner's scheduled appointments starting within the next hours.
func (s *AppointmentService) GetUpcomingAppointments(ctx context.Context, ownerEmail string, hours int) ([]*models.Appointment, error) {
	if hours <= 0 {
		hours = DefaultUpcomingHours
	}
	now := s.clock()
	until := now.Add(time.Duration(hours) * time.Hour)

	return s.ListAppointments(ctx, models.AppointmentFilter{
		OwnerEmail: ownerEmail,
		StartFrom:  &now,
		StartTo:    &until,
		Status:     models.AppointmentStatusScheduled,
	})
}

// dueAppointments returns every appointment satisfying the predicate at now.
func (s *AppointmentService) dueAppointments(ctx context.Context, now time.Time, due func(*models.Appointment, time.Time) bool) ([]*models.Appointment, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}

	appointments, err := s.appointmentRepository.ListAllAppointments(ctx)
	if err != nil {
		return nil, err
	}

	var result []*models.Appointment
	for _, a := range appointments {
		if due(a, now) {
			result = append(result, a)
		}
	}
	models.SortAppointmentsByStart(result)
	return result, nil
}

// DueForReminder returns the auto recorded, not yet reminded, scheduled
// appointments whose reminder window contains now.
func (s *AppointmentService) DueForReminder(ctx context.Context, now time.Time) ([]*models.Appointment, error) {
	return s.dueAppointments(ctx, now, (*models.Appointment).IsDueForReminder)
}

// DueToStartRecording returns the auto recorded appointments whose time range contains now.
func (s *AppointmentService) DueToStartRecording(ctx context.Context, now time.Time) ([]*models.Appointment, error) {
	return s.dueAppointments(ctx, now, (*models.Appointment).IsDueToStartRecording)
}

// DueToStopRecording returns the recording appointments whose end time has passed.
func (s *AppointmentService) DueToStopRecording(ctx context.Context, now time.Time) ([]*models.Appointment, error) {
	return s.dueAppointments(ctx, now, (*models.Appointment).IsDueToStopRecording)
}

// MarkReminderSent commits the reminder transition. It reports false when the
// appointment was already reminded or is no longer scheduled.
func (s *AppointmentService) MarkReminderSent(ctx context.Context, appointmentUID string, at time.Time) (*models.Appointment, bool, error) {
	appointment, changed, err := modifyAppointment(ctx, s.appointmentRepository, appointmentUID, s.clock(), func(a *models.Appointment) error {
		if a.ReminderSent || a.Status != models.AppointmentStatusScheduled {
			return errNoChange
		}
		sentAt := at.UTC()
		a.ReminderSent = true
		a.ReminderSentAt = &sentAt
		a.Status = models.AppointmentStatusReminderSent
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if changed {
		publishEvent(ctx, s.eventPublisher, models.AppointmentReminderSentSubject, appointmentEvent(appointment))
	}
	return appointment, changed, nil
}

// MarkConversationLinkSent records that the conversation link email went out.
func (s *AppointmentService) MarkConversationLinkSent(ctx context.Context, appointmentUID string) error {
	_, _, err := modifyAppointment(ctx, s.appointmentRepository, appointmentUID, s.clock(), func(a *models.Appointment) error {
		if a.ConversationLinkSent {
			return errNoChange
		}
		a.ConversationLinkSent = true
		return nil
	})
	return err
}

// releaseNextOccurrence clears the next occurrence guard when the occurrence
// it names was never stored, so a later call schedules it again.
func (s *AppointmentService) releaseNextOccurrence(ctx context.Context, appointmentUID, nextUID string) {
	if _, err := s.appointmentRepository.GetAppointment(ctx, nextUID); !domain.IsErrorType(err, domain.ErrorTypeNotFound) {
		return
	}
	_, _, err := modifyAppointment(ctx, s.appointmentRepository, appointmentUID, s.clock(), func(a *models.Appointment) error {
		if a.NextOccurrenceUID != nextUID {
			return errNoChange
		}
		a.NextOccurrenceUID = ""
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to release next occurrence guard", logging.ErrKey, err,
			"appointment_uid", appointmentUID,
			"next_occurrence_uid", nextUID,
			logging.PriorityCritical(),
		)
	}
}

// ScheduleNextOccurrence creates the next appointment of a recurring series
// once. It returns nil when the appointment is not recurring, the series is
// exhausted, or the next occurrence already exists.
func (s *AppointmentService) ScheduleNextOccurrence(ctx context.Context, appointmentUID string) (*models.Appointment, error) {
	now := s.clock()
	nextUID := uuid.New().String()
	var next *models.Appointment

	_, changed, err := modifyAppointment(ctx, s.appointmentRepository, appointmentUID, now, func(a *models.Appointment) error {
		if !a.IsRecurring() || a.NextOccurrenceUID != "" {
			return errNoChange
		}
		start, ok, err := nextOccurrenceStart(a)
		if err != nil {
			return err
		}
		if !ok {
			return errNoChange
		}
		next = nextOccurrence(a, start, nextUID, now)
		a.NextOccurrenceUID = nextUID
		return nil
	})
	if err != nil || !changed {
		return nil, err
	}

	if err := s.appointmentRepository.CreateAppointment(ctx, next); err != nil {
		slog.ErrorContext(ctx, "error creating next occurrence", logging.ErrKey, err,
			"appointment_uid", appointmentUID,
			"next_occurrence_uid", nextUID,
		)
		s.releaseNextOccurrence(context.WithoutCancel(ctx), appointmentUID, nextUID)
		return nil, err
	}

	slog.InfoContext(ctx, "scheduled next occurrence",
		"appointment_uid", appointmentUID,
		"next_occurrence_uid", next.UID,
		"start_time", next.StartTime,
	)
	return next, nil
}
