// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/pkg/concurrent"
)

// audioPathPrefix is the object name prefix of uploaded recordings.
const audioPathPrefix = "appointment_recordings/"

// processingTimeout bounds one run of the processing pipeline.
const processingTimeout = 15 * time.Minute

// summaryWorkers bounds the concurrent recording lookups of GetRecordingsSummary.
const summaryWorkers = 4

// AudioUpload is a user supplied audio artifact.
type AudioUpload struct {
	Data   []byte
	Format string
}

func (u AudioUpload) validate() error {
	if len(u.Data) == 0 {
		return domain.NewValidationError("audio file is empty")
	}
	if len(u.Data) > models.MaxAudioUploadBytes {
		return domain.NewValidationError(fmt.Sprintf("audio file exceeds the %d MB limit", models.MaxAudioUploadBytes/(1024*1024)))
	}
	if !models.IsSupportedAudioFormat(u.Format) {
		return domain.NewValidationError(fmt.Sprintf("unsupported audio format %q", u.Format))
	}
	return nil
}

// RecordingService implements the recording lifecycle of appointments:
// start, stop and the transcription and analysis pipeline.
type RecordingService struct {
	appointmentRepository domain.AppointmentRepository
	recordingRepository   domain.RecordingRepository
	audioStorage          domain.AudioStorage
	transcriber           domain.Transcriber
	analyzer              *Analyzer
	appointments          *AppointmentService
	notifier              *Notifier
	eventPublisher        domain.EventPublisher
	now                   func() time.Time
}

// NewRecordingService creates a new RecordingService.
func NewRecordingService(
	appointmentRepository domain.AppointmentRepository,
	recordingRepository domain.RecordingRepository,
	audioStorage domain.AudioStorage,
	transcriber domain.Transcriber,
	analyzer *Analyzer,
	appointments *AppointmentService,
	notifier *Notifier,
	eventPublisher domain.EventPublisher,
) *RecordingService {
	return &RecordingService{
		appointmentRepository: appointmentRepository,
		recordingRepository:   recordingRepository,
		audioStorage:          audioStorage,
		transcriber:           transcriber,
		analyzer:              analyzer,
		appointments:          appointments,
		notifier:              notifier,
		eventPublisher:        eventPublisher,
		now:                   time.Now,
	}
}

// ServiceReady checks if the service is ready to serve requests.
func (s *RecordingService) ServiceReady() bool {
	return s.appointmentRepository != nil &&
		s.recordingRepository != nil &&
		s.audioStorage != nil &&
		s.transcriber != nil &&
		s.appointments != nil
}

func (s *RecordingService) clock() time.Time {
	return s.now().UTC()
}

func recordingEvent(a *models.Appointment, r *models.Recording) models.LifecycleEvent {
	event := models.LifecycleEvent{
		RecordingUID:    r.UID,
		AppointmentUID:  r.AppointmentUID,
		OwnerEmail:      r.OwnerEmail,
		RecordingStatus: r.Status,
		ErrorMessage:    r.ErrorMessage,
	}
	if a != nil {
		event.AppointmentStatus = a.Status
	}
	return event
}

func newRecording(a *models.Appointment, status models.RecordingStatus, now time.Time) *models.Recording {
	return &models.Recording{
		UID:            uuid.New().String(),
		AppointmentUID: a.UID,
		OwnerEmail:     a.OwnerEmail,
		Keywords:       []string{},
		Entities:       []string{},
		DomainTerms:    []string{},
		ActionItems:    []string{},
		Topics:         []string{},
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// StartRecording creates a recording in the recording state and moves the
// appointment to recording. It fails with a conflict when the appointment
// already has an active recording or can no longer be recorded.
func (s *RecordingService) StartRecording(ctx context.Context, appointmentUID string) (*models.Recording, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}
	if appointmentUID == "" {
		return nil, domain.NewValidationError("appointment UID is required")
	}

	ctx = logging.AppendCtx(ctx, slog.String("appointment_uid", appointmentUID))

	appointment, err := s.appointmentRepository.GetAppointment(ctx, appointmentUID)
	if err != nil {
		return nil, err
	}
	if appointment.Status == models.AppointmentStatusCancelled || appointment.Status == models.AppointmentStatusCompleted {
		return nil, domain.NewConflictError("appointment in status " + string(appointment.Status) + " cannot be recorded")
	}

	now := s.clock()
	recording := newRecording(appointment, models.RecordingStatusRecording, now)
	recording.RecordingStartedAt = &now

	// The recording is stored before it claims the appointment, so a claim
	// always points at a stored recording. Once stored, the start runs to
	// completion or failure even if the caller goes away.
	if err := s.recordingRepository.CreateRecording(ctx, recording); err != nil {
		slog.ErrorContext(ctx, "error creating recording", logging.ErrKey, err)
		return nil, err
	}
	ctx = logging.AppendCtx(context.WithoutCancel(ctx), slog.String("recording_uid", recording.UID))

	if err := s.claimActiveRecording(ctx, appointmentUID, recording.UID); err != nil {
		if err := s.recordingRepository.DeleteRecording(ctx, recording.UID); err != nil {
			slog.ErrorContext(ctx, "error removing unclaimed recording", logging.ErrKey, err)
		}
		return nil, err
	}

	appointment, _, err = modifyAppointment(ctx, s.appointmentRepository, appointmentUID, now, func(a *models.Appointment) error {
		if a.Status == models.AppointmentStatusCancelled || a.Status == models.AppointmentStatusCompleted {
			return domain.NewConflictError("appointment in status " + string(a.Status) + " cannot be recorded")
		}
		if a.Status == models.AppointmentStatusRecording {
			return errNoChange
		}
		a.Status = models.AppointmentStatusRecording
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "error moving appointment to recording", logging.ErrKey, err)
		s.failRecording(ctx, recording.UID, err.Error())
		return nil, err
	}

	slog.InfoContext(ctx, "started recording")
	publishEvent(ctx, s.eventPublisher, models.RecordingStartedSubject, recordingEvent(appointment, recording))

	return recording, nil
}

// claimActiveRecording makes recordingUID the active recording of the
// appointment. A claim held by a recording that no longer exists or is no
// longer recording is released and taken over.
func (s *RecordingService) claimActiveRecording(ctx context.Context, appointmentUID, recordingUID string) error {
	err := s.recordingRepository.ClaimActiveRecording(ctx, appointmentUID, recordingUID)
	if err == nil || !domain.IsErrorType(err, domain.ErrorTypeConflict) {
		return err
	}

	holder, getErr := s.recordingRepository.GetActiveRecordingUID(ctx, appointmentUID)
	switch {
	case domain.IsErrorType(getErr, domain.ErrorTypeNotFound):
		// Released since the first attempt.
	case getErr != nil:
		return getErr
	default:
		current, getErr := s.recordingRepository.GetRecording(ctx, holder)
		switch {
		case getErr == nil && current.IsActive():
			slog.InfoContext(ctx, "appointment already has an active recording", "active_recording_uid", holder)
			return err
		case getErr != nil && !domain.IsErrorType(getErr, domain.ErrorTypeNotFound):
			return getErr
		}
		slog.WarnContext(ctx, "releasing stale recording claim", "active_recording_uid", holder)
		if err := s.recordingRepository.ReleaseActiveRecording(ctx, appointmentUID); err != nil {
			return err
		}
	}
	return s.recordingRepository.ClaimActiveRecording(ctx, appointmentUID, recordingUID)
}

// StopRecording ends capture of a recording and moves it to processing; the
// appointment is completed. When audio is supplied it is stored on the
// recording and the processing pipeline runs before returning.
func (s *RecordingService) StopRecording(ctx context.Context, recordingUID string, audio *AudioUpload) (*models.Recording, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}
	if recordingUID == "" {
		return nil, domain.NewValidationError("recording UID is required")
	}

	ctx = logging.AppendCtx(ctx, slog.String("recording_uid", recordingUID))

	existing, err := s.recordingRepository.GetRecording(ctx, recordingUID)
	if err != nil {
		return nil, err
	}
	if existing.Status != models.RecordingStatusRecording {
		return nil, domain.NewConflictError("recording in status " + string(existing.Status) + " cannot be stopped")
	}
	ctx = logging.AppendCtx(ctx, slog.String("appointment_uid", existing.AppointmentUID))

	var audioPath string
	var size int64
	if audio != nil {
		if err := audio.validate(); err != nil {
			return nil, err
		}
		audioPath, size, err = s.saveAudio(ctx, existing.AppointmentUID, *audio)
		if err != nil {
			return nil, err
		}
	}

	// The stop, the claim release and the appointment completion commit together.
	ctx = context.WithoutCancel(ctx)

	now := s.clock()
	recording, _, err := modifyRecording(ctx, s.recordingRepository, recordingUID, now, func(r *models.Recording) error {
		if r.Status != models.RecordingStatusRecording {
			return domain.NewConflictError("recording in status " + string(r.Status) + " cannot be stopped")
		}
		r.Stop(now)
		r.Status = models.RecordingStatusProcessing
		if audio != nil {
			r.AudioPath = audioPath
			r.FileSize = size
			r.FileFormat = audio.Format
		}
		return nil
	})
	if err != nil {
		if audioPath != "" {
			s.deleteAudio(ctx, audioPath)
		}
		slog.ErrorContext(ctx, "error stopping recording", logging.ErrKey, err)
		return nil, err
	}

	s.releaseClaim(ctx, recording.AppointmentUID)

	appointment, err := s.completeAppointment(ctx, recording.AppointmentUID)
	if err != nil {
		slog.ErrorContext(ctx, "error completing appointment", logging.ErrKey, err)
	}

	slog.InfoContext(ctx, "stopped recording", "duration_seconds", recording.DurationSeconds)
	publishEvent(ctx, s.eventPublisher, models.RecordingStoppedSubject, recordingEvent(appointment, recording))

	if appointment != nil {
		if _, err := s.appointments.ScheduleNextOccurrence(ctx, appointment.UID); err != nil {
			slog.ErrorContext(ctx, "failed to schedule next occurrence", logging.ErrKey, err)
		}
	}

	if audio != nil {
		return s.ProcessRecording(ctx, recording.UID)
	}
	return recording, nil
}

// StopActiveRecording stops the active recording of an appointment whose end
// time has passed. An appointment left in recording without a recording is
// completed directly.
func (s *RecordingService) StopActiveRecording(ctx context.Context, appointmentUID string) (*models.Recording, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}

	recordingUID, err := s.recordingRepository.GetActiveRecordingUID(ctx, appointmentUID)
	if err != nil && !domain.IsErrorType(err, domain.ErrorTypeNotFound) {
		return nil, err
	}

	if recordingUID == "" {
		latest, err := s.GetRecordingByAppointment(ctx, appointmentUID)
		if err != nil {
			return nil, err
		}
		if latest != nil && latest.IsActive() {
			recordingUID = latest.UID
		}
	}

	if recordingUID == "" {
		slog.WarnContext(ctx, "no active recording for appointment, completing it", "appointment_uid", appointmentUID)
		appointment, err := s.completeAppointment(ctx, appointmentUID)
		if err != nil {
			return nil, err
		}
		if _, err := s.appointments.ScheduleNextOccurrence(ctx, appointment.UID); err != nil {
			slog.ErrorContext(ctx, "failed to schedule next occurrence", logging.ErrKey, err)
		}
		return nil, nil
	}

	return s.StopRecording(ctx, recordingUID, nil)
}

// completeAppointment moves the appointment to completed unless it was cancelled.
func (s *RecordingService) completeAppointment(ctx context.Context, appointmentUID string) (*models.Appointment, error) {
	appointment, _, err := modifyAppointment(ctx, s.appointmentRepository, appointmentUID, s.clock(), func(a *models.Appointment) error {
		switch a.Status {
		case models.AppointmentStatusCancelled:
			slog.InfoContext(ctx, "appointment was cancelled, keeping cancelled status", "appointment_uid", a.UID)
			return errNoChange
		case models.AppointmentStatusCompleted:
			return errNoChange
		}
		a.Status = models.AppointmentStatusCompleted
		return nil
	})
	return appointment, err
}

// ProcessRecording runs the pipeline of a recording in processing:
// transcribe, classify intent, extract entities, summarize, finalize and
// notify. A transcription failure halts the pipeline and fails the
// recording; analysis and notification failures only degrade the result.
func (s *RecordingService) ProcessRecording(ctx context.Context, recordingUID string) (result *models.Recording, err error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}
	if recordingUID == "" {
		return nil, domain.NewValidationError("recording UID is required")
	}

	// The pipeline outlives the caller: it always ends with the recording
	// completed or failed. Transcription bounds itself; processingTimeout
	// bounds the whole run.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), processingTimeout)
	defer cancel()
	ctx = logging.AppendCtx(ctx, slog.String("recording_uid", recordingUID))

	recording, err := s.recordingRepository.GetRecording(ctx, recordingUID)
	if err != nil {
		return nil, err
	}
	if recording.Status != models.RecordingStatusProcessing {
		return nil, domain.NewConflictError("recording in status " + string(recording.Status) + " cannot be processed")
	}
	ctx = logging.AppendCtx(ctx, slog.String("appointment_uid", recording.AppointmentUID))

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic while processing recording", "panic", r, logging.PriorityCritical())
			err = domain.NewInternalError(fmt.Sprintf("recording processing panicked: %v", r))
			result = s.failRecording(ctx, recordingUID, err.Error())
		}
	}()

	if recording.AudioPath == "" {
		err := domain.NewValidationError("No audio file to process")
		return s.failRecording(ctx, recordingUID, err.Error()), err
	}

	data, err := s.audioStorage.LoadAudio(ctx, recording.AudioPath)
	if err != nil {
		slog.ErrorContext(ctx, "error loading recording audio", logging.ErrKey, err)
		return s.failRecording(ctx, recordingUID, err.Error()), err
	}

	// Step 1: transcription is the only fatal step.
	slog.InfoContext(ctx, "transcribing recording", "audio_path", recording.AudioPath, "file_size", len(data))
	transcript, err := s.transcriber.Transcribe(ctx, domain.AudioArtifact{
		Name:   recording.AudioPath,
		Format: recording.FileFormat,
		Data:   data,
	})
	if err != nil {
		slog.ErrorContext(ctx, "transcription failed", logging.ErrKey, err)
		if !domain.IsErrorType(err, domain.ErrorTypeTranscription) {
			err = domain.NewTranscriptionError("transcription failed", err)
		}
		return s.failRecording(ctx, recordingUID, err.Error()), err
	}

	analysis := &models.Recording{}
	analysis.ResetAnalysis()

	// Step 2: intent. Its summary backs up the narrative summary.
	if intent, err := s.analyzer.ClassifyIntent(ctx, transcript); err != nil {
		slog.WarnContext(ctx, "intent classification failed", logging.ErrKey, err)
	} else {
		confidence := intent.Confidence
		analysis.Intent = intent.Intent
		analysis.IntentConfidence = &confidence
		analysis.IntentSummary = intent.Summary
		analysis.Summary = intent.Summary
	}

	// Step 3: entities.
	if entities, err := s.analyzer.ExtractEntities(ctx, transcript); err != nil {
		slog.WarnContext(ctx, "entity extraction failed", logging.ErrKey, err)
	} else {
		analysis.ApplyEntities(entities)
	}

	// Step 4: narrative summary.
	if summary, err := s.analyzer.Summarize(ctx, transcript); err != nil {
		slog.WarnContext(ctx, "summary generation failed, keeping intent summary", logging.ErrKey, err)
	} else {
		analysis.Summary = summary
	}

	// Step 5: finalize.
	now := s.clock()
	recording, _, err = modifyRecording(ctx, s.recordingRepository, recordingUID, now, func(r *models.Recording) error {
		if r.Status != models.RecordingStatusProcessing {
			return domain.NewConflictError("recording left processing during the pipeline")
		}
		r.TranscribedText = transcript
		r.Summary = analysis.Summary
		r.Intent = analysis.Intent
		r.IntentConfidence = analysis.IntentConfidence
		r.IntentSummary = analysis.IntentSummary
		r.Keywords = analysis.Keywords
		r.Entities = analysis.Entities
		r.DomainTerms = analysis.DomainTerms
		r.ActionItems = analysis.ActionItems
		r.Topics = analysis.Topics
		r.Status = models.RecordingStatusCompleted
		r.ProcessedAt = &now
		r.ErrorMessage = ""
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "error finalizing recording", logging.ErrKey, err)
		return s.failRecording(ctx, recordingUID, err.Error()), err
	}

	appointment, err := s.completeAppointment(ctx, recording.AppointmentUID)
	if err != nil {
		slog.ErrorContext(ctx, "error completing appointment", logging.ErrKey, err)
		return s.failRecording(ctx, recordingUID, err.Error()), err
	}

	slog.InfoContext(ctx, "processed recording",
		"intent", recording.Intent,
		"keywords", len(recording.Keywords),
		"action_items", len(recording.ActionItems),
	)
	publishEvent(ctx, s.eventPublisher, models.RecordingCompletedSubject, recordingEvent(appointment, recording))

	// Step 6: notify.
	if s.notifier != nil {
		_ = s.notifier.SendRecordingSummary(ctx, appointment, recording)
	}

	return recording, nil
}

// failRecording marks the recording failed with the message, clears every
// derived field and releases the active claim. It returns the stored recording.
// The write is detached from ctx, which may already be done.
func (s *RecordingService) failRecording(ctx context.Context, recordingUID, message string) *models.Recording {
	ctx = context.WithoutCancel(ctx)
	recording, changed, err := modifyRecording(ctx, s.recordingRepository, recordingUID, s.clock(), func(r *models.Recording) error {
		if !r.CanTransitionTo(models.RecordingStatusFailed) {
			return errNoChange
		}
		r.Status = models.RecordingStatusFailed
		r.ErrorMessage = message
		r.ResetAnalysis()
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "error marking recording failed", logging.ErrKey, err, logging.PriorityCritical())
		return recording
	}
	if !changed {
		return recording
	}

	active, err := s.recordingRepository.GetActiveRecordingUID(ctx, recording.AppointmentUID)
	if err == nil && active == recording.UID {
		s.releaseClaim(ctx, recording.AppointmentUID)
	}

	slog.WarnContext(ctx, "recording failed", "error_message", message)
	publishEvent(ctx, s.eventPublisher, models.RecordingFailedSubject, recordingEvent(nil, recording))
	return recording
}

// UploadAndProcess stores user supplied audio and runs the processing
// pipeline on it. The audio is attached to the latest recording when it was
// stopped without audio; otherwise a new recording is created.
func (s *RecordingService) UploadAndProcess(ctx context.Context, appointmentUID string, audio AudioUpload) (*models.Recording, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}
	if appointmentUID == "" {
		return nil, domain.NewValidationError("appointment UID is required")
	}

	ctx = logging.AppendCtx(ctx, slog.String("appointment_uid", appointmentUID))

	appointment, err := s.appointmentRepository.GetAppointment(ctx, appointmentUID)
	if err != nil {
		return nil, err
	}
	if err := audio.validate(); err != nil {
		slog.WarnContext(ctx, "invalid audio upload", logging.ErrKey, err)
		return nil, err
	}

	audioPath, size, err := s.saveAudio(ctx, appointment.UID, audio)
	if err != nil {
		return nil, err
	}

	// A recording stopped by the scheduler waits in processing for its audio.
	latest, err := s.GetRecordingByAppointment(ctx, appointment.UID)
	if err != nil {
		s.deleteAudio(ctx, audioPath)
		return nil, err
	}
	if latest != nil && latest.Status == models.RecordingStatusProcessing && latest.AudioPath == "" {
		_, attached, err := modifyRecording(ctx, s.recordingRepository, latest.UID, s.clock(), func(r *models.Recording) error {
			if r.Status != models.RecordingStatusProcessing || r.AudioPath != "" {
				return errNoChange
			}
			r.AudioPath = audioPath
			r.FileSize = size
			r.FileFormat = audio.Format
			return nil
		})
		if err != nil {
			s.deleteAudio(ctx, audioPath)
			return nil, err
		}
		if attached {
			slog.InfoContext(ctx, "attached uploaded audio to stopped recording", "recording_uid", latest.UID, "file_size", size)
			return s.ProcessRecording(ctx, latest.UID)
		}
	}

	now := s.clock()
	recording := newRecording(appointment, models.RecordingStatusProcessing, now)
	recording.AudioPath = audioPath
	recording.FileSize = size
	recording.FileFormat = audio.Format
	recording.RecordingStartedAt = &now
	recording.RecordingEndedAt = &now

	if err := s.recordingRepository.CreateRecording(ctx, recording); err != nil {
		slog.ErrorContext(ctx, "error creating uploaded recording", logging.ErrKey, err)
		s.deleteAudio(ctx, audioPath)
		return nil, err
	}

	slog.InfoContext(ctx, "uploaded recording", "recording_uid", recording.UID, "file_size", size)
	return s.ProcessRecording(ctx, recording.UID)
}

func (s *RecordingService) saveAudio(ctx context.Context, appointmentUID string, audio AudioUpload) (string, int64, error) {
	name := fmt.Sprintf("%s%s_%s.%s", audioPathPrefix, appointmentUID, uuid.New().String(), audio.Format)
	size, err := s.audioStorage.SaveAudio(ctx, name, audio.Data, models.AudioContentType(audio.Format))
	if err != nil {
		slog.ErrorContext(ctx, "error saving audio", logging.ErrKey, err, "audio_path", name)
		return "", 0, err
	}
	return name, size, nil
}

func (s *RecordingService) deleteAudio(ctx context.Context, audioPath string) {
	if err := s.audioStorage.DeleteAudio(ctx, audioPath); err != nil {
		slog.WarnContext(ctx, "failed to delete audio", logging.ErrKey, err, "audio_path", audioPath)
	}
}

func (s *RecordingService) releaseClaim(ctx context.Context, appointmentUID string) {
	if err := s.recordingRepository.ReleaseActiveRecording(ctx, appointmentUID); err != nil {
		slog.ErrorContext(ctx, "failed to release active recording claim", logging.ErrKey, err, "appointment_uid", appointmentUID)
	}
}

// GetRecordingByAppointment returns the most recently created recording of
// the appointment, or nil when it has none.
func (s *RecordingService) GetRecordingByAppointment(ctx context.Context, appointmentUID string) (*models.Recording, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}
	if appointmentUID == "" {
		return nil, domain.NewValidationError("appointment UID is required")
	}

	recordings, err := s.recordingRepository.ListRecordingsByAppointment(ctx, appointmentUID)
	if err != nil {
		return nil, err
	}
	if len(recordings) == 0 {
		return nil, nil
	}
	return recordings[len(recordings)-1], nil
}

// GetRecording returns a single recording.
func (s *RecordingService) GetRecording(ctx context.Context, recordingUID string) (*models.Recording, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}
	if recordingUID == "" {
		return nil, domain.NewValidationError("recording UID is required")
	}
	return s.recordingRepository.GetRecording(ctx, recordingUID)
}

// GetRecordingsSummary projects the latest completed recording of each of the
// owner's appointments starting in the optional range.
func (s *RecordingService) GetRecordingsSummary(ctx context.Context, ownerEmail string, from, to *time.Time) ([]models.RecordingSummary, error) {
	appointments, err := s.appointments.ListAppointments(ctx, models.AppointmentFilter{
		OwnerEmail: ownerEmail,
		StartFrom:  from,
		StartTo:    to,
	})
	if err != nil {
		return nil, err
	}

	// Each worker writes only its own index.
	completed := make([]*models.Recording, len(appointments))
	functions := make([]func() error, 0, len(appointments))
	for i, appointment := range appointments {
		functions = append(functions, func() error {
			recordings, err := s.recordingRepository.ListRecordingsByAppointment(ctx, appointment.UID)
			if err != nil {
				return err
			}
			for j := len(recordings) - 1; j >= 0; j-- {
				if recordings[j].Status == models.RecordingStatusCompleted {
					completed[i] = recordings[j]
					break
				}
			}
			return nil
		})
	}

	pool := concurrent.NewWorkerPool(summaryWorkers)
	if err := pool.Run(ctx, functions...); err != nil {
		slog.ErrorContext(ctx, "error collecting recordings summary", logging.ErrKey, err)
		return nil, err
	}

	summaries := make([]models.RecordingSummary, 0, len(appointments))
	for i, appointment := range appointments {
		recording := completed[i]
		if recording == nil {
			continue
		}
		summaries = append(summaries, models.RecordingSummary{
			AppointmentUID:  appointment.UID,
			RecordingUID:    recording.UID,
			Title:           appointment.Title,
			StartTime:       appointment.StartTime,
			DurationMinutes: appointment.DurationMinutes,
			Summary:         recording.Summary,
			Intent:          recording.Intent,
			Keywords:        recording.Keywords,
			ActionItems:     recording.ActionItems,
			Topics:          recording.Topics,
		})
	}
	return summaries, nil
}

// DeleteRecording removes a completed or failed recording and its audio
// artifact. Recordings still in progress cannot be deleted.
func (s *RecordingService) DeleteRecording(ctx context.Context, recordingUID string) error {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return domain.NewUnavailableError("service not initialized")
	}
	if recordingUID == "" {
		return domain.NewValidationError("recording UID is required")
	}

	recording, err := s.recordingRepository.GetRecording(ctx, recordingUID)
	if err != nil {
		return err
	}
	if !recording.IsTerminal() {
		return domain.NewConflictError("recording in status " + string(recording.Status) + " cannot be deleted")
	}
	if err := deleteRecordingWithAudio(ctx, s.recordingRepository, s.audioStorage, recording); err != nil {
		return err
	}

	slog.InfoContext(ctx, "deleted recording", "recording_uid", recordingUID, "appointment_uid", recording.AppointmentUID)
	return nil
}

func deleteRecordingWithAudio(ctx context.Context, recordings domain.RecordingRepository, audio domain.AudioStorage, recording *models.Recording) error {
	if recording.AudioPath != "" {
		if err := audio.DeleteAudio(ctx, recording.AudioPath); err != nil {
			slog.ErrorContext(ctx, "error deleting recording audio", logging.ErrKey, err, "audio_path", recording.AudioPath)
			return err
		}
	}
	if err := recordings.DeleteRecording(ctx, recording.UID); err != nil {
		slog.ErrorContext(ctx, "error deleting recording", logging.ErrKey, err, "recording_uid", recording.UID)
		return err
	}
	return nil
}
