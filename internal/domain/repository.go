// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain/models"
)

// AppointmentRepository defines the interface for appointment storage operations.
// Updates and deletes are guarded by the revision returned from the read.
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, appointment *models.Appointment) error
	GetAppointment(ctx context.Context, appointmentUID string) (*models.Appointment, error)
	GetAppointmentWithRevision(ctx context.Context, appointmentUID string) (*models.Appointment, uint64, error)
	UpdateAppointment(ctx context.Context, appointment *models.Appointment, revision uint64) error
	DeleteAppointment(ctx context.Context, appointmentUID string, revision uint64) error

	ListAppointments(ctx context.Context, filter models.AppointmentFilter) ([]*models.Appointment, error)
	ListAllAppointments(ctx context.Context) ([]*models.Appointment, error)
}

// RecordingRepository defines the interface for recording storage operations.
//
// ClaimActiveRecording is the store level guarantee that at most one recording
// per appointment is in the recording state: it fails with a conflict error
// when the appointment already holds a claim.
type RecordingRepository interface {
	CreateRecording(ctx context.Context, recording *models.Recording) error
	GetRecording(ctx context.Context, recordingUID string) (*models.Recording, error)
	GetRecordingWithRevision(ctx context.Context, recordingUID string) (*models.Recording, uint64, error)
	UpdateRecording(ctx context.Context, recording *models.Recording, revision uint64) error
	DeleteRecording(ctx context.Context, recordingUID string) error

	ListRecordingsByAppointment(ctx context.Context, appointmentUID string) ([]*models.Recording, error)

	ClaimActiveRecording(ctx context.Context, appointmentUID, recordingUID string) error
	GetActiveRecordingUID(ctx context.Context, appointmentUID string) (string, error)
	ReleaseActiveRecording(ctx context.Context, appointmentUID string) error
}

// ConversationRepository defines the interface for conversation storage operations.
type ConversationRepository interface {
	CreateConversation(ctx context.Context, conversation *models.Conversation) error
	GetConversation(ctx context.Context, conversationUID string) (*models.Conversation, error)
	ConversationExists(ctx context.Context, conversationUID string) (bool, error)
	DeleteConversation(ctx context.Context, conversationUID string) error
}

// AudioStorage persists raw audio artifacts referenced by recordings.
type AudioStorage interface {
	SaveAudio(ctx context.Context, name string, data []byte, contentType string) (int64, error)
	LoadAudio(ctx context.Context, name string) ([]byte, error)
	DeleteAudio(ctx context.Context, name string) error
}
