// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"log/slog"
	"sort"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/logging"
)

// NatsRecordingRepository is the NATS KV store repository for recordings.
//
// Besides the recordings themselves the bucket holds an appointment index and
// one "active/<appointment>" claim per appointment with a recording in
// progress. The claim is written with a create-only operation, which is what
// keeps two concurrent starts from both succeeding.
type NatsRecordingRepository struct {
	*NatsBaseRepository[models.Recording]
	keys *KeyBuilder
}

// NewNatsRecordingRepository creates a new NATS KV store repository for recordings.
func NewNatsRecordingRepository(kvStore INatsKeyValue) *NatsRecordingRepository {
	return &NatsRecordingRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.Recording](kvStore, "recording"),
		keys:               NewKeyBuilder(""),
	}
}

func (s *NatsRecordingRepository) appointmentIndexKey(r *models.Recording) string {
	return s.keys.IndexKey(KeyPrefixIndexAppointment, r.AppointmentUID, r.UID)
}

func (s *NatsRecordingRepository) activeKey(appointmentUID string) string {
	return s.keys.CompoundKey(KeyPrefixActive, appointmentUID)
}

// CreateRecording stores a new recording and indexes it by appointment.
func (s *NatsRecordingRepository) CreateRecording(ctx context.Context, recording *models.Recording) error {
	exists, err := s.Exists(ctx, recording.UID)
	if err != nil {
		return err
	}
	if exists {
		return domain.NewConflictError("recording already exists")
	}

	if err := s.Create(ctx, recording.UID, recording); err != nil {
		return err
	}

	return s.PutIndex(ctx, s.appointmentIndexKey(recording))
}

// GetRecording retrieves a recording by UID.
func (s *NatsRecordingRepository) GetRecording(ctx context.Context, recordingUID string) (*models.Recording, error) {
	return s.Get(ctx, recordingUID)
}

// GetRecordingWithRevision retrieves a recording with its revision.
func (s *NatsRecordingRepository) GetRecordingWithRevision(ctx context.Context, recordingUID string) (*models.Recording, uint64, error) {
	return s.GetWithRevision(ctx, recordingUID)
}

// UpdateRecording replaces a recording if revision is still current.
func (s *NatsRecordingRepository) UpdateRecording(ctx context.Context, recording *models.Recording, revision uint64) error {
	return s.Update(ctx, recording.UID, recording, revision)
}

// DeleteRecording removes a recording, its index entry, and its claim if it
// still holds one.
func (s *NatsRecordingRepository) DeleteRecording(ctx context.Context, recordingUID string) error {
	existing, err := s.Get(ctx, recordingUID)
	if err != nil {
		return err
	}

	if err := s.Delete(ctx, recordingUID, 0); err != nil {
		return err
	}

	if err := s.DeleteIndex(ctx, s.appointmentIndexKey(existing)); err != nil {
		slog.WarnContext(ctx, "failed to remove appointment index", logging.ErrKey, err,
			"recording_uid", recordingUID)
	}

	activeUID, err := s.GetActiveRecordingUID(ctx, existing.AppointmentUID)
	if err == nil && activeUID == recordingUID {
		if err := s.ReleaseActiveRecording(ctx, existing.AppointmentUID); err != nil {
			slog.WarnContext(ctx, "failed to release active recording claim", logging.ErrKey, err,
				"recording_uid", recordingUID)
		}
	}
	return nil
}

// ListRecordingsByAppointment returns the recordings of one appointment, oldest first.
func (s *NatsRecordingRepository) ListRecordingsByAppointment(ctx context.Context, appointmentUID string) ([]*models.Recording, error) {
	indexKeys, err := s.ListKeys(ctx, s.keys.IndexPrefix(KeyPrefixIndexAppointment, appointmentUID))
	if err != nil {
		return nil, err
	}

	recordings := make([]*models.Recording, 0, len(indexKeys))
	for _, indexKey := range indexKeys {
		recording, err := s.Get(ctx, lastKeySegment(indexKey))
		if err != nil {
			if domain.IsErrorType(err, domain.ErrorTypeNotFound) {
				continue
			}
			return nil, err
		}
		recordings = append(recordings, recording)
	}

	sort.SliceStable(recordings, func(i, j int) bool {
		return recordings[i].CreatedAt.Before(recordings[j].CreatedAt)
	})
	return recordings, nil
}

// ClaimActiveRecording marks recordingUID as the one recording in progress for
// the appointment. It fails with a conflict error when a claim already exists.
func (s *NatsRecordingRepository) ClaimActiveRecording(ctx context.Context, appointmentUID, recordingUID string) error {
	return s.CreateUniqueRaw(ctx, s.activeKey(appointmentUID), []byte(recordingUID))
}

// GetActiveRecordingUID returns the claimed recording of the appointment, or a
// not found error when none is in progress.
func (s *NatsRecordingRepository) GetActiveRecordingUID(ctx context.Context, appointmentUID string) (string, error) {
	entry, err := s.GetRaw(ctx, s.activeKey(appointmentUID))
	if err != nil {
		return "", err
	}
	return string(entry.Value()), nil
}

// ReleaseActiveRecording drops the claim of the appointment. Releasing a claim
// that does not exist is not an error.
func (s *NatsRecordingRepository) ReleaseActiveRecording(ctx context.Context, appointmentUID string) error {
	err := s.Delete(ctx, s.activeKey(appointmentUID), 0)
	if err != nil && !domain.IsErrorType(err, domain.ErrorTypeNotFound) {
		return err
	}
	return nil
}
