// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"log/slog"
	"strings"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/logging"
)

// NatsAppointmentRepository is the NATS KV store repository for appointments.
//
// Entities are stored under their UID. Each appointment also has an encoded
// owner index entry so that listing one owner's calendar does not need to
// read the whole bucket.
type NatsAppointmentRepository struct {
	*NatsBaseRepository[models.Appointment]
	keys *KeyBuilder
}

// NewNatsAppointmentRepository creates a new NATS KV store repository for appointments.
func NewNatsAppointmentRepository(kvStore INatsKeyValue) *NatsAppointmentRepository {
	return &NatsAppointmentRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.Appointment](kvStore, "appointment"),
		keys:               NewKeyBuilder(""),
	}
}

func (s *NatsAppointmentRepository) ownerIndexKey(a *models.Appointment) string {
	return s.keys.IndexKeyEncoded(KeyPrefixIndexOwner, strings.ToLower(a.OwnerEmail), a.UID)
}

// CreateAppointment stores a new appointment and its owner index.
func (s *NatsAppointmentRepository) CreateAppointment(ctx context.Context, appointment *models.Appointment) error {
	exists, err := s.Exists(ctx, appointment.UID)
	if err != nil {
		return err
	}
	if exists {
		return domain.NewConflictError("appointment already exists")
	}

	if err := s.Create(ctx, appointment.UID, appointment); err != nil {
		return err
	}

	return s.PutIndex(ctx, s.ownerIndexKey(appointment))
}

// GetAppointment retrieves an appointment by UID.
func (s *NatsAppointmentRepository) GetAppointment(ctx context.Context, appointmentUID string) (*models.Appointment, error) {
	return s.Get(ctx, appointmentUID)
}

// GetAppointmentWithRevision retrieves an appointment with its revision.
func (s *NatsAppointmentRepository) GetAppointmentWithRevision(ctx context.Context, appointmentUID string) (*models.Appointment, uint64, error) {
	return s.GetWithRevision(ctx, appointmentUID)
}

// UpdateAppointment replaces an appointment if revision is still current.
// The owner index follows an owner change.
func (s *NatsAppointmentRepository) UpdateAppointment(ctx context.Context, appointment *models.Appointment, revision uint64) error {
	previous, err := s.Get(ctx, appointment.UID)
	if err != nil {
		return err
	}

	if err := s.Update(ctx, appointment.UID, appointment, revision); err != nil {
		return err
	}

	if !strings.EqualFold(previous.OwnerEmail, appointment.OwnerEmail) {
		if err := s.DeleteIndex(ctx, s.ownerIndexKey(previous)); err != nil {
			slog.WarnContext(ctx, "failed to remove stale owner index", logging.ErrKey, err,
				"appointment_uid", appointment.UID)
		}
		return s.PutIndex(ctx, s.ownerIndexKey(appointment))
	}

	return nil
}

// DeleteAppointment removes an appointment and its owner index.
func (s *NatsAppointmentRepository) DeleteAppointment(ctx context.Context, appointmentUID string, revision uint64) error {
	existing, err := s.Get(ctx, appointmentUID)
	if err != nil {
		return err
	}

	if err := s.Delete(ctx, appointmentUID, revision); err != nil {
		return err
	}

	if err := s.DeleteIndex(ctx, s.ownerIndexKey(existing)); err != nil {
		slog.WarnContext(ctx, "failed to remove owner index", logging.ErrKey, err,
			"appointment_uid", appointmentUID)
	}
	return nil
}

// ListAppointments returns the appointments matching filter ordered by start time.
func (s *NatsAppointmentRepository) ListAppointments(ctx context.Context, filter models.AppointmentFilter) ([]*models.Appointment, error) {
	var (
		appointments []*models.Appointment
		err          error
	)

	if filter.OwnerEmail != "" {
		appointments, err = s.listByOwner(ctx, filter.OwnerEmail)
	} else {
		appointments, err = s.ListAllAppointments(ctx)
	}
	if err != nil {
		return nil, err
	}

	matched := make([]*models.Appointment, 0, len(appointments))
	for _, a := range appointments {
		if filter.Matches(a) {
			matched = append(matched, a)
		}
	}

	models.SortAppointmentsByStart(matched)
	return matched, nil
}

func (s *NatsAppointmentRepository) listByOwner(ctx context.Context, ownerEmail string) ([]*models.Appointment, error) {
	indexKeys, err := s.ListKeys(ctx, s.keys.IndexPrefixEncoded(KeyPrefixIndexOwner, strings.ToLower(ownerEmail)))
	if err != nil {
		return nil, err
	}

	appointments := make([]*models.Appointment, 0, len(indexKeys))
	for _, indexKey := range indexKeys {
		decoded, err := s.keys.DecodeKey(indexKey)
		if err != nil {
			slog.WarnContext(ctx, "skipping malformed owner index key", "key", indexKey, logging.ErrKey, err)
			continue
		}

		appointment, err := s.Get(ctx, lastKeySegment(decoded))
		if err != nil {
			if domain.IsErrorType(err, domain.ErrorTypeNotFound) {
				continue
			}
			return nil, err
		}
		appointments = append(appointments, appointment)
	}

	return appointments, nil
}

// ListAllAppointments returns every appointment in the bucket.
func (s *NatsAppointmentRepository) ListAllAppointments(ctx context.Context) ([]*models.Appointment, error) {
	return s.ListEntities(ctx, func(key string) bool {
		return !s.keys.IsIndexKey(key)
	})
}
