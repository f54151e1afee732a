// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/logging"
)

// keyedMutex serializes work per key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// ConversationService links every appointment to exactly one conversation.
type ConversationService struct {
	appointmentRepository  domain.AppointmentRepository
	conversationRepository domain.ConversationRepository
	locks                  keyedMutex
	now                    func() time.Time
}

// NewConversationService creates a new ConversationService.
func NewConversationService(
	appointmentRepository domain.AppointmentRepository,
	conversationRepository domain.ConversationRepository,
) *ConversationService {
	return &ConversationService{
		appointmentRepository:  appointmentRepository,
		conversationRepository: conversationRepository,
		now:                    time.Now,
	}
}

// ServiceReady checks if the service is ready to serve requests.
func (s *ConversationService) ServiceReady() bool {
	return s.appointmentRepository != nil && s.conversationRepository != nil
}

// EnsureConversation returns the conversation linked to the appointment,
// creating and linking a new one when there is none or the linked one no
// longer exists. Repeated and concurrent calls yield the same conversation.
func (s *ConversationService) EnsureConversation(ctx context.Context, appointmentUID string) (*models.Conversation, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}
	if appointmentUID == "" {
		return nil, domain.NewValidationError("appointment UID is required")
	}

	unlock := s.locks.lock(appointmentUID)
	defer unlock()

	ctx = logging.AppendCtx(ctx, slog.String("appointment_uid", appointmentUID))

	appointment, err := s.appointmentRepository.GetAppointment(ctx, appointmentUID)
	if err != nil {
		return nil, err
	}

	if conversation, ok, err := s.linkedConversation(ctx, appointment.ConversationUID); err != nil || ok {
		return conversation, err
	}
	staleUID := appointment.ConversationUID

	now := s.now().UTC()
	conversation := &models.Conversation{
		UID:            uuid.New().String(),
		OwnerEmail:     appointment.OwnerEmail,
		Title:          models.AppointmentConversationTitle(appointment),
		TotalMessages:  0,
		AppointmentUID: appointment.UID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.conversationRepository.CreateConversation(ctx, conversation); err != nil {
		slog.ErrorContext(ctx, "error creating conversation", logging.ErrKey, err)
		return nil, err
	}

	// Another writer may have linked a conversation since the read above.
	var winnerUID string
	_, _, err = modifyAppointment(ctx, s.appointmentRepository, appointmentUID, now, func(a *models.Appointment) error {
		if a.ConversationUID != staleUID {
			winnerUID = a.ConversationUID
			return errNoChange
		}
		a.ConversationUID = conversation.UID
		return nil
	})
	if err != nil {
		s.discardConversation(ctx, conversation.UID)
		slog.ErrorContext(ctx, "error linking conversation to appointment", logging.ErrKey, err)
		return nil, err
	}

	if winnerUID != "" {
		s.discardConversation(ctx, conversation.UID)
		winner, ok, err := s.linkedConversation(ctx, winnerUID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.NewConflictError("appointment conversation changed concurrently")
		}
		return winner, nil
	}

	slog.InfoContext(ctx, "created conversation for appointment",
		"conversation_uid", conversation.UID,
		"replaced_conversation_uid", staleUID,
	)
	return conversation, nil
}

// linkedConversation loads the conversation with the given UID. It reports
// false without error when the UID is empty or the conversation is gone.
func (s *ConversationService) linkedConversation(ctx context.Context, conversationUID string) (*models.Conversation, bool, error) {
	if conversationUID == "" {
		return nil, false, nil
	}
	conversation, err := s.conversationRepository.GetConversation(ctx, conversationUID)
	if err == nil {
		return conversation, true, nil
	}
	if domain.IsErrorType(err, domain.ErrorTypeNotFound) {
		slog.WarnContext(ctx, "linked conversation not found, creating a new one", "conversation_uid", conversationUID)
		return nil, false, nil
	}
	return nil, false, err
}

func (s *ConversationService) discardConversation(ctx context.Context, conversationUID string) {
	if err := s.conversationRepository.DeleteConversation(ctx, conversationUID); err != nil &&
		!domain.IsErrorType(err, domain.ErrorTypeNotFound) {
		slog.WarnContext(ctx, "failed to delete orphaned conversation", logging.ErrKey, err, "conversation_uid", conversationUID)
	}
}
