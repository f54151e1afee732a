// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain/models"
)

// NatsConversationRepository is the NATS KV store repository for conversations.
type NatsConversationRepository struct {
	*NatsBaseRepository[models.Conversation]
}

// NewNatsConversationRepository creates a new NATS KV store repository for conversations.
func NewNatsConversationRepository(kvStore INatsKeyValue) *NatsConversationRepository {
	return &NatsConversationRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.Conversation](kvStore, "conversation"),
	}
}

// CreateConversation stores a new conversation.
func (s *NatsConversationRepository) CreateConversation(ctx context.Context, conversation *models.Conversation) error {
	exists, err := s.Exists(ctx, conversation.UID)
	if err != nil {
		return err
	}
	if exists {
		return domain.NewConflictError("conversation already exists")
	}
	return s.Create(ctx, conversation.UID, conversation)
}

// GetConversation retrieves a conversation by UID.
func (s *NatsConversationRepository) GetConversation(ctx context.Context, conversationUID string) (*models.Conversation, error) {
	return s.Get(ctx, conversationUID)
}

// ConversationExists reports whether a conversation is stored under the UID.
func (s *NatsConversationRepository) ConversationExists(ctx context.Context, conversationUID string) (bool, error) {
	if conversationUID == "" {
		return false, nil
	}
	return s.Exists(ctx, conversationUID)
}

// DeleteConversation removes a conversation.
func (s *NatsConversationRepository) DeleteConversation(ctx context.Context, conversationUID string) error {
	return s.Delete(ctx, conversationUID, 0)
}
