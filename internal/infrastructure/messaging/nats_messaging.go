// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"
	"log/slog"
	"time"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/logging"
	"github.com/vmihailenco/msgpack/v5"
)

// INatsConn is a NATS connection interface needed for publishing lifecycle events.
type INatsConn interface {
	IsConnected() bool
	Publish(subj string, data []byte) error
}

// MessageBuilder is the builder for the message and sends it to the NATS server.
type MessageBuilder struct {
	NatsConn INatsConn
	now      func() time.Time
}

var _ domain.EventPublisher = (*MessageBuilder)(nil)

// NewMessageBuilder creates a new MessageBuilder.
func NewMessageBuilder(natsConn INatsConn) *MessageBuilder {
	return &MessageBuilder{
		NatsConn: natsConn,
		now:      time.Now,
	}
}

// sendMessage sends the message to the NATS server.
func (m *MessageBuilder) sendMessage(ctx context.Context, subject string, data []byte) error {
	err := m.NatsConn.Publish(subject, data)
	if err != nil {
		slog.ErrorContext(ctx, "error sending message to NATS", logging.ErrKey, err, "subject", subject)
		return err
	}
	slog.DebugContext(ctx, "sent message to NATS", "subject", subject)
	return nil
}

// PublishLifecycleEvent encodes the event with msgpack and publishes it on the given subject.
func (m *MessageBuilder) PublishLifecycleEvent(ctx context.Context, subject string, event models.LifecycleEvent) error {
	if m.NatsConn == nil || !m.NatsConn.IsConnected() {
		return domain.NewUnavailableError("NATS connection is not available")
	}

	if event.OccurredAt.IsZero() {
		now := time.Now
		if m.now != nil {
			now = m.now
		}
		event.OccurredAt = now().UTC()
	}

	data, err := msgpack.Marshal(event)
	if err != nil {
		slog.ErrorContext(ctx, "error encoding lifecycle event", logging.ErrKey, err, "subject", subject)
		return domain.NewInternalError("failed to encode lifecycle event", err)
	}

	return m.sendMessage(ctx, subject, data)
}

// DecodeLifecycleEvent decodes a msgpack encoded lifecycle event payload.
func DecodeLifecycleEvent(data []byte) (models.LifecycleEvent, error) {
	var event models.LifecycleEvent
	if err := msgpack.Unmarshal(data, &event); err != nil {
		return models.LifecycleEvent{}, domain.NewValidationError("invalid lifecycle event payload", err)
	}
	return event, nil
}
