// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"github.com/nats-io/nats.go"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
)

// NatsMsg wraps a NATS message so that it satisfies [domain.Message].
type NatsMsg struct {
	*nats.Msg
}

var _ domain.Message = (*NatsMsg)(nil)

// NewNatsMsg wraps the given NATS message.
func NewNatsMsg(msg *nats.Msg) *NatsMsg {
	return &NatsMsg{Msg: msg}
}

// Subject returns the subject the message was received on.
func (m *NatsMsg) Subject() string {
	return m.Msg.Subject
}

// Data returns the message payload.
func (m *NatsMsg) Data() []byte {
	return m.Msg.Data
}

// Respond sends a reply to the requester.
func (m *NatsMsg) Respond(data []byte) error {
	return m.Msg.Respond(data)
}

// HasReply reports whether the sender expects a reply.
func (m *NatsMsg) HasReply() bool {
	return m.Msg.Reply != ""
}
