// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain/models"
)

// MockEmailService implements EmailService for testing
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendAppointmentReminder(ctx context.Context, reminder EmailAppointmentReminder) error {
	args := m.Called(ctx, reminder)
	return args.Error(0)
}

func (m *MockEmailService) SendRecordingStarted(ctx context.Context, started EmailRecordingStarted) error {
	args := m.Called(ctx, started)
	return args.Error(0)
}

func (m *MockEmailService) SendRecordingSummary(ctx context.Context, summary EmailRecordingSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

// MockTranscriber implements Transcriber for testing
type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audio AudioArtifact) (string, error) {
	args := m.Called(ctx, audio)
	return args.String(0), args.Error(1)
}

func (m *MockTranscriber) IsReady() bool {
	return true
}

// MockCompleter implements Completer for testing
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, request CompletionRequest) (string, error) {
	args := m.Called(ctx, request)
	return args.String(0), args.Error(1)
}

func (m *MockCompleter) IsReady() bool {
	return true
}

// MockEventPublisher implements EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishLifecycleEvent(ctx context.Context, subject string, event models.LifecycleEvent) error {
	args := m.Called(ctx, subject, event)
	return args.Error(0)
}

// MockMessage implements Message for testing
type MockMessage struct {
	mock.Mock
	data    []byte
	subject string
}

// NewMockMessage creates a mock message for testing
func NewMockMessage(data []byte, subject string) *MockMessage {
	return &MockMessage{data: data, subject: subject}
}

func (m *MockMessage) Subject() string {
	return m.subject
}

func (m *MockMessage) Data() []byte {
	return m.data
}

func (m *MockMessage) HasReply() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockMessage) Respond(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}
