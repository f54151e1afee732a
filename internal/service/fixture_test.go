// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/infrastructure/store"
)

const testOwner = "owner@example.com"

// fixture wires every service over in-memory stores and mocked providers.
type fixture struct {
	ctx context.Context
	now time.Time

	appointmentKV  *store.MockKeyValue
	recordingKV    *store.MockKeyValue
	conversationKV *store.MockKeyValue
	objects        *store.MockObjectStore

	appointmentRepo  *store.NatsAppointmentRepository
	recordingRepo    *store.NatsRecordingRepository
	conversationRepo *store.NatsConversationRepository

	transcriber *domain.MockTranscriber
	completer   *domain.MockCompleter
	email       *domain.MockEmailService
	publisher   *domain.MockEventPublisher

	appointments  *AppointmentService
	conversations *ConversationService
	notifier      *Notifier
	recordings    *RecordingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		ctx:            context.Background(),
		now:            time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC),
		appointmentKV:  store.NewMockKeyValue(),
		recordingKV:    store.NewMockKeyValue(),
		conversationKV: store.NewMockKeyValue(),
		objects:        store.NewMockObjectStore(),
		transcriber:    new(domain.MockTranscriber),
		completer:      new(domain.MockCompleter),
		email:          new(domain.MockEmailService),
		publisher:      new(domain.MockEventPublisher),
	}
	f.appointmentRepo = store.NewNatsAppointmentRepository(f.appointmentKV)
	f.recordingRepo = store.NewNatsRecordingRepository(f.recordingKV)
	f.conversationRepo = store.NewNatsConversationRepository(f.conversationKV)
	audio := store.NewNatsAudioStorage(f.objects)

	f.publisher.On("PublishLifecycleEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	config := ServiceConfig{AppBaseURL: "https://app.example.com", DefaultTimezone: "UTC"}
	clock := func() time.Time { return f.now }

	f.appointments = NewAppointmentService(f.appointmentRepo, f.recordingRepo, audio, f.publisher, config)
	f.appointments.now = clock
	f.conversations = NewConversationService(f.appointmentRepo, f.conversationRepo)
	f.conversations.now = clock
	f.notifier = NewNotifier(f.email, config)
	f.recordings = NewRecordingService(
		f.appointmentRepo,
		f.recordingRepo,
		audio,
		f.transcriber,
		NewAnalyzer(f.completer, "summary-model"),
		f.appointments,
		f.notifier,
		f.publisher,
	)
	f.recordings.now = clock

	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// createAppointment stores an auto recorded appointment starting at start.
func (f *fixture) createAppointment(t *testing.T, start time.Time, duration time.Duration) *models.Appointment {
	t.Helper()
	appointment, err := f.appointments.CreateAppointment(f.ctx, CreateAppointmentInput{
		OwnerEmail: testOwner,
		Title:      "Weekly sync",
		StartTime:  start,
		EndTime:    start.Add(duration),
	})
	require.NoError(t, err)
	return appointment
}

func (f *fixture) appointment(t *testing.T, uid string) *models.Appointment {
	t.Helper()
	appointment, err := f.appointmentRepo.GetAppointment(f.ctx, uid)
	require.NoError(t, err)
	return appointment
}

func (f *fixture) recording(t *testing.T, uid string) *models.Recording {
	t.Helper()
	recording, err := f.recordingRepo.GetRecording(f.ctx, uid)
	require.NoError(t, err)
	return recording
}

func isIntentRequest(r domain.CompletionRequest) bool {
	return r.MaxTokens == intentMaxTokens && r.Temperature == intentTemperature
}

func isEntityRequest(r domain.CompletionRequest) bool {
	return r.MaxTokens == entityMaxTokens && r.Temperature == entityTemperature
}

func isSummaryRequest(r domain.CompletionRequest) bool {
	return r.Temperature == summaryTemperature
}

// expectAnalysis programs the completer with successful responses for every step.
func (f *fixture) expectAnalysis() {
	f.completer.On("Complete", mock.Anything, mock.MatchedBy(isIntentRequest)).
		Return("```json\n{\"intent\": \"project_update\", \"confidence\": 0.9, \"summary\": \"Team shared progress.\"}\n```", nil)
	f.completer.On("Complete", mock.Anything, mock.MatchedBy(isEntityRequest)).
		Return(`{"keywords": ["launch"], "entities": ["Acme"], "domain_terms": [], "action_items": ["Ship beta"], "topics": ["Roadmap"]}`, nil)
	f.completer.On("Complete", mock.Anything, mock.MatchedBy(isSummaryRequest)).
		Return("The team reviewed the launch plan.", nil)
}
