// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/infrastructure/store"
)

const testTranscript = "We reviewed the launch plan and agreed to ship the beta."

func (f *fixture) expectTranscript() {
	f.transcriber.On("Transcribe", mock.Anything, mock.Anything).Return(testTranscript, nil)
}

func (f *fixture) expectSummaryEmail() {
	f.email.On("SendRecordingSummary", mock.Anything, mock.Anything).Return(nil)
}

func (f *fixture) activeRecordingUID(t *testing.T, appointmentUID string) string {
	t.Helper()
	uid, err := f.recordingRepo.GetActiveRecordingUID(f.ctx, appointmentUID)
	if domain.IsErrorType(err, domain.ErrorTypeNotFound) {
		return ""
	}
	require.NoError(t, err)
	return uid
}

var testAudio = AudioUpload{Data: []byte("RIFF....WAVEfmt "), Format: "wav"}

func TestRecordingService_StartRecording(t *testing.T) {
	f := newFixture(t)
	appointment := f.createAppointment(t, f.now, 30*time.Minute)

	recording, err := f.recordings.StartRecording(f.ctx, appointment.UID)
	require.NoError(t, err)
	assert.Equal(t, models.RecordingStatusRecording, recording.Status)
	assert.Equal(t, appointment.UID, recording.AppointmentUID)
	assert.Equal(t, testOwner, recording.OwnerEmail)
	require.NotNil(t, recording.RecordingStartedAt)
	assert.True(t, recording.RecordingStartedAt.Equal(f.now))

	assert.Equal(t, models.AppointmentStatusRecording, f.appointment(t, appointment.UID).Status)
	assert.Equal(t, recording.UID, f.activeRecordingUID(t, appointment.UID))
	f.publisher.AssertCalled(t, "PublishLifecycleEvent", mock.Anything, models.RecordingStartedSubject, mock.Anything)

	_, err = f.recordings.StartRecording(f.ctx, appointment.UID)
	assert.True(t, domain.IsErrorType(err, domain.ErrorTypeConflict))

	recordings, err := f.recordingRepo.ListRecordingsByAppointment(f.ctx, appointment.UID)
	require.NoError(t, err)
	assert.Len(t, recordings, 1)
}

func TestRecordingService_StartRecordingRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.recordings.StartRecording(f.ctx, "missing")
	assert.True(t, domain.IsErrorType(err, domain.ErrorTypeNotFound))

	appointment := f.createAppointment(t, f.now.Add(time.Hour), time.Hour)
	_, err = f.appointments.CancelAppointment(f.ctx, appointment.UID)
	require.NoError(t, err)

	_, err = f.recordings.StartRecording(f.ctx, appointment.UID)
	assert.True(t, domain.IsErrorType(err, domain.ErrorTypeConflict))
	assert.Empty(t, f.activeRecordingUID(t, appointment.UID))
}

func TestRecordingService_StopRecording(t *testing.T) {
	f := newFixture(t)
	appointment := f.createAppointment(t, f.now, 30*time.Minute)
	started, err := f.recordings.StartRecording(f.ctx, appointment.UID)
	require.NoError(t, err)

	f.advance(90 * time.Second)
	stopped, err := f.recordings.StopRecording(f.ctx, started.UID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.RecordingStatusProcessing, stopped.Status)
	assert.Equal(t, 90, stopped.DurationSeconds)
	require.NotNil(t, stopped.RecordingEndedAt)
	assert.True(t, stopped.RecordingEndedAt.Equal(f.now))

	assert.Empty(t, f.activeRecordingUID(t, appointment.UID))
	assert.Equal(t, models.AppointmentStatusCompleted, f.appointment(t, appointment.UID).Status)

	_, err = f.recordings.StopRecording(f.ctx, started.UID, nil)
	assert.True(t, domain.IsErrorType(err, domain.ErrorTypeConflict))

	_, err = f.recordings.StopRecording(f.ctx, "missing", nil)
	assert.True(t, domain.IsErrorType(err, domain.ErrorTypeNotFound))
}

func TestRecordingService_StopRecordingWithAudioProcesses(t *testing.T) {
	f := newFixture(t)
	f.expectTranscript()
	f.expectAnalysis()
	f.expectSummaryEmail()

	appointment := f.createAppointment(t, f.now, 30*time.Minute)
	started, err := f.recordings.StartRecording(f.ctx, appointment.UID)
	require.NoError(t, err)

	f.advance(time.Minute)
	recording, err := f.recordings.StopRecording(f.ctx, started.UID, &testAudio)
	require.NoError(t, err)
	assert.Equal(t, models.RecordingStatusCompleted, recording.Status)
	assert.Equal(t, 60, recording.DurationSeconds)
	assert.Equal(t, "wav", recording.FileFormat)
	assert.EqualValues(t, len(testAudio.Data), recording.FileSize)
	assert.True(t, f.objects.Has(recording.AudioPath))
}

func TestRecordingService_UploadAndProcess(t *testing.T) {
	f := newFixture(t)
	f.expectTranscript()
	f.expectAnalysis()
	f.expectSummaryEmail()

	appointment := f.createAppointment(t, f.now.Add(-time.Hour), 30*time.Minute)

	recording, err := f.recordings.UploadAndProcess(f.ctx, appointment.UID, testAudio)
	require.NoError(t, err)

	assert.Equal(t, models.RecordingStatusCompleted, recording.Status)
	assert.Equal(t, testTranscript, recording.TranscribedText)
	assert.Equal(t, "project_update", recording.Intent)
	require.NotNil(t, recording.IntentConfidence)
	assert.InDelta(t, 0.9, *recording.IntentConfidence, 1e-9)
	assert.Equal(t, "Team shared progress.", recording.IntentSummary)
	assert.Equal(t, "The team reviewed the launch plan.", recording.Summary)
	assert.Equal(t, []string{"launch"}, recording.Keywords)
	assert.Equal(t, []string{"Acme"}, recording.Entities)
	assert.Equal(t, []string{}, recording.DomainTerms)
	assert.Equal(t, []string{"Ship beta"}, recording.ActionItems)
	assert.Equal(t, []string{"Roadmap"}, recording.Topics)
	require.NotNil(t, recording.ProcessedAt)
	assert.Empty(t, recording.ErrorMessage)

	assert.True(t, strings.HasPrefix(recording.AudioPath, "appointment_recordings/"+appointment.UID+"_"))
	assert.True(t, strings.HasSuffix(recording.AudioPath, ".wav"))
	assert.True(t, f.objects.Has(recording.AudioPath))

	stored := f.recording(t, recording.UID)
	assert.Equal(t, models.RecordingStatusCompleted, stored.Status)
	assert.Equal(t, models.AppointmentStatusCompleted, f.appointment(t, appointment.UID).Status)

	f.transcriber.AssertCalled(t, "Transcribe", mock.Anything, mock.MatchedBy(func(a domain.AudioArtifact) bool {
		return a.Format == "wav" && bytes.Equal(a.Data, testAudio.Data)
	}))
	f.email.AssertCalled(t, "SendRecordingSummary", mock.Anything, mock.MatchedBy(func(s domain.EmailRecordingSummary) bool {
		return s.RecipientEmail == testOwner && s.Summary == "The team reviewed the launch plan."
	}))
	f.publisher.AssertCalled(t, "PublishLifecycleEvent", mock.Anything, models.RecordingCompletedSubject, mock.Anything)
}

func TestRecordingService_TranscriptionFailureHaltsPipeline(t *testing.T) {
	f := newFixture(t)
	f.transcriber.On("Transcribe", mock.Anything, mock.Anything).Return("", errors.New("provider returned 500"))

	appointment := f.createAppointment(t, f.now.Add(-time.Hour), 30*time.Minute)

	recording, err := f.recordings.UploadAndProcess(f.ctx, appointment.UID, testAudio)
	require.Error(t, err)
	assert.True(t, domain.IsErrorType(err, domain.ErrorTypeTranscription))

	require.NotNil(t, recording)
	assert.Equal(t, models.RecordingStatusFailed, recording.Status)
	assert.Contains(t, recording.ErrorMessage, "transcription failed")
	assert.Empty(t, recording.TranscribedText)
	assert.Empty(t, recording.Summary)
	assert.Empty(t, recording.Intent)
	assert.Nil(t, recording.IntentConfidence)
	assert.Empty(t, recording.Keywords)
	assert.Empty(t, recording.ActionItems)

	f.completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	f.email.AssertNotCalled(t, "SendRecordingSummary", mock.Anything, mock.Anything)
	f.publisher.AssertCalled(t, "PublishLifecycleEvent", mock.Anything, models.RecordingFailedSubject, mock.Anything)
}

func TestRecordingService_AnalysisFailuresAreNotFatal(t *testing.T) {
	t.Run("entity extraction fails", func(t *testing.T) {
		f := newFixture(t)
		f.expectTranscript()
		f.expectSummaryEmail()
		f.completer.On("Complete", mock.Anything, mock.MatchedBy(isIntentRequest)).
			Return(`{"intent": "status", "confidence": 0.7, "summary": "Status."}`, nil)
		f.completer.On("Complete", mock.Anything, mock.MatchedBy(isEntityRequest)).
			Return("", errors.New("rate limited"))
		f.completer.On("Complete", mock.Anything, mock.MatchedBy(isSummaryRequest)).
			Return("Full summary.", nil)

		appointment := f.createAppointment(t, f.now.Add(-time.Hour), 30*time.Minute)
		recording, err := f.recordings.UploadAndProcess(f.ctx, appointment.UID, testAudio)
		require.NoError(t, err)
		assert.Equal(t, models.RecordingStatusCompleted, recording.Status)
		assert.Equal(t, "status", recording.Intent)
		assert.Equal(t, "Full summary.", recording.Summary)
		assert.Equal(t, []string{}, recording.Keywords)
		assert.Equal(t, []string{}, recording.ActionItems)
	})

	t.Run("summary falls back to the intent summary", func(t *testing.T) {
		f := newFixture(t)
		f.expectTranscript()
		f.expectSummaryEmail()
		f.completer.On("Complete", mock.Anything, mock.MatchedBy(isIntentRequest)).
			Return(`{"intent": "status", "confidence": 0.7, "summary": "Status."}`, nil)
		f.completer.On("Complete", mock.Anything, mock.MatchedBy(isEntityRequest)).
			Return(`{"keywords": ["status"]}`, nil)
		f.completer.On("Complete", mock.Anything, mock.MatchedBy(isSummaryRequest)).
			Return("", errors.New("timeout"))

		appointment := f.createAppointment(t, f.now.Add(-time.Hour), 30*time.Minute)
		recording, err := f.recordings.UploadAndProcess(f.ctx, appointment.UID, testAudio)
		require.NoError(t, err)
		assert.Equal(t, models.RecordingStatusCompleted, recording.Status)
		assert.Equal(t, "Status.", recording.Summary)
		assert.Equal(t, []string{"status"}, recording.Keywords)
	})

	t.Run("summary email failure keeps the result", func(t *testing.T) {
		f := newFixture(t)
		f.expectTranscript()
		f.expectAnalysis()
		f.email.On("SendRecordingSummary", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

		appointment := f.createAppointment(t, f.now.Add(-time.Hour), 30*time.Minute)
		recording, err := f.recordings.UploadAndProcess(f.ctx, appointment.UID, testAudio)
		require.NoError(t, err)
		assert.Equal(t, models.RecordingStatusCompleted, f.recording(t, recording.UID).Status)
	})
}

func TestRecordingService_CancelledAppointmentStaysCancelled(t *testing.T) {
	f := newFixture(t)
	f.expectTranscript()
	f.expectAnalysis()
	f.expectSummaryEmail()

	appointment := f.createAppointment(t, f.now.Add(time.Hour), 30*time.Minute)
	_, err := f.appointments.CancelAppointment(f.ctx, appointment.UID)
	require.NoError(t, err)

	recording, err := f.recordings.UploadAndProcess(f.ctx, appointment.UID, testAudio)
	require.NoError(t, err)
	assert.Equal(t, models.RecordingStatusCompleted, recording.Status)
	assert.Equal(t, models.AppointmentStatusCancelled, f.appointment(t, appointment.UID).Status)
}

func TestRecordingService_UploadValidation(t *testing.T) {
	tests := []struct {
		name  string
		audio AudioUpload
	}{
		{name: "empty", audio: AudioUpload{Format: "wav"}},
		{name: "too large", audio: AudioUpload{Data: make([]byte, models.MaxAudioUploadBytes+1), Format: "wav"}},
		{name: "unsupported format", audio: AudioUpload{Data: []byte("data"), Format: "exe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			appointment := f.createAppointment(t, f.now, time.Hour)

			_, err := f.recordings.UploadAndProcess(f.ctx, appointment.UID, tt.audio)
			assert.True(t, domain.IsErrorType(err, domain.ErrorTypeValidation))

			recordings, err := f.recordingRepo.ListRecordingsByAppointment(f.ctx, appointment.UID)
			require.NoError(t, err)
			assert.Empty(t, recordings)
		})
	}

	t.Run("unknown appointment", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.recordings.UploadAndProcess(f.ctx, "missing", testAudio)
		assert.True(t, domain.IsErrorType(err, domain.ErrorTypeNotFound))
	})
}

func TestRecordingService_UploadAttachesToStoppedRecording(t *testing.T) {
	f := newFixture(t)
	f.expectTranscript()
	f.expectAnalysis()
	f.expectSummaryEmail()

	appointment := f.createAppointment(t, f.now.Add(-25*time.Minute), 20*time.Minute)
	started, err := f.recordings.StartRecording(f.ctx, appointment.UID)
	require.NoError(t, err)

	stopped, err := f.recordings.StopActiveRecording(f.ctx, appointment.UID)
	require.NoError(t, err)
	require.NotNil(t, stopped)
	assert.Equal(t, started.UID, stopped.UID)
	assert.Equal(t, models.RecordingStatusProcessing, stopped.Status)
	assert.Empty(t, stopped.AudioPath)

	f.advance(time.Minute)
	processed, err := f.recordings.UploadAndProcess(f.ctx, appointment.UID, testAudio)
	require.NoError(t, err)
	assert.Equal(t, started.UID, processed.UID)
	assert.Equal(t, models.RecordingStatusCompleted, processed.Status)

	recordings, err := f.recordingRepo.ListRecordingsByAppointment(f.ctx, appointment.UID)
	require.NoError(t, err)
	assert.Len(t, recordings, 1)
}

func TestRecordingService_ProcessRecordingWithoutAudio(t *testing.T) {
	f := newFixture(t)
	appointment := f.createAppointment(t, f.now, 30*time.Minute)
	started, err := f.recordings.StartRecording(f.ctx, appointment.UID)
	require.NoError(t, err)
	_, err = f.recordings.StopRecording(f.ctx, started.UID, nil)
	require.NoError(t, err)

	recording, err := f.recordings.ProcessRecording(f.ctx, started.UID)
	assert.True(t, domain.IsErrorType(err, domain.ErrorTypeValidation))
	assert.EqualError(t, err, "No audio file to process")
	require.NotNil(t, recording)
	assert.Equal(t, models.RecordingStatusFailed, recording.Status)
	assert.Equal(t, "No audio file to process", recording.ErrorMessage)

	_, err = f.recordings.ProcessRecording(f.ctx, started.UID)
	assert.True(t, domain.IsErrorType(err, domain.ErrorTypeConflict))
}

func TestRecordingService_StopActiveRecordingWithoutRecording(t *testing.T) {
	f := newFixture(t)
	appointment := f.createAppointment(t, f.now.Add(-time.Hour), 30*time.Minute)

	recording, err := f.recordings.StopActiveRecording(f.ctx, appointment.UID)
	require.NoError(t, err)
	assert.Nil(t, recording)
	assert.Equal(t, models.AppointmentStatusCompleted, f.appointment(t, appointment.UID).Status)
}

func TestRecordingService_GetRecordingByAppointment(t *testing.T) {
	f := newFixture(t)
	f.transcriber.On("Transcribe", mock.Anything, mock.Anything).Return("", domain.NewTranscriptionError("bad audio"))

	appointment := f.createAppointment(t, f.now.Add(-time.Hour), 30*time.Minute)

	none, err := f.recordings.GetRecordingByAppointment(f.ctx, appointment.UID)
	require.NoError(t, err)
	assert.Nil(t, none)

	first, _ := f.recordings.UploadAndProcess(f.ctx, appointment.UID, testAudio)
	require.NotNil(t, first)
	f.advance(time.Minute)
	second, _ := f.recordings.UploadAndProcess(f.ctx, appointment.UID, testAudio)
	require.NotNil(t, second)

	latest, err := f.recordings.GetRecordingByAppointment(f.ctx, appointment.UID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.UID, latest.UID)

	_, err = f.recordings.GetRecordingByAppointment(f.ctx, "")
	assert.True(t, domain.IsErrorType(err, domain.ErrorTypeValidation))
}

func TestRecordingService_GetRecordingsSummary(t *testing.T) {
	f := newFixture(t)
	f.expectTranscript()
	f.expectAnalysis()
	f.expectSummaryEmail()

	recorded := f.createAppointment(t, f.now.Add(-2*time.Hour), 45*time.Minute)
	f.createAppointment(t, f.now.Add(-time.Hour), 30*time.Minute)

	recording, err := f.recordings.UploadAndProcess(f.ctx, recorded.UID, testAudio)
	require.NoError(t, err)

	summaries, err := f.recordings.GetRecordingsSummary(f.ctx, testOwner, nil, nil)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, models.RecordingSummary{
		AppointmentUID:  recorded.UID,
		RecordingUID:    recording.UID,
		Title:           "Weekly sync",
		StartTime:       recorded.StartTime,
		DurationMinutes: 45,
		Summary:         "The team reviewed the launch plan.",
		Intent:          "project_update",
		Keywords:        []string{"launch"},
		ActionItems:     []string{"Ship beta"},
		Topics:          []string{"Roadmap"},
	}, summaries[0])

	from := f.now.Add(-90 * time.Minute)
	summaries, err = f.recordings.GetRecordingsSummary(f.ctx, testOwner, &from, nil)
	require.NoError(t, err)
	assert.Empty(t, summaries)

	_, err = f.recordings.GetRecordingsSummary(f.ctx, "", nil, nil)
	assert.True(t, domain.IsErrorType(err, domain.ErrorTypeValidation))
}

func TestRecordingService_DeleteRecording(t *testing.T) {
	f := newFixture(t)
	f.expectTranscript()
	f.expectAnalysis()
	f.expectSummaryEmail()

	appointment := f.createAppointment(t, f.now.Add(-time.Hour), 30*time.Minute)
	recording, err := f.recordings.UploadAndProcess(f.ctx, appointment.UID, testAudio)
	require.NoError(t, err)

	require.NoError(t, f.recordings.DeleteRecording(f.ctx, recording.UID))
	assert.False(t, f.objects.Has(recording.AudioPath))

	_, err = f.recordings.GetRecording(f.ctx, recording.UID)
	assert.True(t, domain.IsErrorType(err, domain.ErrorTypeNotFound))

	err = f.recordings.DeleteRecording(f.ctx, recording.UID)
	assert.True(t, domain.IsErrorType(err, domain.ErrorTypeNotFound))

	// The appointment survives its recordings.
	assert.Equal(t, models.AppointmentStatusCompleted, f.appointment(t, appointment.UID).Status)
}

func TestRecordingService_DeleteActiveRecordingRejected(t *testing.T) {
	f := newFixture(t)
	appointment := f.createAppointment(t, f.now, 30*time.Minute)

	recording, err := f.recordings.StartRecording(f.ctx, appointment.UID)
	require.NoError(t, err)

	err = f.recordings.DeleteRecording(f.ctx, recording.UID)
	assert.True(t, domain.IsErrorType(err, domain.ErrorTypeConflict))
	assert.Equal(t, models.RecordingStatusRecording, f.recording(t, recording.UID).Status)
}

// cancelOnClaimKV cancels the caller's context right after a recording
// claim is stored.
type cancelOnClaimKV struct {
	*store.MockKeyValue
	cancel context.CancelFunc
}

func (kv *cancelOnClaimKV) Create(ctx context.Context, key string, data []byte, opts ...jetstream.KVCreateOpt) (uint64, error) {
	revision, err := kv.MockKeyValue.Create(ctx, key, data, opts...)
	if err == nil && strings.HasPrefix(key, store.KeyPrefixActive+"/") {
		kv.cancel()
	}
	return revision, err
}

func TestRecordingService_StartRecordingSurvivesCancelledCaller(t *testing.T) {
	f := newFixture(t)
	appointment := f.createAppointment(t, f.now, 30*time.Minute)

	ctx, cancel := context.WithCancel(f.ctx)
	defer cancel()
	f.recordingRepo = store.NewNatsRecordingRepository(&cancelOnClaimKV{MockKeyValue: f.recordingKV, cancel: cancel})
	f.recordings.recordingRepository = f.recordingRepo

	recording, err := f.recordings.StartRecording(ctx, appointment.UID)
	require.NoError(t, err)
	assert.Error(t, ctx.Err())

	assert.Equal(t, models.RecordingStatusRecording, f.recording(t, recording.UID).Status)
	assert.Equal(t, recording.UID, f.activeRecordingUID(t, appointment.UID))
	assert.Equal(t, models.AppointmentStatusRecording, f.appointment(t, appointment.UID).Status)
}

func TestRecordingService_StartRecordingTakesOverStaleClaim(t *testing.T) {
	t.Run("claimed recording was deleted", func(t *testing.T) {
		f := newFixture(t)
		appointment := f.createAppointment(t, f.now, 30*time.Minute)
		f.recordingKV.Seed(store.KeyPrefixActive+"/"+appointment.UID, []byte("deleted-recording"))

		recording, err := f.recordings.StartRecording(f.ctx, appointment.UID)
		require.NoError(t, err)
		assert.Equal(t, recording.UID, f.activeRecordingUID(t, appointment.UID))
		assert.Equal(t, models.AppointmentStatusRecording, f.appointment(t, appointment.UID).Status)

		recordings, err := f.recordingRepo.ListRecordingsByAppointment(f.ctx, appointment.UID)
		require.NoError(t, err)
		assert.Len(t, recordings, 1)
	})

	t.Run("claimed recording already failed", func(t *testing.T) {
		f := newFixture(t)
		appointment := f.createAppointment(t, f.now, 30*time.Minute)
		failed := newRecording(appointment, models.RecordingStatusFailed, f.now)
		require.NoError(t, f.recordingRepo.CreateRecording(f.ctx, failed))
		f.recordingKV.Seed(store.KeyPrefixActive+"/"+appointment.UID, []byte(failed.UID))

		recording, err := f.recordings.StartRecording(f.ctx, appointment.UID)
		require.NoError(t, err)
		assert.Equal(t, recording.UID, f.activeRecordingUID(t, appointment.UID))
	})
}

func TestRecordingService_ProcessingOutlivesCancelledCaller(t *testing.T) {
	t.Run("transcription error is stored on the recording", func(t *testing.T) {
		f := newFixture(t)
		appointment := f.createAppointment(t, f.now.Add(-time.Hour), 30*time.Minute)

		ctx, cancel := context.WithCancel(f.ctx)
		defer cancel()
		f.transcriber.On("Transcribe", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { cancel() }).
			Return("", context.Canceled)

		recording, err := f.recordings.UploadAndProcess(ctx, appointment.UID, testAudio)
		require.Error(t, err)
		assert.True(t, domain.IsErrorType(err, domain.ErrorTypeTranscription))
		require.NotNil(t, recording)

		stored := f.recording(t, recording.UID)
		assert.Equal(t, models.RecordingStatusFailed, stored.Status)
		assert.Contains(t, stored.ErrorMessage, "context canceled")
	})

	t.Run("pipeline completes after the caller leaves", func(t *testing.T) {
		f := newFixture(t)
		f.expectAnalysis()
		f.expectSummaryEmail()
		appointment := f.createAppointment(t, f.now.Add(-time.Hour), 30*time.Minute)

		ctx, cancel := context.WithCancel(f.ctx)
		defer cancel()
		f.transcriber.On("Transcribe", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { cancel() }).
			Return(testTranscript, nil)

		recording, err := f.recordings.UploadAndProcess(ctx, appointment.UID, testAudio)
		require.NoError(t, err)

		stored := f.recording(t, recording.UID)
		assert.Equal(t, models.RecordingStatusCompleted, stored.Status)
		assert.Equal(t, testTranscript, stored.TranscribedText)
		assert.Equal(t, models.AppointmentStatusCompleted, f.appointment(t, appointment.UID).Status)
	})
}
