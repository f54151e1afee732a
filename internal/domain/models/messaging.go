// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "time"

// NATS subjects that the voice calendar service publishes lifecycle events on.
const (
	// AppointmentReminderSentSubject is published once the reminder transition is committed.
	// The subject is of the form: lfx.voice-calendar.appointment.reminder_sent
	AppointmentReminderSentSubject = "lfx.voice-calendar.appointment.reminder_sent"

	// AppointmentCancelledSubject is published when an appointment is cancelled.
	// The subject is of the form: lfx.voice-calendar.appointment.cancelled
	AppointmentCancelledSubject = "lfx.voice-calendar.appointment.cancelled"

	// RecordingStartedSubject is published when a recording starts.
	// The subject is of the form: lfx.voice-calendar.recording.started
	RecordingStartedSubject = "lfx.voice-calendar.recording.started"

	// RecordingStoppedSubject is published when a recording stops and moves to processing.
	// The subject is of the form: lfx.voice-calendar.recording.stopped
	RecordingStoppedSubject = "lfx.voice-calendar.recording.stopped"

	// RecordingCompletedSubject is published when the processing pipeline completes.
	// The subject is of the form: lfx.voice-calendar.recording.completed
	RecordingCompletedSubject = "lfx.voice-calendar.recording.completed"

	// RecordingFailedSubject is published when a recording is marked failed.
	// The subject is of the form: lfx.voice-calendar.recording.failed
	RecordingFailedSubject = "lfx.voice-calendar.recording.failed"
)

// NATS subjects that the voice calendar service handles.
const (
	// SchedulerTickSubject triggers a single scheduler pass on demand.
	SchedulerTickSubject = "lfx.voice-calendar.scheduler.tick"

	// GetRecordingSubject returns the latest recording of an appointment.
	// The request payload is the appointment UID.
	GetRecordingSubject = "lfx.voice-calendar.recording.get"

	// GetAppointmentTitleSubject returns the title of an appointment.
	// The request payload is the appointment UID.
	GetAppointmentTitleSubject = "lfx.voice-calendar.appointment.get_title"
)

// LifecycleEvent is the payload published on every lifecycle subject.
// It is encoded with msgpack.
type LifecycleEvent struct {
	AppointmentUID    string            `msgpack:"appointment_uid"`
	RecordingUID      string            `msgpack:"recording_uid,omitempty"`
	OwnerEmail        string            `msgpack:"owner_email"`
	AppointmentStatus AppointmentStatus `msgpack:"appointment_status"`
	RecordingStatus   RecordingStatus   `msgpack:"recording_status,omitempty"`
	ErrorMessage      string            `msgpack:"error_message,omitempty"`
	OccurredAt        time.Time         `msgpack:"occurred_at"`
}
