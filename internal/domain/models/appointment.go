// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"slices"
	"strings"
	"time"
)

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

// Appointment statuses. The happy path is
// scheduled -> reminder_sent -> recording -> completed, and cancelled is
// reachable from scheduled or reminder_sent.
const (
	AppointmentStatusScheduled    AppointmentStatus = "scheduled"
	AppointmentStatusReminderSent AppointmentStatus = "reminder_sent"
	AppointmentStatusRecording    AppointmentStatus = "recording"
	AppointmentStatusCompleted    AppointmentStatus = "completed"
	AppointmentStatusCancelled    AppointmentStatus = "cancelled"
)

// Appointment defaults applied on create.
const (
	DefaultReminderMinutesBefore = 5
	DefaultAppointmentColor      = "#8B5CF6"
)

// Valid reports whether s is a known appointment status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusReminderSent, AppointmentStatusRecording,
		AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

// Appointment is a scheduled, time boxed meeting owned by a user that may be
// recorded automatically.
type Appointment struct {
	UID                   string            `json:"uid"`
	OwnerEmail            string            `json:"owner_email"`
	Title                 string            `json:"title"`
	Description           string            `json:"description,omitempty"`
	StartTime             time.Time         `json:"start_time"`
	EndTime               time.Time         `json:"end_time"`
	DurationMinutes       int               `json:"duration_minutes"`
	AutoRecord            bool              `json:"auto_record"`
	ReminderMinutesBefore int               `json:"reminder_minutes_before"`
	ReminderSent          bool              `json:"reminder_sent"`
	ReminderSentAt        *time.Time        `json:"reminder_sent_at,omitempty"`
	Status                AppointmentStatus `json:"status"`
	Color                 string            `json:"color,omitempty"`
	Location              string            `json:"location,omitempty"`
	Attendees             []string          `json:"attendees,omitempty"`
	Notes                 string            `json:"notes,omitempty"`
	ConversationUID       string            `json:"conversation_uid,omitempty"`
	ConversationLinkSent  bool              `json:"conversation_link_sent"`
	BaseURL               string            `json:"base_url,omitempty"` // overrides the service default for conversation links

	// Recurrence is an RFC 5545 RRULE body such as "FREQ=WEEKLY;COUNT=4".
	Recurrence        string     `json:"recurrence,omitempty"`
	SeriesUID         string     `json:"series_uid,omitempty"`
	SeriesStartTime   *time.Time `json:"series_start_time,omitempty"`
	NextOccurrenceUID string     `json:"next_occurrence_uid,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ComputeDuration recomputes DurationMinutes from the start and end times.
func (a *Appointment) ComputeDuration() {
	a.DurationMinutes = int(a.EndTime.Sub(a.StartTime) / time.Minute)
}

// HasValidTimeRange reports whether the end time is strictly after the start time.
func (a *Appointment) HasValidTimeRange() bool {
	return !a.StartTime.IsZero() && !a.EndTime.IsZero() && a.EndTime.After(a.StartTime)
}

// ReminderWindowStart is the instant from which a reminder becomes due.
func (a *Appointment) ReminderWindowStart() time.Time {
	return a.StartTime.Add(-time.Duration(a.ReminderMinutesBefore) * time.Minute)
}

// IsDueForReminder reports whether a reminder should be sent at now:
// the appointment is scheduled, auto recorded, not yet reminded, and now is in
// [start - lead, start).
func (a *Appointment) IsDueForReminder(now time.Time) bool {
	if a.Status != AppointmentStatusScheduled || a.ReminderSent || !a.AutoRecord {
		return false
	}
	return !now.Before(a.ReminderWindowStart()) && now.Before(a.StartTime)
}

// IsDueToStartRecording reports whether recording should start at now:
// the appointment is scheduled or reminded, auto recorded, and now is in [start, end].
func (a *Appointment) IsDueToStartRecording(now time.Time) bool {
	if a.Status != AppointmentStatusScheduled && a.Status != AppointmentStatusReminderSent {
		return false
	}
	if !a.AutoRecord {
		return false
	}
	return !now.Before(a.StartTime) && !now.After(a.EndTime)
}

// IsDueToStopRecording reports whether a recording in progress should stop at now.
func (a *Appointment) IsDueToStopRecording(now time.Time) bool {
	return a.Status == AppointmentStatusRecording && !now.Before(a.EndTime)
}

// CanCancel reports whether the appointment may move to cancelled.
func (a *Appointment) CanCancel() bool {
	return a.Status == AppointmentStatusScheduled || a.Status == AppointmentStatusReminderSent
}

// IsRecurring reports whether the appointment belongs to a recurring series.
func (a *Appointment) IsRecurring() bool {
	return strings.TrimSpace(a.Recurrence) != ""
}

// AppointmentFilter narrows an appointment listing. Zero values do not filter.
type AppointmentFilter struct {
	OwnerEmail string
	StartFrom  *time.Time
	StartTo    *time.Time
	Status     AppointmentStatus
}

// Matches reports whether the appointment satisfies every set criterion.
func (f AppointmentFilter) Matches(a *Appointment) bool {
	if f.OwnerEmail != "" && !strings.EqualFold(a.OwnerEmail, f.OwnerEmail) {
		return false
	}
	if f.StartFrom != nil && a.StartTime.Before(*f.StartFrom) {
		return false
	}
	if f.StartTo != nil && a.StartTime.After(*f.StartTo) {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	return true
}

// SortAppointmentsByStart orders appointments by start time, oldest first.
func SortAppointmentsByStart(appointments []*Appointment) {
	slices.SortStableFunc(appointments, func(a, b *Appointment) int {
		return a.StartTime.Compare(b.StartTime)
	})
}
