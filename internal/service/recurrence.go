// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain/models"
)

// normalizeRecurrence strips the optional "RRULE:" property name and surrounding space.
func normalizeRecurrence(rule string) string {
	rule = strings.TrimSpace(rule)
	if len(rule) >= 6 && strings.EqualFold(rule[:6], "RRULE:") {
		rule = rule[6:]
	}
	return rule
}

// parseRecurrence builds the rule of a series anchored at dtstart.
func parseRecurrence(rule string, dtstart time.Time) (*rrule.RRule, error) {
	option, err := rrule.StrToROption(normalizeRecurrence(rule))
	if err != nil {
		return nil, domain.NewValidationError("invalid recurrence rule", err)
	}
	option.Dtstart = dtstart
	r, err := rrule.NewRRule(*option)
	if err != nil {
		return nil, domain.NewValidationError("invalid recurrence rule", err)
	}
	return r, nil
}

// nextOccurrenceStart returns the start of the occurrence after the given
// appointment in its series, or false when the series is exhausted.
func nextOccurrenceStart(a *models.Appointment) (time.Time, bool, error) {
	if !a.IsRecurring() {
		return time.Time{}, false, nil
	}

	dtstart := a.StartTime
	if a.SeriesStartTime != nil {
		dtstart = *a.SeriesStartTime
	}

	r, err := parseRecurrence(a.Recurrence, dtstart)
	if err != nil {
		return time.Time{}, false, err
	}

	next := r.After(a.StartTime, false)
	if next.IsZero() {
		return time.Time{}, false, nil
	}
	return next, true, nil
}

// nextOccurrence builds the scheduled appointment that follows a in its series.
func nextOccurrence(a *models.Appointment, start time.Time, uid string, now time.Time) *models.Appointment {
	duration := a.EndTime.Sub(a.StartTime)
	seriesStart := a.StartTime
	if a.SeriesStartTime != nil {
		seriesStart = *a.SeriesStartTime
	}
	seriesUID := a.SeriesUID
	if seriesUID == "" {
		seriesUID = a.UID
	}

	next := &models.Appointment{
		UID:                   uid,
		OwnerEmail:            a.OwnerEmail,
		Title:                 a.Title,
		Description:           a.Description,
		StartTime:             start.UTC(),
		EndTime:               start.Add(duration).UTC(),
		AutoRecord:            a.AutoRecord,
		ReminderMinutesBefore: a.ReminderMinutesBefore,
		Status:                models.AppointmentStatusScheduled,
		Color:                 a.Color,
		Location:              a.Location,
		Attendees:             append([]string(nil), a.Attendees...),
		Notes:                 a.Notes,
		BaseURL:               a.BaseURL,
		Recurrence:            a.Recurrence,
		SeriesUID:             seriesUID,
		SeriesStartTime:       &seriesStart,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	next.ComputeDuration()
	return next
}
