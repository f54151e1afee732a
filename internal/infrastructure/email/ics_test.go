// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package email

import (
	"strings"
	"testing"
	"time"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestGenerateReminderICS(t *testing.T) {
	now := time.Date(2025, 3, 4, 9, 55, 0, 0, time.UTC)
	reminder := domain.EmailAppointmentReminder{
		AppointmentUID:   "appt-1",
		AppointmentTitle: "Design review, round 2",
		Description:      "Walk through the mockups",
		Location:         "Room 4",
		StartTime:        time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC),
		Duration:         45,
		ConversationURL:  "https://app.example.com/chat/?conversation=c1&appointment_id=appt-1",
		Recurrence:       "RRULE:FREQ=WEEKLY;COUNT=4",
	}

	ics := generateReminderICS(reminder, now)

	assert.True(t, strings.HasPrefix(ics, "BEGIN:VCALENDAR\r\n"))
	assert.True(t, strings.HasSuffix(ics, "END:VCALENDAR\r\n"))
	assert.Contains(t, ics, "UID:appt-1\r\n")
	assert.Contains(t, ics, "DTSTAMP:20250304T095500Z\r\n")
	assert.Contains(t, ics, "DTSTART:20250304T100000Z\r\n")
	assert.Contains(t, ics, "DTEND:20250304T104500Z\r\n")
	assert.Contains(t, ics, "RRULE:FREQ=WEEKLY;COUNT=4\r\n")
	assert.Contains(t, ics, "SUMMARY:Design review\\, round 2\r\n")
	assert.Contains(t, ics, "LOCATION:Room 4\r\n")
	assert.Contains(t, ics, "URL:https://app.example.com/chat/?conversation=c1&appointment_id=appt-1\r\n")
}

func TestGenerateReminderICS_Minimal(t *testing.T) {
	ics := generateReminderICS(domain.EmailAppointmentReminder{
		AppointmentUID:   "appt-2",
		AppointmentTitle: "Call",
		StartTime:        time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC),
		Duration:         30,
	}, time.Now())

	assert.NotContains(t, ics, "RRULE:")
	assert.NotContains(t, ics, "DESCRIPTION:")
	assert.NotContains(t, ics, "LOCATION:")
}

func TestEscapeICSText(t *testing.T) {
	assert.Equal(t, `a\, b\; c\\d\ne`, escapeICSText("a, b; c\\d\ne"))
}

func TestFoldICSLine(t *testing.T) {
	short := "short line"
	assert.Equal(t, short, foldICSLine(short, ICALMaxLineLength))

	long := strings.Repeat("é", 100)
	folded := foldICSLine(long, ICALMaxLineLength)
	for _, line := range strings.Split(folded, "\r\n") {
		assert.LessOrEqual(t, len(line), ICALMaxLineLength)
	}
	assert.Equal(t, long, strings.ReplaceAll(folded, "\r\n ", ""))
}
