// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package email

import (
	"fmt"
	"strings"
	"time"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
)

// ICS constants for consistent values across all generated ICS files
const (
	ICSProdID         = "-//Linux Foundation//LFX Voice Calendar Service//EN"
	ICALVersion       = "2.0"
	ICALScale         = "GREGORIAN"
	ICALMaxLineLength = 75
)

// UTF-8 byte masks for line folding safety
const (
	UTF8TwoBitMask         = 0xC0 // Mask to isolate first two bits (11000000)
	UTF8ContinuationPrefix = 0x80 // UTF-8 continuation byte prefix (10000000)
)

const icsTimestampLayout = "20060102T150405Z"

// generateReminderICS builds a single event calendar file for a reminder so
// the recipient can add the appointment to their calendar.
func generateReminderICS(reminder domain.EmailAppointmentReminder, now time.Time) string {
	start := reminder.StartTime.UTC()
	end := start.Add(time.Duration(reminder.Duration) * time.Minute)

	var ics strings.Builder

	// Calendar header
	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString(fmt.Sprintf("VERSION:%s\r\n", ICALVersion))
	ics.WriteString(fmt.Sprintf("PRODID:%s\r\n", ICSProdID))
	ics.WriteString(fmt.Sprintf("CALSCALE:%s\r\n", ICALScale))
	ics.WriteString("METHOD:PUBLISH\r\n")

	// Event
	ics.WriteString("BEGIN:VEVENT\r\n")
	ics.WriteString(fmt.Sprintf("UID:%s\r\n", reminder.AppointmentUID))
	ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", now.UTC().Format(icsTimestampLayout)))
	ics.WriteString(fmt.Sprintf("DTSTART:%s\r\n", start.Format(icsTimestampLayout)))
	ics.WriteString(fmt.Sprintf("DTEND:%s\r\n", end.Format(icsTimestampLayout)))

	if rule := strings.TrimPrefix(strings.TrimSpace(reminder.Recurrence), "RRULE:"); rule != "" {
		ics.WriteString(fmt.Sprintf("RRULE:%s\r\n", rule))
	}

	ics.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICSText(reminder.AppointmentTitle)))

	description := reminder.Description
	if reminder.ConversationURL != "" {
		if description != "" {
			description += "\n\n"
		}
		description += "Conversation: " + reminder.ConversationURL
	}
	if description != "" {
		ics.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICSText(description)))
	}
	if reminder.Location != "" {
		ics.WriteString(fmt.Sprintf("LOCATION:%s\r\n", escapeICSText(reminder.Location)))
	}
	if reminder.ConversationURL != "" {
		ics.WriteString(fmt.Sprintf("URL:%s\r\n", reminder.ConversationURL))
	}

	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("END:VEVENT\r\n")
	ics.WriteString("END:VCALENDAR\r\n")

	return ics.String()
}

// escapeICSText escapes special characters in ICS text fields
func escapeICSText(text string) string {
	// Escape special characters according to RFC5545
	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, "\n", "\\n")
	text = strings.ReplaceAll(text, ",", "\\,")
	text = strings.ReplaceAll(text, ";", "\\;")

	// Fold long lines (75 characters max per line, continued lines start with space)
	return foldICSLine(text, ICALMaxLineLength)
}

// foldICSLine folds long lines according to RFC5545 (75 octets max)
func foldICSLine(line string, maxLength int) string {
	if len(line) <= maxLength {
		return line
	}

	var folded strings.Builder
	remaining := line
	first := true

	for len(remaining) > 0 {
		cutLength := maxLength
		if !first {
			cutLength = maxLength - 1 // Account for leading space on continued lines
		}

		if len(remaining) <= cutLength {
			if !first {
				folded.WriteString("\r\n ")
			}
			folded.WriteString(remaining)
			break
		}

		// Find a safe place to break (not in the middle of a UTF-8 sequence)
		breakPoint := cutLength
		for breakPoint > 0 && remaining[breakPoint]&UTF8TwoBitMask == UTF8ContinuationPrefix {
			breakPoint--
		}

		if !first {
			folded.WriteString("\r\n ")
		}
		folded.WriteString(remaining[:breakPoint])
		remaining = remaining[breakPoint:]
		first = false
	}

	return folded.String()
}
