// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"time"

	"github.com/akamensky/base58"
	"github.com/google/uuid"
)

// Conversation is a chat thread. An appointment links to at most one through
// its ConversationUID; the conversation does not own the appointment.
type Conversation struct {
	UID            string    `json:"uid"`
	OwnerEmail     string    `json:"owner_email"`
	Title          string    `json:"title"`
	TotalMessages  int       `json:"total_messages"`
	AppointmentUID string    `json:"appointment_uid,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ShortCode returns a compact base58 form of the conversation UID for links.
// It returns an empty string when the UID is not a UUID.
func (c *Conversation) ShortCode() string {
	id, err := uuid.Parse(c.UID)
	if err != nil {
		return ""
	}
	return base58.Encode(id[:])
}

// AppointmentConversationTitle builds the title of the conversation attached
// to an appointment, e.g. "Weekly sync - Mar 04, 2025".
func AppointmentConversationTitle(a *Appointment) string {
	return a.Title + " - " + a.StartTime.Format("Jan 02, 2006")
}
