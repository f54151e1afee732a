// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"time"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/service"
)

// CreateAppointmentRequest is the body of POST /appointments.
type CreateAppointmentRequest struct {
	OwnerEmail            string    `json:"owner_email" format:"email" doc:"Email of the appointment owner"`
	Title                 string    `json:"title" minLength:"1" maxLength:"200"`
	Description           string    `json:"description,omitempty"`
	StartTime             time.Time `json:"start_time"`
	EndTime               time.Time `json:"end_time"`
	AutoRecord            *bool     `json:"auto_record,omitempty" doc:"Record automatically at start time, default true"`
	ReminderMinutesBefore *int      `json:"reminder_minutes_before,omitempty" minimum:"0" doc:"Default 5"`
	Color                 string    `json:"color,omitempty" example:"#3788d8"`
	Location              string    `json:"location,omitempty"`
	Attendees             []string  `json:"attendees,omitempty"`
	Notes                 string    `json:"notes,omitempty"`
	BaseURL               string    `json:"base_url,omitempty" doc:"Overrides the web app base URL used in conversation links"`
	Recurrence            string    `json:"recurrence,omitempty" example:"FREQ=WEEKLY;COUNT=4" doc:"RFC 5545 recurrence rule"`
}

func (r CreateAppointmentRequest) toInput() service.CreateAppointmentInput {
	return service.CreateAppointmentInput{
		OwnerEmail:            r.OwnerEmail,
		Title:                 r.Title,
		Description:           r.Description,
		StartTime:             r.StartTime,
		EndTime:               r.EndTime,
		AutoRecord:            r.AutoRecord,
		ReminderMinutesBefore: r.ReminderMinutesBefore,
		Color:                 r.Color,
		Location:              r.Location,
		Attendees:             r.Attendees,
		Notes:                 r.Notes,
		BaseURL:               r.BaseURL,
		Recurrence:            r.Recurrence,
	}
}

// UpdateAppointmentRequest is the body of PATCH /appointments/{uid}.
// Omitted fields are left unchanged.
type UpdateAppointmentRequest struct {
	Title                 *string    `json:"title,omitempty" minLength:"1" maxLength:"200"`
	Description           *string    `json:"description,omitempty"`
	StartTime             *time.Time `json:"start_time,omitempty"`
	EndTime               *time.Time `json:"end_time,omitempty"`
	AutoRecord            *bool      `json:"auto_record,omitempty"`
	ReminderMinutesBefore *int       `json:"reminder_minutes_before,omitempty" minimum:"0"`
	Color                 *string    `json:"color,omitempty"`
	Location              *string    `json:"location,omitempty"`
	Attendees             []string   `json:"attendees,omitempty"`
	Notes                 *string    `json:"notes,omitempty"`
	BaseURL               *string    `json:"base_url,omitempty"`
	Recurrence            *string    `json:"recurrence,omitempty"`
}

func (r UpdateAppointmentRequest) toInput() service.UpdateAppointmentInput {
	return service.UpdateAppointmentInput{
		Title:                 r.Title,
		Description:           r.Description,
		StartTime:             r.StartTime,
		EndTime:               r.EndTime,
		AutoRecord:            r.AutoRecord,
		ReminderMinutesBefore: r.ReminderMinutesBefore,
		Color:                 r.Color,
		Location:              r.Location,
		Attendees:             r.Attendees,
		Notes:                 r.Notes,
		BaseURL:               r.BaseURL,
		Recurrence:            r.Recurrence,
	}
}

// ConversationResponse is the conversation attached to an appointment.
type ConversationResponse struct {
	UID            string    `json:"uid"`
	ShortCode      string    `json:"short_code"`
	OwnerEmail     string    `json:"owner_email"`
	Title          string    `json:"title"`
	AppointmentUID string    `json:"appointment_uid"`
	URL            string    `json:"url"`
	CreatedAt      time.Time `json:"created_at"`
}
