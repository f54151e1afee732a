// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain/models"
)

type appointmentPath struct {
	UID string `path:"uid" doc:"Appointment UID"`
}

type appointmentOutput struct {
	Body *models.Appointment
}

type appointmentsOutput struct {
	Body []*models.Appointment
}

func registerAppointments(api huma.API, s *VoiceCalendarAPI) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-appointment",
		Method:        http.MethodPost,
		Path:          "/appointments",
		Summary:       "Create appointment",
		Tags:          []string{"appointments"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusServiceUnavailable, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body CreateAppointmentRequest
	}) (*appointmentOutput, error) {
		appointment, err := s.appointmentService.CreateAppointment(ctx, input.Body.toInput())
		if err != nil {
			return nil, handleError(err)
		}
		return &appointmentOutput{Body: appointment}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-appointments",
		Method:      http.MethodGet,
		Path:        "/appointments",
		Summary:     "List appointments",
		Description: "Lists appointments ordered by start time, optionally filtered by owner, start range and status.",
		Tags:        []string{"appointments"},
		Errors:      []int{http.StatusBadRequest, http.StatusServiceUnavailable, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		OwnerEmail string `query:"owner_email"`
		Start      string `query:"start" doc:"RFC 3339 lower bound of start_time"`
		End        string `query:"end" doc:"RFC 3339 upper bound of start_time"`
		Status     string `query:"status" enum:"scheduled,reminder_sent,recording,completed,cancelled"`
	}) (*appointmentsOutput, error) {
		from, err := parseTimeParam("start", input.Start)
		if err != nil {
			return nil, handleError(err)
		}
		to, err := parseTimeParam("end", input.End)
		if err != nil {
			return nil, handleError(err)
		}

		appointments, err := s.appointmentService.ListAppointments(ctx, models.AppointmentFilter{
			OwnerEmail: input.OwnerEmail,
			StartFrom:  from,
			StartTo:    to,
			Status:     models.AppointmentStatus(input.Status),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &appointmentsOutput{Body: appointments}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-upcoming-appointments",
		Method:      http.MethodGet,
		Path:        "/appointments/upcoming",
		Summary:     "List upcoming appointments",
		Description: "Lists the owner's scheduled appointments starting within the next hours.",
		Tags:        []string{"appointments"},
		Errors:      []int{http.StatusBadRequest, http.StatusServiceUnavailable, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		OwnerEmail string `query:"owner_email" required:"true"`
		Hours      int    `query:"hours" minimum:"1" default:"24"`
	}) (*appointmentsOutput, error) {
		appointments, err := s.appointmentService.GetUpcomingAppointments(ctx, input.OwnerEmail, input.Hours)
		if err != nil {
			return nil, handleError(err)
		}
		return &appointmentsOutput{Body: appointments}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-appointment",
		Method:      http.MethodGet,
		Path:        "/appointments/{uid}",
		Summary:     "Get appointment",
		Tags:        []string{"appointments"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusServiceUnavailable},
	}, func(ctx context.Context, input *appointmentPath) (*appointmentOutput, error) {
		appointment, err := s.appointmentService.GetAppointment(ctx, input.UID)
		if err != nil {
			return nil, handleError(err)
		}
		return &appointmentOutput{Body: appointment}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-appointment",
		Method:      http.MethodPatch,
		Path:        "/appointments/{uid}",
		Summary:     "Update appointment",
		Tags:        []string{"appointments"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusServiceUnavailable},
	}, func(ctx context.Context, input *struct {
		UID  string `path:"uid" doc:"Appointment UID"`
		Body UpdateAppointmentRequest
	}) (*appointmentOutput, error) {
		appointment, err := s.appointmentService.UpdateAppointment(ctx, input.UID, input.Body.toInput())
		if err != nil {
			return nil, handleError(err)
		}
		return &appointmentOutput{Body: appointment}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-appointment",
		Method:      http.MethodPost,
		Path:        "/appointments/{uid}/cancel",
		Summary:     "Cancel appointment",
		Description: "Cancels a scheduled appointment. Cancelling twice is a no-op.",
		Tags:        []string{"appointments"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusServiceUnavailable},
	}, func(ctx context.Context, input *appointmentPath) (*appointmentOutput, error) {
		appointment, err := s.appointmentService.CancelAppointment(ctx, input.UID)
		if err != nil {
			return nil, handleError(err)
		}
		return &appointmentOutput{Body: appointment}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-appointment",
		Method:        http.MethodDelete,
		Path:          "/appointments/{uid}",
		Summary:       "Delete appointment",
		Description:   "Deletes the appointment with its recordings and their audio.",
		Tags:          []string{"appointments"},
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusServiceUnavailable},
	}, func(ctx context.Context, input *appointmentPath) (*struct{}, error) {
		if err := s.appointmentService.DeleteAppointment(ctx, input.UID); err != nil {
			return nil, handleError(err)
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "ensure-appointment-conversation",
		Method:      http.MethodPost,
		Path:        "/appointments/{uid}/conversation",
		Summary:     "Get or create the appointment conversation",
		Tags:        []string{"appointments"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusServiceUnavailable},
	}, func(ctx context.Context, input *appointmentPath) (*struct {
		Body ConversationResponse
	}, error) {
		conversation, err := s.conversationService.EnsureConversation(ctx, input.UID)
		if err != nil {
			return nil, handleError(err)
		}
		appointment, err := s.appointmentService.GetAppointment(ctx, input.UID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ConversationResponse
		}{Body: ConversationResponse{
			UID:            conversation.UID,
			ShortCode:      conversation.ShortCode(),
			OwnerEmail:     conversation.OwnerEmail,
			Title:          conversation.Title,
			AppointmentUID: conversation.AppointmentUID,
			URL:            s.notifier.ConversationURL(appointment),
			CreatedAt:      conversation.CreatedAt,
		}}, nil
	})
}
