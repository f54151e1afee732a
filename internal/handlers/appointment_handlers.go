// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/scheduler"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/service"
)

// AppointmentHandler handles appointment and scheduler related NATS requests.
type AppointmentHandler struct {
	appointmentService *service.AppointmentService
	recordingService   *service.RecordingService
	scheduler          *scheduler.Scheduler
}

var _ domain.MessageHandler = (*AppointmentHandler)(nil)

func NewAppointmentHandler(
	appointmentService *service.AppointmentService,
	recordingService *service.RecordingService,
	scheduler *scheduler.Scheduler,
) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentService: appointmentService,
		recordingService:   recordingService,
		scheduler:          scheduler,
	}
}

func (s *AppointmentHandler) HandlerReady() bool {
	return s.appointmentService != nil && s.appointmentService.ServiceReady() &&
		s.recordingService != nil && s.recordingService.ServiceReady() &&
		s.scheduler != nil && s.scheduler.Ready()
}

// HandleMessage implements domain.MessageHandler interface
func (s *AppointmentHandler) HandleMessage(ctx context.Context, msg domain.Message) {
	subject := msg.Subject()
	ctx = logging.AppendCtx(ctx, slog.String("subject", subject))
	slog.DebugContext(ctx, "handling NATS message")

	handlers := map[string]func(ctx context.Context, msg domain.Message) ([]byte, error){
		models.SchedulerTickSubject:       s.HandleSchedulerTick,
		models.GetRecordingSubject:        s.HandleGetRecording,
		models.GetAppointmentTitleSubject: s.HandleGetAppointmentTitle,
	}

	handler, ok := handlers[subject]
	if !ok {
		slog.WarnContext(ctx, "unknown subject")
		respond(ctx, msg, nil)
		return
	}

	response, err := handler(ctx, msg)
	if err != nil {
		slog.ErrorContext(ctx, "error handling message", logging.ErrKey, err)
		respond(ctx, msg, nil)
		return
	}

	if !msg.HasReply() {
		slog.DebugContext(ctx, "handled NATS message (no reply expected)")
		return
	}
	if respond(ctx, msg, response) {
		slog.DebugContext(ctx, "responded to NATS message", "response_bytes", len(response))
	}
}

// respond replies when the message expects a reply and reports whether the reply went out.
func respond(ctx context.Context, msg domain.Message, response []byte) bool {
	if !msg.HasReply() {
		return false
	}
	if err := msg.Respond(response); err != nil {
		slog.ErrorContext(ctx, "error responding to NATS message", logging.ErrKey, err)
		return false
	}
	return true
}

// appointmentUID reads and validates the appointment UID carried as the message payload.
func appointmentUID(ctx context.Context, msg domain.Message) (string, context.Context, error) {
	uid := string(msg.Data())
	ctx = logging.AppendCtx(ctx, slog.String("appointment_uid", uid))

	if _, err := uuid.Parse(uid); err != nil {
		slog.ErrorContext(ctx, "error parsing appointment UID", logging.ErrKey, err)
		return "", ctx, domain.NewValidationError("invalid appointment UID", err)
	}
	return uid, ctx, nil
}

// HandleSchedulerTick runs one scheduler pass and replies with its result.
func (s *AppointmentHandler) HandleSchedulerTick(ctx context.Context, _ domain.Message) ([]byte, error) {
	if s.scheduler == nil {
		return nil, fmt.Errorf("scheduler not initialized")
	}

	result := s.scheduler.Tick(ctx)
	return json.Marshal(result)
}

// HandleGetRecording replies with the latest recording of the appointment as
// JSON, or an empty payload when it has none.
func (s *AppointmentHandler) HandleGetRecording(ctx context.Context, msg domain.Message) ([]byte, error) {
	if s.recordingService == nil || !s.recordingService.ServiceReady() {
		slog.ErrorContext(ctx, "service not ready")
		return nil, fmt.Errorf("service not ready")
	}

	uid, ctx, err := appointmentUID(ctx, msg)
	if err != nil {
		return nil, err
	}

	recording, err := s.recordingService.GetRecordingByAppointment(ctx, uid)
	if err != nil {
		slog.ErrorContext(ctx, "error getting recording of appointment", logging.ErrKey, err)
		return nil, err
	}
	if recording == nil {
		return []byte{}, nil
	}
	return json.Marshal(recording)
}

// HandleGetAppointmentTitle is the message handler for the appointment-get-title subject.
func (s *AppointmentHandler) HandleGetAppointmentTitle(ctx context.Context, msg domain.Message) ([]byte, error) {
	if s.appointmentService == nil || !s.appointmentService.ServiceReady() {
		slog.ErrorContext(ctx, "service not ready")
		return nil, fmt.Errorf("service not ready")
	}

	uid, ctx, err := appointmentUID(ctx, msg)
	if err != nil {
		return nil, err
	}

	appointment, err := s.appointmentService.GetAppointment(ctx, uid)
	if err != nil {
		slog.ErrorContext(ctx, "error getting appointment from NATS KV", logging.ErrKey, err)
		return nil, err
	}
	return []byte(appointment.Title), nil
}
