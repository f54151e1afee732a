// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/service"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/pkg/constants"
)

// audioRequestBody documents the raw audio body of the upload endpoints.
// The body is optional so that a recording can be stopped without audio.
func audioRequestBody() *huma.RequestBody {
	content := make(map[string]*huma.MediaType, len(models.SupportedAudioFormats)+1)
	for _, format := range models.SupportedAudioFormats {
		content[models.AudioContentType(format)] = &huma.MediaType{}
	}
	content["application/octet-stream"] = &huma.MediaType{}
	return &huma.RequestBody{
		Description: "Raw audio. The Content-Type header or the format query parameter names the format.",
		Content:     content,
	}
}

// audioFormat resolves the upload format from the query parameter, falling
// back to the Content-Type header.
func audioFormat(format, contentType string) string {
	if format != "" {
		return strings.ToLower(strings.TrimPrefix(format, "."))
	}
	return constants.AudioFormatFromContentType(contentType)
}

type recordingOutput struct {
	Body *models.Recording
}

type audioUploadInput struct {
	UID         string `path:"uid"`
	Format      string `query:"format" doc:"Audio format, overrides the Content-Type header" example:"wav"`
	ContentType string `header:"Content-Type"`
	RawBody     []byte
}

func (in *audioUploadInput) upload() service.AudioUpload {
	return service.AudioUpload{
		Data:   in.RawBody,
		Format: audioFormat(in.Format, in.ContentType),
	}
}

func registerRecordings(api huma.API, s *VoiceCalendarAPI) {
	huma.Register(api, huma.Operation{
		OperationID:   "upload-recording",
		Method:        http.MethodPost,
		Path:          "/appointments/{uid}/recordings",
		Summary:       "Upload and process a recording",
		Description:   "Stores the audio, transcribes and analyzes it, and returns the processed recording.",
		Tags:          []string{"recordings"},
		DefaultStatus: http.StatusCreated,
		MaxBodyBytes:  models.MaxAudioUploadBytes + 1,
		RequestBody:   audioRequestBody(),
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
		},
	}, func(ctx context.Context, input *audioUploadInput) (*recordingOutput, error) {
		recording, err := s.recordingService.UploadAndProcess(ctx, input.UID, input.upload())
		if err != nil {
			return nil, handleError(err)
		}
		return &recordingOutput{Body: recording}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "start-recording",
		Method:      http.MethodPost,
		Path:        "/appointments/{uid}/recording/start",
		Summary:     "Start recording",
		Description: "Starts recording the appointment now. An appointment that already has an active recording, or that is cancelled or completed, is rejected with 409.",
		Tags:        []string{"recordings"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusServiceUnavailable},
	}, func(ctx context.Context, input *appointmentPath) (*recordingOutput, error) {
		recording, err := s.recordingService.StartRecording(ctx, input.UID)
		if err != nil {
			return nil, handleError(err)
		}
		return &recordingOutput{Body: recording}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-appointment-recording",
		Method:      http.MethodGet,
		Path:        "/appointments/{uid}/recording",
		Summary:     "Get the latest recording of an appointment",
		Tags:        []string{"recordings"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusServiceUnavailable},
	}, func(ctx context.Context, input *appointmentPath) (*recordingOutput, error) {
		recording, err := s.recordingService.GetRecordingByAppointment(ctx, input.UID)
		if err != nil {
			return nil, handleError(err)
		}
		if recording == nil {
			return nil, handleError(domain.NewNotFoundError("appointment has no recording"))
		}
		return &recordingOutput{Body: recording}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-recordings-summary",
		Method:      http.MethodGet,
		Path:        "/recordings/summary",
		Summary:     "Summarize completed recordings",
		Description: "Returns the latest completed recording of each of the owner's appointments starting in the range.",
		Tags:        []string{"recordings"},
		Errors:      []int{http.StatusBadRequest, http.StatusServiceUnavailable},
	}, func(ctx context.Context, input *struct {
		OwnerEmail string `query:"owner_email" required:"true"`
		Start      string `query:"start" doc:"RFC 3339 lower bound of start_time"`
		End        string `query:"end" doc:"RFC 3339 upper bound of start_time"`
	}) (*struct {
		Body []models.RecordingSummary
	}, error) {
		from, err := parseTimeParam("start", input.Start)
		if err != nil {
			return nil, handleError(err)
		}
		to, err := parseTimeParam("end", input.End)
		if err != nil {
			return nil, handleError(err)
		}

		summaries, err := s.recordingService.GetRecordingsSummary(ctx, input.OwnerEmail, from, to)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []models.RecordingSummary
		}{Body: summaries}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-recording",
		Method:      http.MethodGet,
		Path:        "/recordings/{uid}",
		Summary:     "Get recording",
		Tags:        []string{"recordings"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusServiceUnavailable},
	}, func(ctx context.Context, input *struct {
		UID string `path:"uid" doc:"Recording UID"`
	}) (*recordingOutput, error) {
		recording, err := s.recordingService.GetRecording(ctx, input.UID)
		if err != nil {
			return nil, handleError(err)
		}
		return &recordingOutput{Body: recording}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:  "stop-recording",
		Method:       http.MethodPost,
		Path:         "/recordings/{uid}/stop",
		Summary:      "Stop recording",
		Description:  "Stops the recording and completes its appointment. When audio is sent it is stored and processed before the response.",
		Tags:         []string{"recordings"},
		MaxBodyBytes: models.MaxAudioUploadBytes + 1,
		RequestBody:  audioRequestBody(),
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
		},
	}, func(ctx context.Context, input *audioUploadInput) (*recordingOutput, error) {
		var audio *service.AudioUpload
		if len(input.RawBody) > 0 {
			upload := input.upload()
			audio = &upload
		}

		recording, err := s.recordingService.StopRecording(ctx, input.UID, audio)
		if err != nil {
			return nil, handleError(err)
		}
		return &recordingOutput{Body: recording}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-recording",
		Method:        http.MethodDelete,
		Path:          "/recordings/{uid}",
		Summary:       "Delete recording",
		Description:   "Deletes a completed or failed recording and its audio.",
		Tags:          []string{"recordings"},
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusServiceUnavailable},
	}, func(ctx context.Context, input *struct {
		UID string `path:"uid" doc:"Recording UID"`
	}) (*struct{}, error) {
		if err := s.recordingService.DeleteRecording(ctx, input.UID); err != nil {
			return nil, handleError(err)
		}
		return nil, nil
	})
}
