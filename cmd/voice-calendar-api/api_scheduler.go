// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/scheduler"
)

func registerScheduler(api huma.API, s *VoiceCalendarAPI) {
	huma.Register(api, huma.Operation{
		OperationID: "scheduler-tick",
		Method:      http.MethodPost,
		Path:        "/scheduler/tick",
		Summary:     "Run a scheduler pass",
		Description: "Sends due reminders, starts due recordings and stops ended recordings once. " +
			"A pass requested while another is running is skipped.",
		Tags:   []string{"scheduler"},
		Errors: []int{http.StatusServiceUnavailable},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body scheduler.TickResult
	}, error) {
		if s.scheduler == nil || !s.scheduler.Ready() {
			return nil, newAPIError(http.StatusServiceUnavailable, "scheduler unavailable")
		}
		return &struct {
			Body scheduler.TickResult
		}{Body: s.scheduler.Tick(ctx)}, nil
	})
}
