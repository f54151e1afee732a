// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package main is the voice calendar service API. It serves the appointment
// and recording REST API, answers NATS requests and runs the scheduler that
// sends reminders and starts and stops recordings.
package main

import (
	"context"
	_ "expvar"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/handlers"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/infrastructure/messaging"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/scheduler"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/service"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/pkg/utils"
)

// singlePassTimeout bounds a -once run, which may transcribe recordings.
const singlePassTimeout = 10 * time.Minute

func main() {
	env := parseEnv()
	flags := parseFlags(env.Port)

	logging.InitStructureLogConfig()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	gracefulCloseWG := sync.WaitGroup{}

	otelShutdown, err := utils.SetupOTelSDK(ctx)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up OpenTelemetry SDK")
		return
	}

	// Initialize email service (independent of NATS)
	emailService, err := setupEmailService(env)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up email service")
		return
	}
	transcriber, completer := setupProviders(env)

	// Setup NATS connection
	natsConn, err := setupNATS(ctx, env, &gracefulCloseWG, done)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up NATS")
		return
	}

	// Get the key-value stores for the service.
	repos, err := getKeyValueStores(ctx, natsConn)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error getting key-value stores")
		natsConn.Close()
		return
	}

	// Initialize services
	serviceConfig := service.ServiceConfig{
		AppBaseURL:      env.AppBaseURL,
		DefaultTimezone: env.DefaultTimezone,
		SummaryModel:    env.SummaryModel,
	}
	messageBuilder := messaging.NewMessageBuilder(natsConn)
	notifier := service.NewNotifier(emailService, serviceConfig)
	analyzer := service.NewAnalyzer(completer, serviceConfig.SummaryModel)
	appointmentService := service.NewAppointmentService(
		repos.Appointment,
		repos.Recording,
		repos.Audio,
		messageBuilder,
		serviceConfig,
	)
	recordingService := service.NewRecordingService(
		repos.Appointment,
		repos.Recording,
		repos.Audio,
		transcriber,
		analyzer,
		appointmentService,
		notifier,
		messageBuilder,
	)
	conversationService := service.NewConversationService(
		repos.Appointment,
		repos.Conversation,
	)
	sched := scheduler.New(
		appointmentService,
		recordingService,
		conversationService,
		notifier,
		scheduler.Config{
			Interval: env.Scheduler.Interval,
			Workers:  env.Scheduler.Workers,
		},
	)

	if flags.Once {
		runSinglePass(ctx, sched)
		cancel()
		natsConn.Close()
		gracefulCloseWG.Wait()
		if err := otelShutdown(context.Background()); err != nil {
			slog.With(logging.ErrKey, err).Error("error shutting down OpenTelemetry SDK")
		}
		return
	}

	// Initialize handlers
	appointmentHandler := handlers.NewAppointmentHandler(
		appointmentService,
		recordingService,
		sched,
	)

	api := NewVoiceCalendarAPI(
		appointmentService,
		recordingService,
		conversationService,
		notifier,
		sched,
	)

	httpServer := setupHTTPServer(flags, api, &gracefulCloseWG)

	// Create NATS subscriptions for the service.
	err = createNatsSubcriptions(ctx, appointmentHandler, natsConn)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error creating NATS subscriptions")
		gracefulShutdown(httpServer, natsConn, nil, otelShutdown, &gracefulCloseWG, cancel)
		return
	}

	if env.Scheduler.Disabled {
		slog.Info("scheduler disabled, ticks run only on request")
	} else if err := sched.Start(ctx); err != nil {
		slog.With(logging.ErrKey, err).Error("error starting scheduler")
		gracefulShutdown(httpServer, natsConn, nil, otelShutdown, &gracefulCloseWG, cancel)
		return
	}

	// This next line blocks until SIGINT or SIGTERM is received.
	<-done

	gracefulShutdown(httpServer, natsConn, sched, otelShutdown, &gracefulCloseWG, cancel)
}

// runSinglePass runs one scheduler tick and logs its result.
func runSinglePass(ctx context.Context, sched *scheduler.Scheduler) {
	ctx, cancel := context.WithTimeout(ctx, singlePassTimeout)
	defer cancel()

	result := sched.Tick(ctx)
	slog.InfoContext(ctx, "single scheduler pass complete",
		"reminders", result.Reminders,
		"started", result.Started,
		"stopped", result.Stopped,
		"failures", result.Failures,
	)
}
