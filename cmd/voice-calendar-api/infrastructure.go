// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/infrastructure/email"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/infrastructure/llm"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/infrastructure/messaging"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/infrastructure/store"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/infrastructure/transcription"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/scheduler"
)

const (
	// gracefulShutdownSeconds bounds how long in-flight work may take after SIGTERM.
	gracefulShutdownSeconds = 25

	// voiceCalendarQueue is the queue group shared by every service replica.
	voiceCalendarQueue = "lfx.voice-calendar-service.queue"
)

// repositories holds the NATS backed stores of the service.
type repositories struct {
	Appointment  *store.NatsAppointmentRepository
	Recording    *store.NatsRecordingRepository
	Conversation *store.NatsConversationRepository
	Audio        *store.NatsAudioStorage
}

// setupNATS connects to NATS. The connection's closed handler releases the
// graceful close wait group, and an unexpected close stops the process.
func setupNATS(ctx context.Context, env environment, gracefulCloseWG *sync.WaitGroup, done chan os.Signal) (*nats.Conn, error) {
	slog.InfoContext(ctx, "connecting to NATS", "url", env.NATS.URL)

	gracefulCloseWG.Add(1)
	natsConn, err := nats.Connect(
		env.NATS.URL,
		nats.Name("lfx-v2-voice-calendar-service"),
		nats.Timeout(env.NATS.Timeout),
		nats.MaxReconnects(env.NATS.MaxReconnect),
		nats.ReconnectWait(env.NATS.ReconnectWait),
		nats.DrainTimeout(gracefulShutdownSeconds*time.Second),
		nats.ConnectHandler(func(_ *nats.Conn) {
			slog.InfoContext(ctx, "NATS connection established")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.WarnContext(ctx, "NATS disconnected", logging.ErrKey, err)
			}
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			slog.InfoContext(ctx, "NATS reconnected", "url", conn.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			if sub != nil {
				slog.With(logging.ErrKey, err, "subject", sub.Subject, "queue", sub.Queue).Error("async NATS error")
				return
			}
			slog.With(logging.ErrKey, err).Error("async NATS error outside subscription")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if ctx.Err() == nil {
				// Closed without a shutdown in progress: reconnects are exhausted.
				slog.ErrorContext(ctx, "NATS connection closed unexpectedly", logging.PriorityCritical())
				select {
				case done <- syscall.SIGTERM:
				default:
				}
			}
			gracefulCloseWG.Done()
		}),
	)
	if err != nil {
		gracefulCloseWG.Done()
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	return natsConn, nil
}

// getKeyValueStores opens the key-value buckets and the audio object store,
// creating any that do not exist yet.
func getKeyValueStores(ctx context.Context, natsConn *nats.Conn) (*repositories, error) {
	js, err := jetstream.New(natsConn)
	if err != nil {
		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	appointmentsKV, err := getOrCreateKeyValue(ctx, js, store.KVStoreNameAppointments, "Voice calendar appointments")
	if err != nil {
		return nil, err
	}
	recordingsKV, err := getOrCreateKeyValue(ctx, js, store.KVStoreNameRecordings, "Voice calendar recordings and active recording claims")
	if err != nil {
		return nil, err
	}
	conversationsKV, err := getOrCreateKeyValue(ctx, js, store.KVStoreNameConversations, "Voice calendar conversations")
	if err != nil {
		return nil, err
	}

	audioStore, err := js.ObjectStore(ctx, store.ObjectStoreNameAudio)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		slog.InfoContext(ctx, "creating object store", "bucket", store.ObjectStoreNameAudio)
		audioStore, err = js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{
			Bucket:      store.ObjectStoreNameAudio,
			Description: "Voice calendar recording audio",
		})
	}
	if err != nil {
		return nil, fmt.Errorf("opening object store %s: %w", store.ObjectStoreNameAudio, err)
	}

	return &repositories{
		Appointment:  store.NewNatsAppointmentRepository(appointmentsKV),
		Recording:    store.NewNatsRecordingRepository(recordingsKV),
		Conversation: store.NewNatsConversationRepository(conversationsKV),
		Audio:        store.NewNatsAudioStorage(audioStore),
	}, nil
}

func getOrCreateKeyValue(ctx context.Context, js jetstream.JetStream, bucket, description string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, bucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		slog.InfoContext(ctx, "creating key-value store", "bucket", bucket)
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      bucket,
			Description: description,
			History:     5,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("opening key-value store %s: %w", bucket, err)
	}
	return kv, nil
}

// createNatsSubcriptions subscribes the handler to the subjects the service answers.
func createNatsSubcriptions(ctx context.Context, handler domain.MessageHandler, natsConn *nats.Conn) error {
	subjects := []string{
		models.SchedulerTickSubject,
		models.GetRecordingSubject,
		models.GetAppointmentTitleSubject,
	}

	for _, subject := range subjects {
		slog.InfoContext(ctx, "subscribing to NATS subject", "subject", subject, "queue", voiceCalendarQueue)
		_, err := natsConn.QueueSubscribe(subject, voiceCalendarQueue, func(msg *nats.Msg) {
			handler.HandleMessage(ctx, messaging.NewNatsMsg(msg))
		})
		if err != nil {
			return fmt.Errorf("subscribing to %s: %w", subject, err)
		}
	}

	return nil
}

// setupEmailService returns the SMTP email service, or a no-op service when email is disabled.
func setupEmailService(env environment) (domain.EmailService, error) {
	if !env.Email.Enabled {
		slog.Info("email disabled, using no-op email service")
		return email.NewNoOpService(), nil
	}

	slog.With("host", env.Email.Host, "port", env.Email.Port).Info("email enabled, using SMTP email service")
	return email.NewSMTPService(email.SMTPConfig{
		Host:     env.Email.Host,
		Port:     env.Email.Port,
		From:     env.Email.From,
		FromName: env.Email.FromName,
		Username: env.Email.Username,
		Password: env.Email.Password,
	})
}

// setupProviders creates the transcription and completion clients. Missing
// API keys leave the clients unready: recordings then fail with a
// transcription error and analysis falls back to empty results.
func setupProviders(env environment) (domain.Transcriber, domain.Completer) {
	transcriber := transcription.NewAssemblyAIClient(env.Transcription)
	if !transcriber.IsReady() {
		slog.Warn("ASSEMBLYAI_API_KEY not set, recordings cannot be transcribed")
	}

	completer := llm.NewClient(env.LLM)
	if !completer.IsReady() {
		slog.Warn("LLM_API_KEY not set, recordings will not be analyzed")
	}

	return transcriber, completer
}

// gracefulShutdown stops accepting HTTP requests, stops the scheduler, drains
// NATS and flushes telemetry, then waits for all of it to finish.
func gracefulShutdown(
	httpServer *http.Server,
	natsConn *nats.Conn,
	sched *scheduler.Scheduler,
	otelShutdown func(context.Context) error,
	gracefulCloseWG *sync.WaitGroup,
	cancel context.CancelFunc,
) {
	slog.Info("graceful shutdown via signal")

	// Cancel the background context first so the NATS closed handler knows
	// the close is expected.
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownSeconds*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		go func() {
			if err := httpServer.Shutdown(ctx); err != nil {
				slog.With(logging.ErrKey, err).Error("http shutdown error")
			}
			// Decrement the wait group only after Shutdown has returned.
			gracefulCloseWG.Done()
		}()
	}

	if sched != nil {
		if err := sched.Stop(ctx); err != nil {
			slog.With(logging.ErrKey, err).Error("scheduler stop error")
		}
	}

	if natsConn != nil && !natsConn.IsClosed() {
		go func() {
			if err := natsConn.Drain(); err != nil {
				slog.With(logging.ErrKey, err).Error("error draining NATS connection")
				natsConn.Close()
			}
		}()
	}

	waitDone := make(chan struct{})
	go func() {
		gracefulCloseWG.Wait()
		close(waitDone)
	}()

	select {
	case <-waitDone:
		slog.Info("graceful shutdown complete")
	case <-ctx.Done():
		slog.Warn("graceful shutdown timed out")
	}

	if otelShutdown != nil {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := otelShutdown(flushCtx); err != nil {
			slog.With(logging.ErrKey, err).Error("error shutting down OpenTelemetry SDK")
		}
	}
}
