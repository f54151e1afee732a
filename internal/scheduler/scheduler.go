// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package scheduler advances appointments through their reminder and
// recording transitions on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/service"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/pkg/concurrent"
)

const meterName = "github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/scheduler"

// Defaults of Config.
const (
	DefaultInterval = time.Minute
	DefaultWorkers  = 4
)

// transitionTimeout bounds the handling of one due appointment.
const transitionTimeout = 2 * time.Minute

// Scan names, in the order a tick runs them.
const (
	ScanReminders = "reminders"
	ScanStart     = "start_recording"
	ScanStop      = "stop_recording"
)

// ErrAlreadyRunning is returned by Start when the loop is already running.
var ErrAlreadyRunning = errors.New("scheduler already running")

// errSkipped marks an appointment that needed no transition after all.
var errSkipped = errors.New("transition skipped")

// Config is the configuration of the Scheduler.
type Config struct {
	// Interval between two ticks.
	Interval time.Duration
	// Workers bounds how many appointments of one scan are handled concurrently.
	Workers int
}

// TickResult summarizes one tick.
type TickResult struct {
	Skipped   bool `json:"skipped"`
	Reminders int  `json:"reminders"`
	Started   int  `json:"started"`
	Stopped   int  `json:"stopped"`
	Failures  int  `json:"failures"`
}

// Scheduler evaluates every appointment on each tick and runs the due
// transitions: send reminders, start recordings, stop recordings. Failures
// are isolated per appointment and never abort a tick. Ticks never overlap.
type Scheduler struct {
	appointments  *service.AppointmentService
	recordings    *service.RecordingService
	conversations *service.ConversationService
	notifier      *service.Notifier
	config        Config
	pool          *concurrent.WorkerPool
	now           func() time.Time

	tickMu sync.Mutex

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}

	ticks       metric.Int64Counter
	transitions metric.Int64Counter
	failures    metric.Int64Counter
}

// New creates a new Scheduler.
func New(
	appointments *service.AppointmentService,
	recordings *service.RecordingService,
	conversations *service.ConversationService,
	notifier *service.Notifier,
	config Config,
) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers
	}

	s := &Scheduler{
		appointments:  appointments,
		recordings:    recordings,
		conversations: conversations,
		notifier:      notifier,
		config:        config,
		pool:          concurrent.NewWorkerPool(config.Workers),
		now:           time.Now,
	}

	meter := otel.Meter(meterName)
	var err error
	if s.ticks, err = meter.Int64Counter("scheduler.ticks", metric.WithDescription("Scheduler ticks run")); err != nil {
		slog.Warn("failed to create scheduler metric", logging.ErrKey, err)
	}
	if s.transitions, err = meter.Int64Counter("scheduler.transitions", metric.WithDescription("Appointment transitions committed")); err != nil {
		slog.Warn("failed to create scheduler metric", logging.ErrKey, err)
	}
	if s.failures, err = meter.Int64Counter("scheduler.failures", metric.WithDescription("Appointment transitions that failed")); err != nil {
		slog.Warn("failed to create scheduler metric", logging.ErrKey, err)
	}

	return s
}

// Ready reports whether the scheduler has the services it drives.
func (s *Scheduler) Ready() bool {
	return s.appointments != nil &&
		s.recordings != nil &&
		s.conversations != nil &&
		s.appointments.ServiceReady() &&
		s.recordings.ServiceReady()
}

// Start runs a tick immediately and then every interval until ctx is done or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.stopped = make(chan struct{})

	go s.loop(loopCtx, s.stopped)

	slog.InfoContext(ctx, "scheduler started", "interval", s.config.Interval, "workers", s.config.Workers)
	return nil
}

func (s *Scheduler) loop(ctx context.Context, stopped chan struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Stop ends the loop and waits for a running tick to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, stopped := s.cancel, s.stopped
	s.cancel, s.stopped = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-stopped:
		slog.InfoContext(ctx, "scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running reports whether the loop is running.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Tick runs the three scans once. A tick requested while another is running
// is skipped. Tick never fails; per-appointment errors are logged and counted.
func (s *Scheduler) Tick(ctx context.Context) TickResult {
	if !s.tickMu.TryLock() {
		slog.WarnContext(ctx, "previous scheduler tick still running, skipping")
		return TickResult{Skipped: true}
	}
	defer s.tickMu.Unlock()

	if !s.Ready() {
		slog.ErrorContext(ctx, "scheduler not initialized", logging.PriorityCritical())
		return TickResult{Skipped: true}
	}

	start := time.Now()
	now := s.now().UTC()
	s.add(ctx, s.ticks, 1)

	var result TickResult
	var failures int

	result.Reminders, failures = s.scan(ctx, ScanReminders, now, s.appointments.DueForReminder, s.sendReminder)
	result.Failures += failures

	result.Started, failures = s.scan(ctx, ScanStart, now, s.appointments.DueToStartRecording, s.startRecording)
	result.Failures += failures

	result.Stopped, failures = s.scan(ctx, ScanStop, now, s.appointments.DueToStopRecording, s.stopRecording)
	result.Failures += failures

	slog.InfoContext(ctx, "scheduler tick completed",
		"reminders", result.Reminders,
		"started", result.Started,
		"stopped", result.Stopped,
		"failures", result.Failures,
		"elapsed", time.Since(start).String(),
	)
	return result
}

// scan handles every due appointment and returns the committed transitions and failures.
func (s *Scheduler) scan(
	ctx context.Context,
	name string,
	now time.Time,
	due func(context.Context, time.Time) ([]*models.Appointment, error),
	handle func(context.Context, *models.Appointment, time.Time) error,
) (int, int) {
	ctx = logging.AppendCtx(ctx, slog.String("scan", name))
	scanAttr := metric.WithAttributes(attribute.String("scan", name))

	appointments, err := due(ctx, now)
	if err != nil {
		slog.ErrorContext(ctx, "error querying due appointments", logging.ErrKey, err)
		s.add(ctx, s.failures, 1, scanAttr)
		return 0, 1
	}
	if len(appointments) == 0 {
		return 0, 0
	}

	var done, failed int64
	jobs := make([]func() error, 0, len(appointments))
	for _, appointment := range appointments {
		jobs = append(jobs, func() error {
			// A started transition is not interrupted by Stop; unstarted
			// jobs are dropped by the pool once ctx is done.
			appointmentCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), transitionTimeout)
			defer cancel()
			appointmentCtx = logging.AppendCtx(appointmentCtx, slog.String("appointment_uid", appointment.UID))
			err := handle(appointmentCtx, appointment, now)
			switch {
			case err == nil:
				atomic.AddInt64(&done, 1)
			case errors.Is(err, errSkipped):
				slog.DebugContext(appointmentCtx, "appointment transition skipped")
			default:
				atomic.AddInt64(&failed, 1)
				slog.ErrorContext(appointmentCtx, "appointment transition failed", logging.ErrKey, err)
			}
			return err
		})
	}

	errs := concurrent.Failed(s.pool.RunAll(ctx, jobs...))
	for _, err := range errs {
		var panicErr *concurrent.PanicError
		if errors.As(err, &panicErr) {
			atomic.AddInt64(&failed, 1)
			slog.ErrorContext(ctx, "appointment transition panicked", logging.ErrKey, err,
				"stack", string(panicErr.Stack),
				logging.PriorityCritical(),
			)
		}
	}

	s.add(ctx, s.transitions, done, scanAttr)
	s.add(ctx, s.failures, failed, scanAttr)
	return int(done), int(failed)
}

func (s *Scheduler) add(ctx context.Context, counter metric.Int64Counter, n int64, opts ...metric.AddOption) {
	if counter == nil || n == 0 {
		return
	}
	counter.Add(ctx, n, opts...)
}

// ensureConversation links a conversation; a failure only loses the link in emails.
func (s *Scheduler) ensureConversation(ctx context.Context, appointmentUID string) {
	conversation, err := s.conversations.EnsureConversation(ctx, appointmentUID)
	if err != nil {
		slog.WarnContext(ctx, "failed to ensure appointment conversation", logging.ErrKey, err)
		return
	}
	slog.DebugContext(ctx, "using appointment conversation", "conversation_uid", conversation.UID)
}

// sendReminder commits the reminder transition, then emails the owner.
func (s *Scheduler) sendReminder(ctx context.Context, appointment *models.Appointment, now time.Time) error {
	s.ensureConversation(ctx, appointment.UID)

	updated, changed, err := s.appointments.MarkReminderSent(ctx, appointment.UID, now)
	if err != nil {
		return err
	}
	if !changed {
		return errSkipped
	}

	if s.notifier != nil {
		_ = s.notifier.SendReminder(ctx, updated, now)
	}
	return nil
}

// startRecording starts the recording and sends the conversation link once.
func (s *Scheduler) startRecording(ctx context.Context, appointment *models.Appointment, _ time.Time) error {
	s.ensureConversation(ctx, appointment.UID)

	recording, err := s.recordings.StartRecording(ctx, appointment.UID)
	if err != nil {
		if domain.IsErrorType(err, domain.ErrorTypeConflict) {
			return errSkipped
		}
		return err
	}
	slog.InfoContext(ctx, "scheduler started recording", "recording_uid", recording.UID)

	current, err := s.appointments.GetAppointment(ctx, appointment.UID)
	if err != nil {
		slog.WarnContext(ctx, "failed to reload appointment for recording email", logging.ErrKey, err)
		return nil
	}
	if current.ConversationLinkSent || current.ConversationUID == "" || s.notifier == nil {
		return nil
	}
	if err := s.notifier.SendRecordingStarted(ctx, current); err != nil {
		return nil
	}
	if err := s.appointments.MarkConversationLinkSent(ctx, appointment.UID); err != nil {
		slog.WarnContext(ctx, "failed to record conversation link email", logging.ErrKey, err)
	}
	return nil
}

// stopRecording stops the active recording of an ended appointment.
func (s *Scheduler) stopRecording(ctx context.Context, appointment *models.Appointment, _ time.Time) error {
	recording, err := s.recordings.StopActiveRecording(ctx, appointment.UID)
	if err != nil {
		return err
	}
	if recording != nil {
		slog.InfoContext(ctx, "scheduler stopped recording",
			"recording_uid", recording.UID,
			"duration_seconds", recording.DurationSeconds,
		)
	}
	return nil
}
