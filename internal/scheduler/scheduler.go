// Package scheduler owns the per-tenant announcement jobs: recurring ad
// timers and one-shot tournament pickup reminders. Both kinds invoke the
// broadcaster; firings that fail are logged and swallowed so one bad send
// never halts a job.
//
// Jobs live in memory only and are lost on process restart.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/streamhaus/chatbridge/internal/domain"
	apperrors "github.com/streamhaus/chatbridge/internal/errors"
	"github.com/streamhaus/chatbridge/internal/logging"
	"github.com/streamhaus/chatbridge/internal/metrics"
	"github.com/streamhaus/chatbridge/internal/platform/correlation"
)

const (
	defaultPickupMessage = "Tournament pickup is now available!"
	firingTimeout        = 30 * time.Second
)

type adJob struct {
	intervalMinutes int
	message         string
	startedAt       time.Time
	ticker          clockwork.Ticker
	stopCh          chan struct{}
	stopOnce        sync.Once
}

func (j *adJob) stop() {
	j.stopOnce.Do(func() {
		j.ticker.Stop()
		close(j.stopCh)
	})
}

type reminderJob struct {
	timer    clockwork.Timer
	stopCh   chan struct{}
	stopOnce sync.Once
}

func (j *reminderJob) stop() {
	j.stopOnce.Do(func() {
		j.timer.Stop()
		close(j.stopCh)
	})
}

// Scheduler keeps one ad timer and one pending pickup reminder per tenant.
// Starting a job of a kind replaces the existing one of that kind; stopping
// a missing job is a no-op.
type Scheduler struct {
	broadcaster domain.Broadcaster
	clock       clockwork.Clock

	mu        sync.Mutex
	adJobs    map[domain.TenantID]*adJob
	reminders map[domain.TenantID]*reminderJob
}

func New(broadcaster domain.Broadcaster, clock clockwork.Clock) *Scheduler {
	return &Scheduler{
		broadcaster: broadcaster,
		clock:       clock,
		adJobs:      make(map[domain.TenantID]*adJob),
		reminders:   make(map[domain.TenantID]*reminderJob),
	}
}

// StartAdTimer validates, broadcasts the message once immediately, then
// schedules a repeating broadcast. Any existing ad job for the tenant is
// cancelled before the new one is registered, so the old timer can never
// fire again.
func (s *Scheduler) StartAdTimer(ctx context.Context, tenant domain.TenantID, intervalMinutes int, message string) (domain.BroadcastResult, error) {
	if intervalMinutes < domain.MinAdIntervalMinutes || intervalMinutes > domain.MaxAdIntervalMinutes {
		return domain.BroadcastResult{}, apperrors.ValidationError(
			fmt.Sprintf("interval must be between %d and %d minutes", domain.MinAdIntervalMinutes, domain.MaxAdIntervalMinutes)).
			WithField("interval_minutes", intervalMinutes)
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return domain.BroadcastResult{}, apperrors.ValidationError("message is empty")
	}

	initial, err := s.broadcaster.Broadcast(ctx, tenant, message)
	if err != nil {
		return domain.BroadcastResult{}, err
	}

	job := &adJob{
		intervalMinutes: intervalMinutes,
		message:         message,
		startedAt:       s.clock.Now(),
		ticker:          s.clock.NewTicker(time.Duration(intervalMinutes) * time.Minute),
		stopCh:          make(chan struct{}),
	}

	s.mu.Lock()
	if old := s.adJobs[tenant]; old != nil {
		old.stop()
	}
	s.adJobs[tenant] = job
	s.mu.Unlock()
	s.updateGauges()

	go s.runAdJob(tenant, job)

	logging.WithTenant(tenant).Info("Ad timer started", "interval_minutes", intervalMinutes)
	return initial, nil
}

func (s *Scheduler) runAdJob(tenant domain.TenantID, job *adJob) {
	for {
		select {
		case <-job.stopCh:
			return
		case <-job.ticker.Chan():
			s.fire("ad_timer", tenant, job.message)
		}
	}
}

// StopAdTimer cancels the tenant's ad job if present. Returns whether a job
// was running.
func (s *Scheduler) StopAdTimer(tenant domain.TenantID) bool {
	s.mu.Lock()
	job := s.adJobs[tenant]
	delete(s.adJobs, tenant)
	s.mu.Unlock()

	if job == nil {
		return false
	}
	job.stop()
	s.updateGauges()
	logging.WithTenant(tenant).Info("Ad timer stopped")
	return true
}

// AdTimerStatus reads the tenant's ad job state; the zero status means no
// job is registered.
func (s *Scheduler) AdTimerStatus(tenant domain.TenantID) domain.AdTimerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := s.adJobs[tenant]
	if job == nil {
		return domain.AdTimerStatus{}
	}
	startedAt := job.startedAt
	return domain.AdTimerStatus{
		Running:         true,
		IntervalMinutes: job.intervalMinutes,
		Message:         job.message,
		StartedAt:       &startedAt,
	}
}

// StartTournament broadcasts the start announcement and, when
// pickupAfterMinutes is positive, schedules exactly one delayed pickup
// reminder, replacing any reminder still pending for the tenant.
func (s *Scheduler) StartTournament(ctx context.Context, tenant domain.TenantID, title string, pickupAfterMinutes int) (domain.TournamentStartResult, error) {
	if pickupAfterMinutes < 0 {
		return domain.TournamentStartResult{}, apperrors.ValidationError("pickup delay must not be negative").
			WithField("pickup_after_minutes", pickupAfterMinutes)
	}
	title = strings.TrimSpace(title)

	startMessage := "Tournament has started!"
	if title != "" {
		startMessage = fmt.Sprintf("Tournament %q has started!", title)
	}

	sendResult, err := s.broadcaster.Broadcast(ctx, tenant, startMessage)
	if err != nil {
		return domain.TournamentStartResult{}, err
	}

	result := domain.TournamentStartResult{SendResult: sendResult}
	if pickupAfterMinutes == 0 {
		return result, nil
	}

	pickupMessage := defaultPickupMessage
	if title != "" {
		pickupMessage = fmt.Sprintf("Pickup for tournament %q is now available!", title)
	}
	s.scheduleReminder(tenant, pickupAfterMinutes, pickupMessage)

	minutes := pickupAfterMinutes
	result.PickupReminderMinutes = &minutes
	return result, nil
}

func (s *Scheduler) scheduleReminder(tenant domain.TenantID, delayMinutes int, message string) {
	job := &reminderJob{
		timer:  s.clock.NewTimer(time.Duration(delayMinutes) * time.Minute),
		stopCh: make(chan struct{}),
	}

	s.mu.Lock()
	if old := s.reminders[tenant]; old != nil {
		old.stop()
	}
	s.reminders[tenant] = job
	s.mu.Unlock()
	s.updateGauges()

	go func() {
		select {
		case <-job.stopCh:
			return
		case <-job.timer.Chan():
		}

		// Self-remove before firing so a concurrent replacement cannot
		// cancel a reminder that is already going out.
		s.mu.Lock()
		if s.reminders[tenant] == job {
			delete(s.reminders, tenant)
		}
		s.mu.Unlock()
		s.updateGauges()

		s.fire("pickup_reminder", tenant, message)
	}()

	logging.WithTenant(tenant).Info("Pickup reminder scheduled", "delay_minutes", delayMinutes)
}

// Pickup broadcasts an explicit pickup announcement right away.
func (s *Scheduler) Pickup(ctx context.Context, tenant domain.TenantID, message string) (domain.BroadcastResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		message = defaultPickupMessage
	}
	return s.broadcaster.Broadcast(ctx, tenant, message)
}

// StopAll cancels every job. Used on shutdown.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	for tenant, job := range s.adJobs {
		job.stop()
		delete(s.adJobs, tenant)
	}
	for tenant, job := range s.reminders {
		job.stop()
		delete(s.reminders, tenant)
	}
	s.mu.Unlock()
	s.updateGauges()
}

// fire runs one scheduled broadcast. Failures are logged and swallowed: a
// bad firing must not crash the scheduler or halt future firings.
func (s *Scheduler) fire(kind string, tenant domain.TenantID, message string) {
	ctx := correlation.WithID(context.Background(), correlation.NewID())
	ctx, cancel := context.WithTimeout(ctx, firingTimeout)
	defer cancel()

	result, err := s.broadcaster.Broadcast(ctx, tenant, message)
	if err != nil {
		metrics.SchedulerFiringsTotal.WithLabelValues(kind, "error").Inc()
		logging.WithTenant(tenant).WarnContext(ctx, "Scheduled broadcast failed",
			"kind", kind, "error", err)
		return
	}

	status := "ok"
	if len(result.Errors) > 0 {
		status = "partial"
	}
	metrics.SchedulerFiringsTotal.WithLabelValues(kind, status).Inc()
	logging.WithTenant(tenant).DebugContext(ctx, "Scheduled broadcast fired",
		"kind", kind, "attempted", result.Attempted, "failed", len(result.Errors))
}

func (s *Scheduler) updateGauges() {
	s.mu.Lock()
	adCount := len(s.adJobs)
	reminderCount := len(s.reminders)
	s.mu.Unlock()

	metrics.SchedulerActiveAdTimers.Set(float64(adCount))
	metrics.SchedulerPendingReminders.Set(float64(reminderCount))
}
