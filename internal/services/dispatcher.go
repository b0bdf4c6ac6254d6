package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/taskdeck/backend/domain"
	appLogger "github.com/taskdeck/backend/pkg/logger"
	"github.com/taskdeck/backend/repository"
	"github.com/taskdeck/backend/usecase"
)

// DispatcherConfig controls the retry policy wrapped around each dispatch
// unit. Backoff steps apply between attempts; the last step repeats if
// MaxAttempts exceeds the number of steps.
type DispatcherConfig struct {
	MaxAttempts int
	Backoff     []time.Duration
	ClaimTTL    time.Duration
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if len(c.Backoff) == 0 {
		c.Backoff = []time.Duration{time.Minute, 5 * time.Minute, 15 * time.Minute}
	}
	if c.ClaimTTL <= 0 {
		c.ClaimTTL = 2 * time.Minute
	}
	return c
}

// Dispatcher runs the atomic re-validate/trigger/persist unit of work for
// one reminder. Infrastructure failures are retried with backoff; business
// outcomes (triggered, failed, vanished, lost race) end the unit.
type Dispatcher struct {
	items     repository.WorkItemRepository
	reminders repository.ReminderRepository
	notifier  usecase.Notifier
	claims    repository.ClaimStore
	stats     *Stats
	logger    *zap.Logger
	cfg       DispatcherConfig
	now       func() time.Time
}

func NewDispatcher(
	items repository.WorkItemRepository,
	reminders repository.ReminderRepository,
	notifier usecase.Notifier,
	claims repository.ClaimStore,
	stats *Stats,
	logger *zap.Logger,
	cfg DispatcherConfig,
) *Dispatcher {
	logger = appLogger.ForJob(logger, "dispatch")
	if stats == nil {
		stats = NewStats()
	}
	return &Dispatcher{
		items:     items,
		reminders: reminders,
		notifier:  notifier,
		claims:    claims,
		stats:     stats,
		logger:    logger,
		cfg:       cfg.withDefaults(),
		now:       time.Now,
	}
}

// Dispatch executes the dispatch unit for the reminder id, retrying the
// whole unit on infrastructure errors. On retry exhaustion the error is
// returned for the scheduling layer to log; the reminder stays scheduled
// and the next tick or recovery scan picks it up again.
func (d *Dispatcher) Dispatch(ctx context.Context, reminderID string) error {
	if d.claims != nil {
		acquired, err := d.claims.Acquire(ctx, reminderID, d.cfg.ClaimTTL)
		if err != nil {
			// Claims are best-effort: a broken claim store must not stop dispatch.
			d.logger.Warn("dispatch claim unavailable", zap.String("reminder_id", reminderID), zap.Error(err))
		} else if !acquired {
			d.logger.Debug("reminder claimed by another worker", zap.String("reminder_id", reminderID))
			return nil
		} else {
			defer func() {
				if err := d.claims.Release(context.WithoutCancel(ctx), reminderID); err != nil {
					d.logger.Debug("dispatch claim release failed", zap.String("reminder_id", reminderID), zap.Error(err))
				}
			}()
		}
	}

	d.stats.dispatched.Add(1)

	var err error
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		err = d.dispatchOnce(ctx, reminderID)
		if err == nil {
			return nil
		}
		if attempt >= d.cfg.MaxAttempts {
			break
		}

		delay := d.backoff(attempt)
		d.logger.Warn("dispatch attempt failed, backing off",
			zap.String("reminder_id", reminderID),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	d.stats.retriesExhausted.Add(1)
	d.logger.Error("dispatch retries exhausted, reminder left scheduled",
		zap.String("reminder_id", reminderID),
		zap.Int("attempts", d.cfg.MaxAttempts),
		zap.Error(err))
	return fmt.Errorf("dispatch reminder %s: %w", reminderID, err)
}

// dispatchOnce is one attempt at the unit of work. A nil return means the
// unit reached a settled outcome; a non-nil return is an infrastructure
// failure worth retrying.
func (d *Dispatcher) dispatchOnce(ctx context.Context, reminderID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	reminder, err := d.reminders.GetByID(ctx, reminderID)
	if err != nil {
		if errors.Is(err, domain.ErrReminderNotFound) {
			// Consumed or deleted since enqueue.
			return nil
		}
		return err
	}

	// Idempotency guard against duplicate or overlapping dispatch.
	if reminder.Status != domain.ReminderScheduledStatus {
		d.logger.Debug("reminder no longer scheduled, skipping",
			zap.String("reminder_id", reminderID),
			zap.String("status", string(reminder.Status)))
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	now := d.now()
	item, err := d.items.GetByID(ctx, reminder.WorkItemID)
	if err != nil {
		if errors.Is(err, domain.ErrWorkItemNotFound) {
			if _, err := reminder.Fail("work item not found", domain.SystemActor.UserID, now); err != nil {
				return nil
			}
			d.stats.failed.Add(1)
			return d.persist(ctx, reminder)
		}
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// A notifier error is a business failure recorded on the reminder,
	// never a reason to keep it scheduled and re-trigger endlessly.
	notifyErr := d.notifier.Notify(ctx, usecase.Notification{
		WorkItemID:    item.ID,
		WorkItemTitle: item.Title,
		Message:       reminder.Message,
		FireAt:        reminder.FireAt,
	})

	if notifyErr == nil {
		if _, err := reminder.Trigger(domain.SystemActor.UserID, now); err != nil {
			return nil
		}
		d.stats.triggered.Add(1)
	} else {
		if _, err := reminder.Fail(notifyErr.Error(), domain.SystemActor.UserID, now); err != nil {
			return nil
		}
		d.stats.failed.Add(1)
		d.logger.Warn("reminder notification failed",
			zap.String("reminder_id", reminder.ID),
			zap.String("work_item_id", item.ID),
			zap.Error(notifyErr))
	}

	return d.persist(ctx, reminder)
}

func (d *Dispatcher) persist(ctx context.Context, reminder *domain.Reminder) error {
	err := d.reminders.Update(ctx, reminder)
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrVersionConflict) || errors.Is(err, domain.ErrReminderNotFound) {
		// A concurrent writer won the race; the other outcome stands.
		d.stats.conflicts.Add(1)
		d.logger.Debug("reminder update lost concurrency race", zap.String("reminder_id", reminder.ID))
		return nil
	}
	return err
}

func (d *Dispatcher) backoff(attempt int) time.Duration {
	idx := attempt - 1
	if idx >= len(d.cfg.Backoff) {
		idx = len(d.cfg.Backoff) - 1
	}
	return d.cfg.Backoff[idx]
}
