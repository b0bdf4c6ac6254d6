package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/taskdeck/backend/internal/infrastructure/deadletter"
	appLogger "github.com/taskdeck/backend/pkg/logger"
	"github.com/taskdeck/backend/repository"
)

// Submitter feeds reminder ids into the dispatch worker pool. Implemented
// by Scheduler so recovered reminders share the regular dispatch path.
type Submitter interface {
	Submit(reminderID string) bool
}

// RecoveryConfig controls the missed-reminder reconciliation and the
// retention pass.
type RecoveryConfig struct {
	Interval time.Duration
	// Grace is how late a reminder may fire before it counts as missed.
	Grace time.Duration
	// UpperBound is the oldest miss the scanner still re-submits;
	// anything older is journaled for operators instead.
	UpperBound time.Duration

	RetentionInterval time.Duration
	RetentionWindow   time.Duration
	RetentionBatch    int
}

func (c RecoveryConfig) withDefaults() RecoveryConfig {
	if c.Interval <= 0 {
		c.Interval = time.Hour
	}
	if c.Grace <= 0 {
		c.Grace = 5 * time.Minute
	}
	if c.UpperBound <= c.Grace {
		c.UpperBound = time.Hour
	}
	if c.RetentionInterval <= 0 {
		c.RetentionInterval = 24 * time.Hour
	}
	if c.RetentionWindow <= 0 {
		c.RetentionWindow = 4380 * time.Hour // ~6 months
	}
	if c.RetentionBatch <= 0 {
		c.RetentionBatch = 500
	}
	return c
}

// Recovery reconciles reminders missed by due checks (process restarts,
// scheduler gaps) and runs the low-priority retention pass over terminal
// reminders.
type Recovery struct {
	reminders repository.ReminderRepository
	queue     Submitter
	journal   *deadletter.Journal
	stats     *Stats
	logger    *zap.Logger
	cron      *cron.Cron
	cfg       RecoveryConfig
	now       func() time.Time
}

func NewRecovery(
	reminders repository.ReminderRepository,
	queue Submitter,
	journal *deadletter.Journal,
	stats *Stats,
	logger *zap.Logger,
	cfg RecoveryConfig,
) *Recovery {
	logger = appLogger.ForJob(logger, "recovery")
	if stats == nil {
		stats = NewStats()
	}
	cfg = cfg.withDefaults()

	r := &Recovery{
		reminders: reminders,
		queue:     queue,
		journal:   journal,
		stats:     stats,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		cron:      cron.New(cron.WithSeconds()),
	}

	_, _ = r.cron.AddFunc(fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds())), func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := r.Scan(ctx); err != nil {
			r.logger.Error("recovery scan failed", zap.Error(err))
		}
	})
	_, _ = r.cron.AddFunc(fmt.Sprintf("@every %ds", int(cfg.RetentionInterval.Seconds())), func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RetentionInterval)
		defer cancel()
		if err := r.Retain(ctx); err != nil {
			r.logger.Error("retention pass failed", zap.Error(err))
		}
	})

	return r
}

// Start launches the recovery cron.
func (r *Recovery) Start() {
	r.cron.Start()
	r.logger.Info("recovery scanner started",
		zap.Duration("interval", r.cfg.Interval),
		zap.Duration("grace", r.cfg.Grace),
		zap.Duration("upper_bound", r.cfg.UpperBound))
}

// Stop halts the cron, waiting for a running scan bounded by ctx.
func (r *Recovery) Stop(ctx context.Context) {
	cronCtx := r.cron.Stop()
	select {
	case <-cronCtx.Done():
	case <-ctx.Done():
	}
	r.logger.Info("recovery scanner stopped")
}

// Scan re-submits reminders missed inside the recovery window and
// journals reminders older than the window so they stay observable
// instead of silently abandoned.
func (r *Recovery) Scan(ctx context.Context) error {
	now := r.now()
	lower := now.Add(-r.cfg.UpperBound)
	upper := now.Add(-r.cfg.Grace)

	missed, err := r.reminders.ListMissed(ctx, lower, upper)
	if err != nil {
		return err
	}

	submitted := 0
	for i := range missed {
		if r.queue.Submit(missed[i].ID) {
			submitted++
		}
	}
	if submitted > 0 {
		r.stats.recovered.Add(int64(submitted))
		r.logger.Warn("missed reminders re-submitted",
			zap.Int("missed", len(missed)),
			zap.Int("submitted", submitted))
	}

	return r.journalAbandoned(ctx, lower)
}

func (r *Recovery) journalAbandoned(ctx context.Context, cutoff time.Time) error {
	abandoned, err := r.reminders.ListAbandoned(ctx, cutoff, r.cfg.RetentionBatch)
	if err != nil {
		return err
	}
	if len(abandoned) == 0 {
		return nil
	}

	for i := range abandoned {
		rem := &abandoned[i]
		r.logger.Warn("reminder abandoned, outside recovery window",
			zap.String("reminder_id", rem.ID),
			zap.String("work_item_id", rem.WorkItemID),
			zap.Time("fire_at", rem.FireAt))
		if r.journal == nil {
			continue
		}
		if err := r.journal.Record(deadletter.Entry{
			ReminderID: rem.ID,
			WorkItemID: rem.WorkItemID,
			FireAt:     rem.FireAt,
			Reason:     "fire time older than recovery window",
			RecordedAt: r.now().UTC(),
		}); err != nil {
			r.logger.Error("dead letter journal write failed", zap.String("reminder_id", rem.ID), zap.Error(err))
		}
	}
	r.stats.abandoned.Add(int64(len(abandoned)))
	return nil
}

// Retain soft-deletes triggered and cancelled reminders older than the
// retention window. Scheduled and failed reminders are never touched.
func (r *Recovery) Retain(ctx context.Context) error {
	now := r.now()
	cutoff := now.Add(-r.cfg.RetentionWindow)

	old, err := r.reminders.ListTerminalOlderThan(ctx, cutoff, r.cfg.RetentionBatch)
	if err != nil {
		return err
	}
	if len(old) == 0 {
		return nil
	}

	ids := make([]string, 0, len(old))
	for i := range old {
		if old[i].IsTerminal() {
			ids = append(ids, old[i].ID)
		}
	}
	if err := r.reminders.SoftDelete(ctx, ids, now); err != nil {
		return err
	}

	r.stats.retained.Add(int64(len(ids)))
	r.logger.Info("terminal reminders retired", zap.Int("count", len(ids)))
	return nil
}
