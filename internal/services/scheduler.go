package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	appLogger "github.com/taskdeck/backend/pkg/logger"
	"github.com/taskdeck/backend/repository"
)

// SchedulerConfig controls the due-check loop and its worker pool.
type SchedulerConfig struct {
	Interval  time.Duration
	BatchSize int
	Workers   int
	QueueSize int
}

func (c SchedulerConfig) withDefaults() SchedulerConfig {
	if c.Interval <= 0 {
		c.Interval = time.Minute
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	return c
}

// Scheduler is the periodic due-check producer: each tick lists due
// reminders and hands them to a bounded pool of dispatch workers without
// blocking on completion.
type Scheduler struct {
	reminders  repository.ReminderRepository
	dispatcher *Dispatcher
	stats      *Stats
	logger     *zap.Logger
	cron       *cron.Cron
	cfg        SchedulerConfig
	now        func() time.Time

	queue  chan string
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func NewScheduler(
	reminders repository.ReminderRepository,
	dispatcher *Dispatcher,
	stats *Stats,
	logger *zap.Logger,
	cfg SchedulerConfig,
) *Scheduler {
	logger = appLogger.ForJob(logger, "due_check")
	if stats == nil {
		stats = NewStats()
	}
	cfg = cfg.withDefaults()

	s := &Scheduler{
		reminders:  reminders,
		dispatcher: dispatcher,
		stats:      stats,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
		queue:      make(chan string, cfg.QueueSize),
		stopCh:     make(chan struct{}),
		cron:       cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = s.cron.AddFunc(schedule, func() {
		tickCtx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := s.Tick(tickCtx); err != nil {
			s.logger.Error("due check failed", zap.Error(err))
		}
	})

	return s
}

// Start launches the worker pool and the due-check cron.
func (s *Scheduler) Start(ctx context.Context) {
	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}
	s.cron.Start()
	s.logger.Info("reminder scheduler started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Int("batch_size", s.cfg.BatchSize),
		zap.Int("workers", s.cfg.Workers))
}

// Stop halts the cron, signals the workers and waits for in-flight
// dispatch units, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	cronCtx := s.cron.Stop()
	select {
	case <-cronCtx.Done():
	case <-ctx.Done():
	}

	s.once.Do(func() { close(s.stopCh) })

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
	s.logger.Info("reminder scheduler stopped")
}

// Tick runs one due check: list due reminders in fireAt order and submit
// each to the worker pool. A submission failure for one reminder never
// aborts the rest of the batch.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := s.now()
	due, err := s.reminders.ListDue(ctx, now, s.cfg.BatchSize)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	submitted := 0
	for i := range due {
		if s.Submit(due[i].ID) {
			submitted++
		}
	}
	s.logger.Info("due check batch submitted",
		zap.Int("batch", len(due)),
		zap.Int("submitted", submitted))
	return nil
}

// Submit enqueues a reminder id for dispatch without blocking. A full
// queue drops the id with a warning; the reminder stays scheduled and the
// next tick lists it again.
func (s *Scheduler) Submit(reminderID string) bool {
	select {
	case s.queue <- reminderID:
		return true
	default:
		s.stats.dropped.Add(1)
		s.logger.Warn("dispatch queue full, reminder deferred to next tick",
			zap.String("reminder_id", reminderID),
			zap.Int("queue_cap", cap(s.queue)))
		return false
	}
}

func (s *Scheduler) worker(ctx context.Context, idx int) {
	defer s.wg.Done()
	for {
		// A closed stop channel wins over queued work.
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		default:
		}

		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case id := <-s.queue:
			if err := s.dispatcher.Dispatch(ctx, id); err != nil {
				s.logger.Error("dispatch unit failed",
					zap.Int("worker", idx),
					zap.String("reminder_id", id),
					zap.Error(err))
			}
		}
	}
}
