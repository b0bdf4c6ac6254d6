package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskdeck/backend/domain"
	appLogger "github.com/taskdeck/backend/pkg/logger"
	"github.com/taskdeck/backend/repository"
	"github.com/taskdeck/backend/usecase"
)

// Dispatcher is the trigger path shared with the due-check scheduler.
// TriggerNow funnels through it so manual triggers get the same
// idempotency and retry semantics as timer-driven ones.
type Dispatcher interface {
	Dispatch(ctx context.Context, reminderID string) error
}

// UseCase exposes the reminder operations to callers.
type UseCase struct {
	items      repository.WorkItemRepository
	reminders  repository.ReminderRepository
	dispatcher Dispatcher
	events     *usecase.EventDispatcher
	logger     *zap.Logger
	now        func() time.Time
}

func New(items repository.WorkItemRepository, reminders repository.ReminderRepository, dispatcher Dispatcher, events *usecase.EventDispatcher, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		items:      items,
		reminders:  reminders,
		dispatcher: dispatcher,
		events:     events,
		logger:     logger,
		now:        time.Now,
	}
}

// Schedule creates a scheduled reminder on the work item and returns its id.
func (uc *UseCase) Schedule(ctx context.Context, actor domain.Actor, workItemID string, fireAt time.Time, message string) (string, error) {
	item, err := uc.loadItem(ctx, actor, workItemID)
	if err != nil {
		return "", err
	}

	now := uc.now()
	count, err := uc.reminders.CountScheduled(ctx, item.ID)
	if err != nil {
		return "", err
	}
	if err := domain.CanScheduleReminder(item, count, fireAt, now); err != nil {
		return "", err
	}

	reminder, scheduled, err := domain.NewReminder(uuid.NewString(), item.ID, fireAt, message, actor, now)
	if err != nil {
		return "", err
	}
	if err := uc.reminders.Create(ctx, reminder); err != nil {
		return "", err
	}

	appLogger.FromContext(ctx, uc.logger).Info("reminder scheduled",
		zap.String("reminder_id", reminder.ID),
		zap.String("work_item_id", item.ID),
		zap.Time("fire_at", reminder.FireAt))
	uc.events.Publish(ctx, scheduled)
	return reminder.ID, nil
}

// Reschedule returns a failed or cancelled reminder to the scheduled
// status with a new future fire time.
func (uc *UseCase) Reschedule(ctx context.Context, actor domain.Actor, reminderID string, fireAt time.Time) error {
	reminder, item, err := uc.loadReminder(ctx, actor, reminderID)
	if err != nil {
		return err
	}

	now := uc.now()
	count, err := uc.reminders.CountScheduled(ctx, item.ID)
	if err != nil {
		return err
	}
	if err := domain.CanScheduleReminder(item, count, fireAt, now); err != nil {
		return err
	}

	event, err := reminder.Reschedule(fireAt, actor, now)
	if err != nil {
		return err
	}
	if err := uc.reminders.Update(ctx, reminder); err != nil {
		return err
	}
	uc.events.Publish(ctx, event)
	return nil
}

// Cancel stops a scheduled reminder explicitly.
func (uc *UseCase) Cancel(ctx context.Context, actor domain.Actor, reminderID string) error {
	reminder, _, err := uc.loadReminder(ctx, actor, reminderID)
	if err != nil {
		return err
	}

	event, err := reminder.Cancel(actor, false, uc.now())
	if err != nil {
		return err
	}
	if err := uc.reminders.Update(ctx, reminder); err != nil {
		return err
	}
	uc.events.Publish(ctx, event)
	return nil
}

// TriggerNow fires the reminder immediately through the regular dispatch
// path, manual-operator override for a due check that has not come yet.
func (uc *UseCase) TriggerNow(ctx context.Context, actor domain.Actor, reminderID string) error {
	if _, _, err := uc.loadReminder(ctx, actor, reminderID); err != nil {
		return err
	}
	return uc.dispatcher.Dispatch(ctx, reminderID)
}

// Get loads a reminder scoped to the actor's tenant.
func (uc *UseCase) Get(ctx context.Context, actor domain.Actor, reminderID string) (*domain.Reminder, error) {
	reminder, _, err := uc.loadReminder(ctx, actor, reminderID)
	return reminder, err
}

// ListForWorkItem returns all live reminders of a work item.
func (uc *UseCase) ListForWorkItem(ctx context.Context, actor domain.Actor, workItemID string) ([]domain.Reminder, error) {
	item, err := uc.loadItem(ctx, actor, workItemID)
	if err != nil {
		return nil, err
	}
	return uc.reminders.ListByWorkItem(ctx, item.ID)
}

func (uc *UseCase) loadItem(ctx context.Context, actor domain.Actor, id string) (*domain.WorkItem, error) {
	item, err := uc.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.TenantID != actor.TenantID {
		return nil, domain.ErrWorkItemNotFound
	}
	return item, nil
}

func (uc *UseCase) loadReminder(ctx context.Context, actor domain.Actor, id string) (*domain.Reminder, *domain.WorkItem, error) {
	reminder, err := uc.reminders.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	item, err := uc.items.GetByID(ctx, reminder.WorkItemID)
	if err != nil {
		return nil, nil, err
	}
	if item.TenantID != actor.TenantID {
		return nil, nil, domain.ErrReminderNotFound
	}
	return reminder, item, nil
}
