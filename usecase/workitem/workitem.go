package workitem

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

// UseCase exposes the work item operations to callers.
type UseCase struct {
	items     repository.WorkItemRepository
	reminders repository.ReminderRepository
	events    *usecase.EventDispatcher
	logger    *zap.Logger
	now       func() time.Time
}

func New(items repository.WorkItemRepository, reminders repository.ReminderRepository, events *usecase.EventDispatcher, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		items:     items,
		reminders: reminders,
		events:    events,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateInput carries the optional attributes of a new work item.
type CreateInput struct {
	Title          string
	Description    string
	Priority       string
	DueAt          *time.Time
	EstimatedHours float64
	Tags           []string
}

// Create persists a new draft work item owned by the actor's tenant.
func (uc *UseCase) Create(ctx context.Context, actor domain.Actor, input CreateInput) (*domain.WorkItem, error) {
	now := uc.now()
	item, created, err := domain.NewWorkItem(uuid.NewString(), actor, input.Title, now)
	if err != nil {
		return nil, err
	}

	if err := item.SetDescription(input.Description); err != nil {
		return nil, err
	}
	if input.Priority != "" {
		if err := item.SetPriority(domain.ParsePriority(input.Priority)); err != nil {
			return nil, err
		}
	}
	if err := item.SetDueDate(input.DueAt); err != nil {
		return nil, err
	}
	if err := item.SetEstimate(input.EstimatedHours); err != nil {
		return nil, err
	}
	for _, tag := range input.Tags {
		if err := item.AddTag(tag); err != nil {
			return nil, err
		}
	}

	if err := uc.items.Create(ctx, item); err != nil {
		return nil, err
	}
	uc.events.Publish(ctx, created)
	return item, nil
}

// Get loads a work item, hiding items of other tenants behind not-found.
func (uc *UseCase) Get(ctx context.Context, actor domain.Actor, id string) (*domain.WorkItem, error) {
	return uc.load(ctx, actor, id)
}

// ChangeState transitions the work item, cascading a cancellation over
// its scheduled reminders when the target state requires it. The item and
// the cancelled reminders are committed in one transaction; events are
// published only after that commit.
func (uc *UseCase) ChangeState(ctx context.Context, actor domain.Actor, id string, target domain.WorkItemState) (*domain.WorkItem, error) {
	item, err := uc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	changed, err := item.TransitionTo(target, actor, now)
	if err != nil {
		return nil, err
	}
	events := []domain.Event{changed}

	var cancelled []*domain.Reminder
	if domain.CancelsReminders(target) {
		all, err := uc.reminders.ListByWorkItem(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		for i := range all {
			if all[i].Status != domain.ReminderScheduledStatus {
				continue
			}
			reminder := all[i]
			event, err := reminder.Cancel(actor, true, now)
			if err != nil {
				return nil, err
			}
			cancelled = append(cancelled, &reminder)
			events = append(events, event)
		}
	}

	if len(cancelled) > 0 {
		err = uc.items.UpdateWithReminders(ctx, item, cancelled)
	} else {
		err = uc.items.Update(ctx, item)
	}
	if err != nil {
		return nil, err
	}

	appLogger.FromContext(ctx, uc.logger).Info("work item state changed",
		zap.String("work_item_id", item.ID),
		zap.String("state", string(target)),
		zap.Int("cancelled_reminders", len(cancelled)))
	uc.events.Publish(ctx, events...)
	return item, nil
}

// UpdateInput carries a partial update; nil fields are left untouched.
type UpdateInput struct {
	Title          *string
	Description    *string
	Priority       *string
	DueAt          *time.Time
	ClearDueDate   bool
	EstimatedHours *float64
	ActualHours    *float64
}

// UpdateDetails applies a partial field update in one unit of work.
func (uc *UseCase) UpdateDetails(ctx context.Context, actor domain.Actor, id string, input UpdateInput) (*domain.WorkItem, error) {
	item, err := uc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if err := item.Rename(*input.Title); err != nil {
			return nil, err
		}
	}
	if input.Description != nil {
		if err := item.SetDescription(*input.Description); err != nil {
			return nil, err
		}
	}
	if input.Priority != nil {
		if err := item.SetPriority(domain.ParsePriority(*input.Priority)); err != nil {
			return nil, err
		}
	}
	if input.ClearDueDate {
		if err := item.SetDueDate(nil); err != nil {
			return nil, err
		}
	} else if input.DueAt != nil {
		if err := item.SetDueDate(input.DueAt); err != nil {
			return nil, err
		}
	}
	if input.EstimatedHours != nil {
		if err := item.SetEstimate(*input.EstimatedHours); err != nil {
			return nil, err
		}
	}
	if input.ActualHours != nil {
		if err := item.SetActualHours(*input.ActualHours); err != nil {
			return nil, err
		}
	}

	item.MarkUpdated(actor.UserID, uc.now())
	if err := uc.items.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// AddTag appends a tag to the work item.
func (uc *UseCase) AddTag(ctx context.Context, actor domain.Actor, id, tag string) (*domain.WorkItem, error) {
	return uc.mutateTags(ctx, actor, id, func(item *domain.WorkItem) error {
		return item.AddTag(tag)
	})
}

// RemoveTag removes a tag from the work item.
func (uc *UseCase) RemoveTag(ctx context.Context, actor domain.Actor, id, tag string) (*domain.WorkItem, error) {
	return uc.mutateTags(ctx, actor, id, func(item *domain.WorkItem) error {
		return item.RemoveTag(tag)
	})
}

func (uc *UseCase) mutateTags(ctx context.Context, actor domain.Actor, id string, mutate func(*domain.WorkItem) error) (*domain.WorkItem, error) {
	item, err := uc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(item); err != nil {
		return nil, err
	}
	item.MarkUpdated(actor.UserID, uc.now())
	if err := uc.items.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (uc *UseCase) load(ctx context.Context, actor domain.Actor, id string) (*domain.WorkItem, error) {
	item, err := uc.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.TenantID != actor.TenantID {
		return nil, domain.ErrWorkItemNotFound
	}
	return item, nil
}
