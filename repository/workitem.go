package repository

import (
	"context"

	"github.com/taskdeck/backend/domain"
)

// WorkItemRepository persists work items. Update and UpdateWithReminders
// are optimistic-concurrency aware: they match on the entity version
// captured at load time and return domain.ErrVersionConflict when a
// concurrent writer won the race.
type WorkItemRepository interface {
	GetByID(ctx context.Context, id string) (*domain.WorkItem, error)
	Create(ctx context.Context, item *domain.WorkItem) error
	Update(ctx context.Context, item *domain.WorkItem) error
	// UpdateWithReminders commits the work item together with the given
	// reminders in one transaction. Used by the cancellation cascade so a
	// completed item and its cancelled reminders are never observed apart.
	UpdateWithReminders(ctx context.Context, item *domain.WorkItem, reminders []*domain.Reminder) error
}
