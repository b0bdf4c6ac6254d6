package repository

import (
	"context"
	"time"

	"github.com/taskdeck/backend/domain"
)

// ReminderRepository persists reminders. Update matches on the version
// captured at load time and returns domain.ErrVersionConflict on a miss.
// Soft-deleted reminders are invisible to every query.
type ReminderRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Reminder, error)
	Create(ctx context.Context, reminder *domain.Reminder) error
	Update(ctx context.Context, reminder *domain.Reminder) error
	ListByWorkItem(ctx context.Context, workItemID string) ([]domain.Reminder, error)
	// CountScheduled returns the number of reminders currently in
	// scheduled status for the work item.
	CountScheduled(ctx context.Context, workItemID string) (int, error)
	// ListDue returns scheduled reminders with fireAt <= now, ordered by
	// fireAt ascending, capped at limit.
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Reminder, error)
	// ListMissed returns scheduled reminders whose fireAt lies in
	// (lower, upper], i.e. late but still inside the recovery window.
	ListMissed(ctx context.Context, lower, upper time.Time) ([]domain.Reminder, error)
	// ListAbandoned returns scheduled reminders older than the recovery
	// window that are only surfaced for observability, never triggered.
	ListAbandoned(ctx context.Context, cutoff time.Time, limit int) ([]domain.Reminder, error)
	// ListTerminalOlderThan returns triggered/cancelled reminders whose
	// last update is older than cutoff, for the retention pass.
	ListTerminalOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]domain.Reminder, error)
	// SoftDelete hides the given reminders from all queries.
	SoftDelete(ctx context.Context, ids []string, now time.Time) error
}
