// Package memory holds in-memory repository implementations with the
// same optimistic-concurrency semantics as the postgres ones. Used by
// tests and local experiments; never wired into the server binary.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/taskdeck/backend/domain"
	"github.com/taskdeck/backend/repository"
)

// Store keeps work items and reminders behind one mutex so the
// transactional UpdateWithReminders stays atomic.
type Store struct {
	mu        sync.RWMutex
	items     map[string]domain.WorkItem
	reminders map[string]domain.Reminder
}

func NewStore() *Store {
	return &Store{
		items:     make(map[string]domain.WorkItem),
		reminders: make(map[string]domain.Reminder),
	}
}

// WorkItems returns the work item repository view of the store.
func (s *Store) WorkItems() repository.WorkItemRepository { return &workItemRepo{store: s} }

// Reminders returns the reminder repository view of the store.
func (s *Store) Reminders() repository.ReminderRepository { return &reminderRepo{store: s} }

type workItemRepo struct {
	store *Store
}

func (r *workItemRepo) GetByID(_ context.Context, id string) (*domain.WorkItem, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	item, ok := r.store.items[id]
	if !ok {
		return nil, domain.ErrWorkItemNotFound
	}
	out := item
	out.Tags = append([]string(nil), item.Tags...)
	return &out, nil
}

func (r *workItemRepo) Create(_ context.Context, item *domain.WorkItem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.items[item.ID]; exists {
		return domain.ErrVersionConflict
	}
	r.store.items[item.ID] = *item
	return nil
}

func (r *workItemRepo) Update(_ context.Context, item *domain.WorkItem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.updateItemLocked(item)
}

func (r *workItemRepo) UpdateWithReminders(_ context.Context, item *domain.WorkItem, reminders []*domain.Reminder) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.updateItemLocked(item); err != nil {
		return err
	}
	for _, reminder := range reminders {
		if err := r.store.updateReminderLocked(reminder); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) updateItemLocked(item *domain.WorkItem) error {
	existing, ok := s.items[item.ID]
	if !ok {
		return domain.ErrWorkItemNotFound
	}
	if existing.Version != item.Version-1 {
		return domain.ErrVersionConflict
	}
	s.items[item.ID] = *item
	return nil
}

func (s *Store) updateReminderLocked(reminder *domain.Reminder) error {
	existing, ok := s.reminders[reminder.ID]
	if !ok || existing.DeletedAt != nil {
		return domain.ErrReminderNotFound
	}
	if existing.Version != reminder.Version-1 {
		return domain.ErrVersionConflict
	}
	s.reminders[reminder.ID] = *reminder
	return nil
}

type reminderRepo struct {
	store *Store
}

func (r *reminderRepo) GetByID(_ context.Context, id string) (*domain.Reminder, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	reminder, ok := r.store.reminders[id]
	if !ok || reminder.DeletedAt != nil {
		return nil, domain.ErrReminderNotFound
	}
	out := reminder
	return &out, nil
}

func (r *reminderRepo) Create(_ context.Context, reminder *domain.Reminder) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.reminders[reminder.ID]; exists {
		return domain.ErrVersionConflict
	}
	r.store.reminders[reminder.ID] = *reminder
	return nil
}

func (r *reminderRepo) Update(_ context.Context, reminder *domain.Reminder) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.updateReminderLocked(reminder)
}

func (r *reminderRepo) ListByWorkItem(_ context.Context, workItemID string) ([]domain.Reminder, error) {
	return r.collect(0, func(rem domain.Reminder) bool {
		return rem.WorkItemID == workItemID
	}), nil
}

func (r *reminderRepo) CountScheduled(_ context.Context, workItemID string) (int, error) {
	matches := r.collect(0, func(rem domain.Reminder) bool {
		return rem.WorkItemID == workItemID && rem.Status == domain.ReminderScheduledStatus
	})
	return len(matches), nil
}

func (r *reminderRepo) ListDue(_ context.Context, now time.Time, limit int) ([]domain.Reminder, error) {
	return r.collect(limit, func(rem domain.Reminder) bool {
		return rem.IsDue(now)
	}), nil
}

func (r *reminderRepo) ListMissed(_ context.Context, lower, upper time.Time) ([]domain.Reminder, error) {
	return r.collect(0, func(rem domain.Reminder) bool {
		return rem.Status == domain.ReminderScheduledStatus &&
			rem.FireAt.After(lower) && !rem.FireAt.After(upper)
	}), nil
}

func (r *reminderRepo) ListAbandoned(_ context.Context, cutoff time.Time, limit int) ([]domain.Reminder, error) {
	return r.collect(limit, func(rem domain.Reminder) bool {
		return rem.Status == domain.ReminderScheduledStatus && !rem.FireAt.After(cutoff)
	}), nil
}

func (r *reminderRepo) ListTerminalOlderThan(_ context.Context, cutoff time.Time, limit int) ([]domain.Reminder, error) {
	return r.collect(limit, func(rem domain.Reminder) bool {
		return rem.IsTerminal() && rem.UpdatedAt.Before(cutoff)
	}), nil
}

func (r *reminderRepo) SoftDelete(_ context.Context, ids []string, now time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, id := range ids {
		reminder, ok := r.store.reminders[id]
		if !ok || reminder.DeletedAt != nil {
			continue
		}
		deleted := now
		reminder.DeletedAt = &deleted
		r.store.reminders[id] = reminder
	}
	return nil
}

// collect snapshots matching live reminders ordered by fire time. A
// limit of zero means unbounded.
func (r *reminderRepo) collect(limit int, match func(domain.Reminder) bool) []domain.Reminder {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []domain.Reminder
	for _, reminder := range r.store.reminders {
		if reminder.DeletedAt != nil || !match(reminder) {
			continue
		}
		out = append(out, reminder)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
