package workitem

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskdeck/backend/domain"
	"github.com/taskdeck/backend/repository/memory"
	"github.com/taskdeck/backend/usecase"
)

var (
	testActor  = domain.Actor{TenantID: "tenant-1", UserID: "user-1"}
	otherActor = domain.Actor{TenantID: "tenant-2", UserID: "user-9"}
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func newTestUseCase(t *testing.T) (*UseCase, *memory.Store, *usecase.EventDispatcher) {
	t.Helper()
	store := memory.NewStore()
	events := usecase.NewEventDispatcher()
	uc := New(store.WorkItems(), store.Reminders(), events, nil)
	uc.now = fixedNow
	return uc, store, events
}

func recordEvents(events *usecase.EventDispatcher, names ...string) *[]domain.Event {
	var seen []domain.Event
	for _, name := range names {
		events.Register(name, func(_ context.Context, event domain.Event) {
			seen = append(seen, event)
		})
	}
	return &seen
}

func TestCreate(t *testing.T) {
	t.Run("persists a draft item and publishes the creation event", func(t *testing.T) {
		uc, store, events := newTestUseCase(t)
		seen := recordEvents(events, "workitem.created")

		due := fixedNow().Add(7 * 24 * time.Hour)
		item, err := uc.Create(context.Background(), testActor, CreateInput{
			Title:          "Prepare launch",
			Description:    "runbook draft",
			Priority:       "high",
			DueAt:          &due,
			EstimatedHours: 6,
			Tags:           []string{"launch", "ops"},
		})
		require.NoError(t, err)
		require.Equal(t, domain.StateDraft, item.State)
		require.Equal(t, domain.PriorityHigh, item.Priority)
		require.Equal(t, []string{"launch", "ops"}, item.Tags)
		require.Len(t, *seen, 1)

		stored, err := store.WorkItems().GetByID(context.Background(), item.ID)
		require.NoError(t, err)
		require.Equal(t, "Prepare launch", stored.Title)
		require.Equal(t, 1, stored.Version)
	})

	t.Run("invalid title publishes nothing", func(t *testing.T) {
		uc, _, events := newTestUseCase(t)
		seen := recordEvents(events, "workitem.created")

		_, err := uc.Create(context.Background(), testActor, CreateInput{Title: " "})
		require.Error(t, err)
		require.Empty(t, *seen)
	})

	t.Run("duplicate tags in input rejected", func(t *testing.T) {
		uc, _, _ := newTestUseCase(t)
		_, err := uc.Create(context.Background(), testActor, CreateInput{
			Title: "Tagged",
			Tags:  []string{"ops", "Ops"},
		})
		require.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	})
}

func TestGet(t *testing.T) {
	uc, _, _ := newTestUseCase(t)
	item, err := uc.Create(context.Background(), testActor, CreateInput{Title: "Mine"})
	require.NoError(t, err)

	t.Run("same tenant sees the item", func(t *testing.T) {
		got, err := uc.Get(context.Background(), testActor, item.ID)
		require.NoError(t, err)
		require.Equal(t, item.ID, got.ID)
	})

	t.Run("other tenant gets not found", func(t *testing.T) {
		_, err := uc.Get(context.Background(), otherActor, item.ID)
		require.ErrorIs(t, err, domain.ErrWorkItemNotFound)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := uc.Get(context.Background(), testActor, "missing")
		require.ErrorIs(t, err, domain.ErrWorkItemNotFound)
	})
}

func TestChangeState(t *testing.T) {
	seedReminder := func(t *testing.T, store *memory.Store, workItemID string, status domain.ReminderStatus) string {
		t.Helper()
		r, _, err := domain.NewReminder("rem-"+string(status), workItemID, fixedNow().Add(time.Hour), "ping", testActor, fixedNow())
		require.NoError(t, err)
		require.NoError(t, store.Reminders().Create(context.Background(), r))
		if status == domain.ReminderScheduledStatus {
			return r.ID
		}
		switch status {
		case domain.ReminderTriggeredStatus:
			_, err = r.Trigger("system", fixedNow())
		case domain.ReminderFailedStatus:
			_, err = r.Fail("boom", "system", fixedNow())
		case domain.ReminderCancelledStatus:
			_, err = r.Cancel(testActor, false, fixedNow())
		}
		require.NoError(t, err)
		require.NoError(t, store.Reminders().Update(context.Background(), r))
		return r.ID
	}

	t.Run("completing cancels only scheduled reminders", func(t *testing.T) {
		uc, store, events := newTestUseCase(t)
		seen := recordEvents(events, "workitem.state_changed", "reminder.cancelled")

		item, err := uc.Create(context.Background(), testActor, CreateInput{Title: "Cascade"})
		require.NoError(t, err)
		_, err = uc.ChangeState(context.Background(), testActor, item.ID, domain.StateInProgress)
		require.NoError(t, err)

		firstID := seedReminder(t, store, item.ID, domain.ReminderScheduledStatus)
		triggeredID := seedReminder(t, store, item.ID, domain.ReminderTriggeredStatus)
		failedID := seedReminder(t, store, item.ID, domain.ReminderFailedStatus)

		*seen = nil
		updated, err := uc.ChangeState(context.Background(), testActor, item.ID, domain.StateCompleted)
		require.NoError(t, err)
		require.Equal(t, domain.StateCompleted, updated.State)
		require.NotNil(t, updated.CompletedAt)

		first, err := store.Reminders().GetByID(context.Background(), firstID)
		require.NoError(t, err)
		require.Equal(t, domain.ReminderCancelledStatus, first.Status)

		triggered, err := store.Reminders().GetByID(context.Background(), triggeredID)
		require.NoError(t, err)
		require.Equal(t, domain.ReminderTriggeredStatus, triggered.Status)

		failed, err := store.Reminders().GetByID(context.Background(), failedID)
		require.NoError(t, err)
		require.Equal(t, domain.ReminderFailedStatus, failed.Status)

		require.Len(t, *seen, 2)
		cancelled, ok := (*seen)[1].(domain.ReminderCancelled)
		require.True(t, ok)
		require.True(t, cancelled.Cascade)
	})

	t.Run("archiving cascades the same way", func(t *testing.T) {
		uc, store, _ := newTestUseCase(t)
		item, err := uc.Create(context.Background(), testActor, CreateInput{Title: "Archive"})
		require.NoError(t, err)
		id := seedReminder(t, store, item.ID, domain.ReminderScheduledStatus)

		_, err = uc.ChangeState(context.Background(), testActor, item.ID, domain.StateArchived)
		require.NoError(t, err)

		reminder, err := store.Reminders().GetByID(context.Background(), id)
		require.NoError(t, err)
		require.Equal(t, domain.ReminderCancelledStatus, reminder.Status)
	})

	t.Run("rejected transition persists nothing", func(t *testing.T) {
		uc, store, events := newTestUseCase(t)
		seen := recordEvents(events, "workitem.state_changed")

		item, err := uc.Create(context.Background(), testActor, CreateInput{Title: "Stuck"})
		require.NoError(t, err)

		_, err = uc.ChangeState(context.Background(), testActor, item.ID, domain.StateCompleted)
		require.True(t, domain.IsDomainError(err, domain.ErrCodeState))
		require.Empty(t, *seen)

		stored, err := store.WorkItems().GetByID(context.Background(), item.ID)
		require.NoError(t, err)
		require.Equal(t, domain.StateDraft, stored.State)
		require.Equal(t, 1, stored.Version)
	})

	t.Run("other tenant cannot transition", func(t *testing.T) {
		uc, _, _ := newTestUseCase(t)
		item, err := uc.Create(context.Background(), testActor, CreateInput{Title: "Foreign"})
		require.NoError(t, err)
		_, err = uc.ChangeState(context.Background(), otherActor, item.ID, domain.StateInProgress)
		require.ErrorIs(t, err, domain.ErrWorkItemNotFound)
	})
}

func TestUpdateDetails(t *testing.T) {
	strPtr := func(s string) *string { return &s }
	floatPtr := func(f float64) *float64 { return &f }

	t.Run("partial update bumps the version once", func(t *testing.T) {
		uc, store, _ := newTestUseCase(t)
		item, err := uc.Create(context.Background(), testActor, CreateInput{Title: "Original"})
		require.NoError(t, err)

		due := fixedNow().Add(48 * time.Hour)
		updated, err := uc.UpdateDetails(context.Background(), testActor, item.ID, UpdateInput{
			Title:          strPtr("Renamed"),
			Priority:       strPtr("critical"),
			DueAt:          &due,
			EstimatedHours: floatPtr(4),
		})
		require.NoError(t, err)
		require.Equal(t, "Renamed", updated.Title)
		require.Equal(t, domain.PriorityCritical, updated.Priority)
		require.NotNil(t, updated.DueAt)
		require.Equal(t, 2, updated.Version)

		stored, err := store.WorkItems().GetByID(context.Background(), item.ID)
		require.NoError(t, err)
		require.Equal(t, 2, stored.Version)
	})

	t.Run("clear due date wins over a provided one", func(t *testing.T) {
		uc, _, _ := newTestUseCase(t)
		due := fixedNow().Add(48 * time.Hour)
		item, err := uc.Create(context.Background(), testActor, CreateInput{Title: "Due", DueAt: &due})
		require.NoError(t, err)

		updated, err := uc.UpdateDetails(context.Background(), testActor, item.ID, UpdateInput{
			DueAt:        &due,
			ClearDueDate: true,
		})
		require.NoError(t, err)
		require.Nil(t, updated.DueAt)
	})

	t.Run("archived item rejects updates", func(t *testing.T) {
		uc, _, _ := newTestUseCase(t)
		item, err := uc.Create(context.Background(), testActor, CreateInput{Title: "Frozen"})
		require.NoError(t, err)
		_, err = uc.ChangeState(context.Background(), testActor, item.ID, domain.StateArchived)
		require.NoError(t, err)

		_, err = uc.UpdateDetails(context.Background(), testActor, item.ID, UpdateInput{Title: strPtr("Nope")})
		require.ErrorIs(t, err, domain.ErrWorkItemArchived)
	})
}

func TestTagOperations(t *testing.T) {
	uc, _, _ := newTestUseCase(t)
	item, err := uc.Create(context.Background(), testActor, CreateInput{Title: "Tagged"})
	require.NoError(t, err)

	updated, err := uc.AddTag(context.Background(), testActor, item.ID, "infra")
	require.NoError(t, err)
	require.Equal(t, []string{"infra"}, updated.Tags)
	require.Equal(t, 2, updated.Version)

	_, err = uc.AddTag(context.Background(), testActor, item.ID, "INFRA")
	require.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	updated, err = uc.RemoveTag(context.Background(), testActor, item.ID, "Infra")
	require.NoError(t, err)
	require.Empty(t, updated.Tags)
}
