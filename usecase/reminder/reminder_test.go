package reminder

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

type dispatcherSpy struct {
	calls []string
	err   error
}

func (d *dispatcherSpy) Dispatch(_ context.Context, reminderID string) error {
	d.calls = append(d.calls, reminderID)
	return d.err
}

type fixture struct {
	uc         *UseCase
	store      *memory.Store
	events     *usecase.EventDispatcher
	dispatcher *dispatcherSpy
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	events := usecase.NewEventDispatcher()
	spy := &dispatcherSpy{}
	uc := New(store.WorkItems(), store.Reminders(), spy, events, nil)
	uc.now = fixedNow
	return &fixture{uc: uc, store: store, events: events, dispatcher: spy}
}

func (f *fixture) seedItem(t *testing.T, state domain.WorkItemState, due *time.Time) *domain.WorkItem {
	t.Helper()
	item, _, err := domain.NewWorkItem("wi-"+string(state), testActor, "Seeded", fixedNow())
	require.NoError(t, err)
	item.State = state
	item.DueAt = due
	require.NoError(t, f.store.WorkItems().Create(context.Background(), item))
	return item
}

func TestSchedule(t *testing.T) {
	t.Run("creates a scheduled reminder and publishes the event", func(t *testing.T) {
		f := newFixture(t)
		var published []domain.Event
		f.events.Register("reminder.scheduled", func(_ context.Context, e domain.Event) {
			published = append(published, e)
		})

		item := f.seedItem(t, domain.StateInProgress, nil)
		fireAt := fixedNow().Add(time.Hour)
		id, err := f.uc.Schedule(context.Background(), testActor, item.ID, fireAt, "standup prep")
		require.NoError(t, err)
		require.NotEmpty(t, id)
		require.Len(t, published, 1)

		stored, err := f.store.Reminders().GetByID(context.Background(), id)
		require.NoError(t, err)
		require.Equal(t, domain.ReminderScheduledStatus, stored.Status)
		require.True(t, stored.FireAt.Equal(fireAt))
	})

	t.Run("rejects the sixth scheduled reminder", func(t *testing.T) {
		f := newFixture(t)
		item := f.seedItem(t, domain.StateInProgress, nil)
		for i := 0; i < domain.MaxScheduledReminders; i++ {
			_, err := f.uc.Schedule(context.Background(), testActor, item.ID,
				fixedNow().Add(time.Duration(i+1)*time.Hour), "ping")
			require.NoError(t, err)
		}
		_, err := f.uc.Schedule(context.Background(), testActor, item.ID, fixedNow().Add(10*time.Hour), "ping")
		require.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	})

	t.Run("rejects a fire time after the due date", func(t *testing.T) {
		f := newFixture(t)
		due := fixedNow().Add(24 * time.Hour)
		item := f.seedItem(t, domain.StateInProgress, &due)
		_, err := f.uc.Schedule(context.Background(), testActor, item.ID, due.Add(time.Minute), "late")
		require.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	})

	t.Run("rejects archived and cancelled items", func(t *testing.T) {
		f := newFixture(t)
		for _, state := range []domain.WorkItemState{domain.StateArchived, domain.StateCancelled} {
			item := f.seedItem(t, state, nil)
			_, err := f.uc.Schedule(context.Background(), testActor, item.ID, fixedNow().Add(time.Hour), "ping")
			require.Truef(t, domain.IsDomainError(err, domain.ErrCodeState), "state %s", state)
		}
	})

	t.Run("other tenant cannot schedule", func(t *testing.T) {
		f := newFixture(t)
		item := f.seedItem(t, domain.StateInProgress, nil)
		_, err := f.uc.Schedule(context.Background(), otherActor, item.ID, fixedNow().Add(time.Hour), "ping")
		require.ErrorIs(t, err, domain.ErrWorkItemNotFound)
	})
}

func TestReschedule(t *testing.T) {
	seedFailed := func(t *testing.T, f *fixture, workItemID string) string {
		t.Helper()
		id, err := f.uc.Schedule(context.Background(), testActor, workItemID, fixedNow().Add(time.Hour), "ping")
		require.NoError(t, err)
		stored, err := f.store.Reminders().GetByID(context.Background(), id)
		require.NoError(t, err)
		_, err = stored.Fail("smtp timeout", "system", fixedNow())
		require.NoError(t, err)
		require.NoError(t, f.store.Reminders().Update(context.Background(), stored))
		return id
	}

	t.Run("failed reminder returns to scheduled", func(t *testing.T) {
		f := newFixture(t)
		item := f.seedItem(t, domain.StateInProgress, nil)
		id := seedFailed(t, f, item.ID)

		next := fixedNow().Add(3 * time.Hour)
		require.NoError(t, f.uc.Reschedule(context.Background(), testActor, id, next))

		stored, err := f.store.Reminders().GetByID(context.Background(), id)
		require.NoError(t, err)
		require.Equal(t, domain.ReminderScheduledStatus, stored.Status)
		require.True(t, stored.FireAt.Equal(next))
		require.Empty(t, stored.LastError)
	})

	t.Run("triggered reminder is rejected", func(t *testing.T) {
		f := newFixture(t)
		item := f.seedItem(t, domain.StateInProgress, nil)
		id, err := f.uc.Schedule(context.Background(), testActor, item.ID, fixedNow().Add(time.Hour), "ping")
		require.NoError(t, err)
		stored, err := f.store.Reminders().GetByID(context.Background(), id)
		require.NoError(t, err)
		_, err = stored.Trigger("system", fixedNow())
		require.NoError(t, err)
		require.NoError(t, f.store.Reminders().Update(context.Background(), stored))

		err = f.uc.Reschedule(context.Background(), testActor, id, fixedNow().Add(2*time.Hour))
		require.True(t, domain.IsDomainError(err, domain.ErrCodeState))
	})

	t.Run("eligibility is re-checked against the item", func(t *testing.T) {
		f := newFixture(t)
		due := fixedNow().Add(24 * time.Hour)
		item := f.seedItem(t, domain.StateInProgress, &due)
		id := seedFailed(t, f, item.ID)

		err := f.uc.Reschedule(context.Background(), testActor, id, due.Add(time.Hour))
		require.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	})
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	var cancelled []domain.ReminderCancelled
	f.events.Register("reminder.cancelled", func(_ context.Context, e domain.Event) {
		cancelled = append(cancelled, e.(domain.ReminderCancelled))
	})

	item := f.seedItem(t, domain.StateInProgress, nil)
	id, err := f.uc.Schedule(context.Background(), testActor, item.ID, fixedNow().Add(time.Hour), "ping")
	require.NoError(t, err)

	require.NoError(t, f.uc.Cancel(context.Background(), testActor, id))
	require.Len(t, cancelled, 1)
	require.False(t, cancelled[0].Cascade)

	stored, err := f.store.Reminders().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, domain.ReminderCancelledStatus, stored.Status)

	err = f.uc.Cancel(context.Background(), testActor, id)
	require.True(t, domain.IsDomainError(err, domain.ErrCodeState))
}

func TestTriggerNow(t *testing.T) {
	t.Run("funnels through the dispatch path", func(t *testing.T) {
		f := newFixture(t)
		item := f.seedItem(t, domain.StateInProgress, nil)
		id, err := f.uc.Schedule(context.Background(), testActor, item.ID, fixedNow().Add(time.Hour), "ping")
		require.NoError(t, err)

		require.NoError(t, f.uc.TriggerNow(context.Background(), testActor, id))
		require.Equal(t, []string{id}, f.dispatcher.calls)
	})

	t.Run("hides foreign reminders", func(t *testing.T) {
		f := newFixture(t)
		item := f.seedItem(t, domain.StateInProgress, nil)
		id, err := f.uc.Schedule(context.Background(), testActor, item.ID, fixedNow().Add(time.Hour), "ping")
		require.NoError(t, err)

		err = f.uc.TriggerNow(context.Background(), otherActor, id)
		require.ErrorIs(t, err, domain.ErrReminderNotFound)
		require.Empty(t, f.dispatcher.calls)
	})
}

func TestListForWorkItem(t *testing.T) {
	f := newFixture(t)
	item := f.seedItem(t, domain.StateInProgress, nil)
	for i := 0; i < 3; i++ {
		_, err := f.uc.Schedule(context.Background(), testActor, item.ID,
			fixedNow().Add(time.Duration(i+1)*time.Hour), "ping")
		require.NoError(t, err)
	}

	listed, err := f.uc.ListForWorkItem(context.Background(), testActor, item.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)

	_, err = f.uc.ListForWorkItem(context.Background(), otherActor, item.ID)
	require.ErrorIs(t, err, domain.ErrWorkItemNotFound)
}
