package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testActor = Actor{TenantID: "tenant-1", UserID: "user-1"}

func testNow() time.Time {
	return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func newTestItem(t *testing.T) *WorkItem {
	t.Helper()
	item, evt, err := NewWorkItem("wi-1", testActor, "Ship release notes", testNow())
	require.NoError(t, err)
	require.Equal(t, "workitem.created", evt.EventName())
	return item
}

func TestNewWorkItem(t *testing.T) {
	t.Run("starts in draft with medium priority", func(t *testing.T) {
		item := newTestItem(t)
		require.Equal(t, StateDraft, item.State)
		require.Equal(t, PriorityMedium, item.Priority)
		require.Equal(t, "tenant-1", item.TenantID)
		require.Equal(t, 1, item.Version)
		require.Equal(t, "user-1", item.CreatedBy)
	})

	t.Run("rejects blank title", func(t *testing.T) {
		_, _, err := NewWorkItem("wi-2", testActor, "   ", testNow())
		require.Error(t, err)
		require.True(t, IsDomainError(err, ErrCodeInvalid))
	})
}

func TestCanTransition(t *testing.T) {
	states := []WorkItemState{
		StateDraft, StateInProgress, StateCompleted,
		StateOnHold, StateCancelled, StateArchived,
	}
	allowed := map[WorkItemState]map[WorkItemState]bool{
		StateDraft:      {StateInProgress: true, StateOnHold: true, StateCancelled: true, StateArchived: true},
		StateInProgress: {StateCompleted: true, StateOnHold: true, StateCancelled: true, StateArchived: true, StateDraft: true},
		StateCompleted:  {StateArchived: true, StateDraft: true, StateInProgress: true},
		StateOnHold:     {StateInProgress: true, StateCancelled: true, StateArchived: true},
		StateCancelled:  {StateDraft: true, StateArchived: true},
		StateArchived:   {},
	}

	for _, from := range states {
		for _, to := range states {
			want := allowed[from][to]
			got := CanTransition(from, to)
			require.Equalf(t, want, got, "CanTransition(%s, %s)", from, to)
		}
	}

	t.Run("unknown state has no transitions", func(t *testing.T) {
		require.False(t, CanTransition(WorkItemState("bogus"), StateDraft))
	})
}

func TestWorkItemTransitionTo(t *testing.T) {
	t.Run("completion stamps timestamp and falls back to estimate", func(t *testing.T) {
		item := newTestItem(t)
		require.NoError(t, item.SetEstimate(8))

		_, err := item.TransitionTo(StateInProgress, testActor, testNow())
		require.NoError(t, err)

		done := testNow().Add(time.Hour)
		evt, err := item.TransitionTo(StateCompleted, testActor, done)
		require.NoError(t, err)
		require.Equal(t, StateCompleted, item.State)
		require.NotNil(t, item.CompletedAt)
		require.Equal(t, done, *item.CompletedAt)
		require.Equal(t, 8.0, item.ActualHours)

		changed, ok := evt.(StateChanged)
		require.True(t, ok)
		require.Equal(t, StateInProgress, changed.From)
		require.Equal(t, StateCompleted, changed.To)
	})

	t.Run("completion keeps explicit actual hours", func(t *testing.T) {
		item := newTestItem(t)
		require.NoError(t, item.SetEstimate(8))
		require.NoError(t, item.SetActualHours(12))

		_, err := item.TransitionTo(StateInProgress, testActor, testNow())
		require.NoError(t, err)
		_, err = item.TransitionTo(StateCompleted, testActor, testNow())
		require.NoError(t, err)
		require.Equal(t, 12.0, item.ActualHours)
	})

	t.Run("reopen clears completion timestamp", func(t *testing.T) {
		item := newTestItem(t)
		_, err := item.TransitionTo(StateInProgress, testActor, testNow())
		require.NoError(t, err)
		_, err = item.TransitionTo(StateCompleted, testActor, testNow())
		require.NoError(t, err)
		require.NotNil(t, item.CompletedAt)

		_, err = item.TransitionTo(StateDraft, testActor, testNow())
		require.NoError(t, err)
		require.Nil(t, item.CompletedAt)
	})

	t.Run("rejected transition leaves the item untouched", func(t *testing.T) {
		item := newTestItem(t)
		before := item.Version
		_, err := item.TransitionTo(StateCompleted, testActor, testNow())
		require.Error(t, err)
		require.True(t, IsDomainError(err, ErrCodeState))
		require.Equal(t, StateDraft, item.State)
		require.Equal(t, before, item.Version)
	})

	t.Run("archived is absorbing", func(t *testing.T) {
		item := newTestItem(t)
		_, err := item.TransitionTo(StateArchived, testActor, testNow())
		require.NoError(t, err)

		for _, target := range []WorkItemState{
			StateDraft, StateInProgress, StateCompleted,
			StateOnHold, StateCancelled, StateArchived,
		} {
			_, err := item.TransitionTo(target, testActor, testNow())
			require.Errorf(t, err, "archived -> %s", target)
		}
	})

	t.Run("each transition bumps the version once", func(t *testing.T) {
		item := newTestItem(t)
		require.Equal(t, 1, item.Version)
		_, err := item.TransitionTo(StateInProgress, testActor, testNow())
		require.NoError(t, err)
		require.Equal(t, 2, item.Version)
		_, err = item.TransitionTo(StateCompleted, testActor, testNow())
		require.NoError(t, err)
		require.Equal(t, 3, item.Version)
	})
}

func TestCancelsReminders(t *testing.T) {
	require.True(t, CancelsReminders(StateCompleted))
	require.True(t, CancelsReminders(StateArchived))
	require.False(t, CancelsReminders(StateCancelled))
	require.False(t, CancelsReminders(StateOnHold))
	require.False(t, CancelsReminders(StateDraft))
}

func TestWorkItemMutators(t *testing.T) {
	t.Run("archived item rejects every mutation", func(t *testing.T) {
		item := newTestItem(t)
		_, err := item.TransitionTo(StateArchived, testActor, testNow())
		require.NoError(t, err)

		due := testNow().Add(24 * time.Hour)
		mutations := map[string]error{
			"rename":      item.Rename("new title"),
			"description": item.SetDescription("text"),
			"priority":    item.SetPriority(PriorityHigh),
			"due date":    item.SetDueDate(&due),
			"estimate":    item.SetEstimate(1),
			"actual":      item.SetActualHours(1),
			"add tag":     item.AddTag("ops"),
			"remove tag":  item.RemoveTag("ops"),
		}
		for name, err := range mutations {
			require.ErrorIsf(t, err, ErrWorkItemArchived, "mutation %q", name)
		}
	})

	t.Run("rename trims and rejects empty", func(t *testing.T) {
		item := newTestItem(t)
		require.NoError(t, item.Rename("  Revised  "))
		require.Equal(t, "Revised", item.Title)
		require.Error(t, item.Rename(" "))
	})

	t.Run("negative effort rejected", func(t *testing.T) {
		item := newTestItem(t)
		require.Error(t, item.SetEstimate(-1))
		require.Error(t, item.SetActualHours(-0.5))
	})

	t.Run("clearing due date", func(t *testing.T) {
		item := newTestItem(t)
		due := testNow().Add(48 * time.Hour)
		require.NoError(t, item.SetDueDate(&due))
		require.NotNil(t, item.DueAt)
		require.NoError(t, item.SetDueDate(nil))
		require.Nil(t, item.DueAt)
	})
}

func TestWorkItemTags(t *testing.T) {
	t.Run("duplicates rejected case-insensitively", func(t *testing.T) {
		item := newTestItem(t)
		require.NoError(t, item.AddTag("Backend"))
		err := item.AddTag("backend")
		require.Error(t, err)
		require.True(t, IsDomainError(err, ErrCodeInvalid))
		require.Equal(t, []string{"Backend"}, item.Tags)
	})

	t.Run("cap enforced", func(t *testing.T) {
		item := newTestItem(t)
		for i := 0; i < MaxTags; i++ {
			require.NoError(t, item.AddTag(string(rune('a'+i))))
		}
		require.Error(t, item.AddTag("overflow"))
	})

	t.Run("remove matches case-insensitively and preserves order", func(t *testing.T) {
		item := newTestItem(t)
		require.NoError(t, item.AddTag("alpha"))
		require.NoError(t, item.AddTag("beta"))
		require.NoError(t, item.AddTag("gamma"))
		require.NoError(t, item.RemoveTag("BETA"))
		require.Equal(t, []string{"alpha", "gamma"}, item.Tags)
		require.Error(t, item.RemoveTag("beta"))
	})

	t.Run("blank tag rejected", func(t *testing.T) {
		item := newTestItem(t)
		require.Error(t, item.AddTag("  "))
	})
}

func TestParsePriority(t *testing.T) {
	require.Equal(t, PriorityLow, ParsePriority(" LOW "))
	require.Equal(t, PriorityHigh, ParsePriority("high"))
	require.Equal(t, PriorityCritical, ParsePriority("Critical"))
	require.Equal(t, PriorityMedium, ParsePriority("medium"))
	require.Equal(t, PriorityMedium, ParsePriority("whatever"))
}
