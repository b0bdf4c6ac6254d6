package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCanScheduleReminder(t *testing.T) {
	now := testNow()
	fireAt := now.Add(time.Hour)

	t.Run("allows a future reminder on an active item", func(t *testing.T) {
		item := newTestItem(t)
		require.NoError(t, CanScheduleReminder(item, 0, fireAt, now))
	})

	t.Run("nil item", func(t *testing.T) {
		require.ErrorIs(t, CanScheduleReminder(nil, 0, fireAt, now), ErrWorkItemNotFound)
	})

	t.Run("archived and cancelled items rejected", func(t *testing.T) {
		for _, state := range []WorkItemState{StateArchived, StateCancelled} {
			item := newTestItem(t)
			item.State = state
			err := CanScheduleReminder(item, 0, fireAt, now)
			require.Truef(t, IsDomainError(err, ErrCodeState), "state %s", state)
		}
	})

	t.Run("other states allowed", func(t *testing.T) {
		for _, state := range []WorkItemState{StateDraft, StateInProgress, StateCompleted, StateOnHold} {
			item := newTestItem(t)
			item.State = state
			require.NoErrorf(t, CanScheduleReminder(item, 0, fireAt, now), "state %s", state)
		}
	})

	t.Run("fire time must be strictly future", func(t *testing.T) {
		item := newTestItem(t)
		require.Error(t, CanScheduleReminder(item, 0, now, now))
		require.Error(t, CanScheduleReminder(item, 0, now.Add(-time.Second), now))
	})

	t.Run("fire time must not pass the due date", func(t *testing.T) {
		item := newTestItem(t)
		due := now.Add(2 * time.Hour)
		require.NoError(t, item.SetDueDate(&due))

		require.NoError(t, CanScheduleReminder(item, 0, due, now))
		err := CanScheduleReminder(item, 0, due.Add(time.Second), now)
		require.True(t, IsDomainError(err, ErrCodeInvalid))
	})

	t.Run("cap rejects the sixth scheduled reminder", func(t *testing.T) {
		item := newTestItem(t)
		require.NoError(t, CanScheduleReminder(item, MaxScheduledReminders-1, fireAt, now))
		err := CanScheduleReminder(item, MaxScheduledReminders, fireAt, now)
		require.True(t, IsDomainError(err, ErrCodeInvalid))
	})
}
