package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskdeck/backend/domain"
	"github.com/taskdeck/backend/internal/infrastructure/deadletter"
	"github.com/taskdeck/backend/repository/memory"
)

type submitterSpy struct {
	ids []string
}

func (s *submitterSpy) Submit(reminderID string) bool {
	s.ids = append(s.ids, reminderID)
	return true
}

func openTestJournal(t *testing.T) *deadletter.Journal {
	t.Helper()
	journal, err := deadletter.Open(filepath.Join(t.TempDir(), "deadletter.db"))
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })
	return journal
}

func seedScheduledAt(t *testing.T, store *memory.Store, id string, fireAt time.Time) *domain.Reminder {
	t.Helper()
	created := fireAt.Add(-time.Hour)
	r, _, err := domain.NewReminder(id, "wi-1", fireAt, "ping", testActor, created)
	require.NoError(t, err)
	require.NoError(t, store.Reminders().Create(context.Background(), r))
	return r
}

func TestRecoveryScan(t *testing.T) {
	newRecovery := func(t *testing.T) (*Recovery, *memory.Store, *submitterSpy, *deadletter.Journal, *Stats) {
		t.Helper()
		store := memory.NewStore()
		spy := &submitterSpy{}
		journal := openTestJournal(t)
		stats := NewStats()
		r := NewRecovery(store.Reminders(), spy, journal, stats, nil, RecoveryConfig{
			Interval:   time.Hour,
			Grace:      5 * time.Minute,
			UpperBound: time.Hour,
		})
		r.now = fixedNow
		return r, store, spy, journal, stats
	}

	t.Run("reminder ten minutes late is re-submitted", func(t *testing.T) {
		r, store, spy, journal, stats := newRecovery(t)
		missed := seedScheduledAt(t, store, "rem-late", fixedNow().Add(-10*time.Minute))

		require.NoError(t, r.Scan(context.Background()))
		require.Equal(t, []string{missed.ID}, spy.ids)
		require.Equal(t, int64(1), stats.Snapshot().Recovered)

		size, err := journal.Size()
		require.NoError(t, err)
		require.Zero(t, size)
	})

	t.Run("reminder inside the grace period is left to the due check", func(t *testing.T) {
		r, store, spy, _, _ := newRecovery(t)
		seedScheduledAt(t, store, "rem-fresh", fixedNow().Add(-2*time.Minute))

		require.NoError(t, r.Scan(context.Background()))
		require.Empty(t, spy.ids)
	})

	t.Run("reminder two hours late is journaled, not triggered", func(t *testing.T) {
		r, store, spy, journal, stats := newRecovery(t)
		old := seedScheduledAt(t, store, "rem-ancient", fixedNow().Add(-2*time.Hour))

		require.NoError(t, r.Scan(context.Background()))
		require.Empty(t, spy.ids)
		require.Equal(t, int64(1), stats.Snapshot().Abandoned)

		entries, err := journal.List(10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, old.ID, entries[0].ReminderID)
		require.Equal(t, "wi-1", entries[0].WorkItemID)
		require.NotEmpty(t, entries[0].Reason)

		stored, err := store.Reminders().GetByID(context.Background(), old.ID)
		require.NoError(t, err)
		require.Equal(t, domain.ReminderScheduledStatus, stored.Status)
	})

	t.Run("repeated scans overwrite the journal entry", func(t *testing.T) {
		r, store, _, journal, _ := newRecovery(t)
		seedScheduledAt(t, store, "rem-ancient", fixedNow().Add(-3*time.Hour))

		require.NoError(t, r.Scan(context.Background()))
		require.NoError(t, r.Scan(context.Background()))

		size, err := journal.Size()
		require.NoError(t, err)
		require.Equal(t, 1, size)
	})

	t.Run("triggered reminder is invisible to the scan", func(t *testing.T) {
		r, store, spy, _, _ := newRecovery(t)
		rem := seedScheduledAt(t, store, "rem-done", fixedNow().Add(-10*time.Minute))
		_, err := rem.Trigger("system", fixedNow())
		require.NoError(t, err)
		require.NoError(t, store.Reminders().Update(context.Background(), rem))

		require.NoError(t, r.Scan(context.Background()))
		require.Empty(t, spy.ids)
	})
}

func TestRecoveryRetain(t *testing.T) {
	newRetention := func(t *testing.T) (*Recovery, *memory.Store, *Stats) {
		t.Helper()
		store := memory.NewStore()
		stats := NewStats()
		r := NewRecovery(store.Reminders(), &submitterSpy{}, nil, stats, nil, RecoveryConfig{
			RetentionWindow: 30 * 24 * time.Hour,
		})
		r.now = fixedNow
		return r, store, stats
	}

	seedWithStatus := func(t *testing.T, store *memory.Store, id string, status domain.ReminderStatus, updatedAt time.Time) {
		t.Helper()
		rem := seedScheduledAt(t, store, id, updatedAt.Add(time.Hour))
		var err error
		switch status {
		case domain.ReminderTriggeredStatus:
			_, err = rem.Trigger("system", updatedAt)
		case domain.ReminderCancelledStatus:
			_, err = rem.Cancel(testActor, false, updatedAt)
		case domain.ReminderFailedStatus:
			_, err = rem.Fail("boom", "system", updatedAt)
		default:
			return
		}
		require.NoError(t, err)
		require.NoError(t, store.Reminders().Update(context.Background(), rem))
	}

	t.Run("old terminal reminders are soft-deleted", func(t *testing.T) {
		r, store, stats := newRetention(t)
		longAgo := fixedNow().Add(-60 * 24 * time.Hour)
		seedWithStatus(t, store, "rem-triggered", domain.ReminderTriggeredStatus, longAgo)
		seedWithStatus(t, store, "rem-cancelled", domain.ReminderCancelledStatus, longAgo)

		require.NoError(t, r.Retain(context.Background()))
		require.Equal(t, int64(2), stats.Snapshot().Retained)

		for _, id := range []string{"rem-triggered", "rem-cancelled"} {
			_, err := store.Reminders().GetByID(context.Background(), id)
			require.ErrorIsf(t, err, domain.ErrReminderNotFound, "reminder %s", id)
		}
	})

	t.Run("scheduled and failed reminders survive no matter how old", func(t *testing.T) {
		r, store, _ := newRetention(t)
		longAgo := fixedNow().Add(-60 * 24 * time.Hour)
		seedScheduledAt(t, store, "rem-scheduled", longAgo)
		seedWithStatus(t, store, "rem-failed", domain.ReminderFailedStatus, longAgo)

		require.NoError(t, r.Retain(context.Background()))

		for _, id := range []string{"rem-scheduled", "rem-failed"} {
			_, err := store.Reminders().GetByID(context.Background(), id)
			require.NoErrorf(t, err, "reminder %s", id)
		}
	})

	t.Run("recent terminal reminders are kept", func(t *testing.T) {
		r, store, stats := newRetention(t)
		recent := fixedNow().Add(-24 * time.Hour)
		seedWithStatus(t, store, "rem-recent", domain.ReminderTriggeredStatus, recent)

		require.NoError(t, r.Retain(context.Background()))
		require.Zero(t, stats.Snapshot().Retained)

		_, err := store.Reminders().GetByID(context.Background(), "rem-recent")
		require.NoError(t, err)
	})
}
