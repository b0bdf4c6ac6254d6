package domain

import "time"

// Caps enforced by the scheduling policy.
const (
	// MaxScheduledReminders bounds concurrently scheduled reminders per work item.
	MaxScheduledReminders = 5
	// MaxTags bounds the tag set of a work item.
	MaxTags = 10
)

// workItemTransitions is the full transition table. Pairs absent from the
// table are rejected; archived has no outgoing transitions at all.
var workItemTransitions = map[WorkItemState][]WorkItemState{
	StateDraft:      {StateInProgress, StateOnHold, StateCancelled, StateArchived},
	StateInProgress: {StateCompleted, StateOnHold, StateCancelled, StateArchived, StateDraft},
	StateCompleted:  {StateArchived, StateDraft, StateInProgress},
	StateOnHold:     {StateInProgress, StateCancelled, StateArchived},
	StateCancelled:  {StateDraft, StateArchived},
	StateArchived:   {},
}

// CanTransition reports whether the work item state machine allows moving
// from one state to another. Pure table lookup, no side effects.
func CanTransition(from, to WorkItemState) bool {
	if from == StateArchived {
		return false
	}
	for _, allowed := range workItemTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanScheduleReminder checks whether a reminder may be created or
// rescheduled onto the work item at the given fire time. scheduledCount is
// the number of reminders currently in scheduled status for the item.
func CanScheduleReminder(item *WorkItem, scheduledCount int, fireAt, now time.Time) error {
	if item == nil {
		return ErrWorkItemNotFound
	}
	switch item.State {
	case StateArchived, StateCancelled:
		return NewError(ErrCodeState, "cannot schedule reminders on a "+string(item.State)+" work item")
	}
	if !fireAt.After(now) {
		return NewValidationError("reminder fire time must be in the future")
	}
	if item.DueAt != nil && fireAt.After(*item.DueAt) {
		return NewValidationError("reminder fire time must not be after the work item due date")
	}
	if scheduledCount >= MaxScheduledReminders {
		return NewValidationError("work item already has %d scheduled reminders", MaxScheduledReminders)
	}
	return nil
}
