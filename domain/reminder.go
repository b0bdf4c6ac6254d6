package domain

import (
	"strings"
	"time"
)

// ReminderStatus enumerates the lifecycle states of a reminder.
type ReminderStatus string

const (
	ReminderScheduledStatus ReminderStatus = "scheduled"
	ReminderTriggeredStatus ReminderStatus = "triggered"
	ReminderFailedStatus    ReminderStatus = "failed"
	ReminderCancelledStatus ReminderStatus = "cancelled"
)

// Reminder is a time-triggered notification scoped to one work item.
type Reminder struct {
	ID          string         `json:"id"`
	WorkItemID  string         `json:"work_item_id"`
	FireAt      time.Time      `json:"fire_at"`
	Message     string         `json:"message"`
	Status      ReminderStatus `json:"status"`
	TriggeredAt *time.Time     `json:"triggered_at,omitempty"`
	LastError   string         `json:"last_error,omitempty"`
	DeletedAt   *time.Time     `json:"deleted_at,omitempty"`

	AuditInfo
}

// NewReminder creates a scheduled reminder. Eligibility against the owning
// work item (state, due date, cap) is checked separately via
// CanScheduleReminder; this only validates the reminder's own invariants.
func NewReminder(id, workItemID string, fireAt time.Time, message string, actor Actor, now time.Time) (*Reminder, Event, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, nil, NewValidationError("reminder message must not be empty")
	}
	if !fireAt.After(now) {
		return nil, nil, NewValidationError("reminder fire time must be in the future")
	}
	r := &Reminder{
		ID:         id,
		WorkItemID: workItemID,
		FireAt:     fireAt.UTC(),
		Message:    message,
		Status:     ReminderScheduledStatus,
	}
	r.MarkCreated(actor.UserID, now)
	return r, ReminderScheduled{ReminderID: id, WorkItemID: workItemID, FireAt: r.FireAt}, nil
}

// EntityID implements Identifiable.
func (r *Reminder) EntityID() string { return r.ID }

// IsDue reports whether the reminder should fire now.
func (r *Reminder) IsDue(now time.Time) bool {
	return r.Status == ReminderScheduledStatus && !r.FireAt.After(now)
}

// IsPending reports whether the reminder is scheduled for the future.
func (r *Reminder) IsPending(now time.Time) bool {
	return r.Status == ReminderScheduledStatus && r.FireAt.After(now)
}

// IsTerminal reports whether the reminder reached a success or cancelled
// end state. Failed is deliberately excluded: it stays actionable through
// an explicit reschedule.
func (r *Reminder) IsTerminal() bool {
	return r.Status == ReminderTriggeredStatus || r.Status == ReminderCancelledStatus
}

// Trigger marks the reminder as successfully delivered.
func (r *Reminder) Trigger(by string, now time.Time) (Event, error) {
	if r.Status != ReminderScheduledStatus {
		return nil, NewTransitionError("reminder", string(r.Status), string(ReminderTriggeredStatus))
	}
	triggered := now
	r.Status = ReminderTriggeredStatus
	r.TriggeredAt = &triggered
	r.LastError = ""
	r.MarkUpdated(by, now)
	return ReminderTriggered{ReminderID: r.ID, WorkItemID: r.WorkItemID, At: now}, nil
}

// Fail records a business-level trigger failure. The reminder stays failed
// until explicitly rescheduled.
func (r *Reminder) Fail(reason string, by string, now time.Time) (Event, error) {
	if r.Status != ReminderScheduledStatus {
		return nil, NewTransitionError("reminder", string(r.Status), string(ReminderFailedStatus))
	}
	r.Status = ReminderFailedStatus
	r.LastError = reason
	r.MarkUpdated(by, now)
	return ReminderFailed{ReminderID: r.ID, WorkItemID: r.WorkItemID, Reason: reason, At: now}, nil
}

// Cancel stops a scheduled reminder, either explicitly or as part of the
// work item completion/archival cascade.
func (r *Reminder) Cancel(actor Actor, cascade bool, now time.Time) (Event, error) {
	if r.Status != ReminderScheduledStatus {
		return nil, NewTransitionError("reminder", string(r.Status), string(ReminderCancelledStatus))
	}
	r.Status = ReminderCancelledStatus
	r.MarkUpdated(actor.UserID, now)
	return ReminderCancelled{ReminderID: r.ID, WorkItemID: r.WorkItemID, Cascade: cascade, At: now}, nil
}

// Reschedule returns a failed or cancelled reminder to the scheduled
// status with a new future fire time, clearing any stored error.
func (r *Reminder) Reschedule(fireAt time.Time, actor Actor, now time.Time) (Event, error) {
	if r.Status != ReminderFailedStatus && r.Status != ReminderCancelledStatus {
		return nil, NewTransitionError("reminder", string(r.Status), string(ReminderScheduledStatus))
	}
	if !fireAt.After(now) {
		return nil, NewValidationError("reminder fire time must be in the future")
	}
	r.Status = ReminderScheduledStatus
	r.FireAt = fireAt.UTC()
	r.LastError = ""
	r.TriggeredAt = nil
	r.MarkUpdated(actor.UserID, now)
	return ReminderScheduled{ReminderID: r.ID, WorkItemID: r.WorkItemID, FireAt: r.FireAt}, nil
}
