package domain

import "time"

// Identifiable exposes an entity's identity without reflection.
type Identifiable interface {
	EntityID() string
}

// Event is a value describing a committed domain mutation. Mutation
// methods return events to the caller, which publishes them only after a
// successful commit; entities never accumulate hidden event queues.
type Event interface {
	EventName() string
}

type WorkItemCreated struct {
	WorkItemID string
	TenantID   string
	At         time.Time
}

func (WorkItemCreated) EventName() string { return "workitem.created" }

type StateChanged struct {
	WorkItemID string
	From       WorkItemState
	To         WorkItemState
	At         time.Time
}

func (StateChanged) EventName() string { return "workitem.state_changed" }

type ReminderScheduled struct {
	ReminderID string
	WorkItemID string
	FireAt     time.Time
}

func (ReminderScheduled) EventName() string { return "reminder.scheduled" }

type ReminderTriggered struct {
	ReminderID string
	WorkItemID string
	At         time.Time
}

func (ReminderTriggered) EventName() string { return "reminder.triggered" }

type ReminderFailed struct {
	ReminderID string
	WorkItemID string
	Reason     string
	At         time.Time
}

func (ReminderFailed) EventName() string { return "reminder.failed" }

type ReminderCancelled struct {
	ReminderID string
	WorkItemID string
	// Cascade is true when the cancellation came from the owning work
	// item entering completed or archived.
	Cascade bool
	At      time.Time
}

func (ReminderCancelled) EventName() string { return "reminder.cancelled" }
