package domain

import (
	"strings"
	"time"
)

// WorkItemState enumerates the lifecycle states of a work item.
type WorkItemState string

const (
	StateDraft      WorkItemState = "draft"
	StateInProgress WorkItemState = "in_progress"
	StateCompleted  WorkItemState = "completed"
	StateOnHold     WorkItemState = "on_hold"
	StateCancelled  WorkItemState = "cancelled"
	StateArchived   WorkItemState = "archived"
)

// Priority classifies how urgent a work item is.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ParsePriority maps a raw string onto a known priority, defaulting to medium.
func ParsePriority(raw string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(raw))) {
	case PriorityLow:
		return PriorityLow
	case PriorityHigh:
		return PriorityHigh
	case PriorityCritical:
		return PriorityCritical
	default:
		return PriorityMedium
	}
}

// WorkItem is the aggregate root owning zero or more reminders.
//
// Field mutators validate and assign only; the owning operation stamps the
// audit info exactly once before persisting, so one unit of work always
// advances the version counter by one.
type WorkItem struct {
	ID             string        `json:"id"`
	TenantID       string        `json:"tenant_id"`
	Title          string        `json:"title"`
	Description    string        `json:"description,omitempty"`
	Priority       Priority      `json:"priority"`
	State          WorkItemState `json:"state"`
	DueAt          *time.Time    `json:"due_at,omitempty"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
	EstimatedHours float64       `json:"estimated_hours,omitempty"`
	ActualHours    float64       `json:"actual_hours,omitempty"`
	Tags           []string      `json:"tags,omitempty"`

	AuditInfo
}

// NewWorkItem creates a work item in the draft state and returns the
// creation event for post-commit publication.
func NewWorkItem(id string, actor Actor, title string, now time.Time) (*WorkItem, Event, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil, NewValidationError("work item title must not be empty")
	}
	item := &WorkItem{
		ID:       id,
		TenantID: actor.TenantID,
		Title:    title,
		Priority: PriorityMedium,
		State:    StateDraft,
	}
	item.MarkCreated(actor.UserID, now)
	return item, WorkItemCreated{WorkItemID: id, TenantID: actor.TenantID, At: now}, nil
}

// EntityID implements Identifiable.
func (w *WorkItem) EntityID() string { return w.ID }

// TransitionTo moves the work item to the target state, applying the side
// effects bound to specific transitions and stamping the audit info. The
// caller is responsible for the reminder cancellation cascade on
// completed/archived and for persisting both sides in one commit.
func (w *WorkItem) TransitionTo(target WorkItemState, actor Actor, now time.Time) (Event, error) {
	if !CanTransition(w.State, target) {
		return nil, NewTransitionError("work item", string(w.State), string(target))
	}

	from := w.State
	switch target {
	case StateCompleted:
		completed := now
		w.CompletedAt = &completed
		if w.ActualHours == 0 {
			w.ActualHours = w.EstimatedHours
		}
	case StateDraft:
		// Reopening clears the completion stamp.
		w.CompletedAt = nil
	}

	w.State = target
	w.MarkUpdated(actor.UserID, now)
	return StateChanged{WorkItemID: w.ID, From: from, To: target, At: now}, nil
}

// CancelsReminders reports whether entering the given state cascades a
// cancellation over the item's scheduled reminders.
func CancelsReminders(target WorkItemState) bool {
	return target == StateCompleted || target == StateArchived
}

func (w *WorkItem) mutable() error {
	if w.State == StateArchived {
		return ErrWorkItemArchived
	}
	return nil
}

// Rename replaces the title.
func (w *WorkItem) Rename(title string) error {
	if err := w.mutable(); err != nil {
		return err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return NewValidationError("work item title must not be empty")
	}
	w.Title = title
	return nil
}

// SetDescription replaces the free-text description.
func (w *WorkItem) SetDescription(desc string) error {
	if err := w.mutable(); err != nil {
		return err
	}
	w.Description = desc
	return nil
}

// SetPriority replaces the priority.
func (w *WorkItem) SetPriority(p Priority) error {
	if err := w.mutable(); err != nil {
		return err
	}
	w.Priority = p
	return nil
}

// SetDueDate replaces the due timestamp; nil clears it.
func (w *WorkItem) SetDueDate(due *time.Time) error {
	if err := w.mutable(); err != nil {
		return err
	}
	w.DueAt = due
	return nil
}

// SetEstimate records the estimated effort in hours.
func (w *WorkItem) SetEstimate(hours float64) error {
	if err := w.mutable(); err != nil {
		return err
	}
	if hours < 0 {
		return NewValidationError("estimated hours must not be negative")
	}
	w.EstimatedHours = hours
	return nil
}

// SetActualHours records the actual effort in hours.
func (w *WorkItem) SetActualHours(hours float64) error {
	if err := w.mutable(); err != nil {
		return err
	}
	if hours < 0 {
		return NewValidationError("actual hours must not be negative")
	}
	w.ActualHours = hours
	return nil
}

// AddTag appends a tag, keeping the set unique case-insensitively and
// preserving insertion order.
func (w *WorkItem) AddTag(tag string) error {
	if err := w.mutable(); err != nil {
		return err
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return NewValidationError("tag must not be empty")
	}
	if len(w.Tags) >= MaxTags {
		return NewValidationError("work item already has the maximum of %d tags", MaxTags)
	}
	for _, existing := range w.Tags {
		if strings.EqualFold(existing, tag) {
			return NewValidationError("tag %q already present", tag)
		}
	}
	w.Tags = append(w.Tags, tag)
	return nil
}

// RemoveTag deletes a tag by case-insensitive match.
func (w *WorkItem) RemoveTag(tag string) error {
	if err := w.mutable(); err != nil {
		return err
	}
	for i, existing := range w.Tags {
		if strings.EqualFold(existing, tag) {
			w.Tags = append(w.Tags[:i], w.Tags[i+1:]...)
			return nil
		}
	}
	return NewValidationError("tag %q not present", tag)
}
