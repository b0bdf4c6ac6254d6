package transport

// WorkItemCreateRequest creates a draft work item.
type WorkItemCreateRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Priority       string   `json:"priority"`
	DueAt          string   `json:"due_at"`
	EstimatedHours float64  `json:"estimated_hours"`
	Tags           []string `json:"tags"`
}

// WorkItemUpdateRequest is a partial field update; absent fields are left
// untouched.
type WorkItemUpdateRequest struct {
	Title          *string  `json:"title"`
	Description    *string  `json:"description"`
	Priority       *string  `json:"priority"`
	DueAt          *string  `json:"due_at"`
	ClearDueDate   bool     `json:"clear_due_date"`
	EstimatedHours *float64 `json:"estimated_hours"`
	ActualHours    *float64 `json:"actual_hours"`
}

// StateChangeRequest requests a work item state transition.
type StateChangeRequest struct {
	State string `json:"state"`
}

// TagRequest adds a tag to a work item.
type TagRequest struct {
	Tag string `json:"tag"`
}

// ReminderScheduleRequest schedules a reminder on a work item.
type ReminderScheduleRequest struct {
	FireAt  string `json:"fire_at"`
	Message string `json:"message"`
}

// ReminderRescheduleRequest moves a failed or cancelled reminder back to
// scheduled with a new fire time.
type ReminderRescheduleRequest struct {
	FireAt string `json:"fire_at"`
}
