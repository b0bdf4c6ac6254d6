package usecase

import (
	"context"
	"time"
)

// Notification carries what the delivery channel needs to render a
// reminder to the user.
type Notification struct {
	WorkItemID    string
	WorkItemTitle string
	Message       string
	FireAt        time.Time
}

// Notifier abstracts reminder delivery (email, push, chat). An error from
// Notify is a business-level failure: the dispatcher records it on the
// reminder and does not retry automatically.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
