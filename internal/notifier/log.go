package notifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/taskdeck/backend/usecase"
)

// LogNotifier writes notifications to the structured log. Stands in for a
// real delivery channel (email, push) in environments without one; the
// timer/cron host swaps in its own implementation.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, notification usecase.Notification) error {
	n.logger.Info("reminder notification",
		zap.String("work_item_id", notification.WorkItemID),
		zap.String("title", notification.WorkItemTitle),
		zap.String("message", notification.Message),
		zap.Time("fire_at", notification.FireAt))
	return nil
}

var _ usecase.Notifier = (*LogNotifier)(nil)
