package gateway

import (
	"context"

	"taskmarket.app/taskmarket/internal/logging"
)

// LogNotifier writes notifications to the application log. Delivery to
// real channels (push, email) is owned by a downstream service consuming
// the same events.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Notify(ctx context.Context, eventType, recipientID string, payload map[string]interface{}) error {
	logging.Logger.WithFields(map[string]interface{}{
		"event":     eventType,
		"recipient": recipientID,
		"payload":   payload,
	}).Info("notification dispatched")
	return nil
}
