package services

import (
	"context"

	apperrors "taskmarket.app/taskmarket/internal/errors"
	"taskmarket.app/taskmarket/internal/gateway"
	"taskmarket.app/taskmarket/internal/logging"
	"taskmarket.app/taskmarket/internal/outbox"
)

// RegisterOutboxHandlers binds the settlement fan-out jobs to their
// collaborators. Receipt failures are retried by the dispatcher and never
// block a completion; notification failures are logged and dropped.
func RegisterOutboxHandlers(
	d *outbox.Dispatcher,
	settlement *SettlementCoordinator,
	receipts gateway.ReceiptGenerator,
	notifier gateway.Notifier,
) {
	d.Register(outbox.JobReceipts, func(ctx context.Context, job *outbox.Job) error {
		taskID := job.Payload["task_id"]

		generated, err := receipts.GenerateForCompletedTask(ctx, taskID)
		if err != nil {
			genErr := apperrors.ErrReceiptGenerationFailed.Wrap(err)
			logging.Logger.Errorf("task %s: %v", taskID, genErr)
			return genErr
		}

		notifyBestEffort(ctx, notifier, "receipt_ready", job.Payload["poster_id"], map[string]interface{}{
			"task_id": taskID,
			"receipt": generated.PaymentReceiptURL,
		})
		notifyBestEffort(ctx, notifier, "receipt_ready", job.Payload["tasker_id"], map[string]interface{}{
			"task_id": taskID,
			"receipt": generated.EarningsReceiptURL,
		})
		return nil
	})

	d.Register(outbox.JobNotification, func(ctx context.Context, job *outbox.Job) error {
		payload := make(map[string]interface{}, len(job.Payload))
		for k, v := range job.Payload {
			if k == "event" || k == "recipient" {
				continue
			}
			payload[k] = v
		}
		notifyBestEffort(ctx, notifier, job.Payload["event"], job.Payload["recipient"], payload)
		return nil
	})

	d.Register(outbox.JobReconciliation, func(ctx context.Context, job *outbox.Job) error {
		return settlement.ReconcilePayment(ctx, job.Payload["task_id"])
	})
}

func notifyBestEffort(
	ctx context.Context,
	notifier gateway.Notifier,
	event, recipient string,
	payload map[string]interface{},
) {
	if err := notifier.Notify(ctx, event, recipient, payload); err != nil {
		logging.Logger.Warnf("notification %s to %s failed: %v", event, recipient, err)
	}
}
