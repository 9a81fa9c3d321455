package outbox

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobReceipts       = "receipts"
	JobNotification   = "notification"
	JobReconciliation = "payment_reconciliation"
)

const DefaultMaxRetry = 3

// Job is one deferred side effect of a settlement: receipt generation, a
// notification, or a payment reconciliation retry.
type Job struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Payload   map[string]string `json:"payload"`
	Retries   int               `json:"retries"`
	MaxRetry  int               `json:"max_retry"`
	CreatedAt time.Time         `json:"created_at"`
}

func NewJob(jobType string, payload map[string]string) *Job {
	return &Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Payload:   payload,
		MaxRetry:  DefaultMaxRetry,
		CreatedAt: time.Now().UTC(),
	}
}
