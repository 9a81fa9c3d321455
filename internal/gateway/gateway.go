package gateway

import (
	"context"
	"time"
)

// CaptureResult is the gateway's answer to a capture request.
type CaptureResult struct {
	IntentRef  string    `json:"intent_ref"`
	Status     string    `json:"status"`
	CapturedAt time.Time `json:"captured_at"`
}

// PaymentGateway is the external payment processor. Both calls may block
// on the network; implementations must bound them with timeouts.
type PaymentGateway interface {
	CreateChargeIntent(ctx context.Context, amount float64, currency string, metadata map[string]string) (string, error)
	CaptureIntent(ctx context.Context, intentRef string) (*CaptureResult, error)
}

// Receipts holds the documents produced for a settled task.
type Receipts struct {
	PaymentReceiptURL  string `json:"payment_receipt_url"`
	EarningsReceiptURL string `json:"earnings_receipt_url"`
}

type ReceiptGenerator interface {
	GenerateForCompletedTask(ctx context.Context, taskID string) (*Receipts, error)
}

// Notifier delivers events to users. Fire-and-forget from the engine's
// perspective; a returned error is logged, never propagated.
type Notifier interface {
	Notify(ctx context.Context, eventType, recipientID string, payload map[string]interface{}) error
}

type UserIdentity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type IdentityProvider interface {
	Authenticate(ctx context.Context, token string) (*UserIdentity, error)
}

// ChargeAmount is the legacy intent-path formula for what the poster is
// charged: small offers get a flat 5-unit markup, larger ones 5 percent.
// It intentionally differs from the budget-based service fee shown in
// quotes; both paths are preserved for compatibility with existing
// gateway records.
func ChargeAmount(offerAmount float64) float64 {
	if offerAmount < 50 {
		return offerAmount + 5
	}
	return offerAmount * 1.05
}
