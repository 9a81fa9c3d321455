package gateway

import (
	"context"
	"time"

	"github.com/google/uuid"

	"taskmarket.app/taskmarket/internal/logging"
)

// Sandbox is an in-process stand-in for the payment processor and the
// receipt generator, used when no external endpoints are configured.
type Sandbox struct{}

func NewSandbox() *Sandbox {
	return &Sandbox{}
}

func (s *Sandbox) CreateChargeIntent(
	ctx context.Context,
	amount float64,
	currency string,
	metadata map[string]string,
) (string, error) {
	ref := "pi_sandbox_" + uuid.NewString()
	logging.Logger.Debugf("sandbox intent %s created for %.2f %s", ref, amount, currency)
	return ref, nil
}

func (s *Sandbox) CaptureIntent(ctx context.Context, intentRef string) (*CaptureResult, error) {
	return &CaptureResult{
		IntentRef:  intentRef,
		Status:     "captured",
		CapturedAt: time.Now().UTC(),
	}, nil
}

func (s *Sandbox) GenerateForCompletedTask(ctx context.Context, taskID string) (*Receipts, error) {
	return &Receipts{
		PaymentReceiptURL:  "sandbox://receipts/" + taskID + "/payment",
		EarningsReceiptURL: "sandbox://receipts/" + taskID + "/earnings",
	}, nil
}
