package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"taskmarket.app/taskmarket/internal/logging"
)

// HTTPPaymentGateway talks to the payment processor over HTTP behind a
// circuit breaker, so a degraded processor fails fast instead of holding
// request handlers on the wire.
type HTTPPaymentGateway struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewHTTPPaymentGateway(baseURL string, timeout time.Duration) *HTTPPaymentGateway {
	return &HTTPPaymentGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "payment-gateway",
			MaxRequests: 1,
			Timeout:     5 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Logger.Infof("circuit breaker %s changed from %s to %s", name, from, to)
			},
		}),
	}
}

type createIntentRequest struct {
	Amount   float64           `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type createIntentResponse struct {
	IntentRef string `json:"intent_ref"`
}

func (g *HTTPPaymentGateway) CreateChargeIntent(
	ctx context.Context,
	amount float64,
	currency string,
	metadata map[string]string,
) (string, error) {
	var out createIntentResponse
	err := g.post(ctx, "/v1/intents", createIntentRequest{
		Amount:   amount,
		Currency: currency,
		Metadata: metadata,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.IntentRef, nil
}

func (g *HTTPPaymentGateway) CaptureIntent(ctx context.Context, intentRef string) (*CaptureResult, error) {
	var out CaptureResult
	err := g.post(ctx, "/v1/intents/"+intentRef+"/capture", struct{}{}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *HTTPPaymentGateway) post(ctx context.Context, path string, in, out interface{}) error {
	_, err := g.breaker.Execute(func() (interface{}, error) {
		body, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
		}
		return nil, json.NewDecoder(resp.Body).Decode(out)
	})
	return err
}
