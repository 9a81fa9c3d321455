package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"taskmarket.app/taskmarket/internal/logging"
)

type HTTPReceiptGenerator struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewHTTPReceiptGenerator(baseURL string, timeout time.Duration) *HTTPReceiptGenerator {
	return &HTTPReceiptGenerator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "receipt-generator",
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

func (g *HTTPReceiptGenerator) GenerateForCompletedTask(ctx context.Context, taskID string) (*Receipts, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(
			ctx, http.MethodPost, g.baseURL+"/v1/receipts/tasks/"+taskID, nil,
		)
		if err != nil {
			return nil, err
		}

		resp, err := g.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("receipt generator returned status %d", resp.StatusCode)
		}

		var receipts Receipts
		if err := json.NewDecoder(resp.Body).Decode(&receipts); err != nil {
			return nil, err
		}
		return &receipts, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Receipts), nil
}
