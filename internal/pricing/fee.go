package pricing

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "taskmarket.app/taskmarket/internal/errors"
)

type FeeReason string

const (
	ReasonPercentageApplied FeeReason = "percentage_applied"
	ReasonMinimumFeeApplied FeeReason = "minimum_fee_applied"
	ReasonMaximumFeeCapped  FeeReason = "maximum_fee_capped"
)

// FeeBreakdown explains how a service fee was derived.
type FeeBreakdown struct {
	ServiceFee    float64   `json:"service_fee"`
	TotalAmount   float64   `json:"total_amount"`
	BaseFee       float64   `json:"base_fee"`
	MinFee        float64   `json:"min_fee"`
	MaxFee        float64   `json:"max_fee"`
	Currency      string    `json:"currency"`
	Reason        FeeReason `json:"reason"`
	ConfigVersion uint64    `json:"config_version"`
}

// CalculateServiceFee computes the platform fee for an amount in the given
// currency: amount times the base percentage, clamped to the USD fee bounds
// converted into the currency. All outputs are rounded half-up to 2dp.
//
// Unknown currencies fall back to a 1:1 rate unless the config marks
// currencies as strict, in which case they fail with UnsupportedCurrency.
func CalculateServiceFee(amount float64, currency string, cfg FeeConfig) (*FeeBreakdown, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "USD"
	}

	rate, ok := cfg.Rates[currency]
	if !ok || rate <= 0 {
		if cfg.StrictCurrencies {
			return nil, apperrors.ErrUnsupportedCurrency.WithMessage(
				"currency is not supported: " + currency,
			)
		}
		rate = 1
	}

	budget := decimal.NewFromFloat(amount)
	rateDec := decimal.NewFromFloat(rate)

	baseFee := budget.Mul(decimal.NewFromFloat(cfg.BasePercentage)).Round(2)
	minFee := decimal.NewFromFloat(cfg.MinFeeUSD).Mul(rateDec).Round(2)
	maxFee := decimal.NewFromFloat(cfg.MaxFeeUSD).Mul(rateDec).Round(2)

	fee := baseFee
	reason := ReasonPercentageApplied
	switch {
	case fee.LessThan(minFee):
		fee = minFee
		reason = ReasonMinimumFeeApplied
	case fee.GreaterThan(maxFee):
		fee = maxFee
		reason = ReasonMaximumFeeCapped
	}

	total := budget.Add(fee).Round(2)

	return &FeeBreakdown{
		ServiceFee:    fee.InexactFloat64(),
		TotalAmount:   total.InexactFloat64(),
		BaseFee:       baseFee.InexactFloat64(),
		MinFee:        minFee.InexactFloat64(),
		MaxFee:        maxFee.InexactFloat64(),
		Currency:      currency,
		Reason:        reason,
		ConfigVersion: cfg.Version,
	}, nil
}
