package pricing

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "taskmarket.app/taskmarket/internal/errors"
)

func TestCalculateServiceFee_PercentageApplied(t *testing.T) {
	breakdown, err := CalculateServiceFee(200, "USD", DefaultFeeConfig())
	require.NoError(t, err)

	assert.Equal(t, 20.0, breakdown.ServiceFee)
	assert.Equal(t, 220.0, breakdown.TotalAmount)
	assert.Equal(t, ReasonPercentageApplied, breakdown.Reason)
}

func TestCalculateServiceFee_MinimumApplied(t *testing.T) {
	breakdown, err := CalculateServiceFee(30, "USD", DefaultFeeConfig())
	require.NoError(t, err)

	assert.Equal(t, 5.0, breakdown.ServiceFee)
	assert.Equal(t, 35.0, breakdown.TotalAmount)
	assert.Equal(t, ReasonMinimumFeeApplied, breakdown.Reason)
}

func TestCalculateServiceFee_MaximumCapped(t *testing.T) {
	breakdown, err := CalculateServiceFee(600, "USD", DefaultFeeConfig())
	require.NoError(t, err)

	assert.Equal(t, 50.0, breakdown.ServiceFee)
	assert.Equal(t, 650.0, breakdown.TotalAmount)
	assert.Equal(t, ReasonMaximumFeeCapped, breakdown.Reason)
}

func TestCalculateServiceFee_BoundsConvertedThroughRate(t *testing.T) {
	cfg := DefaultFeeConfig()
	cfg.Rates["INR"] = 80

	// 10% of 1000 INR is 100, below the converted minimum of 400.
	breakdown, err := CalculateServiceFee(1000, "INR", cfg)
	require.NoError(t, err)

	assert.Equal(t, 400.0, breakdown.ServiceFee)
	assert.Equal(t, ReasonMinimumFeeApplied, breakdown.Reason)
	assert.Equal(t, 4000.0, breakdown.MaxFee)
}

func TestCalculateServiceFee_RoundsHalfUp(t *testing.T) {
	breakdown, err := CalculateServiceFee(100.25, "USD", DefaultFeeConfig())
	require.NoError(t, err)

	// 10.025 rounds up to 10.03.
	assert.Equal(t, 10.03, breakdown.ServiceFee)
	assert.Equal(t, 110.28, breakdown.TotalAmount)
}

func TestCalculateServiceFee_UnknownCurrencyFallsBack(t *testing.T) {
	breakdown, err := CalculateServiceFee(200, "XYZ", DefaultFeeConfig())
	require.NoError(t, err)

	// Falls back to a 1:1 rate against the USD bounds.
	assert.Equal(t, 20.0, breakdown.ServiceFee)
	assert.Equal(t, 5.0, breakdown.MinFee)
	assert.Equal(t, 50.0, breakdown.MaxFee)
}

func TestCalculateServiceFee_StrictCurrencies(t *testing.T) {
	cfg := DefaultFeeConfig()
	cfg.StrictCurrencies = true

	_, err := CalculateServiceFee(200, "XYZ", cfg)
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedCurrency)
}

func TestCalculateServiceFee_InvalidAmounts(t *testing.T) {
	for _, amount := range []float64{0, -10} {
		_, err := CalculateServiceFee(amount, "USD", DefaultFeeConfig())
		assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
	}
}

func TestCalculateServiceFee_WithinBoundsMatchesPercentage(t *testing.T) {
	cfg := DefaultFeeConfig()
	for _, amount := range []float64{50, 100, 250, 499.99} {
		breakdown, err := CalculateServiceFee(amount, "USD", cfg)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, breakdown.ServiceFee, breakdown.MinFee)
		assert.LessOrEqual(t, breakdown.ServiceFee, breakdown.MaxFee)
		if breakdown.Reason == ReasonPercentageApplied {
			assert.InDelta(t, amount*cfg.BasePercentage, breakdown.ServiceFee, 0.005)
		}
	}
}

func TestConfigService_ReadsFreshSnapshot(t *testing.T) {
	svc := NewConfigService(DefaultFeeConfig())

	before, err := CalculateServiceFee(200, "USD", svc.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, 20.0, before.ServiceFee)

	svc.Update(func(cfg *FeeConfig) {
		cfg.BasePercentage = 0.20
	})

	after, err := CalculateServiceFee(200, "USD", svc.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, 40.0, after.ServiceFee)
	assert.Greater(t, after.ConfigVersion, before.ConfigVersion)
}

func TestConfigService_ConcurrentUpdatesSerialize(t *testing.T) {
	svc := NewConfigService(DefaultFeeConfig())

	const updates = 50
	var wg sync.WaitGroup
	wg.Add(updates)
	for i := 0; i < updates; i++ {
		go func() {
			defer wg.Done()
			svc.Update(func(cfg *FeeConfig) {
				cfg.Rates["EUR"] = cfg.Rates["EUR"] + 0.01
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(1+updates), svc.Snapshot().Version)
}

func TestConfigService_SnapshotIsIsolated(t *testing.T) {
	svc := NewConfigService(DefaultFeeConfig())

	snap := svc.Snapshot()
	snap.Rates["USD"] = 99

	assert.Equal(t, 1.0, svc.Snapshot().Rates["USD"])
}
