package pricing

import "sync"

// FeeConfig is an immutable snapshot of the service-fee policy. Rates map
// a currency code to units of that currency per USD; the USD fee bounds
// are converted through it.
type FeeConfig struct {
	Version          uint64
	BasePercentage   float64
	MinFeeUSD        float64
	MaxFeeUSD        float64
	Rates            map[string]float64
	StrictCurrencies bool
}

func DefaultFeeConfig() FeeConfig {
	return FeeConfig{
		Version:        1,
		BasePercentage: 0.10,
		MinFeeUSD:      5,
		MaxFeeUSD:      50,
		Rates: map[string]float64{
			"USD": 1,
			"EUR": 0.92,
			"GBP": 0.79,
			"AUD": 1.52,
			"CAD": 1.36,
			"INR": 83.10,
		},
	}
}

// ConfigService hands out fee-config snapshots and applies admin updates
// atomically. Calculations always read a fresh snapshot; they never hold
// onto config captured at process start.
type ConfigService struct {
	mu      sync.RWMutex
	current FeeConfig
}

func NewConfigService(initial FeeConfig) *ConfigService {
	if initial.Version == 0 {
		initial.Version = 1
	}
	return &ConfigService{current: initial}
}

func (s *ConfigService) Snapshot() FeeConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

// Update applies mutate under the write lock and bumps the version, so
// concurrent admin edits serialize instead of clobbering each other.
func (s *ConfigService) Update(mutate func(*FeeConfig)) FeeConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.clone()
	mutate(&next)
	next.Version = s.current.Version + 1
	s.current = next

	return next.clone()
}

func (c FeeConfig) clone() FeeConfig {
	out := c
	out.Rates = make(map[string]float64, len(c.Rates))
	for k, v := range c.Rates {
		out.Rates[k] = v
	}
	return out
}
