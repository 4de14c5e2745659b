package trigger

import "fmt"

// PriceCondition selects how cvxPriceAlert compares against its threshold.
type PriceCondition string

const (
	PriceAbove  PriceCondition = "above"
	PriceBelow  PriceCondition = "below"
	PriceChange PriceCondition = "change"
)

// Default thresholds, matching the documented trigger options.
const (
	DefaultApyThreshold         = 5.0  // percentage points
	DefaultTvlThreshold         = 10.0 // percent
	DefaultPriceThreshold       = 5.0  // USD
	DefaultPriceChangeThreshold = 10.0 // percent
	DefaultPegThreshold         = 2.0  // percent deviation from 1:1
)

// Scope limit when poolApyChanged watches all pools.
const poolApyScanLimit = 50

// Config holds the per-instance trigger options for one event kind.
type Config struct {
	Event                EventKind      `json:"event"`
	PoolID               string         `json:"poolId,omitempty"`
	ApyThreshold         float64        `json:"apyThreshold,omitempty"`
	TvlThreshold         float64        `json:"tvlThreshold,omitempty"`
	PriceCondition       PriceCondition `json:"priceCondition,omitempty"`
	PriceThreshold       float64        `json:"priceThreshold,omitempty"`
	PriceChangeThreshold float64        `json:"priceChangeThreshold,omitempty"`
	PegThreshold         float64        `json:"pegThreshold,omitempty"`
}

// WithDefaults returns a copy with every unset option replaced by its
// documented default.
func (c Config) WithDefaults() Config {
	if c.ApyThreshold <= 0 {
		c.ApyThreshold = DefaultApyThreshold
	}
	if c.TvlThreshold <= 0 {
		c.TvlThreshold = DefaultTvlThreshold
	}
	if c.PriceCondition == "" {
		c.PriceCondition = PriceChange
	}
	if c.PriceThreshold <= 0 {
		c.PriceThreshold = DefaultPriceThreshold
	}
	if c.PriceChangeThreshold <= 0 {
		c.PriceChangeThreshold = DefaultPriceChangeThreshold
	}
	if c.PegThreshold <= 0 {
		c.PegThreshold = DefaultPegThreshold
	}
	return c
}

// Validate fails fast on an unknown event kind or price condition, before
// any network call is made.
func (c Config) Validate() error {
	if _, err := ParseKind(string(c.Event)); err != nil {
		return err
	}
	switch c.PriceCondition {
	case "", PriceAbove, PriceBelow, PriceChange:
	default:
		return fmt.Errorf("unknown price condition %q", c.PriceCondition)
	}
	return nil
}
