package model

import (
	"errors"
	"fmt"
)

// StrategyConfig holds all tunable parameters for one strategy. A config
// value is immutable per evaluation: updates produce a new value via
// Registry.UpdateConfig rather than mutating shared state in place.
type StrategyConfig struct {
	Pair     string
	Interval string

	// Sizing
	Leverage     int
	Quantity     float64 // base order size in the instrument's base currency
	MarginBudget float64 // fixed margin in the reference currency; 0 = disabled
	MinQuantity  float64
	MaxQuantity  float64

	// Exits
	TakeProfitPct float64
	StopLossPct   float64
	ATRMultiplier float64
	PricePrec     int32 // decimal places of the pair's price granularity

	// Gate
	MaxOpenTrades       int
	AutoExecute         bool
	ConfidenceThreshold float64

	// Indicator parameters
	EMAFast       int
	EMASlow       int
	RSIPeriod     int
	RSIOverbought float64
	RSIOversold   float64
	ATRPeriod     int
	MACDFast      int
	MACDSlow      int
	MACDSignal    int
	VolumePeriod  int

	// Confirmation policy: which filters must pass beyond the EMA crossover.
	RequireMACDConfirm   bool
	RequireVolumeConfirm bool
	MinVolumeRatio       float64

	// Volatility sizing thresholds (ATR as % of entry price)
	LowVolatilityPct  float64
	HighVolatilityPct float64
}

// Validate rejects configurations that would break evaluation or sizing.
func (c *StrategyConfig) Validate() error {
	if c.Pair == "" {
		return errors.New("pair must be set")
	}
	if c.Leverage < 1 {
		return fmt.Errorf("leverage (%d) must be >= 1", c.Leverage)
	}
	if c.Quantity <= 0 {
		return fmt.Errorf("quantity (%f) must be positive", c.Quantity)
	}
	if c.TakeProfitPct <= 0 || c.StopLossPct <= 0 {
		return errors.New("tp_pct and sl_pct must be positive")
	}
	if c.EMAFast <= 0 || c.EMASlow <= 0 || c.EMAFast >= c.EMASlow {
		return fmt.Errorf("EMA periods invalid: fast=%d slow=%d", c.EMAFast, c.EMASlow)
	}
	if c.RSIPeriod <= 0 {
		return errors.New("rsi_period must be positive")
	}
	if c.RSIOverbought <= c.RSIOversold {
		return fmt.Errorf("rsi_overbought (%.1f) must exceed rsi_oversold (%.1f)",
			c.RSIOverbought, c.RSIOversold)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 100 {
		return fmt.Errorf("confidence_threshold (%.1f) out of [0,100]", c.ConfidenceThreshold)
	}
	if c.MaxOpenTrades < 1 {
		return errors.New("max_open_trades must be >= 1")
	}
	if c.HighVolatilityPct < c.LowVolatilityPct {
		return errors.New("high volatility threshold below low threshold")
	}
	return nil
}

// Lookback returns the minimum window length the strategy needs before any
// evaluation can produce a signal.
func (c *StrategyConfig) Lookback() int {
	lb := c.EMASlow + 5
	if macd := c.MACDSlow + c.MACDSignal; c.RequireMACDConfirm && macd > lb {
		lb = macd
	}
	return lb
}
