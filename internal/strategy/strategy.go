// Package strategy defines the trading-strategy contract, the registry
// that hot-swaps strategy implementations at runtime, and the concrete
// strategies shipped with the bot.
//
// A Strategy turns a candle window into a full SignalResult on every
// closed candle. Evaluation is stateless across calls: it depends only on
// the passed-in window and the strategy's immutable config value.
package strategy

import (
	"trading-botv1/internal/model"
)

// Strategy is the contract every trading strategy must implement.
type Strategy interface {
	// Name returns the unique registry key of the strategy.
	Name() string

	// Description returns a human-readable summary for dashboards.
	Description() string

	// Config returns the current immutable configuration value.
	Config() model.StrategyConfig

	// SetConfig replaces the configuration with a new validated value.
	SetConfig(cfg model.StrategyConfig) error

	// Evaluate inspects the candle window (newest last) and returns the
	// full signal record, including confidence and sizing, even when no
	// trade is indicated.
	Evaluate(candles []model.Candle) model.SignalResult

	// CalculateTPSL computes take-profit and stop-loss prices for an
	// entry. atr may be 0 when the caller has no volatility estimate.
	CalculateTPSL(entryPrice float64, side model.Side, atr float64) (tp, sl float64)
}

// crossover detects a strict EMA crossover on the snapshot. Ties on the
// previous candle count as "not yet crossed", so up and down are never
// both true.
func crossover(fast, slow, fastPrev, slowPrev float64) (up, down bool) {
	up = fastPrev <= slowPrev && fast > slow
	down = fastPrev >= slowPrev && fast < slow
	return up, down
}
