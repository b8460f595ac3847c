// Package risk computes stop levels and position sizes. All functions
// guard against zero or negative prices and ATR by returning neutral
// values; a sizing fault must never stall the settlement path.
package risk

import (
	"context"
	"errors"
	"math"
	"time"

	"trading-botv1/internal/model"
)

// ErrRateUnavailable is reported when budget-based sizing cannot fetch a
// live conversion rate and falls back to the fixed quantity.
var ErrRateUnavailable = errors.New("risk: conversion rate unavailable")

// defaultRateTimeout bounds the rate lookup when the caller passes none.
const defaultRateTimeout = 3 * time.Second

// RateSource supplies a live conversion rate from the margin budget's
// reference currency to the instrument's quote currency.
type RateSource interface {
	Rate(ctx context.Context) (float64, error)
}

// TrailingStop returns the volatility-derived stop level for an entry:
// entry - ATR*multiplier for longs, entry + ATR*multiplier for shorts.
// Returns 0 when ATR or the entry price is not positive.
func TrailingStop(entryPrice, atr, multiplier float64, side model.Side) float64 {
	if entryPrice <= 0 || atr <= 0 || multiplier <= 0 {
		return 0
	}
	dist := atr * multiplier
	if side == model.SideShort {
		return entryPrice + dist
	}
	return entryPrice - dist
}

// FixedTPSL returns fixed-percentage take-profit and stop-loss prices,
// rounded to the pair's price granularity.
func FixedTPSL(entryPrice float64, side model.Side, tpPct, slPct float64, prec int32) (tp, sl float64) {
	if entryPrice <= 0 {
		return 0, 0
	}
	if side == model.SideLong {
		tp = roundTo(entryPrice*(1+tpPct), prec)
		sl = roundTo(entryPrice*(1-slPct), prec)
		return tp, sl
	}
	tp = roundTo(entryPrice*(1-tpPct), prec)
	sl = roundTo(entryPrice*(1+slPct), prec)
	return tp, sl
}

// VolatilityAdjustedSize scales the configured base quantity by current
// volatility and RSI extremity.
//
// The volatility multiplier is 1.0 at or below the low threshold, 0.5 at
// or above the high threshold, and linearly interpolated between. The RSI
// multiplier grants a slight boost at the extreme favorable level and a
// slight reduction at the extreme unfavorable level. The result is clamped
// to [cfg.MinQuantity, cfg.MaxQuantity].
func VolatilityAdjustedSize(cfg model.StrategyConfig, entryPrice, atr, rsi float64, side model.Side) float64 {
	size := cfg.Quantity
	if entryPrice > 0 && atr > 0 {
		volPct := atr / entryPrice * 100
		size *= volatilityMultiplier(volPct, cfg.LowVolatilityPct, cfg.HighVolatilityPct)
	}
	size *= rsiMultiplier(rsi, cfg, side)
	return clamp(size, cfg.MinQuantity, cfg.MaxQuantity)
}

func volatilityMultiplier(volPct, low, high float64) float64 {
	switch {
	case high <= low || volPct <= low:
		return 1.0
	case volPct >= high:
		return 0.5
	default:
		return 1.0 - 0.5*(volPct-low)/(high-low)
	}
}

func rsiMultiplier(rsi float64, cfg model.StrategyConfig, side model.Side) float64 {
	favorable, unfavorable := cfg.RSIOversold, cfg.RSIOverbought
	if side == model.SideShort {
		favorable, unfavorable = cfg.RSIOverbought, cfg.RSIOversold
	}
	if side == model.SideLong {
		switch {
		case rsi <= favorable:
			return 1.1
		case rsi >= unfavorable:
			return 0.9
		}
		return 1.0
	}
	switch {
	case rsi >= favorable:
		return 1.1
	case rsi <= unfavorable:
		return 0.9
	}
	return 1.0
}

// BudgetSize derives the order quantity from a fixed margin budget in the
// reference currency: (budget / rate) * leverage / entryPrice. The rate
// lookup is bounded by timeout; on any failure the fixed base quantity is
// returned together with ErrRateUnavailable so callers can record the
// fallback.
func BudgetSize(ctx context.Context, src RateSource, cfg model.StrategyConfig, entryPrice float64, timeout time.Duration) (float64, error) {
	if cfg.MarginBudget <= 0 || entryPrice <= 0 || src == nil {
		return cfg.Quantity, ErrRateUnavailable
	}
	if timeout <= 0 {
		timeout = defaultRateTimeout
	}

	rateCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rate, err := src.Rate(rateCtx)
	if err != nil || rate <= 0 {
		return cfg.Quantity, ErrRateUnavailable
	}

	margin := cfg.MarginBudget / rate
	qty := margin * float64(cfg.Leverage) / entryPrice
	if qty <= 0 {
		return cfg.Quantity, ErrRateUnavailable
	}
	return qty, nil
}

func clamp(v, lo, hi float64) float64 {
	if lo > 0 && v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}

func roundTo(v float64, prec int32) float64 {
	p := math.Pow10(int(prec))
	return math.Round(v*p) / p
}
