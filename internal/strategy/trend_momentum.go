package strategy

import (
	"sync"

	"trading-botv1/internal/indicator"
	"trading-botv1/internal/model"
	"trading-botv1/internal/risk"
)

// TrendMomentum is the richer strategy: an EMA crossover must be confirmed
// by MACD and volume (each individually switchable in config) before it
// becomes a candidate, confidence uses the full 30/25/20/15/10 weighting,
// stops derive from ATR, and position size adapts to volatility.
type TrendMomentum struct {
	mu  sync.RWMutex
	cfg model.StrategyConfig
}

// DefaultTrendMomentumConfig returns the stock configuration for
// TrendMomentum.
func DefaultTrendMomentumConfig() model.StrategyConfig {
	cfg := DefaultSimpleEMAConfig()
	cfg.MaxOpenTrades = 5
	cfg.ConfidenceThreshold = 75.0
	cfg.ATRMultiplier = 1.5
	cfg.MinQuantity = 0.0005
	cfg.MaxQuantity = 0.01
	cfg.MinVolumeRatio = 0.5
	cfg.RequireMACDConfirm = true
	cfg.RequireVolumeConfirm = true
	cfg.MarginBudget = 300.0
	return cfg
}

// NewTrendMomentum builds the strategy after validating its config.
func NewTrendMomentum(cfg model.StrategyConfig) (*TrendMomentum, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &TrendMomentum{cfg: cfg}, nil
}

func (s *TrendMomentum) Name() string { return "trend_momentum" }

func (s *TrendMomentum) Description() string {
	return "EMA crossover confirmed by MACD and volume, ATR-based stops, volatility-adjusted sizing."
}

func (s *TrendMomentum) Config() model.StrategyConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *TrendMomentum) SetConfig(cfg model.StrategyConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

func (s *TrendMomentum) Evaluate(candles []model.Candle) model.SignalResult {
	cfg := s.Config()
	if len(candles) < cfg.Lookback() {
		return model.NoSignal("insufficient data")
	}

	snap := indicator.BuildSnapshot(candles, indicator.Params{
		EMAFast: cfg.EMAFast, EMASlow: cfg.EMASlow,
		RSIPeriod: cfg.RSIPeriod, ATRPeriod: cfg.ATRPeriod,
		MACDFast: cfg.MACDFast, MACDSlow: cfg.MACDSlow, MACDSignal: cfg.MACDSignal,
		VolumePeriod: cfg.VolumePeriod,
	})
	if !snap.HasEMA() {
		return model.NoSignal("ema warm-up")
	}

	up, down := crossover(*snap.EMAFast, *snap.EMASlow, *snap.EMAFastPrev, *snap.EMASlowPrev)

	// Long first; short only when long produced nothing.
	if up {
		if reason, ok := s.confirmed(snap, cfg, model.SideLong); ok {
			return s.accept(model.SignalLong, snap, cfg)
		} else if reason != "" {
			return model.NoSignal(reason)
		}
	}
	if down {
		if reason, ok := s.confirmed(snap, cfg, model.SideShort); ok {
			return s.accept(model.SignalShort, snap, cfg)
		} else if reason != "" {
			return model.NoSignal(reason)
		}
	}
	return model.NoSignal("no crossover")
}

// confirmed applies the per-strategy confirmation policy to a crossover
// candidate. It returns the rejection reason when a filter blocks it.
func (s *TrendMomentum) confirmed(snap indicator.Snapshot, cfg model.StrategyConfig, side model.Side) (string, bool) {
	if cfg.RequireMACDConfirm {
		ordered := snap.MACD.MACD > snap.MACD.Signal
		if side == model.SideShort {
			ordered = snap.MACD.MACD < snap.MACD.Signal
		}
		if !ordered {
			return "macd not confirming", false
		}
	}
	if cfg.RequireVolumeConfirm {
		minRatio := cfg.MinVolumeRatio
		if minRatio <= 0 {
			minRatio = 0.5
		}
		if snap.VolumeMA <= 0 || snap.Volume/snap.VolumeMA < minRatio {
			return "volume below minimum ratio", false
		}
	}
	return "", true
}

func (s *TrendMomentum) accept(sig model.Signal, snap indicator.Snapshot, cfg model.StrategyConfig) model.SignalResult {
	side := model.SideFor(sig)
	confidence := Score(snap, side, cfg)

	return model.SignalResult{
		Signal:       sig,
		Confidence:   confidence,
		AutoExecute:  cfg.AutoExecute && confidence >= cfg.ConfidenceThreshold,
		ATR:          snap.ATR,
		PositionSize: risk.VolatilityAdjustedSize(cfg, snap.LastClose, snap.ATR, snap.RSI, side),
		TrailingStop: risk.TrailingStop(snap.LastClose, snap.ATR, cfg.ATRMultiplier, side),
		Reason:       "EMA crossover confirmed",
	}
}

// CalculateTPSL places the stop at one ATR multiple from entry and the
// target at twice that distance; when no ATR is available it falls back
// to the fixed percentages.
func (s *TrendMomentum) CalculateTPSL(entryPrice float64, side model.Side, atr float64) (tp, sl float64) {
	cfg := s.Config()
	if atr <= 0 || cfg.ATRMultiplier <= 0 {
		return risk.FixedTPSL(entryPrice, side, cfg.TakeProfitPct, cfg.StopLossPct, cfg.PricePrec)
	}
	sl = risk.TrailingStop(entryPrice, atr, cfg.ATRMultiplier, side)
	dist := 2 * cfg.ATRMultiplier * atr
	if side == model.SideShort {
		tp = entryPrice - dist
	} else {
		tp = entryPrice + dist
	}
	return tp, sl
}
