package strategy

import (
	"math"
	"sync"

	"trading-botv1/internal/indicator"
	"trading-botv1/internal/model"
	"trading-botv1/internal/risk"
)

// SimpleEMA is the basic strategy: EMA crossover entry with an RSI band
// filter, fixed-percentage TP/SL, fixed order quantity, and a coarse
// 60/40 EMA/RSI confidence split. Conservative defaults for small accounts.
type SimpleEMA struct {
	mu  sync.RWMutex
	cfg model.StrategyConfig
}

// DefaultSimpleEMAConfig returns the stock configuration for SimpleEMA.
func DefaultSimpleEMAConfig() model.StrategyConfig {
	return model.StrategyConfig{
		Pair:     "B-BTC_USDT",
		Interval: "5m",
		Leverage: 5,
		Quantity: 0.001,

		TakeProfitPct: 0.02,
		StopLossPct:   0.01,
		PricePrec:     4,

		MaxOpenTrades:       3,
		AutoExecute:         true,
		ConfidenceThreshold: 80.0,

		EMAFast:       9,
		EMASlow:       21,
		RSIPeriod:     14,
		RSIOverbought: 70,
		RSIOversold:   30,
		ATRPeriod:     14,
		MACDFast:      12,
		MACDSlow:      26,
		MACDSignal:    9,
		VolumePeriod:  20,

		LowVolatilityPct:  1.0,
		HighVolatilityPct: 3.0,
	}
}

// NewSimpleEMA builds the strategy after validating its config.
func NewSimpleEMA(cfg model.StrategyConfig) (*SimpleEMA, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &SimpleEMA{cfg: cfg}, nil
}

func (s *SimpleEMA) Name() string { return "simple_ema" }

func (s *SimpleEMA) Description() string {
	return "Basic EMA crossover strategy with RSI filter. Conservative settings for beginners."
}

func (s *SimpleEMA) Config() model.StrategyConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *SimpleEMA) SetConfig(cfg model.StrategyConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

func (s *SimpleEMA) Evaluate(candles []model.Candle) model.SignalResult {
	cfg := s.Config()
	if len(candles) < cfg.EMASlow+5 {
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
	if up && snap.RSI < cfg.RSIOverbought {
		return s.accept(model.SignalLong, snap, cfg, "EMA crossed up, RSI below overbought")
	}
	if down && snap.RSI > cfg.RSIOversold {
		return s.accept(model.SignalShort, snap, cfg, "EMA crossed down, RSI above oversold")
	}
	return model.NoSignal("no crossover")
}

func (s *SimpleEMA) accept(sig model.Signal, snap indicator.Snapshot, cfg model.StrategyConfig, reason string) model.SignalResult {
	side := model.SideFor(sig)
	confidence := s.confidence(snap, side, cfg)

	trailing := 0.0
	if cfg.ATRMultiplier > 0 {
		trailing = risk.TrailingStop(snap.LastClose, snap.ATR, cfg.ATRMultiplier, side)
	}

	return model.SignalResult{
		Signal:       sig,
		Confidence:   confidence,
		AutoExecute:  cfg.AutoExecute && confidence >= cfg.ConfidenceThreshold,
		ATR:          snap.ATR,
		PositionSize: cfg.Quantity,
		TrailingStop: trailing,
		Reason:       reason,
	}
}

// confidence uses the coarse split: EMA alignment 60 (+20 fresh-crossover
// bonus), RSI 40, clamped to 100.
func (s *SimpleEMA) confidence(snap indicator.Snapshot, side model.Side, cfg model.StrategyConfig) float64 {
	if !snap.HasEMA() {
		return 0.0
	}

	confidence := 0.0
	fast, slow := *snap.EMAFast, *snap.EMASlow
	fastPrev, slowPrev := *snap.EMAFastPrev, *snap.EMASlowPrev

	if side == model.SideLong && fast > slow {
		confidence += 60
		if fastPrev <= slowPrev {
			confidence += 20
		}
	} else if side == model.SideShort && fast < slow {
		confidence += 60
		if fastPrev >= slowPrev {
			confidence += 20
		}
	}

	rsi := snap.RSI
	if side == model.SideLong {
		if rsi < cfg.RSIOversold {
			confidence += 40
		} else if rsi < cfg.RSIOverbought {
			confidence += 40 * (cfg.RSIOverbought - rsi) / cfg.RSIOverbought
		}
	} else {
		if rsi > cfg.RSIOverbought {
			confidence += 40
		} else if rsi > cfg.RSIOversold {
			confidence += 40 * (rsi - cfg.RSIOversold) / (100 - cfg.RSIOversold)
		}
	}

	return math.Min(100.0, math.Round(confidence*10)/10)
}

func (s *SimpleEMA) CalculateTPSL(entryPrice float64, side model.Side, atr float64) (tp, sl float64) {
	cfg := s.Config()
	return risk.FixedTPSL(entryPrice, side, cfg.TakeProfitPct, cfg.StopLossPct, cfg.PricePrec)
}
