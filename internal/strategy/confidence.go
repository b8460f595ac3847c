package strategy

import (
	"math"

	"trading-botv1/internal/indicator"
	"trading-botv1/internal/model"
)

// Reference confidence weights. Sub-scores are capped so the total sums to
// at most 100 by construction.
const (
	weightEMA      = 30.0 // 24 alignment + 6 fresh-crossover bonus
	weightMACD     = 25.0
	weightRSI      = 20.0
	weightVolume   = 15.0
	weightStrength = 10.0

	// Allowance band past the classic RSI threshold in which a reduced
	// score still permits strong-trend continuation entries.
	rsiAllowanceBand  = 10.0
	rsiAllowanceShare = 0.25

	// EMA separation equal to 2% of the last close counts as maximum
	// trend strength.
	strengthNormPct = 0.02
)

// Score converts an indicator snapshot plus a hypothesized direction into
// a confidence value in [0,100]. A missing EMA or previous-EMA value
// short-circuits the whole function to 0.
func Score(snap indicator.Snapshot, side model.Side, cfg model.StrategyConfig) float64 {
	if !snap.HasEMA() {
		return 0.0
	}

	score := emaScore(snap, side)
	score += macdScore(snap.MACD, side)
	score += rsiScore(snap.RSI, side, cfg)
	score += volumeScore(snap.Volume, snap.VolumeMA, cfg.MinVolumeRatio)
	score += strengthScore(snap)

	if score > 100 {
		score = 100
	}
	return math.Round(score*10) / 10
}

func emaScore(snap indicator.Snapshot, side model.Side) float64 {
	fast, slow := *snap.EMAFast, *snap.EMASlow
	fastPrev, slowPrev := *snap.EMAFastPrev, *snap.EMASlowPrev

	aligned := fast > slow
	freshCross := fastPrev <= slowPrev
	if side == model.SideShort {
		aligned = fast < slow
		freshCross = fastPrev >= slowPrev
	}
	if !aligned {
		return 0
	}
	score := weightEMA - 6
	if freshCross {
		score += 6
	}
	return score
}

func macdScore(m indicator.MACDResult, side model.Side) float64 {
	ordered := m.MACD > m.Signal
	histMatch := m.Histogram > 0
	if side == model.SideShort {
		ordered = m.MACD < m.Signal
		histMatch = m.Histogram < 0
	}
	switch {
	case ordered && histMatch:
		return weightMACD
	case ordered:
		return weightMACD / 2
	}
	return 0
}

// rsiScore grants full weight at the extreme favorable threshold, decays
// linearly across the neutral band, and keeps a reduced allowance inside
// the band just past the unfavorable threshold.
func rsiScore(rsi float64, side model.Side, cfg model.StrategyConfig) float64 {
	over, under := cfg.RSIOverbought, cfg.RSIOversold
	if over <= under {
		return 0
	}
	if side == model.SideShort {
		// Mirror around the midpoint so shorts reuse the long-side math.
		rsi = 100 - rsi
		over, under = 100-under, 100-over
	}
	switch {
	case rsi <= under:
		return weightRSI
	case rsi < over:
		return weightRSI * (over - rsi) / (over - under)
	case rsi < over+rsiAllowanceBand:
		return weightRSI * rsiAllowanceShare
	}
	return 0
}

func volumeScore(volume, volumeMA, minRatio float64) float64 {
	if volumeMA <= 0 {
		return 0
	}
	if minRatio <= 0 || minRatio >= 1 {
		minRatio = 0.5
	}
	ratio := volume / volumeMA
	switch {
	case ratio >= 1:
		return weightVolume
	case ratio >= minRatio:
		return weightVolume * (ratio - minRatio) / (1 - minRatio)
	}
	return 0
}

func strengthScore(snap indicator.Snapshot) float64 {
	if snap.LastClose <= 0 {
		return 0
	}
	sep := math.Abs(*snap.EMAFast - *snap.EMASlow)
	norm := strengthNormPct * snap.LastClose
	if norm <= 0 {
		return 0
	}
	score := weightStrength * sep / norm
	if score > weightStrength {
		score = weightStrength
	}
	return score
}
