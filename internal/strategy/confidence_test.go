package strategy

import (
	"math"
	"testing"

	"trading-botv1/internal/indicator"
	"trading-botv1/internal/model"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f", label, got, want)
	}
}

func f(v float64) *float64 { return &v }

func scoringConfig() model.StrategyConfig {
	cfg := DefaultTrendMomentumConfig()
	cfg.RSIOverbought = 70
	cfg.RSIOversold = 30
	cfg.MinVolumeRatio = 0.5
	return cfg
}

// fullAlignmentSnap is a snapshot where every sub-score is maximal for a
// long: fresh crossover, MACD ordered with positive histogram, oversold
// RSI, volume above its MA, and wide EMA separation.
func fullAlignmentSnap() indicator.Snapshot {
	return indicator.Snapshot{
		EMAFast: f(105), EMASlow: f(100),
		EMAFastPrev: f(99), EMASlowPrev: f(100),
		RSI:       25,
		MACD:      indicator.MACDResult{MACD: 2, Signal: 1, Histogram: 1},
		Volume:    150,
		VolumeMA:  100,
		LastClose: 100, LastHigh: 101, LastLow: 99,
	}
}

func TestScore_MissingEMA_IsZero(t *testing.T) {
	snap := fullAlignmentSnap()
	snap.EMAFastPrev = nil
	assertClose(t, "missing prev EMA", Score(snap, model.SideLong, scoringConfig()), 0.0, 0.0001)

	snap = fullAlignmentSnap()
	snap.EMAFast = nil
	assertClose(t, "missing EMA", Score(snap, model.SideLong, scoringConfig()), 0.0, 0.0001)
}

func TestScore_FullAlignment_Long(t *testing.T) {
	// EMA 24+6, MACD 25, RSI 20 (at oversold), volume 15, strength capped
	// at 10 (separation 5 vs 2% of 100) → 100.
	got := Score(fullAlignmentSnap(), model.SideLong, scoringConfig())
	assertClose(t, "full alignment", got, 100.0, 0.0001)
}

func TestScore_Bounds(t *testing.T) {
	snaps := []indicator.Snapshot{
		fullAlignmentSnap(),
		{EMAFast: f(100), EMASlow: f(105), EMAFastPrev: f(100), EMASlowPrev: f(105), RSI: 80, LastClose: 100},
		{EMAFast: f(101), EMASlow: f(100), EMAFastPrev: f(102), EMASlowPrev: f(100), RSI: 50, LastClose: 100},
	}
	for i, snap := range snaps {
		for _, side := range []model.Side{model.SideLong, model.SideShort} {
			v := Score(snap, side, scoringConfig())
			if v < 0 || v > 100 {
				t.Errorf("snap %d side %s: score %.2f out of [0,100]", i, side, v)
			}
		}
	}
}

func TestScore_MACDHalfWeight(t *testing.T) {
	// Ordering matches but histogram sign does not → half the MACD weight.
	full := fullAlignmentSnap()
	half := fullAlignmentSnap()
	half.MACD = indicator.MACDResult{MACD: 2, Signal: 1, Histogram: -0.5}

	diff := Score(full, model.SideLong, scoringConfig()) - Score(half, model.SideLong, scoringConfig())
	assertClose(t, "macd half-weight delta", diff, 12.5, 0.0001)
}

func TestScore_RSIAllowanceBand(t *testing.T) {
	cfg := scoringConfig()

	inBand := fullAlignmentSnap()
	inBand.RSI = 75 // past overbought but inside the 10-point band
	beyond := fullAlignmentSnap()
	beyond.RSI = 85 // beyond the band

	// 25% of the RSI weight in the band, zero beyond it.
	diff := Score(inBand, model.SideLong, cfg) - Score(beyond, model.SideLong, cfg)
	assertClose(t, "allowance band delta", diff, 5.0, 0.0001)
}

func TestScore_VolumePartialCredit(t *testing.T) {
	cfg := scoringConfig()

	snap := fullAlignmentSnap()
	snap.Volume = 75 // ratio 0.75, midway between 0.5 and 1.0
	mid := Score(snap, model.SideLong, cfg)

	snap.Volume = 100 // ratio 1.0 → full weight
	top := Score(snap, model.SideLong, cfg)

	assertClose(t, "volume partial credit", top-mid, 7.5, 0.0001)

	snap.Volume = 40 // below the minimum ratio → zero
	bottom := Score(snap, model.SideLong, cfg)
	assertClose(t, "volume below min", top-bottom, 15.0, 0.0001)
}

func TestScore_ShortMirrors(t *testing.T) {
	// A snapshot fully aligned for a short.
	snap := indicator.Snapshot{
		EMAFast: f(95), EMASlow: f(100),
		EMAFastPrev: f(101), EMASlowPrev: f(100),
		RSI:       75,
		MACD:      indicator.MACDResult{MACD: -2, Signal: -1, Histogram: -1},
		Volume:    150,
		VolumeMA:  100,
		LastClose: 100,
	}
	got := Score(snap, model.SideShort, scoringConfig())
	assertClose(t, "short full alignment", got, 100.0, 0.0001)

	// The same snapshot scores poorly for a long.
	long := Score(snap, model.SideLong, scoringConfig())
	if long >= got {
		t.Errorf("long score (%.1f) should be far below short score (%.1f)", long, got)
	}
}
