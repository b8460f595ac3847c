package indicator

import (
	"testing"
)

func testParams() Params {
	return Params{
		EMAFast: 3, EMASlow: 5,
		RSIPeriod: 5, ATRPeriod: 3,
		MACDFast: 3, MACDSlow: 5, MACDSignal: 3,
		VolumePeriod: 3,
	}
}

func TestBuildSnapshot_EmptyWindow(t *testing.T) {
	snap := BuildSnapshot(nil, testParams())
	if snap.HasEMA() {
		t.Error("empty window should not produce EMA values")
	}
}

func TestBuildSnapshot_PrevNilBelowPeriodPlusOne(t *testing.T) {
	// Exactly slow-period candles: current slow EMA exists, previous does not.
	cs := candlesFromCloses(100, 101, 102, 103, 104)
	snap := BuildSnapshot(cs, testParams())

	if snap.EMASlow == nil {
		t.Fatal("EMASlow should exist with 5 candles")
	}
	if snap.EMASlowPrev != nil {
		t.Error("EMASlowPrev must be nil with exactly period candles")
	}
	if snap.HasEMA() {
		t.Error("HasEMA must be false while any previous value is missing")
	}
}

func TestBuildSnapshot_AllValuesPresent(t *testing.T) {
	cs := candlesFromCloses(100, 101, 102, 103, 104, 105, 106, 107, 108, 109)
	snap := BuildSnapshot(cs, testParams())

	if !snap.HasEMA() {
		t.Fatal("HasEMA should be true with 10 candles")
	}
	if *snap.EMAFast <= *snap.EMASlow {
		t.Errorf("uptrend: fast EMA (%.4f) should exceed slow EMA (%.4f)", *snap.EMAFast, *snap.EMASlow)
	}
	if snap.LastClose != 109 || snap.LastHigh != 109.5 || snap.LastLow != 108.5 {
		t.Errorf("tail values wrong: close=%.2f high=%.2f low=%.2f", snap.LastClose, snap.LastHigh, snap.LastLow)
	}
	if snap.ATR <= 0 {
		t.Errorf("ATR should be positive, got %.4f", snap.ATR)
	}
	assertClose(t, "volume MA", snap.VolumeMA, 10.0, 0.0001)
}

func TestBuildSnapshot_Deterministic(t *testing.T) {
	cs := candlesFromCloses(100, 99, 101, 98, 103, 102, 105, 104, 107, 106)
	a := BuildSnapshot(cs, testParams())
	b := BuildSnapshot(cs, testParams())

	if *a.EMAFast != *b.EMAFast || *a.EMASlow != *b.EMASlow ||
		a.RSI != b.RSI || a.ATR != b.ATR || a.MACD != b.MACD {
		t.Error("BuildSnapshot must be deterministic over the same window")
	}
}
