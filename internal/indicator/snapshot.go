package indicator

import "trading-botv1/internal/model"

// Params selects the indicator periods used to build a Snapshot.
type Params struct {
	EMAFast      int
	EMASlow      int
	RSIPeriod    int
	ATRPeriod    int
	MACDFast     int
	MACDSlow     int
	MACDSignal   int
	VolumePeriod int
}

// Snapshot is one consistent set of indicator values derived from a candle
// window. EMA fields are pointers: nil means the window is too short for
// that value, and downstream logic must treat nil as "no decision
// possible", never as zero.
type Snapshot struct {
	EMAFast     *float64
	EMASlow     *float64
	EMAFastPrev *float64
	EMASlowPrev *float64

	RSI      float64
	ATR      float64
	MACD     MACDResult
	Volume   float64
	VolumeMA float64

	LastClose float64
	LastHigh  float64
	LastLow   float64
}

// HasEMA reports whether all four EMA values are present.
func (s *Snapshot) HasEMA() bool {
	return s.EMAFast != nil && s.EMASlow != nil &&
		s.EMAFastPrev != nil && s.EMASlowPrev != nil
}

// BuildSnapshot recomputes every indicator from the full window.
func BuildSnapshot(candles []model.Candle, p Params) Snapshot {
	var snap Snapshot
	if len(candles) == 0 {
		return snap
	}

	closes := model.Closes(candles)
	volumes := model.Volumes(candles)

	fastSeries := EMA(closes, p.EMAFast)
	slowSeries := EMA(closes, p.EMASlow)
	snap.EMAFast = last(fastSeries)
	snap.EMASlow = last(slowSeries)
	snap.EMAFastPrev = prev(fastSeries)
	snap.EMASlowPrev = prev(slowSeries)

	snap.RSI = RSI(closes, p.RSIPeriod)
	snap.ATR = ATR(candles, p.ATRPeriod)
	snap.MACD = MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	snap.VolumeMA = VolumeMA(volumes, p.VolumePeriod)

	tail := candles[len(candles)-1]
	snap.Volume = tail.Volume
	snap.LastClose = tail.Close
	snap.LastHigh = tail.High
	snap.LastLow = tail.Low
	return snap
}

func last(series []float64) *float64 {
	if len(series) == 0 {
		return nil
	}
	v := series[len(series)-1]
	return &v
}

func prev(series []float64) *float64 {
	if len(series) < 2 {
		return nil
	}
	v := series[len(series)-2]
	return &v
}
