// Package indicator provides pure, stateless technical-indicator functions
// over candle windows. Every function is total: bad or insufficient input
// yields a neutral value, never an error. Values are recomputed from the
// full window on each call so repeated invocations over the same immutable
// window are bit-identical.
package indicator

import (
	"math"

	"trading-botv1/internal/model"
)

// EMA computes the exponential moving average series for the input values.
// Returns nil when len(values) < period. The first output point is the
// simple average of the first period values (SMA seed); subsequent points
// follow the recurrence with smoothing constant k = 2/(period+1). The
// returned series is aligned to the input's tail: read [-1] and [-2] for
// current and previous values.
func EMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	k := 2.0 / float64(period+1)
	out := make([]float64, 0, len(values)-period+1)

	seed := 0.0
	for _, v := range values[:period] {
		seed += v
	}
	out = append(out, seed/float64(period))

	for _, v := range values[period:] {
		out = append(out, v*k+out[len(out)-1]*(1-k))
	}
	return out
}

// RSI computes the relative strength index over the last period deltas.
// Returns 50.0 (neutral) when fewer than period+1 closes exist and 100.0
// when the window has no losses. Rounded to 2 decimals.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 50.0
	}
	var gain, loss float64
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return round2(100.0 - 100.0/(1.0+rs))
}

// ATR computes the average true range as the simple mean of the last
// period true ranges. The first candle has no look-back, so its own close
// stands in for the previous close. Returns 0.0 when fewer than period
// candles exist.
func ATR(candles []model.Candle, period int) float64 {
	if period <= 0 || len(candles) < period {
		return 0.0
	}
	trs := make([]float64, len(candles))
	for i, c := range candles {
		prevClose := c.Close
		if i > 0 {
			prevClose = candles[i-1].Close
		}
		tr := c.High - c.Low
		if hc := math.Abs(c.High - prevClose); hc > tr {
			tr = hc
		}
		if lc := math.Abs(c.Low - prevClose); lc > tr {
			tr = lc
		}
		trs[i] = tr
	}
	sum := 0.0
	for _, tr := range trs[len(trs)-period:] {
		sum += tr
	}
	return sum / float64(period)
}

// MACDResult holds the latest MACD line, signal line, and histogram values.
type MACDResult struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// MACD computes the moving-average-convergence-divergence of the closes.
// The MACD line is EMA(fast) - EMA(slow) aligned on the slow series; the
// signal line is an EMA of the MACD line. Returns the zero struct when
// data is insufficient at any stage.
func MACD(closes []float64, fast, slow, signalPeriod int) MACDResult {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	if emaFast == nil || emaSlow == nil {
		return MACDResult{}
	}

	// The fast series is longer; align both to the slow series' tail.
	offset := len(emaFast) - len(emaSlow)
	if offset < 0 {
		return MACDResult{}
	}
	line := make([]float64, len(emaSlow))
	for i := range emaSlow {
		line[i] = emaFast[i+offset] - emaSlow[i]
	}

	signal := EMA(line, signalPeriod)
	if signal == nil {
		return MACDResult{}
	}
	macd := line[len(line)-1]
	sig := signal[len(signal)-1]
	return MACDResult{MACD: macd, Signal: sig, Histogram: macd - sig}
}

// VolumeMA computes the simple moving average of the trailing period
// volumes, or 0.0 when insufficient.
func VolumeMA(volumes []float64, period int) float64 {
	if period <= 0 || len(volumes) < period {
		return 0.0
	}
	sum := 0.0
	for _, v := range volumes[len(volumes)-period:] {
		sum += v
	}
	return sum / float64(period)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
