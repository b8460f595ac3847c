package model

import (
	"encoding/json"
)

// Candle represents one OHLCV bar for a trading pair.
// The exchange streams the forming candle repeatedly under the same
// timestamp and flips IsClosed on the final update; once closed a candle
// is never mutated again.
type Candle struct {
	Pair      string  `json:"pair"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Timestamp string  `json:"timestamp"` // opaque exchange bucket key
	IsClosed  bool    `json:"is_closed"`
}

// JSON returns the JSON-encoded candle (ignoring errors for hot-path usage).
func (c *Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}

// Window is a bounded, ordered buffer of the most recent candles for one
// pair (newest last). An update carrying the tail's timestamp replaces the
// tail in place; a new timestamp appends and evicts the oldest on overflow.
type Window struct {
	candles []Candle
	max     int
}

// NewWindow creates a window holding at most max candles.
func NewWindow(max int) *Window {
	if max < 1 {
		max = 1
	}
	return &Window{candles: make([]Candle, 0, max), max: max}
}

// Update applies a streamed candle to the window and reports whether it
// started a new bucket (as opposed to refreshing the forming tail).
func (w *Window) Update(c Candle) (appended bool) {
	n := len(w.candles)
	if n > 0 && w.candles[n-1].Timestamp == c.Timestamp {
		w.candles[n-1] = c
		return false
	}
	w.candles = append(w.candles, c)
	if len(w.candles) > w.max {
		copy(w.candles, w.candles[1:])
		w.candles = w.candles[:w.max]
	}
	return true
}

// Candles returns the underlying slice, newest last. Callers must treat it
// as read-only; it is only valid until the next Update.
func (w *Window) Candles() []Candle {
	return w.candles
}

// Len returns the number of buffered candles.
func (w *Window) Len() int {
	return len(w.candles)
}

// Closes extracts the close series from a candle slice.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Volumes extracts the volume series from a candle slice.
func Volumes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}
