package model

import "encoding/json"

// Signal is the directional outcome of one strategy evaluation.
type Signal string

const (
	SignalLong  Signal = "LONG"
	SignalShort Signal = "SHORT"
	SignalNone  Signal = "NONE"
)

// Side is the direction of an open position.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// SideFor maps an actionable signal to a position side.
func SideFor(s Signal) Side {
	if s == SignalShort {
		return SideShort
	}
	return SideLong
}

// SignalResult is produced fresh on every closed candle. It always carries
// the full record so callers can log confidence even when nothing executes.
type SignalResult struct {
	Signal       Signal  `json:"signal"`
	Confidence   float64 `json:"confidence"` // 0..100
	AutoExecute  bool    `json:"auto_execute"`
	ATR          float64 `json:"atr"`
	PositionSize float64 `json:"position_size"`
	TrailingStop float64 `json:"trailing_stop"`
	Reason       string  `json:"reason,omitempty"`
}

// NoSignal returns an empty result with an optional rejection reason.
func NoSignal(reason string) SignalResult {
	return SignalResult{Signal: SignalNone, Reason: reason}
}

// Actionable reports whether the result names a trade direction.
func (r SignalResult) Actionable() bool {
	return r.Signal == SignalLong || r.Signal == SignalShort
}

// JSON returns the JSON-encoded result (ignoring errors for hot-path usage).
func (r *SignalResult) JSON() []byte {
	b, _ := json.Marshal(r)
	return b
}
