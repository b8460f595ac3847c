package model

import (
	"encoding/json"
	"time"
)

// CloseReason records why the paper engine closed a position.
type CloseReason string

const (
	ClosedByTP CloseReason = "take_profit"
	ClosedBySL CloseReason = "stop_loss"
)

// PaperPosition is an open simulated position. It is owned exclusively by
// the paper execution engine from acceptance until close.
type PaperPosition struct {
	ID         string    `json:"position_id"`
	OrderID    string    `json:"order_id"`
	Pair       string    `json:"pair"`
	Side       Side      `json:"side"`
	EntryPrice float64   `json:"entry_price"`
	Quantity   float64   `json:"quantity"`
	Leverage   int       `json:"leverage"`
	TPPrice    float64   `json:"tp_price"`
	SLPrice    float64   `json:"sl_price"`
	FeePaid    float64   `json:"fee_paid"` // entry fee, debited at open
	Confidence float64   `json:"confidence"`
	Note       string    `json:"note,omitempty"`
	OpenedAt   time.Time `json:"opened_at"`
}

// PaperTrade is the terminal record of a settled paper position.
type PaperTrade struct {
	PaperPosition
	ExitPrice float64     `json:"exit_price"`
	PnL       float64     `json:"pnl"`       // net of all fees
	TotalFee  float64     `json:"total_fee"` // entry + exit
	Reason    CloseReason `json:"close_reason"`
	ClosedAt  time.Time   `json:"closed_at"`
}

// JSON returns the JSON-encoded trade (ignoring errors for hot-path usage).
func (t *PaperTrade) JSON() []byte {
	b, _ := json.Marshal(t)
	return b
}
