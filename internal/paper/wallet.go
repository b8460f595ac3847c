// Package paper simulates order execution against streamed candles.
//
// Positions are filled at the strategy's entry price, carry taker fees on
// both legs, and settle when a later candle's range touches their TP or SL.
// No real exchange orders are ever placed from this package.
package paper

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

// ErrInsufficientBalance is returned when a debit exceeds the wallet balance.
var ErrInsufficientBalance = errors.New("paper: insufficient wallet balance")

// walletScale is the number of decimal places the balance is kept at.
// Repeated float64 accumulation drifts; decimals keep snapshots stable.
const walletScale = 8

// Wallet is the simulated account balance. All mutations are serialized so
// concurrent pair engines never interleave a read-modify-write.
type Wallet struct {
	mu      sync.Mutex
	balance decimal.Decimal
}

// NewWallet creates a wallet holding the given starting balance.
func NewWallet(start float64) *Wallet {
	return &Wallet{balance: decimal.NewFromFloat(start).Round(walletScale)}
}

// Balance returns the current balance.
func (w *Wallet) Balance() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, _ := w.balance.Float64()
	return f
}

// Debit removes amount from the wallet. The balance may reach exactly zero
// but a debit larger than the balance is rejected without any change.
func (w *Wallet) Debit(amount float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	d := decimal.NewFromFloat(amount).Round(walletScale)
	if d.GreaterThan(w.balance) {
		return ErrInsufficientBalance
	}
	w.balance = w.balance.Sub(d)
	return nil
}

// Credit adds amount back to the wallet.
func (w *Wallet) Credit(amount float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balance = w.balance.Add(decimal.NewFromFloat(amount).Round(walletScale))
}

// Apply adds a signed PnL delta and returns the new balance. Unlike Debit
// this may drive the balance negative; a losing leveraged trade can owe
// more than the wallet holds.
func (w *Wallet) Apply(delta float64) float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balance = w.balance.Add(decimal.NewFromFloat(delta).Round(walletScale))
	f, _ := w.balance.Float64()
	return f
}
