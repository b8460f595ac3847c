package paper

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"trading-botv1/internal/model"
)

// DefaultTakerFeeRate is the simulated taker fee charged on both legs.
const DefaultTakerFeeRate = 0.0005

// ErrMaxOpenTrades is returned when the per-pair open position cap is reached.
var ErrMaxOpenTrades = errors.New("paper: max open trades reached")

// TradeStore persists paper positions and their settlement records.
type TradeStore interface {
	InsertPosition(ctx context.Context, p model.PaperPosition) error
	CloseTrade(ctx context.Context, t model.PaperTrade) error
	SetWalletBalance(ctx context.Context, balance float64) error
}

// Engine opens simulated positions and settles them against candle ranges.
// One engine serves all pairs; per-pair position lists keep settlement
// scoped to the candle's own pair.
type Engine struct {
	mu        sync.Mutex
	wallet    *Wallet
	store     TradeStore
	feeRate   float64
	positions map[string][]model.PaperPosition
}

// NewEngine creates a paper engine debiting fees from wallet and recording
// every open and close through store. A non-positive feeRate falls back to
// DefaultTakerFeeRate.
func NewEngine(wallet *Wallet, store TradeStore, feeRate float64) *Engine {
	if feeRate <= 0 {
		feeRate = DefaultTakerFeeRate
	}
	return &Engine{
		wallet:    wallet,
		store:     store,
		feeRate:   feeRate,
		positions: make(map[string][]model.PaperPosition),
	}
}

// Wallet exposes the engine's wallet for equity snapshots.
func (e *Engine) Wallet() *Wallet { return e.wallet }

// Restore seeds the engine with positions left open by a previous run.
func (e *Engine) Restore(positions []model.PaperPosition) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range positions {
		e.positions[p.Pair] = append(e.positions[p.Pair], p)
	}
}

// OpenCount returns the number of open positions for a pair.
func (e *Engine) OpenCount(pair string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.positions[pair])
}

// Positions returns a snapshot of the open positions for a pair.
func (e *Engine) Positions(pair string) []model.PaperPosition {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.PaperPosition, len(e.positions[pair]))
	copy(out, e.positions[pair])
	return out
}

// Open creates a simulated position at entry with the given exits. The
// entry-leg fee is debited up front; when the wallet cannot cover it the
// position is rejected and no state changes.
func (e *Engine) Open(ctx context.Context, pair string, res model.SignalResult, entry, tp, sl float64, cfg model.StrategyConfig) (model.PaperPosition, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.positions[pair]) >= cfg.MaxOpenTrades {
		return model.PaperPosition{}, ErrMaxOpenTrades
	}

	qty := res.PositionSize
	if qty <= 0 {
		qty = cfg.Quantity
	}

	entryFee := entry * qty * e.feeRate
	if err := e.wallet.Debit(entryFee); err != nil {
		return model.PaperPosition{}, err
	}

	id := uuid.NewString()
	pos := model.PaperPosition{
		ID:         "PAPER-POS-" + id,
		OrderID:    "PAPER-" + id,
		Pair:       pair,
		Side:       model.SideFor(res.Signal),
		EntryPrice: entry,
		Quantity:   qty,
		Leverage:   cfg.Leverage,
		TPPrice:    tp,
		SLPrice:    sl,
		FeePaid:    entryFee,
		Confidence: res.Confidence,
		Note:       res.Reason,
		OpenedAt:   time.Now().UTC(),
	}

	if err := e.store.InsertPosition(ctx, pos); err != nil {
		e.wallet.Credit(entryFee)
		return model.PaperPosition{}, err
	}
	if err := e.store.SetWalletBalance(ctx, e.wallet.Balance()); err != nil {
		log.Printf("[paper] wallet persist failed: %v", err)
	}

	e.positions[pair] = append(e.positions[pair], pos)
	log.Printf("[paper] entry %s side=%s qty=%f lev=%d fee=%.4f confidence=%.1f",
		pair, pos.Side, qty, pos.Leverage, entryFee, res.Confidence)
	return pos, nil
}

// Settle checks every open position for the candle's pair against its high
// and low and closes the ones whose TP or SL was touched. When both exits
// fall inside the same candle the stop loss wins; intra-candle ordering is
// unknowable from OHLC data, so losses are never understated.
func (e *Engine) Settle(ctx context.Context, candle model.Candle) []model.PaperTrade {
	e.mu.Lock()
	defer e.mu.Unlock()

	open := e.positions[candle.Pair]
	if len(open) == 0 {
		return nil
	}

	var closed []model.PaperTrade
	remaining := open[:0]
	for _, pos := range open {
		exit, reason, hit := exitFor(pos, candle)
		if !hit {
			remaining = append(remaining, pos)
			continue
		}

		exitFee := exit * pos.Quantity * e.feeRate
		raw := rawPnL(pos, exit)
		net := raw - pos.FeePaid - exitFee

		trade := model.PaperTrade{
			PaperPosition: pos,
			ExitPrice:     exit,
			PnL:           net,
			TotalFee:      pos.FeePaid + exitFee,
			Reason:        reason,
			ClosedAt:      time.Now().UTC(),
		}

		balance := e.wallet.Apply(net)
		if err := e.store.CloseTrade(ctx, trade); err != nil {
			log.Printf("[paper] close persist failed for %s: %v", pos.ID, err)
		}
		if err := e.store.SetWalletBalance(ctx, balance); err != nil {
			log.Printf("[paper] wallet persist failed: %v", err)
		}

		log.Printf("[paper] close %s %s exit=%.4f pnl=%.4f fee=%.4f balance=%.4f",
			candle.Pair, reason, exit, net, trade.TotalFee, balance)
		closed = append(closed, trade)
	}
	e.positions[candle.Pair] = remaining
	return closed
}

// exitFor decides whether the candle's range settles the position and at
// which exit price.
func exitFor(pos model.PaperPosition, candle model.Candle) (float64, model.CloseReason, bool) {
	var hitTP, hitSL bool
	if pos.Side == model.SideLong {
		hitTP = candle.High >= pos.TPPrice
		hitSL = candle.Low <= pos.SLPrice
	} else {
		hitTP = candle.Low <= pos.TPPrice
		hitSL = candle.High >= pos.SLPrice
	}

	switch {
	case hitSL:
		return pos.SLPrice, model.ClosedBySL, true
	case hitTP:
		return pos.TPPrice, model.ClosedByTP, true
	}
	return 0, "", false
}

// rawPnL is the leveraged price PnL before fees.
func rawPnL(pos model.PaperPosition, exit float64) float64 {
	diff := exit - pos.EntryPrice
	if pos.Side == model.SideShort {
		diff = pos.EntryPrice - exit
	}
	return diff * pos.Quantity * float64(pos.Leverage)
}
