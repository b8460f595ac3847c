// Package engine runs the per-pair trading loop: buffer streamed candles,
// settle open paper positions on every closed candle, then evaluate the
// active strategy and execute whatever it accepts.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"trading-botv1/internal/metrics"
	"trading-botv1/internal/model"
	"trading-botv1/internal/paper"
	"trading-botv1/internal/risk"
	"trading-botv1/internal/strategy"
)

// Mode selects where accepted signals go.
type Mode string

const (
	ModePaper Mode = "PAPER"
	ModeReal  Mode = "REAL"
)

// defaultWindowSize bounds the per-pair candle buffer. It comfortably
// covers the largest default lookback (MACD 26+9) with room for warm-up.
const defaultWindowSize = 200

// Publisher pushes signal and trade events to downstream consumers.
type Publisher interface {
	PublishSignal(ctx context.Context, pair string, res model.SignalResult) error
	PublishTrade(ctx context.Context, trade model.PaperTrade) error
}

// EventLogger appends to the persistent event journal.
type EventLogger interface {
	LogEvent(ctx context.Context, level, message string) error
}

// Options carries the optional collaborators of an Engine. Nil fields
// disable the corresponding concern.
type Options struct {
	WindowSize int
	Gateway    Gateway
	Publisher  Publisher
	Events     EventLogger
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	Rates      risk.RateSource
}

// Engine drives one trading pair. Run is the only entry point; everything
// else is internal to the loop, so no locking is needed here.
type Engine struct {
	pair     string
	mode     Mode
	window   *model.Window
	registry *strategy.Registry
	exec     *paper.Engine
	gateway  Gateway
	pub      Publisher
	events   EventLogger
	metrics  *metrics.Metrics
	rates    risk.RateSource
	log      *slog.Logger
}

// New creates an engine for one pair.
func New(pair string, mode Mode, registry *strategy.Registry, exec *paper.Engine, opts Options) *Engine {
	size := opts.WindowSize
	if size <= 0 {
		size = defaultWindowSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gateway := opts.Gateway
	if gateway == nil {
		gateway = NopGateway{}
	}
	return &Engine{
		pair:     pair,
		mode:     mode,
		window:   model.NewWindow(size),
		registry: registry,
		exec:     exec,
		gateway:  gateway,
		pub:      opts.Publisher,
		events:   opts.Events,
		metrics:  opts.Metrics,
		rates:    opts.Rates,
		log:      logger.With("pair", pair),
	}
}

// Seed preloads historical candles so the first evaluations do not wait a
// full lookback of live data.
func (e *Engine) Seed(candles []model.Candle) {
	for _, c := range candles {
		e.window.Update(c)
	}
}

// Run consumes streamed candles until ctx is cancelled or the channel
// closes. Forming candles only refresh the window; closed candles trigger
// settlement and evaluation.
func (e *Engine) Run(ctx context.Context, candleCh <-chan model.Candle) {
	e.log.Info("engine started", "mode", string(e.mode))
	for {
		select {
		case <-ctx.Done():
			e.log.Info("engine stopped", "reason", ctx.Err())
			return
		case candle, ok := <-candleCh:
			if !ok {
				e.log.Info("candle channel closed")
				return
			}
			if candle.Pair != e.pair {
				continue
			}
			e.window.Update(candle)
			if candle.IsClosed {
				e.onClosedCandle(ctx, candle)
			}
		}
	}
}

func (e *Engine) onClosedCandle(ctx context.Context, candle model.Candle) {
	if e.metrics != nil {
		e.metrics.CandlesTotal.WithLabelValues(e.pair).Inc()
	}

	// Settle before evaluating: the candle that triggers a new signal must
	// first be allowed to close positions it already touched.
	for _, trade := range e.exec.Settle(ctx, candle) {
		e.onTradeClosed(ctx, trade)
	}

	start := time.Now()
	res, err := e.registry.Evaluate(e.window.Candles())
	if err != nil {
		e.log.Warn("evaluation skipped", "err", err)
		return
	}
	if e.metrics != nil {
		e.metrics.EvalDur.Observe(time.Since(start).Seconds())
	}

	if !res.Actionable() {
		if e.metrics != nil && res.Reason != "" {
			e.metrics.RejectionsTotal.WithLabelValues(e.pair, res.Reason).Inc()
		}
		return
	}

	e.log.Info("signal",
		"signal", string(res.Signal),
		"confidence", res.Confidence,
		"auto_execute", res.AutoExecute,
		"reason", res.Reason)
	if e.metrics != nil {
		e.metrics.SignalsTotal.WithLabelValues(e.pair, string(res.Signal)).Inc()
	}
	if e.pub != nil {
		if err := e.pub.PublishSignal(ctx, e.pair, res); err != nil {
			e.log.Warn("signal publish failed", "err", err)
		}
	}

	if !res.AutoExecute {
		return
	}
	switch e.mode {
	case ModePaper:
		e.openPaper(ctx, candle, res)
	case ModeReal:
		e.placeReal(ctx, candle, res)
	}
}

func (e *Engine) openPaper(ctx context.Context, candle model.Candle, res model.SignalResult) {
	cfg, err := e.registry.Config()
	if err != nil {
		e.log.Warn("open skipped", "err", err)
		return
	}
	side := model.SideFor(res.Signal)
	tp, sl, err := e.registry.CalculateTPSL(candle.Close, side, res.ATR)
	if err != nil {
		e.log.Warn("open skipped", "err", err)
		return
	}

	// A fixed margin budget overrides the strategy's quantity when a live
	// conversion rate is reachable.
	if cfg.MarginBudget > 0 && e.rates != nil {
		qty, err := risk.BudgetSize(ctx, e.rates, cfg, candle.Close, 0)
		if err != nil {
			e.log.Warn("budget sizing fell back to fixed quantity", "err", err)
		}
		res.PositionSize = qty
	}

	pos, err := e.exec.Open(ctx, e.pair, res, candle.Close, tp, sl, cfg)
	switch {
	case errors.Is(err, paper.ErrMaxOpenTrades):
		e.log.Info("open skipped", "reason", "max open trades")
		return
	case errors.Is(err, paper.ErrInsufficientBalance):
		e.log.Warn("open rejected", "reason", "wallet cannot cover entry fee")
		e.logEvent(ctx, "WARNING", "paper wallet insufficient for fee "+e.pair)
		return
	case err != nil:
		e.log.Error("open failed", "err", err)
		return
	}

	e.log.Info("paper entry",
		"side", string(pos.Side),
		"qty", pos.Quantity,
		"entry", pos.EntryPrice,
		"tp", pos.TPPrice,
		"sl", pos.SLPrice,
		"fee", pos.FeePaid)
	e.logEvent(ctx, "INFO", "paper entry "+e.pair+" side="+string(pos.Side))
	if e.metrics != nil {
		e.metrics.TradesOpened.WithLabelValues(e.pair).Inc()
		e.metrics.WalletBalance.Set(e.exec.Wallet().Balance())
	}
}

func (e *Engine) placeReal(ctx context.Context, candle model.Candle, res model.SignalResult) {
	cfg, err := e.registry.Config()
	if err != nil {
		e.log.Warn("order skipped", "err", err)
		return
	}
	side := model.SideFor(res.Signal)
	tp, sl, err := e.registry.CalculateTPSL(candle.Close, side, res.ATR)
	if err != nil {
		e.log.Warn("order skipped", "err", err)
		return
	}

	qty := res.PositionSize
	if qty <= 0 {
		qty = cfg.Quantity
	}
	orderID, err := e.gateway.PlaceOrder(ctx, Intent{
		Pair:       e.pair,
		Side:       side,
		Quantity:   qty,
		Leverage:   cfg.Leverage,
		EntryPrice: candle.Close,
		TPPrice:    tp,
		SLPrice:    sl,
		Confidence: res.Confidence,
	})
	if err != nil {
		e.log.Error("order failed", "err", err)
		e.logEvent(ctx, "ERROR", "order failed "+e.pair+": "+err.Error())
		return
	}
	e.log.Info("order placed", "order_id", orderID, "side", string(side))
	e.logEvent(ctx, "INFO", "order placed "+e.pair+" id="+orderID)
}

func (e *Engine) onTradeClosed(ctx context.Context, trade model.PaperTrade) {
	e.log.Info("paper close",
		"reason", string(trade.Reason),
		"exit", trade.ExitPrice,
		"pnl", trade.PnL,
		"fee", trade.TotalFee)
	e.logEvent(ctx, "INFO", "paper close "+e.pair+" reason="+string(trade.Reason))
	if e.metrics != nil {
		e.metrics.TradesClosed.WithLabelValues(e.pair, string(trade.Reason)).Inc()
		e.metrics.WalletBalance.Set(e.exec.Wallet().Balance())
	}
	if e.pub != nil {
		if err := e.pub.PublishTrade(ctx, trade); err != nil {
			e.log.Warn("trade publish failed", "err", err)
		}
	}
}

func (e *Engine) logEvent(ctx context.Context, level, msg string) {
	if e.events == nil {
		return
	}
	if err := e.events.LogEvent(ctx, level, msg); err != nil {
		e.log.Warn("event log failed", "err", err)
	}
}
