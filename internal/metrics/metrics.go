// Package metrics exposes Prometheus metrics and a health endpoint for the
// trading bot.
package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the bot.
type Metrics struct {
	CandlesTotal    *prometheus.CounterVec // labels: pair
	SignalsTotal    *prometheus.CounterVec // labels: pair, direction
	RejectionsTotal *prometheus.CounterVec // labels: pair, reason
	TradesOpened    *prometheus.CounterVec // labels: pair
	TradesClosed    *prometheus.CounterVec // labels: pair, reason
	WSReconnects    prometheus.Counter
	WalletBalance   prometheus.Gauge
	EvalDur         prometheus.Histogram
}

// NewMetrics registers and returns all metrics. A nil registerer uses the
// process-wide default.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		CandlesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bot_candles_total",
			Help: "Closed candles processed per pair",
		}, []string{"pair"}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bot_signals_total",
			Help: "Actionable signals emitted per pair and direction",
		}, []string{"pair", "direction"}),
		RejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bot_signal_rejections_total",
			Help: "Evaluations that produced no actionable signal",
		}, []string{"pair", "reason"}),
		TradesOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bot_paper_trades_opened_total",
			Help: "Paper positions opened per pair",
		}, []string{"pair"}),
		TradesClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bot_paper_trades_closed_total",
			Help: "Paper positions closed per pair and close reason",
		}, []string{"pair", "reason"}),
		WSReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bot_ws_reconnects_total",
			Help: "WebSocket reconnection attempts",
		}),
		WalletBalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bot_paper_wallet_balance",
			Help: "Current simulated wallet balance",
		}),
		EvalDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bot_strategy_eval_duration_seconds",
			Help:    "Strategy evaluation latency per closed candle",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
	}

	reg.MustRegister(
		m.CandlesTotal,
		m.SignalsTotal,
		m.RejectionsTotal,
		m.TradesOpened,
		m.TradesClosed,
		m.WSReconnects,
		m.WalletBalance,
		m.EvalDur,
	)
	return m
}

// HealthStatus tracks liveness of the bot's external dependencies.
type HealthStatus struct {
	mu sync.RWMutex

	WSConnected    bool
	RedisConnected bool
	SQLiteOK       bool
	LastCandleTime time.Time
	StartedAt      time.Time
}

// NewHealthStatus creates a health tracker anchored at start time.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

// SetWS records WebSocket connectivity.
func (h *HealthStatus) SetWS(connected bool) {
	h.mu.Lock()
	h.WSConnected = connected
	h.mu.Unlock()
}

// SetRedis records Redis connectivity.
func (h *HealthStatus) SetRedis(connected bool) {
	h.mu.Lock()
	h.RedisConnected = connected
	h.mu.Unlock()
}

// SetSQLite records SQLite health.
func (h *HealthStatus) SetSQLite(ok bool) {
	h.mu.Lock()
	h.SQLiteOK = ok
	h.mu.Unlock()
}

// TouchCandle records the arrival time of the latest closed candle.
func (h *HealthStatus) TouchCandle() {
	h.mu.Lock()
	h.LastCandleTime = time.Now()
	h.mu.Unlock()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overall := "healthy"
	code := http.StatusOK
	if !h.WSConnected || !h.SQLiteOK {
		overall = "degraded"
		code = http.StatusServiceUnavailable
	}

	candleAge := ""
	if !h.LastCandleTime.IsZero() {
		candleAge = time.Since(h.LastCandleTime).Round(time.Millisecond).String()
	}

	status := struct {
		Status         string `json:"status"`
		Uptime         string `json:"uptime"`
		WSConnected    bool   `json:"ws_connected"`
		RedisConnected bool   `json:"redis_connected"`
		SQLiteOK       bool   `json:"sqlite_ok"`
		LastCandleAge  string `json:"last_candle_age"`
	}{
		Status:         overall,
		Uptime:         time.Since(h.StartedAt).Round(time.Second).String(),
		WSConnected:    h.WSConnected,
		RedisConnected: h.RedisConnected,
		SQLiteOK:       h.SQLiteOK,
		LastCandleAge:  candleAge,
	}

	w.Header().Set("Content-Type", "application/json")
	if code != http.StatusOK {
		w.WriteHeader(code)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: mux},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
