package model

import "testing"

func candleAt(ts string, close float64) Candle {
	return Candle{
		Pair: "B-BTC_USDT", Open: close, High: close + 1, Low: close - 1,
		Close: close, Volume: 10, Timestamp: ts, IsClosed: true,
	}
}

// ────────────────────────────────────────────────────────────────────────────

func TestWindow_SameTimestampMutatesTail(t *testing.T) {
	w := NewWindow(5)
	if appended := w.Update(candleAt("t1", 100)); !appended {
		t.Fatal("first candle should append")
	}

	refresh := candleAt("t1", 101)
	refresh.IsClosed = false
	if appended := w.Update(refresh); appended {
		t.Error("same-timestamp update reported as a new bucket")
	}
	if got := w.Len(); got != 1 {
		t.Fatalf("window length: got %d, want 1", got)
	}
	if got := w.Candles()[0].Close; got != 101 {
		t.Errorf("tail close after refresh: got %.1f, want 101", got)
	}
}

func TestWindow_EvictsOldestOnOverflow(t *testing.T) {
	w := NewWindow(3)
	for _, ts := range []string{"t1", "t2", "t3", "t4"} {
		w.Update(candleAt(ts, 100))
	}
	if got := w.Len(); got != 3 {
		t.Fatalf("window length: got %d, want 3", got)
	}
	if got := w.Candles()[0].Timestamp; got != "t2" {
		t.Errorf("oldest after eviction: got %s, want t2", got)
	}
	if got := w.Candles()[2].Timestamp; got != "t4" {
		t.Errorf("newest after eviction: got %s, want t4", got)
	}
}

func TestWindow_MinimumCapacityIsOne(t *testing.T) {
	w := NewWindow(0)
	w.Update(candleAt("t1", 100))
	w.Update(candleAt("t2", 101))
	if got := w.Len(); got != 1 {
		t.Fatalf("window length: got %d, want 1", got)
	}
	if got := w.Candles()[0].Timestamp; got != "t2" {
		t.Errorf("kept candle: got %s, want t2", got)
	}
}

func TestClosesAndVolumes(t *testing.T) {
	candles := []Candle{candleAt("t1", 100), candleAt("t2", 102)}
	closes := Closes(candles)
	if len(closes) != 2 || closes[0] != 100 || closes[1] != 102 {
		t.Errorf("closes: got %v", closes)
	}
	vols := Volumes(candles)
	if len(vols) != 2 || vols[0] != 10 || vols[1] != 10 {
		t.Errorf("volumes: got %v", vols)
	}
}

// ────────────────────────────────────────────────────────────────────────────

func TestSignalResult_Actionable(t *testing.T) {
	if !(SignalResult{Signal: SignalLong}).Actionable() {
		t.Error("LONG should be actionable")
	}
	if !(SignalResult{Signal: SignalShort}).Actionable() {
		t.Error("SHORT should be actionable")
	}
	if NoSignal("insufficient data").Actionable() {
		t.Error("NONE should not be actionable")
	}
}

func TestSideFor(t *testing.T) {
	if got := SideFor(SignalLong); got != SideLong {
		t.Errorf("SideFor(LONG) = %s", got)
	}
	if got := SideFor(SignalShort); got != SideShort {
		t.Errorf("SideFor(SHORT) = %s", got)
	}
}

// ────────────────────────────────────────────────────────────────────────────

func validConfig() StrategyConfig {
	return StrategyConfig{
		Pair: "B-BTC_USDT", Interval: "5m",
		Leverage: 10, Quantity: 0.01,
		TakeProfitPct: 0.02, StopLossPct: 0.01,
		MaxOpenTrades: 1, ConfidenceThreshold: 70,
		EMAFast: 9, EMASlow: 21,
		RSIPeriod: 14, RSIOverbought: 70, RSIOversold: 30,
		ATRPeriod: 14, MACDFast: 12, MACDSlow: 26, MACDSignal: 9,
		VolumePeriod: 20, LowVolatilityPct: 0.5, HighVolatilityPct: 2.0,
	}
}

func TestStrategyConfig_Validate(t *testing.T) {
	if err := func() error { c := validConfig(); return c.Validate() }(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*StrategyConfig)
	}{
		{"empty pair", func(c *StrategyConfig) { c.Pair = "" }},
		{"zero leverage", func(c *StrategyConfig) { c.Leverage = 0 }},
		{"zero quantity", func(c *StrategyConfig) { c.Quantity = 0 }},
		{"zero tp pct", func(c *StrategyConfig) { c.TakeProfitPct = 0 }},
		{"fast ema above slow", func(c *StrategyConfig) { c.EMAFast = 30 }},
		{"zero rsi period", func(c *StrategyConfig) { c.RSIPeriod = 0 }},
		{"inverted rsi bounds", func(c *StrategyConfig) { c.RSIOverbought = 20 }},
		{"threshold above 100", func(c *StrategyConfig) { c.ConfidenceThreshold = 101 }},
		{"zero max open trades", func(c *StrategyConfig) { c.MaxOpenTrades = 0 }},
		{"inverted volatility band", func(c *StrategyConfig) { c.HighVolatilityPct = 0.1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestStrategyConfig_Lookback(t *testing.T) {
	cfg := validConfig()
	if got := cfg.Lookback(); got != 26 {
		t.Errorf("lookback without MACD confirm: got %d, want 26", got)
	}

	cfg.RequireMACDConfirm = true
	if got := cfg.Lookback(); got != 35 {
		t.Errorf("lookback with MACD confirm: got %d, want 35", got)
	}

	// MACD confirm never shortens the lookback below the EMA requirement.
	cfg.MACDSlow, cfg.MACDSignal = 5, 3
	if got := cfg.Lookback(); got != 26 {
		t.Errorf("lookback with small MACD: got %d, want 26", got)
	}
}
