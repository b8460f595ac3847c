package feed

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"trading-botv1/internal/risk"
)

func TestParseCandle_NumericFields(t *testing.T) {
	raw := []byte(`{"channel":"candlestick@B-BTC_USDT@5m",
		"data":{"pair":"B-BTC_USDT","o":100.5,"h":101,"l":99.5,"c":100.8,"v":12.25,"t":1700000000,"x":true}}`)

	c, ok := parseCandle(raw)
	if !ok {
		t.Fatal("valid candle not parsed")
	}
	if c.Pair != "B-BTC_USDT" || !c.IsClosed {
		t.Errorf("candle: %+v", c)
	}
	if math.Abs(c.Open-100.5) > 1e-9 || math.Abs(c.Volume-12.25) > 1e-9 {
		t.Errorf("numeric fields: %+v", c)
	}
	if c.Timestamp != "1700000000" {
		t.Errorf("timestamp: got %q", c.Timestamp)
	}
}

func TestParseCandle_StringNumbers(t *testing.T) {
	// Some feed versions quote the numeric fields.
	raw := []byte(`{"channel":"candlestick@B-ETH_USDT@5m",
		"data":{"o":"200.1","h":"201","l":"199","c":"200.5","v":"3.5","t":"1700000060","x":false}}`)

	c, ok := parseCandle(raw)
	if !ok {
		t.Fatal("string-numbered candle not parsed")
	}
	// Pair falls back to the channel name when missing from the payload.
	if c.Pair != "B-ETH_USDT" {
		t.Errorf("pair from channel: got %q", c.Pair)
	}
	if math.Abs(c.Close-200.5) > 1e-9 {
		t.Errorf("close: got %f", c.Close)
	}
	if c.IsClosed {
		t.Error("forming candle flagged as closed")
	}
}

func TestParseCandle_IgnoresNonCandleMessages(t *testing.T) {
	for _, raw := range []string{
		`{"event":"subscribed","channelName":"candlestick@B-BTC_USDT@5m"}`,
		`{"channel":"ltp@futures@B-BTC_USDT","data":{"price":"100"}}`,
		`not json at all`,
	} {
		if _, ok := parseCandle([]byte(raw)); ok {
			t.Errorf("message parsed as candle: %s", raw)
		}
	}
}

func TestPairFromChannel(t *testing.T) {
	if got := pairFromChannel("candlestick@B-BTC_USDT@5m"); got != "B-BTC_USDT" {
		t.Errorf("got %q", got)
	}
	if got := pairFromChannel("ltp@futures@B-BTC_USDT"); got != "" {
		t.Errorf("non-candlestick channel: got %q", got)
	}
}

func TestREST_CandlesSeedOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/market_data/candles" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("pair"); got != "B-BTC_USDT" {
			t.Errorf("pair param: %q", got)
		}
		// Newest first, as the exchange returns them.
		json.NewEncoder(w).Encode([]map[string]any{
			{"open": 101, "high": 102, "low": 100, "close": 101.5, "volume": 5, "time": 1700000300},
			{"open": 100, "high": 101, "low": 99, "close": 101, "volume": 4, "time": 1700000000},
		})
	}))
	defer srv.Close()

	candles, err := NewREST(srv.URL).Candles(context.Background(), "B-BTC_USDT", "5m", 2)
	if err != nil {
		t.Fatalf("candles: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("got %d candles, want 2", len(candles))
	}
	if candles[0].Timestamp != "1700000000" || candles[1].Timestamp != "1700000300" {
		t.Errorf("seed order not oldest-first: %s, %s", candles[0].Timestamp, candles[1].Timestamp)
	}
	if !candles[0].IsClosed {
		t.Error("seeded candles must be closed")
	}
}

func TestREST_RateFindsUSDTINR(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode([]map[string]any{
			{"market": "BTCUSDT", "last_price": "65000"},
			{"market": "USDT_INR", "last_price": "84.5"},
		})
	}))
	defer srv.Close()

	rest := NewREST(srv.URL)
	rate, err := rest.Rate(context.Background())
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if math.Abs(rate-84.5) > 1e-9 {
		t.Errorf("rate: got %f, want 84.5", rate)
	}

	// Second lookup inside the TTL hits the cache.
	if _, err := rest.Rate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("ticker fetched %d times, want 1 (cached)", calls)
	}
}

func TestREST_RateUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"market": "BTCUSDT", "last_price": "65000"},
		})
	}))
	defer srv.Close()

	_, err := NewREST(srv.URL).Rate(context.Background())
	if !errors.Is(err, risk.ErrRateUnavailable) {
		t.Fatalf("got %v, want ErrRateUnavailable", err)
	}
}
