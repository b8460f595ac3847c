package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"trading-botv1/internal/model"
	"trading-botv1/internal/risk"
)

// REST fetches historical candles and reference rates from the exchange's
// public market-data API. No authentication is needed for these endpoints.
type REST struct {
	base   string
	client *http.Client

	mu      sync.Mutex
	rate    float64
	rateTS  time.Time
	rateTTL time.Duration
}

// NewREST creates a public market-data client rooted at base, e.g.
// "https://public.coindcx.com".
func NewREST(base string) *REST {
	return &REST{
		base:    strings.TrimRight(base, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		rateTTL: time.Minute,
	}
}

// Candles fetches up to limit historical candles for seeding, oldest first.
func (r *REST) Candles(ctx context.Context, pair, interval string, limit int) ([]model.Candle, error) {
	q := url.Values{}
	q.Set("pair", pair)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		r.base+"/market_data/candles?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch candles: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch candles: status %d", resp.StatusCode)
	}

	var raw []struct {
		Open   float64     `json:"open"`
		High   float64     `json:"high"`
		Low    float64     `json:"low"`
		Close  float64     `json:"close"`
		Volume float64     `json:"volume"`
		Time   json.Number `json:"time"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode candles: %w", err)
	}

	out := make([]model.Candle, 0, len(raw))
	for _, c := range raw {
		out = append(out, model.Candle{
			Pair:      pair,
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
			Timestamp: c.Time.String(),
			IsClosed:  true,
		})
	}
	// The API returns newest first; seeding wants oldest first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Rate returns INR per USDT from the public ticker, cached for a minute.
// It satisfies the budget sizer's rate source.
func (r *REST) Rate(ctx context.Context) (float64, error) {
	r.mu.Lock()
	if r.rate > 0 && time.Since(r.rateTS) <= r.rateTTL {
		rate := r.rate
		r.mu.Unlock()
		return rate, nil
	}
	r.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		r.base+"/market_data/ticker", nil)
	if err != nil {
		return 0, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", risk.ErrRateUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: ticker status %d", risk.ErrRateUnavailable, resp.StatusCode)
	}

	var tickers []struct {
		Market    string      `json:"market"`
		LastPrice json.Number `json:"last_price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tickers); err != nil {
		return 0, fmt.Errorf("%w: decode ticker: %v", risk.ErrRateUnavailable, err)
	}

	for _, t := range tickers {
		market := strings.ToUpper(strings.NewReplacer("/", "", "_", "").Replace(t.Market))
		if market != "USDTINR" {
			continue
		}
		rate, err := t.LastPrice.Float64()
		if err != nil || rate <= 0 {
			break
		}
		r.mu.Lock()
		r.rate, r.rateTS = rate, time.Now()
		r.mu.Unlock()
		return rate, nil
	}
	return 0, fmt.Errorf("%w: USDTINR market not in ticker", risk.ErrRateUnavailable)
}
