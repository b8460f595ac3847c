// Package feed streams candles from the exchange WebSocket and fans them
// out to per-pair channels.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"trading-botv1/internal/model"
)

const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 60 * time.Second
	pingInterval   = 30 * time.Second
	readTimeout    = 90 * time.Second
)

// Config configures the feed client.
type Config struct {
	URL        string
	Pairs      []string
	Interval   string
	BufferSize int // per-pair channel buffer, default 64
}

// Client maintains a WebSocket subscription to the candlestick channels of
// all configured pairs, reconnecting with exponential backoff.
type Client struct {
	cfg  Config
	outs map[string]chan model.Candle

	// Optional hooks for metrics and health.
	OnReconnect func()
	OnConnected func(bool)
}

// New creates a feed client for the given pairs.
func New(cfg Config) *Client {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}
	outs := make(map[string]chan model.Candle, len(cfg.Pairs))
	for _, pair := range cfg.Pairs {
		outs[pair] = make(chan model.Candle, cfg.BufferSize)
	}
	return &Client{cfg: cfg, outs: outs}
}

// Candles returns the channel carrying one pair's stream. It is closed
// when Run returns.
func (c *Client) Candles(pair string) <-chan model.Candle {
	return c.outs[pair]
}

// Run connects and streams until ctx is cancelled. Dropped connections are
// re-dialed with exponential backoff; subscriptions are replayed on every
// reconnect.
func (c *Client) Run(ctx context.Context) {
	defer func() {
		for _, ch := range c.outs {
			close(ch)
		}
	}()

	backoff := initialBackoff
	for {
		if ctx.Err() != nil {
			return
		}

		err := c.runConn(ctx)
		if c.OnConnected != nil {
			c.OnConnected(false)
		}
		if ctx.Err() != nil {
			return
		}
		log.Printf("[feed] connection lost: %v, retrying in %s", err, backoff)
		if c.OnReconnect != nil {
			c.OnReconnect()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// runConn dials, subscribes, and pumps messages until the connection dies.
func (c *Client) runConn(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, c.cfg.URL, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}
	defer conn.Close()

	log.Printf("[feed] connected to %s", c.cfg.URL)
	if c.OnConnected != nil {
		c.OnConnected(true)
	}

	for _, pair := range c.cfg.Pairs {
		sub := map[string]string{
			"event":       "join",
			"channelName": "candlestick@" + pair + "@" + c.cfg.Interval,
		}
		if err := conn.WriteJSON(sub); err != nil {
			return fmt.Errorf("subscribe %s: %w", pair, err)
		}
	}

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	// Close the connection when ctx is cancelled so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				conn.Close()
				return
			case <-done:
				return
			case <-ticker.C:
				conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		candle, ok := parseCandle(raw)
		if !ok {
			continue
		}
		out, known := c.outs[candle.Pair]
		if !known {
			continue
		}
		select {
		case out <- candle:
		default:
			log.Printf("[feed] %s channel full, dropping candle", candle.Pair)
		}
	}
}

// wireMessage is the exchange's candlestick event envelope.
type wireMessage struct {
	Channel string     `json:"channel"`
	Data    wireCandle `json:"data"`
}

// wireCandle carries OHLCV in the exchange's terse field names. Numbers
// arrive either as JSON numbers or as quoted strings depending on feed
// version, so everything decodes through json.Number.
type wireCandle struct {
	Pair     string      `json:"pair"`
	Open     json.Number `json:"o"`
	High     json.Number `json:"h"`
	Low      json.Number `json:"l"`
	Close    json.Number `json:"c"`
	Volume   json.Number `json:"v"`
	Time     json.Number `json:"t"`
	IsClosed bool        `json:"x"`
}

// parseCandle normalizes one raw message. Non-candle messages (acks,
// heartbeats) report ok=false.
func parseCandle(raw []byte) (model.Candle, bool) {
	var msg wireMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("[feed] parse error: %v", err)
		return model.Candle{}, false
	}

	pair := msg.Data.Pair
	if pair == "" {
		pair = pairFromChannel(msg.Channel)
	}
	if pair == "" || msg.Data.Time.String() == "" {
		return model.Candle{}, false
	}

	return model.Candle{
		Pair:      pair,
		Open:      num(msg.Data.Open),
		High:      num(msg.Data.High),
		Low:       num(msg.Data.Low),
		Close:     num(msg.Data.Close),
		Volume:    num(msg.Data.Volume),
		Timestamp: msg.Data.Time.String(),
		IsClosed:  msg.Data.IsClosed,
	}, true
}

// pairFromChannel extracts the pair from "candlestick@PAIR@interval".
func pairFromChannel(channel string) string {
	parts := strings.Split(channel, "@")
	if len(parts) != 3 || parts[0] != "candlestick" {
		return ""
	}
	return parts[1]
}

func num(n json.Number) float64 {
	f, _ := n.Float64()
	return f
}
