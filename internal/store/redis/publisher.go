// Package redis publishes bot events to Redis for dashboards and other
// downstream consumers.
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"trading-botv1/internal/model"
)

const (
	// Stream trimming: a day of 5m signals leaves plenty of headroom.
	signalStreamMaxLen = 2000
	tradeStreamMaxLen  = 2000
	defaultLatestTTL   = 30 * time.Minute
)

// Config configures the Redis publisher.
type Config struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int
}

// Publisher writes signal and trade events to Redis Streams, keeps a
// "latest" key per pair, and fans out over PubSub.
type Publisher struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// New creates a Publisher and pings the server.
func New(cfg Config) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Publisher{client: client}, nil
}

// PublishSignal writes one evaluation result: XADD to the pair's signal
// stream, SET the latest key, and PUBLISH for live subscribers, all in a
// single pipeline roundtrip.
func (p *Publisher) PublishSignal(ctx context.Context, pair string, res model.SignalResult) error {
	data := string(res.JSON())

	pipe := p.client.Pipeline()
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: "bot:signals:" + pair,
		MaxLen: signalStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"data": data},
	})
	pipe.Set(ctx, "bot:signal:latest:"+pair, data, defaultLatestTTL)
	pipe.Publish(ctx, "pub:bot:signal:"+pair, data)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis publish signal: %w", err)
	}
	return nil
}

// PublishTrade writes one settled paper trade the same way.
func (p *Publisher) PublishTrade(ctx context.Context, trade model.PaperTrade) error {
	data := string(trade.JSON())

	pipe := p.client.Pipeline()
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: "bot:trades:" + trade.Pair,
		MaxLen: tradeStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"data": data},
	})
	pipe.Set(ctx, "bot:trade:latest:"+trade.Pair, data, defaultLatestTTL)
	pipe.Publish(ctx, "pub:bot:trade:"+trade.Pair, data)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis publish trade: %w", err)
	}
	return nil
}

// PublishEquity records the wallet balance for live equity dashboards.
func (p *Publisher) PublishEquity(ctx context.Context, balance float64) error {
	data := fmt.Sprintf(`{"balance":%.8f,"ts":%d}`, balance, time.Now().Unix())

	pipe := p.client.Pipeline()
	pipe.Set(ctx, "bot:equity:latest", data, 0)
	pipe.Publish(ctx, "pub:bot:equity", data)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis publish equity: %w", err)
	}
	return nil
}

// Close closes the client.
func (p *Publisher) Close() error { return p.client.Close() }
