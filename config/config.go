// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Infrastructure
	RedisAddr     string
	RedisPassword string
	RedisEnabled  bool
	SQLitePath    string
	MetricsAddr   string
	LogLevel      string

	// Exchange endpoints
	WSURL      string
	RESTBase   string
	SeedLimit  int

	// Trading
	Pairs        string // comma-separated, e.g. "B-BTC_USDT,B-ETH_USDT"
	Interval     string
	TradingMode  string // PAPER or REAL
	Strategy     string // active strategy name
	StartBalance float64
	TakerFeeRate float64
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisEnabled:  getBool("REDIS_ENABLED", true),
		SQLitePath:    getEnv("SQLITE_PATH", "data/bot.db"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9091"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		WSURL:     getEnv("WS_URL", "wss://stream.coindcx.com"),
		RESTBase:  getEnv("REST_BASE", "https://public.coindcx.com"),
		SeedLimit: getInt("SEED_LIMIT", 200),

		Pairs:        getEnv("PAIRS", "B-BTC_USDT"),
		Interval:     getEnv("INTERVAL", "5m"),
		TradingMode:  getEnv("TRADING_MODE", "PAPER"),
		Strategy:     getEnv("STRATEGY", "trend_momentum"),
		StartBalance: getFloat("PAPER_START_BALANCE", 10000),
		TakerFeeRate: getFloat("TAKER_FEE_RATE", 0.0005),
	}
}

// ParsePairs splits the Pairs string into a clean slice.
func (c *Config) ParsePairs() []string {
	parts := strings.Split(c.Pairs, ",")
	pairs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		pairs = append(pairs, p)
	}
	return pairs
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %f", key, v, fallback)
		return fallback
	}
	return f
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return b
}
