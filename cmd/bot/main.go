package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"trading-botv1/config"
	"trading-botv1/internal/engine"
	"trading-botv1/internal/feed"
	"trading-botv1/internal/logger"
	"trading-botv1/internal/metrics"
	"trading-botv1/internal/paper"
	redisstore "trading-botv1/internal/store/redis"
	sqlitestore "trading-botv1/internal/store/sqlite"
	"trading-botv1/internal/strategy"
)

const equitySnapshotInterval = 15 * time.Minute

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[bot] starting...")

	cfg := config.Load()
	slogger := logger.Init("bot", logger.ParseLevel(cfg.LogLevel))

	pairs := cfg.ParsePairs()
	if len(pairs) == 0 {
		log.Fatal("[bot] no trading pairs configured")
	}
	mode := engine.Mode(cfg.TradingMode)
	if mode != engine.ModePaper && mode != engine.ModeReal {
		log.Fatalf("[bot] invalid TRADING_MODE %q", cfg.TradingMode)
	}

	// ---- Metrics & health ----
	prom := metrics.NewMetrics(nil)
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- SQLite store ----
	os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755)
	store, err := sqlitestore.New(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[bot] sqlite init failed: %v", err)
	}
	defer store.Close()
	health.SetSQLite(true)

	if err := store.SetTradingMode(ctx, string(mode)); err != nil {
		log.Printf("[bot] WARNING: persisting trading mode failed: %v", err)
	}

	// ---- Redis publisher (optional) ----
	var pub *redisstore.Publisher
	if cfg.RedisEnabled {
		pub, err = redisstore.New(redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Printf("[bot] WARNING: redis init failed: %v (continuing without redis)", err)
		} else {
			defer pub.Close()
			health.SetRedis(true)
		}
	}

	// ---- Paper wallet & executor ----
	balance := cfg.StartBalance
	if persisted, ok, err := store.WalletBalance(ctx); err != nil {
		log.Fatalf("[bot] wallet load failed: %v", err)
	} else if ok {
		balance = persisted
		log.Printf("[bot] restored wallet balance %.4f", balance)
	}
	wallet := paper.NewWallet(balance)
	prom.WalletBalance.Set(wallet.Balance())

	exec := paper.NewEngine(wallet, store, cfg.TakerFeeRate)
	openPositions, err := store.OpenPositions(ctx, "")
	if err != nil {
		log.Fatalf("[bot] open position restore failed: %v", err)
	}
	exec.Restore(openPositions)
	log.Printf("[bot] restored %d open paper positions", len(openPositions))

	// ---- Strategy registry ----
	registry := strategy.NewRegistry()
	simple, err := strategy.NewSimpleEMA(strategy.DefaultSimpleEMAConfig())
	if err != nil {
		log.Fatalf("[bot] simple_ema init failed: %v", err)
	}
	trend, err := strategy.NewTrendMomentum(strategy.DefaultTrendMomentumConfig())
	if err != nil {
		log.Fatalf("[bot] trend_momentum init failed: %v", err)
	}
	for _, s := range []strategy.Strategy{simple, trend} {
		if err := registry.Register(s); err != nil {
			log.Fatalf("[bot] register %s failed: %v", s.Name(), err)
		}
	}
	if err := registry.SetActive(cfg.Strategy); err != nil {
		log.Fatalf("[bot] activate strategy: %v (registered: %v)", err, registry.Names())
	}
	log.Printf("[bot] active strategy: %s", registry.ActiveName())

	// ---- Feed, REST seeding, per-pair engines ----
	rest := feed.NewREST(cfg.RESTBase)
	client := feed.New(feed.Config{
		URL:      cfg.WSURL,
		Pairs:    pairs,
		Interval: cfg.Interval,
	})
	client.OnReconnect = prom.WSReconnects.Inc
	client.OnConnected = health.SetWS

	var pubIface engine.Publisher
	if pub != nil {
		pubIface = pub
	}
	for _, pair := range pairs {
		eng := engine.New(pair, mode, registry, exec, engine.Options{
			Publisher: pubIface,
			Events:    store,
			Metrics:   prom,
			Logger:    slogger,
			Rates:     rest,
		})

		seedCtx, cancelSeed := context.WithTimeout(ctx, 30*time.Second)
		seeded, err := rest.Candles(seedCtx, pair, cfg.Interval, cfg.SeedLimit)
		cancelSeed()
		if err != nil {
			log.Printf("[bot] WARNING: seeding %s failed: %v (warming up from live feed)", pair, err)
		} else {
			eng.Seed(seeded)
			log.Printf("[bot] seeded %d candles for %s", len(seeded), pair)
		}

		go eng.Run(ctx, client.Candles(pair))
	}
	go client.Run(ctx)

	// ---- Equity snapshot loop ----
	go func() {
		ticker := time.NewTicker(equitySnapshotInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b := wallet.Balance()
				if err := store.SnapshotEquity(ctx, b); err != nil {
					log.Printf("[bot] equity snapshot failed: %v", err)
				}
				prom.WalletBalance.Set(b)
				if pub != nil {
					if err := pub.PublishEquity(ctx, b); err != nil {
						log.Printf("[bot] equity publish failed: %v", err)
					}
				}
			}
		}
	}()

	slogger.Info("bot running",
		"mode", string(mode),
		"pairs", pairs,
		"interval", cfg.Interval,
		"strategy", registry.ActiveName())

	<-sigCh
	log.Println("[bot] shutting down...")
	cancel()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	metricsSrv.Stop(shutdownCtx)

	if err := store.SetWalletBalance(shutdownCtx, wallet.Balance()); err != nil {
		log.Printf("[bot] final wallet persist failed: %v", err)
	}
	log.Println("[bot] stopped")
}
