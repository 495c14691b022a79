package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"StockLens/internal/auth"
	"StockLens/internal/config"
	"StockLens/internal/handler"
	"StockLens/internal/logger"
	"StockLens/internal/profile"
	"StockLens/internal/provider"
	"StockLens/internal/router"
	"StockLens/internal/scheduler"
	"StockLens/internal/screener"
	"StockLens/internal/session"
	"StockLens/internal/watchlist"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	lg, err := logger.New(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		log.Fatalf("[FATAL] init logger: %v", err)
	}
	defer lg.Sync()
	lg.Info("StockLens starting")

	// Init market data
	primary := newProvider(cfg)
	synth := provider.NewSynthesizer(cfg.DataSource.Seed, provider.FallbackMode(cfg.DataSource.FallbackMode))
	svc := provider.NewService(primary, synth, lg.Named("provider"))
	lg.Infow("data source ready", "provider", svc.Name(), "fallback_mode", synth.Mode())

	// Init profile store
	var profiles profile.Store
	if cfg.Database.SQLitePath != "" {
		ss, err := profile.NewSQLiteStore(cfg.Database.SQLitePath, lg.Named("profile"))
		if err != nil {
			lg.Warnw("init sqlite profile store failed, using noop", "error", err)
			profiles = profile.NewNoopStore()
		} else {
			profiles = ss
		}
	} else {
		profiles = profile.NewNoopStore()
	}
	defer profiles.Close()

	accounts := auth.NewAccounts(newIdentityProvider(cfg), profiles, lg.Named("auth"))
	defer accounts.Close()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init session and its refresh timer
	store := session.NewStore(svc, session.Options{
		Watchlist:     cfg.Session.Watchlist,
		HistorySymbol: cfg.Session.HistorySymbol,
	}, lg.Named("session"))
	sched := scheduler.NewScheduler(ctx, store, lg.Named("scheduler"))
	if err := sched.Register(cfg.Session.RefreshInterval); err != nil {
		lg.Fatalw("register refresh task", "error", err)
	}
	go sched.Start()

	gin.SetMode(cfg.Server.GinMode)
	engine := router.NewRouter(&router.Config{
		MarketHandler:    handler.NewMarketHandler(svc),
		DashboardHandler: handler.NewDashboardHandler(store),
		ScreenerHandler:  handler.NewScreenerHandler(screener.NewEngine(svc, nil, lg.Named("screener"))),
		WatchlistHandler: handler.NewWatchlistHandler(watchlist.NewManager(svc, lg.Named("watchlist"))),
		AuthHandler:      handler.NewAuthHandler(accounts),
		Logger:           lg.Named("http"),
	})
	server := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Errorw("http server error", "error", err)
			cancel()
		}
	}()
	lg.Infow("StockLens is running", "addr", cfg.Server.ListenAddr)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		lg.Info("shutdown signal received, stopping...")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := server.Shutdown(shutdownCtx); err != nil {
		lg.Errorw("http shutdown", "error", err)
	}
	sched.Stop()
	lg.Info("StockLens stopped")
}

func newProvider(cfg *config.Config) provider.Provider {
	opts := provider.ProxyOptions{
		BaseURL:       cfg.DataSource.BaseURL,
		Timeout:       cfg.DataSource.RequestTimeout,
		RatePerSecond: cfg.DataSource.RatePerSecond,
		Burst:         cfg.DataSource.Burst,
		OutboundProxy: cfg.Proxy,
	}
	switch cfg.DataSource.Mode {
	case config.SourceSimulated:
		return provider.NewSimulatedProvider(cfg.DataSource.Seed)
	case config.SourceYahoo:
		opts.BaseURL = ""
		return provider.NewYahooProvider(opts)
	default:
		return provider.NewProxyProvider(opts)
	}
}

func newIdentityProvider(cfg *config.Config) auth.IdentityProvider {
	switch cfg.Auth.Provider {
	case config.AuthMemory:
		return auth.NewMemoryProvider()
	default:
		log.Fatalf("[FATAL] unsupported auth provider %q", cfg.Auth.Provider)
		return nil
	}
}
