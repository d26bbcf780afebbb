package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"StockForecast/internal/collector"
	"StockForecast/internal/config"
	"StockForecast/internal/dashboard"
	"StockForecast/internal/forecast"
	"StockForecast/internal/recorder"
	"StockForecast/internal/scheduler"
	"StockForecast/internal/server"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] StockForecast starting...")

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] .env not loaded: %v", err)
	}

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

	// Init fetcher
	var fetcher collector.Fetcher
	ds := cfg.DataSource
	switch ds.Provider {
	case config.ProviderREST:
		fetcher = collector.NewRESTFetcher(ds.BaseURL, ds.APIKey, cfg.Proxy, ds.RequestTimeout)
	case config.ProviderMock:
		fetcher = &collector.MockFetcher{}
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy, ds.RequestTimeout)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	retry := collector.RetryConfig{
		MaxRetries:     ds.MaxRetries,
		InitialBackoff: ds.InitialBackoff,
		MaxBackoff:     ds.MaxBackoff,
	}
	loader := collector.NewLoader(fetcher, cfg.App.Tickers, retry, ds.CacheTTL)

	order := forecast.Order{P: cfg.Model.Order.P, D: cfg.Model.Order.D, Q: cfg.Model.Order.Q}
	forecaster := forecast.NewForecaster(order, cfg.Model.FitTimeout)
	log.Printf("[INFO] model: %s, fit timeout %v", order, cfg.Model.FitTimeout)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	dash := dashboard.New(cfg, loader, forecaster, rec)

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, loader, cfg.Start)
	if err := sched.RegisterRefresh(cfg.Schedule.RefreshCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, pre-warming cache now")
		go sched.RunRefreshNow()
	}

	srv := server.New(dash, server.Options{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})
	go func() {
		log.Printf("[INFO] dashboard listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()

	log.Println("[INFO] StockForecast is running. Press Ctrl+C to stop.")
	<-ctx.Done()

	log.Println("[INFO] shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ERROR] http shutdown: %v", err)
	}
	log.Println("[INFO] StockForecast stopped")
}
