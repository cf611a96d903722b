package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"StockLens/internal/analyzer"
	"StockLens/internal/config"
	"StockLens/internal/model"
	"StockLens/internal/notifier"
	"StockLens/internal/pattern"
	"StockLens/internal/recorder"
	"StockLens/internal/scheduler"
	"StockLens/internal/source"
	"StockLens/internal/watchlist"

	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] StockLens starting...")

	// .env is optional; real env vars win either way.
	if err := godotenv.Load(); err == nil {
		log.Println("[INFO] loaded .env")
	}

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

	// Init data source
	var src source.DataSource
	if cfg.DataSource.Provider == "mock" {
		src = &source.MockSource{Price: 10}
	} else {
		src = source.NewEastmoneySource(cfg.DataSource.Proxy)
	}
	log.Printf("[INFO] data source: %s", src.Name())

	// Init analyzer
	an := analyzer.New(src, analyzerConfig(cfg))

	// Init watchlist store
	wl, err := watchlist.NewStore(cfg.Watchlist.File, cfg.Watchlist.Symbols)
	if err != nil {
		log.Fatalf("[FATAL] init watchlist: %v", err)
	}
	log.Printf("[INFO] watchlist: %d symbols", wl.Len())

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.DataSource.Proxy)

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

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, an, wl, tn, rec)
	if f := cfg.Analysis.PriceFilter; f.Min > 0 || f.Max > 0 {
		sched.Filter = &analyzer.PriceFilter{Min: f.Min, Max: f.Max}
		log.Printf("[INFO] price filter active: %.2f - %.2f", f.Min, f.Max)
	}
	if err := sched.RegisterAll(cfg.Schedule.ScanCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Println("[INFO] Telegram polling started")

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing scan now")
		go sched.RunScanNow()
	}

	log.Println("[INFO] StockLens is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] StockLens stopped")
}

// analyzerConfig maps the YAML knobs onto the engine config.
func analyzerConfig(cfg *config.Config) analyzer.Config {
	a := cfg.Analysis
	return analyzer.Config{
		MaxConcurrency: a.MaxConcurrency,
		WaveDelay:      a.BatchDelay(),
		ChunkSize:      a.ChunkSize,
		SeriesCount:    a.SeriesCount,
		Period:         model.Period(a.Period),
		Consolidation: pattern.ConsolidationConfig{
			Period:                a.Consolidation.Period,
			VolatilityThreshold:   a.Consolidation.VolatilityThreshold,
			MASpreadThreshold:     a.Consolidation.MASpreadThreshold,
			VolumeShrinkThreshold: a.Consolidation.VolumeShrinkThreshold,
			TrendPeriod:           a.Consolidation.TrendPeriod,
		},
		Surge: pattern.SurgeConfig{
			WindowSize:       a.Surge.WindowSize,
			MinChangePct:     a.Surge.MinChangePercent,
			MaxChangePct:     a.Surge.MaxChangePercent,
			MinVolumeRatio:   a.Surge.MinVolumeRatio,
			HeavyVolumeRatio: a.Surge.HeavyVolumeRatio,
			LookbackPeriod:   a.Surge.LookbackPeriod,
		},
	}
}
