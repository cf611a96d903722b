package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider string `yaml:"provider"` // "eastmoney" or "mock"
		Proxy    string `yaml:"proxy"`
	} `yaml:"data_source"`
	Watchlist struct {
		File    string   `yaml:"file"`
		Symbols []string `yaml:"symbols"` // seeds the file on first run
	} `yaml:"watchlist"`
	Schedule struct {
		ScanCron string `yaml:"scan_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Analysis Analysis `yaml:"analysis"`
}

// Analysis holds the engine knobs. All caller-overridable.
type Analysis struct {
	MaxConcurrency int    `yaml:"max_concurrency"`
	BatchDelayMs   int    `yaml:"batch_delay_ms"`
	ChunkSize      int    `yaml:"chunk_size"`
	SeriesCount    int    `yaml:"series_count"`
	Period         string `yaml:"period"` // intraday/day/week/month/year

	Consolidation struct {
		Period                int     `yaml:"period"`
		VolatilityThreshold   float64 `yaml:"volatility_threshold"`
		MASpreadThreshold     float64 `yaml:"ma_spread_threshold"`
		VolumeShrinkThreshold float64 `yaml:"volume_shrink_threshold"`
		TrendPeriod           int     `yaml:"trend_period"`
	} `yaml:"consolidation"`

	Surge struct {
		WindowSize       int     `yaml:"window_size"`
		MinChangePercent float64 `yaml:"min_change_percent"`
		MaxChangePercent float64 `yaml:"max_change_percent"`
		MinVolumeRatio   float64 `yaml:"min_volume_ratio"`
		HeavyVolumeRatio float64 `yaml:"heavy_volume_ratio"`
		LookbackPeriod   int     `yaml:"lookback_period"`
	} `yaml:"surge"`

	PriceFilter struct {
		Min float64 `yaml:"min"`
		Max float64 `yaml:"max"`
	} `yaml:"price_filter"`
}

// BatchDelay returns the inter-wave delay as a duration.
func (a *Analysis) BatchDelay() time.Duration {
	return time.Duration(a.BatchDelayMs) * time.Millisecond
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.DataSource.Proxy = v
	}
	if v := os.Getenv("WATCHLIST_FILE"); v != "" {
		cfg.Watchlist.File = v
	}
	if v := os.Getenv("SCAN_CRON"); v != "" {
		cfg.Schedule.ScanCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("MAX_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.MaxConcurrency = n
		}
	}
	if v := os.Getenv("BATCH_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.BatchDelayMs = n
		}
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "eastmoney"
	}
	if cfg.Watchlist.File == "" {
		cfg.Watchlist.File = "data/watchlist.json"
	}
	if cfg.Schedule.ScanCron == "" {
		cfg.Schedule.ScanCron = "0 30 15 * * 1-5" // after market close
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/stocklens.db"
	}

	a := &cfg.Analysis
	if a.MaxConcurrency == 0 {
		a.MaxConcurrency = 4
	}
	if a.BatchDelayMs == 0 {
		a.BatchDelayMs = 1100
	}
	if a.ChunkSize == 0 {
		a.ChunkSize = 100
	}
	if a.SeriesCount == 0 {
		a.SeriesCount = 120
	}
	if a.Period == "" {
		a.Period = "day"
	}
	if a.Consolidation.Period == 0 {
		a.Consolidation.Period = 10
	}
	if a.Consolidation.VolatilityThreshold == 0 {
		a.Consolidation.VolatilityThreshold = 5
	}
	if a.Consolidation.MASpreadThreshold == 0 {
		a.Consolidation.MASpreadThreshold = 3
	}
	if a.Consolidation.VolumeShrinkThreshold == 0 {
		a.Consolidation.VolumeShrinkThreshold = 0.8
	}
	if a.Consolidation.TrendPeriod == 0 {
		a.Consolidation.TrendPeriod = 20
	}
	if a.Surge.WindowSize == 0 {
		a.Surge.WindowSize = 10
	}
	if a.Surge.MinChangePercent == 0 {
		a.Surge.MinChangePercent = 5
	}
	if a.Surge.MaxChangePercent == 0 {
		a.Surge.MaxChangePercent = 10
	}
	if a.Surge.MinVolumeRatio == 0 {
		a.Surge.MinVolumeRatio = 1.5
	}
	if a.Surge.HeavyVolumeRatio == 0 {
		a.Surge.HeavyVolumeRatio = 2
	}
	if a.Surge.LookbackPeriod == 0 {
		a.Surge.LookbackPeriod = 30
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if c.Analysis.MaxConcurrency < 1 {
		return fmt.Errorf("analysis.max_concurrency must be positive")
	}
	if c.Analysis.ChunkSize < 1 {
		return fmt.Errorf("analysis.chunk_size must be positive")
	}
	switch c.DataSource.Provider {
	case "eastmoney", "mock":
	default:
		return fmt.Errorf("data_source.provider must be eastmoney or mock")
	}
	return nil
}
