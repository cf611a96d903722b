package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_FileEnvAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
telegram:
  bot_token: file-token
  chat_id: "123"
data_source:
  provider: mock
analysis:
  max_concurrency: 2
  consolidation:
    period: 15
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("MAX_CONCURRENCY", "6")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	// Env wins over file, file wins over defaults.
	if cfg.Telegram.BotToken != "env-token" {
		t.Errorf("bot token = %q, want env override", cfg.Telegram.BotToken)
	}
	if cfg.Analysis.MaxConcurrency != 6 {
		t.Errorf("max_concurrency = %d, want env override 6", cfg.Analysis.MaxConcurrency)
	}
	if cfg.Analysis.Consolidation.Period != 15 {
		t.Errorf("consolidation period = %d, want 15 from file", cfg.Analysis.Consolidation.Period)
	}
	if cfg.Analysis.BatchDelayMs != 1100 {
		t.Errorf("batch_delay_ms = %d, want default 1100", cfg.Analysis.BatchDelayMs)
	}
	if cfg.Analysis.Surge.MinVolumeRatio != 1.5 {
		t.Errorf("surge min volume ratio = %v, want default 1.5", cfg.Analysis.Surge.MinVolumeRatio)
	}
	if cfg.Schedule.ScanCron == "" {
		t.Error("scan cron default missing")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	t.Setenv("MAX_CONCURRENCY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataSource.Provider != "eastmoney" {
		t.Errorf("provider = %q, want eastmoney default", cfg.DataSource.Provider)
	}
	if cfg.Analysis.MaxConcurrency != 4 || cfg.Analysis.ChunkSize != 100 {
		t.Errorf("analysis defaults = %d/%d", cfg.Analysis.MaxConcurrency, cfg.Analysis.ChunkSize)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("config without telegram credentials must not validate")
	}
}

func TestValidate_Provider(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Telegram.BotToken = "t"
	cfg.Telegram.ChatID = "c"
	cfg.DataSource.Provider = "bloomberg"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown provider must be rejected")
	}
}
