package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != ":3000" || cfg.DailyLossLimit != 200 || cfg.ExitInterval != 5*time.Second {
		t.Errorf("defaults = %+v", cfg)
	}
	if !cfg.ServerRiskGuard || cfg.NewsCacheTTL != 30*time.Second {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoadFile_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dt.yaml")
	yml := "http_addr: \":4000\"\nexit_strategy: bands\nexit_interval: 2s\ndaily_loss_limit: 150\nsymbol: ETHUSD\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SYMBOL", "BTCUSD")
	t.Setenv("DAILY_RESET_AUTO", "true")
	t.Setenv("JOURNAL_PATH", "")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != ":4000" || cfg.ExitStrategy != "bands" || cfg.ExitInterval != 2*time.Second || cfg.DailyLossLimit != 150 {
		t.Errorf("yaml not applied: %+v", cfg)
	}
	if cfg.Symbol != "BTCUSD" || !cfg.DailyResetAuto {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.JournalPath != "" {
		t.Errorf("explicit empty JOURNAL_PATH should disable the journal, got %q", cfg.JournalPath)
	}
}

func TestLoadFile_InvalidEnvKeepsFallback(t *testing.T) {
	t.Setenv("MOMENTUM_WINDOW", "lots")
	cfg, err := LoadFile("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MomentumWindow != 12 {
		t.Errorf("momentum window = %d", cfg.MomentumWindow)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"exit strategy", func(c *Config) { c.ExitStrategy = "yolo" }},
		{"loss limit", func(c *Config) { c.DailyLossLimit = 0 }},
		{"rsi period", func(c *Config) { c.RSIPeriod = 0 }},
		{"momentum window", func(c *Config) { c.MomentumWindow = 2 }},
		{"interval", func(c *Config) { c.SampleInterval = 0 }},
		{"telegram pair", func(c *Config) { c.TelegramBotToken = "t" }},
	}
	for _, tt := range tests {
		cfg := Defaults()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}
