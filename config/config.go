// Package config loads settings for the signal server, the overlay agent
// and the CLI. Defaults are overlaid by an optional YAML file (CONFIG_FILE)
// and then by environment variables.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Signal server
	HTTPAddr            string        `yaml:"http_addr"`
	AccountFile         string        `yaml:"account_file"`
	AccountDSN          string        `yaml:"account_dsn"` // postgres; overrides AccountFile
	AccountID           string        `yaml:"account_id"`
	JournalPath         string        `yaml:"journal_path"` // empty disables
	ExitStrategy        string        `yaml:"exit_strategy"`
	ExitInterval        time.Duration `yaml:"exit_interval"`
	QuoteURL            string        `yaml:"quote_url"`
	DailyLossLimit      float64       `yaml:"daily_loss_limit"`
	DailyResetAuto      bool          `yaml:"daily_reset_auto"`
	Timezone            string        `yaml:"timezone"`
	ServerRiskGuard     bool          `yaml:"server_risk_guard"`
	LiquidateTOTPSecret string        `yaml:"liquidate_totp_secret"`
	HTTPTimeout         time.Duration `yaml:"http_timeout"`

	// News
	NewsFeedURL  string        `yaml:"news_feed_url"`
	NewsCacheTTL time.Duration `yaml:"news_cache_ttl"`

	// Infrastructure
	RedisAddr     string `yaml:"redis_addr"` // empty disables the shared cache and relay
	RedisPassword string `yaml:"redis_password"`
	MetricsAddr   string `yaml:"metrics_addr"`
	LogLevel      string `yaml:"log_level"`

	// Notifications
	WebhookURL       string `yaml:"webhook_url"`
	TelegramBotToken string `yaml:"telegram_bot_token"`
	TelegramChatID   string `yaml:"telegram_chat_id"`

	// Overlay agent
	ServerURL      string        `yaml:"server_url"`
	PriceURL       string        `yaml:"price_url"`
	Symbol         string        `yaml:"symbol"`
	SampleInterval time.Duration `yaml:"sample_interval"`
	MoodInterval   time.Duration `yaml:"mood_interval"`
	MomentumWindow int           `yaml:"momentum_window"`
	RSIPeriod      int           `yaml:"rsi_period"`
	IncrementalRSI bool          `yaml:"incremental_rsi"`
	AlertAbove     float64       `yaml:"alert_above"`
	AlertBelow     float64       `yaml:"alert_below"`
	AutoSignal     bool          `yaml:"auto_signal"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		HTTPAddr:        ":3000",
		AccountFile:     "data/account.json",
		AccountID:       "default",
		JournalPath:     "data/journal.db",
		ExitStrategy:    "trailing",
		ExitInterval:    5 * time.Second,
		DailyLossLimit:  200,
		Timezone:        "Local",
		ServerRiskGuard: true,
		HTTPTimeout:     10 * time.Second,
		NewsCacheTTL:    30 * time.Second,
		MetricsAddr:     ":9091",
		LogLevel:        "info",
		ServerURL:       "http://localhost:3000",
		SampleInterval:  2 * time.Second,
		MoodInterval:    20 * time.Second,
		MomentumWindow:  12,
		RSIPeriod:       14,
	}
}

// Load reads CONFIG_FILE (if set) and the environment. A broken config
// file is fatal.
func Load() *Config {
	cfg, err := LoadFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("[config] %v", err)
	}
	return cfg
}

// LoadFile applies the YAML file at path (skipped when empty) over the
// defaults, then the environment over that.
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.AccountFile = getEnv("ACCOUNT_FILE", c.AccountFile)
	c.AccountDSN = getEnv("ACCOUNT_DSN", c.AccountDSN)
	c.AccountID = getEnv("ACCOUNT_ID", c.AccountID)
	if v, ok := os.LookupEnv("JOURNAL_PATH"); ok {
		c.JournalPath = v
	}
	c.ExitStrategy = getEnv("EXIT_STRATEGY", c.ExitStrategy)
	c.ExitInterval = getDuration("EXIT_INTERVAL", c.ExitInterval)
	c.QuoteURL = getEnv("QUOTE_URL", c.QuoteURL)
	c.DailyLossLimit = getFloat("DAILY_LOSS_LIMIT", c.DailyLossLimit)
	c.DailyResetAuto = getBool("DAILY_RESET_AUTO", c.DailyResetAuto)
	c.Timezone = getEnv("TIMEZONE", c.Timezone)
	c.ServerRiskGuard = getBool("SERVER_RISK_GUARD", c.ServerRiskGuard)
	c.LiquidateTOTPSecret = getEnv("LIQUIDATE_TOTP_SECRET", c.LiquidateTOTPSecret)
	c.HTTPTimeout = getDuration("HTTP_TIMEOUT", c.HTTPTimeout)

	c.NewsFeedURL = getEnv("NEWS_FEED_URL", c.NewsFeedURL)
	c.NewsCacheTTL = getDuration("NEWS_CACHE_TTL", c.NewsCacheTTL)

	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.MetricsAddr = getEnv("METRICS_ADDR", c.MetricsAddr)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.WebhookURL = getEnv("WEBHOOK_URL", c.WebhookURL)
	c.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", c.TelegramBotToken)
	c.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", c.TelegramChatID)

	c.ServerURL = getEnv("SERVER_URL", c.ServerURL)
	c.PriceURL = getEnv("PRICE_URL", c.PriceURL)
	c.Symbol = getEnv("SYMBOL", c.Symbol)
	c.SampleInterval = getDuration("SAMPLE_INTERVAL", c.SampleInterval)
	c.MoodInterval = getDuration("MOOD_INTERVAL", c.MoodInterval)
	c.MomentumWindow = getInt("MOMENTUM_WINDOW", c.MomentumWindow)
	c.RSIPeriod = getInt("RSI_PERIOD", c.RSIPeriod)
	c.IncrementalRSI = getBool("INCREMENTAL_RSI", c.IncrementalRSI)
	c.AlertAbove = getFloat("ALERT_ABOVE", c.AlertAbove)
	c.AlertBelow = getFloat("ALERT_BELOW", c.AlertBelow)
	c.AutoSignal = getBool("AUTO_SIGNAL", c.AutoSignal)
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	switch c.ExitStrategy {
	case "trailing", "bands", "atr":
	default:
		return fmt.Errorf("config: exit_strategy %q must be trailing, bands or atr", c.ExitStrategy)
	}
	if c.DailyLossLimit <= 0 {
		return fmt.Errorf("config: daily_loss_limit must be positive, got %v", c.DailyLossLimit)
	}
	if c.RSIPeriod < 1 {
		return fmt.Errorf("config: rsi_period must be at least 1, got %d", c.RSIPeriod)
	}
	if c.MomentumWindow < 3 {
		return fmt.Errorf("config: momentum_window must be at least 3, got %d", c.MomentumWindow)
	}
	for name, d := range map[string]time.Duration{
		"exit_interval":   c.ExitInterval,
		"sample_interval": c.SampleInterval,
		"mood_interval":   c.MoodInterval,
		"http_timeout":    c.HTTPTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("config: %s must be positive, got %s", name, d)
		}
	}
	if (c.TelegramBotToken == "") != (c.TelegramChatID == "") {
		return fmt.Errorf("config: telegram_bot_token and telegram_chat_id must be set together")
	}
	return nil
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[config] ignoring invalid %s=%q", key, v)
		return fallback
	}
	return b
}

func getInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] ignoring invalid %s=%q", key, v)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] ignoring invalid %s=%q", key, v)
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[config] ignoring invalid %s=%q", key, v)
		return fallback
	}
	return d
}
