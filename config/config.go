package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"signal-enginev1/internal/model"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Universe
	Symbols       string // comma-separated, e.g. "BTCUSDT,ETHUSDT"
	Timeframes    string // comma-separated labels, e.g. "3m,5m,10m"
	ZoneTimeframe string // timeframe used for zone detection
	LookbackMins  int    // minutes of 1m history fetched per tick

	// Signal parameters
	RSIPeriod     int
	RSIOverbought float64
	RSIOversold   float64
	ATRPeriod     int
	ProximityMult float64
	PivotLeft     int
	PivotRight    int
	MinConfluence int
	EnableRSI     bool
	EnableVolume  bool
	EnablePattern bool

	// Position management
	StartingBalance float64 // account currency units, converted to cents
	RiskFraction    float64
	MinStake        float64 // account currency units
	CooldownMinutes int
	MaxTradesPerDay int
	Payouts         string // per-timeframe overrides, e.g. "3m:0.75,10m:0.82"

	// Scheduler
	PollIntervalSec int

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	SQLitePath    string
	MetricsAddr   string
	LogLevel      string

	// Notifications
	TelegramBotToken string
	TelegramChatID   string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Symbols:       getEnv("SYMBOLS", "BTCUSDT,ETHUSDT"),
		Timeframes:    getEnv("TIMEFRAMES", "3m,5m,10m,30m,1h"),
		ZoneTimeframe: getEnv("ZONE_TIMEFRAME", "30m"),
		LookbackMins:  getEnvInt("LOOKBACK_MINUTES", 2880),

		RSIPeriod:     getEnvInt("RSI_PERIOD", 14),
		RSIOverbought: getEnvFloat("RSI_OVERBOUGHT", 72),
		RSIOversold:   getEnvFloat("RSI_OVERSOLD", 28),
		ATRPeriod:     getEnvInt("ATR_PERIOD", 14),
		ProximityMult: getEnvFloat("ZONE_ATR_MULT", 0.25),
		PivotLeft:     getEnvInt("PIVOT_LEFT", 5),
		PivotRight:    getEnvInt("PIVOT_RIGHT", 5),
		MinConfluence: getEnvInt("MIN_CONFLUENCE", 3),
		EnableRSI:     getEnvBool("ENABLE_RSI", true),
		EnableVolume:  getEnvBool("ENABLE_VOLUME", true),
		EnablePattern: getEnvBool("ENABLE_PATTERN", true),

		StartingBalance: getEnvFloat("STARTING_BALANCE", 100),
		RiskFraction:    getEnvFloat("RISK_FRACTION", 0.03),
		MinStake:        getEnvFloat("MIN_STAKE", 1),
		CooldownMinutes: getEnvInt("COOLDOWN_MINUTES", 15),
		MaxTradesPerDay: getEnvInt("MAX_TRADES_PER_DAY", 10),
		Payouts:         getEnv("PAYOUTS", ""),

		PollIntervalSec: getEnvInt("POLL_INTERVAL_SEC", 60),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/trades.db"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
	}
}

// ParseSymbols splits the Symbols string into a cleaned slice.
func (c *Config) ParseSymbols() []string {
	parts := strings.Split(c.Symbols, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, strings.ToUpper(p))
	}
	return out
}

// ParseTimeframes resolves the configured labels against the supported
// timeframe set, skipping unknown labels with a warning.
func (c *Config) ParseTimeframes() []model.Timeframe {
	parts := strings.Split(c.Timeframes, ",")
	tfs := make([]model.Timeframe, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		tf, ok := model.TimeframeByLabel(p)
		if !ok {
			log.Printf("[config] skipping unknown timeframe: %q", p)
			continue
		}
		tfs = append(tfs, tf)
	}
	return tfs
}

// ParsePayouts parses "label:fraction" pairs into a map, skipping
// malformed entries with a warning. Empty input yields an empty map.
func (c *Config) ParsePayouts() map[string]float64 {
	out := make(map[string]float64)
	for _, p := range strings.Split(c.Payouts, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		label, frac, ok := strings.Cut(p, ":")
		if !ok {
			log.Printf("[config] skipping malformed payout entry: %q", p)
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(frac), 64)
		if err != nil || f <= 0 || f >= 1 {
			log.Printf("[config] skipping invalid payout fraction: %q", p)
			continue
		}
		out[strings.TrimSpace(label)] = f
	}
	return out
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid int for %s: %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] invalid float for %s: %q, using %g", key, v, fallback)
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[config] invalid bool for %s: %q, using %t", key, v, fallback)
		return fallback
	}
	return b
}
