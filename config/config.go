package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"forecast-systemv1/internal/model"
)

// Config holds all application configuration loaded from environment
// variables (optionally seeded from a .env file).
type Config struct {
	// Infrastructure
	RedisAddr     string
	RedisPassword string
	RedisEnabled  bool
	SQLitePath    string
	MetricsAddr   string
	LogLevel      string

	// Scheduling
	AnalysisInterval   time.Duration
	ValidationInterval time.Duration
	Lookback           time.Duration

	// Timeframes (comma-separated tags, e.g. "1h,4h,24h,7d,30d")
	Timeframes         string
	IncludeIntervalTag bool

	// Indicator parameters
	RSIPeriod       int
	BollingerPeriod int
	BollingerStdDev float64

	// Prediction parameters
	BaseDriftPct  float64
	MaxDriftPct   float64
	MinIndicators int

	// Validation parameters
	MatchTolerance   time.Duration
	SuccessThreshold float64

	// Optional LLM augmentation (OpenAI-compatible endpoint)
	AugmentURL     string
	AugmentTimeout time.Duration

	// Optional operational alerting
	AlertWebhookURL string
}

// Load reads configuration from environment variables with sensible
// defaults. A .env file in the working directory is loaded first when
// present; real environment variables win over file values.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Printf("[config] loaded .env file")
	}
	return &Config{
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisEnabled:  getBool("REDIS_ENABLED", true),
		SQLitePath:    getEnv("SQLITE_PATH", "data/forecast.db"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		AnalysisInterval:   getDuration("ANALYSIS_INTERVAL", 30*time.Minute),
		ValidationInterval: getDuration("VALIDATION_INTERVAL", 15*time.Minute),
		Lookback:           getDuration("LOOKBACK", 800*time.Hour),

		Timeframes:         getEnv("TIMEFRAMES", "1h,4h,24h,7d,30d"),
		IncludeIntervalTag: getBool("INCLUDE_INTERVAL_TAG", true),

		RSIPeriod:       getInt("RSI_PERIOD", 14),
		BollingerPeriod: getInt("BOLLINGER_PERIOD", 20),
		BollingerStdDev: getFloat("BOLLINGER_STDDEV", 2.0),

		BaseDriftPct:  getFloat("BASE_DRIFT_PCT", 2.0),
		MaxDriftPct:   getFloat("MAX_DRIFT_PCT", 40.0),
		MinIndicators: getInt("MIN_INDICATORS", 5),

		MatchTolerance:   getDuration("MATCH_TOLERANCE", 30*time.Minute),
		SuccessThreshold: getFloat("SUCCESS_THRESHOLD", 85.0),

		AugmentURL:     getEnv("AUGMENT_URL", ""),
		AugmentTimeout: getDuration("AUGMENT_TIMEOUT", 30*time.Second),

		AlertWebhookURL: getEnv("ALERT_WEBHOOK_URL", ""),
	}
}

// ParseTimeframes parses the Timeframes string into the horizon set,
// sorted by duration. Invalid entries are skipped with a warning.
func (c *Config) ParseTimeframes() []model.Timeframe {
	tfs := model.ParseTimeframes(c.Timeframes)
	if len(tfs) == 0 {
		log.Printf("[config] no valid timeframes in %q, using defaults", c.Timeframes)
		return model.ParseTimeframes("1h,4h,24h,7d,30d")
	}
	return tfs
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
		log.Printf("[config] invalid %s=%q, using %g", key, v, fallback)
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
		log.Printf("[config] invalid %s=%q, using %t", key, v, fallback)
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("[config] invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
