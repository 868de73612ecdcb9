package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// ApplyEnv loads .env if present and overwrites fields from the RATECHECK_*
// variables that are set and non-empty.
func ApplyEnv(cfg *Config) {
	_ = godotenv.Load()

	setStr(&cfg.MarketData.Source, "RATECHECK_MARKET_DATA_SOURCE")
	setStr(&cfg.MarketData.BaseURL, "RATECHECK_B3_BASE_URL")
	setStr(&cfg.MarketData.Timeout, "RATECHECK_B3_TIMEOUT")
	setStr(&cfg.MarketData.SnapshotDir, "RATECHECK_SNAPSHOT_DIR")
	setInt(&cfg.MarketData.MaxAttempts, "RATECHECK_MAX_ATTEMPTS")
	setInt(&cfg.MarketData.Parallelism, "RATECHECK_PARALLELISM")

	setBool(&cfg.Cache.Enabled, "RATECHECK_CACHE_ENABLED")
	setStr(&cfg.Cache.RedisAddr, "RATECHECK_REDIS_ADDR")
	setStr(&cfg.Cache.Password, "RATECHECK_REDIS_PASSWORD")
	setInt(&cfg.Cache.DB, "RATECHECK_REDIS_DB")
	setStr(&cfg.Cache.TTL, "RATECHECK_CACHE_TTL")

	setFloat64(&cfg.Reconcile.RateTolerance, "RATECHECK_RATE_TOLERANCE")
	setBool(&cfg.Reconcile.RequireExactDate, "RATECHECK_REQUIRE_EXACT_DATE")
	setStr(&cfg.Reconcile.Product, "RATECHECK_PRODUCT")

	setStr(&cfg.Report.Type, "RATECHECK_REPORT_TYPE")
	setStr(&cfg.Report.CSVPath, "RATECHECK_REPORT_CSV_PATH")
	setStr(&cfg.Report.DBPath, "RATECHECK_REPORT_DB_PATH")

	setStr(&cfg.LogLevel, "RATECHECK_LOG_LEVEL")
	setStr(&cfg.LogFormat, "RATECHECK_LOG_FORMAT")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
