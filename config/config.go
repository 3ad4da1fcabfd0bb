// Package config reads settings from the environment (optionally seeded from a
// .env file by the CLI) and sets up logging.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"library-catalog/library"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds every runtime setting.
type Config struct {
	// Storage
	Driver     string
	DBPath     string
	PGDSN      string
	PGMaxConns int

	// Logging
	LogLevel  slog.Level
	LogFormat string

	// Loan policy overrides, optional
	PolicyFile string

	// HTTP
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// Status report title/author cache
	BookCacheSize int
	BookCacheTTL  time.Duration
}

// Load reads LIBRARY_* environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	cfg.Driver = strings.ToLower(getEnvDefault("LIBRARY_DRIVER", DriverSQLite))
	if cfg.Driver != DriverSQLite && cfg.Driver != DriverPostgres {
		return nil, fmt.Errorf("LIBRARY_DRIVER: unsupported driver %q, want sqlite or postgres", cfg.Driver)
	}
	cfg.DBPath = getEnvDefault("LIBRARY_DB_PATH", "library.db")
	cfg.PGDSN = os.Getenv("LIBRARY_PG_DSN")
	if cfg.Driver == DriverPostgres && cfg.PGDSN == "" {
		return nil, fmt.Errorf("LIBRARY_PG_DSN: required when LIBRARY_DRIVER=postgres")
	}
	cfg.PGMaxConns, err = getEnvInt("LIBRARY_PG_MAX_CONNS", 8)
	if err != nil {
		return nil, fmt.Errorf("LIBRARY_PG_MAX_CONNS: %w", err)
	}

	cfg.LogLevel, err = parseLogLevel(getEnvDefault("LIBRARY_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LIBRARY_LOG_LEVEL: %w", err)
	}
	cfg.LogFormat = getEnvDefault("LIBRARY_LOG_FORMAT", "text")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("LIBRARY_LOG_FORMAT: unsupported format %q, want json or text", cfg.LogFormat)
	}

	cfg.PolicyFile = os.Getenv("LIBRARY_POLICY_FILE")

	cfg.HTTPAddr = getEnvDefault("LIBRARY_HTTP_ADDR", ":8080")
	cfg.ShutdownTimeout, err = getEnvDuration("LIBRARY_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("LIBRARY_SHUTDOWN_TIMEOUT: %w", err)
	}

	cfg.BookCacheSize, err = getEnvInt("LIBRARY_BOOK_CACHE_SIZE", 256)
	if err != nil {
		return nil, fmt.Errorf("LIBRARY_BOOK_CACHE_SIZE: %w", err)
	}
	cfg.BookCacheTTL, err = getEnvDuration("LIBRARY_BOOK_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("LIBRARY_BOOK_CACHE_TTL: %w", err)
	}

	return cfg, nil
}

// SetupLogger builds the process logger and installs it as slog's default.
// Output goes to w, normally stderr so command output stays clean.
func SetupLogger(cfg *Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// policyFile mirrors library.Policy; absent keys keep their defaults.
type policyFile struct {
	LoanPeriod        *string        `yaml:"loan_period"`
	FirstTierDays     *int           `yaml:"first_tier_days"`
	FirstTierDailyFee *library.Money `yaml:"first_tier_daily_fee"`
	LaterDailyFee     *library.Money `yaml:"later_daily_fee"`
	MaxLateFee        *library.Money `yaml:"max_late_fee"`
}

// LoadPolicy returns the default policy, overridden by cfg.PolicyFile when set.
func LoadPolicy(cfg *Config) (library.Policy, error) {
	p := library.DefaultPolicy()
	if cfg.PolicyFile == "" {
		return p, nil
	}

	raw, err := os.ReadFile(cfg.PolicyFile)
	if err != nil {
		return p, fmt.Errorf("read policy file: %w", err)
	}
	var pf policyFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return p, fmt.Errorf("parse policy file %s: %w", cfg.PolicyFile, err)
	}

	if pf.LoanPeriod != nil {
		d, err := parseLoanPeriod(*pf.LoanPeriod)
		if err != nil {
			return p, fmt.Errorf("loan_period: %w", err)
		}
		p.LoanPeriod = d
	}
	if pf.FirstTierDays != nil {
		p.FirstTierDays = *pf.FirstTierDays
	}
	if pf.FirstTierDailyFee != nil {
		p.FirstTierDailyFee = *pf.FirstTierDailyFee
	}
	if pf.LaterDailyFee != nil {
		p.LaterDailyFee = *pf.LaterDailyFee
	}
	if pf.MaxLateFee != nil {
		p.MaxLateFee = *pf.MaxLateFee
	}

	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("policy file %s: %w", cfg.PolicyFile, err)
	}
	return p, nil
}

// parseLoanPeriod accepts Go durations and whole days such as "14d".
func parseLoanPeriod(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(strings.TrimSpace(s), "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q (use 14d or Go format such as 336h)", s)
	}
	return d, nil
}

func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %q", val)
	}
	return n, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %q (use Go format: 30s, 1h, 15m)", val)
	}
	return d, nil
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unsupported level %q, want debug, info, warn or error", level)
	}
}
