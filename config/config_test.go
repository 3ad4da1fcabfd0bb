package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-catalog/library"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"LIBRARY_DRIVER", "LIBRARY_DB_PATH", "LIBRARY_PG_DSN", "LIBRARY_PG_MAX_CONNS",
		"LIBRARY_LOG_LEVEL", "LIBRARY_LOG_FORMAT", "LIBRARY_POLICY_FILE", "LIBRARY_HTTP_ADDR",
		"LIBRARY_SHUTDOWN_TIMEOUT", "LIBRARY_BOOK_CACHE_SIZE", "LIBRARY_BOOK_CACHE_TTL",
	} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Driver)
	assert.Equal(t, "library.db", cfg.DBPath)
	assert.Equal(t, 8, cfg.PGMaxConns)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 256, cfg.BookCacheSize)
	assert.Equal(t, 5*time.Minute, cfg.BookCacheTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LIBRARY_DRIVER", "Postgres")
	t.Setenv("LIBRARY_PG_DSN", "postgres://lib@localhost/library")
	t.Setenv("LIBRARY_LOG_LEVEL", "debug")
	t.Setenv("LIBRARY_LOG_FORMAT", "json")
	t.Setenv("LIBRARY_BOOK_CACHE_TTL", "30s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Driver)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.BookCacheTTL)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"driver":      {"LIBRARY_DRIVER": "mysql"},
		"missing dsn": {"LIBRARY_DRIVER": "postgres", "LIBRARY_PG_DSN": ""},
		"level":       {"LIBRARY_LOG_LEVEL": "loud"},
		"format":      {"LIBRARY_LOG_FORMAT": "xml"},
		"int":         {"LIBRARY_BOOK_CACHE_SIZE": "many"},
		"duration":    {"LIBRARY_SHUTDOWN_TIMEOUT": "5 seconds"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&Config{LogLevel: slog.LevelWarn, LogFormat: "json"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestLoadPolicy(t *testing.T) {
	p, err := LoadPolicy(&Config{})
	require.NoError(t, err)
	assert.Equal(t, library.DefaultPolicy(), p)

	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("loan_period: 21d\nmax_late_fee: 20.00\n"), 0o644))
	p, err = LoadPolicy(&Config{PolicyFile: path})
	require.NoError(t, err)
	assert.Equal(t, 21*24*time.Hour, p.LoanPeriod)
	assert.Equal(t, library.Dollars(20, 0), p.MaxLateFee)
	assert.Equal(t, library.FirstTierDailyFee, p.FirstTierDailyFee)

	require.NoError(t, os.WriteFile(path, []byte("loan_period: 72h\n"), 0o644))
	p, err = LoadPolicy(&Config{PolicyFile: path})
	require.NoError(t, err)
	assert.Equal(t, 72*time.Hour, p.LoanPeriod)

	require.NoError(t, os.WriteFile(path, []byte("loan_period: 0d\n"), 0o644))
	_, err = LoadPolicy(&Config{PolicyFile: path})
	assert.Error(t, err)

	_, err = LoadPolicy(&Config{PolicyFile: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}
