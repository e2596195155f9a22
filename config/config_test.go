package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradlyst/internal/adapters/logger"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"USER_ID", "STORE_DRIVER", "DB_PATH", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"IMPORT_DUPLICATE_WINDOW_SECONDS", "IMPORT_ROW_DELAY_MS", "TRADE_CACHE_TTL_MINUTES",
		"KAFKA_BROKERS", "KAFKA_TOPIC", "CURRENCY", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "./data/tradlyst.db", cfg.DBPath)
	assert.Equal(t, int32(4), cfg.DBMaxConns)
	assert.Equal(t, 5*time.Second, cfg.DuplicateWindow)
	assert.Zero(t, cfg.RowDelay)
	assert.Equal(t, 15*time.Minute, cfg.TradeCacheTTL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "INR", cfg.Currency)
	assert.Equal(t, logger.LevelInfo, cfg.LogLevel)
	assert.Equal(t, logger.FormatConsole, cfg.LogFormat)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("USER_ID", " alice ")
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/tradlyst")
	t.Setenv("IMPORT_DUPLICATE_WINDOW_SECONDS", "0")
	t.Setenv("IMPORT_ROW_DELAY_MS", "250")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("CURRENCY", "usd")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.UserID)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Zero(t, cfg.DuplicateWindow)
	assert.Equal(t, 250*time.Millisecond, cfg.RowDelay)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, logger.FormatJSON, cfg.LogFormat)
}

func TestLoadConfig_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantMsg string
	}{
		{
			name:    "unknown driver",
			env:     map[string]string{"STORE_DRIVER": "mysql"},
			wantMsg: "unsupported STORE_DRIVER",
		},
		{
			name:    "postgres without url",
			env:     map[string]string{"STORE_DRIVER": "postgres", "DATABASE_URL": ""},
			wantMsg: "DATABASE_URL must be set",
		},
		{
			name:    "negative window",
			env:     map[string]string{"IMPORT_DUPLICATE_WINDOW_SECONDS": "-1"},
			wantMsg: "IMPORT_DUPLICATE_WINDOW_SECONDS cannot be negative",
		},
		{
			name:    "non-numeric row delay",
			env:     map[string]string{"IMPORT_ROW_DELAY_MS": "fast"},
			wantMsg: "invalid IMPORT_ROW_DELAY_MS",
		},
		{
			name:    "min conns above max",
			env:     map[string]string{"DB_MAX_CONNS": "2", "DB_MIN_CONNS": "3"},
			wantMsg: "DB_MIN_CONNS must be between",
		},
		{
			name:    "bad log format",
			env:     map[string]string{"LOG_FORMAT": "xml"},
			wantMsg: "LOG_FORMAT must be console or json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STORE_DRIVER", "")
			t.Setenv("DATABASE_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadConfig()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), "configuration validation failed")
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
