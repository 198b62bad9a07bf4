package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "advanced", cfg.Engine.DefaultDifficulty)
	assert.Equal(t, 30*time.Minute, cfg.Engine.SessionTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Contains(t, cfg.Database.DSN(), "dbname=gomoku")
	assert.Equal(t, uint(5), cfg.Database.ConnectAttempts)
	assert.Empty(t, cfg.Engine.ProfilesFile)
	assert.GreaterOrEqual(t, cfg.Engine.TTLimit, minTTLimit)
	assert.LessOrEqual(t, cfg.Engine.TTLimit, maxTTLimit)
}

func TestDefaultTTLimit(t *testing.T) {
	assert.Equal(t, minTTLimit, defaultTTLimit(0))
	assert.Equal(t, minTTLimit, defaultTTLimit(512<<20))
	assert.Equal(t, 43690, defaultTTLimit(4<<30))
	assert.Equal(t, maxTTLimit, defaultTTLimit(1<<40))
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ENGINE_WORKERS", "4")
	t.Setenv("ENGINE_SESSION_TTL", "90s")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/gomoku")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Engine.SearchWorkers)
	assert.Equal(t, 90*time.Second, cfg.Engine.SessionTTL)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "postgres://u:p@db/gomoku", cfg.Database.DSN())
}

func TestLoadConfigIgnoresMalformedValues(t *testing.T) {
	t.Setenv("RATE_LIMIT", "fast")
	t.Setenv("ENGINE_SESSION_TTL", "soon")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 10.0, cfg.Server.RateLimit)
	assert.Equal(t, 30*time.Minute, cfg.Engine.SessionTTL)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Setenv("SERVER_PORT", "70000")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("ENGINE_TT_LIMIT", "-1")
	_, err = LoadConfig()
	assert.Error(t, err)
}
