package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pbnjay/memory"
)

type Config struct {
	Server   ServerConfig
	Engine   EngineConfig
	Log      LogConfig
	Database DatabaseConfig
	Kafka    KafkaConfig
	Security SecurityConfig
}

type ServerConfig struct {
	Port int
	// RateLimit is requests per second per client, RateBurst the bucket size.
	RateLimit float64
	RateBurst int
	// ReconnectWindow keeps a dropped player's game alive.
	ReconnectWindow time.Duration
	ShutdownTimeout time.Duration
}

type EngineConfig struct {
	DefaultDifficulty string
	TTLimit           int
	SearchWorkers     int
	// SessionTTL is how long an idle game keeps its engine.
	SessionTTL time.Duration
	// ProfilesFile optionally adds or overrides difficulty profiles.
	ProfilesFile string
	MoveDelay    time.Duration
}

type LogConfig struct {
	Level  string
	Pretty bool
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Enabled  bool
	// ConnectAttempts bounds the startup ping retries.
	ConnectAttempts uint
}

// DSN prefers DATABASE_URL and falls back to the discrete fields.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	Enabled bool

	ConnectAttempts uint
}

type SecurityConfig struct {
	AllowedOrigins []string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:      getEnvInt("SERVER_PORT", 8080),
			RateLimit: getEnvFloat("RATE_LIMIT", 10),
			RateBurst: getEnvInt("RATE_BURST", 20),

			ReconnectWindow: getEnvDuration("RECONNECT_WINDOW", 30*time.Second),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Engine: EngineConfig{
			DefaultDifficulty: getEnv("ENGINE_DIFFICULTY", "advanced"),
			TTLimit:           getEnvInt("ENGINE_TT_LIMIT", defaultTTLimit(memory.TotalMemory())),
			SearchWorkers:     getEnvInt("ENGINE_WORKERS", 1),
			SessionTTL:        getEnvDuration("ENGINE_SESSION_TTL", 30*time.Minute),
			ProfilesFile:      getEnv("ENGINE_PROFILES_FILE", ""),
			MoveDelay:         getEnvDuration("ENGINE_MOVE_DELAY", 300*time.Millisecond),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvBool("LOG_PRETTY", false),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "gomoku"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Enabled:  getEnvBool("DB_ENABLED", true),

			ConnectAttempts: uint(getEnvInt("DB_CONNECT_ATTEMPTS", 5)),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:   getEnv("KAFKA_TOPIC", "gomoku-events"),
			GroupID: getEnv("KAFKA_GROUP_ID", "gomoku-analytics"),
			Enabled: getEnvBool("KAFKA_ENABLED", true),

			ConnectAttempts: uint(getEnvInt("KAFKA_CONNECT_ATTEMPTS", 5)),
		},
		Security: SecurityConfig{
			AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT %d", c.Server.Port)
	}
	if c.Server.RateLimit <= 0 || c.Server.RateBurst <= 0 {
		return fmt.Errorf("invalid rate limit %.2f/%d", c.Server.RateLimit, c.Server.RateBurst)
	}
	if c.Engine.TTLimit <= 0 {
		return fmt.Errorf("invalid ENGINE_TT_LIMIT %d", c.Engine.TTLimit)
	}
	if c.Engine.SearchWorkers < 1 {
		return fmt.Errorf("invalid ENGINE_WORKERS %d", c.Engine.SearchWorkers)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is empty")
	}
	return nil
}

const (
	ttEntryBytes = 96
	minTTLimit   = 1 << 14
	maxTTLimit   = 1 << 20
)

// defaultTTLimit gives each engine's transposition table roughly a
// thousandth of physical memory. Every live game owns one table.
func defaultTTLimit(total uint64) int {
	n := total / 1024 / ttEntryBytes
	switch {
	case n < minTTLimit:
		return minTTLimit
	case n > maxTTLimit:
		return maxTTLimit
	}
	return int(n)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
