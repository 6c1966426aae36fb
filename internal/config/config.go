// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"finflow-transfer/internal/fee"
	"finflow-transfer/pkg/db" // Import db package for its Config struct
)

// Store and lock backends.
const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
	LockBackendLocal     = "local"
	LockBackendRedis     = "redis"
)

// EngineConfig holds the transfer engine's timeouts and retry budgets.
type EngineConfig struct {
	FeeRate             decimal.Decimal
	StoreTimeout        time.Duration
	LockTimeout         time.Duration
	AppendMaxAttempts   int
	AppendBackoff       time.Duration
	ConflictMaxAttempts int
}

// LockConfig selects and tunes the wallet lock backend.
type LockConfig struct {
	Backend string
	TTL     time.Duration
}

// RedisConfig holds Redis connection settings for the distributed locker.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// KafkaConfig holds the committed-transaction publisher settings.
// Publishing is disabled when Brokers is empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort   string
	LogLevel     string
	StoreBackend string
	CORSOrigins  []string
	DB           db.Config
	Engine       EngineConfig
	Lock         LockConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
}

// LoadConfig loads configuration from environment variables. Any envFiles are
// loaded first; variables already set in the environment take precedence.
func LoadConfig(envFiles ...string) (*AppConfig, error) {
	for _, f := range envFiles {
		if f == "" {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}

	p := &parser{}
	cfg := &AppConfig{
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		StoreBackend: getEnv("STORE_BACKEND", StoreBackendPostgres),
		CORSOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		DB: db.Config{
			Driver:       getEnv("DB_DRIVER", db.DriverPQ),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         p.int("DB_PORT", 5432),
			User:         getEnv("DB_USER", "user"),
			Password:     getEnv("DB_PASSWORD", "password"),
			DBName:       getEnv("DB_NAME", "walletdb"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: p.int("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: p.int("DB_MAX_IDLE_CONNS", 10),
			AutoMigrate:  p.bool("DB_AUTO_MIGRATE", false),
		},
		Engine: EngineConfig{
			FeeRate:             p.decimal("FEE_RATE", fee.DefaultRate),
			StoreTimeout:        p.duration("STORE_TIMEOUT", 5*time.Second),
			LockTimeout:         p.duration("LOCK_TIMEOUT", 5*time.Second),
			AppendMaxAttempts:   p.int("APPEND_MAX_ATTEMPTS", 5),
			AppendBackoff:       p.duration("APPEND_BACKOFF", 50*time.Millisecond),
			ConflictMaxAttempts: p.int("CONFLICT_MAX_ATTEMPTS", 3),
		},
		Lock: LockConfig{
			Backend: getEnv("LOCK_BACKEND", LockBackendLocal),
			TTL:     p.duration("LOCK_TTL", 30*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       p.int("REDIS_DB", 0),
			PoolSize: p.int("REDIS_POOL_SIZE", 10),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "wallet-transactions"),
		},
	}
	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.StoreBackend {
	case StoreBackendPostgres, StoreBackendMemory:
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.Lock.Backend {
	case LockBackendLocal, LockBackendRedis:
	default:
		return fmt.Errorf("invalid LOCK_BACKEND %q", c.Lock.Backend)
	}
	if c.DB.Driver != db.DriverPQ && c.DB.Driver != db.DriverPGX {
		return fmt.Errorf("invalid DB_DRIVER %q", c.DB.Driver)
	}
	if _, err := fee.NewPercentagePolicy(c.Engine.FeeRate); err != nil {
		return fmt.Errorf("invalid FEE_RATE: %w", err)
	}
	if c.Engine.AppendMaxAttempts < 1 || c.Engine.ConflictMaxAttempts < 1 {
		return fmt.Errorf("APPEND_MAX_ATTEMPTS and CONFLICT_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parser keeps the first conversion error so LoadConfig can report it once.
type parser struct {
	err error
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}

func (p *parser) int(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return n
}

func (p *parser) bool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return d
}

func (p *parser) decimal(key string, def decimal.Decimal) decimal.Decimal {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return d
}
