package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. FromEnv builds it from
// environment variables so main stays lean; every value has a development
// default.
type Config struct {
	Addr          string
	PostgresURL   string
	JWTSigningKey string
	JWTIssuer     string

	Redis RedisConfig
	Kafka KafkaConfig

	// EligibilityCacheTTL bounds how long a membership eligibility answer
	// may be reused.
	EligibilityCacheTTL time.Duration
}

// RedisConfig holds Redis connection settings. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds notification event settings. Empty brokers disable the
// Kafka publisher and events are logged instead.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:          envOr("ROLLCALL_ADDR", ":8080"),
		PostgresURL:   os.Getenv("ROLLCALL_POSTGRES_URL"),
		JWTSigningKey: envOr("ROLLCALL_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     envOr("ROLLCALL_JWT_ISSUER", "rollcall"),
		Redis: RedisConfig{
			URL:          os.Getenv("ROLLCALL_REDIS_URL"),
			PoolSize:     envIntOr("ROLLCALL_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("ROLLCALL_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic: envOr("ROLLCALL_KAFKA_TOPIC", "rollcall.events"),
		},
		EligibilityCacheTTL: 5 * time.Minute,
	}
	for _, broker := range strings.Split(os.Getenv("ROLLCALL_KAFKA_BROKERS"), ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, broker)
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
