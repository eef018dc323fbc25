package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/beach-status-engine/internal/domain"
)

// Config holds all service settings, populated from environment variables.
// Validation failures here are fatal at startup; nothing in the per-tick
// path re-validates configuration.
type Config struct {
	DatabaseURL string

	KafkaBrokers       []string
	KafkaAlertTopic    string
	KafkaReadingsTopic string
	KafkaGroupID       string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Job intervals: readings are ingested, statuses recomputed, and
	// pending alerts checked on separate cadences.
	IngestInterval time.Duration
	StatusInterval time.Duration
	AlertInterval  time.Duration

	// StalenessWindow is the maximum reading age before a metric counts
	// as missing. Defaults to twice the ingest interval.
	StalenessWindow time.Duration

	SourcePrecedence     domain.SourcePrecedence
	DefaultAlertCooldown time.Duration

	TickTimeout     time.Duration
	Workers         int
	IngestBatchSize int

	// Redis latest-status cache configuration. Enabled when REDIS_ADDR is set.
	RedisAddr     string
	RedisEnabled  bool
	RedisCacheTTL time.Duration

	// NOAA station polling. When enabled, beaches with a station mapping
	// are polled directly in addition to the broker feed.
	NOAAEnabled bool
	NOAABaseURL string
	NOAATimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := durationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	ingestInterval, err := durationOrDefault("INGEST_INTERVAL", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	statusInterval, err := durationOrDefault("STATUS_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	alertInterval, err := durationOrDefault("ALERT_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	staleness, err := durationOrDefault("STALENESS_WINDOW", 2*ingestInterval)
	if err != nil {
		return nil, err
	}
	cooldown, err := durationOrDefault("ALERT_COOLDOWN_DEFAULT", time.Hour)
	if err != nil {
		return nil, err
	}
	tickTimeout, err := durationOrDefault("TICK_TIMEOUT", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	redisTTL, err := durationOrDefault("REDIS_CACHE_TTL", time.Minute)
	if err != nil {
		return nil, err
	}

	workers, err := intOrDefault("WORKERS", 16)
	if err != nil {
		return nil, err
	}
	batchSize, err := intOrDefault("INGEST_BATCH_SIZE", 100)
	if err != nil {
		return nil, err
	}

	noaaTimeout, err := durationOrDefault("NOAA_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	redisAddr := os.Getenv("REDIS_ADDR")

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),

		KafkaBrokers:       splitList(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaAlertTopic:    envOrDefault("KAFKA_ALERT_TOPIC", "beach-status-alerts"),
		KafkaReadingsTopic: envOrDefault("KAFKA_READINGS_TOPIC", "beach-readings"),
		KafkaGroupID:       envOrDefault("KAFKA_GROUP_ID", "beach-status-engine"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		IngestInterval:  ingestInterval,
		StatusInterval:  statusInterval,
		AlertInterval:   alertInterval,
		StalenessWindow: staleness,

		SourcePrecedence:     domain.SourcePrecedence(splitList(envOrDefault("SOURCE_PRECEDENCE", "manual,noaa,pacioos"))),
		DefaultAlertCooldown: cooldown,

		TickTimeout:     tickTimeout,
		Workers:         workers,
		IngestBatchSize: batchSize,

		RedisAddr:     redisAddr,
		RedisEnabled:  redisAddr != "",
		RedisCacheTTL: redisTTL,

		NOAAEnabled: envOrDefault("NOAA_ENABLED", "false") == "true",
		NOAABaseURL: os.Getenv("NOAA_BASE_URL"),
		NOAATimeout: noaaTimeout,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if c.KafkaAlertTopic == "" {
		return errors.New("KAFKA_ALERT_TOPIC is required")
	}
	if c.KafkaReadingsTopic == "" {
		return errors.New("KAFKA_READINGS_TOPIC is required")
	}
	for name, d := range map[string]time.Duration{
		"INGEST_INTERVAL":        c.IngestInterval,
		"STATUS_INTERVAL":        c.StatusInterval,
		"ALERT_INTERVAL":         c.AlertInterval,
		"STALENESS_WINDOW":       c.StalenessWindow,
		"ALERT_COOLDOWN_DEFAULT": c.DefaultAlertCooldown,
		"TICK_TIMEOUT":           c.TickTimeout,
		"NOAA_TIMEOUT":           c.NOAATimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.Workers <= 0 {
		return errors.New("WORKERS must be positive")
	}
	if c.IngestBatchSize <= 0 {
		return errors.New("INGEST_BATCH_SIZE must be positive")
	}
	if len(c.SourcePrecedence) == 0 {
		return errors.New("SOURCE_PRECEDENCE must list at least one source")
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationOrDefault(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func intOrDefault(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
