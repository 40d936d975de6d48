// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	DBPath string

	// Analysis defaults applied when a request omits the field.
	GridSize            int
	RecoveryThreshold   float64
	SurvivalHorizonDays float64
	ResultCacheSize     int

	// Kafka result publishing.
	KafkaEnabled      bool
	KafkaBrokers      []string
	KafkaResultsTopic string
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	// Ignore the error: a missing .env file is the normal case.
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	gridSize, err := parseInt("GRID_SIZE", 32)
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseInt("RESULT_CACHE_SIZE", 128)
	if err != nil {
		return nil, err
	}

	threshold, err := parseFloat("RECOVERY_THRESHOLD", 0.9)
	if err != nil {
		return nil, err
	}

	horizon, err := parseFloat("SURVIVAL_HORIZON_DAYS", 180)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DBPath: envOrDefault("DB_PATH", "flood_events.db"),

		GridSize:            gridSize,
		RecoveryThreshold:   threshold,
		SurvivalHorizonDays: horizon,
		ResultCacheSize:     cacheSize,

		KafkaEnabled:      os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:      parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaResultsTopic: envOrDefault("KAFKA_RESULTS_TOPIC", "flood-recovery-results"),
	}

	if cfg.DBPath == "" {
		return nil, errors.New("DB_PATH is required")
	}
	if cfg.GridSize < 1 {
		return nil, errors.New("GRID_SIZE must be at least 1")
	}
	if cfg.RecoveryThreshold <= 0 || cfg.RecoveryThreshold > 1 {
		return nil, errors.New("RECOVERY_THRESHOLD must be in (0, 1]")
	}
	if cfg.SurvivalHorizonDays <= 0 {
		return nil, errors.New("SURVIVAL_HORIZON_DAYS must be positive")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaResultsTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_RESULTS_TOPIC is empty")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return f, nil
}
