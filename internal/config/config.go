// Package config loads service settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	MongoURI  string
	MongoDB   string
	HTTPAddr  string
	OpsAddr   string
	LogLevel  string
	LogFormat string

	CORSOrigins     string
	ShutdownTimeout time.Duration

	// PromotionThreshold is the cluster size that triggers promotion.
	PromotionThreshold int

	// Kafka feed of promoted/updated nearby events. Enabled when a topic
	// is configured.
	KafkaBrokers   []string
	KafkaFeedTopic string

	// Mapbox forward-geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// FeedEnabled reports whether the nearby-event feed should be wired up.
func (c *Config) FeedEnabled() bool {
	return c.KafkaFeedTopic != "" && len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	threshold, err := parsePositiveInt("PROMOTION_THRESHOLD", 10)
	if err != nil {
		return nil, err
	}

	cacheSize, err := parsePositiveInt("MAPBOX_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		MongoURI:  envOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   envOrDefault("MONGO_DB", "incidents"),
		HTTPAddr:  envOrDefault("HTTP_ADDR", ":8080"),
		OpsAddr:   envOrDefault("OPS_ADDR", ":9090"),
		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),

		CORSOrigins:        envOrDefault("CORS_ORIGINS", "*"),
		ShutdownTimeout:    shutdownTimeout,
		PromotionThreshold: threshold,

		KafkaBrokers:   parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaFeedTopic: os.Getenv("KAFKA_FEED_TOPIC"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: cacheSize,
	}

	if cfg.MongoURI == "" {
		return nil, errors.New("MONGO_URI is required")
	}
	if cfg.MongoDB == "" {
		return nil, errors.New("MONGO_DB is required")
	}
	if cfg.KafkaFeedTopic != "" && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_FEED_TOPIC is set but KAFKA_BROKERS is empty")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func parseBrokers(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
