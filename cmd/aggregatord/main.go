// Command aggregatord serves the incident aggregation API: citizen report
// submission, proximity-based nearby event queries, and the admin
// moderation surface, backed by MongoDB.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aidhaven/incident-aggregation/internal/adapter/geocode"
	"github.com/aidhaven/incident-aggregation/internal/adapter/httpapi"
	"github.com/aidhaven/incident-aggregation/internal/adapter/kafkafeed"
	"github.com/aidhaven/incident-aggregation/internal/adapter/mongostore"
	"github.com/aidhaven/incident-aggregation/internal/adapter/opshttp"
	"github.com/aidhaven/incident-aggregation/internal/config"
	"github.com/aidhaven/incident-aggregation/internal/domain"
	"github.com/aidhaven/incident-aggregation/internal/observability"
	"github.com/aidhaven/incident-aggregation/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connect failed", "uri", mongostore.RedactURI(cfg.MongoURI), "error", err)
		os.Exit(1)
	}
	logger.Info("mongo connected", "uri", mongostore.RedactURI(cfg.MongoURI), "db", cfg.MongoDB)

	// Feed publisher (feature-flagged via KAFKA_BROKERS / KAFKA_FEED_TOPIC).
	var feed service.Publisher
	var feedWriter *kafkafeed.Writer
	if cfg.FeedEnabled() {
		feedWriter = kafkafeed.NewWriter(cfg.KafkaBrokers, cfg.KafkaFeedTopic, logger)
		feed = feedWriter
		logger.Info("event feed enabled", "topic", cfg.KafkaFeedTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("event feed disabled")
	}

	// Geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := geocode.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger)
		geocoder = geocode.NewCachedGeocoder(client, cfg.MapboxCacheSize)
		logger.Info("forward geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("forward geocoding disabled")
	}

	clusterer := service.NewClusterer(db.Reports(), db.Events(), feed, cfg.PromotionThreshold, logger, metrics)
	submitter := service.NewSubmitter(db.Reports(), clusterer, geocoder, logger, metrics)
	nearby := service.NewNearbyEngine(db.Events(), logger, metrics)
	moderator := service.NewModerator(db.Reports(), db.Events(), db.Audit(), feed, logger, metrics)

	api := httpapi.NewServer(cfg.CORSOrigins, submitter, nearby, moderator, clusterer, logger)
	ops := opshttp.NewServer(cfg.OpsAddr, opshttp.ReadinessFunc(db.Ping), logger)

	go func() {
		if err := api.Listen(cfg.HTTPAddr); err != nil {
			logger.Error("api server error", "error", err)
			stop()
		}
	}()
	go func() {
		if err := ops.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := api.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server shutdown error", "error", err)
	}
	if err := ops.Shutdown(shutdownCtx); err != nil {
		logger.Error("ops server shutdown error", "error", err)
	}
	if feedWriter != nil {
		if err := feedWriter.Close(); err != nil {
			logger.Error("feed writer close error", "error", err)
		}
	}
	if err := db.Disconnect(shutdownCtx); err != nil {
		logger.Error("mongo disconnect error", "error", err)
	}

	logger.Info("shutdown complete")
}
