package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aidhaven/incident-aggregation/internal/domain"
	"github.com/aidhaven/incident-aggregation/internal/observability"
	"github.com/aidhaven/incident-aggregation/internal/store"
)

// DefaultPromotionThreshold is the cluster size at which a (category, label)
// pair becomes a standing nearby event.
const DefaultPromotionThreshold = 10

// Publisher announces created or updated nearby events to downstream
// consumers (e.g. a notification service). Pass nil to disable.
type Publisher interface {
	Publish(ctx context.Context, e domain.NearbyEvent) error
}

// ClusterResult is the outcome of one cluster evaluation.
type ClusterResult struct {
	Clustered bool `json:"clustered"`
	Count     int  `json:"count"`
}

// ClusterMembers holds a cluster's size together with its member reports,
// newest first.
type ClusterMembers struct {
	Count   int             `json:"count"`
	Reports []domain.Report `json:"reports"`
}

// Clusterer evaluates report clusters and promotes those that cross the
// threshold into standing nearby events.
type Clusterer struct {
	reports   store.ReportStore
	events    store.EventStore
	feed      Publisher
	threshold int
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewClusterer creates a Clusterer. A threshold <= 0 falls back to the
// default; feed may be nil.
func NewClusterer(reports store.ReportStore, events store.EventStore, feed Publisher, threshold int, logger *slog.Logger, metrics *observability.Metrics) *Clusterer {
	if threshold <= 0 {
		threshold = DefaultPromotionThreshold
	}
	return &Clusterer{
		reports:   reports,
		events:    events,
		feed:      feed,
		threshold: threshold,
		logger:    logger,
		metrics:   metrics,
	}
}

// EvaluateCluster recounts the (category, label) cluster from scratch and,
// when the count meets the threshold, upserts the standing event under its
// deterministic key. The recount-then-upsert is idempotent, so concurrent
// evaluations of the same pair converge on one record and retries are safe.
func (c *Clusterer) EvaluateCluster(ctx context.Context, category, label string) (ClusterResult, error) {
	count, err := c.reports.CountByCategoryAndAddress(ctx, category, label)
	if err != nil {
		c.metrics.ClusterEvaluations.WithLabelValues("error").Inc()
		c.metrics.StoreErrors.Inc()
		return ClusterResult{}, fmt.Errorf("cluster evaluation: %w", err)
	}

	if count < c.threshold {
		c.metrics.ClusterEvaluations.WithLabelValues("below_threshold").Inc()
		return ClusterResult{Clustered: false, Count: count}, nil
	}

	key := domain.ClusterKey(category, label)
	now := domain.Now()

	event := domain.NearbyEvent{
		ID:       key,
		Source:   domain.SourceCluster,
		Category: category,
		Title:    domain.ClusterTitle(category, label),
		Location: domain.Location{Address: label},
		// Promoted clusters always carry medium severity; volume does not
		// escalate it.
		Severity:    domain.SeverityMedium,
		ReportCount: count,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Preserve the first promotion time across re-upserts.
	if existing, err := c.events.Get(ctx, key); err == nil {
		event.CreatedAt = existing.CreatedAt
		if existing.Location.HasCoords() {
			event.Location.Lat = existing.Location.Lat
			event.Location.Lng = existing.Location.Lng
		}
	}

	if err := c.events.Upsert(ctx, event); err != nil {
		c.metrics.ClusterEvaluations.WithLabelValues("error").Inc()
		c.metrics.StoreErrors.Inc()
		return ClusterResult{}, fmt.Errorf("cluster evaluation: %w", err)
	}

	c.metrics.ClusterEvaluations.WithLabelValues("promoted").Inc()
	c.metrics.ClustersPromoted.Inc()
	c.logger.Info("cluster promoted",
		"key", key,
		"category", category,
		"label", label,
		"count", count,
	)

	publishEvent(ctx, c.feed, c.logger, c.metrics, event)

	return ClusterResult{Clustered: true, Count: count}, nil
}

// Members returns the reports that make up the (category, label) cluster,
// newest first, with the cluster size. The filter is the same exact-match
// equality the promotion count uses, so size and membership always agree.
func (c *Clusterer) Members(ctx context.Context, category, label string) (ClusterMembers, error) {
	if category == "" || label == "" {
		return ClusterMembers{}, validationErr("category and address are required")
	}

	reports, err := c.reports.ListByCategoryAndAddress(ctx, category, label)
	if err != nil {
		c.metrics.StoreErrors.Inc()
		return ClusterMembers{}, fmt.Errorf("cluster members: %w", err)
	}
	return ClusterMembers{Count: len(reports), Reports: reports}, nil
}
