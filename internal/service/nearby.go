package service

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/aidhaven/incident-aggregation/internal/domain"
	"github.com/aidhaven/incident-aggregation/internal/observability"
	"github.com/aidhaven/incident-aggregation/internal/store"
)

// DefaultRadiusKm applies when a nearby query omits the radius.
const DefaultRadiusKm = 500.0

// NearbyQuery is a viewer's request for standing events around a point.
type NearbyQuery struct {
	Lat        float64
	Lng        float64
	RadiusKm   float64
	Window     domain.Window
	Categories []string
}

// EventSummary is the public projection of a standing event, distance-ranked
// for one viewer.
type EventSummary struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Title    string          `json:"title"`
	TS       time.Time       `json:"ts"`
	DistKm   int             `json:"distKm"`
	Severity domain.Severity `json:"severity"`
	Meta     SummaryMeta     `json:"meta"`
}

// SummaryMeta carries display-only attributes of a summary.
type SummaryMeta struct {
	Address string `json:"address,omitempty"`
}

// NearbyResult is the outcome of a nearby query. Err flags internal
// degradation: the caller gets an empty list instead of a failure, favoring
// availability of the viewer UI over completeness.
type NearbyResult struct {
	Events []EventSummary `json:"events"`
	Err    bool           `json:"error,omitempty"`
}

// NearbyEngine serves geographically filtered, time-windowed views of
// standing events.
type NearbyEngine struct {
	events  store.EventStore
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewNearbyEngine creates a NearbyEngine.
func NewNearbyEngine(events store.EventStore, logger *slog.Logger, metrics *observability.Metrics) *NearbyEngine {
	return &NearbyEngine{events: events, logger: logger, metrics: metrics}
}

// QueryNearby loads all standing events and filters them down to those
// inside the request window and radius, ranked nearest first with ties
// broken most-recent first. Reads tolerate eventual consistency: a
// just-promoted event may not be visible yet.
//
// Any internal failure degrades to an empty result with Err set; the method
// never returns an error.
func (n *NearbyEngine) QueryNearby(ctx context.Context, q NearbyQuery) NearbyResult {
	start := time.Now()
	defer func() {
		n.metrics.NearbyQueryDuration.Observe(time.Since(start).Seconds())
	}()

	if q.RadiusKm <= 0 {
		q.RadiusKm = DefaultRadiusKm
	}
	if q.Window == "" {
		q.Window = domain.DefaultWindow
	}

	all, err := n.events.List(ctx, 0)
	if err != nil {
		n.metrics.NearbyQueries.WithLabelValues("degraded").Inc()
		n.metrics.StoreErrors.Inc()
		n.logger.Error("nearby query degraded", "error", err)
		return NearbyResult{Events: []EventSummary{}, Err: true}
	}

	now := domain.Now()
	cutoff := now.Add(-q.Window.Duration())

	summaries := make([]EventSummary, 0, len(all))
	for _, e := range all {
		if !n.matchesCategories(e, q.Categories) {
			continue
		}
		// CreatedAt is already coerced by the store layer; a zero value
		// means the record carried no intelligible timestamp.
		if e.CreatedAt.IsZero() || e.CreatedAt.Before(cutoff) {
			continue
		}
		if !e.Location.HasCoords() {
			// Cannot be ranked; skip rather than fail.
			continue
		}

		dist := domain.DistanceKm(q.Lat, q.Lng, *e.Location.Lat, *e.Location.Lng)
		if dist > q.RadiusKm {
			continue
		}

		summaries = append(summaries, EventSummary{
			ID:       e.ID,
			Type:     e.Category,
			Title:    e.Title,
			TS:       e.CreatedAt,
			DistKm:   int(math.Round(dist)),
			Severity: e.EffectiveSeverity(),
			Meta:     SummaryMeta{Address: e.Location.Address},
		})
	}

	// Stable order: nearest first, most recent breaking ties.
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].DistKm != summaries[j].DistKm {
			return summaries[i].DistKm < summaries[j].DistKm
		}
		return summaries[i].TS.After(summaries[j].TS)
	})

	n.metrics.NearbyQueries.WithLabelValues("ok").Inc()
	n.metrics.NearbyEventsServed.Observe(float64(len(summaries)))

	return NearbyResult{Events: summaries}
}

// matchesCategories applies the optional category filter. An empty filter
// matches everything; filtering is also done client-side, but applying it
// here as well keeps payloads small.
func (n *NearbyEngine) matchesCategories(e domain.NearbyEvent, categories []string) bool {
	if len(categories) == 0 {
		return true
	}
	for _, c := range categories {
		if e.Category == c {
			return true
		}
	}
	return false
}
