package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/aidhaven/incident-aggregation/internal/domain"
	"github.com/aidhaven/incident-aggregation/internal/observability"
	"github.com/aidhaven/incident-aggregation/internal/store"
)

// SubmitInput is a citizen report submission.
type SubmitInput struct {
	UserID      string          `json:"userId"`
	Category    string          `json:"type"`
	Description string          `json:"description"`
	Location    domain.Location `json:"location"`
}

// SubmitResult carries the new report's ID and the cluster evaluation that
// followed it, when one ran.
type SubmitResult struct {
	ReportID string         `json:"reportId"`
	Cluster  *ClusterResult `json:"cluster,omitempty"`
}

// Submitter validates and persists new reports, optionally geocodes
// address-only locations, and triggers cluster evaluation.
type Submitter struct {
	reports   store.ReportStore
	clusterer *Clusterer
	geocoder  domain.Geocoder
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewSubmitter creates a Submitter. geocoder may be nil to disable
// coordinate enrichment.
func NewSubmitter(reports store.ReportStore, clusterer *Clusterer, geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics) *Submitter {
	return &Submitter{
		reports:   reports,
		clusterer: clusterer,
		geocoder:  geocoder,
		logger:    logger,
		metrics:   metrics,
	}
}

// SubmitReport validates the input, persists a pending report, and runs
// cluster evaluation for the report's (category, address) pair. The
// submission succeeds even when the evaluation fails; the next submission
// for the pair recounts from scratch anyway.
func (s *Submitter) SubmitReport(ctx context.Context, in SubmitInput) (SubmitResult, error) {
	if err := validateSubmission(in); err != nil {
		return SubmitResult{}, err
	}

	loc := s.enrichLocation(ctx, in.Location)
	now := domain.Now()

	report := domain.Report{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		Category:    in.Category,
		Description: strings.TrimSpace(in.Description),
		Location:    loc,
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.reports.Insert(ctx, report); err != nil {
		s.metrics.StoreErrors.Inc()
		return SubmitResult{}, fmt.Errorf("submit report: %w", err)
	}
	s.metrics.ReportsSubmitted.Inc()

	result := SubmitResult{ReportID: report.ID}

	if loc.Address != "" {
		cluster, err := s.clusterer.EvaluateCluster(ctx, report.Category, loc.Address)
		if err != nil {
			s.logger.Warn("cluster evaluation after submission failed",
				"report_id", report.ID,
				"category", report.Category,
				"error", err,
			)
		} else {
			result.Cluster = &cluster
		}
	}

	return result, nil
}

// enrichLocation fills missing coordinates from the address label via the
// geocoder, best-effort. A failed or empty lookup leaves the location as
// submitted; coordinate-less reports are a valid state.
func (s *Submitter) enrichLocation(ctx context.Context, loc domain.Location) domain.Location {
	if s.geocoder == nil || loc.HasCoords() || loc.Address == "" {
		return loc
	}

	result, err := s.geocoder.ForwardGeocode(ctx, loc.Address)
	if err != nil {
		s.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		s.logger.Warn("forward geocoding failed", "address", loc.Address, "error", err)
		return loc
	}
	if result.Lat == 0 && result.Lng == 0 {
		s.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		return loc
	}

	s.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	loc.Lat = &result.Lat
	loc.Lng = &result.Lng
	return loc
}

func validateSubmission(in SubmitInput) error {
	if !domain.ValidCategory(in.Category) {
		return validationErr("unknown category %q", in.Category)
	}
	if strings.TrimSpace(in.Description) == "" {
		return validationErr("description must not be empty")
	}
	if strings.TrimSpace(in.Location.Address) == "" && !in.Location.HasCoords() {
		return validationErr("location needs an address or coordinates")
	}
	return nil
}
