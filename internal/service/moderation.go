package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aidhaven/incident-aggregation/internal/domain"
	"github.com/aidhaven/incident-aggregation/internal/observability"
	"github.com/aidhaven/incident-aggregation/internal/store"
)

// ApproveInput carries the moderator's edits applied at approval time.
// Provided values overwrite the stored ones; empty fields leave the stored
// values untouched. Coordinates update only when both are present.
type ApproveInput struct {
	Category       string          `json:"type"`
	Description    string          `json:"description"`
	Lat            *float64        `json:"lat,omitempty"`
	Lng            *float64        `json:"lng,omitempty"`
	Title          string          `json:"title"`
	DisplayAddress string          `json:"displayLocation"`
	Severity       domain.Severity `json:"severity"`
}

// EditInput carries post-approval edits. Empty fields are left unchanged.
type EditInput struct {
	Description    string          `json:"description,omitempty"`
	Title          string          `json:"title,omitempty"`
	DisplayAddress string          `json:"displayLocation,omitempty"`
	Severity       domain.Severity `json:"severity,omitempty"`
}

// Moderator drives the report lifecycle: approval, rejection, post-approval
// edits, the embargoed admin hide, and cascading permanent deletion. Every
// state-changing action except hide writes an audit entry.
type Moderator struct {
	reports store.ReportStore
	events  store.EventStore
	audit   store.AuditStore
	feed    Publisher
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewModerator creates a Moderator. feed may be nil.
func NewModerator(reports store.ReportStore, events store.EventStore, audit store.AuditStore, feed Publisher, logger *slog.Logger, metrics *observability.Metrics) *Moderator {
	return &Moderator{
		reports: reports,
		events:  events,
		audit:   audit,
		feed:    feed,
		logger:  logger,
		metrics: metrics,
	}
}

// Approve marks the report approved, applies the moderator's edits, and
// republishes it as a report-derived nearby event back-linked via ReportID.
// Re-approving updates the existing linked event, so retries converge.
func (m *Moderator) Approve(ctx context.Context, reportID, adminID string, in ApproveInput) error {
	if adminID == "" {
		return validationErr("admin identity required")
	}
	if in.Category != "" && !domain.ValidCategory(in.Category) {
		return validationErr("unknown category %q", in.Category)
	}
	if in.Severity != "" && !domain.ValidSeverity(in.Severity) {
		return validationErr("unknown severity %q", in.Severity)
	}

	report, err := m.reports.Get(ctx, reportID)
	if err != nil {
		return fmt.Errorf("approve: %w", err)
	}

	now := domain.Now()
	report.Status = domain.StatusApproved
	report.ReviewedBy = adminID
	report.ReviewedAt = &now
	report.UpdatedAt = now
	if in.Category != "" {
		report.Category = in.Category
	}
	if strings.TrimSpace(in.Description) != "" {
		report.Description = strings.TrimSpace(in.Description)
	}
	if in.Lat != nil && in.Lng != nil {
		report.Location.Lat = in.Lat
		report.Location.Lng = in.Lng
	}
	if in.DisplayAddress != "" {
		report.Location.Address = in.DisplayAddress
	}
	if strings.TrimSpace(in.Title) != "" {
		report.Title = strings.TrimSpace(in.Title)
	}
	if in.Severity != "" {
		report.Severity = in.Severity
	}

	if err := m.reports.Update(ctx, report); err != nil {
		m.metrics.StoreErrors.Inc()
		return fmt.Errorf("approve: %w", err)
	}

	event, err := m.upsertReportEvent(ctx, report, now)
	if err != nil {
		return fmt.Errorf("approve: %w", err)
	}

	m.appendAudit(ctx, domain.AuditApprove, report, adminID)
	m.metrics.ModerationActions.WithLabelValues("approve").Inc()
	m.logger.Info("report approved", "report_id", report.ID, "admin_id", adminID, "event_id", event.ID)

	publishEvent(ctx, m.feed, m.logger, m.metrics, event)
	return nil
}

// Reject marks the report rejected. No nearby-event side effect.
func (m *Moderator) Reject(ctx context.Context, reportID, adminID string) error {
	if adminID == "" {
		return validationErr("admin identity required")
	}

	report, err := m.reports.Get(ctx, reportID)
	if err != nil {
		return fmt.Errorf("reject: %w", err)
	}

	now := domain.Now()
	report.Status = domain.StatusRejected
	report.ReviewedBy = adminID
	report.ReviewedAt = &now
	report.UpdatedAt = now

	if err := m.reports.Update(ctx, report); err != nil {
		m.metrics.StoreErrors.Inc()
		return fmt.Errorf("reject: %w", err)
	}

	m.appendAudit(ctx, domain.AuditReject, report, adminID)
	m.metrics.ModerationActions.WithLabelValues("reject").Inc()
	m.logger.Info("report rejected", "report_id", report.ID, "admin_id", adminID)
	return nil
}

// EditApproved updates an approved report and propagates the changes into
// its linked nearby event when one exists. Event propagation is best-effort:
// the report-side update succeeds even without a linked event.
func (m *Moderator) EditApproved(ctx context.Context, reportID, adminID string, in EditInput) error {
	if adminID == "" {
		return validationErr("admin identity required")
	}
	if in.Severity != "" && !domain.ValidSeverity(in.Severity) {
		return validationErr("unknown severity %q", in.Severity)
	}

	report, err := m.reports.Get(ctx, reportID)
	if err != nil {
		return fmt.Errorf("edit: %w", err)
	}

	now := domain.Now()
	if strings.TrimSpace(in.Description) != "" {
		report.Description = strings.TrimSpace(in.Description)
	}
	if in.Title != "" {
		report.Title = in.Title
	}
	if in.DisplayAddress != "" {
		report.Location.Address = in.DisplayAddress
	}
	if in.Severity != "" {
		report.Severity = in.Severity
	}
	report.UpdatedAt = now

	if err := m.reports.Update(ctx, report); err != nil {
		m.metrics.StoreErrors.Inc()
		return fmt.Errorf("edit: %w", err)
	}

	event, err := m.events.FindByReportID(ctx, reportID)
	switch {
	case err == nil:
		event.Category = report.Category
		event.Title = report.Title
		event.Description = report.Description
		event.Location = report.Location
		event.Severity = report.Severity
		event.UpdatedAt = now
		if err := m.events.Upsert(ctx, event); err != nil {
			m.logger.Warn("event propagation failed", "report_id", reportID, "error", err)
		} else {
			publishEvent(ctx, m.feed, m.logger, m.metrics, event)
		}
	case errors.Is(err, store.ErrNotFound):
		// No linked event; the report-side edit stands on its own.
	default:
		m.logger.Warn("event lookup failed during edit", "report_id", reportID, "error", err)
	}

	m.appendAudit(ctx, domain.AuditEdit, report, adminID)
	m.metrics.ModerationActions.WithLabelValues("edit").Inc()
	return nil
}

// HideFromAdmin hides a report from the moderation console. The report must
// be at least the embargo period old; younger reports fail with ErrEmbargo
// and no mutation. Hiding an already-hidden report is a no-op success.
func (m *Moderator) HideFromAdmin(ctx context.Context, reportID, adminID string) error {
	if adminID == "" {
		return validationErr("admin identity required")
	}

	report, err := m.reports.Get(ctx, reportID)
	if err != nil {
		return fmt.Errorf("hide: %w", err)
	}

	if report.HiddenInAdmin {
		return nil
	}

	now := domain.Now()
	if !report.HideEligible(now) {
		return fmt.Errorf("%w: report %s is younger than %s", ErrEmbargo, reportID, domain.HideEmbargo)
	}

	report.HiddenInAdmin = true
	report.HiddenBy = adminID
	report.HiddenAt = &now
	report.UpdatedAt = now

	if err := m.reports.Update(ctx, report); err != nil {
		m.metrics.StoreErrors.Inc()
		return fmt.Errorf("hide: %w", err)
	}

	m.metrics.ModerationActions.WithLabelValues("hide").Inc()
	m.logger.Info("report hidden from admin", "report_id", reportID, "admin_id", adminID)
	return nil
}

// HideClusterFromAdmin applies the embargoed hide to a batch of reports.
// Ineligible or missing reports are skipped, not errors; a batch with zero
// eligible members is a no-op success with hidden == 0. On a backend
// failure the count of reports hidden so far is returned alongside the
// error; nothing is rolled back.
func (m *Moderator) HideClusterFromAdmin(ctx context.Context, reportIDs []string, adminID string) (int, error) {
	if adminID == "" {
		return 0, validationErr("admin identity required")
	}

	hidden := 0
	for _, id := range reportIDs {
		err := m.HideFromAdmin(ctx, id, adminID)
		switch {
		case err == nil:
			hidden++
		case errors.Is(err, ErrEmbargo), errors.Is(err, store.ErrNotFound):
			continue
		default:
			return hidden, fmt.Errorf("hide batch: %w", err)
		}
	}
	return hidden, nil
}

// DeletePermanently removes the report and cascades to any nearby event
// back-linked to it. The audit trail records the deletion and survives it.
// Deleting an already-deleted report only re-runs the cascade, so retries
// are safe and write no duplicate audit entry.
func (m *Moderator) DeletePermanently(ctx context.Context, reportID, adminID string) error {
	if adminID == "" {
		return validationErr("admin identity required")
	}

	report, err := m.reports.Get(ctx, reportID)
	existed := err == nil
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete: %w", err)
	}

	if existed {
		if err := m.reports.Delete(ctx, reportID); err != nil {
			m.metrics.StoreErrors.Inc()
			return fmt.Errorf("delete: %w", err)
		}
	}

	removed, err := m.events.DeleteByReportID(ctx, reportID)
	if err != nil {
		m.metrics.StoreErrors.Inc()
		return fmt.Errorf("delete cascade: %w", err)
	}

	if existed {
		m.appendAudit(ctx, domain.AuditDelete, report, adminID)
		m.metrics.ModerationActions.WithLabelValues("delete").Inc()
		m.logger.Info("report deleted permanently",
			"report_id", reportID,
			"admin_id", adminID,
			"events_removed", removed,
		)
	}
	return nil
}

// upsertReportEvent creates or refreshes the nearby event derived from an
// approved report, keeping the one-to-one ReportID link.
func (m *Moderator) upsertReportEvent(ctx context.Context, report domain.Report, now time.Time) (domain.NearbyEvent, error) {
	event, err := m.events.FindByReportID(ctx, report.ID)
	created := false
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return domain.NearbyEvent{}, err
		}
		created = true
		event = domain.NearbyEvent{
			ID:        uuid.NewString(),
			Source:    domain.SourceReport,
			ReportID:  report.ID,
			CreatedAt: now,
		}
	}

	event.Category = report.Category
	event.Title = report.Title
	event.Description = report.Description
	event.Location = report.Location
	event.Severity = report.Severity
	event.UpdatedAt = now

	// New events insert under their fresh ID; an ID collision is an error,
	// never a silent replace. Known events are replaced in place.
	persist := m.events.Upsert
	if created {
		persist = m.events.Insert
	}
	if err := persist(ctx, event); err != nil {
		m.metrics.StoreErrors.Inc()
		return domain.NearbyEvent{}, err
	}
	return event, nil
}

// appendAudit writes an immutable audit entry, best-effort: the moderation
// action has already taken effect and is not undone if the append fails.
func (m *Moderator) appendAudit(ctx context.Context, action domain.AuditAction, report domain.Report, adminID string) {
	entry := domain.AuditLogEntry{
		ID:        uuid.NewString(),
		Action:    action,
		ReportID:  report.ID,
		ActorID:   adminID,
		Title:     report.Title,
		Severity:  report.Severity,
		CreatedAt: domain.Now(),
	}
	if err := m.audit.Append(ctx, entry); err != nil {
		m.logger.Warn("audit append failed", "action", action, "report_id", report.ID, "error", err)
	}
}

// publishEvent announces an event to the feed, best-effort.
func publishEvent(ctx context.Context, feed Publisher, logger *slog.Logger, metrics *observability.Metrics, event domain.NearbyEvent) {
	if feed == nil {
		return
	}
	if err := feed.Publish(ctx, event); err != nil {
		metrics.FeedPublishes.WithLabelValues("error").Inc()
		logger.Warn("feed publish failed", "event_id", event.ID, "error", err)
		return
	}
	metrics.FeedPublishes.WithLabelValues("success").Inc()
}
