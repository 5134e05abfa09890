// Package store defines the persistence contracts for reports, nearby
// events, and the audit trail. Implementations live under internal/adapter;
// the service layer depends only on these interfaces.
package store

import (
	"context"
	"errors"

	"github.com/aidhaven/incident-aggregation/internal/domain"
)

var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnavailable means the backend could not be reached. Callers must
	// treat it as retryable and surface it distinctly from validation
	// failures.
	ErrUnavailable = errors.New("storage backend unavailable")
)

// ReportStore persists individual incident reports.
type ReportStore interface {
	// Insert stores a new report under its pre-assigned ID.
	Insert(ctx context.Context, r domain.Report) error

	// Get returns one report by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (domain.Report, error)

	// Update replaces the stored report, or ErrNotFound.
	Update(ctx context.Context, r domain.Report) error

	// Delete removes the report permanently. Deleting a missing report is
	// not an error; the end state is the same.
	Delete(ctx context.Context, id string) error

	// CountByCategoryAndAddress counts reports whose category and location
	// address both match exactly. Hidden and unreviewed reports count too:
	// the promotion threshold measures submission volume, not moderation
	// state.
	CountByCategoryAndAddress(ctx context.Context, category, address string) (int, error)

	// ListByCategoryAndAddress returns the reports behind a cluster, newest
	// first, under the same exact-match filter as the count.
	ListByCategoryAndAddress(ctx context.Context, category, address string) ([]domain.Report, error)
}

// EventStore persists standing nearby events.
type EventStore interface {
	// Upsert creates or replaces the event under its ID. For cluster
	// events the ID is the deterministic cluster key, so the upsert is
	// what makes repeated promotions converge on one record.
	Upsert(ctx context.Context, e domain.NearbyEvent) error

	// Insert stores a new event and fails if the ID already exists.
	Insert(ctx context.Context, e domain.NearbyEvent) error

	// Get returns one event by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (domain.NearbyEvent, error)

	// List returns all standing events, up to limit (0 means no limit).
	List(ctx context.Context, limit int) ([]domain.NearbyEvent, error)

	// FindByReportID returns the event back-linked to a report, or
	// ErrNotFound. At most one such event exists per report.
	FindByReportID(ctx context.Context, reportID string) (domain.NearbyEvent, error)

	// DeleteByReportID removes any events back-linked to the report and
	// returns how many were removed.
	DeleteByReportID(ctx context.Context, reportID string) (int, error)
}

// AuditStore appends immutable moderation audit entries.
type AuditStore interface {
	Append(ctx context.Context, entry domain.AuditLogEntry) error

	// ListByReport returns entries for one report, newest first.
	ListByReport(ctx context.Context, reportID string) ([]domain.AuditLogEntry, error)
}
