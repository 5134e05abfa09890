package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/aidhaven/incident-aggregation/internal/domain"
	"github.com/aidhaven/incident-aggregation/internal/observability"
	"github.com/aidhaven/incident-aggregation/internal/store"
)

// --- in-memory store fakes ---

type memReportStore struct {
	reports map[string]domain.Report
	err     error // injected failure for every call
}

func newMemReportStore() *memReportStore {
	return &memReportStore{reports: make(map[string]domain.Report)}
}

func (m *memReportStore) Insert(_ context.Context, r domain.Report) error {
	if m.err != nil {
		return m.err
	}
	m.reports[r.ID] = r
	return nil
}

func (m *memReportStore) Get(_ context.Context, id string) (domain.Report, error) {
	if m.err != nil {
		return domain.Report{}, m.err
	}
	r, ok := m.reports[id]
	if !ok {
		return domain.Report{}, store.ErrNotFound
	}
	return r, nil
}

func (m *memReportStore) Update(_ context.Context, r domain.Report) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.reports[r.ID]; !ok {
		return store.ErrNotFound
	}
	m.reports[r.ID] = r
	return nil
}

func (m *memReportStore) Delete(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.reports, id)
	return nil
}

func (m *memReportStore) CountByCategoryAndAddress(_ context.Context, category, address string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	n := 0
	for _, r := range m.reports {
		if r.Category == category && r.Location.Address == address {
			n++
		}
	}
	return n, nil
}

func (m *memReportStore) ListByCategoryAndAddress(_ context.Context, category, address string) ([]domain.Report, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Report
	for _, r := range m.reports {
		if r.Category == category && r.Location.Address == address {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type memEventStore struct {
	events map[string]domain.NearbyEvent
	err    error
}

func newMemEventStore() *memEventStore {
	return &memEventStore{events: make(map[string]domain.NearbyEvent)}
}

func (m *memEventStore) Upsert(_ context.Context, e domain.NearbyEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events[e.ID] = e
	return nil
}

func (m *memEventStore) Insert(_ context.Context, e domain.NearbyEvent) error {
	if m.err != nil {
		return m.err
	}
	if _, exists := m.events[e.ID]; exists {
		return fmt.Errorf("event %s already exists", e.ID)
	}
	m.events[e.ID] = e
	return nil
}

func (m *memEventStore) Get(_ context.Context, id string) (domain.NearbyEvent, error) {
	if m.err != nil {
		return domain.NearbyEvent{}, m.err
	}
	e, ok := m.events[id]
	if !ok {
		return domain.NearbyEvent{}, store.ErrNotFound
	}
	return e, nil
}

func (m *memEventStore) List(_ context.Context, limit int) ([]domain.NearbyEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.NearbyEvent, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memEventStore) FindByReportID(_ context.Context, reportID string) (domain.NearbyEvent, error) {
	if m.err != nil {
		return domain.NearbyEvent{}, m.err
	}
	for _, e := range m.events {
		if e.ReportID == reportID && reportID != "" {
			return e, nil
		}
	}
	return domain.NearbyEvent{}, store.ErrNotFound
}

func (m *memEventStore) DeleteByReportID(_ context.Context, reportID string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	removed := 0
	for id, e := range m.events {
		if e.ReportID == reportID && reportID != "" {
			delete(m.events, id)
			removed++
		}
	}
	return removed, nil
}

type memAuditStore struct {
	entries []domain.AuditLogEntry
	err     error
}

func (m *memAuditStore) Append(_ context.Context, entry domain.AuditLogEntry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memAuditStore) ListByReport(_ context.Context, reportID string) ([]domain.AuditLogEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.AuditLogEntry
	for _, e := range m.entries {
		if e.ReportID == reportID {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- feed and geocoder fakes ---

type fakeFeed struct {
	published []domain.NearbyEvent
	err       error
}

func (f *fakeFeed) Publish(_ context.Context, e domain.NearbyEvent) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, e)
	return nil
}

type fakeGeocoder struct {
	result domain.GeocodingResult
	err    error
	calls  int
}

func (g *fakeGeocoder) ForwardGeocode(_ context.Context, _ string) (domain.GeocodingResult, error) {
	g.calls++
	if g.err != nil {
		return domain.GeocodingResult{}, g.err
	}
	return g.result, nil
}

// --- helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func ptr(f float64) *float64 { return &f }
