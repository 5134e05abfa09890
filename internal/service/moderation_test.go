package service

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidhaven/incident-aggregation/internal/domain"
	"github.com/aidhaven/incident-aggregation/internal/store"
)

type moderationFixture struct {
	reports *memReportStore
	events  *memEventStore
	audit   *memAuditStore
	feed    *fakeFeed
	mod     *Moderator
	engine  *NearbyEngine
}

func newModerationFixture(t *testing.T) *moderationFixture {
	t.Helper()
	f := &moderationFixture{
		reports: newMemReportStore(),
		events:  newMemEventStore(),
		audit:   &memAuditStore{},
		feed:    &fakeFeed{},
	}
	f.mod = NewModerator(f.reports, f.events, f.audit, f.feed, testLogger(), testMetrics())
	f.engine = NewNearbyEngine(f.events, testLogger(), testMetrics())
	return f
}

func (f *moderationFixture) addPending(t *testing.T, id string, age time.Duration) domain.Report {
	t.Helper()
	r := domain.Report{
		ID:          id,
		UserID:      "user-1",
		Category:    "fire",
		Description: "flames on the roof",
		Location:    domain.Location{Address: "5th St", Lat: ptr(41.0), Lng: ptr(29.0)},
		Status:      domain.StatusPending,
		CreatedAt:   domain.Now().Add(-age),
		UpdatedAt:   domain.Now().Add(-age),
	}
	require.NoError(t, f.reports.Insert(context.Background(), r))
	return r
}

func TestApprove(t *testing.T) {
	freezeClock(t)
	f := newModerationFixture(t)
	f.addPending(t, "rep-1", time.Hour)

	err := f.mod.Approve(context.Background(), "rep-1", "admin-1", ApproveInput{
		Title:       "Structure fire, 5th St",
		Description: "confirmed structure fire",
		Severity:    domain.SeverityHigh,
	})
	require.NoError(t, err)

	report, err := f.reports.Get(context.Background(), "rep-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, report.Status)
	assert.Equal(t, "admin-1", report.ReviewedBy)
	require.NotNil(t, report.ReviewedAt)
	assert.Equal(t, "Structure fire, 5th St", report.Title)
	assert.Equal(t, domain.SeverityHigh, report.Severity)
	assert.Equal(t, "confirmed structure fire", report.Description)

	event, err := f.events.FindByReportID(context.Background(), "rep-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceReport, event.Source)
	assert.Equal(t, "Structure fire, 5th St", event.Title)
	assert.Equal(t, domain.SeverityHigh, event.Severity)
	assert.Equal(t, "rep-1", event.ReportID)

	entries, err := f.audit.ListByReport(context.Background(), "rep-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.AuditApprove, entries[0].Action)
	assert.Equal(t, "admin-1", entries[0].ActorID)
	assert.Equal(t, "Structure fire, 5th St", entries[0].Title)
	assert.Equal(t, domain.SeverityHigh, entries[0].Severity)

	require.Len(t, f.feed.published, 1)
}

func TestApprove_RetryUpdatesSameEvent(t *testing.T) {
	freezeClock(t)
	f := newModerationFixture(t)
	f.addPending(t, "rep-1", time.Hour)

	in := ApproveInput{Title: "Fire", Severity: domain.SeverityMedium}
	require.NoError(t, f.mod.Approve(context.Background(), "rep-1", "admin-1", in))
	require.NoError(t, f.mod.Approve(context.Background(), "rep-1", "admin-1", in))

	assert.Len(t, f.events.events, 1, "re-approval must not duplicate the event")
}

func TestApprove_Validation(t *testing.T) {
	f := newModerationFixture(t)
	f.addPending(t, "rep-1", time.Hour)

	err := f.mod.Approve(context.Background(), "rep-1", "", ApproveInput{})
	require.ErrorIs(t, err, ErrValidation)

	err = f.mod.Approve(context.Background(), "rep-1", "admin-1", ApproveInput{Severity: "critical"})
	require.ErrorIs(t, err, ErrValidation)

	err = f.mod.Approve(context.Background(), "missing", "admin-1", ApproveInput{})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestReject(t *testing.T) {
	freezeClock(t)
	f := newModerationFixture(t)
	f.addPending(t, "rep-1", time.Hour)

	require.NoError(t, f.mod.Reject(context.Background(), "rep-1", "admin-1"))

	report, err := f.reports.Get(context.Background(), "rep-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, report.Status)
	assert.Equal(t, "admin-1", report.ReviewedBy)

	assert.Empty(t, f.events.events, "rejection has no nearby-event side effect")

	entries, _ := f.audit.ListByReport(context.Background(), "rep-1")
	require.Len(t, entries, 1)
	assert.Equal(t, domain.AuditReject, entries[0].Action)
}

func TestEditApproved_PropagatesIntoLinkedEvent(t *testing.T) {
	freezeClock(t)
	f := newModerationFixture(t)
	f.addPending(t, "rep-1", time.Hour)

	require.NoError(t, f.mod.Approve(context.Background(), "rep-1", "admin-1", ApproveInput{
		Title: "Structure fire, 5th St", Severity: domain.SeverityHigh,
	}))

	require.NoError(t, f.mod.EditApproved(context.Background(), "rep-1", "admin-2", EditInput{
		Description: "fire contained, road still closed",
	}))

	event, err := f.events.FindByReportID(context.Background(), "rep-1")
	require.NoError(t, err)
	assert.Equal(t, "fire contained, road still closed", event.Description)
	assert.Equal(t, "Structure fire, 5th St", event.Title, "unedited fields survive")
	assert.Len(t, f.events.events, 1, "edit must not create a second event")

	entries, _ := f.audit.ListByReport(context.Background(), "rep-1")
	require.Len(t, entries, 2)
	assert.Equal(t, domain.AuditEdit, entries[1].Action)
}

func TestEditApproved_NoLinkedEventStillSucceeds(t *testing.T) {
	f := newModerationFixture(t)
	f.addPending(t, "rep-1", time.Hour)

	require.NoError(t, f.mod.EditApproved(context.Background(), "rep-1", "admin-1", EditInput{
		Title: "Updated title",
	}))

	report, err := f.reports.Get(context.Background(), "rep-1")
	require.NoError(t, err)
	assert.Equal(t, "Updated title", report.Title)
}

func TestHideFromAdmin_Embargo(t *testing.T) {
	freezeClock(t)
	f := newModerationFixture(t)

	t.Run("ten days old fails", func(t *testing.T) {
		f.addPending(t, "young", 10*24*time.Hour)

		err := f.mod.HideFromAdmin(context.Background(), "young", "admin-1")
		require.ErrorIs(t, err, ErrEmbargo)

		report, _ := f.reports.Get(context.Background(), "young")
		assert.False(t, report.HiddenInAdmin, "failed hide must not mutate")
	})

	t.Run("twenty-five days old succeeds", func(t *testing.T) {
		f.addPending(t, "old", 25*24*time.Hour)

		require.NoError(t, f.mod.HideFromAdmin(context.Background(), "old", "admin-1"))

		report, _ := f.reports.Get(context.Background(), "old")
		assert.True(t, report.HiddenInAdmin)
		assert.Equal(t, "admin-1", report.HiddenBy)
		require.NotNil(t, report.HiddenAt)
	})

	t.Run("already hidden is a no-op", func(t *testing.T) {
		require.NoError(t, f.mod.HideFromAdmin(context.Background(), "old", "admin-2"))
		report, _ := f.reports.Get(context.Background(), "old")
		assert.Equal(t, "admin-1", report.HiddenBy, "first hider stands")
	})
}

func TestHideClusterFromAdmin(t *testing.T) {
	freezeClock(t)
	f := newModerationFixture(t)
	f.addPending(t, "old-1", 30*24*time.Hour)
	f.addPending(t, "old-2", 25*24*time.Hour)
	f.addPending(t, "young", 5*24*time.Hour)

	t.Run("partial batch", func(t *testing.T) {
		hidden, err := f.mod.HideClusterFromAdmin(context.Background(),
			[]string{"old-1", "young", "old-2", "missing"}, "admin-1")
		require.NoError(t, err)
		assert.Equal(t, 2, hidden)

		young, _ := f.reports.Get(context.Background(), "young")
		assert.False(t, young.HiddenInAdmin)
	})

	t.Run("zero eligible is a no-op success", func(t *testing.T) {
		hidden, err := f.mod.HideClusterFromAdmin(context.Background(), []string{"young"}, "admin-1")
		require.NoError(t, err)
		assert.Zero(t, hidden)
	})

	t.Run("retry tolerates prior success", func(t *testing.T) {
		hidden, err := f.mod.HideClusterFromAdmin(context.Background(),
			[]string{"old-1", "old-2"}, "admin-1")
		require.NoError(t, err)
		assert.Zero(t, hidden, "already-hidden reports are skipped, not erred")
	})
}

func TestDeletePermanently_Cascades(t *testing.T) {
	freezeClock(t)
	f := newModerationFixture(t)
	f.addPending(t, "rep-1", time.Hour)

	require.NoError(t, f.mod.Approve(context.Background(), "rep-1", "admin-1", ApproveInput{
		Title: "Structure fire, 5th St", Severity: domain.SeverityHigh,
	}))
	require.Len(t, f.events.events, 1)

	require.NoError(t, f.mod.DeletePermanently(context.Background(), "rep-1", "admin-1"))

	_, err := f.reports.Get(context.Background(), "rep-1")
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, f.events.events, "linked event removed with the report")

	// The nearby view no longer serves the event.
	result := f.engine.QueryNearby(context.Background(), NearbyQuery{Lat: 41.0, Lng: 29.0})
	assert.Empty(t, result.Events)

	// Audit trail survives the deletion and records it.
	entries, _ := f.audit.ListByReport(context.Background(), "rep-1")
	require.Len(t, entries, 2)
	assert.Equal(t, domain.AuditApprove, entries[0].Action)
	assert.Equal(t, domain.AuditDelete, entries[1].Action)
}

func TestDeletePermanently_RetrySafe(t *testing.T) {
	f := newModerationFixture(t)
	f.addPending(t, "rep-1", time.Hour)

	require.NoError(t, f.mod.DeletePermanently(context.Background(), "rep-1", "admin-1"))
	require.NoError(t, f.mod.DeletePermanently(context.Background(), "rep-1", "admin-1"))

	entries, _ := f.audit.ListByReport(context.Background(), "rep-1")
	assert.Len(t, entries, 1, "retry writes no duplicate audit entry")
}

func TestModeration_ClockFrozen(t *testing.T) {
	fixed := clockwork.NewFakeClockAt(time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC))
	domain.SetClock(fixed)
	defer domain.SetClock(nil)

	f := newModerationFixture(t)
	f.addPending(t, "rep-1", time.Hour)

	require.NoError(t, f.mod.Reject(context.Background(), "rep-1", "admin-1"))

	report, _ := f.reports.Get(context.Background(), "rep-1")
	require.NotNil(t, report.ReviewedAt)
	assert.Equal(t, fixed.Now().UTC(), *report.ReviewedAt)
}

func TestApprove_EmptyFieldsKeepStoredValues(t *testing.T) {
	f := newModerationFixture(t)
	f.addPending(t, "rep-1", time.Hour)

	require.NoError(t, f.mod.Approve(context.Background(), "rep-1", "admin-1", ApproveInput{
		Title:       "Structure fire, 5th St",
		Description: "confirmed structure fire",
		Severity:    domain.SeverityHigh,
	}))

	// Re-approving with a sparse payload must not clear anything.
	require.NoError(t, f.mod.Approve(context.Background(), "rep-1", "admin-2", ApproveInput{}))

	report, err := f.reports.Get(context.Background(), "rep-1")
	require.NoError(t, err)
	assert.Equal(t, "Structure fire, 5th St", report.Title)
	assert.Equal(t, "confirmed structure fire", report.Description)
	assert.Equal(t, domain.SeverityHigh, report.Severity)
	assert.Equal(t, "admin-2", report.ReviewedBy)

	event, err := f.events.FindByReportID(context.Background(), "rep-1")
	require.NoError(t, err)
	assert.Equal(t, "Structure fire, 5th St", event.Title)
	assert.Equal(t, domain.SeverityHigh, event.Severity)
}
