package domain

import "time"

// EventSource discriminates how a NearbyEvent came to exist.
type EventSource string

const (
	// SourceCluster marks events promoted from a report cluster.
	SourceCluster EventSource = "cluster"
	// SourceReport marks events republished from a single approved report.
	SourceReport EventSource = "report"
	// SourceSimulated marks seeded demo/test events.
	SourceSimulated EventSource = "simulated"
)

// NearbyEvent is a standing, publicly queryable aggregate incident.
// Cluster-derived events use the deterministic ClusterKey as their ID so
// repeated promotions upsert the same record; report-derived events carry a
// store-generated ID plus the ReportID back-reference.
type NearbyEvent struct {
	ID          string      `json:"id" bson:"_id"`
	Source      EventSource `json:"source" bson:"source"`
	Category    string      `json:"category" bson:"category"`
	Title       string      `json:"title" bson:"title"`
	Description string      `json:"description,omitempty" bson:"description,omitempty"`
	Location    Location    `json:"location" bson:"location"`
	Severity    Severity    `json:"severity,omitempty" bson:"severity,omitempty"`

	// ReportCount is the cluster size at the last promotion; zero for
	// report-derived and simulated events.
	ReportCount int `json:"reportCount,omitempty" bson:"reportCount,omitempty"`

	// ReportID links a report-derived event to its source report.
	ReportID string `json:"reportId,omitempty" bson:"reportId,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// EffectiveSeverity returns the event severity, defaulting to medium when unset.
func (e NearbyEvent) EffectiveSeverity() Severity {
	if e.Severity == "" {
		return SeverityMedium
	}
	return e.Severity
}

// AuditAction identifies the moderation action an audit entry records.
type AuditAction string

const (
	AuditApprove AuditAction = "approve"
	AuditReject  AuditAction = "reject"
	AuditEdit    AuditAction = "edit"
	AuditDelete  AuditAction = "delete"
)

// AuditLogEntry is an immutable record of one moderation action. Entries are
// only ever appended; permanent report deletion does not remove them.
type AuditLogEntry struct {
	ID       string      `json:"id" bson:"_id"`
	Action   AuditAction `json:"action" bson:"action"`
	ReportID string      `json:"reportId" bson:"reportId"`
	ActorID  string      `json:"actorId" bson:"actorId"`

	// Snapshot of the report's display fields at the moment of the action.
	Title    string   `json:"title,omitempty" bson:"title,omitempty"`
	Severity Severity `json:"severity,omitempty" bson:"severity,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
