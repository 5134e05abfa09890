package domain

import "time"

// ReportStatus is the moderation state of a report.
// Pending reports move forward to approved or rejected and never back.
type ReportStatus string

const (
	StatusPending  ReportStatus = "pending"
	StatusApproved ReportStatus = "approved"
	StatusRejected ReportStatus = "rejected"
)

// Severity grades an incident for display. Auto-promoted clusters always
// carry SeverityMedium; moderators assign severity explicitly on approval.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ValidSeverity reports whether s is a recognized severity grade.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Category codes accepted on submission. The first five plus "other" are the
// legacy six-value set the original submission form offered; the crime
// categories were added later. Both generations validate.
const (
	CategoryFire       = "fire"
	CategoryFlood      = "flood"
	CategoryEarthquake = "earthquake"
	CategoryStorm      = "storm"
	CategoryLandslide  = "landslide"
	CategoryAssault    = "assault"
	CategoryRobbery    = "robbery"
	CategoryAbduction  = "abduction"
	CategoryOther      = "other"
)

// Categories lists every recognized category code.
var Categories = []string{
	CategoryFire, CategoryFlood, CategoryEarthquake, CategoryStorm,
	CategoryLandslide, CategoryAssault, CategoryRobbery, CategoryAbduction,
	CategoryOther,
}

// ValidCategory reports whether c is a recognized category code.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Location is a report's place. Coordinates and the display address are each
// optional, but downstream consumers rely on at least one being present:
// the clusterer groups by Address, the nearby engine ranks by coordinates.
type Location struct {
	Lat     *float64 `json:"lat,omitempty" bson:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty" bson:"lng,omitempty"`
	Address string   `json:"address,omitempty" bson:"address,omitempty"`
}

// HasCoords reports whether both coordinates are set.
func (l Location) HasCoords() bool {
	return l.Lat != nil && l.Lng != nil
}

// Report is a single citizen incident submission.
type Report struct {
	ID          string       `json:"id" bson:"_id"`
	UserID      string       `json:"userId" bson:"userId"`
	Category    string       `json:"category" bson:"category"`
	Description string       `json:"description" bson:"description"`
	Location    Location     `json:"location" bson:"location"`
	Status      ReportStatus `json:"status" bson:"status"`

	// Moderator-assigned fields, empty until review.
	Title    string   `json:"title,omitempty" bson:"title,omitempty"`
	Severity Severity `json:"severity,omitempty" bson:"severity,omitempty"`

	ReviewedBy string     `json:"reviewedBy,omitempty" bson:"reviewedBy,omitempty"`
	ReviewedAt *time.Time `json:"reviewedAt,omitempty" bson:"reviewedAt,omitempty"`

	// HiddenInAdmin suppresses the report from the moderation console only.
	// It never deletes data and never affects public nearby events.
	HiddenInAdmin bool       `json:"hiddenInAdmin" bson:"hiddenInAdmin"`
	HiddenBy      string     `json:"hiddenBy,omitempty" bson:"hiddenBy,omitempty"`
	HiddenAt      *time.Time `json:"hiddenAt,omitempty" bson:"hiddenAt,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// HideEmbargo is the minimum report age before a moderator may hide it from
// the admin console.
const HideEmbargo = 24 * 24 * time.Hour

// HideEligible reports whether the report is old enough to be hidden from
// the moderation console at time now.
func (r Report) HideEligible(now time.Time) bool {
	return now.Sub(r.CreatedAt) >= HideEmbargo
}
