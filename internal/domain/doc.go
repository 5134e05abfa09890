// Package domain models citizen incident reports and the standing nearby
// events derived from them.
//
// # Reports
//
// A report is a single user submission: a category, a free-text description,
// and a location that may carry coordinates, a display address, or both.
// Reports enter the system as "pending" and move forward only through
// moderation: approval or rejection, plus an orthogonal moderator-console
// hide flag that never affects public data.
//
// # Nearby events
//
// A nearby event is a standing, publicly queryable aggregate. It originates
// from one of three sources, discriminated by the Source field:
//
//	cluster	  - promoted automatically when enough reports share a
//	            (category, location label) pair. Its ID is a deterministic
//	            key derived from that pair, so repeated promotions upsert
//	            the same record instead of duplicating it.
//	report	  - republished from a single moderator-approved report,
//	            back-linked via ReportID for later edit propagation.
//	simulated - seeded test/demo data.
//
// # Location labels
//
// Clustering groups reports by the exact (category, address label) string
// pair. The deterministic cluster key lowercases the pair and collapses
// whitespace, but the count itself uses exact equality, so formatting
// variants of the same place form separate clusters. See ClusterKey.
package domain
