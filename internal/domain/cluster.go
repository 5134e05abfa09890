package domain

import "strings"

// ClusterKey derives the deterministic NearbyEvent ID for a
// (category, location label) pair: the lowercased category, a "__" separator,
// and the label lowercased with each whitespace run collapsed to a single
// underscore. "fire" + "Istanbul / Kadikoy" -> "fire__istanbul_/_kadikoy".
//
// The key is a pure function of its inputs, which is what makes repeated
// promotions of the same cluster converge on one record: concurrent
// evaluations race only to upsert the same ID.
func ClusterKey(category, label string) string {
	normalized := strings.Join(strings.Fields(label), "_")
	return strings.ToLower(category) + "__" + strings.ToLower(normalized)
}

// ClusterTitle builds the display title for a promoted cluster:
// the uppercased category and the label as submitted.
// "fire" + "Istanbul / Kadikoy" -> "FIRE - Istanbul / Kadikoy".
func ClusterTitle(category, label string) string {
	return strings.ToUpper(category) + " - " + label
}
