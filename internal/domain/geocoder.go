package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lng              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Geocoder resolves a free-text address label to coordinates. Used
// best-effort at submission time when a report carries an address but no
// coordinates; failures leave the report coordinate-less, which is a valid
// state (such reports still cluster, they just cannot be distance-ranked).
type Geocoder interface {
	ForwardGeocode(ctx context.Context, address string) (GeocodingResult, error)
}
