package geocode

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidhaven/incident-aggregation/internal/domain"
)

// --- mock for cache tests ---

type countingGeocoder struct {
	calls  int
	result domain.GeocodingResult
}

func (m *countingGeocoder) ForwardGeocode(_ context.Context, _ string) (domain.GeocodingResult, error) {
	m.calls++
	return m.result, nil
}

// --- CachedGeocoder tests ---

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{Lat: 40.99, Lng: 29.03, PlaceName: "Kadikoy", FormattedAddress: "Kadikoy, Istanbul"},
	}
	cached := NewCachedGeocoder(inner, 10)

	r1, err := cached.ForwardGeocode(context.Background(), "Kadikoy, Istanbul")
	require.NoError(t, err)
	assert.Equal(t, "Kadikoy", r1.PlaceName)

	r2, err := cached.ForwardGeocode(context.Background(), "Kadikoy, Istanbul")
	require.NoError(t, err)
	assert.Equal(t, "Kadikoy", r2.PlaceName)

	assert.Equal(t, 1, inner.calls, "should only call inner once")
}

func TestCachedGeocoder_KeyIgnoresCase(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{PlaceName: "Kadikoy", FormattedAddress: "Kadikoy, Istanbul"},
	}
	cached := NewCachedGeocoder(inner, 10)

	_, _ = cached.ForwardGeocode(context.Background(), "KADIKOY")
	_, _ = cached.ForwardGeocode(context.Background(), "  kadikoy ")

	assert.Equal(t, 1, inner.calls)
}

func TestCachedGeocoder_DifferentKeysMiss(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{PlaceName: "Place", FormattedAddress: "Place, Istanbul"},
	}
	cached := NewCachedGeocoder(inner, 10)

	_, _ = cached.ForwardGeocode(context.Background(), "Kadikoy")
	_, _ = cached.ForwardGeocode(context.Background(), "Besiktas")

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_EmptyResultNotCached(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeocodingResult{}}
	cached := NewCachedGeocoder(inner, 10)

	_, _ = cached.ForwardGeocode(context.Background(), "nowhere")
	_, _ = cached.ForwardGeocode(context.Background(), "nowhere")

	assert.Equal(t, 2, inner.calls, "misses should be retried, not cached")
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put("a", domain.GeocodingResult{PlaceName: "A"})
	c.put("b", domain.GeocodingResult{PlaceName: "B"})

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", result.PlaceName)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.GeocodingResult{PlaceName: "A"})
	c.put("b", domain.GeocodingResult{PlaceName: "B"})
	c.put("c", domain.GeocodingResult{PlaceName: "C"}) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	result, ok := c.get("b")
	assert.True(t, ok)
	assert.Equal(t, "B", result.PlaceName)

	result, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, "C", result.PlaceName)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.GeocodingResult{PlaceName: "A"})
	c.put("b", domain.GeocodingResult{PlaceName: "B"})

	// Access "a" to promote it
	c.get("a")

	c.put("c", domain.GeocodingResult{PlaceName: "C"})

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.GeocodingResult{PlaceName: "A1"})
	c.put("a", domain.GeocodingResult{PlaceName: "A2"})

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A2", result.PlaceName)
}
