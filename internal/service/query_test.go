package service

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/artist-map-tracker/internal/model"
)

func parse(t *testing.T, raw string) (EventQuery, error) {
	t.Helper()
	v, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return ParseEventQuery(v)
}

func TestParseEventQuery_Defaults(t *testing.T) {
	q, err := parse(t, "")
	require.NoError(t, err)
	assert.Equal(t, model.Page{Page: 1, Limit: 20}, q.Page)
	assert.Equal(t, 10.0, q.DistanceKm)
	assert.False(t, q.HasVenueFilter())
}

func TestParseEventQuery_Pagination(t *testing.T) {
	q, err := parse(t, "page=0&limit=500")
	require.NoError(t, err)
	assert.Equal(t, model.Page{Page: 1, Limit: 100}, q.Page)

	q, err = parse(t, "page=abc&limit=-3")
	require.NoError(t, err)
	assert.Equal(t, model.Page{Page: 1, Limit: 1}, q.Page)

	for _, raw := range []string{"page=9223372036854775807", "page=1e30"} {
		q, err = parse(t, raw)
		require.NoError(t, err)
		assert.Equal(t, model.MaxPage, q.Page.Page, raw)
		assert.Positive(t, q.Page.Offset(), raw)
	}
}

func TestParseEventQuery_LatLngPairing(t *testing.T) {
	_, err := parse(t, "lat=12.9")
	assert.ErrorIs(t, err, ErrInvalidQuery)
	assert.EqualError(t, err, "Both lat and lng are required for location filtering")

	_, err = parse(t, "lng=77.5")
	assert.ErrorIs(t, err, ErrInvalidQuery)

	for _, raw := range []string{"lat=north&lng=77.5", "lat=Inf&lng=77.5", "lat=100&lng=77.5", "lat=12.9&lng=-181", "lat=NaN&lng=1"} {
		_, err = parse(t, raw)
		assert.ErrorIs(t, err, ErrInvalidQuery, raw)
		assert.EqualError(t, err, "lat and lng must be valid numbers", raw)
	}

	q, err := parse(t, "lat=12.9716&lng=77.5946&distance=5")
	require.NoError(t, err)
	assert.Equal(t, &model.GeoPoint{Lat: 12.9716, Lng: 77.5946}, q.Point)
	assert.Equal(t, 5000.0, q.RadiusMeters())
}

func TestParseEventQuery_Distance(t *testing.T) {
	for _, raw := range []string{"distance=0", "distance=-1", "distance=abc", "distance=", "distance=NaN"} {
		_, err := parse(t, raw)
		assert.EqualError(t, err, "distance must be a valid positive number", raw)
	}
	// distance is validated even without a location filter
	_, err := parse(t, "q=pub&distance=-5")
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestParseEventQuery_TextAliases(t *testing.T) {
	q, err := parse(t, "venueName=Blue+Frog&q=ignored")
	require.NoError(t, err)
	assert.Equal(t, "Blue Frog", q.Text)

	q, err = parse(t, "q="+url.QueryEscape("O'Brien's (Pub)"))
	require.NoError(t, err)
	assert.Equal(t, "O'Brien's (Pub)", q.Text)
	assert.True(t, q.HasVenueFilter())
}

func TestParseEventDate(t *testing.T) {
	got, err := ParseEventDate("2025-03-15", ist)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, ist), got)

	got, err = ParseEventDate("2025-03-15T19:00:00Z", ist)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 3, 15, 19, 0, 0, 0, time.UTC)))

	_, err = ParseEventDate("next friday", ist)
	assert.ErrorIs(t, err, ErrInvalidEventDate)
}
