package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/artist-map-tracker/internal/config"
	"github.com/iliyamo/artist-map-tracker/internal/model"
)

func newTestNominatim(t *testing.T, h http.HandlerFunc) *Nominatim {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewNominatim(config.GeocodingConfig{BaseURL: srv.URL, Timeout: time.Second}, nil)
}

func TestNominatim_Geocode(t *testing.T) {
	n := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "1 MG Road, Bangalore, Karnataka, India", r.URL.Query().Get("q"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"12.9716","lon":"77.5946","display_name":"Bangalore"}]`))
	})

	p, err := n.Geocode(context.Background(), "1 MG Road, Bangalore, Karnataka, India")
	require.NoError(t, err)
	assert.InDelta(t, 12.9716, p.Lat, 1e-9)
	assert.InDelta(t, 77.5946, p.Lng, 1e-9)
}

func TestNominatim_NoResult(t *testing.T) {
	n := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	_, err := n.Geocode(context.Background(), "nowhere")
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestNominatim_InvalidCoordinates(t *testing.T) {
	for _, body := range []string{
		`[{"lat":"north","lon":"77.5"}]`,
		`[{"lat":"NaN","lon":"Infinity"}]`,
		`[{"lat":"12.9","lon":"-Inf"}]`,
		`[{"lat":"100","lon":"77.5"}]`,
		`[{"lat":"12.9","lon":"181"}]`,
	} {
		n := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})
		p, err := n.Geocode(context.Background(), "somewhere")
		assert.ErrorIs(t, err, ErrInvalidCoordinates, body)
		assert.Equal(t, model.GeoPoint{}, p, body)
	}
}

func TestNominatim_BadStatus(t *testing.T) {
	n := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := n.Geocode(context.Background(), "somewhere")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoResult)
	assert.Contains(t, err.Error(), "429")
}
