package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/iliyamo/artist-map-tracker/internal/config"
	"github.com/iliyamo/artist-map-tracker/internal/metrics"
	"github.com/iliyamo/artist-map-tracker/internal/model"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "artist-map-tracker/1.0 (contact@example.com)"
)

var tracer = otel.Tracer("github.com/iliyamo/artist-map-tracker/internal/geocoding")

// Nominatim calls GET {BaseURL}/search?q=...&format=jsonv2&limit=1.
// Nominatim's usage policy requires an identifying User-Agent.
type Nominatim struct {
	HTTP      *http.Client
	BaseURL   string
	UserAgent string
	Metrics   *metrics.Metrics
}

func NewNominatim(cfg config.GeocodingConfig, m *metrics.Metrics) *Nominatim {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Nominatim{
		HTTP: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		BaseURL:   strings.TrimRight(base, "/"),
		UserAgent: ua,
		Metrics:   m,
	}
}

// place is the subset of a jsonv2 search result we read.  lat and lon
// arrive as strings.
type place struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (n *Nominatim) Geocode(ctx context.Context, address string) (model.GeoPoint, error) {
	ctx, span := tracer.Start(ctx, "geocoding.Nominatim.Geocode")
	defer span.End()
	span.SetAttributes(attribute.String("geocoding.address", address))

	p, err := n.search(ctx, address)
	switch {
	case err == nil:
		n.Metrics.GeocodeResult("ok")
		span.SetAttributes(attribute.Float64("geocoding.lat", p.Lat), attribute.Float64("geocoding.lng", p.Lng))
	case err == ErrNoResult || err == ErrInvalidCoordinates:
		n.Metrics.GeocodeResult("no_result")
		span.SetStatus(codes.Error, err.Error())
	default:
		n.Metrics.GeocodeResult("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return p, err
}

func (n *Nominatim) search(ctx context.Context, address string) (model.GeoPoint, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "jsonv2")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.BaseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return model.GeoPoint{}, fmt.Errorf("geocoding request: %w", err)
	}
	req.Header.Set("User-Agent", n.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.HTTP.Do(req)
	if err != nil {
		return model.GeoPoint{}, fmt.Errorf("geocoding http error: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return model.GeoPoint{}, fmt.Errorf("geocoding bad status: %s", resp.Status)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return model.GeoPoint{}, fmt.Errorf("geocoding decode: %w", err)
	}
	if len(places) == 0 {
		return model.GeoPoint{}, ErrNoResult
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(places[0].Lat), 64)
	if err != nil {
		return model.GeoPoint{}, ErrInvalidCoordinates
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(places[0].Lon), 64)
	if err != nil {
		return model.GeoPoint{}, ErrInvalidCoordinates
	}
	p := model.GeoPoint{Lat: lat, Lng: lng}
	if !p.Valid() {
		return model.GeoPoint{}, ErrInvalidCoordinates
	}
	return p, nil
}
