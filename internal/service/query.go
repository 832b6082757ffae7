package service

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/artist-map-tracker/internal/model"
)

// DefaultDistanceKm is the radius used when a location filter has no
// explicit distance.
const DefaultDistanceKm = 10

// EventQuery is a validated GET /events request.
type EventQuery struct {
	Text       string          // venue text search
	Point      *model.GeoPoint // explicit lat/lng
	Location   string          // free text to geocode; overrides Point
	DistanceKm float64
	Page       model.Page
}

// HasVenueFilter reports whether the query restricts venues at all.
func (q EventQuery) HasVenueFilter() bool {
	return q.Text != "" || q.Point != nil || q.Location != ""
}

// ParseEventQuery validates raw query parameters.  Rules, in order: lat and
// lng must come together, distance (default 10) must be a positive number,
// and lat/lng must form a valid WGS84 point.  Text search reads venue, venueName or q.
func ParseEventQuery(v url.Values) (EventQuery, error) {
	q := EventQuery{
		Page:       model.NewPage(atoiOrZero(v.Get("page")), atoiOrZero(v.Get("limit"))),
		DistanceKm: DefaultDistanceKm,
	}

	lat, lng := strings.TrimSpace(v.Get("lat")), strings.TrimSpace(v.Get("lng"))
	if (lat == "") != (lng == "") {
		return EventQuery{}, invalidQuery("Both lat and lng are required for location filtering")
	}

	if v.Has("distance") {
		d, err := strconv.ParseFloat(strings.TrimSpace(v.Get("distance")), 64)
		if err != nil || math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
			return EventQuery{}, invalidQuery("distance must be a valid positive number")
		}
		q.DistanceKm = d
	}

	for _, key := range []string{"venue", "venueName", "q"} {
		if s := strings.TrimSpace(v.Get(key)); s != "" {
			q.Text = s
			break
		}
	}

	if lat != "" {
		la, errLat := strconv.ParseFloat(lat, 64)
		ln, errLng := strconv.ParseFloat(lng, 64)
		if errLat != nil || errLng != nil {
			return EventQuery{}, invalidQuery("lat and lng must be valid numbers")
		}
		p := model.GeoPoint{Lat: la, Lng: ln}
		if !p.Valid() {
			return EventQuery{}, invalidQuery("lat and lng must be valid numbers")
		}
		q.Point = &p
	}

	q.Location = strings.TrimSpace(v.Get("location"))
	return q, nil
}

// RadiusMeters converts the kilometre distance to the spatial index unit.
func (q EventQuery) RadiusMeters() float64 { return q.DistanceKm * 1000 }

// atoiOrZero treats anything non-numeric as missing.
func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		f, ferr := strconv.ParseFloat(strings.TrimSpace(s), 64)
		switch {
		case ferr != nil || math.IsNaN(f):
			return 0
		case f >= math.MaxInt32:
			return math.MaxInt32
		case f <= math.MinInt32:
			return math.MinInt32
		}
		return int(f)
	}
	return n
}

var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseEventDate accepts RFC 3339 instants or zone-less local forms, which
// are read in loc.
func ParseEventDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidEventDate
}
