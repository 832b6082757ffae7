// Package geocoding resolves free-text addresses to coordinates through an
// external Nominatim-compatible HTTP service.
package geocoding

import (
	"context"
	"errors"

	"github.com/iliyamo/artist-map-tracker/internal/model"
)

var (
	// ErrNoResult means the service returned no candidate for the address.
	ErrNoResult = errors.New("unable to geocode venue address")
	// ErrInvalidCoordinates means the first candidate had non-numeric lat/lon.
	ErrInvalidCoordinates = errors.New("invalid geocoding coordinates")
)

// Geocoder turns an address into a point.  Implementations do not retry.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (model.GeoPoint, error)
}
