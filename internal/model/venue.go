package model

import (
	"math"
	"time"
)

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether p is finite and inside the WGS84 latitude and
// longitude ranges.
func (p GeoPoint) Valid() bool {
	for _, v := range []float64{p.Lat, p.Lng} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Venue is a geocoded place where events happen.  (Name, Address) is the
// identity key; the first writer of a key wins and later writers reuse it.
type Venue struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Country   string    `json:"country"`
	Location  GeoPoint  `json:"location"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FullAddress is the free-text string sent to the geocoder.
func (v Venue) FullAddress() string {
	return v.Address + ", " + v.City + ", " + v.State + ", " + v.Country
}
