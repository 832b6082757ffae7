package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iliyamo/artist-map-tracker/internal/model"
)

// VenueRepo stores geocoded venues.  Locations are POINT columns in SRID
// 4326; WKT is always written in longitude-latitude order.
type VenueRepo struct{ db *sql.DB }

func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{db: db} }

const venueColumns = `id,name,address,city,state,country,
	ST_Latitude(location),ST_Longitude(location),created_at,updated_at`

// VenueFilter narrows FindIDs.  Zero values disable a criterion; set
// criteria are combined with AND.
type VenueFilter struct {
	Text         string          // case-insensitive substring of name/address/city/state/country
	Near         *model.GeoPoint // centre of a radius search
	RadiusMeters float64
}

// Empty reports whether no criterion is set.
func (f VenueFilter) Empty() bool {
	return strings.TrimSpace(f.Text) == "" && f.Near == nil
}

// pointWKT renders p for ST_GeomFromText with axis-order=long-lat.
func pointWKT(p model.GeoPoint) string {
	return "POINT(" + strconv.FormatFloat(p.Lng, 'f', -1, 64) + " " +
		strconv.FormatFloat(p.Lat, 'f', -1, 64) + ")"
}

// escapeLike escapes the LIKE metacharacters so s matches literally.
// Backslash is MySQL's default LIKE escape character.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// GetByNameAddress returns the venue with exactly this (name, address) key.
func (r *VenueRepo) GetByNameAddress(ctx context.Context, name, address string) (model.Venue, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+venueColumns+" FROM venues WHERE name=? AND address=? LIMIT 1", name, address)
	return scanVenue(row)
}

// GetByID returns a single venue.
func (r *VenueRepo) GetByID(ctx context.Context, id uint64) (model.Venue, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+venueColumns+" FROM venues WHERE id=?", id)
	return scanVenue(row)
}

// Create inserts v.  When a concurrent writer inserted the same
// (name, address) first, the existing row is returned instead and v's
// coordinates are discarded.
func (r *VenueRepo) Create(ctx context.Context, v model.Venue) (model.Venue, error) {
	const op = "repository.VenueRepo.Create"

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO venues (name, address, city, state, country, location)
		 VALUES (?,?,?,?,?, ST_GeomFromText(?, 4326, 'axis-order=long-lat'))`,
		v.Name, v.Address, v.City, v.State, v.Country, pointWKT(v.Location))
	if err != nil {
		if isDuplicateKey(err) {
			existing, gerr := r.GetByNameAddress(ctx, v.Name, v.Address)
			if gerr != nil {
				return model.Venue{}, fmt.Errorf("%s: %w", op, gerr)
			}
			return existing, nil
		}
		return model.Venue{}, fmt.Errorf("%s: %w", op, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Venue{}, fmt.Errorf("%s: %w", op, err)
	}
	return r.GetByID(ctx, uint64(id))
}

// FindIDs returns the IDs of venues matching f.  An empty filter matches
// nothing; callers are expected to skip the venue lookup in that case.
func (r *VenueRepo) FindIDs(ctx context.Context, f VenueFilter) ([]uint64, error) {
	if f.Empty() {
		return nil, nil
	}
	where := []string{}
	args := []any{}

	if text := strings.TrimSpace(f.Text); text != "" {
		pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
		where = append(where, `(LOWER(name) LIKE ? OR LOWER(address) LIKE ? OR LOWER(city) LIKE ?
			OR LOWER(state) LIKE ? OR LOWER(country) LIKE ?)`)
		args = append(args, pattern, pattern, pattern, pattern, pattern)
	}
	if f.Near != nil {
		where = append(where,
			"ST_Distance_Sphere(location, ST_GeomFromText(?, 4326, 'axis-order=long-lat')) <= ?")
		args = append(args, pointWKT(*f.Near), f.RadiusMeters)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM venues WHERE "+strings.Join(where, " AND ")+" ORDER BY id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uint64{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanVenue(row *sql.Row) (model.Venue, error) {
	var v model.Venue
	err := row.Scan(&v.ID, &v.Name, &v.Address, &v.City, &v.State, &v.Country,
		&v.Location.Lat, &v.Location.Lng, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Venue{}, ErrNotFound
	}
	return v, err
}
