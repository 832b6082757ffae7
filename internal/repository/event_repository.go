// Package repository contains data access logic for events.  An Event is a
// performance by one artist at one venue on one calendar day; reads join
// the venue and artist rows so callers get a fully populated value.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/artist-map-tracker/internal/model"
)

// EventRepo manages persistence for events.
type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// dayLayout is the format of the event_day DATE column.
const dayLayout = "2006-01-02"

const eventSelect = `SELECT
		e.id, e.artist_id, e.venue_id, e.title, COALESCE(e.description, ''),
		e.event_date, e.start_time, e.end_time, e.created_at, e.updated_at,
		v.id, v.name, v.address, v.city, v.state, v.country,
		ST_Latitude(v.location), ST_Longitude(v.location), v.created_at, v.updated_at,
		a.id, a.account_id, a.stage_name, a.bio, a.city, a.instagram, a.youtube,
		a.created_at, a.updated_at
	FROM events e
	JOIN venues v  ON v.id = e.venue_id
	JOIN artists a ON a.id = e.artist_id`

// EventFilter restricts List.  A nil VenueIDs means no venue restriction;
// a non-nil empty slice matches nothing.
type EventFilter struct {
	VenueIDs []uint64
	ArtistID uint64
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(s rowScanner) (model.Event, error) {
	var (
		e model.Event
		v model.Venue
		a model.Artist
	)
	err := s.Scan(
		&e.ID, &e.ArtistID, &e.VenueID, &e.Title, &e.Description,
		&e.EventDate, &e.StartTime, &e.EndTime, &e.CreatedAt, &e.UpdatedAt,
		&v.ID, &v.Name, &v.Address, &v.City, &v.State, &v.Country,
		&v.Location.Lat, &v.Location.Lng, &v.CreatedAt, &v.UpdatedAt,
		&a.ID, &a.AccountID, &a.StageName, &a.Bio, &a.City,
		&a.SocialLinks.Instagram, &a.SocialLinks.YouTube, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return model.Event{}, err
	}
	e.Venue = &v
	e.Artist = &a
	return e, nil
}

// CreateExclusive inserts e unless the venue is taken on that day.  The
// venue row is locked for the duration of the transaction so concurrent
// creators for the same venue are serialized.  dayStart and dayEnd bound
// the calendar day of e.EventDate.
//
// Returns ErrNotFound if the venue does not exist, ErrConflict if another
// artist holds the venue within the window and ErrDuplicate if e.ArtistID
// already does.  On success e.ID is set.
func (r *EventRepo) CreateExclusive(ctx context.Context, e *model.Event, dayStart, dayEnd time.Time) (err error) {
	const op = "repository.EventRepo.CreateExclusive"

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var venueID uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM venues WHERE id = ? FOR UPDATE`, e.VenueID).Scan(&venueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s: venue %d: %w", op, e.VenueID, ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var others, own int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(artist_id <> ?), 0), COALESCE(SUM(artist_id = ?), 0)
		 FROM events WHERE venue_id = ? AND event_date >= ? AND event_date < ?`,
		e.ArtistID, e.ArtistID, e.VenueID, dayStart, dayEnd,
	).Scan(&others, &own)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if others > 0 {
		return ErrConflict
	}
	if own > 0 {
		return ErrDuplicate
	}

	var desc any
	if e.Description != "" {
		desc = e.Description
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO events (artist_id, venue_id, title, description, event_date, event_day, start_time, end_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ArtistID, e.VenueID, e.Title, desc, e.EventDate, dayStart.Format(dayLayout), e.StartTime, e.EndTime)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	e.ID = uint64(id)
	return nil
}

// GetByID returns the event joined with its venue and artist.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	ev, err := scanEvent(r.db.QueryRowContext(ctx, eventSelect+" WHERE e.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrNotFound
	}
	return ev, err
}

// List returns one page of events matching f ordered by date, plus the
// total number of matches.
func (r *EventRepo) List(ctx context.Context, f EventFilter, p model.Page) ([]model.Event, int64, error) {
	where := []string{}
	args := []any{}

	if f.VenueIDs != nil {
		if len(f.VenueIDs) == 0 {
			return []model.Event{}, 0, nil
		}
		where = append(where, "e.venue_id IN ("+placeholders(len(f.VenueIDs))+")")
		for _, id := range f.VenueIDs {
			args = append(args, id)
		}
	}
	if f.ArtistID != 0 {
		where = append(where, "e.artist_id = ?")
		args = append(args, f.ArtistID)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events e WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	argsData := append(append([]any{}, args...), p.Limit, p.Offset())
	rows, err := r.db.QueryContext(ctx,
		eventSelect+" WHERE "+cond+" ORDER BY e.event_date ASC, e.id ASC LIMIT ? OFFSET ?", argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Event, 0, p.Limit)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetByIDs returns the events with the given ids keyed by id.  Missing ids
// are absent from the map.
func (r *EventRepo) GetByIDs(ctx context.Context, ids []uint64) (map[uint64]model.Event, error) {
	out := make(map[uint64]model.Event, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx,
		eventSelect+" WHERE e.id IN ("+placeholders(len(ids))+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out[ev.ID] = ev
	}
	return out, rows.Err()
}

// DeleteByIDAndArtist removes an event and its bookings provided the event
// belongs to artistID.  Both deletes run in one transaction.  Returns
// ErrNotFound or ErrForbidden, and the number of bookings removed.
func (r *EventRepo) DeleteByIDAndArtist(ctx context.Context, id, artistID uint64) (removed int64, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	// Ensure rollback or commit at the end
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var owner uint64
	err = tx.QueryRowContext(ctx, `SELECT artist_id FROM events WHERE id = ? FOR UPDATE`, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	if owner != artistID {
		return 0, ErrForbidden
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE event_id = ?`, id)
	if err != nil {
		return 0, err
	}
	removed, _ = res.RowsAffected()
	if _, err = tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id); err != nil {
		return 0, err
	}
	return removed, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
