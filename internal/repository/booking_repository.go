package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/artist-map-tracker/internal/model"
)

// BookingRepo manages fan bookings.  (fan_id, event_id) is UNIQUE.
type BookingRepo struct {
	db     *sql.DB
	events *EventRepo
}

func NewBookingRepo(db *sql.DB, events *EventRepo) *BookingRepo {
	return &BookingRepo{db: db, events: events}
}

// Create records a booking.  A second booking of the same event by the
// same fan yields ErrDuplicate; an unknown event yields ErrNotFound.
func (r *BookingRepo) Create(ctx context.Context, fanID, eventID uint64) (model.Booking, error) {
	const op = "repository.BookingRepo.Create"

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO bookings (fan_id, event_id) SELECT ?, id FROM events WHERE id = ?", fanID, eventID)
	if err != nil {
		if isDuplicateKey(err) {
			return model.Booking{}, fmt.Errorf("%s: %w", op, ErrDuplicate)
		}
		return model.Booking{}, fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Booking{}, fmt.Errorf("%s: event %d: %w", op, eventID, ErrNotFound)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Booking{}, fmt.Errorf("%s: %w", op, err)
	}
	b := model.Booking{ID: uint64(id), FanID: fanID, EventID: eventID}
	err = r.db.QueryRowContext(ctx, "SELECT booked_at FROM bookings WHERE id = ?", b.ID).Scan(&b.BookedAt)
	if err != nil {
		return model.Booking{}, fmt.Errorf("%s: %w", op, err)
	}
	return b, nil
}

// Delete cancels the fan's booking of eventID or returns ErrNotFound.
func (r *BookingRepo) Delete(ctx context.Context, fanID, eventID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM bookings WHERE fan_id = ? AND event_id = ?", fanID, eventID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListEventsForFan returns one page of the fan's bookings, newest first,
// resolved to events.  Bookings whose event no longer resolves are
// dropped from the page; the returned total counts bookings.
func (r *BookingRepo) ListEventsForFan(ctx context.Context, fanID uint64, p model.Page) ([]model.Event, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings WHERE fan_id = ?", fanID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT event_id FROM bookings WHERE fan_id = ? ORDER BY booked_at DESC, id DESC LIMIT ? OFFSET ?`,
		fanID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	ids := []uint64{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	byID, err := r.events.GetByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	out := make([]model.Event, 0, len(ids))
	for _, id := range ids {
		if ev, ok := byID[id]; ok {
			out = append(out, ev)
		}
	}
	return out, total, nil
}
