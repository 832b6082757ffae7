package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/artist-map-tracker/internal/model"
)

func TestBookingRepo_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db, NewEventRepo(db))
	insert := regexp.QuoteMeta("INSERT INTO bookings (fan_id, event_id) SELECT ?, id FROM events WHERE id = ?")

	mock.ExpectExec(insert).WithArgs(3, 8).WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT booked_at FROM bookings")).WithArgs(12).
		WillReturnRows(sqlmock.NewRows([]string{"booked_at"}).AddRow(time.Now()))
	b, err := repo.Create(context.Background(), 3, 8)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), b.ID)

	mock.ExpectExec(insert).WithArgs(3, 8).WillReturnError(&mysql.MySQLError{Number: 1062})
	_, err = repo.Create(context.Background(), 3, 8)
	assert.ErrorIs(t, err, ErrDuplicate)

	mock.ExpectExec(insert).WithArgs(3, 99).WillReturnResult(sqlmock.NewResult(0, 0))
	_, err = repo.Create(context.Background(), 3, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookingRepo_Delete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db, NewEventRepo(db))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bookings WHERE fan_id = ? AND event_id = ?")).
		WithArgs(3, 8).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), 3, 8), ErrNotFound)
}

func TestBookingRepo_ListEventsForFan_DropsMissingEvents(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db, NewEventRepo(db))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bookings WHERE fan_id = ?")).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT event_id FROM bookings WHERE fan_id = ? ORDER BY booked_at DESC")).
		WithArgs(3, 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"event_id"}).AddRow(30).AddRow(20).AddRow(10))
	rows := sqlmock.NewRows(eventCols)
	addEventRow(rows, 10, 1, 2)
	addEventRow(rows, 30, 1, 2)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.id IN (?,?,?)")).WithArgs(30, 20, 10).WillReturnRows(rows)

	events, total, err := repo.ListEventsForFan(context.Background(), 3, model.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, events, 2)
	assert.Equal(t, uint64(30), events[0].ID)
	assert.Equal(t, uint64(10), events[1].ID)
}
