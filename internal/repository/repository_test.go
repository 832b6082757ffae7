package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var eventCols = []string{
	"e.id", "e.artist_id", "e.venue_id", "e.title", "description",
	"e.event_date", "e.start_time", "e.end_time", "e.created_at", "e.updated_at",
	"v.id", "v.name", "v.address", "v.city", "v.state", "v.country",
	"lat", "lng", "v.created_at", "v.updated_at",
	"a.id", "a.account_id", "a.stage_name", "a.bio", "a.city", "a.instagram", "a.youtube",
	"a.created_at", "a.updated_at",
}

func addEventRow(rows *sqlmock.Rows, id, artistID, venueID uint64) *sqlmock.Rows {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return rows.AddRow(
		id, artistID, venueID, "Live Set", "",
		now, "7:00 PM", "10:00 PM", now, now,
		venueID, "Blue Frog", "1 MG Road", "Bangalore", "Karnataka", "India",
		12.9716, 77.5946, now, now,
		artistID, artistID+100, "DJ Test", "", "Bangalore", "", "",
		now, now,
	)
}
