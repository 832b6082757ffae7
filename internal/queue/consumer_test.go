package queue

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatActivity_BookingCreated(t *testing.T) {
	body, err := json.Marshal(BookingCreatedEvent{
		BookingID:  3,
		FanID:      7,
		EventID:    11,
		EventTitle: "Live Set",
		VenueName:  "Blue Frog",
		EventDate:  time.Date(2025, 3, 15, 19, 0, 0, 0, time.UTC),
		BookedAt:   time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	line, err := FormatActivity(QueueBookingCreated, body)
	require.NoError(t, err)
	assert.Equal(t,
		"[2025-03-01T08:30:00Z] Booking created | booking_id=3 | fan_id=7 | event_id=11 | event=\"Live Set\" | venue=\"Blue Frog\" | date=2025-03-15\n",
		line)
}

func TestFormatActivity_Errors(t *testing.T) {
	_, err := FormatActivity(QueueEventDeleted, []byte("{"))
	assert.Error(t, err)

	_, err = FormatActivity("other.queue", []byte("{}"))
	assert.Error(t, err)
}

func TestHandleMessage_Appends(t *testing.T) {
	dir := t.TempDir()
	c := NewConsumer("amqp://unused", dir, slog.New(slog.DiscardHandler))

	body, err := json.Marshal(EventDeletedEvent{EventID: 1, ArtistID: 2, Title: "A", BookingsRemoved: 4})
	require.NoError(t, err)
	require.NoError(t, c.handleMessage(QueueEventDeleted, body))
	require.NoError(t, c.handleMessage(QueueEventDeleted, body))

	data, err := os.ReadFile(filepath.Join(dir, ActivityLogFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "bookings_removed=4")
	assert.Equal(t, 2, countLines(data))
}

func countLines(b []byte) int {
	n := 0
	for _, c := range b {
		if c == '\n' {
			n++
		}
	}
	return n
}
