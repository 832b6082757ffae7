package model

import "time"

// Event is a performance by one artist at one venue on a calendar day.
// StartTime and EndTime are display strings and are not interpreted.
// Venue and Artist are populated when the event is read back joined.
type Event struct {
	ID          uint64    `json:"id"`
	ArtistID    uint64    `json:"artistId"`
	VenueID     uint64    `json:"venueId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	EventDate   time.Time `json:"eventDate"`
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Venue  *Venue  `json:"venue,omitempty"`
	Artist *Artist `json:"artist,omitempty"`
}

// DayWindow returns [start-of-day, start-of-next-day) for t in loc.
func DayWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	lt := t.In(loc)
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
