// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the activity log consumer.
package queue

import "time"

const (
	QueueBookingCreated = "booking.created"
	QueueEventDeleted   = "event.deleted"
)

// BookingCreatedEvent is published when a fan books an event.  It carries
// enough information for consumers to log or notify without querying the
// primary database.
type BookingCreatedEvent struct {
	BookingID  uint64    `json:"bookingId"`
	FanID      uint64    `json:"fanId"`
	EventID    uint64    `json:"eventId"`
	EventTitle string    `json:"eventTitle"`
	VenueName  string    `json:"venueName"`
	EventDate  time.Time `json:"eventDate"`
	BookedAt   time.Time `json:"bookedAt"`
}

// EventDeletedEvent is published after an artist deletes an event and its
// bookings.
type EventDeletedEvent struct {
	EventID         uint64    `json:"eventId"`
	ArtistID        uint64    `json:"artistId"`
	Title           string    `json:"title"`
	VenueName       string    `json:"venueName"`
	EventDate       time.Time `json:"eventDate"`
	BookingsRemoved int64     `json:"bookingsRemoved"`
	DeletedAt       time.Time `json:"deletedAt"`
}
