package model

import "time"

// Booking links a fan account to an event.  A fan holds at most one
// booking per event.
type Booking struct {
	ID       uint64    `json:"id"`
	FanID    uint64    `json:"fanId"`
	EventID  uint64    `json:"eventId"`
	BookedAt time.Time `json:"bookedAt"`
}
