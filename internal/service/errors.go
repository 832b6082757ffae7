package service

import "errors"

// Errors returned by EventService.  Their text is safe to show to clients.
var (
	ErrArtistProfileNotFound = errors.New("Artist profile not found")
	ErrEventNotFound         = errors.New("Event not found")
	ErrNotEventOwner         = errors.New("You are not allowed to delete this event")
	ErrVenueOccupied         = errors.New("Venue is already occupied by another artist on this date")
	ErrDuplicateEvent        = errors.New("Duplicate event: same artist, venue and date already exists")
	ErrAlreadyBooked         = errors.New("You have already booked this event")
	ErrBookingNotFound       = errors.New("Booking not found")
	ErrInvalidQuery          = errors.New("invalid query")
	ErrInvalidEventDate      = errors.New(`"eventDate" must be a valid date`)
)

// QueryError is a rejected list query.  It matches ErrInvalidQuery.
type QueryError struct{ Message string }

func (e *QueryError) Error() string { return e.Message }

func (e *QueryError) Is(target error) bool { return target == ErrInvalidQuery }

func invalidQuery(msg string) error { return &QueryError{Message: msg} }
