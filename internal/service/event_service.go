// Package service holds the event workflows: venue resolution, exclusive
// event creation, venue-filtered queries, bookings and owner-only deletion.
// Storage, geocoding and messaging are reached through small interfaces so
// the workflows can be tested without MySQL, Nominatim or RabbitMQ.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iliyamo/artist-map-tracker/internal/geocoding"
	"github.com/iliyamo/artist-map-tracker/internal/lib/logger/sl"
	"github.com/iliyamo/artist-map-tracker/internal/metrics"
	"github.com/iliyamo/artist-map-tracker/internal/model"
	"github.com/iliyamo/artist-map-tracker/internal/queue"
	"github.com/iliyamo/artist-map-tracker/internal/repository"
)

type VenueStore interface {
	GetByNameAddress(ctx context.Context, name, address string) (model.Venue, error)
	Create(ctx context.Context, v model.Venue) (model.Venue, error)
	FindIDs(ctx context.Context, f repository.VenueFilter) ([]uint64, error)
}

type EventStore interface {
	CreateExclusive(ctx context.Context, e *model.Event, dayStart, dayEnd time.Time) error
	GetByID(ctx context.Context, id uint64) (model.Event, error)
	List(ctx context.Context, f repository.EventFilter, p model.Page) ([]model.Event, int64, error)
	DeleteByIDAndArtist(ctx context.Context, id, artistID uint64) (int64, error)
}

type BookingStore interface {
	Create(ctx context.Context, fanID, eventID uint64) (model.Booking, error)
	Delete(ctx context.Context, fanID, eventID uint64) error
	ListEventsForFan(ctx context.Context, fanID uint64, p model.Page) ([]model.Event, int64, error)
}

type ArtistStore interface {
	GetByAccountID(ctx context.Context, accountID uint64) (model.Artist, error)
}

// Publisher receives domain events after the corresponding write commits.
type Publisher interface {
	PublishBookingCreated(ctx context.Context, ev queue.BookingCreatedEvent) error
	PublishEventDeleted(ctx context.Context, ev queue.EventDeletedEvent) error
}

const publishTimeout = 3 * time.Second

var tracer = otel.Tracer("github.com/iliyamo/artist-map-tracker/internal/service")

type EventService struct {
	log      *slog.Logger
	venues   VenueStore
	events   EventStore
	bookings BookingStore
	artists  ArtistStore
	geo      geocoding.Geocoder
	pub      Publisher
	metrics  *metrics.Metrics
	loc      *time.Location
}

type Deps struct {
	Venues   VenueStore
	Events   EventStore
	Bookings BookingStore
	Artists  ArtistStore
	Geocoder geocoding.Geocoder
	Pub      Publisher        // optional
	Metrics  *metrics.Metrics // optional
	Location *time.Location   // day windows; defaults to time.Local
}

func NewEventService(log *slog.Logger, d Deps) *EventService {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	return &EventService{
		log:      log.With(slog.String("component", "event_service")),
		venues:   d.Venues,
		events:   d.Events,
		bookings: d.Bookings,
		artists:  d.Artists,
		geo:      d.Geocoder,
		pub:      d.Pub,
		metrics:  d.Metrics,
		loc:      loc,
	}
}

// Location is the zone used for calendar-day windows.
func (s *EventService) Location() *time.Location { return s.loc }

// VenueInput identifies a venue by (Name, Address); the rest is only used
// when the venue has to be created.
type VenueInput struct {
	Name    string
	Address string
	City    string
	State   string
	Country string
}

// ResolveVenue returns the venue keyed by (name, address), geocoding and
// inserting it when it does not exist yet.  Geocoding failures abort
// without retry.
func (s *EventService) ResolveVenue(ctx context.Context, in VenueInput) (model.Venue, error) {
	const op = "service.EventService.ResolveVenue"

	v, err := s.venues.GetByNameAddress(ctx, in.Name, in.Address)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.Venue{}, fmt.Errorf("%s: %w", op, err)
	}

	v = model.Venue{Name: in.Name, Address: in.Address, City: in.City, State: in.State, Country: in.Country}
	pt, err := s.geo.Geocode(ctx, v.FullAddress())
	if err != nil {
		return model.Venue{}, fmt.Errorf("%s: %w", op, err)
	}
	v.Location = pt

	created, err := s.venues.Create(ctx, v)
	if err != nil {
		return model.Venue{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("venue created", slog.Uint64("venue_id", created.ID), slog.String("name", created.Name))
	return created, nil
}

// CreateEventInput is the event payload.  The artist comes from the session.
type CreateEventInput struct {
	Title       string
	Description string
	Venue       VenueInput
	EventDate   time.Time
	StartTime   string
	EndTime     string
}

// CreateEvent publishes an event for the session's artist profile.  Another
// artist at the same venue on the same calendar day yields
// ErrVenueOccupied; the same artist yields ErrDuplicateEvent.
func (s *EventService) CreateEvent(ctx context.Context, sess model.Session, in CreateEventInput) (ev model.Event, err error) {
	const op = "service.EventService.CreateEvent"

	ctx, span := tracer.Start(ctx, op, trace.WithAttributes(attribute.Int64("account.id", int64(sess.AccountID))))
	defer func() { endSpan(span, err) }()

	artist, err := s.artistFor(ctx, sess)
	if err != nil {
		return model.Event{}, err
	}

	venue, err := s.ResolveVenue(ctx, in.Venue)
	if err != nil {
		return model.Event{}, err
	}

	dayStart, dayEnd := model.DayWindow(in.EventDate, s.loc)
	e := model.Event{
		ArtistID:    artist.ID,
		VenueID:     venue.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		EventDate:   in.EventDate,
		StartTime:   strings.TrimSpace(in.StartTime),
		EndTime:     strings.TrimSpace(in.EndTime),
	}
	if err := s.events.CreateExclusive(ctx, &e, dayStart, dayEnd); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return model.Event{}, ErrVenueOccupied
		case errors.Is(err, repository.ErrDuplicate):
			return model.Event{}, ErrDuplicateEvent
		}
		return model.Event{}, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.EventCreated()
	s.log.Info("event created",
		slog.Uint64("event_id", e.ID), slog.Uint64("artist_id", artist.ID), slog.Uint64("venue_id", venue.ID))

	created, err := s.events.GetByID(ctx, e.ID)
	if err != nil {
		return model.Event{}, fmt.Errorf("%s: reload: %w", op, err)
	}
	return created, nil
}

// ListEvents runs a validated query.  Venue filters are resolved to venue
// ids first; a filter that matches no venue returns an empty page without
// querying events.
func (s *EventService) ListEvents(ctx context.Context, q EventQuery) (out model.PagedEvents, err error) {
	const op = "service.EventService.ListEvents"

	ctx, span := tracer.Start(ctx, op)
	defer func() { endSpan(span, err) }()

	filter := repository.EventFilter{}
	if q.HasVenueFilter() {
		vf := repository.VenueFilter{Text: q.Text, Near: q.Point, RadiusMeters: q.RadiusMeters()}
		if q.Location != "" {
			pt, err := s.geo.Geocode(ctx, q.Location)
			if err != nil {
				return model.PagedEvents{}, fmt.Errorf("%s: %w", op, err)
			}
			vf.Near = &pt
		}
		ids, err := s.venues.FindIDs(ctx, vf)
		if err != nil {
			return model.PagedEvents{}, fmt.Errorf("%s: %w", op, err)
		}
		if len(ids) == 0 {
			return emptyPage(q.Page), nil
		}
		filter.VenueIDs = ids
		span.SetAttributes(attribute.Int("venues.matched", len(ids)))
	}

	events, total, err := s.events.List(ctx, filter, q.Page)
	if err != nil {
		return model.PagedEvents{}, fmt.Errorf("%s: %w", op, err)
	}
	return model.PagedEvents{Events: events, Pagination: model.PaginationFor(total, q.Page)}, nil
}

// MyEvents lists the events of the session's artist profile.
func (s *EventService) MyEvents(ctx context.Context, sess model.Session, p model.Page) (model.PagedEvents, error) {
	artist, err := s.artistFor(ctx, sess)
	if err != nil {
		return model.PagedEvents{}, err
	}
	events, total, err := s.events.List(ctx, repository.EventFilter{ArtistID: artist.ID}, p)
	if err != nil {
		return model.PagedEvents{}, fmt.Errorf("service.EventService.MyEvents: %w", err)
	}
	return model.PagedEvents{Events: events, Pagination: model.PaginationFor(total, p)}, nil
}

// BookedEvents lists the events the session's fan has booked, newest
// booking first.  Total counts bookings, including any whose event is gone.
func (s *EventService) BookedEvents(ctx context.Context, sess model.Session, p model.Page) (model.PagedEvents, error) {
	events, total, err := s.bookings.ListEventsForFan(ctx, sess.AccountID, p)
	if err != nil {
		return model.PagedEvents{}, fmt.Errorf("service.EventService.BookedEvents: %w", err)
	}
	return model.PagedEvents{Events: events, Pagination: model.PaginationFor(total, p)}, nil
}

// Book records a booking of eventID by the session's fan.
func (s *EventService) Book(ctx context.Context, sess model.Session, eventID uint64) (model.Booking, error) {
	const op = "service.EventService.Book"

	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Booking{}, ErrEventNotFound
		}
		return model.Booking{}, fmt.Errorf("%s: %w", op, err)
	}
	b, err := s.bookings.Create(ctx, sess.AccountID, eventID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return model.Booking{}, ErrAlreadyBooked
		case errors.Is(err, repository.ErrNotFound):
			return model.Booking{}, ErrEventNotFound
		}
		return model.Booking{}, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.Booking("created")

	msg := queue.BookingCreatedEvent{
		BookingID:  b.ID,
		FanID:      b.FanID,
		EventID:    ev.ID,
		EventTitle: ev.Title,
		EventDate:  ev.EventDate,
		BookedAt:   b.BookedAt,
	}
	if ev.Venue != nil {
		msg.VenueName = ev.Venue.Name
	}
	s.publish(ctx, func(ctx context.Context) error { return s.pub.PublishBookingCreated(ctx, msg) })
	return b, nil
}

// CancelBooking removes the session fan's booking of eventID.
func (s *EventService) CancelBooking(ctx context.Context, sess model.Session, eventID uint64) error {
	if err := s.bookings.Delete(ctx, sess.AccountID, eventID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("service.EventService.CancelBooking: %w", err)
	}
	s.metrics.Booking("cancelled")
	return nil
}

// DeleteEvent removes an event owned by the session's artist together with
// its bookings.
func (s *EventService) DeleteEvent(ctx context.Context, sess model.Session, eventID uint64) error {
	const op = "service.EventService.DeleteEvent"

	artist, err := s.artistFor(ctx, sess)
	if err != nil {
		return err
	}
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if ev.ArtistID != artist.ID {
		return ErrNotEventOwner
	}

	removed, err := s.events.DeleteByIDAndArtist(ctx, eventID, artist.ID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrEventNotFound
		case errors.Is(err, repository.ErrForbidden):
			return ErrNotEventOwner
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.EventDeleted()
	s.log.Info("event deleted", slog.Uint64("event_id", eventID), slog.Int64("bookings_removed", removed))

	msg := queue.EventDeletedEvent{
		EventID:         ev.ID,
		ArtistID:        artist.ID,
		Title:           ev.Title,
		EventDate:       ev.EventDate,
		BookingsRemoved: removed,
		DeletedAt:       time.Now().UTC(),
	}
	if ev.Venue != nil {
		msg.VenueName = ev.Venue.Name
	}
	s.publish(ctx, func(ctx context.Context) error { return s.pub.PublishEventDeleted(ctx, msg) })
	return nil
}

func (s *EventService) artistFor(ctx context.Context, sess model.Session) (model.Artist, error) {
	artist, err := s.artists.GetByAccountID(ctx, sess.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Artist{}, ErrArtistProfileNotFound
		}
		return model.Artist{}, fmt.Errorf("service.EventService.artistFor: %w", err)
	}
	return artist, nil
}

// publish runs fn with a bounded context detached from the request, and
// only logs failures.
func (s *EventService) publish(ctx context.Context, fn func(context.Context) error) {
	if s.pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		s.log.Warn("publish failed", sl.Err(err))
	}
}

func emptyPage(p model.Page) model.PagedEvents {
	return model.PagedEvents{Events: []model.Event{}, Pagination: model.PaginationFor(0, p)}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
