package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/artist-map-tracker/internal/model"
	"github.com/iliyamo/artist-map-tracker/internal/queue"
	"github.com/iliyamo/artist-map-tracker/internal/repository"
)

type venueStoreMock struct{ mock.Mock }

func (m *venueStoreMock) GetByNameAddress(ctx context.Context, name, address string) (model.Venue, error) {
	args := m.Called(ctx, name, address)
	return args.Get(0).(model.Venue), args.Error(1)
}

func (m *venueStoreMock) Create(ctx context.Context, v model.Venue) (model.Venue, error) {
	args := m.Called(ctx, v)
	return args.Get(0).(model.Venue), args.Error(1)
}

func (m *venueStoreMock) FindIDs(ctx context.Context, f repository.VenueFilter) ([]uint64, error) {
	args := m.Called(ctx, f)
	ids, _ := args.Get(0).([]uint64)
	return ids, args.Error(1)
}

type eventStoreMock struct{ mock.Mock }

func (m *eventStoreMock) CreateExclusive(ctx context.Context, e *model.Event, dayStart, dayEnd time.Time) error {
	args := m.Called(ctx, e, dayStart, dayEnd)
	return args.Error(0)
}

func (m *eventStoreMock) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Event), args.Error(1)
}

func (m *eventStoreMock) List(ctx context.Context, f repository.EventFilter, p model.Page) ([]model.Event, int64, error) {
	args := m.Called(ctx, f, p)
	evs, _ := args.Get(0).([]model.Event)
	return evs, args.Get(1).(int64), args.Error(2)
}

func (m *eventStoreMock) DeleteByIDAndArtist(ctx context.Context, id, artistID uint64) (int64, error) {
	args := m.Called(ctx, id, artistID)
	return args.Get(0).(int64), args.Error(1)
}

type bookingStoreMock struct{ mock.Mock }

func (m *bookingStoreMock) Create(ctx context.Context, fanID, eventID uint64) (model.Booking, error) {
	args := m.Called(ctx, fanID, eventID)
	return args.Get(0).(model.Booking), args.Error(1)
}

func (m *bookingStoreMock) Delete(ctx context.Context, fanID, eventID uint64) error {
	return m.Called(ctx, fanID, eventID).Error(0)
}

func (m *bookingStoreMock) ListEventsForFan(ctx context.Context, fanID uint64, p model.Page) ([]model.Event, int64, error) {
	args := m.Called(ctx, fanID, p)
	evs, _ := args.Get(0).([]model.Event)
	return evs, args.Get(1).(int64), args.Error(2)
}

type artistStoreMock struct{ mock.Mock }

func (m *artistStoreMock) GetByAccountID(ctx context.Context, accountID uint64) (model.Artist, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(model.Artist), args.Error(1)
}

type geocoderMock struct{ mock.Mock }

func (m *geocoderMock) Geocode(ctx context.Context, address string) (model.GeoPoint, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(model.GeoPoint), args.Error(1)
}

type publisherMock struct{ mock.Mock }

func (m *publisherMock) PublishBookingCreated(ctx context.Context, ev queue.BookingCreatedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *publisherMock) PublishEventDeleted(ctx context.Context, ev queue.EventDeletedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

type fixture struct {
	svc      *EventService
	venues   *venueStoreMock
	events   *eventStoreMock
	bookings *bookingStoreMock
	artists  *artistStoreMock
	geo      *geocoderMock
	pub      *publisherMock
}

var ist = time.FixedZone("IST", 5*3600+1800)

func newFixture() *fixture {
	f := &fixture{
		venues:   &venueStoreMock{},
		events:   &eventStoreMock{},
		bookings: &bookingStoreMock{},
		artists:  &artistStoreMock{},
		geo:      &geocoderMock{},
		pub:      &publisherMock{},
	}
	f.svc = NewEventService(slog.New(slog.DiscardHandler), Deps{
		Venues:   f.venues,
		Events:   f.events,
		Bookings: f.bookings,
		Artists:  f.artists,
		Geocoder: f.geo,
		Pub:      f.pub,
		Location: ist,
	})
	return f
}
