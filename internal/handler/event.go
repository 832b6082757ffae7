package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/artist-map-tracker/internal/model"
	"github.com/iliyamo/artist-map-tracker/internal/service"
)

// EventAPI is the part of service.EventService the event routes use.
type EventAPI interface {
	Location() *time.Location
	CreateEvent(ctx context.Context, sess model.Session, in service.CreateEventInput) (model.Event, error)
	ListEvents(ctx context.Context, q service.EventQuery) (model.PagedEvents, error)
	MyEvents(ctx context.Context, sess model.Session, p model.Page) (model.PagedEvents, error)
	BookedEvents(ctx context.Context, sess model.Session, p model.Page) (model.PagedEvents, error)
	Book(ctx context.Context, sess model.Session, eventID uint64) (model.Booking, error)
	CancelBooking(ctx context.Context, sess model.Session, eventID uint64) error
	DeleteEvent(ctx context.Context, sess model.Session, eventID uint64) error
}

// EventHandler serves event browsing, creation, deletion and bookings.
// Writes purge the cached event lists.
type EventHandler struct {
	Events EventAPI
	Cache  CachePurger
	log    *slog.Logger
}

func NewEventHandler(events EventAPI, cache CachePurger, log *slog.Logger) *EventHandler {
	return &EventHandler{Events: events, Cache: cache, log: log.With(slog.String("component", "events"))}
}

type createEventReq struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	VenueName   string `json:"venueName" validate:"required"`
	Address     string `json:"address" validate:"required"`
	City        string `json:"city" validate:"required"`
	State       string `json:"state" validate:"required"`
	Country     string `json:"country" validate:"required"`
	EventDate   string `json:"eventDate" validate:"required"`
	StartTime   string `json:"startTime" validate:"required"`
	EndTime     string `json:"endTime" validate:"required"`
}

func (r *createEventReq) trim() {
	for _, s := range []*string{&r.Title, &r.Description, &r.VenueName, &r.Address, &r.City,
		&r.State, &r.Country, &r.EventDate, &r.StartTime, &r.EndTime} {
		*s = strings.TrimSpace(*s)
	}
}

// List is the public, filterable event listing.
func (h *EventHandler) List(c echo.Context) error {
	q, err := service.ParseEventQuery(c.QueryParams())
	if err != nil {
		return serviceError(err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.Events.ListEvents(ctx, q)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, out)
}

// Create publishes an event for the caller's artist profile.
func (h *EventHandler) Create(c echo.Context) error {
	sess, err := sessionOf(c)
	if err != nil {
		return err
	}
	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	req.trim()
	if err := c.Validate(&req); err != nil {
		return err
	}
	date, err := service.ParseEventDate(req.EventDate, h.Events.Location())
	if err != nil {
		return serviceError(err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	ev, err := h.Events.CreateEvent(ctx, sess, service.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Venue: service.VenueInput{
			Name:    req.VenueName,
			Address: req.Address,
			City:    req.City,
			State:   req.State,
			Country: req.Country,
		},
		EventDate: date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		return serviceError(err)
	}
	purge(ctx, h.log, h.Cache)
	return c.JSON(http.StatusCreated, ev)
}

// MyEvents lists the caller's own events.
func (h *EventHandler) MyEvents(c echo.Context) error {
	sess, err := sessionOf(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.Events.MyEvents(ctx, sess, pageFrom(c))
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, out)
}

// Delete removes one of the caller's events with its bookings.
func (h *EventHandler) Delete(c echo.Context) error {
	sess, err := sessionOf(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Events.DeleteEvent(ctx, sess, id); err != nil {
		return serviceError(err)
	}
	purge(ctx, h.log, h.Cache)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Event deleted successfully",
		"eventId": id,
	})
}
