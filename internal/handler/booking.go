package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Book reserves a spot at an event for the calling fan.
func (h *EventHandler) Book(c echo.Context) error {
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

	b, err := h.Events.Book(ctx, sess, id)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Event booked successfully",
		"booking": b,
	})
}

// CancelBooking drops the calling fan's booking of an event.
func (h *EventHandler) CancelBooking(c echo.Context) error {
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

	if err := h.Events.CancelBooking(ctx, sess, id); err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Booking cancelled successfully",
		"eventId": id,
	})
}

// Booked lists the events the calling fan has booked, newest first.
func (h *EventHandler) Booked(c echo.Context) error {
	sess, err := sessionOf(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.Events.BookedEvents(ctx, sess, pageFrom(c))
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, out)
}
