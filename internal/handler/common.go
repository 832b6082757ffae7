package handler // handler defines http handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/artist-map-tracker/internal/geocoding"
	"github.com/iliyamo/artist-map-tracker/internal/lib/logger/sl"
	"github.com/iliyamo/artist-map-tracker/internal/middleware"
	"github.com/iliyamo/artist-map-tracker/internal/model"
	"github.com/iliyamo/artist-map-tracker/internal/service"
)

// requestTimeout bounds the storage work done for one request.
const requestTimeout = 5 * time.Second

// CachePurger drops cached list responses after a write changes them.
type CachePurger interface {
	Purge(ctx context.Context) error
}

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// sessionOf returns the authenticated identity.  Routes behind JWTAuth
// always have one; the 401 covers handlers mounted without it.
func sessionOf(c echo.Context) (model.Session, error) {
	s, ok := middleware.SessionFrom(c)
	if !ok {
		return model.Session{}, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	return s, nil
}

// pageFrom reads page and limit, ignoring values that are not numbers.
func pageFrom(c echo.Context) model.Page {
	page, _ := strconv.Atoi(strings.TrimSpace(c.QueryParam("page")))
	limit, _ := strconv.Atoi(strings.TrimSpace(c.QueryParam("limit")))
	return model.NewPage(page, limit)
}

// idParam parses the :id path segment.
func idParam(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid event id")
	}
	return id, nil
}

// serviceError maps workflow errors onto status codes.  Anything unknown
// is a 500 carrying the error text; HTTPErrorHandler logs it.
func serviceError(err error) error {
	var qe *service.QueryError
	switch {
	case errors.As(err, &qe):
		return echo.NewHTTPError(http.StatusBadRequest, qe.Message)
	case errors.Is(err, service.ErrInvalidEventDate):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrArtistProfileNotFound),
		errors.Is(err, service.ErrEventNotFound),
		errors.Is(err, service.ErrBookingNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotEventOwner):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrVenueOccupied):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrDuplicateEvent), errors.Is(err, service.ErrAlreadyBooked):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, geocoding.ErrNoResult):
		return echo.NewHTTPError(http.StatusInternalServerError, geocoding.ErrNoResult.Error()).SetInternal(err)
	case errors.Is(err, geocoding.ErrInvalidCoordinates):
		return echo.NewHTTPError(http.StatusInternalServerError, geocoding.ErrInvalidCoordinates.Error()).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
}

func purge(ctx context.Context, log *slog.Logger, p CachePurger) {
	if p == nil {
		return
	}
	if err := p.Purge(ctx); err != nil {
		log.Warn("cache purge failed", sl.Err(err))
	}
}
