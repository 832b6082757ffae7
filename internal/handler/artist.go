package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/artist-map-tracker/internal/model"
	"github.com/iliyamo/artist-map-tracker/internal/repository"
)

type ArtistStore interface {
	Create(ctx context.Context, a *model.Artist) error
	GetByAccountID(ctx context.Context, accountID uint64) (model.Artist, error)
	Update(ctx context.Context, a model.Artist) error
}

// ArtistHandler serves the caller's artist profile.
type ArtistHandler struct {
	Artists ArtistStore
	log     *slog.Logger
}

func NewArtistHandler(a ArtistStore, log *slog.Logger) *ArtistHandler {
	return &ArtistHandler{Artists: a, log: log.With(slog.String("component", "artist"))}
}

type socialLinksReq struct {
	Instagram string `json:"instagram"`
	YouTube   string `json:"youtube"`
}

type artistProfileReq struct {
	StageName   string         `json:"stageName" validate:"required"`
	Bio         string         `json:"bio" validate:"max=500"`
	City        string         `json:"city" validate:"required"`
	SocialLinks socialLinksReq `json:"socialLinks"`
}

func (r *artistProfileReq) trim() {
	r.StageName = strings.TrimSpace(r.StageName)
	r.Bio = strings.TrimSpace(r.Bio)
	r.City = strings.TrimSpace(r.City)
	r.SocialLinks.Instagram = strings.TrimSpace(r.SocialLinks.Instagram)
	r.SocialLinks.YouTube = strings.TrimSpace(r.SocialLinks.YouTube)
}

func (r artistProfileReq) apply(a *model.Artist) {
	a.StageName = r.StageName
	a.Bio = r.Bio
	a.City = r.City
	a.SocialLinks = model.SocialLinks{Instagram: r.SocialLinks.Instagram, YouTube: r.SocialLinks.YouTube}
}

func (h *ArtistHandler) decode(c echo.Context) (artistProfileReq, error) {
	var req artistProfileReq
	if err := c.Bind(&req); err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	req.trim()
	return req, c.Validate(&req)
}

// CreateProfile creates the caller's profile; there is at most one.
func (h *ArtistHandler) CreateProfile(c echo.Context) error {
	sess, err := sessionOf(c)
	if err != nil {
		return err
	}
	req, err := h.decode(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	a := model.Artist{AccountID: sess.AccountID}
	req.apply(&a)
	if err := h.Artists.Create(ctx, &a); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"message": "Artist profile already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}
	created, err := h.Artists.GetByAccountID(ctx, sess.AccountID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}
	h.log.Info("artist profile created", slog.Uint64("artist_id", created.ID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Artist profile created successfully",
		"artist":  created,
	})
}

// GetProfile returns the caller's profile.
func (h *ArtistHandler) GetProfile(c echo.Context) error {
	sess, err := sessionOf(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	a, err := h.Artists.GetByAccountID(ctx, sess.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Artist profile not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}
	return c.JSON(http.StatusOK, a)
}

// UpdateProfile replaces the editable fields of the caller's profile.
func (h *ArtistHandler) UpdateProfile(c echo.Context) error {
	sess, err := sessionOf(c)
	if err != nil {
		return err
	}
	req, err := h.decode(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	a, err := h.Artists.GetByAccountID(ctx, sess.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Artist profile not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}
	req.apply(&a)
	if err := h.Artists.Update(ctx, a); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}
	updated, err := h.Artists.GetByAccountID(ctx, sess.AccountID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Artist profile updated successfully",
		"artist":  updated,
	})
}
