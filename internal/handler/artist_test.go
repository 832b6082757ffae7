package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/artist-map-tracker/internal/model"
	"github.com/iliyamo/artist-map-tracker/internal/repository"
)

type memArtists struct{ rows map[uint64]model.Artist }

func (m *memArtists) Create(_ context.Context, a *model.Artist) error {
	if _, ok := m.rows[a.AccountID]; ok {
		return repository.ErrConflict
	}
	a.ID = uint64(len(m.rows) + 1)
	m.rows[a.AccountID] = *a
	return nil
}

func (m *memArtists) GetByAccountID(_ context.Context, accountID uint64) (model.Artist, error) {
	a, ok := m.rows[accountID]
	if !ok {
		return model.Artist{}, repository.ErrNotFound
	}
	return a, nil
}

func (m *memArtists) Update(_ context.Context, a model.Artist) error {
	m.rows[a.AccountID] = a
	return nil
}

func TestArtistProfile(t *testing.T) {
	store := &memArtists{rows: map[uint64]model.Artist{}}
	h := NewArtistHandler(store, discard)
	e := newEcho()
	e.POST("/artists/profile", h.CreateProfile, as(artistSess))
	e.GET("/artists/profile", h.GetProfile, as(artistSess))
	e.PUT("/artists/profile", h.UpdateProfile, as(artistSess))

	assert.Equal(t, http.StatusNotFound, send(e, http.MethodGet, "/artists/profile", "").Code)

	body := `{"stageName":"DJ Nova","city":"Mumbai","socialLinks":{"instagram":"@nova"}}`
	rec := send(e, http.MethodPost, "/artists/profile", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	artist := decode(t, rec)["artist"].(map[string]interface{})
	assert.Equal(t, "DJ Nova", artist["stageName"])
	assert.Equal(t, float64(artistSess.AccountID), artist["userId"])

	rec = send(e, http.MethodPost, "/artists/profile", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Artist profile already exists", decode(t, rec)["message"])

	rec = send(e, http.MethodPut, "/artists/profile", `{"stageName":"Nova","city":"Pune","bio":"`+strings.Repeat("x", 501)+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `"bio" length must be less than or equal to 500 characters long`, decode(t, rec)["message"])

	rec = send(e, http.MethodPut, "/artists/profile", `{"stageName":"Nova","city":"Pune"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Pune", store.rows[artistSess.AccountID].City)
	assert.Empty(t, store.rows[artistSess.AccountID].SocialLinks.Instagram)
}
