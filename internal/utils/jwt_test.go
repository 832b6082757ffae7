package utils

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/artist-map-tracker/internal/model"
)

const secret = "test_secret"

func TestAccessToken_RoundTrip(t *testing.T) {
	acc := model.Account{ID: 42, Role: model.RoleArtist, Email: gofakeit.Email()}

	tok, err := NewAccessToken(secret, acc, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Exp, 5*time.Second)

	claims, err := ParseAccessToken(secret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.ID)
	assert.Equal(t, model.RoleArtist, claims.Role)
	assert.Equal(t, acc.Email, claims.Email)

	s := claims.Session()
	assert.True(t, s.IsArtist())
	assert.Equal(t, uint64(42), s.AccountID)
}

func TestAccessToken_DecodesToPlainFields(t *testing.T) {
	acc := model.Account{ID: 7, Role: model.RoleFan, Email: "fan@example.com"}
	tok, err := NewAccessToken(secret, acc, time.Hour)
	require.NoError(t, err)

	parsed, _, err := jwt.NewParser().ParseUnverified(tok.Token, jwt.MapClaims{})
	require.NoError(t, err)
	mc := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(7), mc["id"])
	assert.Equal(t, "fan", mc["role"])
	assert.Equal(t, "fan@example.com", mc["email"])
}

func TestParseAccessToken_Rejects(t *testing.T) {
	acc := model.Account{ID: 1, Role: model.RoleFan, Email: "a@b.c"}

	tok, err := NewAccessToken(secret, acc, time.Hour)
	require.NoError(t, err)
	_, err = ParseAccessToken("other_secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewAccessToken(secret, acc, -time.Minute)
	require.NoError(t, err)
	_, err = ParseAccessToken(secret, expired.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	bad, err := NewAccessToken(secret, model.Account{ID: 1, Role: "admin"}, time.Hour)
	require.NoError(t, err)
	_, err = ParseAccessToken(secret, bad.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseAccessToken(secret, "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshToken(t *testing.T) {
	rt, err := NewRefreshToken(30)
	require.NoError(t, err)
	assert.Len(t, rt.Raw, 96)
	assert.Len(t, HashRefreshRaw(rt.Raw), 64)
	assert.NotEqual(t, rt.Raw, HashRefreshRaw(rt.Raw))
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "wrong horse"))

	_, err = HashPassword("short", 4)
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}
