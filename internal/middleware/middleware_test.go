package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/artist-map-tracker/internal/config"
	"github.com/iliyamo/artist-map-tracker/internal/model"
	"github.com/iliyamo/artist-map-tracker/internal/utils"
)

const secret = "mw_secret"

var discard = slog.New(slog.DiscardHandler)

func bearer(t *testing.T, role model.Role) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, model.Account{ID: 5, Role: role, Email: "x@example.com"}, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func protected() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(discard)
	e.GET("/artist-only", func(c echo.Context) error {
		s, _ := SessionFrom(c)
		return c.JSON(http.StatusOK, echo.Map{"id": s.AccountID, "role": s.Role})
	}, JWTAuth(secret), RequireRole(model.RoleArtist))
	return e
}

func do(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthBeforeRole(t *testing.T) {
	e := protected()

	rec := do(e, http.MethodGet, "/artist-only", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodGet, "/artist-only", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodGet, "/artist-only", bearer(t, model.RoleFan))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message":"Forbidden: unauthorized role"}`, rec.Body.String())

	rec = do(e, http.MethodGet, "/artist-only", bearer(t, model.RoleArtist))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":5,"role":"artist"}`, rec.Body.String())
}

func TestRequireRole_WithoutSession(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireRole(model.RoleFan))
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/x", "").Code)
}

type registerBody struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=artist fan"`
}

func TestValidator_Messages(t *testing.T) {
	err := NewValidator().Validate(&registerBody{Name: "A", Email: "nope", Role: "admin"})
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Equal(t,
		`"name" length must be at least 2 characters long, "email" must be a valid email, "role" must be one of [artist, fan]`,
		he.Message)

	assert.NoError(t, NewValidator().Validate(&registerBody{Name: "Ann", Email: "a@b.co", Role: "fan"}))
}

func TestHTTPErrorHandler_Shape(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(discard)

	rec := do(e, http.MethodGet, "/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Not Found", body["message"])
}

func TestResponseCache_Hit(t *testing.T) {
	rdb, rmock := redismock.NewClientMock()
	cfg := config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "cache", Methods: map[string]bool{"GET": true}}
	rc := NewResponseCache(cfg, rdb, discard)

	e := echo.New()
	called := false
	e.GET("/events", func(c echo.Context) error {
		called = true
		return c.String(http.StatusOK, "fresh")
	}, rc.Middleware())

	req := httptest.NewRequest(http.MethodGet, "/events?page=2&limit=5", nil)
	ctx := e.NewContext(req, httptest.NewRecorder())
	ctx.SetPath("/events")
	key := cacheKeyFrom(cfg, ctx)

	hdr := http.Header{"Content-Type": {"application/json"}}
	payload, err := cachedResponse{Status: http.StatusOK, Header: hdr, Body: []byte(`{"events":[]}`)}.marshal()
	require.NoError(t, err)
	rmock.ExpectGet(key).SetVal(string(payload))

	rec := do(e, http.MethodGet, "/events?limit=5&page=2", "")
	assert.False(t, called)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, `{"events":[]}`, rec.Body.String())
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestResponseCache_Purge(t *testing.T) {
	rdb, rmock := redismock.NewClientMock()
	cfg := config.CacheConfig{Enabled: true, Prefix: "cache"}
	rc := NewResponseCache(cfg, rdb, discard)

	rmock.ExpectScan(0, "cache:*", 100).SetVal([]string{"cache:a"}, 7)
	rmock.ExpectScan(7, "cache:*", 100).SetVal([]string{"cache:b"}, 0)
	rmock.ExpectDel("cache:a", "cache:b").SetVal(2)

	require.NoError(t, rc.Purge(t.Context()))
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestResponseCache_DisabledIsNoop(t *testing.T) {
	var rc *ResponseCache
	assert.NoError(t, rc.Purge(t.Context()))
	rc = NewResponseCache(config.CacheConfig{Enabled: true}, nil, discard)
	assert.NoError(t, rc.Purge(t.Context()))
}

func TestCachedResponse_Unmarshal(t *testing.T) {
	bs, err := cachedResponse{Status: 201, Header: http.Header{"X-A": {"1"}}, Body: []byte("body")}.marshal()
	require.NoError(t, err)
	r, ok := unmarshalCached(bs)
	require.True(t, ok)
	assert.Equal(t, 201, r.Status)
	assert.Equal(t, "1", r.Header.Get("X-A"))
	assert.Equal(t, "body", string(r.Body))

	_, ok = unmarshalCached([]byte{1, 2})
	assert.False(t, ok)
	_, ok = unmarshalCached([]byte(`{"body":"eA=="}`))
	assert.False(t, ok)
}

func TestBodyRecorder_Overflow(t *testing.T) {
	rec := &bodyRecorder{ResponseWriter: httptest.NewRecorder(), limit: 4}
	_, _ = rec.Write([]byte("abc"))
	assert.False(t, rec.overflow)
	_, _ = rec.Write([]byte("de"))
	assert.True(t, rec.overflow)
	assert.Zero(t, rec.body.Len())
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/v1/events")

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user_route"}
	assert.Equal(t, "rl:ip:10.0.0.1:user:anon:route:GET /api/v1/events", buildRateKey(cfg, c))

	WithSession(c, model.Session{AccountID: 9, Role: model.RoleFan})
	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:9", buildRateKey(cfg, c))
}

func TestTokenBucket_DisabledPassesThrough(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil, discard, nil))
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/x", "").Code)
}

func TestTokenBucket_RedisErrorFailsOpen(t *testing.T) {
	rdb, _ := redismock.NewClientMock()
	cfg := config.RateLimitConfig{Enabled: true, Prefix: "rl", KeyStrategy: "ip", Capacity: 1}
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		NewTokenBucket(cfg, rdb, discard, nil))
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/x", "").Code)
}

func TestDecision_RetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 0, decision{retryMs: -5}.retryAfterSeconds())
	assert.Equal(t, 1, decision{retryMs: 1}.retryAfterSeconds())
	assert.Equal(t, 2, decision{retryMs: 1500}.retryAfterSeconds())
}
