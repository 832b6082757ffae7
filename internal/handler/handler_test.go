package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/artist-map-tracker/internal/config"
	"github.com/iliyamo/artist-map-tracker/internal/middleware"
	"github.com/iliyamo/artist-map-tracker/internal/model"
	"github.com/iliyamo/artist-map-tracker/internal/repository"
	"github.com/iliyamo/artist-map-tracker/internal/service"
	"github.com/iliyamo/artist-map-tracker/internal/utils"
)

var discard = slog.New(slog.DiscardHandler)

var testCfg = config.Config{JWTSecret: "handler_secret", AccessTTL: time.Hour, RefreshTTLDays: 1, BcryptCost: 4}

// ----- in-memory stores -----

type memAccounts struct {
	mu   sync.Mutex
	next uint64
	rows map[uint64]model.Account
}

func newMemAccounts() *memAccounts { return &memAccounts{rows: map[uint64]model.Account{}} }

func (m *memAccounts) Create(_ context.Context, name, email, password string, role model.Role, cost int) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = repository.NormalizeEmail(email)
	for _, a := range m.rows {
		if a.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	m.next++
	m.rows[m.next] = model.Account{ID: m.next, Name: name, Email: email, PasswordHash: hash, Role: role}
	return m.next, nil
}

func (m *memAccounts) GetByEmail(_ context.Context, email string) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.rows {
		if a.Email == repository.NormalizeEmail(email) {
			return a, nil
		}
	}
	return model.Account{}, repository.ErrNotFound
}

func (m *memAccounts) GetByID(_ context.Context, id uint64) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return model.Account{}, repository.ErrNotFound
	}
	return a, nil
}

func (m *memAccounts) Update(_ context.Context, acc model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, a := range m.rows {
		if id != acc.ID && a.Email == acc.Email {
			return repository.ErrEmailExists
		}
	}
	m.rows[acc.ID] = acc
	return nil
}

type memTokens struct {
	mu      sync.Mutex
	owner   map[string]uint64
	revoked map[string]bool
}

func newMemTokens() *memTokens {
	return &memTokens{owner: map[string]uint64{}, revoked: map[string]bool{}}
}

func (m *memTokens) StoreRefresh(_ context.Context, accountID uint64, hash string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owner[hash] = accountID
	return nil
}

func (m *memTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.owner[hash]
	if !ok || m.revoked[hash] {
		return 0, repository.ErrNotFound
	}
	return id, nil
}

func (m *memTokens) RevokeByHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[hash] = true
	return nil
}

func (m *memTokens) RevokeAllForAccount(_ context.Context, accountID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, id := range m.owner {
		if id == accountID {
			m.revoked[h] = true
		}
	}
	return nil
}

// ----- event service mock -----

type eventAPIMock struct{ mock.Mock }

func (m *eventAPIMock) Location() *time.Location { return time.UTC }

func (m *eventAPIMock) CreateEvent(ctx context.Context, sess model.Session, in service.CreateEventInput) (model.Event, error) {
	args := m.Called(ctx, sess, in)
	return args.Get(0).(model.Event), args.Error(1)
}

func (m *eventAPIMock) ListEvents(ctx context.Context, q service.EventQuery) (model.PagedEvents, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(model.PagedEvents), args.Error(1)
}

func (m *eventAPIMock) MyEvents(ctx context.Context, sess model.Session, p model.Page) (model.PagedEvents, error) {
	args := m.Called(ctx, sess, p)
	return args.Get(0).(model.PagedEvents), args.Error(1)
}

func (m *eventAPIMock) BookedEvents(ctx context.Context, sess model.Session, p model.Page) (model.PagedEvents, error) {
	args := m.Called(ctx, sess, p)
	return args.Get(0).(model.PagedEvents), args.Error(1)
}

func (m *eventAPIMock) Book(ctx context.Context, sess model.Session, eventID uint64) (model.Booking, error) {
	args := m.Called(ctx, sess, eventID)
	return args.Get(0).(model.Booking), args.Error(1)
}

func (m *eventAPIMock) CancelBooking(ctx context.Context, sess model.Session, eventID uint64) error {
	return m.Called(ctx, sess, eventID).Error(0)
}

func (m *eventAPIMock) DeleteEvent(ctx context.Context, sess model.Session, eventID uint64) error {
	return m.Called(ctx, sess, eventID).Error(0)
}

type purgeCounter struct{ n int }

func (p *purgeCounter) Purge(context.Context) error { p.n++; return nil }

// ----- helpers -----

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = middleware.NewValidator()
	e.HTTPErrorHandler = middleware.HTTPErrorHandler(discard)
	return e
}

func as(s model.Session) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			middleware.WithSession(c, s)
			return next(c)
		}
	}
}

func send(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
