package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/artist-map-tracker/internal/config"
	"github.com/iliyamo/artist-map-tracker/internal/lib/logger/sl"
)

const defaultCacheTTL = 30 * time.Second

// cachedResponse is what a listing response looks like in Redis.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header,omitempty"`
	Body   []byte      `json:"body"`
}

func (r cachedResponse) marshal() ([]byte, error) { return json.Marshal(r) }

func unmarshalCached(bs []byte) (cachedResponse, bool) {
	var r cachedResponse
	if err := json.Unmarshal(bs, &r); err != nil || r.Status == 0 {
		return cachedResponse{}, false
	}
	return r, true
}

// replay writes r to the client, leaving Content-Length to the server.
func (r cachedResponse) replay(res *echo.Response) {
	h := res.Header()
	for k, vals := range r.Header {
		if http.CanonicalHeaderKey(k) == echo.HeaderContentLength {
			continue
		}
		for _, v := range vals {
			h.Add(k, v)
		}
	}
	h.Set("X-Cache", "HIT")
	res.WriteHeader(r.Status)
	if len(r.Body) > 0 {
		_, _ = res.Write(r.Body)
	}
}

// bodyRecorder tees the response into a buffer of at most limit bytes
// (unbounded when limit <= 0) and remembers whether it overflowed.
type bodyRecorder struct {
	http.ResponseWriter
	status   int
	body     bytes.Buffer
	limit    int
	overflow bool
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	if !r.overflow {
		if r.limit > 0 && r.body.Len()+len(b) > r.limit {
			r.overflow = true
			r.body.Reset()
		} else {
			r.body.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}

// ResponseCache stores successful responses of the wrapped routes in Redis.
// Writes that change event listings call Purge so readers do not see
// stale pages for the rest of the TTL.
type ResponseCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
	log *slog.Logger
}

func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client, log *slog.Logger) *ResponseCache {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultCacheTTL
	}
	return &ResponseCache{cfg: cfg, rdb: rdb, log: log.With(slog.String("component", "cache"))}
}

func (rc *ResponseCache) enabled() bool {
	return rc != nil && rc.cfg.Enabled && rc.rdb != nil
}

// cacheKeyFrom hashes the parts picked by cfg.KeyStrategy under cfg.Prefix.
// The query is encoded sorted, so parameter order does not matter.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	var withMethod, withQuery bool
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
	case "method_route":
		withMethod = true
	case "method_route_query":
		withMethod, withQuery = true, true
	default:
		withQuery = true
	}

	var parts []string
	if withMethod {
		parts = append(parts, "method", r.Method)
	}
	parts = append(parts, "route", c.Path())
	if withQuery {
		parts = append(parts, "q", r.URL.Query().Encode())
	}
	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return cfg.Prefix + ":" + hex.EncodeToString(sum[:])
}

func (rc *ResponseCache) lookup(ctx context.Context, key string) (cachedResponse, bool) {
	bs, err := rc.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			rc.log.Warn("cache read failed", slog.String("key", key), sl.Err(err))
		}
		return cachedResponse{}, false
	}
	return unmarshalCached(bs)
}

func (rc *ResponseCache) store(ctx context.Context, key string, r cachedResponse) {
	payload, err := r.marshal()
	if err != nil {
		return
	}
	if err := rc.rdb.SetEx(ctx, key, payload, rc.cfg.TTL).Err(); err != nil {
		rc.log.Warn("cache write failed", slog.String("key", key), sl.Err(err))
	}
}

// Middleware serves cached copies of 200 responses and stores misses.
// Bodies larger than MaxBodyBytes are passed through but never stored.
func (rc *ResponseCache) Middleware() echo.MiddlewareFunc {
	if !rc.enabled() {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rc.cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cacheKeyFrom(rc.cfg, c)
			if hit, ok := rc.lookup(ctx, key); ok {
				hit.replay(c.Response())
				return nil
			}

			res := c.Response()
			rec := &bodyRecorder{ResponseWriter: res.Writer, status: http.StatusOK, limit: rc.cfg.MaxBodyBytes}
			res.Writer = rec
			res.Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || rec.overflow {
				return nil
			}
			hdr := res.Header().Clone()
			hdr.Del("X-Cache")
			rc.store(context.WithoutCancel(ctx), key, cachedResponse{Status: rec.status, Header: hdr, Body: rec.body.Bytes()})
			return nil
		}
	}
}

// Purge deletes every entry under the configured prefix.
func (rc *ResponseCache) Purge(ctx context.Context) error {
	if !rc.enabled() {
		return nil
	}
	iter := rc.rdb.Scan(ctx, 0, rc.cfg.Prefix+":*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}
	return rc.rdb.Del(ctx, batch...).Err()
}
