package geocoding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/artist-map-tracker/internal/lib/logger/sl"
	"github.com/iliyamo/artist-map-tracker/internal/metrics"
	"github.com/iliyamo/artist-map-tracker/internal/model"
)

// Cached memoizes successful lookups of another Geocoder in Redis.  Failed
// lookups are not cached.  Redis errors degrade to a direct call.
type Cached struct {
	next    Geocoder
	rdb     *redis.Client
	ttl     time.Duration
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewCached wraps next.  With a nil client next is returned unchanged.
func NewCached(next Geocoder, rdb *redis.Client, ttl time.Duration, log *slog.Logger, m *metrics.Metrics) Geocoder {
	if rdb == nil {
		return next
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cached{next: next, rdb: rdb, ttl: ttl, log: log, metrics: m}
}

// CacheKey normalizes address so trivially different spellings share an entry.
func CacheKey(address string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(address)), " ")
	sum := sha256.Sum256([]byte(norm))
	return "geocode:" + hex.EncodeToString(sum[:16])
}

func (c *Cached) Geocode(ctx context.Context, address string) (model.GeoPoint, error) {
	key := CacheKey(address)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p model.GeoPoint
		if uerr := json.Unmarshal(raw, &p); uerr == nil {
			c.metrics.GeocodeResult("hit")
			return p, nil
		}
	case !errors.Is(err, redis.Nil):
		c.log.Warn("geocode cache read failed", slog.String("key", key), sl.Err(err))
	}

	p, err := c.next.Geocode(ctx, address)
	if err != nil {
		return model.GeoPoint{}, err
	}
	if b, merr := json.Marshal(p); merr == nil {
		if serr := c.rdb.Set(ctx, key, b, c.ttl).Err(); serr != nil {
			c.log.Warn("geocode cache write failed", slog.String("key", key), sl.Err(serr))
		}
	}
	return p, nil
}
