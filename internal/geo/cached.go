package geo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/serroba/qr-tracker/internal/cache"
	"go.uber.org/zap"
)

const DefaultCacheTTL = 24 * time.Hour

// CachedLocator remembers successful lookups so repeated scans from one address
// cost a single external call.
type CachedLocator struct {
	next   Locator
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedLocator wraps next with a cache.
func NewCachedLocator(next Locator, c cache.Cache, ttl time.Duration, logger *zap.Logger) *CachedLocator {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &CachedLocator{
		next:   next,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CachedLocator) Locate(ctx context.Context, ip string) Location {
	if !Routable(ip) {
		return Location{}
	}

	if raw, err := c.cache.Get(ctx, ip); err == nil {
		var loc Location
		if err := json.Unmarshal([]byte(raw), &loc); err == nil {
			return loc
		}
	}

	loc := c.next.Locate(ctx, ip)
	if loc.Empty() {
		return loc
	}

	if raw, err := json.Marshal(loc); err == nil {
		if err := c.cache.Set(ctx, ip, string(raw), c.ttl); err != nil {
			c.logger.Debug("failed to cache geolocation", zap.String("ip", ip), zap.Error(err))
		}
	}

	return loc
}
