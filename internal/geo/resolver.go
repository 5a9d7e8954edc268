// Package geo resolves addresses to coordinates. Lookups go to the local
// cache first and to the remote geocoder second; a quota error from the
// geocoder suspends remote lookups until the next local midnight.
package geo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"p2000-receiver/internal/models"

	"go.uber.org/zap"
)

// Cache is the local address store.
type Cache interface {
	Lookup(address string) (models.GeoCacheEntry, bool)
	Append(entry models.GeoCacheEntry) error
}

// Result is the outcome of one resolution.
type Result struct {
	Latitude  *float64
	Longitude *float64
	MapURL    string
	Status    models.GeoStatus
	// Info is the human readable geocoder state carried in payloads.
	Info string
}

// Resolver implements the cache-then-remote policy.
type Resolver struct {
	enabled  bool
	cache    Cache
	geocoder Geocoder
	logger   *zap.Logger

	mu               sync.Mutex
	rateLimitedUntil time.Time
	now              func() time.Time
}

// NewResolver creates a Resolver. When enabled is false every call returns
// not-attempted without touching cache or network.
func NewResolver(enabled bool, cache Cache, geocoder Geocoder, logger *zap.Logger) *Resolver {
	return &Resolver{
		enabled:  enabled,
		cache:    cache,
		geocoder: geocoder,
		logger:   logger,
		now:      time.Now,
	}
}

// Resolve looks up address.
func (r *Resolver) Resolve(ctx context.Context, address string) Result {
	if address == "" || !r.enabled {
		return r.result(models.GeoNotAttempted, false)
	}

	if entry, ok := r.cache.Lookup(address); ok {
		r.logger.Debug("Address found in geo cache", zap.String("address", address))
		return r.resultFrom(entry, models.GeoCacheHit)
	}

	if r.RateLimited() {
		r.logger.Debug("Geocoder suspended, skipping lookup", zap.String("address", address))
		return r.result(models.GeoRateLimited, false)
	}

	entry, err := r.geocoder.Geocode(ctx, address)
	switch {
	case err == nil:
		if err := r.cache.Append(entry); err != nil {
			r.logger.Error("Failed to store geocode result", zap.String("address", address), zap.Error(err))
		}
		r.logger.Debug("Address geocoded",
			zap.String("address", address),
			zap.Float64("latitude", entry.Latitude),
			zap.Float64("longitude", entry.Longitude),
		)
		return r.resultFrom(entry, models.GeoResolved)

	case errors.Is(err, ErrNoResult):
		r.logger.Debug("Geocoder found nothing", zap.String("address", address))
		return r.result(models.GeoResolvedNone, true)

	case errors.Is(err, ErrRateLimited):
		until := r.suspend()
		r.logger.Warn("Geocoder rate limit exceeded, lookups suspended",
			zap.String("address", address),
			zap.Time("until", until),
			zap.Error(err),
		)
		return r.result(models.GeoRateLimited, false)

	case errors.Is(err, ErrInvalidInput):
		r.logger.Info("Geocoder rejected address", zap.String("address", address), zap.Error(err))
		return r.result(models.GeoFailed, false)

	default:
		r.logger.Warn("Geocoder lookup failed", zap.String("address", address), zap.Error(err))
		return r.result(models.GeoFailed, false)
	}
}

// RateLimited reports whether remote lookups are currently suspended.
func (r *Resolver) RateLimited() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.now().Before(r.rateLimitedUntil)
}

// Status renders the geocoder state, e.g.
// "enabled: true ratelimit: false gps-checked: true".
func (r *Resolver) Status(checked bool) string {
	return fmt.Sprintf("enabled: %t ratelimit: %t gps-checked: %t", r.enabled, r.RateLimited(), checked)
}

func (r *Resolver) suspend() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rateLimitedUntil = nextMidnight(r.now())
	return r.rateLimitedUntil
}

func (r *Resolver) result(status models.GeoStatus, checked bool) Result {
	return Result{Status: status, Info: r.Status(checked)}
}

func (r *Resolver) resultFrom(entry models.GeoCacheEntry, status models.GeoStatus) Result {
	lat, lng := entry.Latitude, entry.Longitude
	return Result{
		Latitude:  &lat,
		Longitude: &lng,
		MapURL:    entry.MapURL,
		Status:    status,
		Info:      r.Status(true),
	}
}

// nextMidnight returns the first local midnight after t.
func nextMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}
