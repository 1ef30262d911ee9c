package routing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/andrescamacho/dispatch-go/internal/domain/routing"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
	"github.com/andrescamacho/dispatch-go/internal/infrastructure/config"
)

// CachedProvider decorates a routing.Provider with an in-process TTL cache.
// Geocodes are keyed by normalized address, distances by rounded endpoints
// and mode; nearby repeat lookups from the planner hit the cache instead of
// the provider quota.
type CachedProvider struct {
	inner routing.Provider
	cache *ristretto.Cache[string, any]
	ttl   time.Duration
}

// NewCachedProvider wraps inner with a ristretto cache
func NewCachedProvider(inner routing.Provider, cfg *config.CacheConfig) (*CachedProvider, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, any]{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create routing cache: %w", err)
	}
	return &CachedProvider{inner: inner, cache: cache, ttl: cfg.TTL}, nil
}

// Geocode resolves an address, serving repeats from cache
func (p *CachedProvider) Geocode(ctx context.Context, address string) (shared.Coordinate, error) {
	key := "geo:" + strings.ToLower(strings.TrimSpace(address))
	if v, ok := p.cache.Get(key); ok {
		if coord, ok := v.(shared.Coordinate); ok {
			return coord, nil
		}
	}

	coord, err := p.inner.Geocode(ctx, address)
	if err != nil {
		return shared.Coordinate{}, err
	}
	p.cache.SetWithTTL(key, coord, 1, p.ttl)
	return coord, nil
}

// DistanceKm returns the road distance, serving repeats from cache
func (p *CachedProvider) DistanceKm(ctx context.Context, origin, dest shared.Coordinate, mode routing.Mode) (float64, error) {
	key := distanceKey(origin, dest, mode)
	if v, ok := p.cache.Get(key); ok {
		if km, ok := v.(float64); ok {
			return km, nil
		}
	}

	km, err := p.inner.DistanceKm(ctx, origin, dest, mode)
	if err != nil {
		return 0, err
	}
	p.cache.SetWithTTL(key, km, 1, p.ttl)
	return km, nil
}

// DistanceMatrix delegates to the provider, caching each OK element as a
// pairwise distance so later single lookups can reuse them.
func (p *CachedProvider) DistanceMatrix(ctx context.Context, origin shared.Coordinate, dests []shared.Coordinate, mode routing.Mode) ([]routing.MatrixElement, error) {
	elements, err := p.inner.DistanceMatrix(ctx, origin, dests, mode)
	if err != nil {
		return nil, err
	}
	for i, el := range elements {
		if el.OK {
			p.cache.SetWithTTL(distanceKey(origin, dests[i], mode), el.DistanceKm, 1, p.ttl)
		}
	}
	return elements, nil
}

// Close releases the cache resources
func (p *CachedProvider) Close() {
	p.cache.Close()
}

// distanceKey rounds endpoints to ~11m so GPS jitter maps to one entry
func distanceKey(origin, dest shared.Coordinate, mode routing.Mode) string {
	return fmt.Sprintf("dist:%s:%.4f,%.4f:%.4f,%.4f", mode, origin.Lat, origin.Lon, dest.Lat, dest.Lon)
}
