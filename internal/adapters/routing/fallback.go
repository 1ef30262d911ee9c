package routing

import (
	"context"
	"log/slog"

	"github.com/andrescamacho/dispatch-go/internal/domain/routing"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

// FallbackProvider decorates a routing.Provider with a straight-line
// fallback for discovery queries only: when a distance matrix fails, the
// elements degrade to haversine so candidate selection keeps working
// through an outage. Point-to-point distances and geocoding have no
// fallback and the error propagates, leaving leg estimates unset instead
// of recording a straight-line number as a road distance.
type FallbackProvider struct {
	inner  routing.Provider
	logger *slog.Logger
}

// NewFallbackProvider wraps inner with haversine degradation on matrices
func NewFallbackProvider(inner routing.Provider, logger *slog.Logger) *FallbackProvider {
	return &FallbackProvider{inner: inner, logger: logger}
}

// Geocode delegates to the provider
func (p *FallbackProvider) Geocode(ctx context.Context, address string) (shared.Coordinate, error) {
	return p.inner.Geocode(ctx, address)
}

// DistanceKm delegates to the provider. Failures propagate so callers
// record the estimate as unknown rather than a fabricated distance.
func (p *FallbackProvider) DistanceKm(ctx context.Context, origin, dest shared.Coordinate, mode routing.Mode) (float64, error) {
	return p.inner.DistanceKm(ctx, origin, dest, mode)
}

// DistanceMatrix returns road distances, or a haversine matrix when the
// provider fails entirely. Per-element failures pass through untouched.
func (p *FallbackProvider) DistanceMatrix(ctx context.Context, origin shared.Coordinate, dests []shared.Coordinate, mode routing.Mode) ([]routing.MatrixElement, error) {
	elements, err := p.inner.DistanceMatrix(ctx, origin, dests, mode)
	if err != nil {
		p.logger.Warn("routing provider failed, falling back to haversine matrix", "error", err)
		elements = make([]routing.MatrixElement, len(dests))
		for i, d := range dests {
			elements[i] = routing.MatrixElement{OK: true, DistanceKm: shared.HaversineKm(origin, d)}
		}
		return elements, nil
	}
	return elements, nil
}
