package routing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/dispatch-go/internal/domain/routing"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
	"github.com/andrescamacho/dispatch-go/test/helpers"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFallbackDistancePropagatesError(t *testing.T) {
	// Arrange: the provider is down. Point-to-point lookups feed leg
	// estimates, so they must fail rather than fabricate a distance.
	inner := &helpers.StubRoutingProvider{Err: errors.New("connection refused")}
	provider := NewFallbackProvider(inner, discardLogger())
	origin := shared.Coordinate{Lat: 21.0285, Lon: 105.8542}
	dest := shared.Coordinate{Lat: 21.0150, Lon: 105.8520}

	// Act
	_, err := provider.DistanceKm(context.Background(), origin, dest, routing.ModeBike)

	// Assert
	assert.Error(t, err)
}

func TestFallbackMatrixDegradesToHaversine(t *testing.T) {
	inner := &helpers.StubRoutingProvider{Err: errors.New("connection refused")}
	provider := NewFallbackProvider(inner, discardLogger())
	origin := shared.Coordinate{Lat: 21.0285, Lon: 105.8542}
	dests := []shared.Coordinate{
		{Lat: 21.0150, Lon: 105.8520},
		{Lat: 21.0500, Lon: 105.8000},
	}

	elements, err := provider.DistanceMatrix(context.Background(), origin, dests, routing.ModeCar)

	require.NoError(t, err)
	require.Len(t, elements, 2)
	for i, el := range elements {
		assert.True(t, el.OK)
		assert.InDelta(t, shared.HaversineKm(origin, dests[i]), el.DistanceKm, 0.001)
	}
}

func TestFallbackGeocodePropagatesError(t *testing.T) {
	// Geocoding has no straight-line substitute
	inner := &helpers.StubRoutingProvider{Err: errors.New("connection refused")}
	provider := NewFallbackProvider(inner, discardLogger())

	_, err := provider.Geocode(context.Background(), "12 hang bac, hoan kiem, hanoi")

	assert.Error(t, err)
}

func TestFallbackPassesThroughHealthyProvider(t *testing.T) {
	inner := &helpers.StubRoutingProvider{}
	provider := NewFallbackProvider(inner, discardLogger())
	origin := shared.Coordinate{Lat: 21.0285, Lon: 105.8542}
	dest := shared.Coordinate{Lat: 21.0150, Lon: 105.8520}

	km, err := provider.DistanceKm(context.Background(), origin, dest, routing.ModeBike)

	require.NoError(t, err)
	assert.Greater(t, km, 0.0)
	assert.Equal(t, 1, inner.DistanceCalls)
}
