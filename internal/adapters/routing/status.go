package routing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andrescamacho/dispatch-go/internal/domain/routing"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

// StatusTracker decorates a provider and remembers the outcome of the most
// recent scheduled ping, so the health endpoint can report whether the
// routing upstream answered within the last agent tick.
type StatusTracker struct {
	inner routing.Provider
	clock shared.Clock

	mu      sync.Mutex
	pingAt  time.Time
	pingErr error
}

// NewStatusTracker wraps inner for ping bookkeeping
func NewStatusTracker(inner routing.Provider, clock shared.Clock) *StatusTracker {
	return &StatusTracker{inner: inner, clock: clock}
}

// Geocode delegates to the provider
func (t *StatusTracker) Geocode(ctx context.Context, address string) (shared.Coordinate, error) {
	return t.inner.Geocode(ctx, address)
}

// DistanceKm delegates to the provider
func (t *StatusTracker) DistanceKm(ctx context.Context, origin, dest shared.Coordinate, mode routing.Mode) (float64, error) {
	return t.inner.DistanceKm(ctx, origin, dest, mode)
}

// DistanceMatrix delegates to the provider
func (t *StatusTracker) DistanceMatrix(ctx context.Context, origin shared.Coordinate, dests []shared.Coordinate, mode routing.Mode) ([]routing.MatrixElement, error) {
	return t.inner.DistanceMatrix(ctx, origin, dests, mode)
}

// Ping probes the upstream with a short fixed route and records the result
func (t *StatusTracker) Ping(ctx context.Context) error {
	origin := shared.Coordinate{Lat: 21.0278, Lon: 105.8342}
	dest := shared.Coordinate{Lat: 21.0285, Lon: 105.8400}
	_, err := t.inner.DistanceKm(ctx, origin, dest, routing.ModeBike)

	t.mu.Lock()
	t.pingAt = t.clock.Now()
	t.pingErr = err
	t.mu.Unlock()
	return err
}

// Check reports an error when the last ping failed or no ping succeeded
// within maxAge.
func (t *StatusTracker) Check(maxAge time.Duration) error {
	t.mu.Lock()
	at, err := t.pingAt, t.pingErr
	t.mu.Unlock()

	if at.IsZero() {
		return fmt.Errorf("routing provider not probed yet")
	}
	if err != nil {
		return fmt.Errorf("routing ping failed: %w", err)
	}
	if age := t.clock.Now().Sub(at); age > maxAge {
		return fmt.Errorf("routing ping stale by %s", age.Truncate(time.Second))
	}
	return nil
}
