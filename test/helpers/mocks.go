package helpers

import (
	"context"
	"sync"

	"github.com/andrescamacho/dispatch-go/internal/domain/routing"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

// StubRoutingProvider answers geocodes from a fixed table and distances by
// straight line, so planner tests never touch the network.
type StubRoutingProvider struct {
	// Geocodes maps normalized addresses to coordinates
	Geocodes map[string]shared.Coordinate
	// Err, when set, fails every call
	Err error
	// DistanceErr, when set, fails only point-to-point lookups
	DistanceErr error

	mu            sync.Mutex
	GeocodeCalls  []string
	MatrixCalls   int
	MatrixModes   []routing.Mode
	DistanceCalls int
	DistanceModes []routing.Mode
}

// Geocode resolves an address from the fixed table
func (s *StubRoutingProvider) Geocode(ctx context.Context, address string) (shared.Coordinate, error) {
	s.mu.Lock()
	s.GeocodeCalls = append(s.GeocodeCalls, address)
	s.mu.Unlock()
	if s.Err != nil {
		return shared.Coordinate{}, s.Err
	}
	if coord, ok := s.Geocodes[address]; ok {
		return coord, nil
	}
	return shared.Coordinate{}, shared.NewUpstreamError("geocoding returned no results for "+address, routing.ErrAddressNotFound)
}

// DistanceKm returns the haversine distance
func (s *StubRoutingProvider) DistanceKm(ctx context.Context, origin, dest shared.Coordinate, mode routing.Mode) (float64, error) {
	s.mu.Lock()
	s.DistanceCalls++
	s.DistanceModes = append(s.DistanceModes, mode)
	s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	if s.DistanceErr != nil {
		return 0, s.DistanceErr
	}
	return shared.HaversineKm(origin, dest), nil
}

// DistanceMatrix returns one OK haversine element per destination
func (s *StubRoutingProvider) DistanceMatrix(ctx context.Context, origin shared.Coordinate, dests []shared.Coordinate, mode routing.Mode) ([]routing.MatrixElement, error) {
	s.mu.Lock()
	s.MatrixCalls++
	s.MatrixModes = append(s.MatrixModes, mode)
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	elements := make([]routing.MatrixElement, len(dests))
	for i, d := range dests {
		elements[i] = routing.MatrixElement{
			OK:         true,
			DistanceKm: shared.HaversineKm(origin, d),
			DurationS:  60,
		}
	}
	return elements, nil
}

// RecordedPush is one captured notification
type RecordedPush struct {
	RecipientID string
	Title       string
	Body        string
}

// RecorderSink captures notifications instead of delivering them
type RecorderSink struct {
	mu     sync.Mutex
	Pushes []RecordedPush
	// Err, when set, fails every push
	Err error
}

// Push records the notification
func (r *RecorderSink) Push(ctx context.Context, recipientID, title, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Pushes = append(r.Pushes, RecordedPush{RecipientID: recipientID, Title: title, Body: body})
	return nil
}

// Sent returns a copy of the captured pushes
func (r *RecorderSink) Sent() []RecordedPush {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordedPush, len(r.Pushes))
	copy(out, r.Pushes)
	return out
}
