package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoordinateValid(t *testing.T) {
	tests := []struct {
		name  string
		coord Coordinate
		want  bool
	}{
		{"hanoi", Coordinate{Lat: 21.0278, Lon: 105.8342}, true},
		{"null island rejected", Coordinate{Lat: 0, Lon: 0}, false},
		{"latitude out of bounds", Coordinate{Lat: 91, Lon: 10}, false},
		{"longitude out of bounds", Coordinate{Lat: 10, Lon: -181}, false},
		{"southern hemisphere", Coordinate{Lat: -33.8688, Lon: 151.2093}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.coord.Valid())
		})
	}
}

func TestHaversineKm(t *testing.T) {
	// Arrange
	hanoi := Coordinate{Lat: 21.0278, Lon: 105.8342}
	saigon := Coordinate{Lat: 10.8231, Lon: 106.6297}

	// Act
	km := HaversineKm(hanoi, saigon)

	// Assert
	assert.InDelta(t, 1137, km, 15)
	assert.Zero(t, HaversineKm(hanoi, hanoi))
}

func TestCoordinateFrom(t *testing.T) {
	lat, lon := 21.0278, 105.8342
	zero := 0.0

	t.Run("both present", func(t *testing.T) {
		coord, ok := CoordinateFrom(&lat, &lon)
		assert.True(t, ok)
		assert.Equal(t, Coordinate{Lat: lat, Lon: lon}, coord)
	})

	t.Run("missing side", func(t *testing.T) {
		_, ok := CoordinateFrom(&lat, nil)
		assert.False(t, ok)
	})

	t.Run("null island", func(t *testing.T) {
		_, ok := CoordinateFrom(&zero, &zero)
		assert.False(t, ok)
	})
}
