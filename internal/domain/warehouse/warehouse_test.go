package warehouse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCapacity(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		load  int
		want  bool
	}{
		{"below limit", 100, 99, true},
		{"at limit", 100, 100, false},
		{"over limit", 100, 150, false},
		{"zero limit is unbounded", 0, 5000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &Warehouse{CapacityLimit: tt.limit, CurrentLoad: tt.load}
			assert.Equal(t, tt.want, w.HasCapacity())
		})
	}
}

func TestIsActive(t *testing.T) {
	assert.True(t, (&Warehouse{Status: StatusActive}).IsActive())
	assert.False(t, (&Warehouse{Status: StatusInactive}).IsActive())
	assert.False(t, (&Warehouse{Status: StatusMaintenance}).IsActive())
}

func TestCoordinateAccessors(t *testing.T) {
	lat, lon := 21.0300, 105.8400

	w := &Warehouse{Lat: &lat, Lon: &lon}
	coord, ok := w.Coordinate()
	assert.True(t, ok)
	assert.Equal(t, lat, coord.Lat)

	_, ok = (&Warehouse{}).Coordinate()
	assert.False(t, ok)

	_, ok = (&SME{}).Coordinate()
	assert.False(t, ok)

	a := &Area{CenterLat: &lat, CenterLon: &lon}
	center, ok := a.Center()
	assert.True(t, ok)
	assert.Equal(t, lon, center.Lon)
}
