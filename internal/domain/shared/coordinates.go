package shared

import "math"

const earthRadiusKm = 6371.0

// Coordinate is a WGS84 point
type Coordinate struct {
	Lat float64
	Lon float64
}

// Valid reports whether the coordinate lies inside WGS84 bounds and is not
// the (0,0) null island placeholder.
func (c Coordinate) Valid() bool {
	if c.Lat == 0 && c.Lon == 0 {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// HaversineKm returns the great-circle distance between two points in
// kilometers. Used as the straight-line fallback when the routing provider
// is unavailable and for proximity filters.
func HaversineKm(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// CoordinateFrom builds a Coordinate from nullable lat/lon columns.
// Returns false when either side is missing or out of bounds.
func CoordinateFrom(lat, lon *float64) (Coordinate, bool) {
	if lat == nil || lon == nil {
		return Coordinate{}, false
	}
	c := Coordinate{Lat: *lat, Lon: *lon}
	if !c.Valid() {
		return Coordinate{}, false
	}
	return c, true
}
