package warehouse

import (
	"time"

	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

// Type classifies a warehouse's role in the network
type Type string

const (
	TypeHub        Type = "HUB"
	TypeSatellite  Type = "SATELLITE"
	TypeLocalDepot Type = "LOCAL_DEPOT"
)

// Status is the operational state of a warehouse. Only ACTIVE warehouses
// take part in planning; INACTIVE and MAINTENANCE nodes are skipped.
type Status string

const (
	StatusActive      Status = "ACTIVE"
	StatusInactive    Status = "INACTIVE"
	StatusMaintenance Status = "MAINTENANCE"
)

// Warehouse is a node in the transfer network
type Warehouse struct {
	ID            string
	Name          string
	Type          Type
	AreaID        string
	Address       string
	Lat           *float64
	Lon           *float64
	CapacityLimit int
	CurrentLoad   int
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsActive reports whether the warehouse participates in planning
func (w *Warehouse) IsActive() bool {
	return w.Status == StatusActive
}

// Coordinate returns the warehouse location, if geocoded
func (w *Warehouse) Coordinate() (shared.Coordinate, bool) {
	return shared.CoordinateFrom(w.Lat, w.Lon)
}

// HasCapacity reports whether the warehouse can accept more load.
// A zero CapacityLimit means unbounded.
func (w *Warehouse) HasCapacity() bool {
	return w.CapacityLimit == 0 || w.CurrentLoad < w.CapacityLimit
}

// Area is a geographic service area
type Area struct {
	ID        string
	Name      string
	CenterLat *float64
	CenterLon *float64
	RadiusKm  float64
	Active    bool
	CreatedAt time.Time
}

// Center returns the area centroid, if set
func (a *Area) Center() (shared.Coordinate, bool) {
	return shared.CoordinateFrom(a.CenterLat, a.CenterLon)
}

// SME is a small-business sender whose orders enter the network
type SME struct {
	ID        string
	Name      string
	Phone     string
	Address   string
	AreaID    string
	Lat       *float64
	Lon       *float64
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Coordinate returns the SME pickup location, if geocoded
func (s *SME) Coordinate() (shared.Coordinate, bool) {
	return shared.CoordinateFrom(s.Lat, s.Lon)
}
