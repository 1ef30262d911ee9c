package httpapi

import (
	"time"

	"github.com/andrescamacho/dispatch-go/internal/domain/courier"
	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
)

type orderView struct {
	ID              string   `json:"id"`
	Code            string   `json:"code"`
	SMEID           string   `json:"sme_id"`
	AreaID          string   `json:"area_id"`
	ReceiverName    string   `json:"receiver_name"`
	ReceiverPhone   string   `json:"receiver_phone,omitempty"`
	ReceiverAddress string   `json:"receiver_address"`
	ReceiverLat     *float64 `json:"receiver_lat,omitempty"`
	ReceiverLon     *float64 `json:"receiver_lon,omitempty"`
	WeightKg        float64  `json:"weight_kg"`
	Status          string   `json:"status"`
	TotalDistanceKm *float64 `json:"total_distance_km,omitempty"`
	Note            string   `json:"note,omitempty"`
	CreatedAt       string   `json:"created_at"`
}

type legView struct {
	ID                     int64    `json:"id"`
	OrderID                string   `json:"order_id"`
	Sequence               int      `json:"sequence"`
	Type                   string   `json:"type"`
	OriginSMEID            *string  `json:"origin_sme_id,omitempty"`
	OriginWarehouseID      *string  `json:"origin_warehouse_id,omitempty"`
	DestinationWarehouseID *string  `json:"destination_warehouse_id,omitempty"`
	DestinationIsReceiver  bool     `json:"destination_is_receiver"`
	CourierID              *string  `json:"courier_id,omitempty"`
	CourierName            *string  `json:"courier_name,omitempty"`
	Status                 string   `json:"status"`
	EstimatedDistanceKm    *float64 `json:"estimated_distance_km,omitempty"`
	Note                   string   `json:"note,omitempty"`
	StartedAt              *string  `json:"started_at,omitempty"`
	CompletedAt            *string  `json:"completed_at,omitempty"`
}

type scanLogView struct {
	ID          int64    `json:"id"`
	OrderID     string   `json:"order_id"`
	CodeValue   string   `json:"code_value"`
	Action      string   `json:"action"`
	ActorID     string   `json:"actor_id"`
	ActorRole   string   `json:"actor_role"`
	WarehouseID *string  `json:"warehouse_id,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	Note        string   `json:"note,omitempty"`
	ScannedAt   string   `json:"scanned_at"`
}

type courierView struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Vehicle    string   `json:"vehicle"`
	Status     string   `json:"status"`
	AreaID     string   `json:"area_id"`
	CurrentLat *float64 `json:"current_lat,omitempty"`
	CurrentLon *float64 `json:"current_lon,omitempty"`
	Rating     float64  `json:"rating"`
}

func toOrderView(o *journey.Order) orderView {
	return orderView{
		ID:              o.ID,
		Code:            o.Code,
		SMEID:           o.SMEID,
		AreaID:          o.AreaID,
		ReceiverName:    o.ReceiverName,
		ReceiverPhone:   o.ReceiverPhone,
		ReceiverAddress: o.ReceiverAddress,
		ReceiverLat:     o.ReceiverLat,
		ReceiverLon:     o.ReceiverLon,
		WeightKg:        o.WeightKg,
		Status:          string(o.Status),
		TotalDistanceKm: o.TotalDistanceKm,
		Note:            o.Note,
		CreatedAt:       o.CreatedAt.Format(time.RFC3339),
	}
}

func toLegView(l *journey.Leg) legView {
	return legView{
		ID:                     l.ID,
		OrderID:                l.OrderID,
		Sequence:               l.Sequence,
		Type:                   string(l.Type),
		OriginSMEID:            l.OriginSMEID,
		OriginWarehouseID:      l.OriginWarehouseID,
		DestinationWarehouseID: l.DestinationWarehouseID,
		DestinationIsReceiver:  l.DestinationIsReceiver,
		CourierID:              l.CourierID,
		Status:                 string(l.Status),
		EstimatedDistanceKm:    l.EstimatedDistanceKm,
		Note:                   l.Note,
		StartedAt:              formatTime(l.StartedAt),
		CompletedAt:            formatTime(l.CompletedAt),
	}
}

func toLegViews(legs []*journey.Leg) []legView {
	views := make([]legView, len(legs))
	for i, l := range legs {
		views[i] = toLegView(l)
	}
	return views
}

// toNamedLegViews attaches resolved courier display names
func toNamedLegViews(legs []*journey.Leg, names map[string]string) []legView {
	views := toLegViews(legs)
	for i, l := range legs {
		if l.CourierID == nil {
			continue
		}
		if name, ok := names[*l.CourierID]; ok {
			n := name
			views[i].CourierName = &n
		}
	}
	return views
}

func toScanLogViews(logs []*journey.ScanLog) []scanLogView {
	views := make([]scanLogView, len(logs))
	for i, l := range logs {
		views[i] = scanLogView{
			ID:          l.ID,
			OrderID:     l.OrderID,
			CodeValue:   l.CodeValue,
			Action:      string(l.Action),
			ActorID:     l.ActorID,
			ActorRole:   l.ActorRole,
			WarehouseID: l.WarehouseID,
			Lat:         l.Lat,
			Lon:         l.Lon,
			Note:        l.Note,
			ScannedAt:   l.ScannedAt.Format(time.RFC3339),
		}
	}
	return views
}

func toCourierView(c *courier.Courier) courierView {
	return courierView{
		ID:         c.ID,
		Name:       c.Name,
		Vehicle:    string(c.Vehicle),
		Status:     string(c.Status),
		AreaID:     c.AreaID,
		CurrentLat: c.CurrentLat,
		CurrentLon: c.CurrentLon,
		Rating:     c.Rating,
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
