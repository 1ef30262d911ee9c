package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/andrescamacho/dispatch-go/internal/application/dispatch"
	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

type createOrderRequest struct {
	SMEID           string  `json:"sme_id" binding:"required"`
	ReceiverName    string  `json:"receiver_name" binding:"required"`
	ReceiverPhone   string  `json:"receiver_phone"`
	ReceiverAddress string  `json:"receiver_address" binding:"required"`
	WeightKg        float64 `json:"weight_kg"`
	Note            string  `json:"note"`
}

func (s *Server) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, shared.NewValidationError("body", err.Error()))
		return
	}

	resp, err := s.mediator.Send(c.Request.Context(), dispatch.CreateOrderCommand{
		SMEID:           req.SMEID,
		ReceiverName:    req.ReceiverName,
		ReceiverPhone:   req.ReceiverPhone,
		ReceiverAddress: req.ReceiverAddress,
		WeightKg:        req.WeightKg,
		Note:            req.Note,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	created := resp.(dispatch.CreateOrderResponse)
	c.JSON(http.StatusCreated, gin.H{
		"order":      toOrderView(created.Order),
		"code_value": created.Barcode.CodeValue,
	})
}

func (s *Server) createJourney(c *gin.Context) {
	resp, err := s.mediator.Send(c.Request.Context(), dispatch.CreateJourneyCommand{
		OrderID: c.Param("order_id"),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	planned := resp.(dispatch.JourneyResponse)
	c.JSON(http.StatusCreated, gin.H{
		"order": toOrderView(planned.Order),
		"legs":  toLegViews(planned.Legs),
	})
}

func (s *Server) getOrderJourney(c *gin.Context) {
	resp, err := s.mediator.Send(c.Request.Context(), dispatch.GetOrderJourneyQuery{
		OrderID: c.Param("order_id"),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	view := resp.(*dispatch.OrderJourneyView)
	body := gin.H{
		"order": toOrderView(view.Order),
		"legs":  toNamedLegViews(view.Legs, view.CourierNames),
	}
	if view.Barcode != nil {
		body["code_value"] = view.Barcode.CodeValue
	}
	c.JSON(http.StatusOK, body)
}

type assignShipperRequest struct {
	OrderID                string `json:"order_id" binding:"required"`
	ShipperID              string `json:"shipper_id" binding:"required"`
	DestinationHubID       string `json:"destination_hub_id" binding:"required"`
	DestinationSatelliteID string `json:"destination_satellite_id"`
	DeliveryShipperID      string `json:"delivery_shipper_id"`
}

// assignShipper is the dispatcher's manual assignment entry point
func (s *Server) assignShipper(c *gin.Context) {
	var req assignShipperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, shared.NewValidationError("body", err.Error()))
		return
	}

	resp, err := s.mediator.Send(c.Request.Context(), dispatch.AssignShipperCommand{
		OrderID:           req.OrderID,
		PickupCourierID:   req.ShipperID,
		EntryHubID:        req.DestinationHubID,
		ExitSatelliteID:   req.DestinationSatelliteID,
		DeliveryCourierID: req.DeliveryShipperID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp.(dispatch.AssignShipperResult))
}

type updateLegRequest struct {
	CourierID              string  `json:"shipper_id"`
	Unassign               bool    `json:"unassign"`
	OriginWarehouseID      *string `json:"origin_warehouse_id"`
	DestinationWarehouseID *string `json:"destination_warehouse_id"`
	Status                 *string `json:"status"`
	Note                   *string `json:"note"`
}

func (s *Server) updateLeg(c *gin.Context) {
	legID, err := strconv.ParseInt(c.Param("leg_id"), 10, 64)
	if err != nil {
		writeError(c, shared.NewValidationError("leg_id", "must be an integer"))
		return
	}

	var req updateLegRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, shared.NewValidationError("body", err.Error()))
		return
	}

	cmd := dispatch.UpdateLegCommand{
		LegID:                  legID,
		CourierID:              req.CourierID,
		Unassign:               req.Unassign,
		OriginWarehouseID:      req.OriginWarehouseID,
		DestinationWarehouseID: req.DestinationWarehouseID,
		Note:                   req.Note,
	}
	if req.Status != nil {
		status := journey.LegStatus(*req.Status)
		cmd.Status = &status
	}

	resp, err := s.mediator.Send(c.Request.Context(), cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLegView(resp.(*journey.Leg)))
}

func (s *Server) deleteLeg(c *gin.Context) {
	legID, err := strconv.ParseInt(c.Param("leg_id"), 10, 64)
	if err != nil {
		writeError(c, shared.NewValidationError("leg_id", "must be an integer"))
		return
	}

	if _, err := s.mediator.Send(c.Request.Context(), dispatch.DeleteLegCommand{LegID: legID}); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) assignTransfer(c *gin.Context) {
	orderID, courierID, err := assignmentParams(c)
	if err != nil {
		writeError(c, err)
		return
	}
	resp, err := s.mediator.Send(c.Request.Context(), dispatch.AssignTransferCommand{
		OrderID:   orderID,
		CourierID: courierID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLegView(resp.(*journey.Leg)))
}

func (s *Server) assignDelivery(c *gin.Context) {
	orderID, courierID, err := assignmentParams(c)
	if err != nil {
		writeError(c, err)
		return
	}
	resp, err := s.mediator.Send(c.Request.Context(), dispatch.AssignDeliveryCommand{
		OrderID:   orderID,
		CourierID: courierID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLegView(resp.(*journey.Leg)))
}

func assignmentParams(c *gin.Context) (string, string, error) {
	orderID := c.Query("order_id")
	courierID := c.Query("shipper_id")
	if orderID == "" || courierID == "" {
		return "", "", shared.NewValidationError("query", "order_id and shipper_id are required")
	}
	return orderID, courierID, nil
}

// orderLegs lists an order's legs with resolved courier names
func (s *Server) orderLegs(c *gin.Context) {
	resp, err := s.mediator.Send(c.Request.Context(), dispatch.GetOrderJourneyQuery{
		OrderID: c.Param("order_id"),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	view := resp.(*dispatch.OrderJourneyView)
	c.JSON(http.StatusOK, gin.H{
		"order_id": view.Order.ID,
		"legs":     toNamedLegViews(view.Legs, view.CourierNames),
	})
}

func (s *Server) dispatchSummary(c *gin.Context) {
	resp, err := s.mediator.Send(c.Request.Context(), dispatch.GetDispatchSummaryQuery{
		AreaID: c.Query("area_id"),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	summary := resp.(*dispatch.DispatchSummary)
	c.JSON(http.StatusOK, gin.H{
		"area_id":           summary.AreaID,
		"orders_by_status":  summary.OrdersByStatus,
		"total_distance_km": summary.TotalDistanceKm,
	})
}
