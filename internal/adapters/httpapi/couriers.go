package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andrescamacho/dispatch-go/internal/application/agent"
	"github.com/andrescamacho/dispatch-go/internal/application/dispatch"
	"github.com/andrescamacho/dispatch-go/internal/application/incident"
	"github.com/andrescamacho/dispatch-go/internal/domain/courier"
	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

type locationRequest struct {
	Lat float64 `json:"lat" binding:"required"`
	Lon float64 `json:"lon" binding:"required"`
}

func (s *Server) updateCourierLocation(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, shared.NewValidationError("body", err.Error()))
		return
	}

	resp, err := s.mediator.Send(c.Request.Context(), dispatch.UpdateCourierLocationCommand{
		CourierID: c.Param("courier_id"),
		Lat:       req.Lat,
		Lon:       req.Lon,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCourierView(resp.(*courier.Courier)))
}

func (s *Server) courierTasks(c *gin.Context) {
	resp, err := s.mediator.Send(c.Request.Context(), dispatch.GetCourierTasksQuery{
		CourierID: c.Param("courier_id"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"legs": toLegViews(resp.([]*journey.Leg))})
}

type incidentRequest struct {
	ShipperID string   `json:"shipper_id" binding:"required"`
	Message   string   `json:"message" binding:"required"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// reportIncident takes a shipper out of rotation and rescues their legs
func (s *Server) reportIncident(c *gin.Context) {
	var req incidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, shared.NewValidationError("body", err.Error()))
		return
	}

	resp, err := s.mediator.Send(c.Request.Context(), incident.ReportCommand{
		CourierID:   req.ShipperID,
		Description: req.Message,
		Lat:         req.Latitude,
		Lon:         req.Longitude,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	result := resp.(incident.Result)
	c.JSON(http.StatusOK, gin.H{
		"courier_id":     result.CourierID,
		"reassigned":     result.Reassigned,
		"failed_leg_ids": result.FailedLegIDs,
	})
}

type optimizeRequest struct {
	TargetID string `json:"target_id"`
}

// optimize triggers agent cycles on demand: one area when target_id is
// given, otherwise every active area.
func (s *Server) optimize(c *gin.Context) {
	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, shared.NewValidationError("body", err.Error()))
		return
	}

	areaIDs := []string{req.TargetID}
	if req.TargetID == "" {
		areas, err := s.uow.Areas().FindAllActive(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		areaIDs = areaIDs[:0]
		for _, a := range areas {
			areaIDs = append(areaIDs, a.ID)
		}
	}

	details := make([]gin.H, 0, len(areaIDs))
	for _, areaID := range areaIDs {
		resp, err := s.mediator.Send(c.Request.Context(), agent.OptimizeCommand{AreaID: areaID})
		if err != nil {
			writeError(c, err)
			return
		}
		result := resp.(agent.OptimizeResult)
		details = append(details, gin.H{
			"area_id":     result.AreaID,
			"turns":       result.Turns,
			"tools_run":   result.ToolsRun,
			"phase1_done": result.Phase1Done,
			"phase2_done": result.Phase2Done,
			"fallback":    result.Fallback,
			"summary":     result.Summary,
		})
	}

	summary := ""
	if len(details) == 1 {
		summary, _ = details[0]["summary"].(string)
	} else {
		summary = fmt.Sprintf("optimized %d areas", len(details))
	}
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"summary":         summary,
		"processed_count": len(details),
		"details":         details,
	})
}
