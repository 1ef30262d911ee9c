package scan

import (
	"context"
	"fmt"

	"github.com/andrescamacho/dispatch-go/internal/application/common"
	"github.com/andrescamacho/dispatch-go/pkg/utils"
)

// HistoryQuery fetches an order's scan trail, oldest first
type HistoryQuery struct {
	OrderID string
}

// WarehouseLogsQuery fetches recent scans recorded at a warehouse
type WarehouseLogsQuery struct {
	WarehouseID string
	Limit       int
}

const maxWarehouseLogs = 200

// HistoryHandler serves the scan audit read side
type HistoryHandler struct {
	uow common.UnitOfWork
}

// NewHistoryHandler creates the handler
func NewHistoryHandler(uow common.UnitOfWork) *HistoryHandler {
	return &HistoryHandler{uow: uow}
}

// Handle serves one of the history queries
func (h *HistoryHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	switch q := request.(type) {
	case HistoryQuery:
		if _, err := h.uow.Orders().FindByID(ctx, q.OrderID); err != nil {
			return nil, err
		}
		return h.uow.ScanLogs().FindByOrder(ctx, q.OrderID)
	case WarehouseLogsQuery:
		limit := q.Limit
		if limit <= 0 {
			limit = 50
		}
		return h.uow.ScanLogs().FindByWarehouse(ctx, q.WarehouseID, utils.Min(limit, maxWarehouseLogs))
	default:
		return nil, fmt.Errorf("invalid request type for HistoryHandler")
	}
}
