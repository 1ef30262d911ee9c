package dispatch

import (
	"context"
	"fmt"

	"github.com/andrescamacho/dispatch-go/internal/application/common"
	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

// CreateOrderCommand registers a new shipment for an SME sender and mints
// its barcode label.
type CreateOrderCommand struct {
	SMEID           string
	ReceiverName    string
	ReceiverPhone   string
	ReceiverAddress string
	WeightKg        float64
	Note            string
}

// CreateOrderResponse carries the created order and its label
type CreateOrderResponse struct {
	Order   *journey.Order
	Barcode *journey.Barcode
}

// CreateOrderHandler handles order intake
type CreateOrderHandler struct {
	uow   common.UnitOfWork
	clock shared.Clock
}

// NewCreateOrderHandler creates the handler
func NewCreateOrderHandler(uow common.UnitOfWork, clock shared.Clock) *CreateOrderHandler {
	return &CreateOrderHandler{uow: uow, clock: clock}
}

// Handle creates the order in the sender's area and attaches a barcode
func (h *CreateOrderHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(CreateOrderCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type for CreateOrderHandler")
	}

	var resp CreateOrderResponse
	err := h.uow.Execute(ctx, func(repos common.Repositories) error {
		sme, err := repos.SMEs().FindByID(ctx, cmd.SMEID)
		if err != nil {
			return err
		}

		now := h.clock.Now()
		order, err := journey.NewOrder(sme.ID, sme.AreaID, cmd.ReceiverName,
			cmd.ReceiverPhone, cmd.ReceiverAddress, cmd.WeightKg, now)
		if err != nil {
			return err
		}
		order.Note = cmd.Note
		if err := repos.Orders().Create(ctx, order); err != nil {
			return err
		}

		barcode := journey.NewBarcode(order.ID, now)
		if err := repos.Barcodes().Create(ctx, barcode); err != nil {
			return err
		}

		resp = CreateOrderResponse{Order: order, Barcode: barcode}
		return nil
	})
	if err != nil {
		return nil, err
	}

	common.LoggerFromContext(ctx).Info("order created",
		"order_id", resp.Order.ID, "sme_id", cmd.SMEID, "code", resp.Barcode.CodeValue)
	return resp, nil
}
