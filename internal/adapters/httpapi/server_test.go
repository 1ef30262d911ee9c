package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/andrescamacho/dispatch-go/internal/adapters/barcode"
	"github.com/andrescamacho/dispatch-go/internal/adapters/identity"
	"github.com/andrescamacho/dispatch-go/internal/adapters/persistence"
	"github.com/andrescamacho/dispatch-go/internal/application/common"
	"github.com/andrescamacho/dispatch-go/internal/application/dispatch"
	"github.com/andrescamacho/dispatch-go/internal/application/planner"
	"github.com/andrescamacho/dispatch-go/internal/application/scan"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
	"github.com/andrescamacho/dispatch-go/internal/infrastructure/config"
	"github.com/andrescamacho/dispatch-go/test/helpers"
)

// newTestServer wires a full HTTP server over an in-memory database with a
// static courier identity.
func newTestServer(t *testing.T) (*Server, *gorm.DB) {
	return newTestServerWithProbes(t, nil)
}

func newTestServerWithProbes(t *testing.T, probes *HealthProbes) (*Server, *gorm.DB) {
	t.Helper()
	db := helpers.NewTestDB(t)
	uow := persistence.NewUnitOfWork(db)
	clock := shared.NewMockClock(helpers.FixedTime)
	provider := &helpers.StubRoutingProvider{}
	sink := &helpers.RecorderSink{}

	mediator := common.NewMediator()
	p := planner.NewPlanner(provider, clock)
	require.NoError(t, common.RegisterHandler[dispatch.CreateOrderCommand](mediator, dispatch.NewCreateOrderHandler(uow, clock)))
	require.NoError(t, common.RegisterHandler[dispatch.CreateJourneyCommand](mediator, dispatch.NewCreateJourneyHandler(uow, p, clock)))
	require.NoError(t, common.RegisterHandler[dispatch.AssignShipperCommand](mediator, dispatch.NewAssignShipperHandler(uow, p, clock)))
	require.NoError(t, common.RegisterHandler[dispatch.UpdateLegCommand](mediator, dispatch.NewUpdateLegHandler(uow, provider, clock)))
	require.NoError(t, common.RegisterHandler[dispatch.DeleteLegCommand](mediator, dispatch.NewDeleteLegHandler(uow, clock)))
	require.NoError(t, common.RegisterHandler[dispatch.GetOrderJourneyQuery](mediator, dispatch.NewQueryHandler(uow)))
	require.NoError(t, common.RegisterHandler[scan.Command](mediator, scan.NewHandler(uow, sink, clock)))
	require.NoError(t, common.RegisterHandler[scan.HistoryQuery](mediator, scan.NewHistoryHandler(uow)))

	validator := &identity.StaticValidator{Actor: identity.Actor{ID: "courier-bike", Name: "Test Courier", Role: "COURIER"}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := NewServer(&config.ServerConfig{Mode: "test"}, mediator, uow, validator, barcode.NewRenderer(), nil, probes, logger)

	helpers.SeedArea(t, db, "area-1")
	helpers.SeedSME(t, db, "sme-1", "area-1", 21.0400, 105.8300)
	helpers.SeedWarehouse(t, db, "hub-1", "area-1", "HUB", 21.0300, 105.8400)
	helpers.SeedWarehouse(t, db, "sat-1", "area-1", "SATELLITE", 21.0150, 105.8520)
	helpers.SeedCourier(t, db, "courier-bike", "area-1", "MOTORBIKE", "ONLINE")

	return server, db
}

func doJSON(t *testing.T, server *Server, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	server, _ := newTestServer(t)

	// Create the order
	rec := doJSON(t, server, http.MethodPost, "/orders", `{
		"sme_id": "sme-1",
		"receiver_name": "Tran Thi B",
		"receiver_phone": "0912345678",
		"receiver_address": "45 Lang Ha, Dong Da, Hanoi",
		"weight_kg": 2.5
	}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Order struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"order"`
		CodeValue string `json:"code_value"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "PENDING", created.Order.Status)
	require.NotEmpty(t, created.CodeValue)

	// Plan the journey
	rec = doJSON(t, server, http.MethodPost, "/orders/"+created.Order.ID+"/journey", "", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var planned struct {
		Legs []struct {
			ID   int64  `json:"id"`
			Type string `json:"type"`
		} `json:"legs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &planned))
	require.Len(t, planned.Legs, 3)
	assert.Equal(t, "PICKUP", planned.Legs[0].Type)

	// Assign the pickup to the authenticated courier, then scan it
	rec = doJSON(t, server, http.MethodPut,
		fmt.Sprintf("/dispatch/legs/%d", planned.Legs[0].ID),
		`{"shipper_id": "courier-bike"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, server, http.MethodPost, "/journey/scan",
		`{"code_value": "`+created.CodeValue+`"}`, "any-token")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var scanned struct {
		Action string `json:"action"`
		Order  struct {
			Status string `json:"status"`
		} `json:"order"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scanned))
	assert.Equal(t, "PICKUP_CONFIRM", scanned.Action)
	assert.Equal(t, "IN_TRANSIT", scanned.Order.Status)

	// Journey view now carries the barcode and the scan shows in history
	rec = doJSON(t, server, http.MethodGet, "/orders/"+created.Order.ID+"/journey", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.CodeValue)

	rec = doJSON(t, server, http.MethodGet, "/barcodes/order/"+created.Order.ID+"/history", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "PICKUP_CONFIRM")
}

func TestManualAssignShipperOverHTTP(t *testing.T) {
	server, db := newTestServer(t)
	orderID := helpers.SeedOrder(t, db, "sme-1", "area-1", "PENDING")

	rec := doJSON(t, server, http.MethodPost, "/dispatch/assign-shipper", `{
		"order_id": "`+orderID+`",
		"shipper_id": "courier-bike",
		"destination_hub_id": "hub-1",
		"destination_satellite_id": "sat-1"
	}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// The leg listing resolves the assigned courier's display name
	rec = doJSON(t, server, http.MethodGet, "/dispatch/orders/"+orderID+"/legs", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var listed struct {
		OrderID string `json:"order_id"`
		Legs    []struct {
			Type        string  `json:"type"`
			CourierName *string `json:"courier_name"`
		} `json:"legs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Equal(t, orderID, listed.OrderID)
	require.Len(t, listed.Legs, 3)
	require.NotNil(t, listed.Legs[0].CourierName)
	assert.Equal(t, "Courier courier-bike", *listed.Legs[0].CourierName)
}

func TestAssignShipperRejectsMissingHub(t *testing.T) {
	server, db := newTestServer(t)
	orderID := helpers.SeedOrder(t, db, "sme-1", "area-1", "PENDING")

	rec := doJSON(t, server, http.MethodPost, "/dispatch/assign-shipper",
		`{"order_id": "`+orderID+`", "shipper_id": "courier-bike"}`, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBarcodeImageEndpoint(t *testing.T) {
	server, db := newTestServer(t)
	orderID := helpers.SeedOrder(t, db, "sme-1", "area-1", "PENDING")
	code := helpers.SeedBarcode(t, db, orderID)

	rec := doJSON(t, server, http.MethodGet, "/barcodes/"+code+"/image", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", rec.Body.String()[:4])

	rec = doJSON(t, server, http.MethodGet, "/barcodes/ORDXXXXXXXX000000/image", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScanRequiresBearerToken(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/journey/scan", `{"code_value": "ORDA1B2C3D4000001"}`, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownOrderJourneyAnswers404(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/orders/missing/journey", "", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"database":"ok","routing":"ok"}}`, rec.Body.String())
}

func TestHealthDegradedWhenRoutingStale(t *testing.T) {
	server, _ := newTestServerWithProbes(t, &HealthProbes{
		Routing: func() error { return errors.New("routing ping stale by 2m0s") },
	})

	rec := doJSON(t, server, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
	assert.Contains(t, rec.Body.String(), "routing ping stale")
}
