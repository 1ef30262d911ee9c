package journey

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

func TestNewOrder(t *testing.T) {
	// Act
	order, err := NewOrder("sme-1", "area-1", " Nguyen Van A ", "0900000001", "45  Tran Hung Dao,, Hanoi", 2.5, testNow)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, OrderPending, order.Status)
	assert.Equal(t, "Nguyen Van A", order.ReceiverName)
	assert.Equal(t, "45 Tran Hung Dao, Hanoi", order.ReceiverAddress)
	assert.True(t, strings.HasPrefix(order.Code, "ORD-"))
	assert.Len(t, order.Code, len("ORD-")+8)
}

func TestNewOrderValidation(t *testing.T) {
	tests := []struct {
		name    string
		smeID   string
		address string
		weight  float64
	}{
		{"missing sme", "", "45 Tran Hung Dao", 1},
		{"blank address", "sme-1", "   ", 1},
		{"negative weight", "sme-1", "45 Tran Hung Dao", -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOrder(tt.smeID, "area-1", "A", "0900", tt.address, tt.weight, testNow)
			assert.True(t, shared.IsKind(err, shared.KindValidation))
		})
	}
}

func TestOrderTransitions(t *testing.T) {
	order, err := NewOrder("sme-1", "area-1", "A", "0900", "45 Tran Hung Dao", 1, testNow)
	require.NoError(t, err)

	require.NoError(t, order.TransitionTo(OrderInTransit, testNow))
	require.NoError(t, order.TransitionTo(OrderCompleted, testNow))
	assert.True(t, order.IsTerminal())

	err = order.TransitionTo(OrderInTransit, testNow)
	assert.True(t, shared.IsKind(err, shared.KindInvalidState))
}

func TestReceiverCoordinate(t *testing.T) {
	order, err := NewOrder("sme-1", "area-1", "A", "0900", "45 Tran Hung Dao", 1, testNow)
	require.NoError(t, err)

	_, ok := order.ReceiverCoordinate()
	assert.False(t, ok)

	order.SetReceiverCoordinate(shared.Coordinate{Lat: 21.0278, Lon: 105.8342})
	coord, ok := order.ReceiverCoordinate()
	require.True(t, ok)
	assert.Equal(t, 21.0278, coord.Lat)
}

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  45   Tran Hung Dao  ", "45 Tran Hung Dao"},
		{"45 Tran Hung Dao,,, Hanoi", "45 Tran Hung Dao, Hanoi"},
		{", 45 Tran Hung Dao,", "45 Tran Hung Dao"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeAddress(tt.in))
	}
}
