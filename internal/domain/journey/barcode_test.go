package journey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBarcode(t *testing.T) {
	// Arrange
	orderID := "a1b2c3d4-e5f6-7890-abcd-ef0123456789"

	// Act
	barcode := NewBarcode(orderID, testNow)

	// Assert
	require.NotEmpty(t, barcode.ID)
	assert.Equal(t, orderID, barcode.OrderID)
	assert.Equal(t, "ORDA1B2C3D4", barcode.CodeValue[:11])
	assert.Len(t, barcode.CodeValue, 11+6)
}

func TestOrderCode(t *testing.T) {
	assert.Equal(t, "ORD-A1B2C3D4", OrderCode("a1b2c3d4-e5f6-7890-abcd-ef0123456789"))
	assert.Equal(t, "ORD-AB", OrderCode("ab"))
}
