package journey

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Barcode is the scannable label attached to an order. CodeValue is what
// the handheld scanners read; it stays stable for the order's lifetime.
type Barcode struct {
	ID        string
	OrderID   string
	CodeValue string
	CreatedAt time.Time
}

// NewBarcode mints the order's label: "ORD" + the first 8 hex digits of the
// order id + a 6-digit timestamp suffix to keep reprints distinguishable.
func NewBarcode(orderID string, now time.Time) *Barcode {
	return &Barcode{
		ID:        uuid.New().String(),
		OrderID:   orderID,
		CodeValue: fmt.Sprintf("ORD%s%06d", orderHex(orderID), now.Unix()%1_000_000),
		CreatedAt: now,
	}
}

// OrderCode derives the short human-facing order code from the order id
func OrderCode(orderID string) string {
	return "ORD-" + orderHex(orderID)
}

func orderHex(orderID string) string {
	hex := strings.ToUpper(strings.ReplaceAll(orderID, "-", ""))
	if len(hex) > 8 {
		hex = hex[:8]
	}
	return hex
}
