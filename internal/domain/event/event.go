// Package event defines the outcomes the checkout core publishes after a
// commit. Delivery never affects the commit result.
package event

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleCommitted is emitted once per committed receipt
type SaleCommitted struct {
	ReceiptID     uuid.UUID       `json:"receipt_id"`
	ReceiptNumber string          `json:"receipt_number"`
	BusinessID    uuid.UUID       `json:"business_id"`
	CashierID     uuid.UUID       `json:"cashier_id"`
	CustomerID    *uuid.UUID      `json:"customer_id,omitempty"`
	Total         decimal.Decimal `json:"total"`
	ItemCount     int             `json:"item_count"`
	PaymentMethod string          `json:"payment_method"`
	Simulated     bool            `json:"simulated,omitempty"`
	CommittedAt   time.Time       `json:"committed_at"`
}

// LowStock is emitted when a commit takes a product to or below its threshold
type LowStock struct {
	BusinessID uuid.UUID `json:"business_id"`
	ItemID     uuid.UUID `json:"item_id"`
	Name       string    `json:"name"`
	Remaining  int       `json:"remaining"`
	Threshold  int       `json:"threshold"`
	ReceiptID  uuid.UUID `json:"receipt_id"`
	DetectedAt time.Time `json:"detected_at"`
}

// Notifier delivers checkout outcomes to interested parties
type Notifier interface {
	SaleCommitted(ctx context.Context, e SaleCommitted) error
	LowStock(ctx context.Context, e LowStock) error
}
