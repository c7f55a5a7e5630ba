package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrReceiptImmutable is returned by the persistence hooks on any update or delete
var ErrReceiptImmutable = errors.New("receipts are immutable")

// Receipt is the durable record of one committed sale. It is written exactly
// once inside the checkout transaction and never changed afterwards.
type Receipt struct {
	ID             uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	TenantID       uuid.UUID          `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ReceiptNumber  string             `gorm:"size:64;not null;index" json:"receipt_number"`
	SessionID      uuid.UUID          `gorm:"type:uuid;not null;index" json:"session_id"`
	CashierID      uuid.UUID          `gorm:"type:uuid;not null;index" json:"cashier_id"`
	CustomerID     *uuid.UUID         `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	Lines          []ReceiptLine      `gorm:"foreignKey:ReceiptID" json:"lines"`
	Subtotal       decimal.Decimal    `gorm:"type:decimal(14,2);not null" json:"subtotal"`
	DiscountAmount decimal.Decimal    `gorm:"type:decimal(14,2);not null" json:"discount_amount"`
	TaxRatePercent decimal.Decimal    `gorm:"type:decimal(6,3);not null" json:"tax_rate_percent"`
	TaxAmount      decimal.Decimal    `gorm:"type:decimal(14,2);not null" json:"tax_amount"`
	Total          decimal.Decimal    `gorm:"type:decimal(14,2);not null" json:"total"`
	PaymentMethod  enum.PaymentMethod `gorm:"size:32;not null" json:"payment_method"`
	Notes          string             `gorm:"type:text" json:"notes,omitempty"`
	// Simulated marks receipts fabricated by the local simulation store; they are never durable
	Simulated bool      `gorm:"-" json:"simulated,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ReceiptLine is the frozen snapshot of one cart line at commit time
type ReceiptLine struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"-"`
	ReceiptID uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	ItemID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"item_id"`
	ItemName  string          `gorm:"size:255;not null" json:"item_name"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	LineTotal decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"line_total"`
}

// BeforeCreate generates a UUID before creating a new receipt
func (r *Receipt) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *Receipt) BeforeUpdate(tx *gorm.DB) error {
	return ErrReceiptImmutable
}

func (r *Receipt) BeforeDelete(tx *gorm.DB) error {
	return ErrReceiptImmutable
}

// TableName returns the table name for the Receipt model
func (Receipt) TableName() string {
	return "receipts"
}

// BeforeCreate generates a UUID before creating a new receipt line
func (l *ReceiptLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the ReceiptLine model
func (ReceiptLine) TableName() string {
	return "receipt_lines"
}

// ItemCount returns the number of units sold on the receipt
func (r *Receipt) ItemCount() int {
	n := 0
	for _, l := range r.Lines {
		n += l.Quantity
	}
	return n
}
