package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Customer represents a customer of the business. The purchase aggregates
// change only as a side effect of a committed sale.
type Customer struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TenantID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name           string          `gorm:"size:255;not null" json:"name"`
	Email          *string         `gorm:"size:255" json:"email,omitempty"`
	Phone          *string         `gorm:"size:50" json:"phone,omitempty"`
	TotalSpent     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"total_spent"`
	PurchaseCount  int             `gorm:"not null;default:0" json:"purchase_count"`
	LastPurchaseAt *time.Time      `json:"last_purchase_at,omitempty"`
	Version        int64           `gorm:"not null;default:0" json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new customer
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}

// RecordPurchase applies the additive aggregation of one committed sale
func (c *Customer) RecordPurchase(total decimal.Decimal, at time.Time) {
	c.TotalSpent = c.TotalSpent.Add(total)
	c.PurchaseCount++
	c.LastPurchaseAt = &at
}
