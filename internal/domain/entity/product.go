package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a sellable item in the business inventory.
// Stock is authoritative only when read inside a checkout transaction.
type Product struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TenantID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name              string          `gorm:"size:255;not null" json:"name"`
	Code              string          `gorm:"size:100;not null;index" json:"code"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"unit_price"`
	Stock             int             `gorm:"not null;default:0" json:"stock"`
	LowStockThreshold int             `gorm:"not null;default:0" json:"low_stock_threshold"`
	Version           int64           `gorm:"not null;default:0" json:"version"`
	LastSoldAt        *time.Time      `json:"last_sold_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new product
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// IsLowStock reports whether stock sits at or under the alert threshold
func (p *Product) IsLowStock() bool {
	return p.LowStockThreshold > 0 && p.Stock <= p.LowStockThreshold
}
