package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddLineRequest adds units of a product to the cart. Stock clamps the quantity further.
type AddLineRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1,max=100000"`
}

// SetQuantityRequest replaces a line's quantity. Zero or less removes the line.
type SetQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required,max=100000"`
}

// SetCustomerRequest attaches a customer; a null id makes the sale a walk-in
type SetCustomerRequest struct {
	CustomerID *uuid.UUID `json:"customer_id"`
}

// SetPaymentRequest selects the tender
type SetPaymentRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// SetDiscountRequest sets a fixed discount amount
type SetDiscountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// SetTaxRateRequest sets the tax rate in percent
type SetTaxRateRequest struct {
	Percent decimal.Decimal `json:"percent"`
}

// SetNotesRequest replaces the sale notes
type SetNotesRequest struct {
	Notes string `json:"notes" binding:"max=500"`
}

// CommitRequest finalizes the sale under review
type CommitRequest struct {
	Print bool `json:"print"`
}

// ProductFilterRequest represents product filter parameters
type ProductFilterRequest struct {
	Search   string `form:"search"`
	LowStock bool   `form:"low_stock"`
	InStock  bool   `form:"in_stock"`
	Page     int    `form:"page"`
	PerPage  int    `form:"per_page"`
}

// ReceiptFilterRequest represents receipt filter parameters
type ReceiptFilterRequest struct {
	CashierID  string `form:"cashier_id" binding:"omitempty,uuid"`
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	Page       int    `form:"page"`
	PerPage    int    `form:"per_page"`
}
