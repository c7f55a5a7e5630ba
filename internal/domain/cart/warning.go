package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WarningCode identifies a non-fatal adjustment the session made to an input
type WarningCode string

const (
	// WarningStockLimitReached means a quantity was clamped to the stock on hand
	WarningStockLimitReached WarningCode = "stock_limit_reached"
	// WarningDiscountReset means a discount above the subtotal was reset to zero
	WarningDiscountReset WarningCode = "discount_reset"
)

// Warning is surfaced to the caller alongside a successful mutation
type Warning struct {
	Code      WarningCode      `json:"code"`
	ItemID    *uuid.UUID       `json:"item_id,omitempty"`
	Requested int              `json:"requested,omitempty"`
	Applied   int              `json:"applied,omitempty"`
	Discount  *decimal.Decimal `json:"discount,omitempty"`
}

func stockLimitWarning(itemID uuid.UUID, requested, applied int) Warning {
	id := itemID
	return Warning{Code: WarningStockLimitReached, ItemID: &id, Requested: requested, Applied: applied}
}

func discountResetWarning(discount decimal.Decimal) Warning {
	d := discount
	return Warning{Code: WarningDiscountReset, Discount: &d}
}

// HasWarning reports whether code appears in warnings
func HasWarning(warnings []Warning, code WarningCode) bool {
	for _, w := range warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}
