package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one product entry of a cart. Name and price are snapshots taken
// when the product was added; LineTotal is derived.
type Line struct {
	ItemID    uuid.UUID       `json:"item_id"`
	ItemName  string          `json:"item_name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

func (l Line) total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Totals are the derived money fields of a session
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount_amount"`
	TaxableBase decimal.Decimal `json:"taxable_base"`
	Tax         decimal.Decimal `json:"tax_amount"`
	Total       decimal.Decimal `json:"total"`
}

var hundred = decimal.NewFromInt(100)

// computeTotals applies discount before tax and rounds tax to the minor unit
func computeTotals(subtotal, discount, taxRate decimal.Decimal) Totals {
	base := subtotal.Sub(discount)
	tax := base.Mul(taxRate).Div(hundred).Round(MoneyScale)
	return Totals{
		Subtotal:    subtotal,
		Discount:    discount,
		TaxableBase: base,
		Tax:         tax,
		Total:       base.Add(tax),
	}
}
