// Package cart holds the in-memory state of one in-progress sale.
// Nothing in this package touches a store.
package cart

import (
	"math"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"github.com/shopspring/decimal"
)

const (
	// MoneyScale is the minor unit receipts are stored in
	MoneyScale   = 2
	taxRateScale = 3
)

// MaxTaxRatePercent is the highest rate a sale may carry
var MaxTaxRatePercent = decimal.NewFromInt(100)

// Session is the mutable cart of one sale. Totals are recomputed on every
// mutation and cannot be set directly.
type Session struct {
	lines         []Line
	customerID    *uuid.UUID
	paymentMethod enum.PaymentMethod
	discount      decimal.Decimal
	taxRate       decimal.Decimal
	notes         string
	totals        Totals
}

// New creates an empty session
func New() *Session {
	s := &Session{}
	s.recompute()
	return s
}

// AddLine inserts the product or merges it into the existing line for the same
// item, refreshing the name and price snapshot. The resulting quantity never
// exceeds the product's stock.
func (s *Session) AddLine(p *entity.Product, quantity int) ([]Warning, error) {
	if quantity <= 0 {
		return nil, apperror.NewFieldError("quantity", "must be greater than zero")
	}
	if p.Stock <= 0 {
		return nil, apperror.NewOutOfStockError(p.ID.String(), p.Name)
	}

	var warnings []Warning
	idx := s.indexOf(p.ID)
	existing := 0
	if idx >= 0 {
		existing = s.lines[idx].Quantity
	}

	want := existing + quantity
	if quantity > p.Stock-existing {
		requested := want
		if quantity > math.MaxInt-existing {
			requested = math.MaxInt
		}
		warnings = append(warnings, stockLimitWarning(p.ID, requested, p.Stock))
		want = p.Stock
	}

	if idx >= 0 {
		s.lines[idx].ItemName = p.Name
		s.lines[idx].UnitPrice = p.UnitPrice
		s.lines[idx].Quantity = want
	} else {
		s.lines = append(s.lines, Line{
			ItemID:    p.ID,
			ItemName:  p.Name,
			UnitPrice: p.UnitPrice,
			Quantity:  want,
		})
	}

	return append(warnings, s.recompute()...), nil
}

// SetQuantity clamps the line to [1, available]. A quantity of zero or less
// removes the line.
func (s *Session) SetQuantity(itemID uuid.UUID, quantity, available int) ([]Warning, error) {
	idx := s.indexOf(itemID)
	if idx < 0 {
		return nil, apperror.NewNotFoundError("Cart line")
	}
	if quantity <= 0 {
		s.removeAt(idx)
		return s.recompute(), nil
	}
	if available <= 0 {
		return nil, apperror.NewOutOfStockError(itemID.String(), s.lines[idx].ItemName)
	}

	var warnings []Warning
	if quantity > available {
		warnings = append(warnings, stockLimitWarning(itemID, quantity, available))
		quantity = available
	}
	s.lines[idx].Quantity = quantity

	return append(warnings, s.recompute()...), nil
}

// RemoveLine drops the line for itemID if present
func (s *Session) RemoveLine(itemID uuid.UUID) []Warning {
	if idx := s.indexOf(itemID); idx >= 0 {
		s.removeAt(idx)
	}
	return s.recompute()
}

// Clear empties the cart. A discount has nothing to apply to afterwards and is dropped too.
func (s *Session) Clear() {
	s.lines = nil
	s.discount = decimal.Zero
	s.recompute()
}

// SetDiscount applies a resolved fixed discount amount. Amounts above the
// subtotal are reset to zero and reported.
func (s *Session) SetDiscount(amount decimal.Decimal) ([]Warning, error) {
	if amount.IsNegative() {
		return nil, apperror.NewFieldError("amount", "discount cannot be negative")
	}
	if !amount.Equal(amount.Round(MoneyScale)) {
		return nil, apperror.NewFieldError("amount", "discount has more than 2 decimal places")
	}
	var warnings []Warning
	if amount.GreaterThan(s.totals.Subtotal) {
		warnings = append(warnings, discountResetWarning(amount))
		amount = decimal.Zero
	}
	s.discount = amount
	return append(warnings, s.recompute()...), nil
}

// SetTaxRate takes a percentage in [0, MaxTaxRatePercent] with at most 3 decimal places
func (s *Session) SetTaxRate(percent decimal.Decimal) error {
	if percent.IsNegative() {
		return apperror.NewFieldError("percent", "tax rate cannot be negative")
	}
	if percent.GreaterThan(MaxTaxRatePercent) {
		return apperror.NewFieldError("percent", "tax rate cannot exceed "+MaxTaxRatePercent.String()+"%")
	}
	if !percent.Equal(percent.Round(taxRateScale)) {
		return apperror.NewFieldError("percent", "tax rate has more than 3 decimal places")
	}
	s.taxRate = percent
	s.recompute()
	return nil
}

// SetPaymentMethod records the tender; PaymentMethodNone clears it
func (s *Session) SetPaymentMethod(m enum.PaymentMethod) error {
	if m != enum.PaymentMethodNone && !m.IsValid() {
		return apperror.NewFieldError("method", "unknown payment method")
	}
	s.paymentMethod = m
	s.recompute()
	return nil
}

// SetCustomer attaches a customer; nil makes the sale a walk-in
func (s *Session) SetCustomer(id *uuid.UUID) {
	if id == nil || *id == uuid.Nil {
		s.customerID = nil
	} else {
		cp := *id
		s.customerID = &cp
	}
	s.recompute()
}

func (s *Session) SetNotes(notes string) {
	s.notes = notes
	s.recompute()
}

// Lines returns a copy of the cart lines in insertion order
func (s *Session) Lines() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Line returns the line for itemID
func (s *Session) Line(itemID uuid.UUID) (Line, bool) {
	if idx := s.indexOf(itemID); idx >= 0 {
		return s.lines[idx], true
	}
	return Line{}, false
}

func (s *Session) IsEmpty() bool {
	return len(s.lines) == 0
}

func (s *Session) CustomerID() *uuid.UUID {
	if s.customerID == nil {
		return nil
	}
	cp := *s.customerID
	return &cp
}

func (s *Session) PaymentMethod() enum.PaymentMethod {
	return s.paymentMethod
}

func (s *Session) HasPaymentMethod() bool {
	return s.paymentMethod.IsValid()
}

func (s *Session) Discount() decimal.Decimal {
	return s.discount
}

func (s *Session) TaxRate() decimal.Decimal {
	return s.taxRate
}

func (s *Session) Notes() string {
	return s.notes
}

func (s *Session) Totals() Totals {
	return s.totals
}

func (s *Session) indexOf(itemID uuid.UUID) int {
	for i := range s.lines {
		if s.lines[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

func (s *Session) removeAt(idx int) {
	s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
}

// recompute derives every total from the current inputs and re-checks the
// discount bound, which a shrinking subtotal can violate.
func (s *Session) recompute() []Warning {
	subtotal := decimal.Zero
	for i := range s.lines {
		s.lines[i].LineTotal = s.lines[i].total()
		subtotal = subtotal.Add(s.lines[i].LineTotal)
	}

	var warnings []Warning
	if s.discount.GreaterThan(subtotal) {
		warnings = append(warnings, discountResetWarning(s.discount))
		s.discount = decimal.Zero
	}

	s.totals = computeTotals(subtotal, s.discount, s.taxRate)
	return warnings
}
