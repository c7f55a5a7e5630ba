package cart

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// Snapshot is a frozen, self-contained copy of a session. It is what the
// commit engine consumes and what session stores serialize.
type Snapshot struct {
	Lines         []Line             `json:"lines"`
	CustomerID    *uuid.UUID         `json:"customer_id,omitempty"`
	PaymentMethod enum.PaymentMethod `json:"payment_method,omitempty"`
	Discount      decimal.Decimal    `json:"discount_amount"`
	TaxRate       decimal.Decimal    `json:"tax_rate_percent"`
	Notes         string             `json:"notes,omitempty"`
	Totals        Totals             `json:"totals"`
}

// Snapshot returns a deep copy of the session state
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Lines:         s.Lines(),
		CustomerID:    s.CustomerID(),
		PaymentMethod: s.paymentMethod,
		Discount:      s.discount,
		TaxRate:       s.taxRate,
		Notes:         s.notes,
		Totals:        s.totals,
	}
}

func (snap Snapshot) IsEmpty() bool {
	return len(snap.Lines) == 0
}

// Quantities sums requested units per item
func (snap Snapshot) Quantities() map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(snap.Lines))
	for _, l := range snap.Lines {
		out[l.ItemID] += l.Quantity
	}
	return out
}

// ItemIDs returns the distinct item IDs in line order
func (snap Snapshot) ItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		ids = append(ids, l.ItemID)
	}
	return ids
}

// FromSnapshot rebuilds a session. Stored totals are ignored and derived again.
func FromSnapshot(snap Snapshot) (*Session, error) {
	s := &Session{
		lines:         make([]Line, 0, len(snap.Lines)),
		paymentMethod: snap.PaymentMethod,
		discount:      snap.Discount,
		taxRate:       snap.TaxRate,
		notes:         snap.Notes,
	}
	if snap.CustomerID != nil && *snap.CustomerID != uuid.Nil {
		id := *snap.CustomerID
		s.customerID = &id
	}
	if s.paymentMethod != enum.PaymentMethodNone && !s.paymentMethod.IsValid() {
		return nil, fmt.Errorf("cart: unknown payment method %q", snap.PaymentMethod)
	}
	if s.discount.IsNegative() || s.taxRate.IsNegative() {
		return nil, fmt.Errorf("cart: negative discount or tax rate")
	}

	seen := make(map[uuid.UUID]bool, len(snap.Lines))
	for _, l := range snap.Lines {
		if seen[l.ItemID] {
			return nil, fmt.Errorf("cart: duplicate line for item %s", l.ItemID)
		}
		if l.Quantity <= 0 || l.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("cart: invalid line for item %s", l.ItemID)
		}
		seen[l.ItemID] = true
		s.lines = append(s.lines, l)
	}

	s.recompute()
	return s, nil
}

func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

func (s *Session) UnmarshalJSON(data []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	restored, err := FromSnapshot(snap)
	if err != nil {
		return err
	}
	*s = *restored
	return nil
}
