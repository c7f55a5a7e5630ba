package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/cart"
	"github.com/sangkips/investify-pos/internal/domain/enum"
)

// Flow is one cashier's checkout in progress: the cart session plus the
// navigation state the guard maintains around it. It lives only in a session
// store until commit.
type Flow struct {
	ID         uuid.UUID         `json:"id"`
	BusinessID uuid.UUID         `json:"business_id"`
	CashierID  uuid.UUID         `json:"cashier_id"`
	Session    *cart.Session     `json:"session"`
	Step       enum.CheckoutStep `json:"step"`
	// ReceiptNumber is assigned on first entry into review and kept until the flow resets
	ReceiptNumber string     `json:"receipt_number,omitempty"`
	LastReceiptID *uuid.UUID `json:"last_receipt_id,omitempty"`
	Committing    bool       `json:"committing"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewFlow opens an empty sale for a cashier
func NewFlow(businessID, cashierID uuid.UUID, now time.Time) *Flow {
	return &Flow{
		ID:         uuid.New(),
		BusinessID: businessID,
		CashierID:  cashierID,
		Session:    cart.New(),
		Step:       enum.CheckoutStepSelectingProducts,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Complete resets the cart after a successful commit and lands on the
// completed step. The tax rate carries over to the next sale.
func (f *Flow) Complete(receiptID uuid.UUID, now time.Time) {
	f.resetSession()
	id := receiptID
	f.LastReceiptID = &id
	f.Step = enum.CheckoutStepCompleted
	f.UpdatedAt = now
}

// Cancel discards the sale in progress. Nothing durable was written for it.
func (f *Flow) Cancel(now time.Time) {
	f.resetSession()
	f.Step = enum.CheckoutStepSelectingProducts
	f.UpdatedAt = now
}

// Touch records a mutation of the session
func (f *Flow) Touch(now time.Time) {
	f.UpdatedAt = now
}

func (f *Flow) resetSession() {
	next := cart.New()
	if f.Session != nil {
		_ = next.SetTaxRate(f.Session.TaxRate())
	}
	f.Session = next
	f.ReceiptNumber = ""
	f.Committing = false
}
