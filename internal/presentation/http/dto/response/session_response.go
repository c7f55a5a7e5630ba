package response

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/application/service"
	"github.com/sangkips/investify-pos/internal/domain/cart"
	"github.com/sangkips/investify-pos/internal/domain/checkout"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// SessionView is the client's view of a checkout flow
type SessionView struct {
	ID            uuid.UUID          `json:"id"`
	Step          enum.CheckoutStep  `json:"step"`
	ReceiptNumber string             `json:"receipt_number,omitempty"`
	LastReceiptID *uuid.UUID         `json:"last_receipt_id,omitempty"`
	Committing    bool               `json:"committing"`
	Lines         []cart.Line        `json:"lines"`
	CustomerID    *uuid.UUID         `json:"customer_id,omitempty"`
	PaymentMethod enum.PaymentMethod `json:"payment_method,omitempty"`
	Discount      decimal.Decimal    `json:"discount_amount"`
	TaxRate       decimal.Decimal    `json:"tax_rate_percent"`
	Notes         string             `json:"notes,omitempty"`
	Totals        cart.Totals        `json:"totals"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// SessionResponse wraps a flow with what the last operation reported
type SessionResponse struct {
	Session    SessionView            `json:"session"`
	Warnings   []cart.Warning         `json:"warnings,omitempty"`
	Transition *checkout.Transition   `json:"transition,omitempty"`
	Outcome    *service.CommitOutcome `json:"outcome,omitempty"`
}

// NewSessionView flattens a flow for the API
func NewSessionView(f *checkout.Flow) SessionView {
	snap := f.Session.Snapshot()
	lines := snap.Lines
	if lines == nil {
		lines = []cart.Line{}
	}
	return SessionView{
		ID:            f.ID,
		Step:          f.Step,
		ReceiptNumber: f.ReceiptNumber,
		LastReceiptID: f.LastReceiptID,
		Committing:    f.Committing,
		Lines:         lines,
		CustomerID:    snap.CustomerID,
		PaymentMethod: snap.PaymentMethod,
		Discount:      snap.Discount,
		TaxRate:       snap.TaxRate,
		Notes:         snap.Notes,
		Totals:        snap.Totals,
		UpdatedAt:     f.UpdatedAt,
	}
}

// NewSessionResponse converts a service result
func NewSessionResponse(res *service.SessionResult) SessionResponse {
	return SessionResponse{
		Session:    NewSessionView(res.Flow),
		Warnings:   res.Warnings,
		Transition: res.Transition,
		Outcome:    res.Outcome,
	}
}
