package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CheckoutTx is the unit of work of one commit attempt. Writes are guarded by
// the versions observed on read; a stale version yields ErrConflict.
type CheckoutTx interface {
	// GetProducts re-reads the authoritative stock of the given products
	GetProducts(ctx context.Context, ids []uuid.UUID) ([]entity.Product, error)
	// DecrementStock removes qty units from a product read in this transaction
	// and stamps its last sale time
	DecrementStock(ctx context.Context, p *entity.Product, qty int, soldAt time.Time) error
	GetCustomer(ctx context.Context, id uuid.UUID) (*entity.Customer, error)
	// RecordPurchase adds one sale of amount to a customer read in this transaction
	RecordPurchase(ctx context.Context, c *entity.Customer, amount decimal.Decimal, at time.Time) error
	CreateReceipt(ctx context.Context, r *entity.Receipt) error
}

// CheckoutStore runs fn atomically. On ErrConflict the whole function is run
// again against fresh reads until the store's retry budget is spent, then
// ErrRetriesExhausted is returned. Any other error from fn aborts immediately
// and is returned unchanged.
type CheckoutStore interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx CheckoutTx) error) error
	// Durable is false for the local simulation store
	Durable() bool
}
