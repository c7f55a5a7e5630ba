package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
)

// CustomerRepository reads customers; aggregates are written only through a CheckoutTx
type CustomerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error)
	// Search matches name or phone, best purchasers first
	Search(ctx context.Context, query string, limit int) ([]entity.Customer, error)
}
