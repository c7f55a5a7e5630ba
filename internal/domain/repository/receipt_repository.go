package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/pkg/pagination"
)

// ReceiptRepository reads the append-only receipt store
type ReceiptRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Receipt, error)
	GetByNumber(ctx context.Context, number string) (*entity.Receipt, error)
	List(ctx context.Context, params *ReceiptFilterParams) ([]entity.Receipt, int64, error)
}

// ReceiptFilterParams contains filtering parameters for receipt listings
type ReceiptFilterParams struct {
	Pagination *pagination.PaginationParams
	CashierID  *uuid.UUID
	CustomerID *uuid.UUID
}
