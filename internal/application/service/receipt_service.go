package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"github.com/sangkips/investify-pos/pkg/pagination"
)

// ReceiptService reads committed receipts. There is no update or delete path.
type ReceiptService struct {
	receiptRepo repository.ReceiptRepository
}

// NewReceiptService creates a new receipt service
func NewReceiptService(receiptRepo repository.ReceiptRepository) *ReceiptService {
	return &ReceiptService{receiptRepo: receiptRepo}
}

// Get retrieves a receipt with its lines
func (s *ReceiptService) Get(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	receipt, err := s.receiptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if receipt == nil {
		return nil, apperror.NewNotFoundError("Receipt")
	}
	return receipt, nil
}

// GetByNumber retrieves the newest receipt printed with number
func (s *ReceiptService) GetByNumber(ctx context.Context, number string) (*entity.Receipt, error) {
	receipt, err := s.receiptRepo.GetByNumber(ctx, number)
	if err != nil {
		return nil, storeError(err)
	}
	if receipt == nil {
		return nil, apperror.NewNotFoundError("Receipt")
	}
	return receipt, nil
}

// List returns receipts newest first
func (s *ReceiptService) List(ctx context.Context, params *repository.ReceiptFilterParams) (*pagination.PaginatedResult[entity.Receipt], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	receipts, total, err := s.receiptRepo.List(ctx, params)
	if err != nil {
		return nil, storeError(err)
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(receipts, pag), nil
}
