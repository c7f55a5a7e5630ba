package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
	"gorm.io/gorm"
)

type receiptRepository struct {
	db *gorm.DB
}

// NewReceiptRepository creates a read-only receipt repository. Receipts are
// created by the checkout store only.
func NewReceiptRepository(db *gorm.DB) domainRepo.ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	var receipt entity.Receipt
	err := r.db.WithContext(ctx).
		Scopes(TenantScope(ctx)).
		Preload("Lines").
		First(&receipt, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &receipt, classifyError(err)
}

// GetByNumber returns the most recent receipt carrying the number. Numbers are
// references, not keys, so a collision resolves to the newest sale.
func (r *receiptRepository) GetByNumber(ctx context.Context, number string) (*entity.Receipt, error) {
	var receipt entity.Receipt
	err := r.db.WithContext(ctx).
		Scopes(TenantScope(ctx)).
		Preload("Lines").
		Where("receipt_number = ?", number).
		Order("created_at DESC").
		First(&receipt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &receipt, classifyError(err)
}

func (r *receiptRepository) List(ctx context.Context, params *domainRepo.ReceiptFilterParams) ([]entity.Receipt, int64, error) {
	var receipts []entity.Receipt
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Receipt{}).Scopes(TenantScope(ctx))

	if params.CashierID != nil {
		query = query.Where("cashier_id = ?", *params.CashierID)
	}
	if params.CustomerID != nil {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, classifyError(err)
	}

	params.Pagination.Validate()
	err := query.Preload("Lines").
		Order("created_at DESC").
		Offset(params.Pagination.Offset()).
		Limit(params.Pagination.PerPage).
		Find(&receipts).Error

	return receipts, total, classifyError(err)
}
