package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
	"gorm.io/gorm"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) domainRepo.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	var product entity.Product
	err := r.db.WithContext(ctx).
		Scopes(TenantScope(ctx)).
		First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &product, classifyError(err)
}

func (r *productRepository) List(ctx context.Context, params *domainRepo.ProductFilterParams) ([]entity.Product, int64, error) {
	var products []entity.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Product{}).Scopes(TenantScope(ctx))

	if params.Search != "" {
		search := "%" + params.Search + "%"
		query = query.Where("LOWER(name) LIKE LOWER(?) OR LOWER(code) LIKE LOWER(?)", search, search)
	}
	if params.LowStock {
		query = query.Where("low_stock_threshold > 0 AND stock <= low_stock_threshold")
	}
	if params.InStock {
		query = query.Where("stock > 0")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, classifyError(err)
	}

	params.Pagination.Validate()
	err := query.Order("name ASC").
		Offset(params.Pagination.Offset()).
		Limit(params.Pagination.PerPage).
		Find(&products).Error

	return products, total, classifyError(err)
}
