package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
	"gorm.io/gorm"
)

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *gorm.DB) domainRepo.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	var customer entity.Customer
	err := r.db.WithContext(ctx).
		Scopes(TenantScope(ctx)).
		First(&customer, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &customer, classifyError(err)
}

func (r *customerRepository) Search(ctx context.Context, query string, limit int) ([]entity.Customer, error) {
	var customers []entity.Customer
	q := r.db.WithContext(ctx).Scopes(TenantScope(ctx))
	if query != "" {
		like := "%" + query + "%"
		q = q.Where("LOWER(name) LIKE LOWER(?) OR phone LIKE ?", like, like)
	}
	err := q.Order("purchase_count DESC, name ASC").Limit(limit).Find(&customers).Error
	return customers, classifyError(err)
}
