package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/internal/infrastructure/txretry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type checkoutStore struct {
	db     *gorm.DB
	policy txretry.Policy
	logger *zap.Logger
}

// NewCheckoutStore creates the durable checkout store. Every attempt runs in
// its own database transaction; version conflicts roll it back and retry.
func NewCheckoutStore(db *gorm.DB, policy txretry.Policy, logger *zap.Logger) domainRepo.CheckoutStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &checkoutStore{db: db, policy: policy, logger: logger}
}

func (s *checkoutStore) Durable() bool { return true }

func (s *checkoutStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx domainRepo.CheckoutTx) error) error {
	return txretry.Run(ctx, s.policy, func(attempt int) error {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(ctx, &checkoutTx{db: tx})
		})
		err = classifyError(err)
		if errors.Is(err, domainRepo.ErrConflict) {
			s.logger.Debug("checkout transaction conflict",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		return err
	})
}

type checkoutTx struct {
	db *gorm.DB
}

func (t *checkoutTx) GetProducts(ctx context.Context, ids []uuid.UUID) ([]entity.Product, error) {
	var products []entity.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := t.db.Scopes(TenantScope(ctx)).
		Where("id IN ?", ids).
		Find(&products).Error
	return products, classifyError(err)
}

func (t *checkoutTx) DecrementStock(ctx context.Context, p *entity.Product, qty int, soldAt time.Time) error {
	res := t.db.Model(&entity.Product{}).
		Scopes(TenantScope(ctx)).
		Where("id = ? AND version = ? AND stock >= ?", p.ID, p.Version, qty).
		Updates(map[string]interface{}{
			"stock":        gorm.Expr("stock - ?", qty),
			"version":      gorm.Expr("version + 1"),
			"last_sold_at": soldAt,
			"updated_at":   soldAt,
		})
	if res.Error != nil {
		return classifyError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domainRepo.ErrConflict
	}

	p.Stock -= qty
	p.Version++
	p.LastSoldAt = &soldAt
	p.UpdatedAt = soldAt
	return nil
}

func (t *checkoutTx) GetCustomer(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	var customer entity.Customer
	err := t.db.Scopes(TenantScope(ctx)).First(&customer, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &customer, classifyError(err)
}

func (t *checkoutTx) RecordPurchase(ctx context.Context, c *entity.Customer, amount decimal.Decimal, at time.Time) error {
	res := t.db.Model(&entity.Customer{}).
		Scopes(TenantScope(ctx)).
		Where("id = ? AND version = ?", c.ID, c.Version).
		Updates(map[string]interface{}{
			"total_spent":      gorm.Expr("total_spent + ?", amount),
			"purchase_count":   gorm.Expr("purchase_count + 1"),
			"last_purchase_at": at,
			"version":          gorm.Expr("version + 1"),
			"updated_at":       at,
		})
	if res.Error != nil {
		return classifyError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domainRepo.ErrConflict
	}

	c.RecordPurchase(amount, at)
	c.Version++
	c.UpdatedAt = at
	return nil
}

func (t *checkoutTx) CreateReceipt(ctx context.Context, r *entity.Receipt) error {
	return classifyError(t.db.Create(r).Error)
}
