package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type idempotencyRepository struct {
	db *gorm.DB
}

// NewIdempotencyRepository stores replayable responses in the idempotency_keys table
func NewIdempotencyRepository(db *gorm.DB) domainRepo.IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

func (r *idempotencyRepository) GetByKey(ctx context.Context, key string, cashierID uuid.UUID) (*entity.IdempotencyKey, error) {
	var ikey entity.IdempotencyKey
	err := r.db.WithContext(ctx).
		Where(&entity.IdempotencyKey{Key: key, CashierID: cashierID}).
		Where("expires_at > ?", time.Now()).
		First(&ikey).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &ikey, classifyError(err)
}

// Create keeps the first response stored under a key. A stale row for the
// same key is replaced; a live one wins over a concurrent duplicate.
func (r *idempotencyRepository) Create(ctx context.Context, ikey *entity.IdempotencyKey) error {
	return classifyError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&entity.IdempotencyKey{Key: ikey.Key, CashierID: ikey.CashierID}).
			Where("expires_at <= ?", time.Now()).
			Delete(&entity.IdempotencyKey{}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(ikey).Error
	}))
}

func (r *idempotencyRepository) DeleteExpired(ctx context.Context) error {
	return classifyError(r.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now()).
		Delete(&entity.IdempotencyKey{}).Error)
}
