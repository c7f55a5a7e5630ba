package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
)

// IdempotencyRepository stores the first successful response per cashier and key
// so a till resubmitting after a timeout gets the same receipt back.
type IdempotencyRepository interface {
	// GetByKey returns the live entry for key, or nil when none exists or it expired
	GetByKey(ctx context.Context, key string, cashierID uuid.UUID) (*entity.IdempotencyKey, error)
	// Create is a no-op when a live entry already holds the key
	Create(ctx context.Context, ikey *entity.IdempotencyKey) error
	DeleteExpired(ctx context.Context) error
}
