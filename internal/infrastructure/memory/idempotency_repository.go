package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
)

type idempotencyKey struct {
	key       string
	cashierID uuid.UUID
}

// IdempotencyRepository keeps replayable responses in process memory
type IdempotencyRepository struct {
	mu   sync.Mutex
	keys map[idempotencyKey]entity.IdempotencyKey
}

func NewIdempotencyRepository() *IdempotencyRepository {
	return &IdempotencyRepository{keys: make(map[idempotencyKey]entity.IdempotencyKey)}
}

func (r *IdempotencyRepository) GetByKey(ctx context.Context, key string, cashierID uuid.UUID) (*entity.IdempotencyKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ikey, ok := r.keys[idempotencyKey{key, cashierID}]
	if !ok || ikey.IsExpired() {
		return nil, nil
	}
	return &ikey, nil
}

func (r *IdempotencyRepository) Create(ctx context.Context, ikey *entity.IdempotencyKey) error {
	if ikey.ID == uuid.Nil {
		ikey.ID = uuid.New()
	}
	if ikey.CreatedAt.IsZero() {
		ikey.CreatedAt = time.Now()
	}
	k := idempotencyKey{ikey.Key, ikey.CashierID}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.keys[k]; ok && !existing.IsExpired() {
		return nil
	}
	r.keys[k] = *ikey
	return nil
}

func (r *IdempotencyRepository) DeleteExpired(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range r.keys {
		if v.IsExpired() {
			delete(r.keys, k)
		}
	}
	return nil
}
