package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sangkips/investify-pos/internal/domain/checkout"
	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
	"go.uber.org/zap"
)

const (
	sessionKeyPrefix = "pos:session:"
	lockKeyPrefix    = "pos:session-lock:"
)

// releaseLockScript deletes the lock only if this holder still owns it
var releaseLockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisSessionStore keeps checkout flows in Redis so any API instance can
// serve any register
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisSessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisSessionStore{client: client, ttl: ttl, logger: logger}
}

func sessionKey(businessID, id uuid.UUID) string {
	return sessionKeyPrefix + businessID.String() + ":" + id.String()
}

func lockKey(businessID, id uuid.UUID) string {
	return lockKeyPrefix + businessID.String() + ":" + id.String()
}

func (s *RedisSessionStore) Get(ctx context.Context, businessID, id uuid.UUID) (*checkout.Flow, error) {
	data, err := s.client.Get(ctx, sessionKey(businessID, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainRepo.ErrStoreUnavailable, err)
	}

	var f checkout.Flow
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &f, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, f *checkout.Flow) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, sessionKey(f.BusinessID, f.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", domainRepo.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	if err := s.client.Del(ctx, sessionKey(businessID, id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", domainRepo.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisSessionStore) Lock(ctx context.Context, businessID, id uuid.UUID, ttl time.Duration) (func(), error) {
	key := lockKey(businessID, id)
	token := uuid.NewString()

	ok, err := s.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainRepo.ErrStoreUnavailable, err)
	}
	if !ok {
		return nil, domainRepo.ErrSessionBusy
	}

	return func() {
		// the request ctx may already be done; release on a fresh one
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseLockScript.Run(releaseCtx, s.client, []string{key}, token).Err(); err != nil {
			// the lock stays held until its ttl runs out
			s.logger.Warn("failed to release session lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
