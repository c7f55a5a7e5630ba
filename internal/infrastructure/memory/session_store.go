package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/checkout"
	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
)

type sessionKey struct {
	businessID uuid.UUID
	id         uuid.UUID
}

type storedFlow struct {
	data      []byte
	expiresAt time.Time
}

type heldLock struct {
	token     uuid.UUID
	expiresAt time.Time
}

// SessionStore keeps checkout flows in process memory. Flows are stored
// serialized so callers never share a *checkout.Flow.
type SessionStore struct {
	mu    sync.Mutex
	flows map[sessionKey]storedFlow
	locks map[sessionKey]heldLock
	ttl   time.Duration
	now   func() time.Time
}

// NewSessionStore creates a session store whose flows expire ttl after their
// last save. A zero ttl keeps flows until deleted.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		flows: make(map[sessionKey]storedFlow),
		locks: make(map[sessionKey]heldLock),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *SessionStore) Get(ctx context.Context, businessID, id uuid.UUID) (*checkout.Flow, error) {
	s.mu.Lock()
	key := sessionKey{businessID, id}
	stored, ok := s.flows[key]
	if ok && !stored.expiresAt.IsZero() && s.now().After(stored.expiresAt) {
		delete(s.flows, key)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return nil, nil
	}
	var f checkout.Flow
	if err := json.Unmarshal(stored.data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *SessionStore) Save(ctx context.Context, f *checkout.Flow) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	stored := storedFlow{data: data}
	if s.ttl > 0 {
		stored.expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.flows[sessionKey{f.BusinessID, f.ID}] = stored
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	s.mu.Lock()
	delete(s.flows, sessionKey{businessID, id})
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Lock(ctx context.Context, businessID, id uuid.UUID, ttl time.Duration) (func(), error) {
	key := sessionKey{businessID, id}
	token := uuid.New()

	s.mu.Lock()
	defer s.mu.Unlock()
	if held, ok := s.locks[key]; ok && s.now().Before(held.expiresAt) {
		return nil, domainRepo.ErrSessionBusy
	}
	s.locks[key] = heldLock{token: token, expiresAt: s.now().Add(ttl)}

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if held, ok := s.locks[key]; ok && held.token == token {
			delete(s.locks, key)
		}
	}, nil
}
