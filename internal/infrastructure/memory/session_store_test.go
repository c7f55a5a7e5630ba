package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/checkout"
	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
)

func TestSessionStoreRoundTrip(t *testing.T) {
	s := NewSessionStore(time.Hour)
	ctx := context.Background()
	f := checkout.NewFlow(uuid.New(), uuid.New(), time.Now())
	f.Session.SetNotes("deliver after 5pm")

	if err := s.Save(ctx, f); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Get(ctx, f.BusinessID, f.ID)
	if err != nil || got == nil {
		t.Fatalf("expected flow, got %v %v", got, err)
	}
	if got == f || got.Session.Notes() != "deliver after 5pm" {
		t.Errorf("expected an independent copy with notes, got %+v", got)
	}

	if other, _ := s.Get(ctx, uuid.New(), f.ID); other != nil {
		t.Error("flow visible to another business")
	}

	_ = s.Delete(ctx, f.BusinessID, f.ID)
	if got, _ := s.Get(ctx, f.BusinessID, f.ID); got != nil {
		t.Error("expected flow to be deleted")
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	s := NewSessionStore(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()
	f := checkout.NewFlow(uuid.New(), uuid.New(), now)
	_ = s.Save(ctx, f)

	now = now.Add(2 * time.Minute)
	if got, _ := s.Get(ctx, f.BusinessID, f.ID); got != nil {
		t.Error("expected expired flow to be gone")
	}
}

func TestSessionLockIsExclusive(t *testing.T) {
	s := NewSessionStore(0)
	ctx := context.Background()
	business, id := uuid.New(), uuid.New()

	unlock, err := s.Lock(ctx, business, id, time.Minute)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if _, err := s.Lock(ctx, business, id, time.Minute); !errors.Is(err, domainRepo.ErrSessionBusy) {
		t.Fatalf("expected busy, got %v", err)
	}

	unlock()
	unlock2, err := s.Lock(ctx, business, id, time.Minute)
	if err != nil {
		t.Fatalf("expected lock after release, got %v", err)
	}

	// a stale unlock must not release the new holder
	unlock()
	if _, err := s.Lock(ctx, business, id, time.Minute); !errors.Is(err, domainRepo.ErrSessionBusy) {
		t.Errorf("expected busy after stale unlock, got %v", err)
	}
	unlock2()
}

func TestSessionLockExpires(t *testing.T) {
	s := NewSessionStore(0)
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()
	business, id := uuid.New(), uuid.New()

	if _, err := s.Lock(ctx, business, id, time.Second); err != nil {
		t.Fatalf("lock: %v", err)
	}
	now = now.Add(2 * time.Second)
	if _, err := s.Lock(ctx, business, id, time.Second); err != nil {
		t.Errorf("expected expired lock to be taken over, got %v", err)
	}
}
