package txretry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sangkips/investify-pos/internal/domain/repository"
)

func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, BaseDelay: time.Microsecond, MaxDelay: time.Millisecond}
}

func TestRunRetriesConflictsUntilSuccess(t *testing.T) {
	calls := 0
	err := Run(context.Background(), fastPolicy(5), func(attempt int) error {
		calls++
		if attempt < 3 {
			return fmt.Errorf("update product: %w", repository.ErrConflict)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRunStopsOnBusinessError(t *testing.T) {
	business := errors.New("insufficient stock")
	calls := 0
	err := Run(context.Background(), fastPolicy(5), func(int) error {
		calls++
		return business
	})
	if !errors.Is(err, business) {
		t.Fatalf("expected business error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("business errors must not be retried, got %d calls", calls)
	}
}

func TestRunExhaustsBudget(t *testing.T) {
	calls := 0
	err := Run(context.Background(), fastPolicy(4), func(int) error {
		calls++
		return repository.ErrConflict
	})
	if !errors.Is(err, repository.ErrRetriesExhausted) || !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected exhausted conflict, got %v", err)
	}
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 10, BaseDelay: time.Second, MaxDelay: time.Second}

	calls := 0
	err := Run(ctx, p, func(int) error {
		calls++
		cancel()
		return repository.ErrConflict
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}
