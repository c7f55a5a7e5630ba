package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestInsufficientStockErrorCarriesShortages(t *testing.T) {
	err := NewInsufficientStockError([]StockShortage{
		{ItemID: "a", ItemName: "Rice 5kg", Available: 2, Requested: 3},
		{ItemID: "b", ItemName: "Sugar", Available: 0, Requested: 1},
	})

	if err.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", err.Code)
	}
	if err.Message != "Insufficient stock for Rice 5kg: 2 available, 3 requested" {
		t.Errorf("unexpected message %q", err.Message)
	}
	shortages, ok := err.Detail.([]StockShortage)
	if !ok || len(shortages) != 2 {
		t.Fatalf("expected two shortages in detail, got %#v", err.Detail)
	}
	if err.Retryable() {
		t.Error("insufficient stock must not be retryable")
	}
}

func TestCommitFailedUnwrapsCause(t *testing.T) {
	cause := errors.New("serialization failure")
	err := fmt.Errorf("commit: %w", NewCommitFailedError(cause))

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
	if !IsKind(err, KindCommitFailed) {
		t.Error("expected commit_failed kind")
	}
	if !GetAppError(err).Retryable() {
		t.Error("commit failures should be retryable")
	}
}

func TestGetAppErrorFallsBackToInternal(t *testing.T) {
	appErr := GetAppError(errors.New("boom"))
	if appErr.Code != http.StatusInternalServerError || appErr.Kind != KindInternal {
		t.Errorf("expected internal error, got %d %s", appErr.Code, appErr.Kind)
	}
}

func TestWrapDoesNotMutateSharedError(t *testing.T) {
	wrapped := ErrNotFound.Wrap(errors.New("row missing"))
	if ErrNotFound.Unwrap() != nil {
		t.Error("shared error must stay without a cause")
	}
	if wrapped.Unwrap() == nil {
		t.Error("wrapped copy should carry the cause")
	}
}
