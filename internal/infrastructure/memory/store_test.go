package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/internal/infrastructure/seed"
	"github.com/sangkips/investify-pos/internal/infrastructure/txretry"
	"github.com/sangkips/investify-pos/pkg/pagination"
	"github.com/shopspring/decimal"
)

func testPolicy() txretry.Policy {
	return txretry.Policy{MaxAttempts: 3}
}

func tenantCtx(id uuid.UUID) context.Context {
	return domainRepo.WithTenant(context.Background(), id)
}

func sell(ctx context.Context, tx domainRepo.CheckoutTx, id uuid.UUID, qty int) error {
	products, err := tx.GetProducts(ctx, []uuid.UUID{id})
	if err != nil {
		return err
	}
	if len(products) != 1 {
		return errors.New("product not visible")
	}
	return tx.DecrementStock(ctx, &products[0], qty, time.Now())
}

func TestCommitAppliesStagedWrites(t *testing.T) {
	business := uuid.New()
	s := NewSeededStore(testPolicy(), nil, business)
	ctx := tenantCtx(business)
	id := seed.ProductID(business, "BLN-001")

	err := s.RunInTransaction(ctx, func(ctx context.Context, tx domainRepo.CheckoutTx) error {
		if err := sell(ctx, tx, id, 2); err != nil {
			return err
		}
		return tx.CreateReceipt(ctx, &entity.Receipt{TenantID: business, ReceiptNumber: "RCP-1"})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, _ := s.Products().GetByID(ctx, id)
	if p.Stock != 8 || p.Version != 1 {
		t.Errorf("expected stock 8 version 1, got %d %d", p.Stock, p.Version)
	}
	r, _ := s.Receipts().GetByNumber(ctx, "RCP-1")
	if r == nil || !r.Simulated {
		t.Fatalf("expected a simulated receipt, got %+v", r)
	}
}

func TestFailedTransactionLeavesNoWrites(t *testing.T) {
	business := uuid.New()
	s := NewSeededStore(testPolicy(), nil, business)
	ctx := tenantCtx(business)
	id := seed.ProductID(business, "BLN-001")
	boom := errors.New("boom")

	calls := 0
	err := s.RunInTransaction(ctx, func(ctx context.Context, tx domainRepo.CheckoutTx) error {
		calls++
		if err := sell(ctx, tx, id, 2); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 1 {
		t.Errorf("non-conflict errors must not be retried, got %d calls", calls)
	}
	if p, _ := s.Products().GetByID(ctx, id); p.Stock != 10 {
		t.Errorf("expected stock untouched, got %d", p.Stock)
	}
}

func TestConflictingCommitIsRetried(t *testing.T) {
	business := uuid.New()
	s := NewSeededStore(testPolicy(), nil, business)
	ctx := tenantCtx(business)
	id := seed.ProductID(business, "BLN-001")

	attempts := 0
	err := s.RunInTransaction(ctx, func(ctx context.Context, tx domainRepo.CheckoutTx) error {
		attempts++
		if err := sell(ctx, tx, id, 1); err != nil {
			return err
		}
		if attempts == 1 {
			// another register sells the same product before this attempt applies
			return s.RunInTransaction(ctx, func(ctx context.Context, other domainRepo.CheckoutTx) error {
				return sell(ctx, other, id, 1)
			})
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
	if p, _ := s.Products().GetByID(ctx, id); p.Stock != 8 {
		t.Errorf("expected stock 8, got %d", p.Stock)
	}
}

func TestRetriesExhausted(t *testing.T) {
	business := uuid.New()
	s := NewSeededStore(testPolicy(), nil, business)
	ctx := tenantCtx(business)
	id := seed.ProductID(business, "BLN-001")

	err := s.RunInTransaction(ctx, func(ctx context.Context, tx domainRepo.CheckoutTx) error {
		if err := sell(ctx, tx, id, 1); err != nil {
			return err
		}
		return s.RunInTransaction(ctx, func(ctx context.Context, other domainRepo.CheckoutTx) error {
			return sell(ctx, other, id, 1)
		})
	})
	if !errors.Is(err, domainRepo.ErrRetriesExhausted) || !errors.Is(err, domainRepo.ErrConflict) {
		t.Fatalf("expected exhausted retries wrapping a conflict, got %v", err)
	}
}

func TestReadsAreTenantScoped(t *testing.T) {
	business := uuid.New()
	s := NewSeededStore(testPolicy(), nil, business)
	id := seed.ProductID(business, "BLN-001")

	if p, _ := s.Products().GetByID(tenantCtx(uuid.New()), id); p != nil {
		t.Error("product leaked to another business")
	}
	if p, _ := s.Products().GetByID(context.Background(), id); p != nil {
		t.Error("product visible without a business in context")
	}
}

func TestListProductsFilters(t *testing.T) {
	business := uuid.New()
	s := NewSeededStore(testPolicy(), nil, business)
	ctx := tenantCtx(business)

	all, total, _ := s.Products().List(ctx, &domainRepo.ProductFilterParams{Pagination: pagination.DefaultPagination()})
	if int(total) != len(seed.Catalog(business).Products) || len(all) != int(total) {
		t.Fatalf("expected full catalog, got %d of %d", len(all), total)
	}

	inStock, _, _ := s.Products().List(ctx, &domainRepo.ProductFilterParams{Pagination: pagination.DefaultPagination(), InStock: true})
	for _, p := range inStock {
		if p.Stock <= 0 {
			t.Errorf("%s has no stock", p.Name)
		}
	}

	found, _, _ := s.Products().List(ctx, &domainRepo.ProductFilterParams{Pagination: pagination.DefaultPagination(), Search: "kettle"})
	if len(found) != 1 || found[0].Code != "KTL-001" {
		t.Errorf("expected the kettle, got %+v", found)
	}
}

func TestRecordPurchaseUpdatesCustomer(t *testing.T) {
	business := uuid.New()
	s := NewSeededStore(testPolicy(), nil, business)
	ctx := tenantCtx(business)
	id := seed.CustomerID(business, "Amina Otieno")

	err := s.RunInTransaction(ctx, func(ctx context.Context, tx domainRepo.CheckoutTx) error {
		c, err := tx.GetCustomer(ctx, id)
		if err != nil || c == nil {
			return errors.New("customer not visible")
		}
		return tx.RecordPurchase(ctx, c, decimal.NewFromInt(250), time.Now())
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, _ := s.Customers().GetByID(ctx, id)
	if c.PurchaseCount != 1 || !c.TotalSpent.Equal(decimal.NewFromInt(250)) || c.LastPurchaseAt == nil {
		t.Errorf("unexpected aggregates %+v", c)
	}
}

func TestSearchCustomers(t *testing.T) {
	business := uuid.New()
	s := NewSeededStore(testPolicy(), nil, business)
	ctx := tenantCtx(business)

	byName, _ := s.Customers().Search(ctx, "amina", 10)
	if len(byName) != 1 || byName[0].Name != "Amina Otieno" {
		t.Errorf("expected Amina, got %+v", byName)
	}

	byPhone, _ := s.Customers().Search(ctx, "0002", 10)
	if len(byPhone) != 1 || byPhone[0].Name != "Brian Kamau" {
		t.Errorf("expected Brian, got %+v", byPhone)
	}

	all, _ := s.Customers().Search(ctx, "", 1)
	if len(all) != 1 {
		t.Errorf("expected limit to apply, got %d", len(all))
	}

	if other, _ := s.Customers().Search(tenantCtx(uuid.New()), "", 10); len(other) != 0 {
		t.Errorf("customers leaked to another business: %+v", other)
	}
}
