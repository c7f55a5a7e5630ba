package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/cart"
	"github.com/sangkips/investify-pos/internal/domain/checkout"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/internal/domain/event"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/internal/infrastructure/memory"
	"github.com/sangkips/investify-pos/internal/infrastructure/seed"
	"github.com/sangkips/investify-pos/internal/infrastructure/txretry"
	"github.com/sangkips/investify-pos/pkg/utils"
	"github.com/shopspring/decimal"
)

type recordingNotifier struct {
	mu       sync.Mutex
	sales    []event.SaleCommitted
	lowStock []event.LowStock
}

func (n *recordingNotifier) SaleCommitted(ctx context.Context, e event.SaleCommitted) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sales = append(n.sales, e)
	return nil
}

func (n *recordingNotifier) LowStock(ctx context.Context, e event.LowStock) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lowStock = append(n.lowStock, e)
	return nil
}

// fakeStore fails every transaction with err without running it
type fakeStore struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (s *fakeStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.CheckoutTx) error) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.err
}

func (s *fakeStore) Durable() bool { return true }

type testEnv struct {
	business  uuid.UUID
	cashier   uuid.UUID
	actor     Actor
	ctx       context.Context
	store     *memory.Store
	sessions  *memory.SessionStore
	notifier  *recordingNotifier
	inventory *InventoryService
	checkout  *CheckoutService
	receipts  *ReceiptService
	service   *SessionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	business, cashier := uuid.New(), uuid.New()
	store := memory.NewSeededStore(txretry.Policy{MaxAttempts: 20, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}, nil, business)
	sessions := memory.NewSessionStore(time.Hour)
	notifier := &recordingNotifier{}

	inventory := NewInventoryService(store.Products(), store.Customers())
	checkoutService := NewCheckoutService(store, notifier, nil, nil, 5*time.Second)
	receipts := NewReceiptService(store.Receipts())
	guard := checkout.NewGuard(utils.NewReceiptNumberGenerator("RCP", true).Next)
	svc := NewSessionService(sessions, store.Receipts(), inventory, checkoutService, guard, SessionServiceConfig{}, nil)

	return &testEnv{
		business:  business,
		cashier:   cashier,
		actor:     Actor{BusinessID: business, CashierID: cashier},
		ctx:       repository.WithTenant(context.Background(), business),
		store:     store,
		sessions:  sessions,
		notifier:  notifier,
		inventory: inventory,
		checkout:  checkoutService,
		receipts:  receipts,
		service:   svc,
	}
}

func (e *testEnv) product(t *testing.T, code string) *entity.Product {
	t.Helper()
	p, err := e.inventory.GetProduct(e.ctx, seed.ProductID(e.business, code))
	if err != nil {
		t.Fatalf("product %s: %v", code, err)
	}
	return p
}

func (e *testEnv) customer(t *testing.T, name string) *entity.Customer {
	t.Helper()
	c, err := e.inventory.GetCustomer(e.ctx, seed.CustomerID(e.business, name))
	if err != nil {
		t.Fatalf("customer %s: %v", name, err)
	}
	return c
}

func (e *testEnv) request(t *testing.T, lines map[string]int, customerID *uuid.UUID) *CommitRequest {
	t.Helper()
	s := cart.New()
	for code, qty := range lines {
		p := e.product(t, code)
		if p.Stock < qty {
			// build the line as the UI would have seen it before stock moved
			p.Stock = qty
		}
		if _, err := s.AddLine(p, qty); err != nil {
			t.Fatalf("add %s: %v", code, err)
		}
	}
	_ = s.SetPaymentMethod(enum.PaymentMethodCash)
	s.SetCustomer(customerID)
	return &CommitRequest{
		SessionID:     uuid.New(),
		BusinessID:    e.business,
		CashierID:     e.cashier,
		ReceiptNumber: utils.GenerateReceiptNo("RCP", time.Now()),
		Snapshot:      s.Snapshot(),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
