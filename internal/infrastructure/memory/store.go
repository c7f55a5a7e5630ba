// Package memory provides a local simulation of the checkout stores. Nothing
// written here survives the process and receipts it returns are marked
// Simulated. It exists for development and tests and is refused in
// production by config validation.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/internal/infrastructure/seed"
	"github.com/sangkips/investify-pos/internal/infrastructure/txretry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Store keeps products, customers and receipts in process memory. Commits
// validate the versions they read and conflict like the database store does.
type Store struct {
	mu        sync.RWMutex
	products  map[uuid.UUID]entity.Product
	customers map[uuid.UUID]entity.Customer
	receipts  []entity.Receipt
	policy    txretry.Policy
	logger    *zap.Logger
	now       func() time.Time
}

// NewStore creates an empty simulation store
func NewStore(policy txretry.Policy, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		products:  make(map[uuid.UUID]entity.Product),
		customers: make(map[uuid.UUID]entity.Customer),
		policy:    policy,
		logger:    logger,
		now:       time.Now,
	}
}

// NewSeededStore creates a simulation store holding the demo catalog of each business
func NewSeededStore(policy txretry.Policy, logger *zap.Logger, businessIDs ...uuid.UUID) *Store {
	s := NewStore(policy, logger)
	for _, id := range businessIDs {
		s.Seed(seed.Catalog(id))
	}
	return s
}

// Seed adds or replaces products and customers
func (s *Store) Seed(data seed.Data) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range data.Products {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		s.products[p.ID] = p
	}
	for _, c := range data.Customers {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		s.customers[c.ID] = c
	}
}

func (s *Store) Durable() bool { return false }

// Products returns the product read side of the store
func (s *Store) Products() domainRepo.ProductRepository { return productView{s} }

// Customers returns the customer read side of the store
func (s *Store) Customers() domainRepo.CustomerRepository { return customerView{s} }

// Receipts returns the receipt read side of the store
func (s *Store) Receipts() domainRepo.ReceiptRepository { return receiptView{s} }

func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx domainRepo.CheckoutTx) error) error {
	return txretry.Run(ctx, s.policy, func(attempt int) error {
		tx := &memTx{
			store:     s,
			products:  make(map[uuid.UUID]staged[entity.Product]),
			customers: make(map[uuid.UUID]staged[entity.Customer]),
		}
		if err := fn(ctx, tx); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.apply(tx)
		if err != nil {
			s.logger.Debug("simulated transaction conflict", zap.Int("attempt", attempt))
		}
		return err
	})
}

// apply publishes the staged writes of tx if nothing it read has changed
func (s *Store) apply(tx *memTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, w := range tx.products {
		if s.products[id].Version != w.readVersion {
			return domainRepo.ErrConflict
		}
	}
	for id, w := range tx.customers {
		if s.customers[id].Version != w.readVersion {
			return domainRepo.ErrConflict
		}
	}

	for id, w := range tx.products {
		s.products[id] = w.value
	}
	for id, w := range tx.customers {
		s.customers[id] = w.value
	}
	s.receipts = append(s.receipts, tx.receipts...)
	return nil
}

func (s *Store) product(id uuid.UUID) (entity.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	return p, ok
}

func (s *Store) customer(id uuid.UUID) (entity.Customer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	return c, ok
}

type staged[T any] struct {
	readVersion int64
	value       T
}

// memTx buffers writes until the store applies them
type memTx struct {
	store     *Store
	products  map[uuid.UUID]staged[entity.Product]
	customers map[uuid.UUID]staged[entity.Customer]
	receipts  []entity.Receipt
}

func (t *memTx) GetProducts(ctx context.Context, ids []uuid.UUID) ([]entity.Product, error) {
	tenantID, ok := domainRepo.GetTenantID(ctx)
	var out []entity.Product
	if !ok {
		return out, nil
	}
	for _, id := range ids {
		if w, staged := t.products[id]; staged {
			out = append(out, w.value)
			continue
		}
		if p, found := t.store.product(id); found && p.TenantID == tenantID && p.DeletedAt.Time.IsZero() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (t *memTx) DecrementStock(ctx context.Context, p *entity.Product, qty int, soldAt time.Time) error {
	readVersion := p.Version
	if w, ok := t.products[p.ID]; ok {
		readVersion = w.readVersion
		if w.value.Version != p.Version {
			return domainRepo.ErrConflict
		}
	}
	if p.Stock < qty {
		return domainRepo.ErrConflict
	}

	p.Stock -= qty
	p.Version++
	p.LastSoldAt = &soldAt
	p.UpdatedAt = soldAt
	t.products[p.ID] = staged[entity.Product]{readVersion: readVersion, value: *p}
	return nil
}

func (t *memTx) GetCustomer(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	if w, ok := t.customers[id]; ok {
		c := w.value
		return &c, nil
	}
	tenantID, ok := domainRepo.GetTenantID(ctx)
	if !ok {
		return nil, nil
	}
	c, found := t.store.customer(id)
	if !found || c.TenantID != tenantID || !c.DeletedAt.Time.IsZero() {
		return nil, nil
	}
	return &c, nil
}

func (t *memTx) RecordPurchase(ctx context.Context, c *entity.Customer, amount decimal.Decimal, at time.Time) error {
	readVersion := c.Version
	if w, ok := t.customers[c.ID]; ok {
		readVersion = w.readVersion
		if w.value.Version != c.Version {
			return domainRepo.ErrConflict
		}
	}

	c.RecordPurchase(amount, at)
	c.Version++
	c.UpdatedAt = at
	t.customers[c.ID] = staged[entity.Customer]{readVersion: readVersion, value: *c}
	return nil
}

func (t *memTx) CreateReceipt(ctx context.Context, r *entity.Receipt) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = t.store.now()
	}
	for i := range r.Lines {
		if r.Lines[i].ID == uuid.Nil {
			r.Lines[i].ID = uuid.New()
		}
		r.Lines[i].ReceiptID = r.ID
	}
	r.Simulated = true
	t.receipts = append(t.receipts, cloneReceipt(*r))
	return nil
}

func cloneReceipt(r entity.Receipt) entity.Receipt {
	r.Lines = append([]entity.ReceiptLine(nil), r.Lines...)
	if r.CustomerID != nil {
		id := *r.CustomerID
		r.CustomerID = &id
	}
	return r
}

type productView struct{ s *Store }

func (v productView) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	tenantID, ok := domainRepo.GetTenantID(ctx)
	if !ok {
		return nil, nil
	}
	p, found := v.s.product(id)
	if !found || p.TenantID != tenantID {
		return nil, nil
	}
	return &p, nil
}

func (v productView) List(ctx context.Context, params *domainRepo.ProductFilterParams) ([]entity.Product, int64, error) {
	tenantID, ok := domainRepo.GetTenantID(ctx)
	if !ok {
		return nil, 0, nil
	}
	search := strings.ToLower(params.Search)

	v.s.mu.RLock()
	var matched []entity.Product
	for _, p := range v.s.products {
		if p.TenantID != tenantID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) && !strings.Contains(strings.ToLower(p.Code), search) {
			continue
		}
		if params.LowStock && !p.IsLowStock() {
			continue
		}
		if params.InStock && p.Stock <= 0 {
			continue
		}
		matched = append(matched, p)
	}
	v.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	params.Pagination.Validate()
	return page(matched, params.Pagination.Offset(), params.Pagination.PerPage), int64(len(matched)), nil
}

type customerView struct{ s *Store }

func (v customerView) GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	tenantID, ok := domainRepo.GetTenantID(ctx)
	if !ok {
		return nil, nil
	}
	c, found := v.s.customer(id)
	if !found || c.TenantID != tenantID {
		return nil, nil
	}
	return &c, nil
}

func (v customerView) Search(ctx context.Context, query string, limit int) ([]entity.Customer, error) {
	tenantID, ok := domainRepo.GetTenantID(ctx)
	if !ok {
		return nil, nil
	}
	query = strings.ToLower(query)

	v.s.mu.RLock()
	var matched []entity.Customer
	for _, c := range v.s.customers {
		if c.TenantID != tenantID {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(c.Name), query) && (c.Phone == nil || !strings.Contains(*c.Phone, query)) {
			continue
		}
		matched = append(matched, c)
	}
	v.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].PurchaseCount != matched[j].PurchaseCount {
			return matched[i].PurchaseCount > matched[j].PurchaseCount
		}
		return matched[i].Name < matched[j].Name
	})
	return page(matched, 0, limit), nil
}

type receiptView struct{ s *Store }

func (v receiptView) GetByID(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	return v.find(ctx, func(r *entity.Receipt) bool { return r.ID == id })
}

func (v receiptView) GetByNumber(ctx context.Context, number string) (*entity.Receipt, error) {
	return v.find(ctx, func(r *entity.Receipt) bool { return r.ReceiptNumber == number })
}

// find scans newest first
func (v receiptView) find(ctx context.Context, match func(r *entity.Receipt) bool) (*entity.Receipt, error) {
	tenantID, ok := domainRepo.GetTenantID(ctx)
	if !ok {
		return nil, nil
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	for i := len(v.s.receipts) - 1; i >= 0; i-- {
		r := &v.s.receipts[i]
		if r.TenantID == tenantID && match(r) {
			out := cloneReceipt(*r)
			return &out, nil
		}
	}
	return nil, nil
}

func (v receiptView) List(ctx context.Context, params *domainRepo.ReceiptFilterParams) ([]entity.Receipt, int64, error) {
	tenantID, ok := domainRepo.GetTenantID(ctx)
	if !ok {
		return nil, 0, nil
	}

	v.s.mu.RLock()
	var matched []entity.Receipt
	for i := len(v.s.receipts) - 1; i >= 0; i-- {
		r := v.s.receipts[i]
		if r.TenantID != tenantID {
			continue
		}
		if params.CashierID != nil && r.CashierID != *params.CashierID {
			continue
		}
		if params.CustomerID != nil && (r.CustomerID == nil || *r.CustomerID != *params.CustomerID) {
			continue
		}
		matched = append(matched, cloneReceipt(r))
	}
	v.s.mu.RUnlock()

	params.Pagination.Validate()
	return page(matched, params.Pagination.Offset(), params.Pagination.PerPage), int64(len(matched)), nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
