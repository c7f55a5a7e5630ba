package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/cart"
	"github.com/sangkips/investify-pos/internal/domain/checkout"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/event"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"github.com/sangkips/investify-pos/pkg/metrics"
	"go.uber.org/zap"
)

// Commit outcomes recorded in metrics
const (
	OutcomeCommitted = "committed"
	OutcomeSimulated = "simulated"
)

const notifyTimeout = 5 * time.Second

// CommitRequest is a frozen sale ready to be written
type CommitRequest struct {
	SessionID     uuid.UUID
	BusinessID    uuid.UUID
	CashierID     uuid.UUID
	ReceiptNumber string
	Snapshot      cart.Snapshot
}

// LowStockNotice reports a product the commit took to or below its threshold
type LowStockNotice struct {
	ItemID    uuid.UUID `json:"item_id"`
	Name      string    `json:"name"`
	Remaining int       `json:"remaining"`
	Threshold int       `json:"threshold"`
}

// CommitOutcome is the result of a successful commit
type CommitOutcome struct {
	Receipt   *entity.Receipt  `json:"receipt"`
	LowStock  []LowStockNotice `json:"low_stock,omitempty"`
	Attempts  int              `json:"attempts"`
	Simulated bool             `json:"simulated"`
}

// CheckoutService is the commit engine: it validates stock, decrements it,
// updates the customer and writes the receipt as one transaction.
type CheckoutService struct {
	store    repository.CheckoutStore
	notifier event.Notifier
	metrics  *metrics.CheckoutMetrics
	logger   *zap.Logger
	timeout  time.Duration
	now      func() time.Time
}

// NewCheckoutService creates a new checkout service. notifier and m may be nil.
func NewCheckoutService(
	store repository.CheckoutStore,
	notifier event.Notifier,
	m *metrics.CheckoutMetrics,
	logger *zap.Logger,
	timeout time.Duration,
) *CheckoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutService{
		store:    store,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Commit writes the sale or fails without any effect on the store
func (s *CheckoutService) Commit(ctx context.Context, req *CommitRequest) (*CommitOutcome, error) {
	if err := checkout.ValidateForCommit(req.Snapshot); err != nil {
		return nil, err
	}
	if req.ReceiptNumber == "" {
		return nil, apperror.NewFieldError("receipt_number", "receipt number is required")
	}

	ctx = repository.WithTenant(ctx, req.BusinessID)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var (
		receipt  *entity.Receipt
		notices  []LowStockNotice
		attempts int
	)
	soldAt := s.now()

	err := s.store.RunInTransaction(ctx, func(ctx context.Context, tx repository.CheckoutTx) error {
		attempts++
		var err error
		receipt, notices, err = s.apply(ctx, tx, req, soldAt)
		return err
	})
	if err != nil {
		err = s.commitError(err)
		s.metrics.ObserveCommit(string(apperror.GetAppError(err).Kind), attempts)
		s.logger.Warn("checkout commit failed",
			zap.String("receipt_number", req.ReceiptNumber),
			zap.String("business_id", req.BusinessID.String()),
			zap.String("session_id", req.SessionID.String()),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return nil, err
	}

	outcome := &CommitOutcome{
		Receipt:   receipt,
		LowStock:  notices,
		Attempts:  attempts,
		Simulated: receipt.Simulated || !s.store.Durable(),
	}
	receipt.Simulated = outcome.Simulated

	if outcome.Simulated {
		s.metrics.ObserveCommit(OutcomeSimulated, attempts)
		s.logger.Warn("checkout committed to the local simulation store, nothing was persisted",
			zap.String("receipt_number", receipt.ReceiptNumber),
			zap.String("business_id", req.BusinessID.String()),
		)
	} else {
		s.metrics.ObserveCommit(OutcomeCommitted, attempts)
		s.logger.Info("checkout committed",
			zap.String("receipt_number", receipt.ReceiptNumber),
			zap.String("receipt_id", receipt.ID.String()),
			zap.String("business_id", req.BusinessID.String()),
			zap.String("total", receipt.Total.StringFixed(2)),
			zap.Int("attempts", attempts),
		)
	}
	if s.metrics != nil && len(notices) > 0 {
		s.metrics.LowStock.Add(float64(len(notices)))
	}

	s.notify(ctx, req, outcome)
	return outcome, nil
}

// apply is one attempt of the commit transaction. It may run several times.
func (s *CheckoutService) apply(ctx context.Context, tx repository.CheckoutTx, req *CommitRequest, soldAt time.Time) (*entity.Receipt, []LowStockNotice, error) {
	snap := req.Snapshot

	products, err := tx.GetProducts(ctx, snap.ItemIDs())
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[uuid.UUID]*entity.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	var shortages []apperror.StockShortage
	for _, l := range snap.Lines {
		available := 0
		if p, ok := byID[l.ItemID]; ok {
			available = p.Stock
		}
		if l.Quantity > available {
			shortages = append(shortages, apperror.StockShortage{
				ItemID:    l.ItemID.String(),
				ItemName:  l.ItemName,
				Available: available,
				Requested: l.Quantity,
			})
		}
	}
	if len(shortages) > 0 {
		return nil, nil, apperror.NewInsufficientStockError(shortages)
	}

	var notices []LowStockNotice
	for _, l := range snap.Lines {
		p := byID[l.ItemID]
		wasLow := p.IsLowStock()
		if err := tx.DecrementStock(ctx, p, l.Quantity, soldAt); err != nil {
			return nil, nil, err
		}
		if !wasLow && p.IsLowStock() {
			notices = append(notices, LowStockNotice{
				ItemID:    p.ID,
				Name:      p.Name,
				Remaining: p.Stock,
				Threshold: p.LowStockThreshold,
			})
		}
	}

	if snap.CustomerID != nil {
		customer, err := tx.GetCustomer(ctx, *snap.CustomerID)
		if err != nil {
			return nil, nil, err
		}
		if customer == nil {
			return nil, nil, apperror.NewNotFoundError("Customer")
		}
		if err := tx.RecordPurchase(ctx, customer, snap.Totals.Total, soldAt); err != nil {
			return nil, nil, err
		}
	}

	receipt := newReceipt(req, soldAt)
	if err := tx.CreateReceipt(ctx, receipt); err != nil {
		return nil, nil, err
	}
	return receipt, notices, nil
}

func newReceipt(req *CommitRequest, at time.Time) *entity.Receipt {
	snap := req.Snapshot
	lines := make([]entity.ReceiptLine, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		lines = append(lines, entity.ReceiptLine{
			ItemID:    l.ItemID,
			ItemName:  l.ItemName,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			LineTotal: l.LineTotal,
		})
	}

	var customerID *uuid.UUID
	if snap.CustomerID != nil {
		id := *snap.CustomerID
		customerID = &id
	}

	return &entity.Receipt{
		ID:             uuid.New(),
		TenantID:       req.BusinessID,
		ReceiptNumber:  req.ReceiptNumber,
		SessionID:      req.SessionID,
		CashierID:      req.CashierID,
		CustomerID:     customerID,
		Lines:          lines,
		Subtotal:       snap.Totals.Subtotal,
		DiscountAmount: snap.Totals.Discount,
		TaxRatePercent: snap.TaxRate,
		TaxAmount:      snap.Totals.Tax,
		Total:          snap.Totals.Total,
		PaymentMethod:  snap.PaymentMethod,
		Notes:          snap.Notes,
		CreatedAt:      at,
	}
}

// commitError maps store failures onto the error taxonomy. Business errors
// raised inside the transaction pass through unchanged.
func (s *CheckoutService) commitError(err error) error {
	switch {
	case apperror.IsAppError(err):
		return err
	case errors.Is(err, repository.ErrStoreUnavailable):
		return apperror.NewPersistenceUnavailableError(err)
	default:
		// exhausted retries, timeouts, cancellation and unclassified driver errors
		return apperror.NewCommitFailedError(err)
	}
}

// notify runs after the transaction committed; failures are only logged
func (s *CheckoutService) notify(ctx context.Context, req *CommitRequest, outcome *CommitOutcome) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	r := outcome.Receipt
	err := s.notifier.SaleCommitted(ctx, event.SaleCommitted{
		ReceiptID:     r.ID,
		ReceiptNumber: r.ReceiptNumber,
		BusinessID:    req.BusinessID,
		CashierID:     req.CashierID,
		CustomerID:    r.CustomerID,
		Total:         r.Total,
		ItemCount:     r.ItemCount(),
		PaymentMethod: string(r.PaymentMethod),
		Simulated:     outcome.Simulated,
		CommittedAt:   r.CreatedAt,
	})
	if err != nil {
		s.logger.Error("failed to publish sale", zap.String("receipt_id", r.ID.String()), zap.Error(err))
	}

	for _, n := range outcome.LowStock {
		err := s.notifier.LowStock(ctx, event.LowStock{
			BusinessID: req.BusinessID,
			ItemID:     n.ItemID,
			Name:       n.Name,
			Remaining:  n.Remaining,
			Threshold:  n.Threshold,
			ReceiptID:  r.ID,
			DetectedAt: r.CreatedAt,
		})
		if err != nil {
			s.logger.Error("failed to publish low stock", zap.String("item_id", n.ItemID.String()), zap.Error(err))
		}
	}
}
