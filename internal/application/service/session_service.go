package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/cart"
	"github.com/sangkips/investify-pos/internal/domain/checkout"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const minLockTTL = 10 * time.Second

// Actor identifies who is acting on a checkout session
type Actor struct {
	BusinessID uuid.UUID
	CashierID  uuid.UUID
}

// SessionResult is a checkout flow after an operation, with whatever the
// operation adjusted or where navigation ended up
type SessionResult struct {
	Flow       *checkout.Flow
	Warnings   []cart.Warning
	Transition *checkout.Transition
	Outcome    *CommitOutcome
}

// SessionService owns checkout flows between requests. Every operation that
// changes a flow holds the flow's lock, so a commit in flight rejects all
// other work on the same flow.
type SessionService struct {
	sessions       repository.SessionStore
	receipts       repository.ReceiptRepository
	inventory      *InventoryService
	checkout       *CheckoutService
	guard          *checkout.Guard
	defaultTaxRate decimal.Decimal
	lockTTL        time.Duration
	logger         *zap.Logger
	now            func() time.Time
}

// SessionServiceConfig holds the tunables of SessionService
type SessionServiceConfig struct {
	DefaultTaxRate decimal.Decimal
	// LockTTL bounds how long a crashed holder can block a flow
	LockTTL time.Duration
}

// NewSessionService creates a new session service
func NewSessionService(
	sessions repository.SessionStore,
	receipts repository.ReceiptRepository,
	inventory *InventoryService,
	checkoutService *CheckoutService,
	guard *checkout.Guard,
	cfg SessionServiceConfig,
	logger *zap.Logger,
) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LockTTL < minLockTTL {
		cfg.LockTTL = minLockTTL
	}
	return &SessionService{
		sessions:       sessions,
		receipts:       receipts,
		inventory:      inventory,
		checkout:       checkoutService,
		guard:          guard,
		defaultTaxRate: cfg.DefaultTaxRate,
		lockTTL:        cfg.LockTTL,
		logger:         logger,
		now:            time.Now,
	}
}

// Open starts a new empty sale for the cashier
func (s *SessionService) Open(ctx context.Context, actor Actor) (*SessionResult, error) {
	f := checkout.NewFlow(actor.BusinessID, actor.CashierID, s.now())
	if err := f.Session.SetTaxRate(s.defaultTaxRate); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, f); err != nil {
		return nil, storeError(err)
	}
	return &SessionResult{Flow: f}, nil
}

// Get returns a flow without changing it
func (s *SessionService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*SessionResult, error) {
	f, err := s.load(ctx, actor, id, false)
	if err != nil {
		return nil, err
	}
	return &SessionResult{Flow: f}, nil
}

// Cancel discards the sale in progress and keeps the flow open for the next one
func (s *SessionService) Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*SessionResult, error) {
	return s.mutate(ctx, actor, id, func(f *checkout.Flow) ([]cart.Warning, error) {
		f.Cancel(s.now())
		return nil, nil
	})
}

// Close discards the sale and removes the flow
func (s *SessionService) Close(ctx context.Context, actor Actor, id uuid.UUID) error {
	unlock, err := s.lock(ctx, actor, id)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := s.load(ctx, actor, id, true); err != nil {
		return err
	}
	return storeError(s.sessions.Delete(ctx, actor.BusinessID, id))
}

// AddLine adds quantity units of a product, clamped to the stock on hand
func (s *SessionService) AddLine(ctx context.Context, actor Actor, id, productID uuid.UUID, quantity int) (*SessionResult, error) {
	return s.mutate(ctx, actor, id, func(f *checkout.Flow) ([]cart.Warning, error) {
		product, err := s.inventory.GetProduct(repository.WithTenant(ctx, actor.BusinessID), productID)
		if err != nil {
			return nil, err
		}
		return f.Session.AddLine(product, quantity)
	})
}

// SetQuantity changes a line's quantity; zero or less removes it
func (s *SessionService) SetQuantity(ctx context.Context, actor Actor, id, itemID uuid.UUID, quantity int) (*SessionResult, error) {
	return s.mutate(ctx, actor, id, func(f *checkout.Flow) ([]cart.Warning, error) {
		available := 0
		if _, inCart := f.Session.Line(itemID); inCart && quantity > 0 {
			product, err := s.inventory.GetProduct(repository.WithTenant(ctx, actor.BusinessID), itemID)
			if err != nil && !apperror.IsKind(err, apperror.KindNotFound) {
				return nil, err
			}
			if product != nil {
				available = product.Stock
			}
		}
		return f.Session.SetQuantity(itemID, quantity, available)
	})
}

func (s *SessionService) RemoveLine(ctx context.Context, actor Actor, id, itemID uuid.UUID) (*SessionResult, error) {
	return s.mutate(ctx, actor, id, func(f *checkout.Flow) ([]cart.Warning, error) {
		return f.Session.RemoveLine(itemID), nil
	})
}

func (s *SessionService) Clear(ctx context.Context, actor Actor, id uuid.UUID) (*SessionResult, error) {
	return s.mutate(ctx, actor, id, func(f *checkout.Flow) ([]cart.Warning, error) {
		f.Session.Clear()
		return nil, nil
	})
}

// SetCustomer attaches an existing customer; nil makes the sale a walk-in
func (s *SessionService) SetCustomer(ctx context.Context, actor Actor, id uuid.UUID, customerID *uuid.UUID) (*SessionResult, error) {
	return s.mutate(ctx, actor, id, func(f *checkout.Flow) ([]cart.Warning, error) {
		if customerID != nil && *customerID != uuid.Nil {
			if _, err := s.inventory.GetCustomer(repository.WithTenant(ctx, actor.BusinessID), *customerID); err != nil {
				return nil, err
			}
		}
		f.Session.SetCustomer(customerID)
		return nil, nil
	})
}

func (s *SessionService) SetPaymentMethod(ctx context.Context, actor Actor, id uuid.UUID, method enum.PaymentMethod) (*SessionResult, error) {
	return s.mutate(ctx, actor, id, func(f *checkout.Flow) ([]cart.Warning, error) {
		return nil, f.Session.SetPaymentMethod(method)
	})
}

func (s *SessionService) SetDiscount(ctx context.Context, actor Actor, id uuid.UUID, amount decimal.Decimal) (*SessionResult, error) {
	return s.mutate(ctx, actor, id, func(f *checkout.Flow) ([]cart.Warning, error) {
		return f.Session.SetDiscount(amount)
	})
}

func (s *SessionService) SetTaxRate(ctx context.Context, actor Actor, id uuid.UUID, percent decimal.Decimal) (*SessionResult, error) {
	return s.mutate(ctx, actor, id, func(f *checkout.Flow) ([]cart.Warning, error) {
		return nil, f.Session.SetTaxRate(percent)
	})
}

func (s *SessionService) SetNotes(ctx context.Context, actor Actor, id uuid.UUID, notes string) (*SessionResult, error) {
	return s.mutate(ctx, actor, id, func(f *checkout.Flow) ([]cart.Warning, error) {
		f.Session.SetNotes(notes)
		return nil, nil
	})
}

// Navigate asks the guard for a step. A refused step is not an error: the
// result carries the step the flow was redirected to and why.
func (s *SessionService) Navigate(ctx context.Context, actor Actor, id uuid.UUID, step enum.CheckoutStep) (*SessionResult, error) {
	if !step.IsValid() {
		return nil, apperror.NewFieldError("step", "unknown checkout step")
	}

	unlock, err := s.lock(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	f, err := s.load(ctx, actor, id, true)
	if err != nil {
		return nil, err
	}
	tr := s.guard.Enter(f, step)
	f.Touch(s.now())
	if err := s.sessions.Save(ctx, f); err != nil {
		return nil, storeError(err)
	}
	return &SessionResult{Flow: f, Transition: &tr}, nil
}

// Commit finalizes the sale under review. On success the flow resets and
// lands on the completed step; on failure it stays on review, unchanged.
func (s *SessionService) Commit(ctx context.Context, actor Actor, id uuid.UUID) (*SessionResult, error) {
	unlock, err := s.lock(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	f, err := s.load(ctx, actor, id, true)
	if err != nil {
		return nil, err
	}
	if tr := s.guard.Enter(f, enum.CheckoutStepReviewing); tr.Redirected {
		f.Touch(s.now())
		if err := s.sessions.Save(ctx, f); err != nil {
			return nil, storeError(err)
		}
		if err := checkout.ValidateForCommit(f.Session.Snapshot()); err != nil {
			return nil, err
		}
		return nil, apperror.NewBadRequestError("Sale is not ready for review")
	}

	f.Committing = true
	if err := s.sessions.Save(ctx, f); err != nil {
		return nil, storeError(err)
	}

	outcome, commitErr := s.checkout.Commit(ctx, &CommitRequest{
		SessionID:     f.ID,
		BusinessID:    actor.BusinessID,
		CashierID:     actor.CashierID,
		ReceiptNumber: f.ReceiptNumber,
		Snapshot:      f.Session.Snapshot(),
	})

	// the sale outcome is settled; persist it even if the request is gone
	saveCtx := context.WithoutCancel(ctx)
	f.Committing = false
	if commitErr != nil {
		f.Touch(s.now())
		if err := s.sessions.Save(saveCtx, f); err != nil {
			s.logger.Error("failed to release session after commit error", zap.String("session_id", id.String()), zap.Error(err))
		}
		return nil, commitErr
	}

	f.Complete(outcome.Receipt.ID, s.now())
	if err := s.sessions.Save(saveCtx, f); err != nil {
		// the sale is durable; a stale flow is recovered on next load
		s.logger.Error("failed to reset session after commit", zap.String("session_id", id.String()), zap.Error(err))
	}
	tr := checkout.Transition{Requested: enum.CheckoutStepCompleted, Step: f.Step}
	return &SessionResult{Flow: f, Transition: &tr, Outcome: outcome}, nil
}

func (s *SessionService) mutate(ctx context.Context, actor Actor, id uuid.UUID, fn func(f *checkout.Flow) ([]cart.Warning, error)) (*SessionResult, error) {
	unlock, err := s.lock(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	f, err := s.load(ctx, actor, id, true)
	if err != nil {
		return nil, err
	}
	warnings, err := fn(f)
	if err != nil {
		return nil, err
	}

	tr := s.guard.Resolve(f)
	f.Touch(s.now())
	if err := s.sessions.Save(ctx, f); err != nil {
		return nil, storeError(err)
	}
	return &SessionResult{Flow: f, Warnings: warnings, Transition: &tr}, nil
}

func (s *SessionService) lock(ctx context.Context, actor Actor, id uuid.UUID) (func(), error) {
	unlock, err := s.sessions.Lock(ctx, actor.BusinessID, id, s.lockTTL)
	if err != nil {
		return nil, storeError(err)
	}
	return unlock, nil
}

// load reads a flow owned by the actor. Callers holding the flow's lock pass
// locked=true: a flow still marked as committing then belongs to a commit that
// never reported back, and it is settled against the receipt store.
func (s *SessionService) load(ctx context.Context, actor Actor, id uuid.UUID, locked bool) (*checkout.Flow, error) {
	f, err := s.sessions.Get(ctx, actor.BusinessID, id)
	if err != nil {
		return nil, storeError(err)
	}
	if f == nil || f.CashierID != actor.CashierID {
		return nil, apperror.NewNotFoundError("Checkout session")
	}
	if f.Committing && locked {
		if err := s.settle(ctx, actor, f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (s *SessionService) settle(ctx context.Context, actor Actor, f *checkout.Flow) error {
	f.Committing = false
	if s.receipts == nil || f.ReceiptNumber == "" {
		return nil
	}
	r, err := s.receipts.GetByNumber(repository.WithTenant(ctx, actor.BusinessID), f.ReceiptNumber)
	if err != nil {
		return storeError(err)
	}
	if r != nil && r.SessionID == f.ID {
		s.logger.Warn("recovered interrupted commit", zap.String("session_id", f.ID.String()), zap.String("receipt_id", r.ID.String()))
		f.Complete(r.ID, s.now())
	}
	return nil
}
