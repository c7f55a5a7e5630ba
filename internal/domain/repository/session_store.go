package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/checkout"
)

// SessionStore is the single place checkout flows are kept between requests
type SessionStore interface {
	// Get returns nil, nil when the flow does not exist for the business
	Get(ctx context.Context, businessID, id uuid.UUID) (*checkout.Flow, error)
	Save(ctx context.Context, f *checkout.Flow) error
	Delete(ctx context.Context, businessID, id uuid.UUID) error
	// Lock gives the caller exclusive use of a flow for at most ttl. It fails
	// with ErrSessionBusy when another holder exists.
	Lock(ctx context.Context, businessID, id uuid.UUID, ttl time.Duration) (unlock func(), err error)
}
