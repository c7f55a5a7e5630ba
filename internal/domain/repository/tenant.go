package repository

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

// TenantIDKey is the context key for the business a request acts for
const TenantIDKey ctxKey = "tenant_id"

// WithTenant adds the business ID to context
func WithTenant(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, TenantIDKey, tenantID)
}

// GetTenantID extracts the business ID from context
func GetTenantID(ctx context.Context) (uuid.UUID, bool) {
	tenantID, ok := ctx.Value(TenantIDKey).(uuid.UUID)
	return tenantID, ok && tenantID != uuid.Nil
}
