package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"go.uber.org/zap"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyKeyTTL is how long keys are valid
	IdempotencyKeyTTL = 24 * time.Hour
	// ReplayedHeader marks a response served from the idempotency store
	ReplayedHeader = "X-Idempotency-Replayed"
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Repo   repository.IdempotencyRepository
	Logger *zap.Logger
}

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response when a request repeats a key the
// same cashier already used. Requests without a key pass through.
func Idempotency(config IdempotencyConfig) gin.HandlerFunc {
	return idempotency(config, false)
}

// IdempotencyRequired is the strict variant used on commit: the key is
// mandatory so a client retrying after a timeout can never sell twice.
func IdempotencyRequired(config IdempotencyConfig) gin.HandlerFunc {
	return idempotency(config, true)
}

func idempotency(config IdempotencyConfig, required bool) gin.HandlerFunc {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			if required {
				response.Error(c, apperror.NewBadRequestError("Idempotency-Key header is required for this request"))
				c.Abort()
				return
			}
			c.Next()
			return
		}

		cashierID := GetCashierID(c)
		if cashierID == uuid.Nil {
			response.Error(c, apperror.ErrUnauthorized)
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		endpoint := c.Request.Method + " " + c.Request.URL.Path

		existing, err := config.Repo.GetByKey(ctx, key, cashierID)
		if err != nil {
			if required {
				response.Error(c, apperror.NewPersistenceUnavailableError(err))
				c.Abort()
				return
			}
			logger.Warn("idempotency lookup failed", zap.Error(err))
			c.Next()
			return
		}

		if existing != nil && !existing.IsExpired() {
			if existing.Endpoint != endpoint {
				response.Error(c, apperror.NewFieldError(IdempotencyKeyHeader, "key was already used for a different request"))
				c.Abort()
				return
			}
			c.Header(ReplayedHeader, "true")
			c.Data(existing.ResponseCode, "application/json; charset=utf-8", []byte(existing.ResponseBody))
			c.Abort()
			return
		}

		blw := &responseWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// failures stay retryable under the same key
		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		ikey := &entity.IdempotencyKey{
			Key:          key,
			CashierID:    cashierID,
			TenantID:     GetTenantID(c),
			Endpoint:     endpoint,
			ResponseCode: status,
			ResponseBody: blw.body.String(),
			ExpiresAt:    time.Now().Add(IdempotencyKeyTTL),
		}
		if err := config.Repo.Create(ctx, ikey); err != nil {
			logger.Warn("failed to store idempotency key", zap.String("endpoint", endpoint), zap.Error(err))
		}
	}
}
