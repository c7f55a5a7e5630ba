package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/presentation/http/dto/response"
)

// RequireTenant ensures the request carries a business context
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetTenantID(c) == uuid.Nil {
			response.BadRequest(c, "Business context required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetTenantID retrieves the business ID from gin context
func GetTenantID(c *gin.Context) uuid.UUID {
	return uuidValue(c, BusinessIDKey)
}

// GetCashierID retrieves the cashier ID from gin context
func GetCashierID(c *gin.Context) uuid.UUID {
	return uuidValue(c, CashierIDKey)
}

func uuidValue(c *gin.Context, key string) uuid.UUID {
	v, exists := c.Get(key)
	if !exists {
		return uuid.Nil
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}
