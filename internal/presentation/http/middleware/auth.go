package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"github.com/sangkips/investify-pos/pkg/utils"
)

// Context keys set by AuthMiddleware
const (
	CashierIDKey  = "cashier_id"
	BusinessIDKey = "business_id"
	CashierKey    = "cashier_name"
	RolesKey      = "cashier_roles"
)

// AuthMiddleware creates a JWT authentication middleware. The token names the
// cashier and the business the till belongs to; the business becomes the
// tenant of every repository call made for the request.
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(parts[1])
		if err != nil {
			response.Error(c, apperror.ErrInvalidToken.Wrap(err))
			c.Abort()
			return
		}

		c.Set(CashierIDKey, claims.CashierID)
		c.Set(BusinessIDKey, claims.BusinessID)
		c.Set(CashierKey, claims.Name)
		c.Set(RolesKey, claims.Roles)

		ctx := repository.WithTenant(c.Request.Context(), claims.BusinessID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRole creates a middleware that requires one of the given roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRoles, ok := c.Get(RolesKey)
		if !ok {
			response.Error(c, apperror.ErrForbidden)
			c.Abort()
			return
		}
		held, _ := userRoles.([]string)

		for _, have := range held {
			for _, want := range roles {
				if have == want {
					c.Next()
					return
				}
			}
		}

		response.Error(c, apperror.ErrForbidden)
		c.Abort()
	}
}
