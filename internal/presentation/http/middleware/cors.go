package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sangkips/investify-pos/internal/config"
)

// tills cannot talk to the API without these
var requiredHeaders = []string{"Authorization", "Content-Type", IdempotencyKeyHeader}

// exposed so a till can tell a replayed commit from a fresh one and back off on 429
var exposedHeaders = []string{
	"Content-Length",
	"X-Request-ID",
	ReplayedHeader,
	"X-RateLimit-Limit",
	"X-RateLimit-Remaining",
	"Retry-After",
}

// CORSMiddleware allows browser tills on the configured origins
func CORSMiddleware(cfg *config.CORSConfig) gin.HandlerFunc {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}

	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	}

	headers := append([]string{"Accept", "Origin", "X-Request-ID"}, cfg.AllowedHeaders...)
	for _, h := range requiredHeaders {
		if !containsFold(headers, h) {
			headers = append(headers, h)
		}
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     methods,
		AllowHeaders:     headers,
		ExposeHeaders:    exposedHeaders,
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
