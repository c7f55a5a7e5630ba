package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sangkips/investify-pos/internal/config"
	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/investify-pos/internal/presentation/http/handler"
	"github.com/sangkips/investify-pos/internal/presentation/http/middleware"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"github.com/sangkips/investify-pos/pkg/metrics"
	"github.com/sangkips/investify-pos/pkg/utils"
	"go.uber.org/zap"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	POS     *handler.POSHandler
	Receipt *handler.ReceiptHandler
	Printer *handler.PrinterHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	RateLimiter     *middleware.BusinessRateLimiter
	Metrics         *metrics.ServerMetrics
	Gatherer        prometheus.Gatherer
	Logger          *zap.Logger
	// Simulated is reported on /health when checkouts run against the memory store
	Simulated bool
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	handler.UseJSONFieldNames()
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))
	if deps.Metrics != nil {
		router.Use(middleware.MetricsMiddleware(deps.Metrics))
	}

	router.GET("/health", func(c *gin.Context) {
		body := gin.H{
			"status":    "ok",
			"service":   deps.Cfg.App.Name,
			"simulated": deps.Simulated,
		}
		if deps.RateLimiter != nil {
			body["rate_limiter"] = deps.RateLimiter.Stats()
		}
		c.JSON(200, body)
	})
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(deps.Gatherer)))
	}

	router.NoRoute(func(c *gin.Context) {
		response.Error(c, apperror.ErrNotFound)
	})

	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		protected.Use(middleware.RequireTenant())
		if deps.RateLimiter != nil {
			protected.Use(deps.RateLimiter.Middleware())
		}

		registerPOSRoutes(protected, h, deps)
		registerReceiptRoutes(protected, h)
		registerPrinterRoutes(protected, h)
	}

	return router
}

func registerPOSRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	idem := middleware.IdempotencyConfig{Repo: deps.IdempotencyRepo, Logger: deps.Logger}

	pos := protected.Group("/pos")
	{
		pos.GET("/products", h.POS.ListProducts)
		pos.GET("/products/:id", h.POS.GetProduct)
		pos.GET("/customers", h.POS.SearchCustomers)
		pos.GET("/customers/:id", h.POS.GetCustomer)

		pos.POST("/sessions", middleware.Idempotency(idem), h.POS.OpenSession)
		sessions := pos.Group("/sessions/:id")
		{
			sessions.GET("", h.POS.GetSession)
			sessions.DELETE("", h.POS.CloseSession)
			sessions.POST("/cancel", h.POS.CancelSale)

			sessions.POST("/lines", h.POS.AddLine)
			sessions.DELETE("/lines", h.POS.ClearLines)
			sessions.PUT("/lines/:item_id", h.POS.SetQuantity)
			sessions.DELETE("/lines/:item_id", h.POS.RemoveLine)

			sessions.PUT("/customer", h.POS.SetCustomer)
			sessions.PUT("/payment", h.POS.SetPaymentMethod)
			sessions.PUT("/discount", h.POS.SetDiscount)
			sessions.PUT("/tax", h.POS.SetTaxRate)
			sessions.PUT("/notes", h.POS.SetNotes)

			sessions.POST("/steps/:step", h.POS.Navigate)
			sessions.POST("/commit", middleware.IdempotencyRequired(idem), h.POS.Commit)
		}
	}
}

func registerReceiptRoutes(protected *gin.RouterGroup, h *Handlers) {
	receipts := protected.Group("/receipts")
	{
		receipts.GET("", h.Receipt.List)
		receipts.GET("/number/:number", h.Receipt.GetByNumber)
		receipts.GET("/:id", h.Receipt.Get)
		receipts.POST("/:id/print", h.Printer.PrintReceipt)
	}
}

func registerPrinterRoutes(protected *gin.RouterGroup, h *Handlers) {
	printer := protected.Group("/printer")
	{
		printer.GET("/status", h.Printer.GetStatus)
		printer.POST("/test", middleware.RequireRole("manager", "admin"), h.Printer.TestPrint)
	}
}
