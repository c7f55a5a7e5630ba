package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sangkips/investify-pos/internal/application/service"
	"github.com/sangkips/investify-pos/internal/config"
	"github.com/sangkips/investify-pos/internal/domain/checkout"
	"github.com/sangkips/investify-pos/internal/domain/event"
	domainRepo "github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/internal/infrastructure/cache"
	"github.com/sangkips/investify-pos/internal/infrastructure/database"
	"github.com/sangkips/investify-pos/internal/infrastructure/memory"
	"github.com/sangkips/investify-pos/internal/infrastructure/messaging"
	"github.com/sangkips/investify-pos/internal/infrastructure/repository"
	"github.com/sangkips/investify-pos/internal/infrastructure/seed"
	"github.com/sangkips/investify-pos/internal/infrastructure/txretry"
	"github.com/sangkips/investify-pos/internal/presentation/http/handler"
	"github.com/sangkips/investify-pos/internal/presentation/http/middleware"
	"github.com/sangkips/investify-pos/internal/presentation/http/routes"
	"github.com/sangkips/investify-pos/pkg/logger"
	"github.com/sangkips/investify-pos/pkg/metrics"
	"github.com/sangkips/investify-pos/pkg/printer"
	"github.com/sangkips/investify-pos/pkg/utils"
	"go.uber.org/zap"
)

// stores groups the persistence the services need
type stores struct {
	checkout    domainRepo.CheckoutStore
	products    domainRepo.ProductRepository
	customers   domainRepo.CustomerRepository
	receipts    domainRepo.ReceiptRepository
	idempotency domainRepo.IdempotencyRepository
}

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zl, err := logger.New(cfg.App.Env, cfg.App.Debug)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	serverMetrics := metrics.NewServerMetrics(registry)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	policy := txretry.DefaultPolicy()
	policy.MaxAttempts = cfg.Checkout.MaxAttempts
	if cfg.Checkout.RetryBase > 0 {
		policy.BaseDelay = cfg.Checkout.RetryBase
	}

	st := openStores(cfg, policy, zl)
	if !st.checkout.Durable() {
		zl.Warn("running on the in-memory store: sales are simulated and nothing is persisted")
	}

	// Session storage
	var sessionStore domainRepo.SessionStore
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			zl.Fatal("failed to connect to redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		defer client.Close()
		sessionStore = cache.NewRedisSessionStore(client, cfg.Redis.SessionTTL, zl.Named("sessions"))
		zl.Info("checkout sessions stored in redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		sessionStore = memory.NewSessionStore(cfg.Redis.SessionTTL)
	}

	// Event delivery
	notifiers := messaging.MultiNotifier{messaging.NewLogNotifier(zl)}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaNotifier := messaging.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.SalesTopic, cfg.Kafka.StockTopic)
		defer func() {
			if err := kafkaNotifier.Close(); err != nil {
				zl.Warn("failed to close kafka writers", zap.Error(err))
			}
		}()
		notifiers = append(notifiers, kafkaNotifier)
	}
	var notifier event.Notifier = notifiers

	// Initialize services
	inventoryService := service.NewInventoryService(st.products, st.customers)
	receiptService := service.NewReceiptService(st.receipts)
	checkoutService := service.NewCheckoutService(st.checkout, notifier, checkoutMetrics, zl, cfg.Checkout.CommitTimeout)
	guard := checkout.NewGuard(utils.NewReceiptNumberGenerator(cfg.Checkout.ReceiptPrefix, cfg.Checkout.ReceiptIncludeDate).Next)
	sessionService := service.NewSessionService(sessionStore, st.receipts, inventoryService, checkoutService, guard, service.SessionServiceConfig{
		DefaultTaxRate: cfg.Checkout.DefaultTaxRate,
		LockTTL:        2 * cfg.Checkout.CommitTimeout,
	}, zl)

	// Initialize thermal printer
	thermalPrinter, err := printer.NewPrinterFromConfig(cfg.Printer.Type, cfg.Printer.USBPath, cfg.Printer.Address)
	if err != nil {
		zl.Warn("failed to initialize printer, receipts will not be printed", zap.Error(err))
		thermalPrinter = printer.NewBufferPrinter()
	}
	defer thermalPrinter.Close()
	printerService := service.NewPrinterService(thermalPrinter, receiptService, service.ReceiptHeader{StoreName: cfg.Printer.StoreName}, cfg.Printer.Type, zl)

	handlers := &routes.Handlers{
		POS:     handler.NewPOSHandler(sessionService, inventoryService, printerService),
		Receipt: handler.NewReceiptHandler(receiptService),
		Printer: handler.NewPrinterHandler(printerService),
	}

	rateLimiter := middleware.NewBusinessRateLimiter(rateLimiterConfig(cfg.RateLimit))
	go rateLimiter.Run(ctx)
	go purgeIdempotencyKeys(ctx, st.idempotency, zl)

	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours, cfg.App.Name),
		Cfg:             cfg,
		IdempotencyRepo: st.idempotency,
		RateLimiter:     rateLimiter,
		Metrics:         serverMetrics,
		Gatherer:        registry,
		Logger:          zl,
		Simulated:       !st.checkout.Durable(),
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("starting server", zap.String("name", cfg.App.Name), zap.String("port", port), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openStores connects the configured store. Outside production a missing
// database may fall back to the in-memory simulation.
func openStores(cfg *config.Config, policy txretry.Policy, zl *zap.Logger) stores {
	if cfg.Store.Driver == config.StoreDriverMemory {
		return memoryStores(policy, zl)
	}

	db, err := database.Open(&cfg.Database, cfg.App.Debug, zl)
	if err != nil {
		if cfg.Store.FallbackToMemory && !cfg.IsProduction() {
			zl.Warn("database unreachable, falling back to the in-memory store", zap.Error(err))
			return memoryStores(policy, zl)
		}
		zl.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := database.AutoMigrate(db, zl); err != nil {
		zl.Fatal("failed to run migrations", zap.Error(err))
	}
	if !cfg.IsProduction() {
		if err := database.SeedDemoData(db, seed.DemoBusinessID, zl); err != nil {
			zl.Warn("failed to seed demo data", zap.Error(err))
		}
	}

	return stores{
		checkout:    repository.NewCheckoutStore(db, policy, zl),
		products:    repository.NewProductRepository(db),
		customers:   repository.NewCustomerRepository(db),
		receipts:    repository.NewReceiptRepository(db),
		idempotency: repository.NewIdempotencyRepository(db),
	}
}

func memoryStores(policy txretry.Policy, zl *zap.Logger) stores {
	store := memory.NewSeededStore(policy, zl, seed.DemoBusinessID)
	return stores{
		checkout:    store,
		products:    store.Products(),
		customers:   store.Customers(),
		receipts:    store.Receipts(),
		idempotency: memory.NewIdempotencyRepository(),
	}
}

func rateLimiterConfig(rl config.RateLimitConfig) middleware.RateLimiterConfig {
	out := middleware.DefaultRateLimiterConfig()
	if rl.Requests > 0 && rl.Duration > 0 {
		out.RequestsPerSecond = float64(rl.Requests) / float64(rl.Duration)
		out.BurstSize = rl.Requests
	}
	return out
}

func purgeIdempotencyKeys(ctx context.Context, repo domainRepo.IdempotencyRepository, zl *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := repo.DeleteExpired(ctx); err != nil {
				zl.Warn("failed to purge idempotency keys", zap.Error(err))
			}
		}
	}
}
