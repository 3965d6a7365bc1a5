package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appinvoicing "github.com/invoicing/backend/internal/application/invoicing"
	"github.com/invoicing/backend/internal/domain/identity"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/internal/infrastructure/cache"
	"github.com/invoicing/backend/internal/infrastructure/config"
	"github.com/invoicing/backend/internal/infrastructure/event"
	"github.com/invoicing/backend/internal/infrastructure/logger"
	"github.com/invoicing/backend/internal/infrastructure/persistence"
	"github.com/invoicing/backend/internal/infrastructure/telemetry"
	"github.com/invoicing/backend/internal/interfaces/http/handler"
	"github.com/invoicing/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	lp, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	if lp.IsEnabled() {
		// tee application logs to the OTLP exporter
		if log, err = logger.New(logCfg, lp.ZapCore(cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))); err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting billing service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), 200*time.Millisecond)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	dbInstr := telemetry.DefaultDBInstrumentationConfig()
	dbInstr.TraceEnabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbInstr.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	if db.Driver() == config.DriverSQLite {
		dbInstr.DBSystem = "sqlite"
	}
	if err := telemetry.InstrumentDB(db.DB, mp, dbInstr, log); err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}

	// PostgreSQL schemas come from cmd/migrate; SQLite is for local runs
	if db.Driver() == config.DriverSQLite {
		if err := db.AutoMigrate(ctx); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}
	log.Info("Database connected", zap.String("driver", db.Driver()))

	store, err := cache.NewIdempotencyStore(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() {
		_ = store.Close()
	}()

	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	articleRepo := persistence.NewGormArticleRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB)

	bus := event.NewInMemoryEventBus(log)
	idempotency := shared.IdempotencyConfig{TTL: cfg.Billing.IdempotencyTTL, Enabled: true}
	bus.Subscribe(event.NewIdempotentHandler("invoice_touch",
		appinvoicing.NewInvoiceTouchHandler(invoiceRepo, articleRepo, log), store, idempotency, log))
	bus.Subscribe(appinvoicing.NewAuditLogHandler(log))
	if mp.IsEnabled() {
		billingMetrics, err := telemetry.NewBillingMetrics(mp)
		if err != nil {
			log.Fatal("Failed to initialize billing metrics", zap.Error(err))
		}
		bus.Subscribe(billingMetrics)
	}
	if err := bus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	policy := identity.DefaultPolicy()
	if cfg.Billing.AllowStaffManagement {
		policy = policy.
			With(identity.CapabilityManageCustomers, identity.RequireAuthenticated).
			With(identity.CapabilityManageInvoices, identity.RequireAuthenticated)
	}
	validator := appinvoicing.NewValidator()
	queries := appinvoicing.NewQueryService(customerRepo, invoiceRepo, policy, cfg.Billing.ListLimit)
	customers := appinvoicing.NewCustomerService(scope, policy, validator, bus, log)
	lifecycle := appinvoicing.NewLifecycleService(scope, policy, validator, bus, log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine, err := router.NewEngine(router.EngineConfig{
		Logger:         log,
		Users:          userRepo,
		MeterProvider:  mp,
		ServiceName:    cfg.Telemetry.ServiceName,
		Tracing:        tp.IsEnabled(),
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}
	router.NewRouter(engine).Register(
		handler.NewSystemHandler(cfg.App.Name, version, map[string]handler.HealthChecker{"database": db}),
		handler.NewCustomerHandler(queries, customers, lifecycle),
		handler.NewInvoiceHandler(queries, lifecycle),
		handler.NewStatisticsHandler(queries),
	).Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	_ = bus.Stop(shutdownCtx)
	for name, shutdown := range map[string]func(context.Context) error{
		"tracer": tp.Shutdown,
		"meter":  mp.Shutdown,
		"logger": lp.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.String("provider", name), zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}
