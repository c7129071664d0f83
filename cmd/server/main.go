package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pos-backend/internal/auth"
	"pos-backend/internal/cache"
	"pos-backend/internal/config"
	"pos-backend/internal/database"
	"pos-backend/internal/db"
	h "pos-backend/internal/http"
	"pos-backend/internal/handlers"
	"pos-backend/internal/health"
	"pos-backend/internal/middleware"
	"pos-backend/internal/monitoring"
	"pos-backend/internal/outbox"
	"pos-backend/internal/repositories"
	"pos-backend/internal/services"
	"pos-backend/internal/storage"
	"pos-backend/internal/timeutil"
	"pos-backend/migrations"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}

	logger := config.NewLogger(cfg)
	handlers.SetLogger(logger)

	if err := timeutil.SetLocation(cfg.Business.Timezone); err != nil {
		logger.WithError(err).Warn("falling back to IST")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.WithError(err).Fatal("database unavailable")
	}
	defer pool.Close()
	logger.WithField("database", cfg.Database.Name).Info("connected to database")

	logger.Info("running database migrations")
	migrator := database.NewMigratorWithFS(pool, migrations.FS, ".", logger)
	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = migrator.RunMigrations(migrateCtx)
	cancel()
	if err != nil {
		logger.WithError(err).Fatal("failed to run migrations")
	}

	if err := cache.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		logger.WithError(err).Warn("redis unavailable, caching and event fan-out disabled")
	} else {
		logger.Info("redis connected")
		defer cache.Close()
	}

	var uploader storage.Uploader
	if cfg.StorageEnabled() {
		r2, err := storage.NewR2Client(ctx, cfg)
		if err != nil {
			logger.WithError(err).Warn("object storage unavailable, report archives disabled")
		} else {
			uploader = r2
		}
	}

	jwtManager := auth.NewJWTManager(cfg)

	// Repositories
	userRepo := repositories.NewUserRepository(pool)
	companyRepo := repositories.NewCompanyRepository(pool)
	customerRepo := repositories.NewCustomerRepository(pool)
	vendorRepo := repositories.NewVendorRepository(pool)
	productRepo := repositories.NewProductRepository(pool)
	saleRepo := repositories.NewSaleRepository(pool)
	debtRepo := repositories.NewDebtRepository(pool)
	ledgerRepo := repositories.NewLedgerRepository(pool)
	purchaseRepo := repositories.NewPurchaseRepository(pool)
	cartRepo := repositories.NewCartRepository(pool)
	onlineTransactionRepo := repositories.NewOnlineTransactionRepository(pool)
	reportRepo := repositories.NewReportRepository(pool)
	outboxRepo := repositories.NewOutboxRepository(pool)

	// Services
	userService := services.NewUserService(userRepo, jwtManager)
	totpService := services.NewTOTPService(userRepo, cfg.JWT.Issuer)
	ledgerService := services.NewLedgerService(ledgerRepo, debtRepo)
	customerService := services.NewCustomerService(customerRepo, ledgerService, cfg.Business.PhoneRegion)
	debtService := services.NewDebtService(debtRepo, saleRepo, ledgerService)
	saleService := services.NewSaleService(saleRepo, logger)
	cartService := services.NewCartService(cartRepo, saleService)
	productService := services.NewProductService(productRepo)
	vendorService := services.NewVendorService(vendorRepo, cfg.Business.PhoneRegion)
	companyService := services.NewCompanyService(companyRepo)
	purchaseService := services.NewPurchaseService(purchaseRepo)
	razorpayService := services.NewRazorpayService(cfg, onlineTransactionRepo, debtRepo, ledgerService, logger)
	reportService := services.NewReportService(
		reportRepo,
		ledgerRepo,
		ledgerService,
		customerRepo,
		productRepo,
		saleRepo,
		uploader,
		cfg.Business.Name,
		logger,
	)

	created, err := userService.EnsureAdmin(ctx, "Administrator", os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD"))
	if err != nil {
		logger.WithError(err).Fatal("failed to create admin account")
	}
	if created {
		logger.Info("created initial admin account")
	}

	hub := monitoring.NewHub(pool, logger, monitoring.DefaultStatsInterval)
	healthChecker := health.NewHealthChecker(pool).WithOutbox(outboxRepo)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo)

	router := h.NewRouter(h.Handlers{
		Auth:     handlers.NewAuthHandler(userService),
		User:     handlers.NewUserHandler(userService),
		TOTP:     handlers.NewTOTPHandler(totpService),
		Customer: handlers.NewCustomerHandler(customerService),
		Debt:     handlers.NewDebtHandler(debtService),
		Sale:     handlers.NewSaleHandler(saleService, reportService),
		Product:  handlers.NewProductHandler(productService),
		Vendor:   handlers.NewVendorHandler(vendorService, purchaseService),
		Company:  handlers.NewCompanyHandler(companyService),
		Purchase: handlers.NewPurchaseHandler(purchaseService),
		Cart:     handlers.NewCartHandler(cartService),
		Razorpay: handlers.NewRazorpayHandler(razorpayService),
		Report:   handlers.NewReportHandler(reportService),
		Health:   handlers.NewHealthHandler(healthChecker),
		Hub:      hub,
	}, authMiddleware)

	dispatcher := outbox.NewDispatcher(outboxRepo, hub, outbox.Config{
		PollInterval: cfg.Outbox.PollInterval,
		BatchSize:    cfg.Outbox.BatchSize,
		MaxAttempts:  cfg.Outbox.MaxAttempts,
	}, logger)

	go hub.Run(ctx)
	go dispatcher.Run(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           h.Wrap(router, cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}
