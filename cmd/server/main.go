package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"sari-backend/internal/auth"
	"sari-backend/internal/cache"
	"sari-backend/internal/config"
	"sari-backend/internal/database"
	"sari-backend/internal/db"
	"sari-backend/internal/handlers"
	"sari-backend/internal/health"
	h "sari-backend/internal/http"
	"sari-backend/internal/logging"
	"sari-backend/internal/middleware"
	"sari-backend/internal/realtime"
	"sari-backend/internal/repositories"
	"sari-backend/internal/services"
	"sari-backend/internal/storage"
	"sari-backend/internal/timeutil"
	"sari-backend/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err := timeutil.SetLocation(cfg.Store.Timezone); err != nil {
		logger.WithError(err).Warn("Unknown store timezone, using Asia/Manila")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("Server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	logger.WithField("host", cfg.Database.Host).Info("Connected to PostgreSQL")

	if err := database.NewMigrator(pool, migrations.FS, logger).RunMigrations(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Redis is optional; without it every utang list reads Postgres
	var redisPinger health.Pinger
	ledgerCache := cache.NewLedgerCache(nil, 0)
	if client, err := cache.Connect(ctx, cfg); err != nil {
		logger.WithError(err).Warn("Redis unavailable, ledger cache disabled")
	} else {
		defer client.Close()
		ledgerCache = cache.NewLedgerCache(client, time.Duration(cfg.Redis.LedgerTTLSeconds)*time.Second)
		redisPinger = ledgerCache
		logger.WithField("addr", cfg.Redis.Addr).Info("Connected to Redis")
	}

	archive, err := storage.NewStatementArchive(ctx, cfg)
	if err != nil {
		return fmt.Errorf("statement archive: %w", err)
	}

	hub := realtime.NewHub(logger)
	go hub.Run(ctx)

	// Repositories
	userRepo := repositories.NewUserRepository(pool)
	customerRepo := repositories.NewCustomerRepository(pool)
	productRepo := repositories.NewProductRepository(pool)
	saleRepo := repositories.NewSaleRepository(pool)
	creditRepo := repositories.NewCreditRepository(pool)

	// Services
	jwtManager := auth.NewJWTManager(cfg)
	userService := services.NewUserService(userRepo, jwtManager, logger)
	customerService := services.NewCustomerService(customerRepo, creditRepo, ledgerCache, logger)
	productService := services.NewProductService(productRepo)
	saleService := services.NewSaleService(saleRepo, productRepo, customerRepo, ledgerCache, hub, logger)
	statementService := services.NewStatementService(cfg.Store.Name, cfg.Store.Address)

	var archiver services.StatementArchiver
	if archive != nil {
		archiver = archive
	}
	utangService := services.NewUtangService(creditRepo, customerRepo, ledgerCache, hub, statementService, archiver, logger)
	dashboardService := services.NewDashboardService(saleRepo, productRepo, customerRepo, creditRepo, utangService)

	if _, err := userService.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	healthChecker := health.NewHealthChecker(pool, redisPinger)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo)

	router := h.NewRouter(h.Handlers{
		Auth:      handlers.NewAuthHandler(userService, logger),
		Users:     handlers.NewUserHandler(userService, logger),
		Customers: handlers.NewCustomerHandler(customerService, logger),
		Products:  handlers.NewProductHandler(productService, logger),
		Sales:     handlers.NewSaleHandler(saleService, logger),
		Utang:     handlers.NewUtangHandler(utangService, logger),
		Dashboard: handlers.NewDashboardHandler(dashboardService, logger),
		Health:    handlers.NewHealthHandler(healthChecker),
		Realtime:  hub.ServeWS,
	}, authMiddleware)

	handler := middleware.PanicRecovery(logger)(
		middleware.RequestLogger(logger)(
			middleware.NewCORS(cfg)(router)))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", srv.Addr).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSeconds)*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
