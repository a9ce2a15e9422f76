package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/presaleshub/crm-api/docs"
	"github.com/presaleshub/crm-api/internal/auth"
	"github.com/presaleshub/crm-api/internal/config"
	"github.com/presaleshub/crm-api/internal/database"
	"github.com/presaleshub/crm-api/internal/http/handler"
	"github.com/presaleshub/crm-api/internal/http/middleware"
	"github.com/presaleshub/crm-api/internal/http/router"
	"github.com/presaleshub/crm-api/internal/jobs"
	"github.com/presaleshub/crm-api/internal/logger"
	"github.com/presaleshub/crm-api/internal/repository"
	"github.com/presaleshub/crm-api/internal/service"
	"github.com/presaleshub/crm-api/internal/storage"
	"github.com/presaleshub/crm-api/internal/warehouse"
	"go.uber.org/zap"
)

// @title Presales Hub CRM API
// @version 1.0
// @description CRM API for client, opportunity, RFP and SOW management

// @contact.name API Support
// @contact.email support@presaleshub.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Configure Swagger host based on environment
	switch basicCfg.App.Environment {
	case "staging":
		docs.SwaggerInfo.Host = "crm-api-staging.presaleshub.io"
	case "production":
		docs.SwaggerInfo.Host = "api.presaleshub.io"
	default:
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Connect to database
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize storage
	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Initialize warehouse connection (optional - for snapshot export)
	// The app continues without it if not configured
	var warehouseClient *warehouse.Client
	if cfg.Warehouse.Enabled {
		warehouseClient, err = warehouse.NewClient(&cfg.Warehouse, log)
		if err != nil {
			log.Warn("Warehouse connection failed, continuing without it",
				zap.Error(err),
			)
		} else if warehouseClient != nil {
			log.Info("Warehouse connected successfully",
				zap.Int("max_open_conns", cfg.Warehouse.MaxOpenConns),
			)
		}
	} else {
		log.Info("Warehouse not configured, skipping")
	}

	// Initialize repositories
	clientRepo := repository.NewClientRepository(db)
	opportunityRepo := repository.NewOpportunityRepository(db)
	rfpRepo := repository.NewRFPRepository(db)
	sowRepo := repository.NewSOWRepository(db)
	userRepo := repository.NewUserRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)

	// Initialize auth components
	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpiryDuration())
	resolver := auth.NewResolver(auth.DefaultRBACConfig())
	authMiddleware := auth.NewMiddleware(tokenManager, userRepo, resolver, log)

	// Initialize services
	clientService := service.NewClientService(db, clientRepo, log)
	opportunityService := service.NewOpportunityService(opportunityRepo, log)
	rfpService := service.NewRFPService(db, rfpRepo, opportunityRepo, fileStorage, log)
	sowService := service.NewSOWService(db, sowRepo, opportunityRepo, fileStorage, log)
	userService := service.NewUserService(db, userRepo, referenceRepo, tokenManager, log)
	referenceService := service.NewReferenceService(referenceRepo, log)
	importService := service.NewImportService(clientService, opportunityService, log)
	dashboardService := service.NewDashboardService(clientRepo, opportunityRepo, rfpRepo, sowRepo, log)
	warehouseSyncService := service.NewWarehouseSyncService(opportunityRepo, warehouseClient, log)

	// Initialize middleware
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(userService, log)
	clientHandler := handler.NewClientHandler(clientService, importService, log)
	opportunityHandler := handler.NewOpportunityHandler(opportunityService, rfpService, importService, log)
	rfpHandler := handler.NewRFPHandler(rfpService, cfg.Storage.MaxUploadSizeMB, cfg.Storage.MaxFilesPerRequest, log)
	sowHandler := handler.NewSOWHandler(sowService, cfg.Storage.MaxUploadSizeMB, cfg.Storage.MaxFilesPerRequest, log)
	userHandler := handler.NewUserHandler(userService, log)
	referenceHandler := handler.NewReferenceHandler(referenceService, log)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		authHandler,
		clientHandler,
		opportunityHandler,
		rfpHandler,
		sowHandler,
		userHandler,
		referenceHandler,
		dashboardHandler,
	)

	// Initialize and start scheduler for background jobs
	var scheduler *jobs.Scheduler
	if cfg.Warehouse.Enabled && cfg.Warehouse.SyncEnabled && warehouseClient != nil {
		scheduler = jobs.NewScheduler(log)

		if err := jobs.RegisterWarehouseSyncJob(
			scheduler,
			warehouseSyncService,
			log,
			cfg.Warehouse.SyncCron,
			cfg.Warehouse.SyncTimeoutDuration(),
		); err != nil {
			log.Error("Failed to register warehouse sync job", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started with warehouse sync job",
				zap.String("cron_expr", cfg.Warehouse.SyncCron),
				zap.Duration("timeout", cfg.Warehouse.SyncTimeoutDuration()),
			)
		}
	} else {
		log.Info("Warehouse periodic sync disabled",
			zap.Bool("warehouse_enabled", cfg.Warehouse.Enabled),
			zap.Bool("sync_enabled", cfg.Warehouse.SyncEnabled),
			zap.Bool("warehouse_client_available", warehouseClient != nil),
		)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Stop scheduler if running
		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		// Close warehouse connection if initialized
		if warehouseClient != nil {
			if err := warehouseClient.Close(); err != nil {
				log.Warn("Error closing warehouse connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
