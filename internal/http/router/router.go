package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/presaleshub/crm-api/internal/auth"
	"github.com/presaleshub/crm-api/internal/config"
	"github.com/presaleshub/crm-api/internal/database"
	"github.com/presaleshub/crm-api/internal/http/handler"
	"github.com/presaleshub/crm-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/presaleshub/crm-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg                *config.Config
	logger             *zap.Logger
	db                 *gorm.DB
	authMiddleware     *auth.Middleware
	rateLimiter        *middleware.RateLimiter
	authHandler        *handler.AuthHandler
	clientHandler      *handler.ClientHandler
	opportunityHandler *handler.OpportunityHandler
	rfpHandler         *handler.RFPHandler
	sowHandler         *handler.SOWHandler
	userHandler        *handler.UserHandler
	referenceHandler   *handler.ReferenceHandler
	dashboardHandler   *handler.DashboardHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	authHandler *handler.AuthHandler,
	clientHandler *handler.ClientHandler,
	opportunityHandler *handler.OpportunityHandler,
	rfpHandler *handler.RFPHandler,
	sowHandler *handler.SOWHandler,
	userHandler *handler.UserHandler,
	referenceHandler *handler.ReferenceHandler,
	dashboardHandler *handler.DashboardHandler,
) *Router {
	return &Router{
		cfg:                cfg,
		logger:             logger,
		db:                 db,
		authMiddleware:     authMiddleware,
		rateLimiter:        rateLimiter,
		authHandler:        authHandler,
		clientHandler:      clientHandler,
		opportunityHandler: opportunityHandler,
		rfpHandler:         rfpHandler,
		sowHandler:         sowHandler,
		userHandler:        userHandler,
		referenceHandler:   referenceHandler,
		dashboardHandler:   dashboardHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with detailed stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
				"max_idle_closed":      stats.MaxIdleClosed,
				"max_lifetime_closed":  stats.MaxLifetimeClosed,
			},
		})
	})

	// Combined readiness check
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if allHealthy {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "healthy",
				"checks": checks,
			})
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"checks": checks,
			})
		}
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes (no auth required)
		r.Post("/auth/login", rt.authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)

			// Auth
			r.Get("/auth/me", rt.authHandler.Me)
			r.Get("/auth/permissions", rt.authHandler.Permissions)

			// Clients
			r.Route("/clients", func(r chi.Router) {
				r.With(rt.authMiddleware.RequirePermission("clients:read")).Get("/", rt.clientHandler.List)
				r.With(rt.authMiddleware.RequirePermission("clients:write")).Post("/", rt.clientHandler.Create)
				r.With(rt.authMiddleware.RequirePermission("clients:write")).Post("/import", rt.clientHandler.Import)
				r.With(rt.authMiddleware.RequirePermission("clients:read")).Get("/import/template", rt.clientHandler.ImportTemplate)
				r.With(rt.authMiddleware.RequirePermission("clients:read")).Get("/{id}", rt.clientHandler.GetByID)
				r.With(rt.authMiddleware.RequirePermission("clients:write")).Put("/{id}", rt.clientHandler.Update)
				r.With(rt.authMiddleware.RequirePermission("clients:write")).Delete("/{id}", rt.clientHandler.Delete)
			})

			// Opportunities
			r.Route("/opportunities", func(r chi.Router) {
				r.With(rt.authMiddleware.RequirePermission("opportunities:read")).Get("/", rt.opportunityHandler.List)
				r.With(rt.authMiddleware.RequirePermission("opportunities:write")).Post("/", rt.opportunityHandler.Create)
				r.With(rt.authMiddleware.RequirePermission("opportunities:write")).Post("/import", rt.opportunityHandler.Import)
				r.With(rt.authMiddleware.RequirePermission("opportunities:read")).Get("/import/template", rt.opportunityHandler.ImportTemplate)
				r.With(rt.authMiddleware.RequirePermission("opportunities:read")).Get("/{id}", rt.opportunityHandler.GetByID)
				r.With(rt.authMiddleware.RequirePermission("opportunities:write")).Put("/{id}", rt.opportunityHandler.Update)
				r.With(rt.authMiddleware.RequirePermission("opportunities:write")).Delete("/{id}", rt.opportunityHandler.Delete)
				r.With(rt.authMiddleware.RequirePermission("opportunities:read")).Get("/{id}/rfps", rt.opportunityHandler.GetRFPs)
			})

			// RFPs (part of the opportunity workflow, same permissions)
			r.Route("/rfps", func(r chi.Router) {
				r.With(rt.authMiddleware.RequirePermission("opportunities:read")).Get("/", rt.rfpHandler.List)
				r.With(rt.authMiddleware.RequirePermission("opportunities:write")).Post("/", rt.rfpHandler.Create)
				r.With(rt.authMiddleware.RequirePermission("opportunities:read")).Get("/{id}", rt.rfpHandler.GetByID)
				r.With(rt.authMiddleware.RequirePermission("opportunities:write")).Put("/{id}", rt.rfpHandler.Update)
				r.With(rt.authMiddleware.RequirePermission("opportunities:write")).Delete("/{id}", rt.rfpHandler.Delete)
				r.With(rt.authMiddleware.RequirePermission("opportunities:read")).Get("/{id}/documents/{documentId}", rt.rfpHandler.DownloadDocument)
			})

			// SOWs (part of the opportunity workflow, same permissions)
			r.Route("/sows", func(r chi.Router) {
				r.With(rt.authMiddleware.RequirePermission("opportunities:read")).Get("/", rt.sowHandler.List)
				r.With(rt.authMiddleware.RequirePermission("opportunities:write")).Post("/", rt.sowHandler.Create)
				r.With(rt.authMiddleware.RequirePermission("opportunities:read")).Get("/{id}", rt.sowHandler.GetByID)
				r.With(rt.authMiddleware.RequirePermission("opportunities:write")).Delete("/{id}", rt.sowHandler.Delete)
				r.With(rt.authMiddleware.RequirePermission("opportunities:read")).Get("/{id}/documents/{documentId}", rt.sowHandler.DownloadDocument)
				r.With(rt.authMiddleware.RequirePermission("opportunities:write")).Delete("/{id}/documents/{documentId}", rt.sowHandler.DeleteDocument)
			})

			// Users (admin only via the users module permission)
			r.Route("/users", func(r chi.Router) {
				r.Use(rt.authMiddleware.RequirePermission("users"))
				r.Get("/", rt.userHandler.List)
				r.Post("/", rt.userHandler.Register)
				r.Get("/{id}", rt.userHandler.GetByID)
				r.Put("/{id}", rt.userHandler.Update)
				r.Delete("/{id}", rt.userHandler.Delete)
			})

			// Reference data: reads for everyone, writes admin only (no role
			// grants the reference module, so only the admin wildcard passes)
			r.Get("/roles", rt.referenceHandler.ListRoles)
			r.Get("/regions", rt.referenceHandler.ListRegions)
			r.Get("/countries", rt.referenceHandler.ListCountries)
			r.With(rt.authMiddleware.RequirePermission("reference:write")).Post("/roles", rt.referenceHandler.CreateRole)
			r.With(rt.authMiddleware.RequirePermission("reference:write")).Post("/regions", rt.referenceHandler.CreateRegion)
			r.With(rt.authMiddleware.RequirePermission("reference:write")).Post("/countries", rt.referenceHandler.CreateCountry)

			// Dashboard (any authenticated user)
			r.Get("/dashboard/stats", rt.dashboardHandler.Stats)
			r.Get("/dashboard/sales-performance", rt.dashboardHandler.SalesPerformance)
		})
	})

	return r
}
