package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/cachefleet/cachefleet/internal/api/handlers"
	mw "github.com/cachefleet/cachefleet/internal/api/middleware"
	"github.com/cachefleet/cachefleet/internal/buildconfig"
	"github.com/cachefleet/cachefleet/internal/config"
	"github.com/cachefleet/cachefleet/internal/domain"
	"github.com/cachefleet/cachefleet/internal/relay"
	"github.com/cachefleet/cachefleet/internal/service"
	"github.com/cachefleet/cachefleet/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the router and request counters for the metrics endpoint.
type App struct {
	Router       *chi.Mux
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	userStore := store.NewUserStore(db)
	agentStore := store.NewAgentStore(db)
	serviceStore := store.NewServiceStore(db)
	cacheStore := store.NewCacheStore(db)

	// Outbound relay to agent cache APIs
	caller := relay.NewClient(config.AgentTimeout())

	// Services
	authSvc := service.NewAuthService(userStore, config.JWTSecret(), config.JWTIssuer(), config.JWTExpiry())
	userSvc := service.NewUserService(userStore)
	agentSvc := service.NewAgentService(agentStore, caller)
	serviceSvc := service.NewServiceService(serviceStore, agentStore)
	cacheSvc := service.NewCacheService(cacheStore, serviceStore, agentStore, caller, logger)

	// Handlers
	authHandler := handlers.NewAuthHandler(authSvc)
	userHandler := handlers.NewUserHandler(userSvc)
	agentHandler := handlers.NewAgentHandler(agentSvc)
	serviceHandler := handlers.NewServiceHandler(serviceSvc, userSvc)
	cacheHandler := handlers.NewCacheHandler(cacheSvc)
	callbackHandler := handlers.NewCallbackHandler(serviceSvc)
	healthHandler := handlers.NewHealthHandler()

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		startTime: time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: config.CORSOrigins(),
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", mw.APIKeyHeader, mw.RequestIDHeader},
		MaxAge:         300,
	}))
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Infrastructure probes (no auth)
	r.Get("/health", dbHealthHandler(db))
	r.Get("/metrics", app.metricsHandler())

	r.Route("/api", func(r chi.Router) {
		// Liveness probe, no auth
		r.Get("/health/ping", healthHandler.Ping)

		r.Post("/auth/login", authHandler.Login)

		// Agent-facing callback routes, gated by API key instead of JWT
		r.Route("/callback", func(r chi.Router) {
			r.Get("/health", callbackHandler.Health)

			r.Group(func(r chi.Router) {
				r.Use(mw.APIKeyAuth(agentStore))
				r.Post("/register-service", callbackHandler.RegisterService)
			})
		})

		// Human-facing admin routes
		r.Group(func(r chi.Router) {
			r.Use(mw.JWTAuth(authSvc))

			r.Get("/auth/me", authHandler.Me)

			r.Route("/users", func(r chi.Router) {
				r.Use(mw.RequireRole(domain.RoleAdmin))
				r.Get("/", userHandler.List)
				r.Post("/", userHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", userHandler.GetByID)
					r.Put("/", userHandler.Update)
					r.Delete("/", userHandler.Delete)
					r.Put("/role", userHandler.UpdateRole)
					r.Put("/services", userHandler.LinkServices)
				})
			})

			r.Route("/agents", func(r chi.Router) {
				r.Use(mw.RequireRole(domain.RoleAdmin))
				r.Get("/", agentHandler.List)
				r.Post("/", agentHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", agentHandler.GetByID)
					r.Put("/", agentHandler.Update)
					r.Delete("/", agentHandler.Delete)
					r.Post("/regenerate-api-key", agentHandler.RegenerateAPIKey)
					r.Get("/ping", agentHandler.Ping)
				})
			})

			r.Route("/services", func(r chi.Router) {
				r.Get("/", serviceHandler.List)
				r.Post("/", serviceHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", serviceHandler.GetByID)
					r.Put("/", serviceHandler.Update)
					r.Delete("/", serviceHandler.Delete)
				})
			})

			r.Route("/caches", func(r chi.Router) {
				r.Get("/", cacheHandler.List)
				r.Post("/", cacheHandler.Create)
				r.Get("/live/{serviceId}", cacheHandler.Live)
				r.Get("/live/{serviceId}/{cacheKey}", cacheHandler.LiveKey)
				r.Post("/flushall/{serviceId}", cacheHandler.FlushAll)
				r.Delete("/clear/{serviceId}/{cacheKey}", cacheHandler.ClearKey)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", cacheHandler.GetByID)
					r.Put("/", cacheHandler.Update)
					r.Delete("/", cacheHandler.Delete)
				})
			})
		})
	})

	return app
}

func dbHealthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"version":        buildconfig.Version(),
			"commit":         buildconfig.Commit(),
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.UserStore    = (*store.UserStore)(nil)
	_ domain.AgentStore   = (*store.AgentStore)(nil)
	_ domain.ServiceStore = (*store.ServiceStore)(nil)
	_ domain.CacheStore   = (*store.CacheStore)(nil)
	_ domain.AgentCaller  = (*relay.Client)(nil)
)
