package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dineqr/order-api/internal/cache"
	"github.com/dineqr/order-api/internal/config"
	"github.com/dineqr/order-api/internal/coupon"
	"github.com/dineqr/order-api/internal/handlers"
	"github.com/dineqr/order-api/internal/metrics"
	"github.com/dineqr/order-api/internal/middleware"
	"github.com/dineqr/order-api/internal/repository"
	"github.com/dineqr/order-api/internal/service"
	"github.com/dineqr/order-api/pkg/logger"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const couponGuardRefresh = 5 * time.Minute

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting order intake server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"log_level", cfg.LogLevel,
	)

	ctx := context.Background()

	// Connect to the stores
	db, err := repository.OpenPostgres(cfg.Database.URL)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("connected to postgres")

	restaurantRepo := repository.NewPostgresRestaurantRepository(db)
	couponRepo := repository.NewPostgresCouponRepository(db)
	orderRepo := repository.NewPostgresOrderRepository(db)
	catalogRepo := repository.NewPostgresCatalogRepository(db)

	// Redis is optional: without it the catalog goes uncached and the track
	// endpoint runs unlimited.
	var catalog service.CatalogStore = catalogRepo
	var trackLimiter func(http.Handler) http.Handler
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.New(ctx, cfg.Redis.Addr, cfg.Redis.CatalogCacheTTL)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		log.Info("connected to redis", "addr", cfg.Redis.Addr)

		catalog = repository.NewCachedCatalogRepository(catalogRepo, redisCache, log)
		trackLimiter = middleware.RateLimit(redisCache, cfg.Track.RateLimit, cfg.Track.RateWindow, log)
	} else {
		log.Warn("redis not configured, catalog cache and track rate limiting disabled")
	}

	// Coupon bloom guard: seeded now, refreshed in the background
	guard := coupon.NewGuard(couponRepo)
	if err := guard.Reload(ctx); err != nil {
		log.Warn("coupon guard initial load failed, guard stays open", "error", err)
	}
	go func() {
		ticker := time.NewTicker(couponGuardRefresh)
		defer ticker.Stop()
		for range ticker.C {
			if err := guard.Reload(ctx); err != nil {
				log.Warn("coupon guard reload failed", "error", err)
			}
		}
	}()

	// Initialize metrics
	m := metrics.New()

	// Initialize services
	orderService := service.NewOrderService(restaurantRepo, catalog, couponRepo, orderRepo, guard, log)
	trackService := service.NewTrackService(orderRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(log)
	orderHandler := handlers.NewOrderHandler(orderService, m, log)
	trackHandler := handlers.NewTrackHandler(trackService, log)

	// Create router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Challenge-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Register health check and metrics endpoints
	r.Get("/health", healthHandler.ServeHTTP)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/order", orderHandler.CreateOrder)

		r.Group(func(r chi.Router) {
			if trackLimiter != nil {
				r.Use(trackLimiter)
			}
			r.Use(middleware.Challenge(cfg.Track.ChallengeToken))
			r.Get("/order/track/{token}", trackHandler.TrackOrder)
		})
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}
