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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mealbox/orderd/internal/catalog"
	"github.com/mealbox/orderd/internal/config"
	"github.com/mealbox/orderd/internal/db"
	"github.com/mealbox/orderd/internal/events"
	"github.com/mealbox/orderd/internal/handlers"
	"github.com/mealbox/orderd/internal/middleware"
	"github.com/mealbox/orderd/internal/repository"
	"github.com/mealbox/orderd/internal/service"
	"github.com/mealbox/orderd/pkg/logger"
)

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

	log.Info("starting order processing server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"log_level", cfg.LogLevel,
	)

	ctx := context.Background()

	// Bring the schema up to date, then open the pool
	if err := db.Migrate(cfg.Database.URL); err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	pool, err := db.Open(ctx, cfg.Database.URL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Initialize repositories
	dbPool := repository.NewPool(pool)
	catalogRepo := repository.NewCatalogRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)

	// Seed the known-id filter; it resyncs itself from the catalog on a
	// miss, and an unseeded filter just defers to the catalog fetch.
	idFilter := catalog.NewIDFilter(catalogRepo.AllIDs)
	if err := idFilter.Reload(ctx); err != nil {
		log.Warn("failed to seed menu id filter, admission will skip the fast path", "error", err)
	} else {
		log.Info("menu id filter seeded")
	}
	var guard service.IDGuard = idFilter

	// Optional event publishing
	var publisher service.EventPublisher
	if cfg.Events.AMQPURL != "" {
		conn, err := amqp.Dial(cfg.Events.AMQPURL)
		if err != nil {
			log.Error("failed to connect to broker", "error", err)
			os.Exit(1)
		}
		defer conn.Close()

		pub, err := events.NewPublisher(conn)
		if err != nil {
			log.Error("failed to create event publisher", "error", err)
			os.Exit(1)
		}
		defer pub.Close()
		publisher = pub
		log.Info("order event publishing enabled")
	}

	// Initialize services
	pricing := service.Pricing{
		BulkDiscountThreshold: cfg.Pricing.BulkDiscountThreshold,
		BulkDiscountPercent:   cfg.Pricing.BulkDiscountPercent,
		LeadTime:              time.Duration(cfg.Pricing.LeadTimeHours) * time.Hour,
	}
	orderService := service.NewOrderService(catalogRepo, orderRepo, guard, publisher, pricing, log)
	menuService := service.NewMenuService(catalogRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(log)
	orderHandler := handlers.NewOrderHandler(orderService, log)
	menuHandler := handlers.NewMenuHandler(menuService, log)

	// Create router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Register health check endpoint
	r.Get("/health", healthHandler.ServeHTTP)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Menu endpoints (public)
		r.Get("/menu", menuHandler.ListItems)
		r.Get("/menu/{menuId}", menuHandler.GetItem)

		// Order endpoints (authenticated)
		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.BearerAuth(cfg.Auth.JWTSecret))
			r.Post("/", orderHandler.CreateOrder)
			r.Get("/", orderHandler.ListOrders)
			r.Get("/{orderId}", orderHandler.GetOrder)
			r.Patch("/{orderId}/cancel", orderHandler.CancelOrder)
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
