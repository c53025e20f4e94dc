package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"purepick/api/handlers"
	"purepick/internal/app"
	"purepick/internal/config"
	"purepick/internal/logging"
	"purepick/internal/telemetry"
)

func main() {
	cfg, err := config.Load(os.Getenv("PUREPICK_CONFIG"))
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	if cfg.Telemetry {
		shutdownTracing, err := telemetry.Setup("purepick")
		if err != nil {
			logger.Fatal("Failed to set up tracing", zap.Error(err))
		}
		defer shutdownTracing(context.Background())
	}

	// Initialize services
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	// Initialize handlers
	h := &handlers.Handlers{
		Product:  handlers.NewProductHandler(application.Products, application.Stores),
		Store:    handlers.NewStoreHandler(application.Stores),
		Cart:     handlers.NewCartHandler(application.Carts, application.Stores),
		Order:    handlers.NewOrderHandler(application.Orders),
		User:     handlers.NewUserHandler(application.Users),
		Scan:     handlers.NewScanHandler(application.Coordinator, application.Products, application.Stores),
		Wishlist: handlers.NewWishlistHandler(application.Wishlists, application.Stores),
	}

	// Setup router
	router := setupRouter(cfg, logger, h)

	// Start server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.AnalysisTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Run server in goroutine
	go func() {
		logger.Info("Server starting",
			zap.String("addr", server.Addr),
			zap.String("storage", cfg.Storage),
			zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("Server shutdown complete")
}

func setupRouter(cfg *config.Config, logger *zap.Logger, h *handlers.Handlers) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(logging.GinMiddleware(logger))
	router.Use(gin.Recovery())

	// API Routes
	h.Register(router.Group("/api"))

	// Debug endpoints in development
	if gin.Mode() != gin.ReleaseMode {
		router.GET("/debug/metrics", h.Product.Metrics)
	}

	return router
}
