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

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"arogya_api_echo/internal/config"
	"arogya_api_echo/internal/handlers"
	"arogya_api_echo/internal/middleware"
	"arogya_api_echo/internal/services"
	"arogya_api_echo/internal/tasks"
)

// requestValidator wires go-playground/validator into Echo.
type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Fails fast in production when a signing secret is missing: the
	// process must not serve a single request with a weak secret.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := services.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Firebase
	authClient, err := services.InitFirebase(cfg)
	if err != nil {
		log.Printf("Warning: Firebase initialization failed: %v", err)
		log.Println("Auth features will not work until valid credentials are provided")
	}

	// Initialize Database
	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = services.InitDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := services.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run database migrations: %v", err)
		}
	} else {
		log.Println("Warning: DATABASE_URL not set, database features disabled")
	}

	// Optional cache
	var cache *services.RedisCache
	if cfg.RedisURL != "" {
		cache, err = services.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Printf("Warning: Redis unavailable: %v", err)
		}
	}

	// Payment workflow services
	gateway := services.NewRazorpayService(cfg)
	verifier := services.NewSignatureVerifier(cfg)
	mailer := services.NewEmailService(cfg)
	fulfillment := services.NewFulfillmentService(logger)
	paymentService := services.NewPaymentService(db, gateway, verifier, logger)
	webhookService := services.NewWebhookService(db, verifier, fulfillment, cache, mailer, tasks.Scheduler{}, logger)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validate: validator.New()}
	e.HTTPErrorHandler = middleware.JSONErrorHandler(logger)

	// Middleware
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	// Initialize handlers
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	webhookHandler := handlers.NewWebhookHandler(webhookService)
	planHandler := handlers.NewPlanHandler(db, cache)
	userHandler := handlers.NewUserHandler(db)

	// Public routes
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.POST("/webhooks/razorpay", webhookHandler.HandleRazorpayWebhook)
	e.GET("/api/plans", planHandler.ListPlans)

	// Protected routes
	api := e.Group("/api")
	api.Use(middleware.RequireAuth(authClient, db))
	api.POST("/users/sync", userHandler.SyncUser)
	api.GET("/users/me", userHandler.Me)
	api.POST("/payments/order", paymentHandler.CreateOrder)
	api.POST("/payments/verify", paymentHandler.VerifyCheckout)
	api.GET("/payments", paymentHandler.ListPayments)

	log.Printf("Server starting on port %s", cfg.Port)
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown: drain in-flight requests, then release the cache
	// connection.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if cache != nil {
		if err := cache.Close(); err != nil {
			log.Printf("Failed to close cache: %v", err)
		}
	}
}
