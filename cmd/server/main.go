// Package main is the entry point for the application.
// It initializes all dependencies, starts the background workers and serves
// the HTTP API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shiftpay/internal/config"
	"shiftpay/internal/repositories"
	"shiftpay/internal/routes"
	"shiftpay/internal/services/notification"
	"shiftpay/internal/services/topup"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	// Load environment variables
	config.LoadEnv()

	// Initialize databases (PostgreSQL + Redis)
	if err := repositories.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	sqlDB, err := repositories.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Successfully connected to database with connection pooling")

	defer func() {
		if err := sqlDB.Close(); err != nil {
			log.Printf("Failed to close database connection: %v", err)
		}
		if repositories.CacheService != nil {
			if err := repositories.CacheService.Close(); err != nil {
				log.Printf("Failed to close Redis connection: %v", err)
			}
		}
	}()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "shiftpay",
		ReadTimeout:  config.GetDurationEnv("HTTP_READ_TIMEOUT", 10*time.Second),
		WriteTimeout: config.GetDurationEnv("HTTP_WRITE_TIMEOUT", 10*time.Second),
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders: "Origin, Content-Type, Accept, Idempotency-Key",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Mutating money endpoints are rate limited per client.
	app.Use("/api", limiter.New(limiter.Config{
		Max:        config.GetIntEnv("RATE_LIMIT_MAX", 100),
		Expiration: config.GetDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
	}))

	services := routes.SetupRoutes(app, repositories.DB)

	// Background workers share one cancellable context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := notification.NewDispatcher(
		repositories.NewOutboxRepository(repositories.DB),
		repositories.CacheService,
		config.GetDurationEnv("OUTBOX_POLL_INTERVAL", time.Second),
	)
	go dispatcher.Run(ctx)

	topupWorker := topup.NewWorker(services.Funding, services.TopupQueue)
	go topupWorker.Run(ctx)

	go runIdempotencySweep(ctx, services)
	go runHoldExpirySweep(ctx, services)

	// Shut down cleanly on SIGINT/SIGTERM.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down...")
		cancel()
		if err := app.Shutdown(); err != nil {
			log.Printf("Server shutdown failed: %v", err)
		}
	}()

	port := config.GetEnv("PORT", "8080")
	log.Printf("Starting server on :%s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

// runIdempotencySweep periodically deletes idempotency records past their
// retention window.
func runIdempotencySweep(ctx context.Context, services *routes.Services) {
	interval := config.GetDurationEnv("IDEMPOTENCY_SWEEP_INTERVAL", time.Hour)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := services.Guard.Sweep(ctx, time.Now())
			if err != nil {
				log.Printf("Idempotency sweep failed: %v", err)
				continue
			}
			if deleted > 0 {
				log.Printf("Idempotency sweep removed %d records", deleted)
			}
		}
	}
}

// runHoldExpirySweep periodically releases overdue holds back to available.
func runHoldExpirySweep(ctx context.Context, services *routes.Services) {
	interval := config.GetDurationEnv("HOLD_SWEEP_INTERVAL", 5*time.Minute)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := services.Ledger.SweepExpiredHolds(ctx, time.Now(), 100)
			if err != nil {
				log.Printf("Hold expiry sweep failed: %v", err)
				continue
			}
			if expired > 0 {
				log.Printf("Hold expiry sweep released %d holds", expired)
			}
		}
	}
}
