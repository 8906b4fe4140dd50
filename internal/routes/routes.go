// Package routes defines the API routing configuration.
// It wires repositories, services and handlers together and mounts every
// endpoint on the fiber app.
package routes

import (
	"time"

	"shiftpay/internal/config"
	"shiftpay/internal/handlers"
	"shiftpay/internal/metrics"
	"shiftpay/internal/repositories"
	"shiftpay/internal/services/cancellation"
	"shiftpay/internal/services/escrow"
	"shiftpay/internal/services/gateway"
	"shiftpay/internal/services/idempotency"
	"shiftpay/internal/services/ledger"
	"shiftpay/internal/services/settlement"
	"shiftpay/internal/services/shifts"
	"shiftpay/internal/services/topup"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"gorm.io/gorm"
)

// Services bundles the wired service graph so main can hand pieces to the
// background workers.
type Services struct {
	Ledger     ledger.Service
	Guard      idempotency.Service
	Funding    topup.Service
	TopupQueue topup.Queue
	Escrow     escrow.Service
	Settlement settlement.Service
	Cancel     cancellation.Service
}

// SetupRoutes configures all application routes and returns the service graph.
func SetupRoutes(app *fiber.App, db *gorm.DB) *Services {
	ledgerRepo := repositories.NewLedgerRepository(db)
	idempotencyRepo := repositories.NewIdempotencyRepository(db)
	topupConfigRepo := repositories.NewAutoTopupConfigRepository(db)

	collector := metrics.NewCollector()

	ledgerService := ledger.NewService(
		ledgerRepo,
		repositories.CacheService,
		ledger.Config{DefaultCurrency: config.GetEnv("DEFAULT_CURRENCY", "EUR")},
		collector,
	)

	guard := idempotency.NewService(
		idempotencyRepo,
		config.GetDurationEnv("IDEMPOTENCY_RETENTION", idempotency.DefaultRetention),
	)

	gw := gateway.NewStripeGateway(config.GetEnv("STRIPE_SECRET_KEY", ""))

	shiftProvider := shifts.NewHTTPProvider(
		config.GetEnv("SHIFTS_API_URL", "http://localhost:8081"),
		config.GetEnv("SHIFTS_API_KEY", ""),
	)

	trigger := topup.NewTrigger(topupConfigRepo, repositories.CacheService)
	fundingService := topup.NewService(ledgerService, guard, gw, topupConfigRepo, repositories.CacheService, trigger)

	escrowService := escrow.NewService(ledgerService, guard, shiftProvider, trigger, escrow.Config{
		HoldGrace: config.GetDurationEnv("HOLD_GRACE", 72*time.Hour),
	})

	settlementService := settlement.NewService(ledgerService, guard, shiftProvider, settlement.Config{
		FeeRate:           config.GetDecimalEnv("PLATFORM_FEE_RATE", "0.15"),
		PlatformAccountID: uint(config.GetIntEnv("PLATFORM_ACCOUNT_ID", 1)),
	})

	cancellationService := cancellation.NewService(ledgerService, guard, shiftProvider)

	escrowHandler := handlers.NewEscrowHandler(escrowService)
	shiftHandler := handlers.NewShiftHandler(settlementService, cancellationService)
	walletHandler := handlers.NewWalletHandler(ledgerService, fundingService)

	app.Get("/health", handlers.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(collector.Handler()))

	api := app.Group("/api")

	api.Post("/escrow/reserve", escrowHandler.ReserveFunds)
	api.Post("/shifts/settle", shiftHandler.SettleShift)
	api.Post("/shifts/cancel", shiftHandler.CancelShift)

	api.Post("/wallet/topup", walletHandler.TopUp)
	api.Post("/wallet/withdraw", walletHandler.Withdraw)

	wallets := api.Group("/wallets/:accountType/:accountID")
	wallets.Get("/balance", walletHandler.GetBalance)
	wallets.Get("/transactions", walletHandler.ListTransactions)
	wallets.Get("/topup-config", walletHandler.GetTopupConfig)
	wallets.Put("/topup-config", walletHandler.SetTopupConfig)

	return &Services{
		Ledger:     ledgerService,
		Guard:      guard,
		Funding:    fundingService,
		TopupQueue: repositories.CacheService,
		Escrow:     escrowService,
		Settlement: settlementService,
		Cancel:     cancellationService,
	}
}
