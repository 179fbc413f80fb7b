package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/remnika/wallet/internal/auth"
	"github.com/remnika/wallet/internal/compliance"
	"github.com/remnika/wallet/internal/config"
	"github.com/remnika/wallet/internal/funding"
	"github.com/remnika/wallet/internal/fx"
	"github.com/remnika/wallet/internal/identity"
	"github.com/remnika/wallet/internal/ledger"
	"github.com/remnika/wallet/internal/middleware"
	"github.com/remnika/wallet/internal/notification"
	"github.com/remnika/wallet/internal/recipients"
	"github.com/remnika/wallet/internal/transfer"
	"github.com/remnika/wallet/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes. DB, Cache and
// Events are optional in development.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Events notification.Publisher
	Logger *slog.Logger

	// Rates overrides the exchange-rate provider chosen from configuration.
	Rates fx.Provider
	// Users overrides the identity store chosen from DB.
	Users identity.Repository
	// Acquirer authorizes gateway deposits and payouts. Outside development
	// the payment routes are only mounted when one is supplied.
	Acquirer funding.Acquirer
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.Env)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.Env)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	// Storage
	var (
		led           ledger.Ledger
		identityRepo  identity.Repository
		recipientRepo recipients.Repository
	)
	if d.DB != nil {
		led = ledger.NewPostgresLedger(d.DB)
		identityRepo = identity.NewPostgresRepository(d.DB)
		recipientRepo = recipients.NewPostgresRepository(d.DB)
	} else {
		led = ledger.NewInMemory()
		identityRepo = identity.NewMemoryRepository()
		recipientRepo = recipients.NewMemoryRepository()
	}
	if d.Users != nil {
		identityRepo = d.Users
	}

	var notifier notification.Notifier = notification.NewLoggerNotifier(d.Logger)
	if d.Events != nil {
		notifier = notification.NewAMQPNotifier(d.Events, d.Cfg.EventsExchange, d.Logger)
	}

	rates := d.Rates
	if rates == nil {
		rates = rateProvider(d)
	}

	// Services
	tokens := auth.NewTokens(d.Cfg.JWTSecret, d.Cfg.TokenTTL)
	identitySvc := identity.NewService(identityRepo)
	walletSvc := wallet.NewService(led, d.Cfg.Compliance, d.Logger)
	gate := compliance.NewGate(d.Cfg.Compliance, led, d.Logger)
	transferSvc := transfer.NewService(led, gate, rates, notifier, d.Logger, d.Cfg.TransferMaxRetries)
	var fundingSvc *funding.Service
	if acquirer := fundingAcquirer(d); acquirer != nil {
		svc, err := funding.NewService(walletSvc, acquirer, notifier, d.Logger)
		if err != nil {
			return err
		}
		fundingSvc = svc
	} else {
		d.Logger.Warn("funding.disabled", slog.String("env", d.Cfg.Env), slog.String("reason", "no payment acquirer configured"))
	}
	recipientSvc := recipients.NewService(recipientRepo, d.Logger)

	if d.DB == nil && d.Users == nil {
		seedDevUser(identityRepo, tokens, d.Logger)
	}

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Protected routes
	protected := api.Group("", middleware.JWTAuth(tokens, identityRepo))
	if d.Cache != nil {
		protected.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterIdentityRoutes(protected, identity.NewHandler(identitySvc))
	RegisterWalletRoutes(protected, wallet.NewHandler(walletSvc, identitySvc))
	RegisterTransferRoutes(protected, transfer.NewHandler(transferSvc, identitySvc),
		middleware.TransferRateLimit(d.Cache, d.Cfg.TransferRatePerMin, d.Logger))
	if fundingSvc != nil {
		RegisterFundingRoutes(protected, funding.NewHandler(fundingSvc, identitySvc))
	}
	RegisterComplianceRoutes(protected, compliance.NewHandler(gate, identitySvc, led))
	RegisterRecipientRoutes(protected, recipients.NewHandler(recipientSvc, identitySvc))

	return nil
}

// rateProvider uses the external rate API when a key is configured, cached
// in Redis when available. Otherwise a fixed table serves local runs.
// fundingAcquirer returns the configured acquirer. The approve-everything
// static acquirer is only used in development; elsewhere nil disables the
// payment routes.
func fundingAcquirer(d Deps) funding.Acquirer {
	if d.Acquirer != nil {
		return d.Acquirer
	}
	if d.Cfg.IsDev() {
		return funding.StaticAcquirer{}
	}
	return nil
}

func rateProvider(d Deps) fx.Provider {
	if d.Cfg.FXAPIKey != "" {
		return fx.NewCachedProvider(
			fx.NewHTTPProvider(d.Cfg.FXAPIURL, d.Cfg.FXAPIKey, d.Cfg.FXTimeout),
			d.Cache, d.Cfg.FXCacheTTL, d.Logger)
	}
	d.Logger.Warn("FX_API_KEY not set, using static exchange rates")
	return fx.NewStaticProvider().
		Set("USD", "EUR", decimal.RequireFromString("0.90")).
		Set("EUR", "USD", decimal.RequireFromString("1.11")).
		Set("USD", "INR", decimal.RequireFromString("83.00")).
		Set("INR", "USD", decimal.RequireFromString("0.012"))
}

// seedDevUser provisions a verified demo user for in-memory runs and logs a
// token for it.
func seedDevUser(repo identity.Repository, tokens *auth.Tokens, logger *slog.Logger) {
	user := identity.User{
		ID:         "00000000-0000-0000-0000-000000000001",
		FullName:   "Demo User",
		Email:      "demo@remnika.local",
		Country:    "USA",
		IsVerified: true,
		KYCStatus:  identity.KYCApproved,
		CreatedAt:  time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		logger.Warn("seed dev user", slog.Any("error", err))
		return
	}
	token, err := tokens.Issue(user)
	if err != nil {
		logger.Warn("issue dev token", slog.Any("error", err))
		return
	}
	logger.Info("dev user seeded", slog.String("user_id", user.ID), slog.String("token", token))
}
