package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/pixfacil/pixfacil/internal/config"
	"github.com/pixfacil/pixfacil/internal/handler"
	"github.com/pixfacil/pixfacil/internal/logging"
	"github.com/pixfacil/pixfacil/internal/middleware"
	"github.com/pixfacil/pixfacil/internal/provider"
	"github.com/pixfacil/pixfacil/internal/repository"
	"github.com/pixfacil/pixfacil/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("pixfacil-api", cfg.LogLevel, cfg.AppEnv)

	fee, err := cfg.Fee()
	if err != nil {
		slog.Error("invalid transaction fee", "error", err)
		os.Exit(1)
	}

	db, err := connectDB(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	go sweepIdempotencyCache(db)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           buildRouter(cfg, db, fee),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func buildRouter(cfg *config.Config, db *sql.DB, fee decimal.Decimal) http.Handler {
	users := repository.NewUserRepository(db)
	transactions := repository.NewTransactionRepository(db)
	pixKeys := repository.NewPixKeyRepository(db)
	idempotency := repository.NewIdempotencyRepository(db)

	providerClient := provider.NewClient(
		cfg.ProviderURL,
		cfg.ProviderToken,
		time.Duration(cfg.ProviderTimeoutS)*time.Second,
	)

	chargeTTL := time.Duration(cfg.ChargeExpiryS) * time.Second
	ledger := service.NewLedger(transactions, fee, chargeTTL)
	reconciler := service.NewReconciler(transactions, cfg.PaidStatuses(), chargeTTL)
	charges := service.NewChargeService(db, transactions, providerClient, reconciler, cfg.ChargeExpiryS)
	withdrawals := service.NewWithdrawalService(db, users, transactions, fee)
	keys := service.NewPixKeyService(pixKeys)

	jwtExpiry := time.Duration(cfg.JWTExpiryS) * time.Second
	authHandler := handler.NewAuthHandler(users, cfg.JWTSecret, jwtExpiry)
	txnHandler := handler.NewTransactionHandler(ledger)
	chargeHandler := handler.NewChargeHandler(charges)
	withdrawHandler := handler.NewWithdrawalHandler(withdrawals)
	pixKeyHandler := handler.NewPixKeyHandler(keys)
	webhookHandler := handler.NewWebhookHandler(reconciler, cfg.WebhookSecret)

	authed := middleware.Auth(cfg.JWTSecret)
	idem := middleware.Idempotency(idempotency)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.Health(db))

	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/webhooks/provider", webhookHandler.ReceiveProviderWebhook)

	mux.Handle("GET /api/v1/balance", authed(http.HandlerFunc(txnHandler.GetBalance)))
	mux.Handle("GET /api/v1/transactions", authed(http.HandlerFunc(txnHandler.List)))
	mux.Handle("GET /api/v1/charges/{reference}", authed(http.HandlerFunc(chargeHandler.GetStatus)))
	mux.Handle("POST /api/v1/charges", authed(idem(http.HandlerFunc(chargeHandler.Create))))
	mux.Handle("POST /api/v1/withdrawals", authed(idem(http.HandlerFunc(withdrawHandler.Create))))
	mux.Handle("POST /api/v1/pix-keys", authed(http.HandlerFunc(pixKeyHandler.Create)))
	mux.Handle("GET /api/v1/pix-keys", authed(http.HandlerFunc(pixKeyHandler.List)))
	mux.Handle("DELETE /api/v1/pix-keys/{id}", authed(http.HandlerFunc(pixKeyHandler.Delete)))

	return middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))
}

// sweepIdempotencyCache drops expired replay entries hourly. Lookups already
// filter on expires_at, so the sweep only reclaims space.
func sweepIdempotencyCache(db *sql.DB) {
	repo := repository.NewIdempotencyRepository(db)
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n, err := repo.DeleteExpired(ctx)
		cancel()
		if err != nil {
			slog.Error("idempotency cache sweep failed", "error", err)
			continue
		}
		if n > 0 {
			slog.Info("idempotency cache swept", "deleted", n)
		}
	}
}

func connectDB(cfg *config.Config) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool := repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	}

	var lastErr error
	for i := range 30 {
		db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, pool)
		if err == nil {
			return db, nil
		}
		lastErr = err
		slog.Info("waiting for database", "attempt", i+1)
		time.Sleep(time.Second)
	}
	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", lastErr)
}
