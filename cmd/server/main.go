package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payu-adapter/internal/config"
	"payu-adapter/internal/db"
	"payu-adapter/internal/logger"
	"payu-adapter/internal/metrics"
	"payu-adapter/internal/middleware"
	"payu-adapter/internal/order"
	"payu-adapter/internal/payment"
	"payu-adapter/internal/payment/checkout"
	"payu-adapter/internal/payment/payu"
	"payu-adapter/internal/payment/webhook"

	"go.uber.org/zap"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

var (
	initDBFunc      = db.InitDB
	newProviderFunc = newPayUProvider
	startServerFunc = listenAndServe
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	provider, err := newProviderFunc(context.Background(), cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           newServer(cfg, database, payment.NewManager(provider)),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return startServerFunc(srv)
}

func newPayUProvider(ctx context.Context, cfg *config.Config) (payment.Provider, error) {
	client := &http.Client{Timeout: cfg.PayU.HTTPTimeout}
	return payu.New(ctx, cfg.PayUOptions(), payu.WithHTTPClient(client))
}

func newServer(cfg *config.Config, database *sql.DB, manager *payment.Manager) http.Handler {
	orderSvc := order.NewService(order.NewRepository(database))
	paymentRepo := payment.NewRepository(database)

	checkoutHandler := checkout.NewHandler(orderSvc, manager, cfg.NotifyBaseURL)
	webhookHandler := webhook.NewWebhookHandler(orderSvc, manager, paymentRepo)

	return setupRouter(checkoutHandler.StartPaymentHandler, webhookHandler.PaymentWebhookHandler, []byte(cfg.SecretKey))
}

func setupRouter(checkoutHandler, webhookHandler http.HandlerFunc, secret []byte) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", metrics.Handler())

	mux.Handle("POST /payments/{provider}",
		middleware.RequireAuth(secret)(middleware.RateLimitMiddleware(checkoutHandler)))
	mux.Handle("POST /payments/{provider}/notify",
		middleware.RateLimitMiddleware(webhookHandler))

	return logger.RequestIDMiddleware(logger.LoggingMiddleware(mux))
}

// listenAndServe runs srv until SIGINT or SIGTERM, then drains in-flight
// requests.
func listenAndServe(srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
