// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"commerce-payload-bridge/internal/config"
	"commerce-payload-bridge/internal/domain/ports/adapter"
	"commerce-payload-bridge/internal/infra/adapters/notify"
	"commerce-payload-bridge/internal/infra/adapters/payload"
	pg "commerce-payload-bridge/internal/infra/db/postgres"
	"commerce-payload-bridge/internal/infra/logging"
	"commerce-payload-bridge/internal/infra/metrics"
	red "commerce-payload-bridge/internal/infra/redis"
	"commerce-payload-bridge/internal/infra/sched"
	"commerce-payload-bridge/internal/infra/security"
	"commerce-payload-bridge/internal/infra/web"
	"commerce-payload-bridge/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, relaxed checks)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.Connect(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)
	methodCache := red.NewMethodCache(redisClient, cfg.Redis.TTL)

	// ---- Encryption ----
	encKey := cfg.Security.EncryptionKey
	if len(encKey) != 32 {
		logger.Warn().Msg("security.encryption_key not set or not 32 bytes; falling back to dev key (INSECURE)")
		encKey = "0123456789abcdef0123456789abcdef"
	}
	encSvc, err := security.NewEncryptionService(encKey)
	if err != nil {
		log.Fatalf("encryption: %v", err)
	}

	// ---- Repositories ----
	txm := pg.NewTxManager(pool)
	orderRepo := pg.NewOrderRepo(pool)
	tokenRepo := pg.NewTokenRepo(pool, encSvc)
	subRepo := pg.NewSubscriptionRepo(pool)

	// ---- Payload client ----
	proc := payload.NewCachedProcessor(
		payload.NewClient(cfg.Payload.APIKey, cfg.Payload.BaseURL, cfg.Payload.Timeout, logger),
		methodCache,
	)

	// ---- Use cases ----
	tokenUC := usecase.NewTokenUseCase(tokenRepo, proc, logger)
	chargeUC := usecase.NewChargeUseCase(orderRepo, proc, logger)
	customerUC := usecase.NewCustomerUseCase(orderRepo, tokenRepo, proc, logger)
	checkoutUC := usecase.NewCheckoutUseCase(
		orderRepo, tokenRepo, subRepo, proc,
		tokenUC, chargeUC, customerUC,
		cfg.Checkout.ReturnURL, cfg.Checkout.PaymentMethodsURL,
		logger,
	)
	renewalUC := usecase.NewRenewalUseCase(orderRepo, tokenRepo, subRepo, proc, chargeUC, logger)

	// ---- Dunning notifier ----
	var notifier adapter.DunningNotifier = notify.NoopNotifier{}
	if cfg.Notify.TelegramToken != "" && cfg.Notify.ChatID != 0 {
		notifier, err = notify.NewTelegramNotifier(cfg.Notify.TelegramToken, cfg.Notify.ChatID, logger)
		if err != nil {
			log.Fatalf("telegram notifier: %v", err)
		}
	}

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Server.JWTSecret, 30*time.Minute)
	srv := web.NewServer(checkoutUC, renewalUC, auth, locker, cfg.Checkout.LockTTL, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Renewal worker ----
	worker := sched.NewRenewalWorker(
		cfg.Renewal.Interval, cfg.Renewal.BatchSize,
		txm, subRepo, orderRepo, renewalUC, notifier, logger,
	)
	go func() { _ = worker.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}
}
