package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/SelwynIsLoading/kiosk-payments/internal/config"
	"github.com/SelwynIsLoading/kiosk-payments/internal/httpapi"
	"github.com/SelwynIsLoading/kiosk-payments/internal/kitchen"
	"github.com/SelwynIsLoading/kiosk-payments/internal/observability"
	"github.com/SelwynIsLoading/kiosk-payments/internal/orchestrator"
	"github.com/SelwynIsLoading/kiosk-payments/internal/printqueue"
	"github.com/SelwynIsLoading/kiosk-payments/internal/receipt"
	"github.com/SelwynIsLoading/kiosk-payments/internal/session"
	"github.com/SelwynIsLoading/kiosk-payments/internal/storage/postgres"
	"github.com/SelwynIsLoading/kiosk-payments/internal/sweep"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewInmem(256)

	sessions, err := session.New(cfg.Session.ArchiveCap, logger)
	if err != nil {
		logger.Fatal("session store init", zap.Error(err))
	}
	queue := printqueue.New(logger)

	pool, err := postgres.Connect(ctx, cfg.DSN())
	if err != nil {
		logger.Fatal("postgres connect", zap.Error(err))
	}
	defer pool.Close()
	orders := postgres.NewOrderStore(pool)

	var notifier orchestrator.Notifier
	if len(cfg.Kafka.Brokers) > 0 {
		if err := kitchen.EnsureTopic(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, 1, 1, logger); err != nil {
			logger.Warn("kitchen topic check failed", zap.Error(err))
		}
		kn := kitchen.New(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		defer kn.Close()
		notifier = kn
	} else {
		notifier = kitchen.Noop{Logger: logger}
	}

	renderer := receipt.NewRenderer(cfg.Restaurant.Name, cfg.Restaurant.Address, cfg.Restaurant.Phone)

	orch := orchestrator.New(orders, queue, renderer, notifier, logger, metrics)
	defer orch.Close()

	sweeper := sweep.New(
		sessions, queue,
		cfg.Session.SweepInterval, cfg.Session.GraceWindow,
		cfg.Print.StallAfter, cfg.Print.MaxAttempts,
		logger, metrics,
	)
	go sweeper.Run(ctx)

	srv := httpapi.New(sessions, queue, orch, logger, metrics)
	logger.Info("kiosk server starting", zap.String("addr", cfg.HTTPAddr))
	if err := srv.ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
		logger.Fatal("http server", zap.Error(err))
	}
	logger.Info("kiosk server stopped")
}
