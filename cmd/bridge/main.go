package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/SelwynIsLoading/kiosk-payments/internal/bridge"
	"github.com/SelwynIsLoading/kiosk-payments/internal/config"
	"github.com/SelwynIsLoading/kiosk-payments/internal/pkg/circuit"
	"github.com/SelwynIsLoading/kiosk-payments/internal/pkg/retry"
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

	client := bridge.NewClient(
		cfg.Bridge.APIBaseURL,
		cfg.Bridge.RequestTimeout,
		retry.Policy{
			Attempts:     cfg.Retry.Attempts,
			Base:         cfg.Retry.Base,
			Max:          cfg.Retry.Max,
			JitterFactor: cfg.Retry.JitterFactor,
		},
		circuit.New(cfg.Breaker.Threshold, cfg.Breaker.OpenTimeout, cfg.Breaker.MaxHalfOpen),
		logger,
	)

	for {
		if err := runLink(ctx, cfg, client, logger); err != nil {
			logger.Error("serial link lost", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			logger.Info("bridge stopped")
			return
		case <-time.After(cfg.Bridge.ReconnectDelay):
		}
	}
}

// runLink owns one serial connection: both loops share it and the first
// one to hit a hard link error tears the other down.
func runLink(ctx context.Context, cfg config.Config, client *bridge.Client, logger *zap.Logger) error {
	link, err := bridge.OpenSerial(cfg.Bridge.SerialPort, cfg.Bridge.BaudRate)
	if err != nil {
		return err
	}
	defer link.Close()

	logger.Info("serial link open",
		zap.String("port", cfg.Bridge.SerialPort),
		zap.Int("baud", cfg.Bridge.BaudRate))

	// Opening the port resets the microcontroller; let it boot before the
	// first command.
	select {
	case <-time.After(2 * time.Second):
	case <-ctx.Done():
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, 2)
	go func() {
		errs <- bridge.NewCashReader(link, client, cfg.Bridge.CashPoll, logger).Run(runCtx)
	}()
	go func() {
		errs <- bridge.NewPrinterLoop(link, client, cfg.Bridge.PrinterPoll, logger).Run(runCtx)
	}()

	err = <-errs
	cancel()
	link.Close()
	<-errs
	return err
}
