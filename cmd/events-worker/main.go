package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/wolfman30/reservation-dialogue/cmd/mainconfig"
	"github.com/wolfman30/reservation-dialogue/internal/app/bootstrap"
	"github.com/wolfman30/reservation-dialogue/internal/config"
	"github.com/wolfman30/reservation-dialogue/pkg/logging"
)

// events-worker drains the reservation outbox into SQS. Run it with
// OUTBOX_INLINE_DELIVERY=false on the API.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" || cfg.ReservationEventsQueueURL == "" {
		logger.Error("events worker requires DATABASE_URL and RESERVATION_EVENTS_QUEUE_URL")
		os.Exit(1)
	}

	pool, err := bootstrap.BuildPostgresPool(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	sqsClient, err := mainconfig.NewSQSClient(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	_, deliverer := bootstrap.BuildEventPublisher(cfg, pool, sqsClient, logger)
	if deliverer == nil {
		logger.Error("outbox deliverer not configured")
		os.Exit(1)
	}
	logger.Info("events worker started", "queue_url", cfg.ReservationEventsQueueURL)
	deliverer.Run(ctx)
	logger.Info("events worker stopped")
}
