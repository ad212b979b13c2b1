package bootstrap

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"

	appconfig "github.com/wolfman30/reservation-dialogue/internal/config"
	"github.com/wolfman30/reservation-dialogue/internal/events"
	"github.com/wolfman30/reservation-dialogue/internal/tools"
	"github.com/wolfman30/reservation-dialogue/pkg/logging"
)

// BuildEventPublisher picks where reservation events go. With Postgres they are
// written to the outbox and the returned Deliverer forwards them to SQS. Without
// Postgres they are sent to SQS directly. Both results are nil when neither is
// configured.
func BuildEventPublisher(cfg *appconfig.Config, pool *pgxpool.Pool, sqsClient *sqs.Client, logger *logging.Logger) (tools.EventPublisher, *events.Deliverer) {
	if logger == nil {
		logger = logging.Default()
	}
	queueURL := ""
	if cfg != nil {
		queueURL = strings.TrimSpace(cfg.ReservationEventsQueueURL)
	}

	var sqsPublisher *events.SQSPublisher
	if sqsClient != nil && queueURL != "" {
		sqsPublisher = events.NewSQSPublisher(sqsClient, queueURL)
	}

	if pool != nil {
		store := events.NewOutboxStore(pool)
		if sqsPublisher == nil {
			logger.Warn("reservation events queue not configured; events stay in the outbox")
			return events.NewOutboxPublisher(store), nil
		}
		logger.Info("reservation events routed through outbox", "queue_url", queueURL)
		return events.NewOutboxPublisher(store), events.NewDeliverer(store, sqsPublisher, events.DeliveryConfig{}, logger)
	}

	if sqsPublisher != nil {
		logger.Info("reservation events published directly to sqs", "queue_url", queueURL)
		return sqsPublisher, nil
	}
	logger.Info("reservation events disabled")
	return nil, nil
}
