package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/reservation-dialogue/internal/config"
	"github.com/wolfman30/reservation-dialogue/internal/conversation"
	"github.com/wolfman30/reservation-dialogue/internal/events"
	"github.com/wolfman30/reservation-dialogue/internal/observability/metrics"
	"github.com/wolfman30/reservation-dialogue/internal/reservations"
	"github.com/wolfman30/reservation-dialogue/internal/tools"
	"github.com/wolfman30/reservation-dialogue/pkg/logging"
)

// ConversationDeps are the shared clients the chat service is built on. Every
// client is optional; missing ones fall back to in-memory behaviour.
type ConversationDeps struct {
	Redis     *redis.Client
	Pool      *pgxpool.Pool
	Archive   *sql.DB
	Dynamo    *dynamodb.Client
	Publisher tools.EventPublisher
	Metrics   *metrics.DialogueMetrics
}

// Conversation is the wired chat stack.
type Conversation struct {
	Service   *conversation.ChatService
	Directory reservations.Directory
	Calendars conversation.CalendarSource
	Registry  *tools.Registry
	// History is nil when no turn store is configured.
	History conversation.HistoryReader
}

// BuildConversation wires the reservation tools, resolver, answerer and history
// stores from config.
func BuildConversation(ctx context.Context, cfg *appconfig.Config, deps ConversationDeps, logger *logging.Logger) (*Conversation, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	loc := ClinicLocation(cfg)

	var (
		repo      reservations.Repository
		directory reservations.Directory
	)
	if deps.Pool != nil {
		pg := reservations.NewPostgresRepository(deps.Pool)
		repo, directory = pg, pg
		logger.Info("reservations stored in postgres")
	} else {
		mem := reservations.NewMemoryStore(reservations.SeedDoctors())
		repo, directory = mem, mem
		logger.Warn("no DATABASE_URL configured; reservations kept in memory")
	}

	toolOpts := []tools.Option{
		tools.WithLogger(logger),
		tools.WithClinic(cfg.ClinicID, loc),
	}
	if deps.Redis != nil {
		toolOpts = append(toolOpts, tools.WithWaitBoard(tools.NewRedisWaitBoard(deps.Redis)))
	}
	if deps.Pool != nil {
		toolOpts = append(toolOpts, tools.WithLedger(events.NewProcessedStore(deps.Pool)))
	}
	if deps.Publisher != nil {
		toolOpts = append(toolOpts, tools.WithPublisher(deps.Publisher))
	}
	registry := tools.NewRegistry(logger, deps.Metrics)
	tools.NewReservationTools(repo, directory, toolOpts...).Register(registry)

	var history conversation.HistoryStore
	if tiered := buildHistory(cfg, deps, logger); tiered != nil {
		history = tiered
	}
	calendars := &holidayCalendars{
		timezone: strings.TrimSpace(cfg.ClinicTimezone),
		holidays: cfg.ClinicHolidays,
	}
	if store := BuildClinicStore(deps.Redis); store != nil {
		calendars.store = store
	}

	faqCalendar, err := calendars.Get(ctx, cfg.ClinicID)
	if err != nil {
		logger.Warn("clinic calendar unavailable at startup; answering hours from defaults", "error", err)
	}

	resolver := conversation.NewResolver(registry,
		conversation.WithLocation(loc),
		conversation.WithSupportPhone(cfg.SupportPhone),
		conversation.WithWindow(cfg.ResolverWindow),
		conversation.WithResolverLogger(logger),
		conversation.WithResolverMetrics(deps.Metrics),
	)

	service := conversation.NewChatService(conversation.ChatServiceConfig{
		Loader:       conversation.NewContextLoader(history, cfg.HistoryWindow, logger),
		Resolver:     resolver,
		Answerer:     conversation.NewFAQAnswerer(faqCalendar, cfg.SupportPhone),
		Turns:        history,
		Calendars:    calendars,
		ClinicID:     cfg.ClinicID,
		SupportPhone: cfg.SupportPhone,
		Logger:       logger,
		Metrics:      deps.Metrics,
	})

	return &Conversation{
		Service:   service,
		Directory: directory,
		Calendars: calendars,
		Registry:  registry,
		History:   history,
	}, nil
}

// buildHistory composes the Redis window and the SQL archive. It returns nil
// when neither is available.
func buildHistory(cfg *appconfig.Config, deps ConversationDeps, logger *logging.Logger) *conversation.TieredHistory {
	var recent, archive conversation.HistoryStore
	if deps.Redis != nil {
		recent = conversation.NewRedisTurnStore(deps.Redis, cfg.TurnTTL, 0)
	}
	switch {
	case deps.Archive != nil:
		archive = conversation.NewArchiveStore(deps.Archive)
	case deps.Dynamo != nil && strings.TrimSpace(cfg.TurnArchiveTable) != "":
		archive = conversation.NewDynamoTurnStore(deps.Dynamo, cfg.TurnArchiveTable, 0)
		logger.Info("conversation archive in dynamodb", "table", cfg.TurnArchiveTable)
	}
	if recent == nil && archive == nil {
		logger.Warn("no turn store configured; every message is treated as a new session")
		return nil
	}
	return conversation.NewTieredHistory(recent, archive, logger).WithMetrics(deps.Metrics)
}
