package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/reservation-dialogue/cmd/mainconfig"
	"github.com/wolfman30/reservation-dialogue/internal/api/router"
	"github.com/wolfman30/reservation-dialogue/internal/app/bootstrap"
	"github.com/wolfman30/reservation-dialogue/internal/clinic"
	appconfig "github.com/wolfman30/reservation-dialogue/internal/config"
	"github.com/wolfman30/reservation-dialogue/internal/conversation"
	httpmiddleware "github.com/wolfman30/reservation-dialogue/internal/http/middleware"
	"github.com/wolfman30/reservation-dialogue/internal/observability/metrics"
	"github.com/wolfman30/reservation-dialogue/internal/reservations"
	"github.com/wolfman30/reservation-dialogue/pkg/logging"
)

func main() {
	// Local development reads a .env file; deployed environments set variables directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting reservation dialogue API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"clinic_id", cfg.ClinicID,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	pool, err := bootstrap.BuildPostgresPool(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	}

	archive, err := bootstrap.BuildArchiveDB(cfg, logger)
	if err != nil {
		logger.Error("failed to open conversation archive", "error", err)
		os.Exit(1)
	}
	if archive != nil {
		defer func() { _ = archive.Close() }()
	}

	sqsClient, err := mainconfig.NewSQSClient(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	dynamoClient, err := mainconfig.NewDynamoClient(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	publisher, deliverer := bootstrap.BuildEventPublisher(cfg, pool, sqsClient, logger)
	if deliverer != nil && cfg.OutboxInlineDelivery {
		go deliverer.Run(ctx)
	}

	metricsHandler, dialogueMetrics := setupMetrics()

	conv, err := bootstrap.BuildConversation(ctx, cfg, bootstrap.ConversationDeps{
		Redis:     redisClient,
		Pool:      pool,
		Archive:   archive,
		Dynamo:    dynamoClient,
		Publisher: publisher,
		Metrics:   dialogueMetrics,
	}, logger)
	if err != nil {
		logger.Error("failed to build conversation service", "error", err)
		os.Exit(1)
	}

	r := buildRouter(cfg, conv, redisClient, metricsHandler, healthChecks(redisClient, pool, archive), logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func setupMetrics() (http.Handler, *metrics.DialogueMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	dialogueMetrics := metrics.NewDialogueMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), dialogueMetrics
}

func healthChecks(redisClient *redis.Client, pool *pgxpool.Pool, archive *sql.DB) map[string]router.HealthCheck {
	checks := map[string]router.HealthCheck{}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	if pool != nil {
		checks["postgres"] = pool.Ping
	}
	if archive != nil {
		checks["archive"] = archive.PingContext
	}
	return checks
}

func buildRouter(cfg *appconfig.Config, conv *bootstrap.Conversation, redisClient *redis.Client, metricsHandler http.Handler, checks map[string]router.HealthCheck, logger *logging.Logger) http.Handler {
	routerCfg := &router.Config{
		Logger:             logger,
		ChatHandler:        conversation.NewHandler(conv.Service, logger),
		OptionsHandler:     reservations.NewOptionsHandler(conv.Directory, logger),
		MetricsHandler:     metricsHandler,
		RateLimiter:        httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		PatientAuthSecret:  cfg.PatientJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		HealthChecks:       checks,
	}
	if store := bootstrap.BuildClinicStore(redisClient); store != nil {
		routerCfg.ClinicHandler = clinic.NewHandler(store, logger)
	}
	if conv.History != nil {
		routerCfg.TranscriptHandler = conversation.NewTranscriptHandler(conv.History, logger)
	}
	return router.New(routerCfg)
}
