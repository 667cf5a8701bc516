package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/artlix/backend/internal/jobbot/classifier"
	"github.com/artlix/backend/internal/jobbot/config"
	"github.com/artlix/backend/internal/jobbot/db"
	"github.com/artlix/backend/internal/jobbot/dedup"
	"github.com/artlix/backend/internal/jobbot/directory"
	"github.com/artlix/backend/internal/jobbot/events"
	"github.com/artlix/backend/internal/jobbot/handlers"
	"github.com/artlix/backend/internal/jobbot/intake"
	"github.com/artlix/backend/internal/jobbot/metrics"
	"github.com/artlix/backend/internal/jobbot/router"
	"github.com/artlix/backend/internal/jobbot/telegram"
	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	logger := initLogger()
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	cfg, err := config.Load("")
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("failed to close database", zap.Error(err))
		}
	}()

	producer, closeEvents := initEvents(ctx, cfg, logger)
	defer closeEvents()

	guard, closeGuard := initDedup(ctx, cfg, logger)
	defer closeGuard()

	replier, err := telegram.NewBotReplier(cfg.TelegramBotToken, logger)
	if err != nil {
		logger.Fatal("failed to initialize Telegram bot", zap.Error(err))
	}

	directorySvc := directory.NewService(repo, producer, logger)
	intakeSvc := intake.NewService(
		classifier.New(classifier.WithMinLength(cfg.ClassifierMinLength)),
		repo,
		producer,
		logger,
	)
	botRouter := router.New(directorySvc, intakeSvc, replier, metrics.NewMetrics(prometheus.DefaultRegisterer), logger)

	webhook := telegram.NewWebhookHandler(
		botRouter,
		guard,
		telegram.NewChatLimiter(cfg.ChatRateLimit, cfg.ChatRateBurst),
		cfg.TelegramWebhookSecret,
		logger,
	)

	server := handlers.NewServer(cfg.GRPCPort, cfg.HTTPPort, logger)
	if err := server.RegisterHTTPRoutes(handlers.Routes{
		Webhook:  webhook,
		Operator: handlers.NewOperatorHandler(directorySvc, intakeSvc, logger),
		Metrics:  promhttp.Handler(),
	}, cfg.JWTSecret); err != nil {
		logger.Fatal("Failed to register HTTP routes", zap.Error(err))
	}

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start servers", zap.Error(err))
		}
	}()

	waitForShutdown(server, logger)
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

// initDatabase connects with exponential backoff so the bot survives a
// database that starts after it.
func initDatabase(cfg *config.Config) (*db.Repository, error) {
	dbConf := &db.Config{
		Driver:   cfg.DBDriver,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}

	var repo *db.Repository
	err := backoff.Retry(func() error {
		var err error
		repo, err = db.NewRepository(dbConf)
		return err
	}, backoff.NewExponentialBackOff())
	return repo, err
}

// initEvents builds the event fan-out. With Kafka configured, job events
// reach the automation webhook through a consumer relay; without it the
// webhook is called directly.
func initEvents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (events.Multi, func()) {
	var (
		producers events.Multi
		closers   []func()
	)

	var notifier *events.WebhookNotifier
	if cfg.AutomationBaseURL != "" {
		notifier = events.NewWebhookNotifier(cfg.AutomationBaseURL, cfg.AutomationSecret, logger)
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
		if err != nil {
			logger.Fatal("failed to initialize Kafka producer", zap.Error(err))
		}
		producers = append(producers, producer)
		closers = append(closers, producer.Close)

		if notifier != nil {
			relay := events.NewConsumer(cfg.KafkaBrokers, cfg.RelayGroupID, cfg.Topic, logger)
			relay.RegisterHandler(notifier.Deliver)
			relay.Start(ctx)
			closers = append(closers, relay.Close)
		}
	} else if notifier != nil {
		producers = append(producers, notifier)
	}

	if len(producers) == 0 {
		logger.Warn("No event sinks configured, events are discarded")
	}

	return producers, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}

// initDedup falls back to no deduplication when Redis is not configured or
// unreachable.
func initDedup(ctx context.Context, cfg *config.Config, logger *zap.Logger) (dedup.Checker, func()) {
	if cfg.RedisAddr == "" {
		return dedup.NopGuard{}, func() {}
	}
	guard, client, err := dedup.NewRedisGuard(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
	if err != nil {
		logger.Warn("Redis unavailable, update deduplication disabled", zap.Error(err))
		return dedup.NopGuard{}, func() {}
	}
	return guard, func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close Redis client", zap.Error(err))
		}
	}
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then shuts down servers.
func waitForShutdown(server *handlers.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Stop()
	logger.Info("Servers stopped properly")
}
