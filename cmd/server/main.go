package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"pitline/internal/api"
	"pitline/internal/capacity"
	"pitline/internal/config"
	"pitline/internal/database"
	"pitline/internal/domain"
	"pitline/internal/events"
	"pitline/internal/export"
	"pitline/internal/logging"
	"pitline/internal/metrics"
	"pitline/internal/notify"
	"pitline/internal/repository"
	"pitline/internal/service"
	"pitline/internal/worker"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}
	logger := baseLogger.With().Str("component", "server").Logger()

	loc := cfg.Booking.Location()
	db, err := database.NewDB(cfg.Database.Path, loc, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer repository.Close(redisClient)
	}

	limiter := initLimiter(redisClient, &logger)
	eventBus := events.NewEventBus()

	initNotifyWorker(ctx, cfg, db, redisClient, eventBus, &logger)

	policy := capacity.NewPolicy(cfg.Booking.MaxPerDay)
	rateWindow := time.Duration(cfg.Booking.RateLimitWindow) * time.Second

	appointments := service.NewAppointmentService(db, eventBus, limiter, policy, loc, cfg.Booking.RateLimitRequests, rateWindow, &logger)
	reports := service.NewReportService(db, cfg.Booking.MaxPerDay, loc, &logger)
	blackouts := service.NewBlackoutManager(db, eventBus, loc, &logger)
	catalog := service.NewCatalog(db, &logger)
	exporter := export.NewExporter(db, cfg.Exports.Path, loc, &logger)

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	if cfg.Monitoring.PrometheusEnabled {
		go serveMetrics(cfg.Monitoring.PrometheusPort, &logger)
	}

	apiServer := api.NewHTTPServer(cfg.API, appointments, reports, blackouts, catalog, exporter, &logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return apiServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		logger.Info().Msg("redis is not configured, using in-memory queues")
		return nil
	}

	client, err := repository.NewRedisClient(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, using in-memory queues")
		return nil
	}
	logger.Info().Str("address", cfg.Redis.Address).Msg("redis connected")
	return client
}

func initLimiter(redisClient *redis.Client, logger *zerolog.Logger) domain.RateLimiter {
	memory := repository.NewMemoryLimiter()
	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverLimiter(repository.NewRedisLimiter(redisClient, "ratelimit"), memory, logger)
}

func initNotifyWorker(
	ctx context.Context,
	cfg *config.Config,
	db *database.DB,
	redisClient *redis.Client,
	eventBus *events.EventBus,
	logger *zerolog.Logger,
) {
	if !cfg.Telegram.Enabled {
		logger.Info().Msg("telegram notifications disabled")
		return
	}

	bot, err := notify.NewBot(cfg.Telegram.BotToken, cfg.Telegram.Debug)
	if err != nil {
		logger.Error().Err(err).Msg("telegram init failed, notifications disabled")
		return
	}

	sink := notify.NewTelegramSink(bot, logger)
	retryPolicy := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
	notifyWorker := worker.NewNotifyWorker(db, sink, cfg.Telegram.ManagerChatIDs, redisClient, retryPolicy, logger)
	notifyWorker.BindTo(eventBus)
	go notifyWorker.Start(ctx)
}

func serveMetrics(port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	logger.Info().Str("addr", addr).Msg("metrics listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
