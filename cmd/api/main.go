package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotelsite/internal/api"
	"hotelsite/internal/config"
	"hotelsite/internal/database"
	"hotelsite/internal/domain"
	"hotelsite/internal/events"
	"hotelsite/internal/google"
	"hotelsite/internal/logging"
	"hotelsite/internal/metrics"
	"hotelsite/internal/repository"
	"hotelsite/internal/service"
	"hotelsite/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	rooms := service.NewRoomService(db, logging.Component(logger, "rooms"))
	if err := seedRooms(ctx, rooms, cfg.Booking.RoomsFile, logger); err != nil {
		return err
	}

	redisClient := initRedis(ctx, cfg, logger)
	defer func() { _ = repository.Close(redisClient) }()
	sessions := initSessions(cfg, redisClient, logger)

	eventBus := events.NewEventBus()
	if publisher := initRabbitMQ(cfg, logger); publisher != nil {
		defer publisher.Close()
		publisher.Attach(eventBus, events.EventBookingCreated, events.EventBookingCancelled, events.EventUserDeleted)
	}

	var syncWorker domain.SyncWorker
	if sheets := initGoogleSheets(ctx, cfg, logger); sheets != nil {
		w := worker.NewSheetsWorker(db, sheets, redisClient, worker.RetryPolicy{}, logging.Component(logger, "sheets-worker"))
		go w.Start(ctx)
		syncWorker = w
	}

	if cfg.Backup.Enabled {
		backups := database.NewBackupService(db, cfg.Backup, logging.Component(logger, "backup"))
		go backups.Start(ctx)
	}

	svc := api.Services{
		Bookings: service.NewBookingService(db, eventBus, syncWorker, cfg.Booking, logging.Component(logger, "bookings")),
		Rooms:    rooms,
		Users:    service.NewUserService(db, sessions, eventBus, cfg, logging.Component(logger, "users")),
		Hotels:   service.NewHotelService(db, cfg.Uploads, logging.Component(logger, "hotels")),
	}
	httpServer := api.NewHTTPServer(cfg.API, cfg.Uploads, svc, db, logging.Component(logger, "http"))

	startMetrics(ctx, cfg, logger)

	return serve(ctx, httpServer, cfg, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logging.Component(baseLogger, "api-main"), closer, nil
}

func seedRooms(ctx context.Context, rooms *service.RoomService, path string, logger *zerolog.Logger) error {
	if path == "" {
		return nil
	}
	catalog, err := config.LoadRooms(path)
	if err != nil {
		logger.Error().Err(err).Str("rooms_file", path).Msg("load rooms")
		return err
	}
	// Existing rooms are left alone; hotelctl seed-rooms rewrites them.
	if err := rooms.SeedRooms(ctx, catalog, false); err != nil {
		logger.Error().Err(err).Str("rooms_file", path).Msg("seed rooms")
		return err
	}
	return nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = repository.Close(client)
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

// initSessions prefers Redis and falls back to process memory when Redis is
// missing or goes away.
func initSessions(cfg *config.Config, client *redis.Client, logger *zerolog.Logger) domain.SessionRepository {
	memory := repository.NewMemorySessionRepository()
	if client == nil {
		logger.Warn().Msg("sessions are kept in memory")
		return memory
	}
	primary := repository.NewRedisSessionRepository(client, cfg.API.Session.TTL)
	return repository.NewFailoverSessionRepository(primary, memory, logging.Component(logger, "sessions"))
}

func initRabbitMQ(cfg *config.Config, logger *zerolog.Logger) *events.AMQPPublisher {
	if cfg.RabbitMQ.URL == "" {
		return nil
	}
	publisher, err := events.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logging.Component(logger, "amqp"))
	if err != nil {
		logger.Warn().Err(err).Msg("rabbitmq init failed, events stay in-process")
		return nil
	}
	logger.Info().Str("exchange", cfg.RabbitMQ.Exchange).Msg("rabbitmq connected")
	return publisher
}

func initGoogleSheets(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if !cfg.Google.Enabled() {
		return nil
	}

	sheets, err := google.NewSheetsService(
		ctx,
		cfg.Google.GoogleCredentialsFile,
		cfg.Google.BookingSpreadSheetID,
		cfg.Google.BookingSheetName,
		logging.Component(logger, "sheets"),
	)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}

	logger.Info().Msg("google sheets connected")
	return sheets
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func serve(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			return err
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown signal received")

	timeout := cfg.API.HTTP.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
