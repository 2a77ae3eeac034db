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

	"riverside/internal/api"
	"riverside/internal/catalog"
	"riverside/internal/config"
	"riverside/internal/database"
	"riverside/internal/desk"
	"riverside/internal/domain"
	"riverside/internal/events"
	"riverside/internal/export"
	"riverside/internal/logging"
	"riverside/internal/metrics"
	"riverside/internal/models"
	"riverside/internal/repository"
	"riverside/internal/service"
	"riverside/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
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

	cat, err := loadCatalog(&logger)
	if err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	sessionRepo := buildSessionRepo(cfg, redisClient, &logger)

	reservationDesk := desk.New(
		db,
		time.Duration(cfg.Desk.ConfirmDelayMS)*time.Millisecond,
		cfg.Desk.RoomUnits,
		logger.With().Str("component", "desk").Logger(),
	)

	bus := events.NewEventBus()

	ledger := export.NewLedger(cfg.Exports.Path, &logger)
	exportWorker := worker.NewExportWorker(ledger, redisClient, worker.RetryPolicy{}, nil)
	bus.Subscribe(events.EventReservationConfirmed, exportWorker.ConfirmationHandler(reservationDesk))

	sessions := service.NewSessionService(sessionRepo, reservationDesk, bus, cat, &logger)

	httpServer := api.NewHTTPServer(cfg, sessions, cat, db, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go exportWorker.Start(ctx)

	startMetrics(ctx, cfg, &logger)

	return startServer(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func loadCatalog(logger *zerolog.Logger) (*catalog.Catalog, error) {
	roomsPath := os.Getenv("ROOMS_PATH")
	if roomsPath == "" {
		roomsPath = "configs/rooms.yaml"
	}
	roomsData, err := os.ReadFile(roomsPath)
	if err != nil {
		logger.Error().Err(err).Str("rooms_path", roomsPath).Msg("read rooms")
		return nil, err
	}

	var roomsConfig struct {
		Rooms      []models.Room             `yaml:"rooms"`
		Extras     []models.Extra            `yaml:"extras"`
		Categories []models.RoomCategory     `yaml:"categories"`
		Amenities  map[string]models.Amenity `yaml:"amenities"`
	}
	if err := yaml.Unmarshal(roomsData, &roomsConfig); err != nil {
		logger.Error().Err(err).Str("rooms_path", roomsPath).Msg("parse rooms")
		return nil, err
	}

	if err := config.ValidateRooms(roomsConfig.Rooms); err != nil {
		logger.Error().Err(err).Str("rooms_path", roomsPath).Msg("validate rooms")
		return nil, err
	}

	cat, err := catalog.New(roomsConfig.Rooms, roomsConfig.Extras, roomsConfig.Categories, roomsConfig.Amenities)
	if err != nil {
		logger.Error().Err(err).Str("rooms_path", roomsPath).Msg("build catalog")
		return nil, err
	}

	logger.Info().Int("rooms", len(roomsConfig.Rooms)).Int("extras", len(roomsConfig.Extras)).Msg("catalog loaded")
	return cat, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)

	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// buildSessionRepo prefers redis with an in-memory fallback behind the
// failover wrapper; without redis the memory repository serves alone.
func buildSessionRepo(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.SessionRepository {
	ttl := time.Duration(cfg.Sessions.TTLSeconds) * time.Second
	memoryRepo := repository.NewMemorySessionRepository(ttl)

	if redisClient == nil {
		return memoryRepo
	}

	redisRepo := repository.NewRedisSessionRepository(redisClient, ttl)
	return repository.NewFailoverSessionRepository(redisRepo, memoryRepo, logger)
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

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
