package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"seminar/internal/api"
	"seminar/internal/config"
	"seminar/internal/database"
	"seminar/internal/domain"
	"seminar/internal/events"
	"seminar/internal/export"
	"seminar/internal/logging"
	"seminar/internal/metrics"
	"seminar/internal/models"
	"seminar/internal/repository"
	"seminar/internal/service"
	"seminar/internal/storage"

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

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	accessLog, accessCloser, err := logging.NewAccessLog(cfg.AccessLog.Path)
	if err != nil {
		return err
	}
	defer (func() { _ = accessCloser.Close() })()

	db, err := initDatabase(cfg, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backupLogger := logger.With().Str("component", "backup").Logger()
	go database.NewBackupService(db, cfg.Backup, &backupLogger).Start(ctx)

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	cache := initRoomCache(cfg, redisClient, &logger)

	images, err := initImageStore(cfg, &logger)
	if err != nil {
		return err
	}

	eventLogger := logger.With().Str("component", "events").Logger()
	bus := events.NewEventBus()
	bus.SubscribeAll(events.ReservationEvents, events.LogHandler(&eventLogger))
	bus.SubscribeAll(events.RoomEvents, events.LogHandler(&eventLogger))

	serviceLogger := logger.With().Str("component", "service").Logger()
	rooms := service.NewRoomService(db, images, cache, bus, cfg.Storage.ReplaceImagesOnUpdate, &serviceLogger)
	reservations := service.NewReservationService(db, bus, cfg.Reservation, &serviceLogger)
	queries := service.NewQueryService(db, loc)
	admin := service.NewAdminService(cfg.Admin.Password, export.NewAccessLogExporter(cfg.AccessLog.Path, loc, &serviceLogger))

	if err := seedRooms(ctx, rooms, cfg, &logger); err != nil {
		return err
	}

	httpLogger := logger.With().Str("component", "http").Logger()
	httpServer := api.NewHTTPServer(cfg.API, cfg.Admin, api.Deps{
		Reservations: reservations,
		Queries:      queries,
		Rooms:        rooms,
		Admin:        admin,
		Store:        db,
		Location:     loc,
		Logger:       &httpLogger,
		AccessLog:    accessLog,
	})

	startMetrics(ctx, cfg, &logger)

	return startServers(ctx, httpServer, cfg, &logger)
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

// loadRooms reads the seed room list. A missing file means no seed.
func loadRooms(cfg *config.Config, logger *zerolog.Logger) ([]*models.Room, error) {
	roomsPath := os.Getenv("ROOMS_PATH")
	if roomsPath == "" {
		roomsPath = cfg.Seed.RoomsPath
	}
	if roomsPath == "" {
		roomsPath = "configs/rooms.yaml"
	}

	roomsData, err := os.ReadFile(roomsPath)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info().Str("rooms_path", roomsPath).Msg("no seed rooms file")
		return nil, nil
	}
	if err != nil {
		logger.Error().Err(err).Str("rooms_path", roomsPath).Msg("read rooms")
		return nil, err
	}

	var roomsConfig struct {
		Rooms []*models.Room `yaml:"rooms"`
	}
	if err := yaml.Unmarshal(roomsData, &roomsConfig); err != nil {
		logger.Error().Err(err).Str("rooms_path", roomsPath).Msg("parse rooms")
		return nil, err
	}

	return roomsConfig.Rooms, nil
}

func seedRooms(ctx context.Context, rooms *service.RoomService, cfg *config.Config, logger *zerolog.Logger) error {
	seed, err := loadRooms(cfg, logger)
	if err != nil {
		return err
	}

	n, err := rooms.SeedIfEmpty(ctx, seed)
	if err != nil {
		logger.Error().Err(err).Msg("seed rooms")
		return err
	}
	if n > 0 {
		logger.Info().Int("rooms", n).Msg("seeded room directory")
	}
	return nil
}

func initDatabase(cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	dbLogger := logger.With().Str("component", "database").Logger()
	db, err := database.NewDB(cfg.Database.Path, &dbLogger,
		database.WithQueryTimeout(cfg.Database.QueryTimeout),
		database.WithBusyTimeout(cfg.Database.BusyTimeout),
	)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}
	return db, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initRoomCache prefers Redis with an in-process fallback.
func initRoomCache(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.RoomCache {
	memory := repository.NewMemoryRoomCache(cfg.Redis.CacheTTL)
	if redisClient == nil {
		return memory
	}

	cacheLogger := logger.With().Str("component", "room-cache").Logger()
	return repository.NewFailoverRoomCache(repository.NewRedisRoomCache(redisClient, cfg.Redis.CacheTTL), memory, &cacheLogger)
}

func initImageStore(cfg *config.Config, logger *zerolog.Logger) (domain.ImageStore, error) {
	switch cfg.Storage.Provider {
	case "cloudinary":
		storageLogger := logger.With().Str("component", "storage").Logger()
		store, err := storage.NewCloudinaryStore(cfg.Storage.Cloudinary, &storageLogger)
		if err != nil {
			logger.Error().Err(err).Msg("init cloudinary")
			return nil, err
		}
		logger.Info().Str("cloud", cfg.Storage.Cloudinary.CloudName).Msg("cloudinary image store")
		return store, nil
	default:
		logger.Warn().Msg("images are kept in memory and lost on restart")
		return storage.NewMemoryStore(cfg.Storage.PublicBaseURL), nil
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startServers(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- err
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case serveErr = <-errCh:
		logger.Error().Err(serveErr).Msg("http server stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return serveErr
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
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
