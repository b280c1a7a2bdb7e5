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

	"parkhive/internal/api"
	"parkhive/internal/config"
	"parkhive/internal/database"
	"parkhive/internal/domain"
	"parkhive/internal/events"
	"parkhive/internal/export"
	"parkhive/internal/google"
	"parkhive/internal/logging"
	"parkhive/internal/metrics"
	"parkhive/internal/models"
	"parkhive/internal/notify"
	"parkhive/internal/repository"
	"parkhive/internal/service"
	"parkhive/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	spaces, err := loadSpaces(cfg, &logger)
	if err != nil {
		return err
	}

	db, err := initDatabase(ctx, cfg, spaces, &logger)
	if err != nil {
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
	cacheRepo := initCache(redisClient, &logger)

	eventBus := events.NewEventBus()

	sheetsService := initGoogleSheets(cfg, &logger)

	var syncWorker domain.SyncWorker
	if sheetsService != nil {
		sheetsWorker := worker.NewSheetsWorker(db, sheetsService, redisClient, worker.RetryPolicy{}, &logger)
		go sheetsWorker.Start(ctx)
		syncWorker = sheetsWorker
	}

	startTelegramNotifier(ctx, cfg, db, eventBus, &logger)

	spaceService := service.NewSpaceService(db, cacheRepo, cfg.Search.DefaultRadiusKm, cfg.Search.MaxResults, &logger)
	requestService := service.NewRequestService(db, cacheRepo, eventBus, syncWorker, &logger)
	walletService := service.NewWalletService(db, eventBus, syncWorker, &logger)
	userService := service.NewUserService(db, &logger)

	exporter := export.NewExporter(db, cfg.Exports.Path, &logger)
	httpServer := api.NewHTTPServer(&cfg.API, db, spaceService, requestService, walletService, userService, cacheRepo, &logger).
		WithExporter(exporter)

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

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

// loadSpaces reads the seed catalog. A missing file is fine when the
// config itself carries the spaces, or when owners register everything
// through the API.
func loadSpaces(cfg *config.Config, logger *zerolog.Logger) ([]models.ParkingSpace, error) {
	spacesPath := os.Getenv("SPACES_PATH")
	if spacesPath == "" {
		spacesPath = "configs/spaces.yaml"
	}

	spacesData, err := os.ReadFile(spacesPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Error().Err(err).Str("spaces_path", spacesPath).Msg("read spaces")
			return nil, err
		}
		if len(cfg.Spaces) > 0 {
			return cfg.Spaces, nil
		}
		logger.Warn().Str("spaces_path", spacesPath).Msg("no seed spaces found, starting with empty catalog")
		return nil, nil
	}

	var spacesConfig struct {
		Spaces []models.ParkingSpace `yaml:"spaces"`
	}
	if err := yaml.Unmarshal(spacesData, &spacesConfig); err != nil {
		logger.Error().Err(err).Str("spaces_path", spacesPath).Msg("parse spaces")
		return nil, err
	}

	return spacesConfig.Spaces, nil
}

func initDatabase(ctx context.Context, cfg *config.Config, spaces []models.ParkingSpace, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	if len(spaces) > 0 {
		if err := config.ValidateSpaces(spaces); err != nil {
			db.Close()
			logger.Error().Err(err).Msg("validate seed spaces")
			return nil, err
		}
		if err := db.SyncSpaces(ctx, spaces); err != nil {
			db.Close()
			logger.Error().Err(err).Msg("sync seed spaces")
			return nil, err
		}
		logger.Info().Int("count", len(spaces)).Msg("seed spaces synced")
	}

	return db, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initCache(redisClient *redis.Client, logger *zerolog.Logger) domain.CacheRepository {
	memory := repository.NewMemoryCacheRepository()
	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverCacheRepository(repository.NewRedisCacheRepository(redisClient), memory, logger)
}

func initGoogleSheets(cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.LedgerSpreadSheetID == "" {
		return nil
	}

	sheetsService, err := google.NewSimpleSheetsService(
		cfg.Google.GoogleCredentialsFile,
		cfg.Google.LedgerSpreadSheetID,
	)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}

	logger.Info().Msg("google sheets connected")
	return sheetsService
}

func startTelegramNotifier(ctx context.Context, cfg *config.Config, db *database.DB, bus *events.EventBus, logger *zerolog.Logger) {
	if !cfg.Telegram.Enabled || cfg.Telegram.BotToken == "" {
		return
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
		return
	}
	bot.Debug = cfg.Telegram.Debug

	notifier := notify.NewTelegramNotifier(db, bot, logger)
	notifier.Subscribe(ctx, bus)
	logger.Info().Str("bot", bot.Self.UserName).Msg("telegram notifications enabled")
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
