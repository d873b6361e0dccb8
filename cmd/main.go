package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skystream/internal/cache"
	"skystream/internal/clients"
	"skystream/internal/config"
	"skystream/internal/handlers"
	"skystream/internal/logging"
	"skystream/internal/repository"
	"skystream/internal/service"
	"skystream/internal/worker"
	"skystream/pkg/database"
	redispkg "skystream/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// Загрузка .env
	envErr := godotenv.Load()

	// Загрузка конфигурации
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if envErr != nil {
		logging.Info().Msg("No .env file found, using environment variables")
	}
	logging.Info().Str("cache_driver", cfg.Cache.Driver).Bool("debug", cfg.App.Debug).Msg("=== SkyStream backend starting ===")

	// Подключение к PostgreSQL
	db, err := database.Connect(cfg.DB, cfg.App.Debug)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	if err := database.Migrate(db); err != nil {
		logging.Fatal().Err(err).Msg("Failed to migrate database")
	}

	// Кэш ответов NASA и блокировки задач
	store, locker, redisClient := buildCache(cfg, db)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Инициализация репозиториев
	apodRepo := repository.NewAPODRepository(db)
	neoRepo := repository.NewNEORepository(db)
	marsRepo := repository.NewMarsImageRepository(db)
	failedRepo := repository.NewFailedJobRepository(db)

	nasaClient := clients.NewNASAClient(cfg.NASA, store)

	// Инициализация сервисов
	apodService := service.NewAPODService(nasaClient, apodRepo, locker, cfg.Jobs.LockTTL)
	neoService := service.NewNEOService(nasaClient, neoRepo, locker, cfg.Jobs.LockTTL)
	marsService := service.NewMarsService(nasaClient, marsRepo, locker, service.MarsConfig{
		Rovers:   cfg.Mars.Rovers,
		MaxPages: cfg.Mars.MaxPages,
		LockTTL:  cfg.Jobs.LockTTL,
	})
	statsService := service.NewStatsService(apodRepo, neoRepo, marsRepo, failedRepo)

	queue := worker.NewQueue(worker.QueueConfig{
		Workers:     cfg.Jobs.QueueWorkers,
		Size:        cfg.Jobs.QueueSize,
		MaxAttempts: cfg.Jobs.MaxAttempts,
		RetryDelay:  cfg.Jobs.RetryDelay,
		JobTimeout:  cfg.Workers.RunTimeout,
	}, failedRepo)

	// Инициализация воркеров (фоновые задачи)
	scheduler := worker.NewScheduler()

	if cfg.Workers.APODEnabled {
		scheduler.AddWorker(worker.NewPeriodicWorker("apod", cfg.Workers.APODInterval, cfg.Workers.RunTimeout,
			worker.EnqueueEach(queue, func() worker.Job { return worker.APODJob(apodService, "") })))
		logging.Info().Dur("interval", cfg.Workers.APODInterval).Msg("APOD worker enabled")
	}

	if cfg.Workers.NEOEnabled {
		scheduler.AddWorker(worker.NewPeriodicWorker("neo", cfg.Workers.NEOInterval, cfg.Workers.RunTimeout,
			worker.EnqueueEach(queue, func() worker.Job { return worker.NEOJob(neoService, "", "") })))
		logging.Info().Dur("interval", cfg.Workers.NEOInterval).Msg("NEO worker enabled")
	}

	if cfg.Workers.MarsEnabled {
		scheduler.AddWorker(worker.NewPeriodicWorker("mars-dispatch", cfg.Workers.MarsInterval, cfg.Workers.RunTimeout,
			worker.MarsDispatch(queue, marsService)))
		logging.Info().Dur("interval", cfg.Workers.MarsInterval).Strs("rovers", cfg.Mars.Rovers).Msg("Mars dispatch worker enabled")
	}

	if cfg.Cache.Driver == "database" {
		scheduler.AddWorker(worker.NewPeriodicWorker("cache-cleanup", time.Hour, time.Minute, worker.CacheCleanup(db)))
	}

	// очередь останавливается последней, после тех, кто в неё пишет
	scheduler.AddWorker(queue)

	// Запускаем воркеры в фоне
	scheduler.Start()
	defer scheduler.Stop()

	// Инициализация Gin
	if cfg.App.Debug {
		gin.SetMode(gin.DebugMode)
		logging.Info().Msg("Running in DEBUG mode")
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Debug:       cfg.App.Debug,
		FrontendURL: cfg.App.FrontendURL,
		RateLimit:   cfg.RateLimit.RequestsPerSecond,
		Burst:       cfg.RateLimit.Burst,
		GlobalRate:  cfg.RateLimit.GlobalRequestsPerSecond,
		GlobalBurst: cfg.RateLimit.GlobalBurst,
	}, handlers.Handlers{
		Mood:   handlers.NewMoodHandler(apodService),
		Impact: handlers.NewImpactHandler(neoService),
		Mars:   handlers.NewMarsHandler(marsService),
		System: handlers.NewSystemHandler(db, redisClient, statsService, handlers.WorkerFlags{
			APOD: cfg.Workers.APODEnabled,
			NEO:  cfg.Workers.NEOEnabled,
			Mars: cfg.Workers.MarsEnabled,
		}),
		Refresh: handlers.NewRefreshHandler(apodService, neoService, marsService, worker.EnqueueMars(queue, marsService)),
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logging.Info().Str("addr", server.Addr).Msg("Server starting, API available under /api")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	<-quit
	logging.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("Server forced to shutdown")
	}

	logging.Info().Msg("Server exited properly")
}

// buildCache выбирает хранилище кэша по CACHE_DRIVER. Redis-клиент
// возвращается только для драйвера redis.
func buildCache(cfg *config.Config, db *gorm.DB) (cache.Store, cache.Locker, *redis.Client) {
	switch cfg.Cache.Driver {
	case "memory":
		return cache.NewMemoryStore(), cache.NewMemoryLocker(), nil
	case "database":
		return repository.NewCacheRepository(db), cache.NewMemoryLocker(), nil
	case "redis":
	default:
		logging.Warn().Str("driver", cfg.Cache.Driver).Msg("Unknown cache driver, using redis")
	}

	// Подключение к Redis
	client, err := redispkg.Connect(cfg.Redis)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	return cache.NewRedisStore(client), cache.NewRedisLocker(client), client
}
