package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App struct {
		Port        string
		Debug       bool
		FrontendURL string
	}
	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		DBName   string
		SSLMode  string
	}
	Redis struct {
		Host     string
		Port     string
		Password string
		DB       int
	}
	NASA struct {
		APIKey     string
		BaseURL    string
		Timeout    time.Duration
		Retries    int
		RetryDelay time.Duration
	}
	Cache struct {
		// redis | database | memory
		Driver string
	}
	Workers struct {
		APODEnabled  bool
		NEOEnabled   bool
		MarsEnabled  bool
		APODInterval time.Duration
		NEOInterval  time.Duration
		MarsInterval time.Duration
		RunTimeout   time.Duration
	}
	Mars struct {
		Rovers   []string
		MaxPages int
	}
	Jobs struct {
		LockTTL      time.Duration
		QueueWorkers int
		QueueSize    int
		MaxAttempts  int
		RetryDelay   time.Duration
	}
	RateLimit struct {
		RequestsPerSecond int
		Burst             int
		// общий лимит на весь API, 0 отключает
		GlobalRequestsPerSecond int
		GlobalBurst             int
	}
	Log struct {
		Level  string
		Format string
	}
}

func Load() *Config {
	cfg := &Config{}

	// App
	cfg.App.Port = getEnv("PORT", "8080")
	cfg.App.Debug = getEnvAsBool("DEBUG", false)
	cfg.App.FrontendURL = getEnv("FRONTEND_URL", "http://localhost:3000")

	// DB
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.DBName = getEnv("DB_NAME", "skystream")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	// Redis
	cfg.Redis.Host = getEnv("REDIS_HOST", "localhost")
	cfg.Redis.Port = getEnv("REDIS_PORT", "6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", 0)

	// NASA
	cfg.NASA.APIKey = getEnv("NASA_API_KEY", "DEMO_KEY")
	cfg.NASA.BaseURL = getEnv("NASA_BASE_URL", "https://api.nasa.gov")
	cfg.NASA.Timeout = getEnvAsDuration("NASA_TIMEOUT", 15*time.Second)
	cfg.NASA.Retries = getEnvAsInt("NASA_RETRIES", 3)
	cfg.NASA.RetryDelay = getEnvAsDuration("NASA_RETRY_DELAY", 200*time.Millisecond)

	cfg.Cache.Driver = strings.ToLower(getEnv("CACHE_DRIVER", "redis"))

	// Workers
	cfg.Workers.APODEnabled = getEnvAsBool("APOD_ENABLED", true)
	cfg.Workers.NEOEnabled = getEnvAsBool("NEO_ENABLED", true)
	cfg.Workers.MarsEnabled = getEnvAsBool("MARS_ENABLED", true)
	cfg.Workers.APODInterval = getEnvAsDuration("WORKER_APOD_INTERVAL", 24*time.Hour)
	cfg.Workers.NEOInterval = getEnvAsDuration("WORKER_NEO_INTERVAL", 12*time.Hour)
	cfg.Workers.MarsInterval = getEnvAsDuration("WORKER_MARS_INTERVAL", 24*time.Hour)
	cfg.Workers.RunTimeout = getEnvAsDuration("WORKER_RUN_TIMEOUT", 20*time.Minute)

	// Mars
	cfg.Mars.Rovers = getEnvAsList("MARS_ROVERS", []string{"curiosity", "perseverance"})
	cfg.Mars.MaxPages = getEnvAsInt("MARS_MAX_PAGES", 50)

	// Jobs
	cfg.Jobs.LockTTL = getEnvAsDuration("JOB_LOCK_TTL", 30*time.Minute)
	cfg.Jobs.QueueWorkers = getEnvAsInt("QUEUE_WORKERS", 2)
	cfg.Jobs.QueueSize = getEnvAsInt("QUEUE_SIZE", 64)
	cfg.Jobs.MaxAttempts = getEnvAsInt("QUEUE_MAX_ATTEMPTS", 3)
	cfg.Jobs.RetryDelay = getEnvAsDuration("QUEUE_RETRY_DELAY", 30*time.Second)

	// Rate Limit
	cfg.RateLimit.RequestsPerSecond = getEnvAsInt("RATE_LIMIT_RPS", 10)
	cfg.RateLimit.Burst = getEnvAsInt("RATE_LIMIT_BURST", 20)
	cfg.RateLimit.GlobalRequestsPerSecond = getEnvAsInt("RATE_LIMIT_GLOBAL_RPS", 100)
	cfg.RateLimit.GlobalBurst = getEnvAsInt("RATE_LIMIT_GLOBAL_BURST", 200)

	// Log
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")
	if cfg.App.Debug && os.Getenv("LOG_FORMAT") == "" {
		cfg.Log.Format = "console"
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if dur, err := time.ParseDuration(value); err == nil {
			return dur
		}
	}
	return defaultValue
}

// getEnvAsList разбирает значения через запятую, пустые элементы отбрасываются
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(strings.ToLower(part)); part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
