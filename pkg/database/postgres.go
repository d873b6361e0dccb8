package database

import (
	"fmt"
	"time"

	"skystream/internal/logging"
	"skystream/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func Connect(config Config, debug bool) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode,
	)

	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// Настройка пула соединений
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logging.Info().Str("host", config.Host).Str("db", config.DBName).Msg("Database connected successfully")
	return db, nil
}

// Migrate создаёт таблицы и индексы. SQL индексов переносим между PostgreSQL и SQLite.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.APODMood{},
		&models.NeowsObject{},
		&models.MarsImage{},
		&models.CacheEntry{},
		&models.FailedJob{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logging.Info().Msg("Database migration completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// /impact/nearby: окно по дате сближения + сортировка по дистанции
		"CREATE INDEX IF NOT EXISTS idx_neows_objects_window ON neows_objects(close_approach_date, miss_distance_km)",
		// /mars/photos: сортировка по дате съёмки
		"CREATE INDEX IF NOT EXISTS idx_mars_images_earth_date ON mars_images(earth_date DESC, nasa_id DESC)",
	}

	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
