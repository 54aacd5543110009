package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Tesseract-Nexus/go-shared/secrets"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"order-import-service/internal/models"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisURL string

	// Events
	NATSURL        string
	EventsTenantID string

	// Server
	Port               string
	Environment        string
	CORSAllowedOrigins string

	// Import specific settings
	MaxUploadSizeMB   int
	MaxReportedErrors int
	ImportLockTTL     time.Duration
	ImportRateLimit   string

	// Staff service for RBAC checks
	StaffServiceURL string
}

func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	maxUploadSizeMB, _ := strconv.Atoi(getEnv("MAX_UPLOAD_SIZE_MB", "20"))
	maxReportedErrors, _ := strconv.Atoi(getEnv("MAX_REPORTED_ERRORS", "50"))
	lockTTLSeconds, _ := strconv.Atoi(getEnv("IMPORT_LOCK_TTL_SECONDS", "600"))

	if maxUploadSizeMB <= 0 {
		maxUploadSizeMB = 20
	}
	if maxReportedErrors <= 0 {
		maxReportedErrors = 50
	}
	if lockTTLSeconds <= 0 {
		lockTTLSeconds = 600
	}

	return &Config{
		// Database - fetch password from GCP Secret Manager if enabled
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: secrets.GetDBPassword(),
		DBName:     getEnv("DB_NAME", "school_shop_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Events - publishing is disabled when NATS_URL is empty
		NATSURL:        os.Getenv("NATS_URL"),
		EventsTenantID: getEnv("EVENTS_TENANT_ID", "school-shop"),

		// Server
		Port:               getEnv("PORT", "8092"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		CORSAllowedOrigins: os.Getenv("CORS_ALLOWED_ORIGINS"),

		// Import specific settings
		MaxUploadSizeMB:   maxUploadSizeMB,
		MaxReportedErrors: maxReportedErrors,
		ImportLockTTL:     time.Duration(lockTTLSeconds) * time.Second,
		ImportRateLimit:   getEnv("IMPORT_RATE_LIMIT", "10-M"),

		StaffServiceURL: getEnv("STAFF_SERVICE_URL", "http://staff-service:8080"),
	}
}

// MaxUploadBytes is the request body limit for import uploads
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadSizeMB) << 20
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate models to keep schema up to date
	// This will add missing columns but won't delete existing columns
	log.Println("Running auto-migrations...")
	if err := db.AutoMigrate(
		&models.School{},
		&models.Shop{},
		&models.Product{},
		&models.ProductVariant{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "does not exist") && strings.Contains(errStr, "constraint") {
			log.Printf("Note: Migration constraint warning (safe to ignore): %v", err)
		} else {
			return nil, fmt.Errorf("failed to run auto-migrations: %w", err)
		}
	}
	log.Println("Auto-migrations completed successfully")

	return db, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
