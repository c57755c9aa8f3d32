package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Pattarach/checkup_shop/internal/models"
)

type Config struct {
	HTTP_ADDR       string
	DB_HOST         string
	DB_PORT         string
	DB_USER         string
	DB_PASSWORD     string
	DB_NAME         string
	ES_URL          string
	ES_USER         string
	ES_PASSWORD     string
	ES_INDEX        string
	REDIS_ADDR      string
	REDIS_PASSWORD  string
	JWT_SECRET      string
	KAFKA_ADDRESS   string
	LOG_LEVEL       string
	RATE_LIMIT      int
	RATE_LIMIT_KEYS int
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		HTTP_ADDR:       getenvDefault("HTTP_ADDR", ":8080"),
		DB_HOST:         os.Getenv("DB_HOST"),
		DB_PORT:         os.Getenv("DB_PORT"),
		DB_USER:         os.Getenv("DB_USER"),
		DB_PASSWORD:     os.Getenv("DB_PASSWORD"),
		DB_NAME:         os.Getenv("DB_NAME"),
		ES_URL:          os.Getenv("ES_URL"),
		ES_USER:         os.Getenv("ES_USER"),
		ES_PASSWORD:     os.Getenv("ES_PASSWORD"),
		ES_INDEX:        getenvDefault("ES_INDEX", "packages"),
		REDIS_ADDR:      os.Getenv("REDIS_ADDR"),
		REDIS_PASSWORD:  os.Getenv("REDIS_PASSWORD"),
		JWT_SECRET:      os.Getenv("JWT_SECRET"),
		KAFKA_ADDRESS:   os.Getenv("KAFKA_ADDRESS"),
		LOG_LEVEL:       getenvDefault("LOG_LEVEL", "info"),
		RATE_LIMIT:      getenvInt("RATE_LIMIT", 60),
		RATE_LIMIT_KEYS: getenvInt("RATE_LIMIT_KEYS", 16384),
	}

	return config, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func InitDB(configuration *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		configuration.DB_USER, configuration.DB_PASSWORD,
		configuration.DB_HOST, configuration.DB_PORT, configuration.DB_NAME,
	)
	// TranslateError turns driver-specific unique violations into
	// gorm.ErrDuplicatedKey, which the checkout retry loop depends on.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}
	if err := db.AutoMigrate(
		&models.Package{},
		&models.Cart{},
		&models.CartLine{},
		&models.Order{},
		&models.OrderLine{},
		&models.ApprovalLog{},
		&models.AuditEntry{},
	); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}
