package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/quickcart/quickcart-api/internal/models"
)

type Config struct {
	HTTP_ADDR               string
	DB_HOST                 string
	DB_PORT                 string
	DB_USER                 string
	DB_PASSWORD             string
	DB_NAME                 string
	ES_URL                  string
	ES_USER                 string
	ES_PASSWORD             string
	JWT_SECRET              string
	KAFKA_ADDRESS           string
	RAZORPAY_KEY_ID         string
	RAZORPAY_KEY_SECRET     string
	RAZORPAY_WEBHOOK_SECRET string
	LOG_LEVEL               string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		HTTP_ADDR:               os.Getenv("HTTP_ADDR"),
		DB_HOST:                 os.Getenv("DB_HOST"),
		DB_PORT:                 os.Getenv("DB_PORT"),
		DB_USER:                 os.Getenv("DB_USER"),
		DB_PASSWORD:             os.Getenv("DB_PASSWORD"),
		DB_NAME:                 os.Getenv("DB_NAME"),
		ES_URL:                  os.Getenv("ES_URL"),
		ES_USER:                 os.Getenv("ES_USER"),
		ES_PASSWORD:             os.Getenv("ES_PASSWORD"),
		JWT_SECRET:              os.Getenv("JWT_SECRET"),
		KAFKA_ADDRESS:           os.Getenv("KAFKA_ADDRESS"),
		RAZORPAY_KEY_ID:         os.Getenv("RAZORPAY_KEY_ID"),
		RAZORPAY_KEY_SECRET:     os.Getenv("RAZORPAY_KEY_SECRET"),
		RAZORPAY_WEBHOOK_SECRET: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
		LOG_LEVEL:               os.Getenv("LOG_LEVEL"),
	}

	if config.HTTP_ADDR == "" {
		config.HTTP_ADDR = ":8080"
	}

	return config, nil
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DB_USER, cfg.DB_PASSWORD, cfg.DB_HOST, cfg.DB_PORT, cfg.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Address{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
	)
}
