package database

import (
	"fmt"
	"os"

	"abrechnung-backend/models"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Connect opens the shared Postgres handle. TranslateError is on so
// duplicate-key violations surface as gorm.ErrDuplicatedKey (the invoice
// number retry depends on it).
func Connect() {
	if err := godotenv.Load(); err != nil {
		zap.L().Warn("no .env file loaded", zap.Error(err))
	}

	host := os.Getenv("DB_HOST")
	if host == "" {
		host = "db"
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=5432 sslmode=disable",
		host, os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"))

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		zap.L().Fatal("could not connect to database", zap.Error(err))
	}
}

// AutoMigrate migrates the public (cross-tenant) tables.
func AutoMigrate() {
	if err := DB.AutoMigrate(&models.ContactPerson{}, &models.Company{}, &models.User{}); err != nil {
		zap.L().Fatal("public migration failed", zap.Error(err))
	}
}
