package database

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"chitti-admin/internal/config"
	"chitti-admin/internal/models"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	log.Printf("connecting to postgres %s:%s/%s", cfg.DBHost, cfg.DBPort, cfg.DBName)
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	log.Println("Connected to PostgreSQL successfully")
	return db, nil
}

// Migrate creates or updates the admin-side tables. Members, payments and the catalog
// live in the backend and are never stored here.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Admin{}, &models.Session{}, &models.AuditEntry{})
}
