package database

import (
	"fmt"
	"log"

	"github.com/checkoutpos/billing-api/internal/config"
	"github.com/checkoutpos/billing-api/internal/domain/entity"
	"github.com/checkoutpos/billing-api/pkg/change"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	logLevel := logger.Warn

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB to set connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	log.Println("Successfully connected to PostgreSQL database")
	return db, nil
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&entity.Product{},
		&entity.Customer{},
		&entity.Bill{},
		&entity.BillItem{},
		&entity.Denomination{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// SeedDefaultData seeds an empty database with a starter catalogue and a
// stocked cash drawer.
func SeedDefaultData(db *gorm.DB) error {
	log.Println("Seeding default data...")

	var productCount int64
	if err := db.Model(&entity.Product{}).Count(&productCount).Error; err != nil {
		return err
	}
	if productCount == 0 {
		products := []entity.Product{
			{Code: "P001", Name: "Pencil", AvailableStocks: 100, UnitPrice: 1200, TaxRate: 500},
			{Code: "P002", Name: "Notebook", AvailableStocks: 50, UnitPrice: 4500, TaxRate: 1200},
		}
		if err := db.Create(&products).Error; err != nil {
			log.Printf("Warning: failed to seed products: %v", err)
		}
	}

	var denomCount int64
	if err := db.Model(&entity.Denomination{}).Count(&denomCount).Error; err != nil {
		return err
	}
	if denomCount == 0 {
		denominations := make([]entity.Denomination, 0, len(change.Standard))
		for _, v := range change.Standard {
			denominations = append(denominations, entity.Denomination{Value: v, AvailableCount: 10})
		}
		if err := db.Create(&denominations).Error; err != nil {
			log.Printf("Warning: failed to seed denominations: %v", err)
		}
	}

	return nil
}
