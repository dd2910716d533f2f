package database

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"paygrid-system/internal/database/models"
)

func NewConnection(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		log.Fatal("DSN is required")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get sql.DB: %v", err)
	}

	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	return db, nil
}

func MigrateSalaryDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Employee{}); err != nil {
		return err
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		return err
	}
	return nil
}

var seedRoles = []string{"developer", "designer", "manager", "analyst", "consultant", "engineer"}

// SeedEmployees fills an empty employees table with 20 example records.
func SeedEmployees(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Employee{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for i := 1; i <= 20; i++ {
		employee := models.Employee{
			Name:                  fmt.Sprintf("Employee %d", i),
			Email:                 fmt.Sprintf("employee%d@example.com", i),
			Role:                  seedRoles[rand.Intn(len(seedRoles))],
			SalaryInLocalCurrency: decimal.NewFromInt(int64(30000 + rand.Intn(70001))),
			SalaryInEuros:         decimal.NewNullDecimal(decimal.NewFromInt(int64(25000 + rand.Intn(55001)))),
			Commission:            decimal.NewFromInt(int64(300 + rand.Intn(701))),
		}
		if err := db.Create(&employee).Error; err != nil {
			return err
		}
	}

	log.Println("Seeded 20 example employees")
	return nil
}
