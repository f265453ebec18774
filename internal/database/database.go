package database

import (
	"log"
	"os"

	"coachly/config"
	"coachly/internal/domain"
	"coachly/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error), // Only log errors, not every SQL query
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserRole{},
		&models.AuditLog{},
		&models.Wallet{},
		&models.CreditTransaction{},
		&models.Transaction{},
		&models.WithdrawalRequest{},
		&models.Course{},
		&models.Enrollment{},
	)
}

// SeedAdmin creates the bootstrap admin from ADMIN_EMAIL/ADMIN_PASSWORD if
// no admin role exists yet.
func SeedAdmin(db *gorm.DB) {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}
	var count int64
	db.Model(&models.UserRole{}).Where("role = ?", domain.RoleAdmin).Count(&count)
	if count > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[Seed] bcrypt: %v", err)
		return
	}
	u := models.User{Username: "admin", Email: email, PasswordHash: string(hash)}
	if err := db.Where("email = ?", email).FirstOrCreate(&u).Error; err != nil {
		log.Printf("[Seed] admin user: %v", err)
		return
	}
	role := models.UserRole{UserID: u.ID, Role: domain.RoleAdmin}
	if err := db.Where("user_id = ?", u.ID).FirstOrCreate(&role).Error; err != nil {
		log.Printf("[Seed] admin role: %v", err)
		return
	}
	log.Printf("[Seed] admin ready: %s", email)
}
