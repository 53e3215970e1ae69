package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hydrolog/internal/config"
)

// Connect opens the database named by APP_DATABASE_URL and migrates it.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := strings.TrimSpace(cfg.DatabaseURL)
	if dsn == "" {
		return nil, errors.New("APP_DATABASE_URL is required (postgres:// URL or sqlite file path)")
	}
	return Open(dsn)
}

// Open picks the driver from the DSN: postgres:// and postgresql:// URLs
// go to PostgreSQL, anything else is treated as a sqlite path.
func Open(dsn string) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		// PrepareStmt: true prevents the GORM postgres migrator from forcing simple protocol
		// for "SELECT * FROM table LIMIT 1", which would otherwise trigger "insufficient arguments".
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{PrepareStmt: true})
	} else {
		db, err = gorm.Open(sqlite.Open(strings.TrimPrefix(dsn, "sqlite://")), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err == nil {
			// sqlite serializes writers anyway, and a single connection keeps
			// ":memory:" databases alive across queries.
			sqlDB, derr := db.DB()
			if derr != nil {
				return nil, derr
			}
			sqlDB.SetMaxOpenConns(1)
		}
	}
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Account{}, &APIToken{}, &VoiceLink{}, &LinkCode{}, &VoiceEvent{}); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureBootstrapAdmin makes sure an admin account exists for the bootstrap
// credentials in config. An existing account with that email is left as-is.
func EnsureBootstrapAdmin(db *gorm.DB, cfg *config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	var count int64
	if err := db.Model(&Account{}).Where("email = ?", NormalizeEmail(cfg.AdminEmail)).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := NewAccount(cfg.AdminEmail, string(hash))
	admin.FirstName = "Admin"
	admin.IsAdmin = true
	return db.Create(admin).Error
}
