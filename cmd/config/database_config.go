package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kazuki11111/expiry-tracker/internal/utils"
)

// ConnectDB opens the configured database. sqlite is the single-household
// default; postgres is used when DB_DRIVER=postgres.
func ConnectDB() (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(gormLogLevel())}

	switch driver := utils.GetConfig("DB_DRIVER"); driver {
	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
			utils.GetConfig("DB_HOST"),
			utils.GetConfig("DB_USER"),
			utils.GetConfig("DB_PASSWORD"),
			utils.GetConfig("DB_NAME"),
			utils.GetConfig("DB_PORT"),
			utils.GetConfig("APP_TIMEZONE"),
		)
		db, err := gorm.Open(postgres.Open(dsn), cfg)
		if err != nil {
			log.Errorw("database connection failed", "driver", driver, "error", err)
			return nil, err
		}
		return db, nil
	case "sqlite":
		path := utils.GetConfig("DB_PATH")
		if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		db, err := gorm.Open(sqlite.Open(path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"), cfg)
		if err != nil {
			log.Errorw("database connection failed", "driver", driver, "path", path, "error", err)
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

func gormLogLevel() logger.LogLevel {
	if utils.GetConfig("LOG_LEVEL") == "debug" {
		return logger.Info
	}
	return logger.Warn
}
