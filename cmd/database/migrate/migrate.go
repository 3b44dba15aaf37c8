package migration

import (
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/kazuki11111/expiry-tracker/entities"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entities.Product{}); err != nil {
		log.Errorw("error migrating product table", "error", err)
		return fmt.Errorf("migrate products: %w", err)
	}
	if err := db.AutoMigrate(&entities.Receipt{}); err != nil {
		log.Errorw("error migrating receipt table", "error", err)
		return fmt.Errorf("migrate receipts: %w", err)
	}
	if err := db.AutoMigrate(&entities.Settings{}); err != nil {
		log.Errorw("error migrating settings table", "error", err)
		return fmt.Errorf("migrate settings: %w", err)
	}
	if err := db.AutoMigrate(&entities.Memo{}); err != nil {
		log.Errorw("error migrating memo table", "error", err)
		return fmt.Errorf("migrate memos: %w", err)
	}

	log.Info("database migration complete")
	return nil
}
