package settings

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kazuki11111/expiry-tracker/entities"
)

type (
	SettingsRepository interface {
		GetOrCreate(ctx context.Context) (*entities.Settings, error)
		Save(ctx context.Context, settings *entities.Settings) error
	}

	settingsRepository struct {
		db *gorm.DB
	}
)

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// GetOrCreate returns the singleton row, inserting the defaults the first
// time. Concurrent first reads converge on the same row.
func (r *settingsRepository) GetOrCreate(ctx context.Context) (*entities.Settings, error) {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entities.DefaultSettings()).Error; err != nil {
		return nil, err
	}

	var settings entities.Settings
	if err := r.db.WithContext(ctx).Where("id = ?", entities.SettingsID).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepository) Save(ctx context.Context, settings *entities.Settings) error {
	settings.ID = entities.SettingsID
	return r.db.WithContext(ctx).Save(settings).Error
}
