package entities

// SettingsID is the primary key of the singleton settings row.
const SettingsID = 1

type Settings struct {
	ID               int    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	NotifyDaysBefore []int  `gorm:"serializer:json;type:text" json:"notify_days_before"`
	NotifyTime       string `gorm:"type:varchar(5)" json:"notify_time"`
	Enabled          bool   `json:"enabled"`
}

func DefaultSettings() *Settings {
	return &Settings{
		ID:               SettingsID,
		NotifyDaysBefore: []int{1, 3},
		NotifyTime:       "09:00",
		Enabled:          true,
	}
}
