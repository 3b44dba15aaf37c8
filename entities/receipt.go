package entities

import (
	"time"
)

const (
	ReceiptStatusPending   = "Pending"
	ReceiptStatusProcessed = "Processed"
	ReceiptStatusFailed    = "Failed"
	ReceiptStatusCompleted = "Completed"
)

type Receipt struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	StoreName  string    `json:"store_name,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`
	MediaType  string    `gorm:"type:varchar(32)" json:"media_type"`
	Status     string    `gorm:"type:varchar(16);index" json:"status"` // "Pending", "Processed", "Failed", "Completed"
	OcrResults string    `json:"ocr_results,omitempty" gorm:"type:text"`
	ScannedAt  time.Time `gorm:"index" json:"scanned_at"`
}
