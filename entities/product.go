package entities

import (
	"time"

	"github.com/kazuki11111/expiry-tracker/pkg/expiry"
)

type Product struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name              string          `gorm:"not null" json:"name"`
	Category          expiry.Category `gorm:"type:varchar(32);index;not null" json:"category"`
	PurchaseDate      string          `gorm:"type:varchar(10);index;not null" json:"purchase_date"`
	ExpiryDate        string          `gorm:"type:varchar(10);index;not null" json:"expiry_date"`
	IsExpiryEstimated bool            `gorm:"not null" json:"is_expiry_estimated"`
	Quantity          int             `gorm:"not null" json:"quantity"`
	Consumed          bool            `gorm:"index;not null" json:"consumed"`
	ReceiptID         *int64          `gorm:"index" json:"receipt_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}
