package product

import (
	"time"

	"github.com/kazuki11111/expiry-tracker/domain"
	"github.com/kazuki11111/expiry-tracker/entities"
	"github.com/kazuki11111/expiry-tracker/pkg/expiry"
)

func ToResponse(p *entities.Product, today time.Time) domain.ProductResponse {
	days := expiry.DaysUntilExpiry(p.ExpiryDate, today)
	return domain.ProductResponse{
		ID:                p.ID,
		Name:              p.Name,
		Category:          p.Category.String(),
		CategoryLabel:     expiry.Label(p.Category),
		PurchaseDate:      p.PurchaseDate,
		ExpiryDate:        p.ExpiryDate,
		IsExpiryEstimated: p.IsExpiryEstimated,
		Quantity:          p.Quantity,
		Consumed:          p.Consumed,
		ReceiptID:         p.ReceiptID,
		CreatedAt:         p.CreatedAt,
		DaysLeft:          days,
		Urgency:           string(expiry.UrgencyForDays(days)),
	}
}

func ToResponses(products []*entities.Product, today time.Time) []domain.ProductResponse {
	out := make([]domain.ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, ToResponse(p, today))
	}
	return out
}
