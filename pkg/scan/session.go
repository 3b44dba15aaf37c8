// Package scan reconciles recognized receipt lines into editable drafts and
// commits them to the inventory.
package scan

import (
	"strings"
	"time"

	"github.com/kazuki11111/expiry-tracker/domain"
	"github.com/kazuki11111/expiry-tracker/entities"
	"github.com/kazuki11111/expiry-tracker/pkg/expiry"
)

type Draft struct {
	Name              string
	Category          expiry.Category
	Quantity          int
	ExpiryDate        string
	IsExpiryEstimated bool
}

type Session struct {
	ID           string
	ReceiptID    *int64
	StoreName    string
	PurchaseDate string
	Items        []Draft
	ExpiresAt    time.Time
}

// NewSession seeds drafts from a recognition result. Every draft starts with
// an estimated expiry date.
func NewSession(result domain.OcrResult, purchaseDate string) *Session {
	s := &Session{PurchaseDate: purchaseDate, Items: make([]Draft, 0, len(result.Products))}
	if result.StoreName != nil {
		s.StoreName = *result.StoreName
	}
	for _, p := range result.Products {
		category := expiry.ParseCategoryOrDefault(p.Category)
		quantity := p.Quantity
		if quantity < 1 {
			quantity = 1
		}
		s.Items = append(s.Items, Draft{
			Name:              p.Name,
			Category:          category,
			Quantity:          quantity,
			ExpiryDate:        expiry.EstimateExpiryDate(category, purchaseDate),
			IsExpiryEstimated: true,
		})
	}
	return s
}

func (s *Session) UpdateItem(index int, req domain.UpdateDraftRequest) error {
	if index < 0 || index >= len(s.Items) {
		return domain.ErrDraftNotFound
	}
	d := s.Items[index]

	if req.Name != nil {
		d.Name = strings.TrimSpace(*req.Name)
	}
	if req.Quantity != nil {
		if *req.Quantity < 1 {
			return domain.ErrInvalidQuantity
		}
		d.Quantity = *req.Quantity
	}

	switch {
	case req.ExpiryDate != nil:
		if !expiry.ValidDate(*req.ExpiryDate) {
			return domain.ErrInvalidDate
		}
		if req.Category != nil {
			category, ok := expiry.ParseCategory(*req.Category)
			if !ok {
				return domain.ErrInvalidCategory
			}
			d.Category = category
		}
		d.ExpiryDate = *req.ExpiryDate
		d.IsExpiryEstimated = false
	case req.Category != nil:
		category, ok := expiry.ParseCategory(*req.Category)
		if !ok {
			return domain.ErrInvalidCategory
		}
		d.Category = category
		d.ExpiryDate = expiry.EstimateExpiryDate(category, s.PurchaseDate)
		d.IsExpiryEstimated = true
	}

	s.Items[index] = d
	return nil
}

// SetPurchaseDate moves the shared purchase date. Drafts whose expiry was
// entered by hand keep it.
func (s *Session) SetPurchaseDate(date string) error {
	if !expiry.ValidDate(date) {
		return domain.ErrInvalidDate
	}
	s.PurchaseDate = date
	for i := range s.Items {
		if s.Items[i].IsExpiryEstimated {
			s.Items[i].ExpiryDate = expiry.EstimateExpiryDate(s.Items[i].Category, date)
		}
	}
	return nil
}

func (s *Session) RemoveItem(index int) error {
	if index < 0 || index >= len(s.Items) {
		return domain.ErrDraftNotFound
	}
	s.Items = append(s.Items[:index], s.Items[index+1:]...)
	return nil
}

// Commit maps the drafts to unconsumed products sharing the purchase date
// and receipt.
func (s *Session) Commit() ([]*entities.Product, error) {
	if len(s.Items) == 0 {
		return nil, domain.ErrNoDraftItems
	}
	products := make([]*entities.Product, 0, len(s.Items))
	for _, d := range s.Items {
		products = append(products, &entities.Product{
			Name:              d.Name,
			Category:          d.Category,
			PurchaseDate:      s.PurchaseDate,
			ExpiryDate:        d.ExpiryDate,
			IsExpiryEstimated: d.IsExpiryEstimated,
			Quantity:          d.Quantity,
			Consumed:          false,
			ReceiptID:         s.ReceiptID,
		})
	}
	return products, nil
}

func (s *Session) clone() *Session {
	c := *s
	c.Items = make([]Draft, len(s.Items))
	copy(c.Items, s.Items)
	if s.ReceiptID != nil {
		id := *s.ReceiptID
		c.ReceiptID = &id
	}
	return &c
}

func (s *Session) ToResponse() domain.ScanSessionResponse {
	items := make([]domain.DraftItemResponse, 0, len(s.Items))
	for i, d := range s.Items {
		items = append(items, domain.DraftItemResponse{
			Index:             i,
			Name:              d.Name,
			Category:          d.Category.String(),
			CategoryLabel:     expiry.Label(d.Category),
			Quantity:          d.Quantity,
			ExpiryDate:        d.ExpiryDate,
			IsExpiryEstimated: d.IsExpiryEstimated,
		})
	}
	return domain.ScanSessionResponse{
		ID:           s.ID,
		ReceiptID:    s.ReceiptID,
		StoreName:    s.StoreName,
		PurchaseDate: s.PurchaseDate,
		Items:        items,
		ExpiresAt:    s.ExpiresAt,
	}
}
