package product

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kazuki11111/expiry-tracker/domain"
	"github.com/kazuki11111/expiry-tracker/entities"
	"github.com/kazuki11111/expiry-tracker/internal/utils/clock"
	"github.com/kazuki11111/expiry-tracker/pkg/changefeed"
	"github.com/kazuki11111/expiry-tracker/pkg/expiry"
)

type (
	ProductService interface {
		AddProduct(ctx context.Context, req domain.AddProductRequest) (domain.ProductResponse, error)
		Add(ctx context.Context, product *entities.Product) (int64, error)
		AddBatch(ctx context.Context, products []*entities.Product) ([]int64, error)
		GetProduct(ctx context.Context, id int64) (domain.ProductResponse, error)
		UpdateProduct(ctx context.Context, id int64, req domain.UpdateProductRequest) (domain.ProductResponse, error)
		DeleteProduct(ctx context.Context, id int64) (bool, error)
		DeleteByPurchaseDate(ctx context.Context, purchaseDate string) (int64, error)
		ToggleConsumed(ctx context.Context, id int64) (domain.ToggleConsumedResponse, error)
		QueryActive(ctx context.Context, includeConsumed bool) ([]*entities.Product, error)
		Today() time.Time
	}

	productService struct {
		productRepository ProductRepository
		publisher         changefeed.Publisher
		clock             clock.Clock
		loc               *time.Location
	}
)

func NewProductService(productRepository ProductRepository, publisher changefeed.Publisher, clk clock.Clock, loc *time.Location) ProductService {
	if publisher == nil {
		publisher = changefeed.Discard{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &productService{
		productRepository: productRepository,
		publisher:         publisher,
		clock:             clk,
		loc:               loc,
	}
}

func (s *productService) Today() time.Time {
	return clock.Today(s.clock, s.loc)
}

// AddProduct stores a manually entered product. A missing purchase date is
// today; a missing expiry date is estimated from the category.
func (s *productService) AddProduct(ctx context.Context, req domain.AddProductRequest) (domain.ProductResponse, error) {
	category, ok := expiry.ParseCategory(req.Category)
	if !ok {
		return domain.ProductResponse{}, domain.ErrInvalidCategory
	}

	purchaseDate := req.PurchaseDate
	if purchaseDate == "" {
		purchaseDate = expiry.FormatDate(s.Today())
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	product := &entities.Product{
		Name:         strings.TrimSpace(req.Name),
		Category:     category,
		PurchaseDate: purchaseDate,
		ExpiryDate:   req.ExpiryDate,
		Quantity:     quantity,
		ReceiptID:    req.ReceiptID,
	}
	if product.ExpiryDate == "" {
		product.ExpiryDate = expiry.EstimateExpiryDate(category, purchaseDate)
		product.IsExpiryEstimated = true
	}

	if _, err := s.Add(ctx, product); err != nil {
		return domain.ProductResponse{}, err
	}

	return ToResponse(product, s.Today()), nil
}

func (s *productService) Add(ctx context.Context, product *entities.Product) (int64, error) {
	if err := validateProduct(product); err != nil {
		return 0, err
	}

	product.ID = 0
	product.CreatedAt = s.clock.Now()
	if err := s.productRepository.AddProduct(ctx, product); err != nil {
		return 0, err
	}

	s.publisher.Publish(changefeed.TableProducts)
	return product.ID, nil
}

// AddBatch validates every product before writing any and stores them with
// one shared creation time.
func (s *productService) AddBatch(ctx context.Context, products []*entities.Product) ([]int64, error) {
	if len(products) == 0 {
		return nil, domain.ErrEmptyBatch
	}

	for _, p := range products {
		if err := validateProduct(p); err != nil {
			return nil, err
		}
	}

	createdAt := s.clock.Now()
	for _, p := range products {
		p.ID = 0
		p.CreatedAt = createdAt
	}

	if err := s.productRepository.AddProducts(ctx, products); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}

	s.publisher.Publish(changefeed.TableProducts)
	return ids, nil
}

func (s *productService) GetProduct(ctx context.Context, id int64) (domain.ProductResponse, error) {
	product, err := s.productRepository.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ProductResponse{}, domain.ErrProductNotFound
		}
		return domain.ProductResponse{}, err
	}

	return ToResponse(product, s.Today()), nil
}

func (s *productService) UpdateProduct(ctx context.Context, id int64, req domain.UpdateProductRequest) (domain.ProductResponse, error) {
	product, err := s.productRepository.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ProductResponse{}, domain.ErrProductNotFound
		}
		return domain.ProductResponse{}, err
	}

	fields := map[string]interface{}{}
	reestimate := false

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
		fields["name"] = product.Name
	}

	if req.Category != nil {
		category, ok := expiry.ParseCategory(*req.Category)
		if !ok {
			return domain.ProductResponse{}, domain.ErrInvalidCategory
		}
		if category != product.Category {
			reestimate = true
		}
		product.Category = category
		fields["category"] = category
	}

	if req.PurchaseDate != nil {
		if *req.PurchaseDate != product.PurchaseDate {
			reestimate = true
		}
		product.PurchaseDate = *req.PurchaseDate
		fields["purchase_date"] = product.PurchaseDate
	}

	if req.Quantity != nil {
		product.Quantity = *req.Quantity
		fields["quantity"] = product.Quantity
	}

	if req.Consumed != nil {
		product.Consumed = *req.Consumed
		fields["consumed"] = product.Consumed
	}

	// The final flag decides re-estimation, not the stored one.
	estimated := product.IsExpiryEstimated
	if req.ExpiryDate != nil {
		estimated = false
	}
	if req.IsExpiryEstimated != nil {
		if *req.IsExpiryEstimated && !product.IsExpiryEstimated {
			reestimate = true
		}
		estimated = *req.IsExpiryEstimated
	}

	switch {
	case req.ExpiryDate != nil:
		product.ExpiryDate = *req.ExpiryDate
		fields["expiry_date"] = product.ExpiryDate
	case reestimate && estimated:
		product.ExpiryDate = expiry.EstimateExpiryDate(product.Category, product.PurchaseDate)
		fields["expiry_date"] = product.ExpiryDate
	}

	if estimated != product.IsExpiryEstimated || req.ExpiryDate != nil || req.IsExpiryEstimated != nil {
		product.IsExpiryEstimated = estimated
		fields["is_expiry_estimated"] = estimated
	}

	if err := validateProduct(product); err != nil {
		return domain.ProductResponse{}, err
	}

	if len(fields) > 0 {
		rows, err := s.productRepository.UpdateProductFields(ctx, id, fields)
		if err != nil {
			return domain.ProductResponse{}, err
		}
		if rows == 0 {
			return domain.ProductResponse{}, domain.ErrProductNotFound
		}
		s.publisher.Publish(changefeed.TableProducts)
	}

	return ToResponse(product, s.Today()), nil
}

// DeleteProduct reports whether a row was removed. Deleting a missing id is
// not an error.
func (s *productService) DeleteProduct(ctx context.Context, id int64) (bool, error) {
	rows, err := s.productRepository.DeleteProduct(ctx, id)
	if err != nil {
		return false, err
	}
	if rows > 0 {
		s.publisher.Publish(changefeed.TableProducts)
	}
	return rows > 0, nil
}

func (s *productService) DeleteByPurchaseDate(ctx context.Context, purchaseDate string) (int64, error) {
	if !expiry.ValidDate(purchaseDate) {
		return 0, domain.ErrInvalidDate
	}

	count, err := s.productRepository.DeleteProductsByPurchaseDate(ctx, purchaseDate)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.publisher.Publish(changefeed.TableProducts)
	}
	return count, nil
}

func (s *productService) ToggleConsumed(ctx context.Context, id int64) (domain.ToggleConsumedResponse, error) {
	product, err := s.productRepository.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ToggleConsumedResponse{}, domain.ErrProductNotFound
		}
		return domain.ToggleConsumedResponse{}, err
	}

	consumed := !product.Consumed
	rows, err := s.productRepository.SetConsumed(ctx, id, consumed)
	if err != nil {
		return domain.ToggleConsumedResponse{}, err
	}
	// Deleted between the read and the write.
	if rows == 0 {
		return domain.ToggleConsumedResponse{}, domain.ErrProductNotFound
	}

	s.publisher.Publish(changefeed.TableProducts)
	return domain.ToggleConsumedResponse{ID: id, Consumed: consumed}, nil
}

func (s *productService) QueryActive(ctx context.Context, includeConsumed bool) ([]*entities.Product, error) {
	return s.productRepository.GetProducts(ctx, includeConsumed)
}

func validateProduct(p *entities.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return domain.ErrEmptyName
	}
	if p.Quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	if !p.Category.Valid() {
		return domain.ErrInvalidCategory
	}
	if !expiry.ValidDate(p.PurchaseDate) || !expiry.ValidDate(p.ExpiryDate) {
		return domain.ErrInvalidDate
	}
	return nil
}
