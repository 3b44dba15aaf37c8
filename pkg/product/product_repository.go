package product

import (
	"context"

	"gorm.io/gorm"

	"github.com/kazuki11111/expiry-tracker/entities"
)

type (
	ProductRepository interface {
		AddProduct(ctx context.Context, product *entities.Product) error
		AddProducts(ctx context.Context, products []*entities.Product) error
		GetProductByID(ctx context.Context, id int64) (*entities.Product, error)
		GetProducts(ctx context.Context, includeConsumed bool) ([]*entities.Product, error)
		UpdateProductFields(ctx context.Context, id int64, fields map[string]interface{}) (int64, error)
		SetConsumed(ctx context.Context, id int64, consumed bool) (int64, error)
		DeleteProduct(ctx context.Context, id int64) (int64, error)
		DeleteProductsByPurchaseDate(ctx context.Context, purchaseDate string) (int64, error)
	}

	productRepository struct {
		db *gorm.DB
	}
)

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) AddProduct(ctx context.Context, product *entities.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// AddProducts inserts all rows in one transaction; either every row is stored
// or none is.
func (r *productRepository) AddProducts(ctx context.Context, products []*entities.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(products).Error
	})
}

func (r *productRepository) GetProductByID(ctx context.Context, id int64) (*entities.Product, error) {
	var product entities.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) GetProducts(ctx context.Context, includeConsumed bool) ([]*entities.Product, error) {
	var products []*entities.Product

	query := r.db.WithContext(ctx).Model(&entities.Product{})
	if !includeConsumed {
		query = query.Where("consumed = ?", false)
	}

	if err := query.
		Order("purchase_date desc").
		Order("expiry_date asc").
		Order("id asc").
		Find(&products).Error; err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepository) UpdateProductFields(ctx context.Context, id int64, fields map[string]interface{}) (int64, error) {
	res := r.db.WithContext(ctx).Model(&entities.Product{}).
		Where("id = ?", id).
		Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *productRepository) SetConsumed(ctx context.Context, id int64, consumed bool) (int64, error) {
	res := r.db.WithContext(ctx).Model(&entities.Product{}).
		Where("id = ?", id).
		Update("consumed", consumed)
	return res.RowsAffected, res.Error
}

func (r *productRepository) DeleteProduct(ctx context.Context, id int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Product{})
	return res.RowsAffected, res.Error
}

func (r *productRepository) DeleteProductsByPurchaseDate(ctx context.Context, purchaseDate string) (int64, error) {
	res := r.db.WithContext(ctx).Where("purchase_date = ?", purchaseDate).Delete(&entities.Product{})
	return res.RowsAffected, res.Error
}
