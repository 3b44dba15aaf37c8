package product

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kazuki11111/expiry-tracker/entities"
	"github.com/kazuki11111/expiry-tracker/internal/testutil"
	"github.com/kazuki11111/expiry-tracker/pkg/expiry"
)

func newProduct(name, purchase, expiryDate string) *entities.Product {
	return &entities.Product{
		Name:         name,
		Category:     expiry.CategoryOther,
		PurchaseDate: purchase,
		ExpiryDate:   expiryDate,
		Quantity:     1,
		CreatedAt:    time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestProductRepository_GetProductsOrdering(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(testutil.NewTestDB(t))

	require.NoError(t, repo.AddProducts(ctx, []*entities.Product{
		newProduct("a", "2024-01-01", "2024-01-20"),
		newProduct("b", "2024-01-05", "2024-01-30"),
		newProduct("c", "2024-01-05", "2024-01-08"),
		newProduct("d", "2024-01-03", "2024-01-04"),
	}))

	products, err := repo.GetProducts(ctx, false)
	require.NoError(t, err)

	var names []string
	for _, p := range products {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"c", "b", "d", "a"}, names)
}

func TestProductRepository_ConsumedFilter(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(testutil.NewTestDB(t))

	p := newProduct("milk", "2024-01-01", "2024-01-11")
	require.NoError(t, repo.AddProduct(ctx, p))
	require.NoError(t, repo.AddProduct(ctx, newProduct("eggs", "2024-01-01", "2024-01-15")))

	rows, err := repo.SetConsumed(ctx, p.ID, true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows)

	active, err := repo.GetProducts(ctx, false)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := repo.GetProducts(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestProductRepository_DeleteByPurchaseDate(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(testutil.NewTestDB(t))

	require.NoError(t, repo.AddProducts(ctx, []*entities.Product{
		newProduct("a", "2024-01-10", "2024-01-20"),
		newProduct("b", "2024-01-10", "2024-01-20"),
		newProduct("c", "2024-01-09", "2024-01-20"),
		newProduct("d", "2024-01-11", "2024-01-20"),
		newProduct("e", "2024-02-10", "2024-02-20"),
	}))

	count, err := repo.DeleteProductsByPurchaseDate(ctx, "2024-01-10")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	rest, err := repo.GetProducts(ctx, true)
	require.NoError(t, err)
	assert.Len(t, rest, 3)
	for _, p := range rest {
		assert.NotEqual(t, "2024-01-10", p.PurchaseDate)
	}
}

func TestProductRepository_MissingRows(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(testutil.NewTestDB(t))

	_, err := repo.GetProductByID(ctx, 42)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	rows, err := repo.DeleteProduct(ctx, 42)
	require.NoError(t, err)
	assert.Zero(t, rows)

	rows, err = repo.UpdateProductFields(ctx, 42, map[string]interface{}{"name": "x"})
	require.NoError(t, err)
	assert.Zero(t, rows)
}
