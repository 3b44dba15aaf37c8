package product

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/kazuki11111/expiry-tracker/domain"
	"github.com/kazuki11111/expiry-tracker/entities"
	"github.com/kazuki11111/expiry-tracker/internal/testutil"
	"github.com/kazuki11111/expiry-tracker/internal/utils/clock"
	"github.com/kazuki11111/expiry-tracker/pkg/changefeed"
	"github.com/kazuki11111/expiry-tracker/pkg/expiry"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []changefeed.Table
}

func (p *recordingPublisher) Publish(table changefeed.Table) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, table)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type ProductServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	clock     *clock.MockClock
	publisher *recordingPublisher
	repo      ProductRepository
	service   ProductService
}

func (s *ProductServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = clock.NewMockClock(time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
	s.publisher = &recordingPublisher{}
	s.repo = NewProductRepository(testutil.NewTestDB(s.T()))
	s.service = NewProductService(s.repo, s.publisher, s.clock, time.UTC)
}

func TestProductServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ProductServiceTestSuite))
}

func (s *ProductServiceTestSuite) TestAddProduct_EstimatesMissingExpiry() {
	resp, err := s.service.AddProduct(s.ctx, domain.AddProductRequest{
		Name:     " 牛ひき肉 ",
		Category: "meat_ground",
	})
	s.Require().NoError(err)

	s.Equal("牛ひき肉", resp.Name)
	s.Equal("2024-01-10", resp.PurchaseDate)
	s.Equal("2024-01-12", resp.ExpiryDate)
	s.True(resp.IsExpiryEstimated)
	s.Equal(1, resp.Quantity)
	s.Equal(2, resp.DaysLeft)
	s.Equal(string(expiry.UrgencyWarning), resp.Urgency)
	s.Equal(1, s.publisher.count())
}

func (s *ProductServiceTestSuite) TestAddProduct_KeepsExplicitExpiry() {
	resp, err := s.service.AddProduct(s.ctx, domain.AddProductRequest{
		Name:         "ヨーグルト",
		Category:     "dairy",
		PurchaseDate: "2024-01-08",
		ExpiryDate:   "2024-01-30",
		Quantity:     2,
	})
	s.Require().NoError(err)

	s.Equal("2024-01-30", resp.ExpiryDate)
	s.False(resp.IsExpiryEstimated)
	s.Equal(2, resp.Quantity)
}

func (s *ProductServiceTestSuite) TestAdd_ValidationRejectsBeforeWrite() {
	cases := map[string]struct {
		product *entities.Product
		err     error
	}{
		"empty name":   {newProduct("  ", "2024-01-01", "2024-01-02"), domain.ErrEmptyName},
		"bad date":     {newProduct("x", "2024-13-01", "2024-01-02"), domain.ErrInvalidDate},
		"bad category": {&entities.Product{Name: "x", Category: "vegetable", PurchaseDate: "2024-01-01", ExpiryDate: "2024-01-02", Quantity: 1}, domain.ErrInvalidCategory},
		"zero qty":     {&entities.Product{Name: "x", Category: expiry.CategoryOther, PurchaseDate: "2024-01-01", ExpiryDate: "2024-01-02"}, domain.ErrInvalidQuantity},
	}

	for name, tc := range cases {
		_, err := s.service.Add(s.ctx, tc.product)
		s.ErrorIs(err, tc.err, name)
	}

	products, err := s.service.QueryActive(s.ctx, true)
	s.Require().NoError(err)
	s.Empty(products)
	s.Zero(s.publisher.count())
}

func (s *ProductServiceTestSuite) TestAddBatch_SharesCreatedAt() {
	batch := []*entities.Product{
		newProduct("a", "2024-01-10", "2024-01-20"),
		newProduct("b", "2024-01-10", "2024-01-21"),
		newProduct("c", "2024-01-10", "2024-01-22"),
	}

	ids, err := s.service.AddBatch(s.ctx, batch)
	s.Require().NoError(err)
	s.Len(ids, 3)

	products, err := s.service.QueryActive(s.ctx, false)
	s.Require().NoError(err)
	s.Require().Len(products, 3)
	for _, p := range products {
		s.Equal("2024-01-10", p.PurchaseDate)
		s.True(p.CreatedAt.Equal(s.clock.Now()), "created at %v", p.CreatedAt)
	}
	s.Equal(1, s.publisher.count())
}

func (s *ProductServiceTestSuite) TestAddBatch_AllOrNothing() {
	batch := []*entities.Product{
		newProduct("a", "2024-01-10", "2024-01-20"),
		newProduct("", "2024-01-10", "2024-01-21"),
	}

	_, err := s.service.AddBatch(s.ctx, batch)
	s.ErrorIs(err, domain.ErrEmptyName)

	products, err := s.service.QueryActive(s.ctx, true)
	s.Require().NoError(err)
	s.Empty(products)

	_, err = s.service.AddBatch(s.ctx, nil)
	s.ErrorIs(err, domain.ErrEmptyBatch)
}

func (s *ProductServiceTestSuite) TestToggleConsumed_TwiceRestores() {
	id, err := s.service.Add(s.ctx, newProduct("milk", "2024-01-10", "2024-01-20"))
	s.Require().NoError(err)

	first, err := s.service.ToggleConsumed(s.ctx, id)
	s.Require().NoError(err)
	s.True(first.Consumed)

	second, err := s.service.ToggleConsumed(s.ctx, id)
	s.Require().NoError(err)
	s.False(second.Consumed)

	got, err := s.service.GetProduct(s.ctx, id)
	s.Require().NoError(err)
	s.False(got.Consumed)
}

func (s *ProductServiceTestSuite) TestToggleConsumed_Missing() {
	_, err := s.service.ToggleConsumed(s.ctx, 999)
	s.ErrorIs(err, domain.ErrProductNotFound)
}

func (s *ProductServiceTestSuite) TestUpdateProduct_CategoryChangeReestimates() {
	resp, err := s.service.AddProduct(s.ctx, domain.AddProductRequest{
		Name:         "鮭",
		Category:     "fish",
		PurchaseDate: "2024-01-10",
	})
	s.Require().NoError(err)
	s.Equal("2024-01-13", resp.ExpiryDate)

	category := "frozen"
	updated, err := s.service.UpdateProduct(s.ctx, resp.ID, domain.UpdateProductRequest{Category: &category})
	s.Require().NoError(err)
	s.Equal("2024-04-09", updated.ExpiryDate)
	s.True(updated.IsExpiryEstimated)
}

func (s *ProductServiceTestSuite) TestUpdateProduct_OverriddenExpirySticks() {
	resp, err := s.service.AddProduct(s.ctx, domain.AddProductRequest{
		Name:         "鮭",
		Category:     "fish",
		PurchaseDate: "2024-01-10",
	})
	s.Require().NoError(err)

	manual := "2024-01-15"
	updated, err := s.service.UpdateProduct(s.ctx, resp.ID, domain.UpdateProductRequest{ExpiryDate: &manual})
	s.Require().NoError(err)
	s.False(updated.IsExpiryEstimated)

	purchase := "2024-01-12"
	updated, err = s.service.UpdateProduct(s.ctx, resp.ID, domain.UpdateProductRequest{PurchaseDate: &purchase})
	s.Require().NoError(err)
	s.Equal("2024-01-15", updated.ExpiryDate)
	s.Equal("2024-01-12", updated.PurchaseDate)
}

func (s *ProductServiceTestSuite) TestUpdateProduct_RestoringEstimateRecomputesExpiry() {
	resp, err := s.service.AddProduct(s.ctx, domain.AddProductRequest{
		Name:         "鮭",
		Category:     "fish",
		PurchaseDate: "2024-01-10",
		ExpiryDate:   "2024-01-25",
	})
	s.Require().NoError(err)
	s.Require().False(resp.IsExpiryEstimated)

	category := "canned"
	estimated := true
	updated, err := s.service.UpdateProduct(s.ctx, resp.ID, domain.UpdateProductRequest{
		Category:          &category,
		IsExpiryEstimated: &estimated,
	})
	s.Require().NoError(err)
	s.Equal("2027-01-09", updated.ExpiryDate)
	s.True(updated.IsExpiryEstimated)

	stored, err := s.service.GetProduct(s.ctx, resp.ID)
	s.Require().NoError(err)
	s.Equal("2027-01-09", stored.ExpiryDate)
	s.True(stored.IsExpiryEstimated)
}

func (s *ProductServiceTestSuite) TestUpdateProduct_FlagOnlyRecomputesExpiry() {
	resp, err := s.service.AddProduct(s.ctx, domain.AddProductRequest{
		Name:         "鮭",
		Category:     "fish",
		PurchaseDate: "2024-01-10",
		ExpiryDate:   "2024-01-25",
	})
	s.Require().NoError(err)

	estimated := true
	updated, err := s.service.UpdateProduct(s.ctx, resp.ID, domain.UpdateProductRequest{IsExpiryEstimated: &estimated})
	s.Require().NoError(err)
	s.Equal("2024-01-13", updated.ExpiryDate)
	s.True(updated.IsExpiryEstimated)
}

func (s *ProductServiceTestSuite) TestUpdateProduct_Missing() {
	name := "x"
	_, err := s.service.UpdateProduct(s.ctx, 999, domain.UpdateProductRequest{Name: &name})
	s.ErrorIs(err, domain.ErrProductNotFound)
}

func (s *ProductServiceTestSuite) TestUpdateProduct_RejectsEmptyName() {
	id, err := s.service.Add(s.ctx, newProduct("milk", "2024-01-10", "2024-01-20"))
	s.Require().NoError(err)

	empty := " "
	_, err = s.service.UpdateProduct(s.ctx, id, domain.UpdateProductRequest{Name: &empty})
	s.ErrorIs(err, domain.ErrEmptyName)

	got, err := s.service.GetProduct(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("milk", got.Name)
}

func (s *ProductServiceTestSuite) TestDeleteProduct_AbsentIsNotAnError() {
	id, err := s.service.Add(s.ctx, newProduct("milk", "2024-01-10", "2024-01-20"))
	s.Require().NoError(err)

	deleted, err := s.service.DeleteProduct(s.ctx, id)
	s.Require().NoError(err)
	s.True(deleted)

	deleted, err = s.service.DeleteProduct(s.ctx, id)
	s.Require().NoError(err)
	s.False(deleted)
}

func (s *ProductServiceTestSuite) TestDeleteByPurchaseDate() {
	_, err := s.service.AddBatch(s.ctx, []*entities.Product{
		newProduct("a", "2024-01-10", "2024-01-20"),
		newProduct("b", "2024-01-10", "2024-01-20"),
		newProduct("c", "2024-01-09", "2024-01-20"),
		newProduct("d", "2024-01-08", "2024-01-20"),
		newProduct("e", "2024-01-07", "2024-01-20"),
	})
	s.Require().NoError(err)

	count, err := s.service.DeleteByPurchaseDate(s.ctx, "2024-01-10")
	s.Require().NoError(err)
	s.EqualValues(2, count)

	rest, err := s.service.QueryActive(s.ctx, true)
	s.Require().NoError(err)
	s.Len(rest, 3)

	_, err = s.service.DeleteByPurchaseDate(s.ctx, "yesterday")
	s.ErrorIs(err, domain.ErrInvalidDate)
}
