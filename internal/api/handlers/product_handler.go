package handlers

import (
	"bufio"
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/kazuki11111/expiry-tracker/domain"
	"github.com/kazuki11111/expiry-tracker/internal/api/presenters"
	"github.com/kazuki11111/expiry-tracker/pkg/expiry"
	"github.com/kazuki11111/expiry-tracker/pkg/listing"
	"github.com/kazuki11111/expiry-tracker/pkg/product"
)

type (
	ProductHandler interface {
		GetCategories(c *fiber.Ctx) error
		GetProducts(c *fiber.Ctx) error
		StreamProducts(c *fiber.Ctx) error
		AddProduct(c *fiber.Ctx) error
		GetProduct(c *fiber.Ctx) error
		UpdateProduct(c *fiber.Ctx) error
		DeleteProduct(c *fiber.Ctx) error
		ToggleConsumed(c *fiber.Ctx) error
		DeleteByPurchaseDate(c *fiber.Ctx) error
	}

	productHandler struct {
		productService product.ProductService
		feed           listing.Subscriber
		validator      *validator.Validate
	}
)

func NewProductHandler(productService product.ProductService, feed listing.Subscriber, validator *validator.Validate) ProductHandler {
	return &productHandler{
		productService: productService,
		feed:           feed,
		validator:      validator,
	}
}

func (h *productHandler) GetCategories(c *fiber.Ctx) error {
	categories := expiry.Categories()
	res := make([]domain.CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		res = append(res, domain.CategoryResponse{
			Key:          cat.String(),
			Label:        expiry.Label(cat),
			ShelfLifeDay: expiry.ShelfLifeDays(cat),
		})
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetCategories)
}

func (h *productHandler) GetProducts(c *fiber.Ctx) error {
	opts := listOptions(c)

	products, err := h.productService.QueryActive(c.Context(), opts.IncludeConsumed)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedGetProducts, err)
	}

	res := listing.Group(opts.GroupBy, products, opts.Collapsed, h.productService.Today())
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetProducts)
}

// StreamProducts pushes the grouped list as server-sent events, once on
// connect and again after every inventory change.
func (h *productHandler) StreamProducts(c *fiber.Ctx) error {
	view := listing.NewLiveView(h.productService, h.feed, listOptions(c))
	ctx, cancel := context.WithCancel(context.Background())
	if err := view.Start(ctx); err != nil {
		cancel()
		return presenters.ServiceError(c, domain.MessageFailedGetProducts, err)
	}

	setStreamHeaders(c)
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer view.Stop()

		keepAlive := time.NewTicker(streamKeepAlive)
		defer keepAlive.Stop()
		for {
			select {
			case list := <-view.Updates():
				if err := writeEvent(w, "products", list); err != nil {
					return
				}
			case <-keepAlive.C:
				if err := writeKeepAlive(w); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

func (h *productHandler) AddProduct(c *fiber.Ctx) error {
	req := new(domain.AddProductRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedAddProduct, err)
	}

	res, err := h.productService.AddProduct(c.Context(), *req)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedAddProduct, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessAddProduct)
}

func (h *productHandler) GetProduct(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedParseID, err)
	}

	res, err := h.productService.GetProduct(c.Context(), id)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedGetProducts, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetProducts)
}

func (h *productHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedParseID, err)
	}
	req := new(domain.UpdateProductRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateProduct, err)
	}

	res, err := h.productService.UpdateProduct(c.Context(), id, *req)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedUpdateProduct, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateProduct)
}

func (h *productHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedParseID, err)
	}

	deleted, err := h.productService.DeleteProduct(c.Context(), id)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedDeleteProduct, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{"id": id, "deleted": deleted}, fiber.StatusOK, domain.MessageSuccessDeleteProduct)
}

func (h *productHandler) ToggleConsumed(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedParseID, err)
	}

	res, err := h.productService.ToggleConsumed(c.Context(), id)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedToggleConsumed, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessToggleConsumed)
}

func (h *productHandler) DeleteByPurchaseDate(c *fiber.Ctx) error {
	date := c.Params("date")

	count, err := h.productService.DeleteByPurchaseDate(c.Context(), date)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedDeleteByPurchaseDate, err)
	}

	return presenters.SuccessResponse(c, domain.DeleteByPurchaseDateResponse{
		PurchaseDate: date,
		Deleted:      count,
	}, fiber.StatusOK, domain.MessageSuccessDeleteByPurchaseDate)
}

func listOptions(c *fiber.Ctx) listing.LiveViewOptions {
	var keys []string
	if raw := c.Query("collapsed"); raw != "" {
		for _, k := range strings.Split(raw, ",") {
			keys = append(keys, strings.TrimSpace(k))
		}
	}
	return listing.LiveViewOptions{
		GroupBy:         c.Query("group", domain.GroupByPurchaseDate),
		IncludeConsumed: c.QueryBool("include_consumed", false),
		Collapsed:       listing.NewCollapseState(keys...),
	}
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrParseID
	}
	return id, nil
}
