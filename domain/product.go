package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessAddProduct           = "product added successfully"
	MessageSuccessUpdateProduct        = "product updated successfully"
	MessageSuccessDeleteProduct        = "product deleted successfully"
	MessageSuccessGetProducts          = "products retrieved successfully"
	MessageSuccessToggleConsumed       = "product consumed state toggled"
	MessageSuccessDeleteByPurchaseDate = "products deleted for purchase date"
	MessageSuccessGetCategories        = "categories retrieved successfully"

	MessageFailedAddProduct           = "failed to add product"
	MessageFailedUpdateProduct        = "failed to update product"
	MessageFailedDeleteProduct        = "failed to delete product"
	MessageFailedGetProducts          = "failed to retrieve products"
	MessageFailedToggleConsumed       = "failed to toggle consumed state"
	MessageFailedDeleteByPurchaseDate = "failed to delete products for purchase date"

	ErrProductNotFound = errors.New("product not found")
	ErrEmptyName       = errors.New("product name cannot be empty")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidCategory = errors.New("unknown product category")
	ErrEmptyBatch      = errors.New("batch must contain at least one product")
)

const (
	GroupByPurchaseDate = "date"
	GroupByCategory     = "category"
)

type (
	AddProductRequest struct {
		Name         string `json:"name" validate:"required"`
		Category     string `json:"category" validate:"required,category"`
		PurchaseDate string `json:"purchase_date" validate:"omitempty,isodate"`
		ExpiryDate   string `json:"expiry_date" validate:"omitempty,isodate"`
		Quantity     int    `json:"quantity" validate:"omitempty,min=1"`
		ReceiptID    *int64 `json:"receipt_id"`
	}

	// UpdateProductRequest is a partial update; nil fields are left untouched.
	UpdateProductRequest struct {
		Name              *string `json:"name" validate:"omitempty,min=1"`
		Category          *string `json:"category" validate:"omitempty,category"`
		PurchaseDate      *string `json:"purchase_date" validate:"omitempty,isodate"`
		ExpiryDate        *string `json:"expiry_date" validate:"omitempty,isodate"`
		IsExpiryEstimated *bool   `json:"is_expiry_estimated"`
		Quantity          *int    `json:"quantity" validate:"omitempty,min=1"`
		Consumed          *bool   `json:"consumed"`
	}

	ProductResponse struct {
		ID                int64     `json:"id"`
		Name              string    `json:"name"`
		Category          string    `json:"category"`
		CategoryLabel     string    `json:"category_label"`
		PurchaseDate      string    `json:"purchase_date"`
		ExpiryDate        string    `json:"expiry_date"`
		IsExpiryEstimated bool      `json:"is_expiry_estimated"`
		Quantity          int       `json:"quantity"`
		Consumed          bool      `json:"consumed"`
		ReceiptID         *int64    `json:"receipt_id,omitempty"`
		CreatedAt         time.Time `json:"created_at"`
		DaysLeft          int       `json:"days_left"`
		Urgency           string    `json:"urgency"`
	}

	ProductGroup struct {
		Key       string            `json:"key"`
		Label     string            `json:"label"`
		Collapsed bool              `json:"collapsed"`
		Items     []ProductResponse `json:"items"`
	}

	ProductListResponse struct {
		GroupBy string         `json:"group_by"`
		Total   int            `json:"total"`
		Groups  []ProductGroup `json:"groups"`
	}

	ToggleConsumedResponse struct {
		ID       int64 `json:"id"`
		Consumed bool  `json:"consumed"`
	}

	DeleteByPurchaseDateResponse struct {
		PurchaseDate string `json:"purchase_date"`
		Deleted      int64  `json:"deleted"`
	}
)
