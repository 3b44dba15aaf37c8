package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessStartScan      = "receipt scanned successfully"
	MessageSuccessGetScan        = "scan session retrieved successfully"
	MessageSuccessUpdateScan     = "scan session updated successfully"
	MessageSuccessCommitScan     = "scanned items saved successfully"
	MessageSuccessDiscardScan    = "scan session discarded"
	MessageSuccessRecognizeImage = "image recognized successfully"

	MessageFailedStartScan      = "failed to scan receipt"
	MessageFailedGetScan        = "failed to retrieve scan session"
	MessageFailedUpdateScan     = "failed to update scan session"
	MessageFailedCommitScan     = "failed to save scanned items"
	MessageFailedRecognizeImage = "OCR処理に失敗しました"
	MessageMissingImage         = "画像データが必要です"

	ErrScanSessionNotFound  = errors.New("scan session not found")
	ErrReceiptNotFound      = errors.New("receipt not found")
	ErrDraftNotFound        = errors.New("draft item not found")
	ErrNoDraftItems         = errors.New("scan session has no items to save")
	ErrMissingImage         = errors.New("image data is required")
	ErrInvalidImage         = errors.New("image must be base64 encoded")
	ErrInvalidMediaType     = errors.New("media type must be one of image/jpeg, image/png, image/gif, image/webp")
	ErrOcrFailed            = errors.New("receipt recognition failed")
	ErrOcrMalformedResponse = errors.New("receipt recognition returned a malformed response")
	ErrOcrNotConfigured     = errors.New("receipt recognition is not configured")
)

// Media types accepted by the recognizer.
var AllowedMediaTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

type (
	// OcrRequest is the wire body of the OCR proxy endpoint.
	OcrRequest struct {
		Image     string `json:"image" validate:"required,base64"`
		MediaType string `json:"mediaType" validate:"omitempty,oneof=image/jpeg image/png image/gif image/webp"`
	}

	OcrProduct struct {
		Name     string `json:"name"`
		Category string `json:"category"`
		Quantity int    `json:"quantity"`
	}

	// OcrResult is the wire response of the OCR proxy endpoint. Category is
	// free text exactly as the recognizer produced it.
	OcrResult struct {
		StoreName *string      `json:"storeName,omitempty"`
		Products  []OcrProduct `json:"products"`
	}

	StartScanRequest struct {
		Image        []byte
		MediaType    string
		PurchaseDate string
	}

	StartScanJSONRequest struct {
		Image        string `json:"image" validate:"required,base64"`
		MediaType    string `json:"mediaType" validate:"omitempty,oneof=image/jpeg image/png image/gif image/webp"`
		PurchaseDate string `json:"purchase_date" validate:"omitempty,isodate"`
	}

	UpdateDraftRequest struct {
		Name       *string `json:"name"`
		Category   *string `json:"category" validate:"omitempty,category"`
		Quantity   *int    `json:"quantity" validate:"omitempty,min=1"`
		ExpiryDate *string `json:"expiry_date" validate:"omitempty,isodate"`
	}

	SetPurchaseDateRequest struct {
		PurchaseDate string `json:"purchase_date" validate:"required,isodate"`
	}

	DraftItemResponse struct {
		Index             int    `json:"index"`
		Name              string `json:"name"`
		Category          string `json:"category"`
		CategoryLabel     string `json:"category_label"`
		Quantity          int    `json:"quantity"`
		ExpiryDate        string `json:"expiry_date"`
		IsExpiryEstimated bool   `json:"is_expiry_estimated"`
	}

	ScanSessionResponse struct {
		ID           string              `json:"id"`
		ReceiptID    *int64              `json:"receipt_id,omitempty"`
		StoreName    string              `json:"store_name,omitempty"`
		PurchaseDate string              `json:"purchase_date"`
		Items        []DraftItemResponse `json:"items"`
		ExpiresAt    time.Time           `json:"expires_at"`
	}

	CommitScanResponse struct {
		ReceiptID  *int64  `json:"receipt_id,omitempty"`
		ProductIDs []int64 `json:"product_ids"`
	}
)
