package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2/log"

	"github.com/kazuki11111/expiry-tracker/domain"
	"github.com/kazuki11111/expiry-tracker/pkg/expiry"
	"github.com/kazuki11111/expiry-tracker/pkg/product"
	"github.com/kazuki11111/expiry-tracker/pkg/receipt"
)

const defaultMediaType = "image/jpeg"

type (
	ScanService interface {
		Recognize(ctx context.Context, image []byte, mediaType string) (domain.OcrResult, error)
		StartScan(ctx context.Context, req domain.StartScanRequest) (domain.ScanSessionResponse, error)
		GetSession(id string) (domain.ScanSessionResponse, error)
		UpdateItem(id string, index int, req domain.UpdateDraftRequest) (domain.ScanSessionResponse, error)
		RemoveItem(id string, index int) (domain.ScanSessionResponse, error)
		SetPurchaseDate(id string, date string) (domain.ScanSessionResponse, error)
		Commit(ctx context.Context, id string) (domain.CommitScanResponse, error)
		Discard(id string) error
		SweepExpired() int
	}

	scanService struct {
		recognizer     Recognizer
		sessions       *SessionStore
		productService product.ProductService
		receiptService receipt.ReceiptService
	}
)

// NewScanService wires scan intake. recognizer may be nil, in which case
// scans fail with ErrOcrNotConfigured.
func NewScanService(recognizer Recognizer, sessions *SessionStore, productService product.ProductService, receiptService receipt.ReceiptService) ScanService {
	return &scanService{
		recognizer:     recognizer,
		sessions:       sessions,
		productService: productService,
		receiptService: receiptService,
	}
}

// Recognize validates the image and runs the recognizer without opening a
// session.
func (s *scanService) Recognize(ctx context.Context, image []byte, mediaType string) (domain.OcrResult, error) {
	mediaType, err := resolveMediaType(image, mediaType)
	if err != nil {
		return domain.OcrResult{}, err
	}
	if s.recognizer == nil {
		return domain.OcrResult{}, domain.ErrOcrNotConfigured
	}

	result, err := s.recognizer.Recognize(ctx, image, mediaType)
	if err != nil {
		return domain.OcrResult{}, fmt.Errorf("%w: %w", domain.ErrOcrFailed, err)
	}
	return result, nil
}

func (s *scanService) StartScan(ctx context.Context, req domain.StartScanRequest) (domain.ScanSessionResponse, error) {
	mediaType, err := resolveMediaType(req.Image, req.MediaType)
	if err != nil {
		return domain.ScanSessionResponse{}, err
	}
	if s.recognizer == nil {
		return domain.ScanSessionResponse{}, domain.ErrOcrNotConfigured
	}

	purchaseDate := req.PurchaseDate
	if purchaseDate == "" {
		purchaseDate = expiry.FormatDate(s.productService.Today())
	}
	if !expiry.ValidDate(purchaseDate) {
		return domain.ScanSessionResponse{}, domain.ErrInvalidDate
	}

	rec, err := s.receiptService.CreateReceipt(ctx, req.Image, mediaType)
	if err != nil {
		return domain.ScanSessionResponse{}, err
	}

	start := time.Now()
	result, err := s.recognizer.Recognize(ctx, req.Image, mediaType)
	if err != nil {
		if markErr := s.receiptService.MarkFailed(ctx, rec.ID, err.Error()); markErr != nil {
			log.Warnw("failed to mark receipt as failed", "receipt_id", rec.ID, "error", markErr)
		}
		log.Errorw("receipt recognition failed", "receipt_id", rec.ID, "error", err)
		return domain.ScanSessionResponse{}, fmt.Errorf("%w: %w", domain.ErrOcrFailed, err)
	}

	resultsJSON, _ := json.Marshal(result)
	storeName := ""
	if result.StoreName != nil {
		storeName = *result.StoreName
	}
	if err := s.receiptService.MarkProcessed(ctx, rec.ID, storeName, string(resultsJSON)); err != nil {
		log.Warnw("failed to mark receipt as processed", "receipt_id", rec.ID, "error", err)
	}

	session := NewSession(result, purchaseDate)
	receiptID := rec.ID
	session.ReceiptID = &receiptID
	session = s.sessions.Put(session)

	log.Infow("receipt scanned",
		"receipt_id", rec.ID,
		"session_id", session.ID,
		"items", len(session.Items),
		"elapsed", time.Since(start).String(),
	)
	return session.ToResponse(), nil
}

func (s *scanService) GetSession(id string) (domain.ScanSessionResponse, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return domain.ScanSessionResponse{}, err
	}
	return session.ToResponse(), nil
}

func (s *scanService) UpdateItem(id string, index int, req domain.UpdateDraftRequest) (domain.ScanSessionResponse, error) {
	return s.edit(id, func(session *Session) error {
		return session.UpdateItem(index, req)
	})
}

func (s *scanService) RemoveItem(id string, index int) (domain.ScanSessionResponse, error) {
	return s.edit(id, func(session *Session) error {
		return session.RemoveItem(index)
	})
}

func (s *scanService) SetPurchaseDate(id string, date string) (domain.ScanSessionResponse, error) {
	return s.edit(id, func(session *Session) error {
		return session.SetPurchaseDate(date)
	})
}

// Commit stores every draft in one batch. On failure the session stays open
// for another attempt.
func (s *scanService) Commit(ctx context.Context, id string) (domain.CommitScanResponse, error) {
	session, err := s.sessions.Take(id)
	if err != nil {
		return domain.CommitScanResponse{}, err
	}

	products, err := session.Commit()
	if err != nil {
		s.sessions.Restore(session)
		return domain.CommitScanResponse{}, err
	}

	ids, err := s.productService.AddBatch(ctx, products)
	if err != nil {
		s.sessions.Restore(session)
		return domain.CommitScanResponse{}, err
	}

	if session.ReceiptID != nil {
		if err := s.receiptService.MarkCompleted(ctx, *session.ReceiptID); err != nil {
			log.Warnw("failed to mark receipt as completed", "receipt_id", *session.ReceiptID, "error", err)
		}
	}

	log.Infow("scan committed", "session_id", id, "products", len(ids))
	return domain.CommitScanResponse{ReceiptID: session.ReceiptID, ProductIDs: ids}, nil
}

func (s *scanService) Discard(id string) error {
	if !s.sessions.Delete(id) {
		return domain.ErrScanSessionNotFound
	}
	return nil
}

func (s *scanService) SweepExpired() int {
	return s.sessions.Sweep()
}

func (s *scanService) edit(id string, fn func(*Session) error) (domain.ScanSessionResponse, error) {
	session, err := s.sessions.Update(id, fn)
	if err != nil {
		return domain.ScanSessionResponse{}, err
	}
	return session.ToResponse(), nil
}

// resolveMediaType sniffs the image when no type was declared, falling back
// to JPEG. A declared type outside the accepted set is rejected.
func resolveMediaType(image []byte, declared string) (string, error) {
	if len(image) == 0 {
		return "", domain.ErrMissingImage
	}
	if declared == "" {
		sniffed := mimetype.Detect(image).String()
		if mimetype.EqualsAny(sniffed, domain.AllowedMediaTypes...) {
			return sniffed, nil
		}
		return defaultMediaType, nil
	}
	if !mimetype.EqualsAny(declared, domain.AllowedMediaTypes...) {
		return "", domain.ErrInvalidMediaType
	}
	return declared, nil
}
