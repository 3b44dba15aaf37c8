package receipt

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kazuki11111/expiry-tracker/domain"
	"github.com/kazuki11111/expiry-tracker/entities"
	"github.com/kazuki11111/expiry-tracker/internal/utils/clock"
	"github.com/kazuki11111/expiry-tracker/internal/utils/storage"
	"github.com/kazuki11111/expiry-tracker/pkg/changefeed"
)

type (
	ReceiptService interface {
		CreateReceipt(ctx context.Context, image []byte, mediaType string) (*entities.Receipt, error)
		GetReceipt(ctx context.Context, id int64) (*entities.Receipt, error)
		MarkProcessed(ctx context.Context, id int64, storeName, ocrResults string) error
		MarkFailed(ctx context.Context, id int64, reason string) error
		MarkCompleted(ctx context.Context, id int64) error
	}

	receiptService struct {
		receiptRepository ReceiptRepository
		s3                storage.AwsS3
		publisher         changefeed.Publisher
		clock             clock.Clock
	}
)

// NewReceiptService wires the receipt table. s3 may be nil, in which case
// images are not kept.
func NewReceiptService(receiptRepository ReceiptRepository, s3 storage.AwsS3, publisher changefeed.Publisher, clk clock.Clock) ReceiptService {
	if publisher == nil {
		publisher = changefeed.Discard{}
	}
	return &receiptService{
		receiptRepository: receiptRepository,
		s3:                s3,
		publisher:         publisher,
		clock:             clk,
	}
}

func (s *receiptService) CreateReceipt(ctx context.Context, image []byte, mediaType string) (*entities.Receipt, error) {
	receipt := &entities.Receipt{
		MediaType: mediaType,
		Status:    entities.ReceiptStatusPending,
		ScannedAt: s.clock.Now(),
	}

	var objectKey string
	if s.s3 != nil {
		key, err := s.s3.UploadFile(ctx, fmt.Sprintf("receipt-%s", uuid.NewString()), image, "receipts", storage.AllowImage...)
		if err != nil {
			// The scan can still proceed without a stored image.
			log.Warnw("receipt image upload failed", "error", err)
		} else {
			objectKey = key
			receipt.ImageURL = s.s3.GetPublicLinkKey(key)
		}
	}

	if err := s.receiptRepository.CreateReceipt(ctx, receipt); err != nil {
		if objectKey != "" {
			_ = s.s3.DeleteFile(ctx, objectKey)
		}
		return nil, err
	}

	s.publisher.Publish(changefeed.TableReceipts)
	return receipt, nil
}

func (s *receiptService) GetReceipt(ctx context.Context, id int64) (*entities.Receipt, error) {
	receipt, err := s.receiptRepository.GetReceiptByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReceiptNotFound
		}
		return nil, err
	}
	return receipt, nil
}

func (s *receiptService) MarkProcessed(ctx context.Context, id int64, storeName, ocrResults string) error {
	return s.update(ctx, id, func(r *entities.Receipt) {
		r.Status = entities.ReceiptStatusProcessed
		r.StoreName = storeName
		r.OcrResults = ocrResults
	})
}

func (s *receiptService) MarkFailed(ctx context.Context, id int64, reason string) error {
	return s.update(ctx, id, func(r *entities.Receipt) {
		r.Status = entities.ReceiptStatusFailed
		r.OcrResults = reason
	})
}

func (s *receiptService) MarkCompleted(ctx context.Context, id int64) error {
	return s.update(ctx, id, func(r *entities.Receipt) {
		r.Status = entities.ReceiptStatusCompleted
	})
}

func (s *receiptService) update(ctx context.Context, id int64, apply func(*entities.Receipt)) error {
	receipt, err := s.GetReceipt(ctx, id)
	if err != nil {
		return err
	}
	apply(receipt)
	if err := s.receiptRepository.UpdateReceipt(ctx, receipt); err != nil {
		return err
	}
	s.publisher.Publish(changefeed.TableReceipts)
	return nil
}
