package memo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/kazuki11111/expiry-tracker/domain"
	"github.com/kazuki11111/expiry-tracker/entities"
	"github.com/kazuki11111/expiry-tracker/internal/utils/clock"
	"github.com/kazuki11111/expiry-tracker/pkg/changefeed"
)

type (
	MemoService interface {
		GetMemos(ctx context.Context) ([]domain.MemoResponse, error)
		AddMemo(ctx context.Context, req domain.MemoRequest) (domain.MemoResponse, error)
		UpdateMemo(ctx context.Context, id int64, req domain.MemoRequest) (domain.MemoResponse, error)
		DeleteMemo(ctx context.Context, id int64) error
	}

	memoService struct {
		memoRepository MemoRepository
		publisher      changefeed.Publisher
		clock          clock.Clock
	}
)

func NewMemoService(memoRepository MemoRepository, publisher changefeed.Publisher, clk clock.Clock) MemoService {
	if publisher == nil {
		publisher = changefeed.Discard{}
	}
	return &memoService{
		memoRepository: memoRepository,
		publisher:      publisher,
		clock:          clk,
	}
}

func (s *memoService) GetMemos(ctx context.Context) ([]domain.MemoResponse, error) {
	memos, err := s.memoRepository.GetMemos(ctx)
	if err != nil {
		return nil, err
	}

	response := make([]domain.MemoResponse, 0, len(memos))
	for _, m := range memos {
		response = append(response, toResponse(m))
	}
	return response, nil
}

func (s *memoService) AddMemo(ctx context.Context, req domain.MemoRequest) (domain.MemoResponse, error) {
	now := s.clock.Now()
	memo := &entities.Memo{
		Content:   req.Content,
		Timestamp: entities.Timestamp{CreatedAt: now, UpdatedAt: now},
	}
	if err := s.memoRepository.CreateMemo(ctx, memo); err != nil {
		return domain.MemoResponse{}, err
	}

	s.publisher.Publish(changefeed.TableMemos)
	return toResponse(memo), nil
}

func (s *memoService) UpdateMemo(ctx context.Context, id int64, req domain.MemoRequest) (domain.MemoResponse, error) {
	memo, err := s.memoRepository.GetMemoByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.MemoResponse{}, domain.ErrMemoNotFound
		}
		return domain.MemoResponse{}, err
	}

	memo.Content = req.Content
	memo.UpdatedAt = s.clock.Now()
	if err := s.memoRepository.UpdateMemo(ctx, memo); err != nil {
		return domain.MemoResponse{}, err
	}

	s.publisher.Publish(changefeed.TableMemos)
	return toResponse(memo), nil
}

func (s *memoService) DeleteMemo(ctx context.Context, id int64) error {
	rows, err := s.memoRepository.DeleteMemo(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrMemoNotFound
	}

	s.publisher.Publish(changefeed.TableMemos)
	return nil
}

func toResponse(m *entities.Memo) domain.MemoResponse {
	return domain.MemoResponse{
		ID:        m.ID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
