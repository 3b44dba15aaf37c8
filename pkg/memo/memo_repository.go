package memo

import (
	"context"

	"gorm.io/gorm"

	"github.com/kazuki11111/expiry-tracker/entities"
)

type (
	MemoRepository interface {
		CreateMemo(ctx context.Context, memo *entities.Memo) error
		GetMemos(ctx context.Context) ([]*entities.Memo, error)
		GetMemoByID(ctx context.Context, id int64) (*entities.Memo, error)
		UpdateMemo(ctx context.Context, memo *entities.Memo) error
		DeleteMemo(ctx context.Context, id int64) (int64, error)
	}

	memoRepository struct {
		db *gorm.DB
	}
)

func NewMemoRepository(db *gorm.DB) MemoRepository {
	return &memoRepository{db: db}
}

func (r *memoRepository) CreateMemo(ctx context.Context, memo *entities.Memo) error {
	return r.db.WithContext(ctx).Create(memo).Error
}

func (r *memoRepository) GetMemos(ctx context.Context) ([]*entities.Memo, error) {
	var memos []*entities.Memo
	if err := r.db.WithContext(ctx).
		Order("updated_at desc").
		Order("id desc").
		Find(&memos).Error; err != nil {
		return nil, err
	}
	return memos, nil
}

func (r *memoRepository) GetMemoByID(ctx context.Context, id int64) (*entities.Memo, error) {
	var memo entities.Memo
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&memo).Error; err != nil {
		return nil, err
	}
	return &memo, nil
}

func (r *memoRepository) UpdateMemo(ctx context.Context, memo *entities.Memo) error {
	return r.db.WithContext(ctx).Model(&entities.Memo{}).
		Where("id = ?", memo.ID).
		Updates(map[string]interface{}{
			"content":    memo.Content,
			"updated_at": memo.UpdatedAt,
		}).Error
}

func (r *memoRepository) DeleteMemo(ctx context.Context, id int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Memo{})
	return res.RowsAffected, res.Error
}
