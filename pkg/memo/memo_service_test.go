package memo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazuki11111/expiry-tracker/domain"
	"github.com/kazuki11111/expiry-tracker/internal/testutil"
	"github.com/kazuki11111/expiry-tracker/internal/utils/clock"
	"github.com/kazuki11111/expiry-tracker/pkg/changefeed"
)

func TestMemoService_ListsNewestUpdateFirst(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMockClock(time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
	service := NewMemoService(NewMemoRepository(testutil.NewTestDB(t)), nil, clk)

	first, err := service.AddMemo(ctx, domain.MemoRequest{Content: "牛乳を買う"})
	require.NoError(t, err)
	clk.Advance(time.Minute)
	_, err = service.AddMemo(ctx, domain.MemoRequest{Content: "卵を買う"})
	require.NoError(t, err)

	memos, err := service.GetMemos(ctx)
	require.NoError(t, err)
	require.Len(t, memos, 2)
	assert.Equal(t, "卵を買う", memos[0].Content)

	clk.Advance(time.Minute)
	updated, err := service.UpdateMemo(ctx, first.ID, domain.MemoRequest{Content: "低脂肪乳を買う"})
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	memos, err = service.GetMemos(ctx)
	require.NoError(t, err)
	assert.Equal(t, "低脂肪乳を買う", memos[0].Content)
	assert.True(t, memos[0].CreatedAt.Equal(first.CreatedAt))
}

func TestMemoService_MissingMemo(t *testing.T) {
	ctx := context.Background()
	service := NewMemoService(NewMemoRepository(testutil.NewTestDB(t)), nil, clock.NewRealClock())

	_, err := service.UpdateMemo(ctx, 5, domain.MemoRequest{Content: "x"})
	assert.ErrorIs(t, err, domain.ErrMemoNotFound)
	assert.ErrorIs(t, service.DeleteMemo(ctx, 5), domain.ErrMemoNotFound)
}

func TestMemoService_PublishesChanges(t *testing.T) {
	ctx := context.Background()
	hub := changefeed.NewHub()
	sub := hub.Subscribe(changefeed.TableMemos)
	defer sub.Stop()

	service := NewMemoService(NewMemoRepository(testutil.NewTestDB(t)), hub, clock.NewRealClock())
	m, err := service.AddMemo(ctx, domain.MemoRequest{Content: "x"})
	require.NoError(t, err)
	<-sub.C()

	require.NoError(t, service.DeleteMemo(ctx, m.ID))
	<-sub.C()

	memos, err := service.GetMemos(ctx)
	require.NoError(t, err)
	assert.Empty(t, memos)
}
