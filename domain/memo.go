package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessAddMemo    = "memo added successfully"
	MessageSuccessUpdateMemo = "memo updated successfully"
	MessageSuccessDeleteMemo = "memo deleted successfully"
	MessageSuccessGetMemos   = "memos retrieved successfully"

	MessageFailedAddMemo    = "failed to add memo"
	MessageFailedUpdateMemo = "failed to update memo"
	MessageFailedDeleteMemo = "failed to delete memo"
	MessageFailedGetMemos   = "failed to retrieve memos"

	ErrMemoNotFound = errors.New("memo not found")
)

type (
	MemoRequest struct {
		Content string `json:"content"`
	}

	MemoResponse struct {
		ID        int64     `json:"id"`
		Content   string    `json:"content"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}
)
