package domain

import (
	"errors"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var (
	MessageFailedBodyRequest    = "failed to parse request body"
	MessageFailedProcessRequest = "failed to process request"
	MessageFailedParseID        = "failed to parse id"

	ErrParseID     = errors.New("failed to parse id")
	ErrInvalidDate = errors.New("date must be formatted as YYYY-MM-DD")
)

type (
	Response struct {
		Status  string      `json:"status"`
		Message string      `json:"message"`
		Data    interface{} `json:"data,omitempty"`
		Error   string      `json:"error,omitempty"`
	}

	CategoryResponse struct {
		Key          string `json:"key"`
		Label        string `json:"label"`
		ShelfLifeDay int    `json:"shelf_life_days"`
	}
)
