package domain

import (
	"errors"
)

var (
	MessageSuccessGetSettings    = "settings retrieved successfully"
	MessageSuccessUpdateSettings = "settings updated successfully"

	MessageFailedGetSettings    = "failed to retrieve settings"
	MessageFailedUpdateSettings = "failed to update settings"

	ErrInvalidNotifyDays = errors.New("notify days before must be positive integers")
	ErrInvalidNotifyTime = errors.New("notify time must be formatted as HH:MM")
)

type (
	UpdateSettingsRequest struct {
		NotifyDaysBefore *[]int  `json:"notify_days_before" validate:"omitempty,dive,min=1"`
		NotifyTime       *string `json:"notify_time" validate:"omitempty,hhmm"`
		Enabled          *bool   `json:"enabled"`
	}

	SettingsResponse struct {
		NotifyDaysBefore []int  `json:"notify_days_before"`
		NotifyTime       string `json:"notify_time"`
		Enabled          bool   `json:"enabled"`
	}
)
